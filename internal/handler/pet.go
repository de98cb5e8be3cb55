package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/questpet/internal/auth"
	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/tracker"
)

type PetHandler struct {
	svc    *tracker.Service
	logger *slog.Logger
}

func NewPetHandler(svc *tracker.Service, logger *slog.Logger) *PetHandler {
	return &PetHandler{svc: svc, logger: logger}
}

type createPetRequest struct {
	Name string `json:"pet_name"`
	Kind string `json:"pet_type"`
}

// Create adopts the user's pet, which completes onboarding.
func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid JSON")
		return
	}

	p, err := h.svc.CreatePet(auth.UserID(r.Context()), req.Name, req.Kind)
	if err != nil {
		writeError(w, h.logger, err, "failed to create pet")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PetHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Pet(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to get pet")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type feedRequest struct {
	Type string `json:"type"`
}

type feedResponse struct {
	Ate                 bool `json:"ate"`
	Hunger              int  `json:"hunger"`
	FoodQuantity        int  `json:"food_quantity"`
	SpecialFoodQuantity int  `json:"special_food_quantity"`
}

func (h *PetHandler) Feed(w http.ResponseWriter, r *http.Request) {
	var req feedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid JSON")
		return
	}

	res, err := h.svc.FeedPet(auth.UserID(r.Context()), req.Type)
	if err != nil {
		writeError(w, h.logger, err, "failed to feed pet")
		return
	}
	writeJSON(w, http.StatusOK, feedResponse{
		Ate:                 res.Ate,
		Hunger:              res.Pet.Hunger,
		FoodQuantity:        res.Pet.FoodQuantity,
		SpecialFoodQuantity: res.Pet.SpecialFoodQuantity,
	})
}

type playRequest struct {
	Amount int `json:"amount"`
}

func (h *PetHandler) Play(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid JSON")
		return
	}

	p, err := h.svc.PlayWithPet(auth.UserID(r.Context()), req.Amount)
	if err != nil {
		writeError(w, h.logger, err, "failed to play with pet")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type foodQuantities struct {
	FoodQuantity        *int `json:"food_quantity"`
	SpecialFoodQuantity *int `json:"special_food_quantity"`
}

func quantitiesOf(p *model.Pet) foodQuantities {
	return foodQuantities{FoodQuantity: &p.FoodQuantity, SpecialFoodQuantity: &p.SpecialFoodQuantity}
}

func (h *PetHandler) GetFood(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Pet(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to get food quantities")
		return
	}
	writeJSON(w, http.StatusOK, quantitiesOf(p))
}

// SetFood overwrites the pantry. Omitted fields stay unchanged.
func (h *PetHandler) SetFood(w http.ResponseWriter, r *http.Request) {
	var req foodQuantities
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid JSON")
		return
	}

	p, err := h.svc.SetFoodQuantities(auth.UserID(r.Context()), req.FoodQuantity, req.SpecialFoodQuantity)
	if err != nil {
		writeError(w, h.logger, err, "failed to update food quantities")
		return
	}
	writeJSON(w, http.StatusOK, quantitiesOf(p))
}

type homeResponse struct {
	Username string        `json:"username"`
	Pet      *model.Pet    `json:"pet"`
	Quests   []model.Quest `json:"quests"`
}

func (h *PetHandler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.svc.Home(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to load home")
		return
	}
	writeJSON(w, http.StatusOK, homeResponse{
		Username: home.User.Username,
		Pet:      home.Pet,
		Quests:   home.Quests,
	})
}
