package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/questpet/internal/auth"
	"github.com/dukerupert/questpet/internal/quest"
	"github.com/dukerupert/questpet/internal/tracker"
)

type QuestHandler struct {
	svc    *tracker.Service
	logger *slog.Logger
}

func NewQuestHandler(svc *tracker.Service, logger *slog.Logger) *QuestHandler {
	return &QuestHandler{svc: svc, logger: logger}
}

type questRequest struct {
	Description string   `json:"description"`
	QuestType   string   `json:"quest_type"`
	DueDate     string   `json:"due_date"`
	DueTime     string   `json:"due_time"`
	RepeatDays  []string `json:"repeat_days"`
	EndOfDay    bool     `json:"end_of_day"`
	Repeat      *bool    `json:"repeat"`
}

func (h *QuestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req questRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid JSON")
		return
	}

	// Quests repeat unless the client opts out.
	repeat := true
	if req.Repeat != nil {
		repeat = *req.Repeat
	}

	q, err := h.svc.AddQuest(quest.Draft{
		Description: req.Description,
		UserID:      auth.UserID(r.Context()),
		Type:        req.QuestType,
		DueDate:     req.DueDate,
		DueTime:     req.DueTime,
		RepeatDays:  req.RepeatDays,
		EndOfDay:    req.EndOfDay,
		Repeat:      repeat,
	})
	if err != nil {
		writeError(w, h.logger, err, "failed to add quest")
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *QuestHandler) List(w http.ResponseWriter, r *http.Request) {
	quests, err := h.svc.Quests(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to list quests")
		return
	}
	writeJSON(w, http.StatusOK, quests)
}

func (h *QuestHandler) Completed(w http.ResponseWriter, r *http.Request) {
	quests, err := h.svc.CompletedQuests(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to list completed quests")
		return
	}
	writeJSON(w, http.StatusOK, quests)
}

// Search fuzzy-matches the q query parameter against quest descriptions.
func (h *QuestHandler) Search(w http.ResponseWriter, r *http.Request) {
	quests, err := h.svc.SearchQuests(auth.UserID(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.logger, err, "failed to search quests")
		return
	}
	writeJSON(w, http.StatusOK, quests)
}

type updateQuestRequest struct {
	Description string `json:"description"`
}

func (h *QuestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid id")
		return
	}
	var req updateQuestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid JSON")
		return
	}

	q, err := h.svc.UpdateQuestDescription(auth.UserID(r.Context()), id, req.Description)
	if err != nil {
		writeError(w, h.logger, err, "failed to update quest")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *QuestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid id")
		return
	}
	if err := h.svc.DeleteQuest(auth.UserID(r.Context()), id); err != nil {
		writeError(w, h.logger, err, "failed to delete quest")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeResponse struct {
	QuestType           string `json:"quest_type"`
	Status              string `json:"status"`
	Reward              string `json:"reward,omitempty"`
	FoodQuantity        int    `json:"food_quantity"`
	SpecialFoodQuantity int    `json:"special_food_quantity"`
}

func (h *QuestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid id")
		return
	}

	res, err := h.svc.CompleteQuest(auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err, "failed to complete quest")
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{
		QuestType:           string(res.Quest.Type),
		Status:              string(res.Quest.Status),
		Reward:              string(res.Reward),
		FoodQuantity:        res.Pet.FoodQuantity,
		SpecialFoodQuantity: res.Pet.SpecialFoodQuantity,
	})
}

func (h *QuestHandler) Presets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.svc.Presets()
	if err != nil {
		writeError(w, h.logger, err, "failed to load presets")
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

type adoptRequest struct {
	Selection []string `json:"selection"`
}

// AdoptPresets copies the selected starter quests to the signed-in user.
func (h *QuestHandler) AdoptPresets(w http.ResponseWriter, r *http.Request) {
	var req adoptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid JSON")
		return
	}

	quests, err := h.svc.AdoptPresets(auth.UserID(r.Context()), strings.Join(req.Selection, "\n"))
	if err != nil {
		writeError(w, h.logger, err, "failed to adopt presets")
		return
	}
	writeJSON(w, http.StatusCreated, quests)
}
