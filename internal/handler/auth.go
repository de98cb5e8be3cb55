package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/questpet/internal/auth"
	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/tracker"
)

type AuthHandler struct {
	svc           *tracker.Service
	sessionTTL    time.Duration
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(svc *tracker.Service, sessionTTL time.Duration, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, sessionTTL: sessionTTL, secureCookies: secureCookies, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid JSON")
		return
	}

	user, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err, "failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Next   string        `json:"next"`
	User   *model.User   `json:"user"`
	Pet    *model.Pet    `json:"pet"`
	Quests []model.Quest `json:"quests"`
}

// Login checks credentials, runs the check-in cycle and sets the session
// cookie. Next tells the client where to go: pet creation or home.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "invalid JSON")
		return
	}

	res, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err, "failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    res.Session.Token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies || r.TLS != nil,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Next:   res.Next,
		User:   res.CheckIn.User,
		Pet:    res.CheckIn.Pet,
		Quests: res.CheckIn.Quests,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.svc.Logout(cookie.Value); err != nil {
			h.logger.Error("logout", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeMessage(w, http.StatusOK, "success", "logged out")
}
