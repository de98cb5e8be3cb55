package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/questpet/internal/clock"
	"github.com/dukerupert/questpet/internal/handler"
	"github.com/dukerupert/questpet/internal/middleware"
	"github.com/dukerupert/questpet/internal/tracker"
)

// Auth endpoints allow this many attempts per client IP per window.
const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type Options struct {
	SessionTTL    time.Duration
	SecureCookies bool
	// Backups backs the admin backup routes. Nil leaves them unregistered.
	Backups handler.Backups
}

type Server struct {
	svc         *tracker.Service
	authH       *handler.AuthHandler
	questH      *handler.QuestHandler
	petH        *handler.PetHandler
	backupH     *handler.BackupHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(svc *tracker.Service, clk clock.Clock, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		svc:         svc,
		authH:       handler.NewAuthHandler(svc, opts.SessionTTL, opts.SecureCookies, logger.With("component", "auth")),
		questH:      handler.NewQuestHandler(svc, logger.With("component", "quest")),
		petH:        handler.NewPetHandler(svc, logger.With("component", "pet")),
		rateLimiter: middleware.NewRateLimiter(clk),
		logger:      logger,
	}
	if opts.Backups != nil {
		s.backupH = handler.NewBackupHandler(opts.Backups, logger.With("component", "backup"))
	}
	return s
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /logout", s.authH.Logout)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.svc)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, authRateLimit, authRateWindow)
	limited := rl(h)
	return limited.ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Onboarding
	mux.HandleFunc("POST /create", s.petH.Create)
	mux.HandleFunc("GET /api/presets", s.questH.Presets)
	mux.HandleFunc("POST /create_quests", s.questH.AdoptPresets)
	mux.HandleFunc("GET /home", s.petH.Home)

	// Quest API routes
	mux.HandleFunc("POST /api/quests", s.questH.Create)
	mux.HandleFunc("GET /api/quests", s.questH.List)
	mux.HandleFunc("GET /api/quests/completed", s.questH.Completed)
	mux.HandleFunc("GET /api/quests/search", s.questH.Search)
	mux.HandleFunc("PUT /api/quests/{id}", s.questH.Update)
	mux.HandleFunc("DELETE /api/quests/{id}", s.questH.Delete)
	mux.HandleFunc("POST /api/quests/{id}/complete", s.questH.Complete)

	// Pet API routes
	mux.HandleFunc("GET /api/pet", s.petH.Get)
	mux.HandleFunc("POST /api/pet/feed", s.petH.Feed)
	mux.HandleFunc("POST /api/pet/play", s.petH.Play)
	mux.HandleFunc("GET /api/pet/food", s.petH.GetFood)
	mux.HandleFunc("PUT /api/pet/food", s.petH.SetFood)

	// Admin routes
	if s.backupH != nil {
		mux.Handle("GET /api/admin/backup", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Status)))
		mux.Handle("POST /api/admin/backup", middleware.RequireAdmin(http.HandlerFunc(s.backupH.RunNow)))
	}
}

// RunCleanup prunes expired sessions and rate-limit windows every interval
// until ctx is done.
func (s *Server) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Server) cleanup() {
	n, err := s.svc.PruneSessions()
	if err != nil {
		s.logger.Error("prune sessions", "error", err)
	}
	keys := s.rateLimiter.Cleanup()
	s.logger.Debug("cleanup", "sessions", n, "rate_limit_keys", keys)
}
