// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/dodgestorm/internal/domain/model"
	"github.com/okian/dodgestorm/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SubmitScore runs the full accept/persist/rank/broadcast pipeline.
	SubmitScore(ctx context.Context, id model.UserIdentity, score int64, durationSeconds float64) error

	// Top returns the current ranked top-N view.
	Top(ctx context.Context, limit int) ([]types.Entry, error)

	// Account operations.
	Register(ctx context.Context, username, password string) (string, model.UserIdentity, error)
	Login(ctx context.Context, username, password string) (string, model.UserIdentity, error)
	Guest(ctx context.Context) (string, model.UserIdentity, error)

	// Authenticate resolves a bearer credential to an identity.
	Authenticate(ctx context.Context, credential string) (model.UserIdentity, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	submitHandler      *SubmitHandler
	leaderboardHandler *LeaderboardHandler
	authHandler        *AuthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		submitHandler:      NewSubmitHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		authHandler:        NewAuthHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux, deps Dependencies) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard/top", MetricsMiddleware(s.leaderboardHandler.HandleTop, "leaderboard_top"))
	mux.HandleFunc("/leaderboard/submit", MetricsMiddleware(RequireAuth(deps, s.submitHandler.HandleSubmit), "leaderboard_submit"))
	mux.HandleFunc("/auth/register", MetricsMiddleware(s.authHandler.HandleRegister, "auth_register"))
	mux.HandleFunc("/auth/login", MetricsMiddleware(s.authHandler.HandleLogin, "auth_login"))
	mux.HandleFunc("/auth/guest", MetricsMiddleware(s.authHandler.HandleGuest, "auth_guest"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
