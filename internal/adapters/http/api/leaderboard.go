// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/dodgestorm/internal/domain/ranking"
)

// LeaderboardHandler handles leaderboard read requests.
type LeaderboardHandler struct {
	deps Dependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleTop handles GET /leaderboard/top?limit=N requests. The limit is
// clamped into [1,100] rather than rejected, matching the broadcast bound.
func (h *LeaderboardHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard_top"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := ranking.MaxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", errors.Join(ErrBadRequest, err))
			return
		}
		limit = ranking.ClampLimit(n)
	}

	entries, err := h.deps.Top(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
