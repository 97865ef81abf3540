// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/dodgestorm/internal/adapters/repository"
	"github.com/okian/dodgestorm/internal/domain/model"
	"github.com/okian/dodgestorm/internal/domain/ranking"
)

// submitRequest mirrors the submission body of POST /leaderboard/submit.
type submitRequest struct {
	Score           int64   `json:"score"`
	DurationSeconds float64 `json:"durationSeconds"`
}

type submitResponse struct {
	Accepted bool `json:"accepted"`
}

// SubmitHandler handles score submissions.
type SubmitHandler struct {
	deps Dependencies
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps Dependencies) *SubmitHandler {
	return &SubmitHandler{deps: deps}
}

// HandleSubmit handles POST /leaderboard/submit requests. The caller's
// identity is placed on the context by RequireAuth.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	id, ok := identityFrom(r.Context())
	if !ok {
		// RequireAuth fronts this handler; a missing identity is a wiring bug.
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Join(ErrBadRequest, err))
		return
	}

	err := h.deps.SubmitScore(r.Context(), id, req.Score, req.DurationSeconds)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, submitResponse{Accepted: true})
	case errors.Is(err, ranking.ErrRejected):
		writeError(w, http.StatusBadRequest, "rejected", err)
	case errors.Is(err, repository.ErrAppend), errors.Is(err, repository.ErrQuery):
		writeError(w, http.StatusInternalServerError, "storage_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// identityCtxKey keys the authenticated identity on the request context.
type identityCtxKey struct{}

func identityFrom(ctx context.Context) (model.UserIdentity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(model.UserIdentity)
	return id, ok
}

func withIdentity(ctx context.Context, id model.UserIdentity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}
