// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/dodgestorm/internal/adapters/userstore"
	"github.com/okian/dodgestorm/internal/domain/auth"
	"github.com/okian/dodgestorm/internal/domain/model"
)

// Request size limits for the auth endpoints.
const (
	maxUsernameLen = 64
	maxPasswordLen = 128
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *credentialsRequest) validate() error {
	c.Username = strings.TrimSpace(c.Username)
	switch {
	case c.Username == "" || len(c.Username) > maxUsernameLen:
		return errors.New("username must be 1-64 characters")
	case c.Password == "" || len(c.Password) > maxPasswordLen:
		return errors.New("password must be 1-128 characters")
	}
	return nil
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// AuthHandler handles account registration and login.
type AuthHandler struct {
	deps Dependencies
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(deps Dependencies) *AuthHandler {
	return &AuthHandler{deps: deps}
}

// HandleRegister handles POST /auth/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	h.handleCredentials(w, r, h.deps.Register)
}

// HandleLogin handles POST /auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.handleCredentials(w, r, h.deps.Login)
}

// HandleGuest handles POST /auth/guest requests: a shared guest account is
// created on first use and reused afterwards.
func (h *AuthHandler) HandleGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	token, id, err := h.deps.Guest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, Username: id.Username, UserID: id.UserID})
}

func (h *AuthHandler) handleCredentials(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, username, password string) (string, model.UserIdentity, error),
) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Join(ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Join(ErrBadRequest, err))
		return
	}

	token, id, err := op(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, authResponse{Token: token, Username: id.Username, UserID: id.UserID})
	case errors.Is(err, userstore.ErrUserExists):
		writeError(w, http.StatusBadRequest, "username_taken", err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
