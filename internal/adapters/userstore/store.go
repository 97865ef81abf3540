// Package userstore persists user accounts for the auth endpoints.
package userstore

import (
	"context"
	"time"
)

// User is a stored account. The password hash never leaves this layer
// except to be verified by the auth service.
type User struct {
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store provides user persistence with a unique-username constraint.
type Store interface {
	// Create persists a new user. Returns ErrUserExists when the username
	// is already taken.
	Create(ctx context.Context, u User) error

	// ByUsername looks a user up by their unique username.
	// Returns ErrUserNotFound when absent.
	ByUsername(ctx context.Context, username string) (User, error)

	// ByID looks a user up by id. Returns ErrUserNotFound when absent.
	ByID(ctx context.Context, id string) (User, error)
}
