package userstore

import "errors"

// Sentinel kinds for user store errors.
var (
	ErrUserExists   = errors.New("username already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrStore        = errors.New("user store failure")
)
