package repository

import "errors"

// Sentinel kinds for score store errors.
var (
	ErrAppend = errors.New("score append failed")
	ErrQuery  = errors.New("score query failed")
)
