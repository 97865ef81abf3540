package ws

import "errors"

// Sentinel kinds for connection errors.
var (
	ErrConnClosed = errors.New("connection closed")
)
