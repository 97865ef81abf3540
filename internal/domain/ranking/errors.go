package ranking

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrRejected marks a submission that failed the acceptance policy.
	// Wrapped errors carry the human-readable reason.
	ErrRejected = errors.New("submission rejected")
)
