// Package repository defines the score store contract and its implementations.
//
// The store is treated as untrusted for ranking correctness: it persists
// records and answers a "candidates for mode, score desc" query, but the
// per-user deduplication always happens in the ranking core. To make that
// possible without a full scan, TopCandidates is asked for more rows than
// the caller ultimately needs (see CandidateFetchLimit). This over-fetch is
// a deliberate compromise for stores that cannot natively reduce per user;
// keep it even if a future store claims to group per user.
package repository

import (
	"context"

	"github.com/okian/dodgestorm/internal/domain/model"
)

// Candidate over-fetch policy.
const (
	// candidateFetchFactor multiplies the requested top-N size.
	candidateFetchFactor = 25
	// maxCandidateFetch caps the candidate query regardless of limit.
	maxCandidateFetch = 2500
)

// CandidateFetchLimit returns how many candidate records to request from the
// store so the core can deduplicate a top-n view per user.
func CandidateFetchLimit(n int) int {
	if n < 1 {
		n = 1
	}
	fetch := n * candidateFetchFactor
	if fetch > maxCandidateFetch {
		return maxCandidateFetch
	}
	return fetch
}

// Store provides append and candidate-query access to score records.
type Store interface {
	// Append persists one accepted record. Records are immutable; there is
	// no update or delete.
	Append(ctx context.Context, rec model.ScoreRecord) error

	// TopCandidates returns up to limit records for the given game mode,
	// ordered by score descending. The result may contain several records
	// per user; callers must deduplicate.
	TopCandidates(ctx context.Context, mode string, limit int) ([]model.ScoreRecord, error)

	// Count returns the number of records tracked by the store.
	Count(ctx context.Context) int
}
