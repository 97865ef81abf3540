// Package ranking implements the submission acceptance policy and the
// deterministic top-N projection over score records.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/dodgestorm/internal/domain/model"
	"github.com/okian/dodgestorm/internal/domain/types"
)

// Default policy configuration constants.
const (
	// defaultCapRate bounds how many points per second of play are plausible.
	defaultCapRate = 50.0
	// defaultBuffer is slack added on top of the rate cap so short runs are
	// not rejected by rounding.
	defaultBuffer = 100
	// defaultGameMode partitions scores into independent leaderboards.
	defaultGameMode = "classic"

	// MinLimit and MaxLimit clamp every requested top-N size. The upper
	// bound caps response size and broadcast payload cost.
	MinLimit = 1
	MaxLimit = 100
)

// Policy validates submissions and projects ranked views. It is stateless
// apart from its configured constants and safe for concurrent use.
type Policy struct {
	capRate  float64
	buffer   int64
	gameMode string
	now      func() time.Time
}

// New creates a Policy with configuration options.
func New(opts ...Option) *Policy {
	p := &Policy{
		capRate:  defaultCapRate,
		buffer:   defaultBuffer,
		gameMode: defaultGameMode,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// GameMode returns the leaderboard partition this policy stamps on records.
func (p *Policy) GameMode() string {
	return p.gameMode
}

// Validate applies the acceptance policy to a raw submission. A nil return
// means the submission may be persisted.
func (p *Policy) Validate(score int64, durationSeconds float64) error {
	if score < 0 {
		return fmt.Errorf("%w: score must be >= 0", ErrRejected)
	}
	if durationSeconds <= 0 {
		return fmt.Errorf("%w: duration must be > 0", ErrRejected)
	}

	// Plausibility guard: trivially-impossible scores are rejected without
	// any game-specific anti-cheat logic.
	maxAllowed := int64(math.Floor(durationSeconds*p.capRate)) + p.buffer
	if score > maxAllowed {
		return fmt.Errorf("%w: score %d exceeds plausible maximum %d", ErrRejected, score, maxAllowed)
	}
	return nil
}

// Record builds the canonical ScoreRecord for an accepted submission. The
// timestamp is stamped here, never taken from the client.
func (p *Policy) Record(id model.UserIdentity, score int64, durationSeconds float64) model.ScoreRecord {
	return model.ScoreRecord{
		UserID:          id.UserID,
		Username:        id.Username,
		Score:           score,
		DurationSeconds: durationSeconds,
		Timestamp:       p.now().UTC(),
		GameMode:        p.gameMode,
	}
}

// ClampLimit forces a requested top-N size into [MinLimit, MaxLimit].
func ClampLimit(n int) int {
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// RankTop projects records onto an ordered top-N view for one game mode.
//
// The projection keeps a single entry per user: the highest score, and on a
// score tie the earliest timestamp (the first achiever keeps the spot).
// Entries are ordered by score descending, then timestamp ascending, then
// user id, so the output is a pure function of the input record set.
// Records with an empty user id are skipped rather than failing the call.
func RankTop(records []model.ScoreRecord, limit int, mode string) []types.Entry {
	limit = ClampLimit(limit)

	best := make(map[string]model.ScoreRecord)
	for _, r := range records {
		if r.GameMode != mode {
			continue
		}
		if r.UserID == "" {
			// Persistence-layer noise must not crash ranking.
			continue
		}
		cur, seen := best[r.UserID]
		if !seen || beats(r, cur) {
			best[r.UserID] = r
		}
	}

	ranked := make([]model.ScoreRecord, 0, len(best))
	for _, r := range best {
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.UserID < b.UserID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]types.Entry, len(ranked))
	for i, r := range ranked {
		entries[i] = types.Entry{
			UserID:    r.UserID,
			Username:  r.Username,
			Score:     r.Score,
			Timestamp: r.Timestamp,
		}
	}
	return entries
}

// beats reports whether candidate should replace current as a user's best.
func beats(candidate, current model.ScoreRecord) bool {
	if candidate.Score != current.Score {
		return candidate.Score > current.Score
	}
	return candidate.Timestamp.Before(current.Timestamp)
}
