// Package ranking implements the submission acceptance policy and the
// deterministic top-N projection over score records.
package ranking

import "time"

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithCapRate sets the plausible points-per-second ceiling.
func WithCapRate(rate float64) Option {
	return func(p *Policy) {
		if rate > 0 {
			p.capRate = rate
		}
	}
}

// WithBuffer sets the slack added on top of the rate cap.
func WithBuffer(buffer int64) Option {
	return func(p *Policy) {
		if buffer >= 0 {
			p.buffer = buffer
		}
	}
}

// WithGameMode sets the leaderboard partition stamped on accepted records.
func WithGameMode(mode string) Option {
	return func(p *Policy) {
		if mode != "" {
			p.gameMode = mode
		}
	}
}

// WithClock overrides the acceptance timestamp source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) {
		if now != nil {
			p.now = now
		}
	}
}
