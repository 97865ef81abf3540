// Package model contains domain models passed between layers.
package model

import "time"

// ScoreRecord represents one accepted score submission. Records are
// immutable once persisted; compaction and retention are external concerns.
type ScoreRecord struct {
	UserID          string    `json:"userId"`
	Username        string    `json:"username"`
	Score           int64     `json:"score"`
	DurationSeconds float64   `json:"durationSeconds"`
	Timestamp       time.Time `json:"timestamp"` // stamped server-side at acceptance, UTC
	GameMode        string    `json:"gameMode"`
}

// UserIdentity is the authenticated principal attached to a submission.
type UserIdentity struct {
	UserID   string
	Username string
}
