// Package types contains common wire types used across the application.
package types

import "time"

// Entry is one row of a ranked leaderboard view. Entries are ephemeral,
// recomputed from score records and never persisted on their own.
type Entry struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Score     int64     `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Update is the envelope pushed to live viewers after an accepted submission.
type Update struct {
	Type string  `json:"type"`
	Top  []Entry `json:"top"`
}

// Message type tags used on the WebSocket channel.
const (
	TypeHello  = "hello"
	TypeUpdate = "leaderboard_update"
)
