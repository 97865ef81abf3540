package loadtest

import "time"

// Config holds configuration for the leaderboard load test
type Config struct {
	BaseURL         string        // Base URL of the service
	NumPlayers      int           // Number of player accounts to register
	RunsPerPlayer   int           // Number of score submissions per player
	ImplausiblePct  int           // Percentage of deliberately implausible submissions
	TopN            int           // Number of top entries to fetch
	Workers         int           // Number of concurrent workers
	Timeout         time.Duration // HTTP request timeout
	LogFile         string        // Log file for test output
	Watch           bool          // Follow the live feed during the run
	Verbose         bool          // Enable verbose logging
}

// Player represents a registered load-test account
type Player struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserID   string `json:"userId"`
	Token    string `json:"token"`
}

// Submission represents one score submission
type Submission struct {
	Player          *Player
	Score           int64   `json:"score"`
	DurationSeconds float64 `json:"durationSeconds"`
	Implausible     bool    `json:"-"`
}

// Entry represents a leaderboard entry
type Entry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Score    int64  `json:"score"`
}

// Stats holds test statistics
type Stats struct {
	PlayersRegistered  int
	SubmissionsSent    int
	SubmissionsAccepted int
	SubmissionsRejected int
	SubmissionsFailed  int
	UpdatesReceived    int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
