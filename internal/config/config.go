// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RedisAddr points store adapters at a Redis instance. Empty selects
	// the in-memory stores (single-process deployments and tests).
	RedisAddr string `koanf:"redis_addr"`

	// RedisPassword is passed through to the Redis client when set.
	RedisPassword string `koanf:"redis_password"`

	// JWTSecret signs bearer tokens. Must be set outside of tests.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTLMinutes bounds bearer token lifetime.
	TokenTTLMinutes int `koanf:"token_ttl_minutes"`

	// RateCap and RateBuffer parameterize the submission plausibility
	// guard: maxAllowed = floor(duration*RateCap) + RateBuffer.
	RateCap    float64 `koanf:"rate_cap"`
	RateBuffer int64   `koanf:"rate_buffer"`

	// GameMode is the leaderboard partition stamped on accepted records.
	GameMode string `koanf:"game_mode"`

	// BroadcastLimit is the top-N size pushed to viewers on each accept.
	BroadcastLimit int `koanf:"broadcast_limit"`

	// QueueSize bounds the snapshot broadcast queue.
	QueueSize int `koanf:"queue_size"`

	// WSSendBuffer is the per-connection outbound message buffer.
	WSSendBuffer int `koanf:"ws_send_buffer"`

	// WSPingIntervalSeconds sets the server-side idle ping period.
	WSPingIntervalSeconds int `koanf:"ws_ping_interval_s"`

	// WSSendTimeoutMillis bounds how long a stalled connection may block
	// a broadcast before being treated as failed.
	WSSendTimeoutMillis int `koanf:"ws_send_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8080",
		RedisAddr:             "",
		JWTSecret:             "",
		TokenTTLMinutes:       60,
		RateCap:               50,
		RateBuffer:            100,
		GameMode:              "classic",
		BroadcastLimit:        100,
		QueueSize:             1024,
		WSSendBuffer:          32,
		WSPingIntervalSeconds: 30,
		WSSendTimeoutMillis:   1000,
	}
}
