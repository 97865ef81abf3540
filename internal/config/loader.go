package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DODGESTORM_CONFIG is set
//  3. env (prefix DODGESTORM_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("DODGESTORM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DODGESTORM_ADDR, DODGESTORM_JWT_SECRET, ...
	// Keys map to the koanf tags on the struct with underscores preserved.
	envProvider := env.Provider("DODGESTORM_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "dodgestorm_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.JWTSecret == "":
		return fmt.Errorf("%w: jwt_secret must be set", ErrInvalidConfig)
	case c.TokenTTLMinutes <= 0:
		return fmt.Errorf("%w: token_ttl_minutes must be > 0", ErrInvalidConfig)
	case c.RateCap <= 0:
		return fmt.Errorf("%w: rate_cap must be > 0", ErrInvalidConfig)
	case c.RateBuffer < 0:
		return fmt.Errorf("%w: rate_buffer must be >= 0", ErrInvalidConfig)
	case c.GameMode == "":
		return fmt.Errorf("%w: game_mode must not be empty", ErrInvalidConfig)
	}
	return nil
}
