package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Key layout for the Redis user store.
const (
	userKeyPrefix     = "user:"     // user:{id} -> user JSON
	usernameKeyPrefix = "username:" // username:{name} -> id
)

// RedisConfig holds configuration for the Redis user store.
type RedisConfig struct {
	Client *redis.Client
}

// RedisStore implements Store on plain keys plus a username index. The
// uniqueness constraint rides on SETNX of the index key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed user store and verifies connectivity.
func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	if cfg == nil || cfg.Client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if err := cfg.Client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: cfg.Client}, nil
}

// Create persists a new user, enforcing username uniqueness.
func (s *RedisStore) Create(ctx context.Context, u User) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("%w: marshal user: %w", ErrStore, err)
	}

	// Claim the username first; losing the race means the name is taken.
	claimed, err := s.client.SetNX(ctx, usernameKeyPrefix+u.Username, u.UserID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if !claimed {
		return ErrUserExists
	}

	if err := s.client.Set(ctx, userKeyPrefix+u.UserID, payload, 0).Err(); err != nil {
		// Release the claim so a retry can succeed.
		s.client.Del(ctx, usernameKeyPrefix+u.Username)
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

// ByUsername looks a user up by their unique username.
func (s *RedisStore) ByUsername(ctx context.Context, username string) (User, error) {
	id, err := s.client.Get(ctx, usernameKeyPrefix+username).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return s.ByID(ctx, id)
}

// ByID looks a user up by id.
func (s *RedisStore) ByID(ctx context.Context, id string) (User, error) {
	payload, err := s.client.Get(ctx, userKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	var u User
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		return User{}, fmt.Errorf("%w: unmarshal user: %w", ErrStore, err)
	}
	return u, nil
}
