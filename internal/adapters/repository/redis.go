package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/dodgestorm/internal/domain/model"
	"github.com/okian/dodgestorm/pkg/logger"
	"github.com/okian/dodgestorm/pkg/metrics"
)

// Key layout for the Redis score store.
const (
	scoresKeyPrefix = "scores:" // scores:{mode} -> ZSET of record JSON scored by points
	recordCountKey  = "scores:count"
)

// RedisConfig holds configuration for the Redis score store.
type RedisConfig struct {
	Client *redis.Client
}

// RedisStore implements Store on a per-mode sorted set. The member is the
// full record JSON and the ZSET score is the record's points, so the
// "candidates for mode, score desc" query is a single ZREVRANGE.
type RedisStore struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisStore creates a Redis-backed score store and verifies connectivity.
func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	if cfg == nil || cfg.Client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if err := cfg.Client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{
		client: cfg.Client,
		logger: logger.Get().Named("score-store"),
	}, nil
}

// Append persists one accepted record.
func (s *RedisStore) Append(ctx context.Context, rec model.ScoreRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreAppendLatency(float64(time.Since(start).Milliseconds()))
	}()

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal record: %w", ErrAppend, err)
	}

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, scoresKeyPrefix+rec.GameMode, redis.Z{
		Score:  float64(rec.Score),
		Member: payload,
	})
	pipe.Incr(ctx, recordCountKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrAppend, err)
	}
	return nil
}

// TopCandidates returns up to limit records for mode, ordered by score desc.
// Members that fail to unmarshal are skipped; persistence-layer noise must
// not take down the ranking path.
func (s *RedisStore) TopCandidates(ctx context.Context, mode string, limit int) ([]model.ScoreRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		return nil, nil
	}

	members, err := s.client.ZRevRange(ctx, scoresKeyPrefix+mode, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	records := make([]model.ScoreRecord, 0, len(members))
	for _, m := range members {
		var rec model.ScoreRecord
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			s.logger.Warn(ctx, "skipping malformed score record", logger.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count returns the number of records tracked by the store.
func (s *RedisStore) Count(ctx context.Context) int {
	n, err := s.client.Get(ctx, recordCountKey).Int()
	if err != nil {
		return 0
	}
	return n
}
