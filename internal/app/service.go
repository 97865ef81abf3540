// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	snapshotqueue "github.com/okian/dodgestorm/internal/adapters/mq/queue"
	"github.com/okian/dodgestorm/internal/adapters/repository"
	"github.com/okian/dodgestorm/internal/adapters/userstore"
	"github.com/okian/dodgestorm/internal/domain/auth"
	"github.com/okian/dodgestorm/internal/domain/hub"
	"github.com/okian/dodgestorm/internal/domain/model"
	"github.com/okian/dodgestorm/internal/domain/ranking"
	"github.com/okian/dodgestorm/internal/domain/types"
	"github.com/okian/dodgestorm/pkg/logger"
	"github.com/okian/dodgestorm/pkg/metrics"
)

// guestUsername names the shared account issued by Guest sessions.
const guestUsername = "Guest"

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	scores    repository.Store
	users     userstore.Store
	policy    *ranking.Policy
	tokens    *auth.TokenService
	hub       *hub.Hub
	snapshots snapshotqueue.Queue

	// Configuration
	jwtSecret      string
	tokenTTL       time.Duration
	rateCap        float64
	rateBuffer     int64
	gameMode       string
	broadcastLimit int
	queueSize      int
	sendTimeout    time.Duration
	redisClient    *redis.Client

	// State
	started bool
	guestID string

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithJWTSecret sets the token signing secret.
func WithJWTSecret(secret string) Option {
	return func(s *Service) {
		s.jwtSecret = secret
	}
}

// WithTokenTTL bounds issued token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithPlausibilityBounds sets the submission guard parameters.
func WithPlausibilityBounds(capRate float64, buffer int64) Option {
	return func(s *Service) {
		if capRate > 0 {
			s.rateCap = capRate
		}
		if buffer >= 0 {
			s.rateBuffer = buffer
		}
	}
}

// WithGameMode sets the leaderboard partition stamped on accepted records.
func WithGameMode(mode string) Option {
	return func(s *Service) {
		if mode != "" {
			s.gameMode = mode
		}
	}
}

// WithBroadcastLimit sets the top-N size pushed to viewers on each accept.
func WithBroadcastLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.broadcastLimit = ranking.ClampLimit(n)
		}
	}
}

// WithQueueSize sets the maximum size of the snapshot queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSendTimeout bounds per-connection broadcast sends.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sendTimeout = d
		}
	}
}

// WithRedisClient directs score and user storage at Redis. When unset the
// service runs on in-memory stores.
func WithRedisClient(client *redis.Client) Option {
	return func(s *Service) {
		s.redisClient = client
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		tokenTTL:       time.Hour,
		rateCap:        50,
		rateBuffer:     100,
		gameMode:       "classic",
		broadcastLimit: ranking.MaxLimit,
		queueSize:      1024,
		sendTimeout:    time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting leaderboard service...")

	tokens, err := auth.NewTokenService(s.jwtSecret, auth.WithTTL(s.tokenTTL))
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	s.tokens = tokens

	if s.redisClient != nil {
		scores, err := repository.NewRedisStore(&repository.RedisConfig{Client: s.redisClient})
		if err != nil {
			return fmt.Errorf("score store: %w", err)
		}
		users, err := userstore.NewRedisStore(&userstore.RedisConfig{Client: s.redisClient})
		if err != nil {
			return fmt.Errorf("user store: %w", err)
		}
		s.scores = scores
		s.users = users
		s.logger.Info(ctx, "using redis stores")
	} else {
		s.scores = repository.NewMemoryStore()
		s.users = userstore.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory stores")
	}

	s.policy = ranking.New(
		ranking.WithCapRate(s.rateCap),
		ranking.WithBuffer(s.rateBuffer),
		ranking.WithGameMode(s.gameMode),
	)
	s.hub = hub.New(hub.WithSendTimeout(s.sendTimeout))
	s.snapshots = snapshotqueue.NewInMemoryQueue(snapshotqueue.WithCapacity(s.queueSize))
	metrics.UpdateQueueCapacity(s.queueSize)

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.String("gameMode", s.gameMode),
		logger.Int("broadcastLimit", s.broadcastLimit),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping leaderboard service...")

	if q, ok := s.snapshots.(*snapshotqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

// Hub exposes the connection hub so transport adapters can register viewers.
func (s *Service) Hub() *hub.Hub {
	return s.hub
}

// Snapshots exposes the snapshot queue for the broadcaster to drain.
func (s *Service) Snapshots() snapshotqueue.Queue {
	return s.snapshots
}

// SubmitScore validates a submission, persists it, and enqueues a refreshed
// top-N snapshot for broadcast. The snapshot is computed synchronously so it
// reflects this submission; fan-out to viewers happens off the request path.
func (s *Service) SubmitScore(ctx context.Context, id model.UserIdentity, score int64, durationSeconds float64) error {
	start := time.Now()

	if err := s.policy.Validate(score, durationSeconds); err != nil {
		metrics.RecordSubmissionRejected("implausible")
		s.logger.Warn(ctx, "submission rejected",
			logger.String("userID", id.UserID),
			logger.Int64("score", score),
			logger.Float64("durationSeconds", durationSeconds),
		)
		return err
	}

	rec := s.policy.Record(id, score, durationSeconds)
	if err := s.scores.Append(ctx, rec); err != nil {
		return err
	}
	metrics.RecordSubmissionAccepted()

	snapshot, err := s.top(ctx, s.broadcastLimit)
	if err != nil {
		// The score is durable; a failed snapshot only delays viewers
		// until the next accepted submission.
		s.logger.Warn(ctx, "snapshot query failed after append", logger.Error(err))
	} else {
		s.snapshots.Enqueue(ctx, snapshot)
		metrics.UpdateQueueSize(s.snapshots.Len(ctx))
	}

	metrics.RecordSubmissionLatency(float64(time.Since(start).Milliseconds()))
	s.logger.Debug(ctx, "submission accepted",
		logger.String("userID", id.UserID),
		logger.Int64("score", score),
	)
	return nil
}

// Top returns the current ranked top-N view.
func (s *Service) Top(ctx context.Context, limit int) ([]types.Entry, error) {
	return s.top(ctx, ranking.ClampLimit(limit))
}

func (s *Service) top(ctx context.Context, limit int) ([]types.Entry, error) {
	candidates, err := s.scores.TopCandidates(ctx, s.gameMode, repository.CandidateFetchLimit(limit))
	if err != nil {
		return nil, err
	}
	return ranking.RankTop(candidates, limit, s.gameMode), nil
}

// Register creates an account and returns a signed token for it.
func (s *Service) Register(ctx context.Context, username, password string) (string, model.UserIdentity, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", model.UserIdentity{}, fmt.Errorf("hash password: %w", err)
	}

	u := userstore.User{
		UserID:       uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", model.UserIdentity{}, err
	}
	metrics.RecordUserRegistered()

	id := model.UserIdentity{UserID: u.UserID, Username: u.Username}
	token, err := s.tokens.Issue(id)
	if err != nil {
		return "", model.UserIdentity{}, err
	}
	return token, id, nil
}

// Login verifies credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, username, password string) (string, model.UserIdentity, error) {
	u, err := s.users.ByUsername(ctx, username)
	if err != nil {
		metrics.RecordAuthFailure()
		// Same error for unknown user and bad password.
		return "", model.UserIdentity{}, auth.ErrInvalidCredentials
	}
	if !auth.VerifyPassword(password, u.PasswordHash) {
		metrics.RecordAuthFailure()
		return "", model.UserIdentity{}, auth.ErrInvalidCredentials
	}

	id := model.UserIdentity{UserID: u.UserID, Username: u.Username}
	token, err := s.tokens.Issue(id)
	if err != nil {
		return "", model.UserIdentity{}, err
	}
	return token, id, nil
}

// Guest returns a token for the shared guest account, creating it on first
// use. Guest scores all land on one identity, so they dedupe together.
func (s *Service) Guest(ctx context.Context) (string, model.UserIdentity, error) {
	id, err := s.guestIdentity(ctx)
	if err != nil {
		return "", model.UserIdentity{}, err
	}
	token, err := s.tokens.Issue(id)
	if err != nil {
		return "", model.UserIdentity{}, err
	}
	return token, id, nil
}

func (s *Service) guestIdentity(ctx context.Context) (model.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.guestID != "" {
		return model.UserIdentity{UserID: s.guestID, Username: guestUsername}, nil
	}

	if u, err := s.users.ByUsername(ctx, guestUsername); err == nil {
		s.guestID = u.UserID
		return model.UserIdentity{UserID: u.UserID, Username: u.Username}, nil
	}

	u := userstore.User{
		UserID:    uuid.NewString(),
		Username:  guestUsername,
		CreatedAt: time.Now().UTC(),
	}
	err := s.users.Create(ctx, u)
	if err != nil {
		// Another process may have claimed the name first.
		if existing, lookupErr := s.users.ByUsername(ctx, guestUsername); lookupErr == nil {
			s.guestID = existing.UserID
			return model.UserIdentity{UserID: existing.UserID, Username: existing.Username}, nil
		}
		return model.UserIdentity{}, err
	}

	s.guestID = u.UserID
	return model.UserIdentity{UserID: u.UserID, Username: u.Username}, nil
}

// Authenticate resolves a bearer credential to an identity. The token claims
// are cross-checked against the user store so revoked accounts drop out.
func (s *Service) Authenticate(ctx context.Context, credential string) (model.UserIdentity, error) {
	id, err := s.tokens.Validate(credential)
	if err != nil {
		return model.UserIdentity{}, err
	}

	u, err := s.users.ByID(ctx, id.UserID)
	if err != nil {
		return model.UserIdentity{}, auth.ErrInvalidToken
	}
	return model.UserIdentity{UserID: u.UserID, Username: u.Username}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"gameMode":       s.gameMode,
		"broadcastLimit": s.broadcastLimit,
	}

	if s.started {
		records := s.scores.Count(ctx)
		queueLen := s.snapshots.Len(ctx)
		connections := s.hub.Count()

		stats["records"] = records
		stats["queueLength"] = queueLen
		stats["liveConnections"] = connections

		metrics.UpdateRecordsTotal(records)
		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
