// Package broadcaster drains ranked snapshots off the queue and fans them
// out to the viewer hub, decoupling delivery from the submission path.
package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/dodgestorm/internal/adapters/mq/queue"
	"github.com/okian/dodgestorm/internal/domain/types"
	"github.com/okian/dodgestorm/pkg/logger"
)

// Queue defines how the broadcaster receives snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Snapshot
}

// Hub defines the fan-out target.
type Hub interface {
	Broadcast(ctx context.Context, payload []byte)
}

// Broadcaster forwards queued snapshots to the hub until stopped.
type Broadcaster struct {
	queue Queue
	hub   Hub
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Broadcaster.
type Option func(*Broadcaster)

// WithName sets the broadcaster name used in logs.
func WithName(name string) Option {
	return func(b *Broadcaster) {
		if name != "" {
			b.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Broadcaster) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a broadcaster with configuration options.
func New(q Queue, h Hub, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		queue:    q,
		hub:      h,
		name:     "broadcaster",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logger.Get().Named(b.name)
	}
	return b
}

// Run drains the queue until ctx is canceled or Shutdown is called.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)

	snapshots := b.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.shutdown:
			return
		case s, ok := <-snapshots:
			if !ok {
				return
			}
			b.deliver(ctx, s)
		}
	}
}

// Shutdown gracefully stops the broadcaster.
func (b *Broadcaster) Shutdown(ctx context.Context) error {
	close(b.shutdown)

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		b.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// deliver wraps one snapshot in the update envelope and hands it to the hub.
func (b *Broadcaster) deliver(ctx context.Context, s queue.Snapshot) {
	update := types.Update{Type: types.TypeUpdate, Top: s}
	payload, err := json.Marshal(update)
	if err != nil {
		b.logger.Error(ctx, "failed to marshal snapshot", logger.Error(err))
		return
	}

	b.hub.Broadcast(ctx, payload)
	b.logger.Debug(ctx, "snapshot broadcast", logger.Int("entries", len(s)))
}
