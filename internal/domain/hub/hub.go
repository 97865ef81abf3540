// Package hub tracks live viewer connections and fans ranking snapshots out
// to all of them, isolating any single connection's failure from the rest.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/okian/dodgestorm/pkg/logger"
	"github.com/okian/dodgestorm/pkg/metrics"
)

// defaultSendTimeout bounds how long one stalled connection may hold up a
// broadcast before it is treated as failed.
const defaultSendTimeout = time.Second

// Conn is the handle the hub holds per viewer. Implementations must be safe
// for concurrent Send calls and must fail fast once the peer is gone.
type Conn interface {
	// Send delivers one payload, honoring ctx for cancellation.
	Send(ctx context.Context, payload []byte) error

	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// Hub owns the set of registered viewer connections. It is constructed once
// at process start and passed by handle to whichever layer registers
// connections or triggers broadcasts; it is never ambient state.
type Hub struct {
	mu    sync.RWMutex
	conns map[Conn]struct{}

	sendTimeout time.Duration
	logger      logger.Logger
}

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithSendTimeout sets the per-connection delivery timeout.
func WithSendTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.sendTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the hub.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates an empty hub with configuration options.
func New(opts ...Option) *Hub {
	h := &Hub{
		conns:       make(map[Conn]struct{}),
		sendTimeout: defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("hub")
	}
	return h
}

// Register adds a connection to the live set. Registering the same handle
// twice is a no-op.
func (h *Hub) Register(c Conn) {
	if c == nil {
		return
	}

	h.mu.Lock()
	_, dup := h.conns[c]
	if !dup {
		h.conns[c] = struct{}{}
	}
	count := len(h.conns)
	h.mu.Unlock()

	if !dup {
		metrics.RecordConnectionOpened()
	}
	metrics.UpdateLiveConnections(count)
}

// Unregister removes a connection from the live set. Safe to call on an
// already-removed or never-registered handle.
func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	count := len(h.conns)
	h.mu.Unlock()

	metrics.UpdateLiveConnections(count)
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast attempts delivery of payload to every connection registered at
// call time. Failed connections are collected and pruned after the sweep,
// never mid-iteration; a single failure neither aborts the sweep nor
// surfaces to the caller. No delivery order is guaranteed and no retry is
// attempted; a pruned viewer is expected to reconnect.
func (h *Hub) Broadcast(ctx context.Context, payload []byte) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	metrics.RecordBroadcast(len(targets))

	var failed []Conn
	for _, c := range targets {
		sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
		err := c.Send(sendCtx, payload)
		cancel()
		if err != nil {
			h.logger.Debug(ctx, "dropping dead viewer connection", logger.Error(err))
			failed = append(failed, c)
		}
	}

	for _, c := range failed {
		h.Unregister(c)
		_ = c.Close()
		metrics.RecordBroadcastFailure()
		metrics.RecordConnectionPruned()
	}
}
