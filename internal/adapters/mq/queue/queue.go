// Package queue buffers ranked snapshots between the submission pipeline
// and the broadcast fan-out so slow viewers never block submitters.
package queue

import (
	"context"
	"sync"

	"github.com/okian/dodgestorm/internal/domain/types"
	"github.com/okian/dodgestorm/pkg/metrics"
)

// defaultCapacity bounds the in-memory snapshot backlog.
const defaultCapacity = 1024

// Snapshot is the ranked top-N view at a point in time.
type Snapshot = []types.Entry

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot to the queue.
	// Returns false when the queue is full; the snapshot is dropped and
	// viewers catch up on the next accepted submission.
	Enqueue(ctx context.Context, s Snapshot) bool

	// Dequeue returns a channel that receives snapshots as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Snapshot

	// Len returns the current number of queued snapshots.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new
	// snapshots can be enqueued and the dequeue channel is closed.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	snapshots chan Snapshot
	capacity  int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.snapshots = make(chan Snapshot, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a snapshot to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Snapshot) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordSnapshotDropped()
		return false
	}

	select {
	case q.snapshots <- s:
		metrics.UpdateQueueSize(len(q.snapshots))
		return true
	case <-ctx.Done():
		metrics.RecordSnapshotDropped()
		return false
	default:
		metrics.RecordSnapshotDropped()
		return false
	}
}

// Dequeue returns a channel that receives snapshots as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		for s := range q.snapshots {
			select {
			case out <- s:
				metrics.UpdateQueueSize(len(q.snapshots))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued snapshots.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.snapshots)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.snapshots)
	q.closed = true
	return nil
}
