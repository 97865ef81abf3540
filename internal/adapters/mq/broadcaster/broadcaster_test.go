package broadcaster_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dodgestorm/internal/adapters/mq/broadcaster"
	"github.com/okian/dodgestorm/internal/adapters/mq/queue"
	"github.com/okian/dodgestorm/internal/domain/types"
	"github.com/okian/dodgestorm/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// captureHub records broadcast payloads.
type captureHub struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (h *captureHub) Broadcast(ctx context.Context, payload []byte) {
	h.mu.Lock()
	h.payloads = append(h.payloads, payload)
	h.mu.Unlock()
}

func (h *captureHub) wait(n int, timeout time.Duration) [][]byte {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		if len(h.payloads) >= n {
			out := make([][]byte, len(h.payloads))
			copy(out, h.payloads)
			h.mu.Unlock()
			return out
		}
		h.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func TestBroadcaster(t *testing.T) {
	Convey("Given a broadcaster wired to a queue and a capture hub", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		h := &captureHub{}
		b := broadcaster.New(q, h, broadcaster.WithName("test-broadcaster"))

		ctx, cancel := context.WithCancel(context.Background())
		go b.Run(ctx)

		Reset(func() {
			cancel()
			_ = q.Close()
		})

		Convey("When a snapshot is enqueued", func() {
			ok := q.Enqueue(ctx, queue.Snapshot{
				{UserID: "u1", Username: "alice", Score: 42, Timestamp: time.Now().UTC()},
			})
			So(ok, ShouldBeTrue)

			Convey("Then the hub receives a leaderboard_update envelope", func() {
				payloads := h.wait(1, 2*time.Second)
				So(payloads, ShouldHaveLength, 1)

				var update types.Update
				So(json.Unmarshal(payloads[0], &update), ShouldBeNil)
				So(update.Type, ShouldEqual, types.TypeUpdate)
				So(update.Top, ShouldHaveLength, 1)
				So(update.Top[0].Username, ShouldEqual, "alice")
			})
		})

		Convey("When several snapshots are enqueued", func() {
			for i := 0; i < 3; i++ {
				So(q.Enqueue(ctx, queue.Snapshot{{UserID: "u", Score: int64(i)}}), ShouldBeTrue)
			}

			Convey("Then all of them are delivered", func() {
				So(h.wait(3, 2*time.Second), ShouldHaveLength, 3)
			})
		})

		Convey("When the broadcaster is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			Convey("Then Shutdown returns promptly", func() {
				So(b.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}
