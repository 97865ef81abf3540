package hub_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dodgestorm/internal/domain/hub"
	"github.com/okian/dodgestorm/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// fakeConn records payloads and can be told to fail or stall.
type fakeConn struct {
	mu       sync.Mutex
	payloads [][]byte
	fail     bool
	stall    bool
	closed   bool
}

func (f *fakeConn) Send(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	fail, stall := f.fail, f.stall
	f.mu.Unlock()

	if stall {
		<-ctx.Done()
		return ctx.Err()
	}
	if fail {
		return errors.New("peer gone")
	}

	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func TestHubRegistration(t *testing.T) {
	Convey("Given an empty hub", t, func() {
		h := hub.New()
		c := &fakeConn{}

		Convey("When registering a connection twice", func() {
			h.Register(c)
			h.Register(c)

			Convey("Then it is tracked once", func() {
				So(h.Count(), ShouldEqual, 1)
			})
		})

		Convey("When unregistering twice, and unregistering a stranger", func() {
			h.Register(c)
			h.Unregister(c)
			h.Unregister(c)
			h.Unregister(&fakeConn{})

			Convey("Then nothing errors and the set is empty", func() {
				So(h.Count(), ShouldEqual, 0)
			})
		})
	})
}

func TestHubBroadcast(t *testing.T) {
	ctx := context.Background()

	Convey("Given a hub with three viewers, one of them dead", t, func() {
		h := hub.New(hub.WithSendTimeout(50 * time.Millisecond))
		alive1 := &fakeConn{}
		alive2 := &fakeConn{}
		dead := &fakeConn{fail: true}
		h.Register(alive1)
		h.Register(alive2)
		h.Register(dead)

		Convey("When broadcasting a snapshot", func() {
			h.Broadcast(ctx, []byte(`{"type":"leaderboard_update"}`))

			Convey("Then the live viewers still receive it", func() {
				So(alive1.received(), ShouldEqual, 1)
				So(alive2.received(), ShouldEqual, 1)
			})

			Convey("And the dead connection is pruned and closed", func() {
				So(h.Count(), ShouldEqual, 2)
				So(dead.closed, ShouldBeTrue)
			})

			Convey("And the next broadcast only targets survivors", func() {
				h.Broadcast(ctx, []byte(`again`))
				So(alive1.received(), ShouldEqual, 2)
				So(alive2.received(), ShouldEqual, 2)
				So(dead.received(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a viewer that stalls instead of failing", t, func() {
		h := hub.New(hub.WithSendTimeout(20 * time.Millisecond))
		stalled := &fakeConn{stall: true}
		alive := &fakeConn{}
		h.Register(stalled)
		h.Register(alive)

		Convey("When broadcasting", func() {
			start := time.Now()
			h.Broadcast(ctx, []byte(`payload`))

			Convey("Then the stall is bounded by the send timeout", func() {
				So(time.Since(start), ShouldBeLessThan, 500*time.Millisecond)
			})

			Convey("And the stalled connection is pruned while the live one survives", func() {
				So(h.Count(), ShouldEqual, 1)
				So(alive.received(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an empty hub", t, func() {
		h := hub.New()

		Convey("Then broadcasting is a harmless no-op", func() {
			So(func() { h.Broadcast(ctx, []byte(`x`)) }, ShouldNotPanic)
		})
	})
}
