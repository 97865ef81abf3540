// Package ws adapts gorilla/websocket connections to the broadcast hub.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Default connection tuning constants.
const (
	defaultSendBuffer   = 32
	defaultWriteTimeout = time.Second
	defaultPingInterval = 30 * time.Second
	maxInboundBytes     = 512 // viewers send nothing meaningful
)

// Conn wraps one viewer WebSocket. All writes funnel through a single
// writer goroutine; Send only hands the payload to that goroutine, so a
// slow peer fills the buffer instead of blocking the caller forever.
type Conn struct {
	ws  *websocket.Conn
	out chan []byte

	writeTimeout time.Duration
	pingInterval time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// ConnOption applies a configuration option to a Conn.
type ConnOption func(*Conn)

// WithSendBuffer sets the outbound message buffer size.
func WithSendBuffer(n int) ConnOption {
	return func(c *Conn) {
		if n > 0 {
			c.out = make(chan []byte, n)
		}
	}
}

// WithWriteTimeout sets the per-message write deadline.
func WithWriteTimeout(d time.Duration) ConnOption {
	return func(c *Conn) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithPingInterval sets the server-side idle ping period.
func WithPingInterval(d time.Duration) ConnOption {
	return func(c *Conn) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// NewConn wraps an upgraded WebSocket and starts its writer goroutine.
func NewConn(ws *websocket.Conn, opts ...ConnOption) *Conn {
	c := &Conn{
		ws:           ws,
		out:          make(chan []byte, defaultSendBuffer),
		writeTimeout: defaultWriteTimeout,
		pingInterval: defaultPingInterval,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.writePump()
	return c
}

// Send queues one payload for delivery. It fails when the buffer stays full
// past ctx's deadline or the connection is already closed; the hub treats
// either as a dead viewer.
func (c *Conn) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.out <- payload:
		return nil
	case <-c.done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
	return nil
}

// writePump owns every write on the underlying socket: queued payloads,
// idle pings, and the final close frame.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			deadline := time.Now().Add(c.writeTimeout)
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

// readPump drains inbound frames until the peer goes away. Viewers send
// nothing meaningful; reading is how we notice disconnects and answer pings.
func (c *Conn) readPump(onClose func()) {
	defer func() {
		onClose()
		_ = c.Close()
	}()

	c.ws.SetReadLimit(maxInboundBytes)
	readDeadline := 2 * c.pingInterval
	_ = c.ws.SetReadDeadline(time.Now().Add(readDeadline))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(readDeadline))
	}
}
