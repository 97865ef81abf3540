package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/dodgestorm/internal/domain/hub"
	"github.com/okian/dodgestorm/internal/domain/types"
	"github.com/okian/dodgestorm/pkg/logger"
)

// helloMessage is the one-time acknowledgement sent on connect.
type helloMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Handler upgrades viewer requests and registers them with the hub.
type Handler struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
	logger   logger.Logger

	connOpts []ConnOption
}

// HandlerOption applies a configuration option to the Handler.
type HandlerOption func(*Handler)

// WithConnOptions sets the options applied to every accepted connection.
func WithConnOptions(opts ...ConnOption) HandlerOption {
	return func(h *Handler) {
		h.connOpts = opts
	}
}

// WithLogger sets a custom logger for the handler.
func WithLogger(l logger.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a WebSocket handler bound to the given hub.
func NewHandler(h *hub.Hub, opts ...HandlerOption) *Handler {
	handler := &Handler{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser origins are vetted upstream; the viewer feed is public.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(handler)
	}
	if handler.logger == nil {
		handler.logger = logger.Get().Named("ws")
	}
	return handler
}

// HandleLeaderboard handles GET /ws/leaderboard: upgrade, hello, then push.
func (h *Handler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	conn := NewConn(socket, h.connOpts...)
	h.hub.Register(conn)

	hello, _ := json.Marshal(helloMessage{Type: types.TypeHello, Message: "connected"})
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	if err := conn.Send(ctx, hello); err != nil {
		cancel()
		h.hub.Unregister(conn)
		_ = conn.Close()
		return
	}
	cancel()

	// The read pump lives on this goroutine for the connection's lifetime;
	// its exit is the disconnect signal.
	conn.readPump(func() {
		h.hub.Unregister(conn)
	})
}
