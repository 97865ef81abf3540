package loadtest

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// watcher follows the live leaderboard feed and counts updates, so a run
// can confirm broadcasts actually reach viewers.
type watcher struct {
	updates int64
	done    chan struct{}
}

// startWatcher connects to the feed and reads until ctx is canceled. A nil
// return means the connection could not be established.
func startWatcher(ctx context.Context, config *Config) *watcher {
	wsURL := strings.Replace(config.BaseURL, "http", "ws", 1) + "/ws/leaderboard"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		log.Printf("live feed unavailable: %v", err)
		return nil
	}

	w := &watcher{done: make(chan struct{})}

	go func() {
		defer close(w.done)
		defer conn.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var msg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(payload, &msg); err != nil {
				continue
			}
			if msg.Type == "leaderboard_update" {
				atomic.AddInt64(&w.updates, 1)
			}
		}
	}()

	return w
}

// Updates returns the number of leaderboard updates observed so far.
func (w *watcher) Updates() int {
	return int(atomic.LoadInt64(&w.updates))
}
