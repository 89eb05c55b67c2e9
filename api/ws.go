package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aouyang1/tvsettings/settings"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The playback page is served from this same host, and the feed is
	// read-only settings data.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// handleChangeFeed upgrades to a WebSocket and streams every saved settings
// record to the client, starting with the current snapshot.
func (ws *WebServer) handleChangeFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	records := make(chan *settings.Record, 8)
	done := make(chan struct{})

	unsubscribe := ws.feed.SubscribeToChanges(func(r *settings.Record) {
		select {
		case records <- r:
		default:
			// Slow consumer, drop this update; the next save resends the
			// whole record anyway.
		}
	})

	// Seed the client with the current record so it can render immediately.
	records <- ws.ctrl.Snapshot()

	go func() {
		defer unsubscribe()
		defer conn.Close()

		for {
			select {
			case <-done:
				return
			case r := <-records:
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(r); err != nil {
					slog.Debug("change feed subscriber gone", "error", err)
					return
				}
			}
		}
	}()

	// Drain reads so close frames are processed, and signal the writer when
	// the client goes away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
