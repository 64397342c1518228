package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsSendBuffer = 16

type wsMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// hub fans leaderboard updates out to connected WebSocket clients. A client
// that cannot keep up misses updates rather than slowing the others down.
type hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[chan wsMessage]struct{}
}

func newHub() *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[chan wsMessage]struct{}),
	}
}

func (h *hub) add(send chan wsMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[send] = struct{}{}
}

func (h *hub) remove(send chan wsMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[send]; ok {
		delete(h.clients, send)
		close(send)
	}
}

func (h *hub) broadcast(l Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := wsMessage{Type: "leaderboard", Payload: l}
	for send := range h.clients {
		select {
		case send <- msg:
		default:
			slog.Warn("ws: client too slow, dropping leaderboard update")
		}
	}
}

// serveLeaderboardWS sends the current leaderboard, then every update until
// the client disconnects.
func (a *API) serveLeaderboardWS(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := a.hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "ws: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan wsMessage, wsSendBuffer)
	send <- wsMessage{Type: "leaderboard", Payload: leaderboardOf(a.ls.ListRanked(ctx))}
	a.hub.add(send)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.DebugContext(ctx, "ws: write failed", "error", err)
				conn.Close()
				return
			}
		}
	}()

	// Clients only listen; reading detects when they go away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	a.hub.remove(send)
	<-writerDone
}
