package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"rideyard/internal/infra/listener"
	"rideyard/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The access token cookie is checked by the auth middleware before
	// the upgrade, so any origin may connect here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans change events out to every connected client. A client whose
// send buffer stays full is dropped rather than allowed to stall the
// rest.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	metrics *metrics.Metrics
}

type client struct {
	conn *websocket.Conn
	send chan listener.ChangeEvent
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		metrics: m,
	}
}

// Publish implements listener.Sink.
func (h *Hub) Publish(event listener.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- event:
			h.metrics.ChangeEventsSent.Inc()
		default:
			slog.Warn("dropping slow change-feed client")
			go h.remove(c)
		}
	}
}

// Handle upgrades the request and serves the change feed until the
// client goes away.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err.Error())
		return
	}

	cl := &client{
		conn: conn,
		send: make(chan listener.ChangeEvent, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	slog.Info("change-feed client connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(cl)
	h.readLoop(cl)
}

func (h *Hub) readLoop(cl *client) {
	defer h.remove(cl)

	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients never send application messages; the read loop only
	// notices disconnects and pongs.
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(cl)
	}()

	for {
		select {
		case event, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	if ok {
		delete(h.clients, cl)
	}
	h.mu.Unlock()

	if ok {
		close(cl.send)
		_ = cl.conn.Close()
		slog.Info("change-feed client disconnected")
	}
}

// Close disconnects every client, for shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}
