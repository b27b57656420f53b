package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/efreitasn/marketsim/internal/report"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream is read-only public data; origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans each tick record out to every connected websocket client. Slow
// clients are dropped rather than allowed to stall the run goroutine.
type Hub struct {
	log     *zap.Logger
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

// Broadcast sends one tick record to all connected clients. Safe to use as a
// Simulation OnTick callback.
func (h *Hub) Broadcast(rec report.TickRecord) {
	msg, err := json.Marshal(rec)
	if err != nil {
		h.log.Warn("marshal tick record", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Buffer full: the client can't keep up, disconnect it.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ServeWS upgrades the request and streams tick records until the client
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("ws client connected", zap.Int("total", n))

	go h.writeLoop(c)
	go h.readLoop(c)
}

// writeLoop drains the client's send channel onto the connection.
func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			return
		}
	}
}

// readLoop discards inbound frames and detects disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

// remove detaches a client; idempotent across the read and write loops.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.log.Info("ws client disconnected", zap.Int("total", len(h.clients)))
	}
}
