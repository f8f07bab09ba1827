package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"FlareCast/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Event is one frame on the space-weather stream.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans events out to websocket subscribers. Slow clients are dropped
// instead of blocking the broadcaster.
type Hub struct {
	log      *logger.Logger
	upgrader websocket.Upgrader
	buffer   int

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(log *logger.Logger, buffer int, origins []string) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	h := &Hub{
		log:     log.With(logger.String("component", "stream")),
		buffer:  buffer,
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(kind string, payload interface{}) {
	b, err := json.Marshal(Event{Type: kind, Data: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		h.log.Warn("encode stream event", logger.String("type", kind), logger.Error(err))
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow stream client", logger.String("remote", c.conn.RemoteAddr().String()))
		h.remove(c)
	}
}

// Serve upgrades the request and blocks until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{conn: conn, send: make(chan []byte, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		return conn.Close()
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("stream client connected", logger.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(c)
	h.readLoop(c)
	return nil
}

// readLoop only services pongs and close frames; clients never send data.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// Run publishes poll() under kind every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, interval time.Duration, kind string, poll func(context.Context) (interface{}, error)) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if h.Clients() == 0 {
				continue
			}
			v, err := poll(ctx)
			if err != nil {
				h.log.Warn("stream poll failed", logger.String("type", kind), logger.Error(err))
				continue
			}
			h.Broadcast(kind, v)
		}
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
