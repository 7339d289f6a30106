package web

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"media-translator/internal/jobs"
	"media-translator/internal/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	clientBuffer = 256
)

// client is one websocket subscriber.
type client struct {
	conn *websocket.Conn
	send chan jobs.Event
}

// Hub fans job events out to websocket clients.
type Hub struct {
	log      *logger.Logger
	upgrader websocket.Upgrader
	backlog  func(since int64) []jobs.Event

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates a hub. backlog replays history to newly connected clients.
func NewHub(log *logger.Logger, allowedOrigins []string, backlog func(since int64) []jobs.Event) *Hub {
	return &Hub{
		log:     log.Named("ws"),
		backlog: backlog,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(allowedOrigins, origin)
			},
		},
	}
}

// Broadcast queues event for every client. Clients that fall behind are dropped.
func (h *Hub) Broadcast(event jobs.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan jobs.Event, clientBuffer)}

	// Register before replaying so nothing published in between is lost.
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	var replay []jobs.Event
	if h.backlog != nil {
		replay = h.backlog(since)
	}

	h.log.Debug("websocket connected", logger.String("remote", conn.RemoteAddr().String()))
	go h.writeLoop(c, replay)
	h.readLoop(c)
}

// readLoop discards client messages and unregisters on close.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", logger.Error(err))
			}
			return
		}
	}
}

// writeLoop sends the replay, then live events and keepalive pings.
func (h *Hub) writeLoop(c *client, replay []jobs.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	last := int64(0)
	for _, event := range replay {
		if err := h.write(c, event); err != nil {
			return
		}
		last = event.Seq
	}

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if event.Seq <= last {
				continue
			}
			if err := h.write(c, event); err != nil {
				return
			}
			last = event.Seq
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) write(c *client, event jobs.Event) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(event)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
