package feed

import (
	"net/http"
	"sync"
	"time"

	"timebank-go/internal/events"
	"timebank-go/pkg/logger"

	"github.com/gorilla/websocket"
)

// Hub pushes change events to connected websocket clients. Events come from
// the in-process bus; each client gets a buffered send channel and slow
// clients are dropped rather than allowed to block the publisher.
type Hub struct {
	log          logger.Logger
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	sendBuffer   int

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan events.Event
	done chan struct{}
}

func NewHub(bus *events.Bus, log logger.Logger, writeTimeout time.Duration, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	h := &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks are handled by the CORS middleware in front.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
		sendBuffer:   sendBuffer,
		clients:      make(map[*client]struct{}),
	}
	bus.SubscribeAll(h.broadcast)
	return h
}

func (h *Hub) broadcast(event events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			// Client is not keeping up; close it instead of stalling.
			delete(h.clients, c)
			close(c.done)
		}
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("feed: upgrade failed", "error", err.Error())
		return
	}

	c := &client{
		conn: conn,
		send: make(chan events.Event, h.sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop drains client frames until the connection closes; incoming
// messages are ignored, the feed is one-way.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteJSON(event); err != nil {
				h.remove(c)
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "slow consumer"))
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.done)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// Close disconnects every client. Used on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}
