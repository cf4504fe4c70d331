// Package websocket streams task status transitions to connected clients.
package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/orchestrator"
)

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 16
	maxMessageSize = 512
)

// Hub fans task events out to connected websocket clients. It implements
// orchestrator.EventSink, so the executor can publish directly into it.
type Hub struct {
	log      logger.Interface
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan orchestrator.TaskEvent
}

// NewHub creates a task-event hub
func NewHub(log logger.Interface) *Hub {
	return &Hub{
		log: log.WithField("component", "event-hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// PublishTaskEvent broadcasts one task event to every connected client.
// Slow clients are disconnected rather than allowed to block the executor.
func (h *Hub) PublishTaskEvent(event orchestrator.TaskEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			h.log.Warn("Dropping slow websocket client")
			go h.drop(c)
		}
	}
}

// Handler upgrades the HTTP request and streams events until the client
// disconnects
func (h *Hub) Handler(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Error("Failed to upgrade websocket connection")
		return
	}

	cl := &client{conn: conn, send: make(chan orchestrator.TaskEvent, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	h.log.WithField("remote", conn.RemoteAddr().String()).Info("Websocket client connected")

	go h.writeLoop(cl)
	h.readLoop(cl)
}

// writeLoop serializes events to one client
func (h *Hub) writeLoop(cl *client) {
	for event := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteJSON(event); err != nil {
			h.drop(cl)
			return
		}
	}
	cl.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
	cl.conn.Close()
}

// readLoop discards inbound frames and detects disconnects
func (h *Hub) readLoop(cl *client) {
	cl.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			h.drop(cl)
			return
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	if ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
	if ok {
		cl.conn.Close()
	}
}

// Close disconnects all clients and stops accepting new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
}
