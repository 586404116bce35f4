package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/internal/models"
	"chat-relay/internal/observability"
)

// Hub maintains the registry of live websocket connections and implements
// room.Notifier over them. Writes to one connection are serialized by a
// per-client mutex; event order across connections is whatever order the
// callers emit in (the room holds its own lock across fanout).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	conn *websocket.Conn
	info ConnInfo

	writeMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Add registers a connection under its id.
func (h *Hub) Add(connID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[connID] = &client{conn: conn, info: info}
}

// Remove unregisters a connection. The caller owns closing it.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, connID)
}

// Info returns the metadata recorded for a connection.
func (h *Hub) Info(connID string) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return ConnInfo{}, false
	}
	return c.info, true
}

// Emit sends one event to one connection.
func (h *Hub) Emit(connID string, event models.ServerEvent) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}
	h.write(connID, c, payload)
}

// Broadcast sends one event to every connection.
func (h *Hub) Broadcast(event models.ServerEvent) {
	h.fanout(event, "")
}

// BroadcastExcept sends one event to every connection but the named one.
func (h *Hub) BroadcastExcept(exceptID string, event models.ServerEvent) {
	h.fanout(event, exceptID)
}

func (h *Hub) fanout(event models.ServerEvent, exceptID string) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}

	h.mu.RLock()
	targets := make(map[string]*client, len(h.clients))
	for id, c := range h.clients {
		if id != exceptID {
			targets[id] = c
		}
	}
	h.mu.RUnlock()

	for id, c := range targets {
		h.write(id, c, payload)
	}
}

// writeWait bounds a single frame write. A client that stops draining its
// socket must not stall fanout for everyone else.
const writeWait = 10 * time.Second

func (h *Hub) write(connID string, c *client, payload []byte) {
	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		log.Printf("websocket write error: %v", err)
		c.conn.Close()
		h.Remove(connID)
		h.reportWriteError(c.info, err)
	}
}

func (h *Hub) reportWriteError(info ConnInfo, err error) {
	observability.IncWSEvent("ws_error")
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.relay", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload: observability.WSEventPayload("ws_error", info.ConnID, info.DeviceID, info.IP,
			time.Since(info.ConnectedAt).Milliseconds(), err.Error()),
	}, headers)
}
