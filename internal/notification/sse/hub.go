// Package sse streams domain events to dashboard clients over
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"sync"
	"time"

	"businesson_backend/platform/logger"

	"github.com/google/uuid"
)

// clientBuffer bounds how far a slow client may fall behind before
// events are dropped for it.
const clientBuffer = 32

// Notification is the wire format pushed to connected clients.
type Notification struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

type client struct {
	id uuid.UUID
	ch chan []byte
}

// Hub fans notifications out to all connected SSE clients. Delivery is
// fire and forget: a client whose buffer is full misses the event rather
// than backpressuring the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]client
	log     *logger.Logger
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]client),
		log:     log,
	}
}

// Subscribe registers a new client and returns its event channel plus an
// unsubscribe function. The caller must call unsubscribe when the
// connection closes.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	c := client{id: uuid.New(), ch: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.log.Debug("sse client connected", "client_id", c.id, "clients", h.ClientCount())

	return c.ch, func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		h.mu.Unlock()
		h.log.Debug("sse client disconnected", "client_id", c.id)
	}
}

// Broadcast sends a notification to every connected client
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	data, err := json.Marshal(Notification{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		h.log.Error("failed to marshal notification", "type", eventType, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.ch <- data:
		default:
			h.log.Warn("sse client buffer full, dropping event", "client_id", c.id, "type", eventType)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
