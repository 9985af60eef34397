package sse

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// keepAliveInterval spaces comment frames that keep proxies from closing
// idle connections.
const keepAliveInterval = 25 * time.Second

// Handler serves the SSE stream endpoint
type Handler struct {
	hub *Hub
}

// NewHandler creates a new SSE handler
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// Stream handles GET /api/v1/events, holding the connection open and
// writing one SSE frame per broadcast notification.
func (h *Handler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}

	ch, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	// Initial frame confirms the stream is live before any event fires.
	fmt.Fprint(c.Writer, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-ch:
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
