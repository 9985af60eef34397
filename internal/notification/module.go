// Package notification streams live domain activity to connected clients.
package notification

import (
	"businesson_backend/internal/events"
	apphttp "businesson_backend/internal/http"
	"businesson_backend/internal/notification/sse"
	"businesson_backend/platform/logger"
)

// Module represents the realtime notification module
type Module struct {
	hub     *sse.Hub
	handler *sse.Handler
}

// NewModule creates the SSE hub and subscribes it to all domain events
func NewModule(bus events.Bus, log *logger.Logger) *Module {
	hub := sse.NewHub(log)
	sse.SubscribeAll(bus, hub)

	return &Module{
		hub:     hub,
		handler: sse.NewHandler(hub),
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "notification"
}

// Hub exposes the hub for health or metrics inspection
func (m *Module) Hub() *sse.Hub {
	return m.hub
}

// RegisterRoutes registers the event stream under /api/v1/events
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/events", m.handler.Stream)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
