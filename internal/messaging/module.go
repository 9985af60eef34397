// Package messaging provides the conversation domain module: message
// history, manual sends, and the inbound AI pipeline.
package messaging

import (
	"businesson_backend/internal/events"
	apphttp "businesson_backend/internal/http"
	"businesson_backend/internal/messaging/handler"
	"businesson_backend/internal/messaging/repository"
	"businesson_backend/internal/messaging/service"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the messaging domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new messaging module with all dependencies wired
func NewModule(
	pool *pgxpool.Pool,
	val *validator.Validator,
	leads service.LeadDirectory,
	booker service.Booker,
	settings service.SettingsSource,
	responder service.ReplyGenerator,
	outbound service.Dispatcher,
	follow service.FollowUpScheduler,
	office service.OfficeHours,
	bus events.Bus,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, booker, settings, responder, outbound, follow, office, bus, log)
	h := handler.New(svc, val, log)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "messaging"
}

// RegisterRoutes registers the module's routes under /api/v1/conversations
// plus the provider webhook callbacks.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	conversations := ctx.V1.Group("/conversations")
	m.handler.RegisterRoutes(conversations)
	m.handler.RegisterWebhookRoutes(ctx.Webhooks)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
