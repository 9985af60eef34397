// Package calls provides the call lifecycle domain module.
package calls

import (
	"businesson_backend/internal/calls/handler"
	"businesson_backend/internal/calls/repository"
	"businesson_backend/internal/calls/service"
	"businesson_backend/internal/events"
	apphttp "businesson_backend/internal/http"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the calls domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new calls module with all dependencies wired.
// archive may be nil when object storage is not configured.
func NewModule(
	pool *pgxpool.Pool,
	val *validator.Validator,
	leads service.LeadDirectory,
	placer service.CallPlacer,
	transcriber service.Transcriber,
	settings service.SettingsSource,
	archive service.Archiver,
	bus events.Bus,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, placer, transcriber, settings, archive, bus, log)
	h := handler.New(svc, val, log)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "calls"
}

// RegisterRoutes registers the module's routes under /api/v1/calls plus
// the provider webhook callbacks.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	calls := ctx.V1.Group("/calls")
	m.handler.RegisterRoutes(calls)
	m.handler.RegisterWebhookRoutes(ctx.Webhooks)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
