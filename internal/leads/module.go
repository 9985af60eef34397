// Package leads provides the leads domain module.
package leads

import (
	"businesson_backend/internal/events"
	apphttp "businesson_backend/internal/http"
	"businesson_backend/internal/leads/handler"
	"businesson_backend/internal/leads/repository"
	"businesson_backend/internal/leads/service"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the leads domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new leads module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes registers the module's routes under /api/v1/leads
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leads := ctx.V1.Group("/leads")
	m.handler.RegisterRoutes(leads)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
