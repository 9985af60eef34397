// Package appointments provides the appointments domain module.
package appointments

import (
	"businesson_backend/internal/appointments/handler"
	"businesson_backend/internal/appointments/repository"
	"businesson_backend/internal/appointments/service"
	"businesson_backend/internal/events"
	apphttp "businesson_backend/internal/http"
	"businesson_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the appointments domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new appointments module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, bus events.Bus) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "appointments"
}

// RegisterRoutes registers the module's routes under /api/v1/appointments
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	appointments := ctx.V1.Group("/appointments")
	m.handler.RegisterRoutes(appointments)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
