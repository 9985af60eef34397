// Package aisettings provides the per-channel AI responder settings module.
package aisettings

import (
	"businesson_backend/internal/aisettings/handler"
	"businesson_backend/internal/aisettings/repository"
	"businesson_backend/internal/aisettings/service"
	"businesson_backend/internal/events"
	apphttp "businesson_backend/internal/http"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the AI settings domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new AI settings module with all dependencies wired
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
	return "aisettings"
}

// RegisterRoutes registers the module's routes under /api/v1/ai-settings
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	settings := ctx.V1.Group("/ai-settings")
	m.handler.RegisterRoutes(settings)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
