// Package dashboard provides aggregate metrics and the grounded
// question-answering endpoint.
package dashboard

import (
	"businesson_backend/internal/dashboard/handler"
	"businesson_backend/internal/dashboard/repository"
	"businesson_backend/internal/dashboard/service"
	apphttp "businesson_backend/internal/http"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the dashboard module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new dashboard module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, assistant service.Assistant, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, assistant, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "dashboard"
}

// RegisterRoutes registers the dashboard snapshot and assistant routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/dashboard", m.handler.Metrics)
	ctx.V1.POST("/assistant", m.handler.Ask)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
