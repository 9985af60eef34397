package handler

import (
	"net/http"

	"businesson_backend/internal/dashboard/service"
	"businesson_backend/internal/dashboard/transport"
	"businesson_backend/platform/httpkit"
	"businesson_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the dashboard
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new dashboard handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Metrics handles GET /api/v1/dashboard
func (h *Handler) Metrics(c *gin.Context) {
	result, err := h.svc.Metrics(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Ask handles POST /api/v1/assistant
func (h *Handler) Ask(c *gin.Context) {
	var req transport.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Ask(c.Request.Context(), req.Question)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
