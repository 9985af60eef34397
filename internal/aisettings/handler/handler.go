package handler

import (
	"net/http"

	"businesson_backend/internal/aisettings/service"
	"businesson_backend/internal/aisettings/transport"
	"businesson_backend/internal/channel"
	"businesson_backend/platform/httpkit"
	"businesson_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for AI settings
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new AI settings handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the AI settings routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:channel", h.GetByChannel)
	rg.PUT("/:channel", h.Upsert)
}

// List handles GET /api/v1/ai-settings
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByChannel handles GET /api/v1/ai-settings/:channel
func (h *Handler) GetByChannel(c *gin.Context) {
	ch, err := channel.Parse(c.Param("channel"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, h.svc.GetByChannel(c.Request.Context(), ch))
}

// Upsert handles PUT /api/v1/ai-settings/:channel
func (h *Handler) Upsert(c *gin.Context) {
	ch, err := channel.Parse(c.Param("channel"))
	if httpkit.HandleError(c, err) {
		return
	}

	var req transport.UpsertSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Upsert(c.Request.Context(), ch, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
