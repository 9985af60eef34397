package handler

import (
	"net/http"
	"strings"

	"businesson_backend/internal/channel"
	"businesson_backend/internal/messaging/service"
	"businesson_backend/internal/messaging/transport"
	"businesson_backend/platform/httpkit"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for conversations
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

// New creates a new messaging handler
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// RegisterRoutes registers the conversation routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/messages", h.Conversation)
	rg.POST("/:id/messages", h.Send)
	rg.POST("/:id/messages/inbound", h.Inbound)
}

// RegisterWebhookRoutes registers the provider callback routes
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/twilio/sms", h.twilioWebhook(channel.SMS))
	rg.POST("/twilio/whatsapp", h.twilioWebhook(channel.WhatsApp))
	rg.POST("/email/inbound", h.EmailWebhook)
}

// Conversation handles GET /api/v1/conversations/:id/messages?channel=
func (h *Handler) Conversation(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	ch, err := channel.Parse(c.Query("channel"))
	if httpkit.HandleError(c, err) {
		return
	}

	result, err := h.svc.Conversation(c.Request.Context(), leadID, ch)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Send handles POST /api/v1/conversations/:id/messages
func (h *Handler) Send(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SendManual(c.Request.Context(), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, result)
}

// Inbound handles POST /api/v1/conversations/:id/messages/inbound.
// It runs the full inbound pipeline for a known lead and surfaces
// pipeline failures to the caller.
func (h *Handler) Inbound(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ch, err := channel.Parse(req.Channel)
	if httpkit.HandleError(c, err) {
		return
	}

	result, err := h.svc.HandleInbound(c.Request.Context(), leadID, ch, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, result)
}

// twilioWebhook handles Twilio's form-encoded inbound message callbacks.
// Providers retry on non-2xx, so pipeline failures are logged and
// acknowledged rather than surfaced; the inbound message is already
// persisted by the pipeline before anything can fail.
func (h *Handler) twilioWebhook(ch channel.Channel) gin.HandlerFunc {
	return func(c *gin.Context) {
		from := strings.TrimPrefix(c.PostForm("From"), "whatsapp:")
		body := c.PostForm("Body")
		if from == "" || body == "" {
			c.String(http.StatusOK, "ignored")
			return
		}

		h.processInbound(c, ch, from, body)
	}
}

// EmailWebhook handles POST /webhooks/email/inbound
func (h *Handler) EmailWebhook(c *gin.Context) {
	var req struct {
		From string `json:"from"`
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.From == "" || req.Body == "" {
		c.String(http.StatusOK, "ignored")
		return
	}

	h.processInbound(c, channel.Email, req.From, req.Body)
}

func (h *Handler) processInbound(c *gin.Context, ch channel.Channel, from, body string) {
	ctx := c.Request.Context()

	lead, err := h.svc.ResolveSender(ctx, ch, from)
	if err != nil {
		h.log.Error("inbound sender lookup failed", "channel", ch.String(), "error", err)
		c.String(http.StatusOK, "error")
		return
	}
	if lead == nil {
		h.log.Warn("inbound message from unknown sender", "channel", ch.String())
		c.String(http.StatusOK, "ignored")
		return
	}

	if _, err := h.svc.HandleInbound(ctx, lead.ID, ch, body); err != nil {
		h.log.Error("inbound pipeline failed", "channel", ch.String(), "lead_id", lead.ID, "error", err)
	}

	c.String(http.StatusOK, "received")
}
