package handler

import (
	"net/http"
	"strconv"

	"businesson_backend/internal/calls/service"
	"businesson_backend/internal/calls/transport"
	"businesson_backend/internal/telephony"
	"businesson_backend/platform/apperr"
	"businesson_backend/platform/httpkit"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	// Spoken to inbound callers before recording starts.
	callGreeting = "Thank you for calling. No one is available right now. Please leave a message after the tone and we will get back to you shortly."
)

// Handler handles HTTP requests for call logs and provider webhooks
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

// New creates a new calls handler
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// RegisterRoutes registers the call routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/initiate", h.Initiate)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/transcribe", h.Transcribe)
}

// RegisterWebhookRoutes registers the Twilio callback routes
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/twilio/call-status", h.CallStatusWebhook)
	rg.POST("/twilio/voice", h.VoiceWebhook)
	rg.GET("/twilio/voice", h.VoiceWebhook)
	rg.POST("/twilio/recording", h.RecordingWebhook)
}

// List handles GET /api/v1/calls?leadId=
func (h *Handler) List(c *gin.Context) {
	var leadID *uuid.UUID
	if raw := c.Query("leadId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "leadId must be a UUID")
			return
		}
		leadID = &id
	}

	result, err := h.svc.List(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Initiate handles POST /api/v1/calls/initiate
func (h *Handler) Initiate(c *gin.Context) {
	var req transport.InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.InitiateCall(c.Request.Context(), req.LeadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, result)
}

// GetByID handles GET /api/v1/calls/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Transcribe handles POST /api/v1/calls/:id/transcribe
func (h *Handler) Transcribe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Transcribe(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// CallStatusWebhook handles POST /webhooks/twilio/call-status. Twilio
// retries on non-2xx, so processing failures are logged and acknowledged.
func (h *Handler) CallStatusWebhook(c *gin.Context) {
	externalID := c.PostForm("CallSid")
	status := c.PostForm("CallStatus")
	if externalID == "" || status == "" {
		c.String(http.StatusOK, "ignored")
		return
	}

	var duration *int
	if raw := c.PostForm("CallDuration"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil {
			duration = &secs
		}
	}
	recordingURL := c.PostForm("RecordingUrl")

	err := h.svc.OnWebhook(c.Request.Context(), externalID, status, duration, recordingURL)
	if err != nil && apperr.Is(err, apperr.KindNotFound) {
		// An unknown SID with a known caller is an inbound call we have
		// not seen yet.
		if from := c.PostForm("From"); from != "" {
			if _, createErr := h.svc.RecordInboundCall(c.Request.Context(), externalID, from); createErr != nil {
				h.log.Warn("inbound call from unknown number ignored", "call_sid", externalID, "error", createErr)
				c.String(http.StatusOK, "ignored")
				return
			}
			err = h.svc.OnWebhook(c.Request.Context(), externalID, status, duration, recordingURL)
		}
	}
	if err != nil {
		h.log.Error("call status webhook failed", "call_sid", externalID, "error", err)
	}

	c.String(http.StatusOK, "ok")
}

// VoiceWebhook handles /webhooks/twilio/voice, serving the TwiML that
// greets inbound callers and records a message.
func (h *Handler) VoiceWebhook(c *gin.Context) {
	body, err := telephony.GreetingTwiML(callGreeting, "/webhooks/twilio/recording")
	if err != nil {
		h.log.Error("failed to render voice response", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "application/xml", body)
}

// RecordingWebhook handles POST /webhooks/twilio/recording, attaching the
// recording URL delivered after the call ends.
func (h *Handler) RecordingWebhook(c *gin.Context) {
	externalID := c.PostForm("CallSid")
	recordingURL := c.PostForm("RecordingUrl")
	if externalID == "" || recordingURL == "" {
		c.String(http.StatusOK, "ignored")
		return
	}

	if err := h.svc.AttachRecording(c.Request.Context(), externalID, recordingURL); err != nil {
		h.log.Error("recording webhook failed", "call_sid", externalID, "error", err)
	}

	c.String(http.StatusOK, "ok")
}
