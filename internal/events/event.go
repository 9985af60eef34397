// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"businesson_backend/internal/channel"
	"businesson_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadAdded is published when a new lead is created.
type LeadAdded struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Name   string    `json:"name"`
	Phone  string    `json:"phone"`
	Email  string    `json:"email"`
	Status string    `json:"status"`
	Source string    `json:"source,omitempty"`
}

func (e LeadAdded) EventName() string { return "leads.added" }

// LeadUpdated is published when a lead's data or status changes.
type LeadUpdated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
	// Source identifies what caused the update: "user", "call_webhook",
	// "transcription", "follow_up", "inbound_message".
	Source string `json:"source"`
}

func (e LeadUpdated) EventName() string { return "leads.updated" }

// LeadDeleted is published when a lead is removed along with its history.
type LeadDeleted struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadDeleted) EventName() string { return "leads.deleted" }

// =============================================================================
// Messaging Domain Events
// =============================================================================

// MessageReceived is published for every message persisted to a conversation,
// inbound or outbound, on any channel.
type MessageReceived struct {
	BaseEvent
	MessageID uuid.UUID       `json:"messageId"`
	LeadID    uuid.UUID       `json:"leadId"`
	Channel   channel.Channel `json:"channel"`
	Direction string          `json:"direction"` // "inbound" or "outbound"
	Body      string          `json:"body"`
	Automated bool            `json:"automated"`
}

func (e MessageReceived) EventName() string { return "messages.received" }

// =============================================================================
// Calls Domain Events
// =============================================================================

// CallInitiated is published when an outbound call is placed.
type CallInitiated struct {
	BaseEvent
	CallID     uuid.UUID `json:"callId"`
	LeadID     uuid.UUID `json:"leadId"`
	ProviderID string    `json:"providerId"`
	To         string    `json:"to"`
}

func (e CallInitiated) EventName() string { return "calls.initiated" }

// CallUpdated is published when a call's status changes via provider webhook.
type CallUpdated struct {
	BaseEvent
	CallID    uuid.UUID `json:"callId"`
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	Duration  int       `json:"duration,omitempty"`
}

func (e CallUpdated) EventName() string { return "calls.updated" }

// CallTranscribed is published when a recording has been transcribed
// and summarized.
type CallTranscribed struct {
	BaseEvent
	CallID  uuid.UUID `json:"callId"`
	LeadID  uuid.UUID `json:"leadId"`
	Summary string    `json:"summary"`
}

func (e CallTranscribed) EventName() string { return "calls.transcribed" }

// =============================================================================
// Appointments Domain Events
// =============================================================================

// AppointmentCreated is published when an appointment is scheduled.
type AppointmentCreated struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	LeadID        uuid.UUID `json:"leadId"`
	Title         string    `json:"title"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	// Automated is true when the appointment was booked by the inbound
	// message pipeline rather than a user.
	Automated bool `json:"automated"`
}

func (e AppointmentCreated) EventName() string { return "appointments.created" }

// AppointmentUpdated is published when an appointment is rescheduled or edited.
type AppointmentUpdated struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	LeadID        uuid.UUID `json:"leadId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
}

func (e AppointmentUpdated) EventName() string { return "appointments.updated" }

// AppointmentDeleted is published when an appointment is cancelled.
type AppointmentDeleted struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	LeadID        uuid.UUID `json:"leadId"`
}

func (e AppointmentDeleted) EventName() string { return "appointments.deleted" }

// =============================================================================
// AI Settings Domain Events
// =============================================================================

// AISettingsUpdated is published when per-channel responder settings change.
type AISettingsUpdated struct {
	BaseEvent
	Channel channel.Channel `json:"channel"`
}

func (e AISettingsUpdated) EventName() string { return "aisettings.updated" }
