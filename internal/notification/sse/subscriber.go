package sse

import (
	"context"

	"businesson_backend/internal/events"
)

// Wire event types pushed to clients. Frontends key off these strings.
const (
	TypeLeadAdded          = "lead_added"
	TypeLeadUpdated        = "lead_updated"
	TypeLeadDeleted        = "lead_deleted"
	TypeMessageReceived    = "message_received"
	TypeCallInitiated      = "call_initiated"
	TypeCallUpdated        = "call_updated"
	TypeCallTranscribed    = "call_transcribed"
	TypeAppointmentCreated = "appointment_created"
	TypeAppointmentUpdated = "appointment_updated"
	TypeAppointmentDeleted = "appointment_deleted"
	TypeAISettingsUpdated  = "ai_settings_updated"
)

// eventTypes maps bus event names to the wire type broadcast for them.
var eventTypes = map[string]string{
	events.LeadAdded{}.EventName():          TypeLeadAdded,
	events.LeadUpdated{}.EventName():        TypeLeadUpdated,
	events.LeadDeleted{}.EventName():        TypeLeadDeleted,
	events.MessageReceived{}.EventName():    TypeMessageReceived,
	events.CallInitiated{}.EventName():      TypeCallInitiated,
	events.CallUpdated{}.EventName():        TypeCallUpdated,
	events.CallTranscribed{}.EventName():    TypeCallTranscribed,
	events.AppointmentCreated{}.EventName(): TypeAppointmentCreated,
	events.AppointmentUpdated{}.EventName(): TypeAppointmentUpdated,
	events.AppointmentDeleted{}.EventName(): TypeAppointmentDeleted,
	events.AISettingsUpdated{}.EventName():  TypeAISettingsUpdated,
}

// SubscribeAll wires the hub to every domain event so connected dashboards
// receive live updates. The event itself is the payload; its struct tags
// define the JSON shape.
func SubscribeAll(bus events.Bus, hub *Hub) {
	for eventName, wireType := range eventTypes {
		wireType := wireType
		bus.Subscribe(eventName, events.HandlerFunc(func(_ context.Context, event events.Event) error {
			hub.Broadcast(wireType, event)
			return nil
		}))
	}
}
