package transport

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus defines the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// CreateAppointmentRequest is the request body for creating an appointment
type CreateAppointmentRequest struct {
	LeadID   uuid.UUID `json:"leadId" validate:"required"`
	DateTime time.Time `json:"dateTime" validate:"required"`
	Title    string    `json:"title,omitempty" validate:"max=200"`
	Notes    string    `json:"notes,omitempty" validate:"max=2000"`
}

// UpdateAppointmentRequest is the request body for updating an appointment
type UpdateAppointmentRequest struct {
	DateTime *time.Time         `json:"dateTime,omitempty"`
	Title    *string            `json:"title,omitempty" validate:"omitempty,max=200"`
	Notes    *string            `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Status   *AppointmentStatus `json:"status,omitempty" validate:"omitempty,oneof=Scheduled Completed Cancelled"`
}

// ListAppointmentsRequest is the query parameters for listing appointments
type ListAppointmentsRequest struct {
	LeadID *uuid.UUID         `form:"leadId"`
	Status *AppointmentStatus `form:"status" validate:"omitempty,oneof=Scheduled Completed Cancelled"`
	From   *time.Time         `form:"from" time_format:"2006-01-02"`
	To     *time.Time         `form:"to" time_format:"2006-01-02"`
}

// AppointmentResponse is the response body for an appointment
type AppointmentResponse struct {
	ID        uuid.UUID         `json:"id"`
	LeadID    uuid.UUID         `json:"leadId"`
	DateTime  time.Time         `json:"dateTime"`
	Title     string            `json:"title,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	Source    string            `json:"source"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
