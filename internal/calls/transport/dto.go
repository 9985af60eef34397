package transport

import (
	"time"

	"github.com/google/uuid"
)

// CallStatus tracks a call's progression toward a terminal state
type CallStatus string

const (
	CallStatusScheduled  CallStatus = "scheduled"
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusBusy       CallStatus = "busy"
)

// IsTerminal reports whether no further natural transition occurs.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy:
		return true
	default:
		return false
	}
}

// Direction of a call relative to the business
type Direction string

const (
	DirectionInbound  Direction = "Inbound"
	DirectionOutbound Direction = "Outbound"
)

// InitiateCallRequest is the request body for placing an outbound call
type InitiateCallRequest struct {
	LeadID uuid.UUID `json:"leadId" validate:"required"`
}

// TranscribeRequest triggers transcription for a completed call; it has no
// body today but keeps the POST shape stable.
type TranscribeRequest struct{}

// CallLogResponse is the response body for a call log
type CallLogResponse struct {
	ID             uuid.UUID  `json:"id"`
	LeadID         uuid.UUID  `json:"leadId"`
	ExternalCallID string     `json:"externalCallId"`
	Direction      Direction  `json:"direction"`
	Status         CallStatus `json:"status"`
	Duration       *int       `json:"duration,omitempty"`
	RecordingURL   string     `json:"recordingUrl,omitempty"`
	ArchiveKey     string     `json:"archiveKey,omitempty"`
	Transcription  string     `json:"transcription,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
