package transport

import (
	"time"

	"businesson_backend/internal/channel"

	"github.com/google/uuid"
)

// Direction of a message relative to the business
type Direction string

const (
	DirectionInbound  Direction = "Inbound"
	DirectionOutbound Direction = "Outbound"
)

// SendMessageRequest is the request body for a manual outbound send
type SendMessageRequest struct {
	Channel string `json:"channel" validate:"required"`
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

// InboundMessageRequest is the request body for the generic inbound endpoint
type InboundMessageRequest struct {
	Channel string `json:"channel" validate:"required"`
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

// MessageResponse is the response body for a message
type MessageResponse struct {
	ID        uuid.UUID       `json:"id"`
	LeadID    uuid.UUID       `json:"leadId"`
	Channel   channel.Channel `json:"channel"`
	Direction Direction       `json:"direction"`
	Content   string          `json:"content"`
	Automated bool            `json:"automated"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ConversationResponse is the ordered history for one lead and channel
type ConversationResponse struct {
	LeadID   uuid.UUID         `json:"leadId"`
	Channel  channel.Channel   `json:"channel"`
	Messages []MessageResponse `json:"messages"`
}
