package transport

import (
	"time"

	"businesson_backend/internal/channel"
)

// UpsertSettingsRequest is the request body for saving channel settings
type UpsertSettingsRequest struct {
	BusinessContext  string   `json:"businessContext" validate:"max=10000"`
	Tone             string   `json:"tone" validate:"max=100"`
	Style            string   `json:"style" validate:"max=100"`
	Model            string   `json:"model" validate:"max=100"`
	Temperature      *float32 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TopP             *float32 `json:"topP,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxTokens        *int     `json:"maxTokens,omitempty" validate:"omitempty,gte=1,lte=4096"`
	FrequencyPenalty *float32 `json:"frequencyPenalty,omitempty" validate:"omitempty,gte=-2,lte=2"`
	PresencePenalty  *float32 `json:"presencePenalty,omitempty" validate:"omitempty,gte=-2,lte=2"`
}

// SettingsResponse is the response body for channel settings
type SettingsResponse struct {
	Channel          channel.Channel `json:"channel"`
	BusinessContext  string          `json:"businessContext"`
	Tone             string          `json:"tone"`
	Style            string          `json:"style"`
	Model            string          `json:"model"`
	Temperature      float32         `json:"temperature"`
	TopP             float32         `json:"topP"`
	MaxTokens        int             `json:"maxTokens"`
	FrequencyPenalty float32         `json:"frequencyPenalty"`
	PresencePenalty  float32         `json:"presencePenalty"`
	UpdatedAt        *time.Time      `json:"updatedAt,omitempty"`
}
