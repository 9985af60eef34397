// Package service implements per-channel responder settings. Reads fail
// open: a missing row or a database error yields usable defaults so the
// inbound pipeline never stalls on configuration.
package service

import (
	"context"
	"time"

	"businesson_backend/internal/aisettings/repository"
	"businesson_backend/internal/aisettings/transport"
	"businesson_backend/internal/channel"
	"businesson_backend/internal/events"
	"businesson_backend/platform/logger"
)

// Default generation parameters applied when a channel has no stored row
// or a field was left empty.
const (
	DefaultTone        = "friendly"
	DefaultStyle       = "concise"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = float32(0.7)
	DefaultTopP        = float32(1.0)
	DefaultMaxTokens   = 300
)

// SettingsStore is the slice of the repository the service needs.
type SettingsStore interface {
	GetByChannel(ctx context.Context, channelName string) (*repository.Settings, error)
	List(ctx context.Context) ([]repository.Settings, error)
	Upsert(ctx context.Context, row *repository.Settings) error
}

// Service provides AI settings business logic
type Service struct {
	repo SettingsStore
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new AI settings service
func New(repo SettingsStore, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// GetByChannel returns effective settings for a channel. Storage failures
// are logged and defaults returned, never an error.
func (s *Service) GetByChannel(ctx context.Context, ch channel.Channel) *transport.SettingsResponse {
	stored, err := s.repo.GetByChannel(ctx, ch.String())
	if err != nil {
		s.log.DatabaseError("aisettings.get", err)
		return defaults(ch)
	}
	if stored == nil {
		return defaults(ch)
	}
	return withDefaults(stored)
}

// List returns effective settings for every channel, filling defaults for
// channels without a stored row.
func (s *Service) List(ctx context.Context) ([]transport.SettingsResponse, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	byChannel := make(map[string]*repository.Settings, len(stored))
	for i := range stored {
		byChannel[stored[i].Channel] = &stored[i]
	}

	responses := make([]transport.SettingsResponse, 0, len(channel.All))
	for _, ch := range channel.All {
		if row, ok := byChannel[ch.String()]; ok {
			responses = append(responses, *withDefaults(row))
		} else {
			responses = append(responses, *defaults(ch))
		}
	}
	return responses, nil
}

// Upsert saves settings for a channel and notifies subscribers.
func (s *Service) Upsert(ctx context.Context, ch channel.Channel, req transport.UpsertSettingsRequest) (*transport.SettingsResponse, error) {
	row := &repository.Settings{
		Channel:          ch.String(),
		BusinessContext:  req.BusinessContext,
		Tone:             req.Tone,
		Style:            req.Style,
		Model:            req.Model,
		Temperature:      valueOr(req.Temperature, DefaultTemperature),
		TopP:             valueOr(req.TopP, DefaultTopP),
		MaxTokens:        intOr(req.MaxTokens, DefaultMaxTokens),
		FrequencyPenalty: valueOr(req.FrequencyPenalty, 0),
		PresencePenalty:  valueOr(req.PresencePenalty, 0),
		UpdatedAt:        time.Now().UTC(),
	}

	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.AISettingsUpdated{
		BaseEvent: events.NewBaseEvent(),
		Channel:   ch,
	})

	return withDefaults(row), nil
}

func defaults(ch channel.Channel) *transport.SettingsResponse {
	return &transport.SettingsResponse{
		Channel:     ch,
		Tone:        DefaultTone,
		Style:       DefaultStyle,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
	}
}

func withDefaults(row *repository.Settings) *transport.SettingsResponse {
	resp := &transport.SettingsResponse{
		Channel:          channel.Channel(row.Channel),
		BusinessContext:  row.BusinessContext,
		Tone:             row.Tone,
		Style:            row.Style,
		Model:            row.Model,
		Temperature:      row.Temperature,
		TopP:             row.TopP,
		MaxTokens:        row.MaxTokens,
		FrequencyPenalty: row.FrequencyPenalty,
		PresencePenalty:  row.PresencePenalty,
	}
	if !row.UpdatedAt.IsZero() {
		updatedAt := row.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	if resp.Tone == "" {
		resp.Tone = DefaultTone
	}
	if resp.Style == "" {
		resp.Style = DefaultStyle
	}
	if resp.Model == "" {
		resp.Model = DefaultModel
	}
	if resp.MaxTokens <= 0 {
		resp.MaxTokens = DefaultMaxTokens
	}
	if resp.Temperature <= 0 {
		resp.Temperature = DefaultTemperature
	}
	if resp.TopP <= 0 {
		resp.TopP = DefaultTopP
	}
	return resp
}

func valueOr(v *float32, fallback float32) float32 {
	if v == nil {
		return fallback
	}
	return *v
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
