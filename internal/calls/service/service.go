// Package service implements the call lifecycle: outbound initiation,
// webhook-driven status progression, and post-call transcription and
// summarization.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"businesson_backend/internal/ai"
	aisettingstransport "businesson_backend/internal/aisettings/transport"
	"businesson_backend/internal/calls/repository"
	"businesson_backend/internal/calls/transport"
	"businesson_backend/internal/channel"
	"businesson_backend/internal/events"
	leadstransport "businesson_backend/internal/leads/transport"
	"businesson_backend/internal/telephony"
	"businesson_backend/platform/apperr"
	"businesson_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadDirectory is the slice of the leads module the call lifecycle needs.
type LeadDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*leadstransport.LeadResponse, error)
	LookupByPhone(ctx context.Context, rawPhone string) (*leadstransport.LeadResponse, error)
	Promote(ctx context.Context, id uuid.UUID, target leadstransport.LeadStatus, source string) error
}

// CallPlacer places outbound calls and fetches recordings.
type CallPlacer interface {
	PlaceCall(ctx context.Context, toNumber string) (*telephony.CallResult, error)
	DownloadRecording(ctx context.Context, recordingURL string) (io.ReadCloser, error)
}

// Transcriber converts recordings to text and summarizes transcripts.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
	GenerateSummary(ctx context.Context, settings ai.Settings, transcript string) (string, error)
}

// SettingsSource provides the "Call" channel AI settings for summaries.
type SettingsSource interface {
	GetByChannel(ctx context.Context, ch channel.Channel) *aisettingstransport.SettingsResponse
}

// Archiver stores recording audio in object storage. May be nil-backed;
// archival is best effort and never blocks transcription.
type Archiver interface {
	StoreRecording(ctx context.Context, callID uuid.UUID, audio io.Reader) (string, error)
}

// CallStore is the slice of the repository the service needs.
type CallStore interface {
	Create(ctx context.Context, call *repository.CallLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.CallLog, error)
	GetByExternalID(ctx context.Context, externalID string) (*repository.CallLog, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]repository.CallLog, error)
	List(ctx context.Context) ([]repository.CallLog, error)
	Update(ctx context.Context, call *repository.CallLog) error
}

// Service provides call lifecycle business logic
type Service struct {
	repo        CallStore
	leads       LeadDirectory
	placer      CallPlacer
	transcriber Transcriber
	settings    SettingsSource
	archive     Archiver
	bus         events.Bus
	log         *logger.Logger
}

// New creates a new calls service. archive may be nil when object storage
// is not configured.
func New(
	repo CallStore,
	leads LeadDirectory,
	placer CallPlacer,
	transcriber Transcriber,
	settings SettingsSource,
	archive Archiver,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		leads:       leads,
		placer:      placer,
		transcriber: transcriber,
		settings:    settings,
		archive:     archive,
		bus:         bus,
		log:         log,
	}
}

// InitiateCall places an outbound call to a lead and records it with
// status initiated.
func (s *Service) InitiateCall(ctx context.Context, leadID uuid.UUID) (*transport.CallLogResponse, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	placed, err := s.placer.PlaceCall(ctx, lead.Phone)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	call := &repository.CallLog{
		ID:             uuid.New(),
		LeadID:         leadID,
		ExternalCallID: placed.SID,
		Direction:      string(transport.DirectionOutbound),
		Status:         string(transport.CallStatusInitiated),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, call); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.CallInitiated{
		BaseEvent:  events.NewBaseEvent(),
		CallID:     call.ID,
		LeadID:     leadID,
		ProviderID: placed.SID,
		To:         lead.Phone,
	})

	return toResponse(call), nil
}

// RecordInboundCall creates a call log for a caller the provider reports
// before any status webhook matched an existing row.
func (s *Service) RecordInboundCall(ctx context.Context, externalID, fromNumber string) (*transport.CallLogResponse, error) {
	lead, err := s.leads.LookupByPhone(ctx, fromNumber)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, apperr.NotFound("no lead matches inbound caller")
	}

	now := time.Now().UTC()
	call := &repository.CallLog{
		ID:             uuid.New(),
		LeadID:         lead.ID,
		ExternalCallID: externalID,
		Direction:      string(transport.DirectionInbound),
		Status:         string(transport.CallStatusRinging),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, call); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.CallInitiated{
		BaseEvent:  events.NewBaseEvent(),
		CallID:     call.ID,
		LeadID:     lead.ID,
		ProviderID: externalID,
		To:         fromNumber,
	})

	return toResponse(call), nil
}

// OnWebhook applies one provider status update. Duration and recording URL
// merge in when supplied; absent fields never clear stored values. Once a
// call is terminal, later webhooks carrying a different status are logged
// and dropped: providers deliver out of order and a stale "ringing" must
// not resurrect a completed call.
func (s *Service) OnWebhook(ctx context.Context, externalID, providerStatus string, duration *int, recordingURL string) error {
	call, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	newStatus := normalizeStatus(providerStatus)
	oldStatus := transport.CallStatus(call.Status)

	if oldStatus.IsTerminal() && newStatus != oldStatus {
		s.log.Warn("non-monotonic call status webhook ignored",
			"external_call_id", externalID,
			"current", string(oldStatus),
			"received", string(newStatus),
		)
		return nil
	}

	if duration != nil {
		call.Duration = duration
	}
	if recordingURL != "" {
		call.RecordingURL = recordingURL
	}
	call.Status = string(newStatus)
	call.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, call); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.CallUpdated{
		BaseEvent: events.NewBaseEvent(),
		CallID:    call.ID,
		LeadID:    call.LeadID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		Duration:  intOrZero(call.Duration),
	})

	// Reaching a terminal state counts as engagement whatever the
	// outcome: the lead was dialed or dialed in.
	if newStatus.IsTerminal() && !oldStatus.IsTerminal() {
		if err := s.leads.Promote(ctx, call.LeadID, leadstransport.LeadStatusWarm, "call_webhook"); err != nil {
			s.log.Error("failed to promote lead after call", "lead_id", call.LeadID, "error", err)
		}
	}

	return nil
}

// AttachRecording merges a recording URL delivered by the provider's
// recording callback.
func (s *Service) AttachRecording(ctx context.Context, externalID, recordingURL string) error {
	call, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	call.RecordingURL = recordingURL
	call.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, call)
}

// Transcribe downloads the recording, converts it to text, summarizes it
// with the Call channel settings, and stores both on the call log.
// Requires a recording; calls without one are not ready.
func (s *Service) Transcribe(ctx context.Context, callID uuid.UUID) (*transport.CallLogResponse, error) {
	call, err := s.repo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call.RecordingURL == "" {
		return nil, apperr.Conflict("recording is not available yet")
	}

	body, err := s.placer.DownloadRecording(ctx, call.RecordingURL)
	if err != nil {
		return nil, err
	}
	audio, err := io.ReadAll(body)
	_ = body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}

	// Archival is best effort; a storage outage must not block transcription.
	if s.archive != nil {
		key, err := s.archive.StoreRecording(ctx, call.ID, bytes.NewReader(audio))
		if err != nil {
			s.log.Error("failed to archive recording", "call_id", call.ID, "error", err)
		} else {
			call.ArchiveKey = key
		}
	}

	text, err := s.transcriber.Transcribe(ctx, fmt.Sprintf("%s.mp3", call.ExternalCallID), bytes.NewReader(audio))
	if err != nil {
		return nil, err
	}

	callSettings := s.settings.GetByChannel(ctx, channel.Call)
	summary, err := s.transcriber.GenerateSummary(ctx, toAISettings(callSettings), text)
	if err != nil {
		return nil, err
	}

	call.Transcription = text
	call.Summary = summary
	call.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, call); err != nil {
		return nil, err
	}

	// The source system marked every transcribed lead Warm regardless of
	// call outcome. Promote keeps this monotonic: a Hot lead stays Hot.
	if err := s.leads.Promote(ctx, call.LeadID, leadstransport.LeadStatusWarm, "transcription"); err != nil {
		s.log.Error("failed to promote lead after transcription", "lead_id", call.LeadID, "error", err)
	}

	s.bus.Publish(ctx, events.CallTranscribed{
		BaseEvent: events.NewBaseEvent(),
		CallID:    call.ID,
		LeadID:    call.LeadID,
		Summary:   summary,
	})

	return toResponse(call), nil
}

// GetByID retrieves a call log
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.CallLogResponse, error) {
	call, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(call), nil
}

// List retrieves call logs, optionally narrowed to one lead
func (s *Service) List(ctx context.Context, leadID *uuid.UUID) ([]transport.CallLogResponse, error) {
	var (
		calls []repository.CallLog
		err   error
	)
	if leadID != nil {
		calls, err = s.repo.ListByLead(ctx, *leadID)
	} else {
		calls, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	items := make([]transport.CallLogResponse, 0, len(calls))
	for i := range calls {
		items = append(items, *toResponse(&calls[i]))
	}
	return items, nil
}

func normalizeStatus(providerStatus string) transport.CallStatus {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "queued", "scheduled":
		return transport.CallStatusScheduled
	case "initiated":
		return transport.CallStatusInitiated
	case "ringing":
		return transport.CallStatusRinging
	case "in-progress", "in_progress", "answered":
		return transport.CallStatusInProgress
	case "completed":
		return transport.CallStatusCompleted
	case "failed", "canceled":
		return transport.CallStatusFailed
	case "no-answer", "no_answer":
		return transport.CallStatusNoAnswer
	case "busy":
		return transport.CallStatusBusy
	default:
		return transport.CallStatus(strings.ToLower(providerStatus))
	}
}

func toAISettings(settings *aisettingstransport.SettingsResponse) ai.Settings {
	return ai.Settings{
		BusinessContext:  settings.BusinessContext,
		Tone:             settings.Tone,
		Style:            settings.Style,
		Model:            settings.Model,
		Temperature:      settings.Temperature,
		TopP:             settings.TopP,
		MaxTokens:        settings.MaxTokens,
		FrequencyPenalty: settings.FrequencyPenalty,
		PresencePenalty:  settings.PresencePenalty,
	}
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func toResponse(call *repository.CallLog) *transport.CallLogResponse {
	return &transport.CallLogResponse{
		ID:             call.ID,
		LeadID:         call.LeadID,
		ExternalCallID: call.ExternalCallID,
		Direction:      transport.Direction(call.Direction),
		Status:         transport.CallStatus(call.Status),
		Duration:       call.Duration,
		RecordingURL:   call.RecordingURL,
		ArchiveKey:     call.ArchiveKey,
		Transcription:  call.Transcription,
		Summary:        call.Summary,
		CreatedAt:      call.CreatedAt,
		UpdatedAt:      call.UpdatedAt,
	}
}
