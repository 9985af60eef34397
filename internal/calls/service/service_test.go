package service

import (
	"context"
	"io"
	"strings"
	"testing"
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

type fakeCallStore struct {
	calls map[uuid.UUID]*repository.CallLog
}

func newFakeCallStore() *fakeCallStore {
	return &fakeCallStore{calls: make(map[uuid.UUID]*repository.CallLog)}
}

func (f *fakeCallStore) Create(_ context.Context, call *repository.CallLog) error {
	stored := *call
	f.calls[call.ID] = &stored
	return nil
}

func (f *fakeCallStore) GetByID(_ context.Context, id uuid.UUID) (*repository.CallLog, error) {
	call, ok := f.calls[id]
	if !ok {
		return nil, apperr.NotFound("call log not found")
	}
	copied := *call
	return &copied, nil
}

func (f *fakeCallStore) GetByExternalID(_ context.Context, externalID string) (*repository.CallLog, error) {
	for _, call := range f.calls {
		if call.ExternalCallID == externalID {
			copied := *call
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("call log not found")
}

func (f *fakeCallStore) ListByLead(_ context.Context, leadID uuid.UUID) ([]repository.CallLog, error) {
	var out []repository.CallLog
	for _, call := range f.calls {
		if call.LeadID == leadID {
			out = append(out, *call)
		}
	}
	return out, nil
}

func (f *fakeCallStore) List(_ context.Context) ([]repository.CallLog, error) {
	var out []repository.CallLog
	for _, call := range f.calls {
		out = append(out, *call)
	}
	return out, nil
}

func (f *fakeCallStore) Update(_ context.Context, call *repository.CallLog) error {
	if _, ok := f.calls[call.ID]; !ok {
		return apperr.NotFound("call log not found")
	}
	stored := *call
	f.calls[call.ID] = &stored
	return nil
}

type fakeCallLeads struct {
	lead       *leadstransport.LeadResponse
	promotions []string
}

func (f *fakeCallLeads) GetByID(_ context.Context, id uuid.UUID) (*leadstransport.LeadResponse, error) {
	if f.lead == nil || f.lead.ID != id {
		return nil, apperr.NotFound("lead not found")
	}
	return f.lead, nil
}

func (f *fakeCallLeads) LookupByPhone(_ context.Context, rawPhone string) (*leadstransport.LeadResponse, error) {
	if f.lead != nil && f.lead.Phone == rawPhone {
		return f.lead, nil
	}
	return nil, nil
}

func (f *fakeCallLeads) Promote(_ context.Context, _ uuid.UUID, _ leadstransport.LeadStatus, source string) error {
	f.promotions = append(f.promotions, source)
	return nil
}

type fakePlacer struct {
	sid       string
	recording string
}

func (f *fakePlacer) PlaceCall(_ context.Context, _ string) (*telephony.CallResult, error) {
	return &telephony.CallResult{SID: f.sid, Status: "queued"}, nil
}

func (f *fakePlacer) DownloadRecording(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.recording)), nil
}

type fakeTranscriber struct {
	transcript      string
	summary         string
	summarySettings ai.Settings
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, audio io.Reader) (string, error) {
	// Drain to prove the stream is readable after archiving.
	if _, err := io.ReadAll(audio); err != nil {
		return "", err
	}
	return f.transcript, nil
}

func (f *fakeTranscriber) GenerateSummary(_ context.Context, settings ai.Settings, _ string) (string, error) {
	f.summarySettings = settings
	return f.summary, nil
}

type fakeCallSettings struct{}

func (fakeCallSettings) GetByChannel(_ context.Context, ch channel.Channel) *aisettingstransport.SettingsResponse {
	return &aisettingstransport.SettingsResponse{Channel: ch, Model: "model-for-" + ch.String()}
}

type fakeArchive struct {
	stored []byte
	key    string
}

func (f *fakeArchive) StoreRecording(_ context.Context, _ uuid.UUID, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", err
	}
	f.stored = data
	return f.key, nil
}

type callFixture struct {
	svc         *Service
	store       *fakeCallStore
	leads       *fakeCallLeads
	placer      *fakePlacer
	transcriber *fakeTranscriber
	archive     *fakeArchive
}

func newCallFixture(t *testing.T) *callFixture {
	t.Helper()

	f := &callFixture{
		store:       newFakeCallStore(),
		placer:      &fakePlacer{sid: "CA123", recording: "audio-bytes"},
		transcriber: &fakeTranscriber{transcript: "hello world", summary: "lead wants a quote"},
		archive:     &fakeArchive{key: "recordings/2026/03/test.mp3"},
	}
	f.leads = &fakeCallLeads{lead: &leadstransport.LeadResponse{
		ID:     uuid.New(),
		Name:   "Riley Chen",
		Phone:  "+15550002222",
		Status: leadstransport.LeadStatusNew,
	}}

	log := logger.New("test")
	f.svc = New(f.store, f.leads, f.placer, f.transcriber, fakeCallSettings{}, f.archive,
		events.NewInMemoryBus(log), log)
	return f
}

func (f *callFixture) seedCall(t *testing.T, status transport.CallStatus, recordingURL string) *repository.CallLog {
	t.Helper()
	call := &repository.CallLog{
		ID:             uuid.New(),
		LeadID:         f.leads.lead.ID,
		ExternalCallID: "CA123",
		Direction:      string(transport.DirectionOutbound),
		Status:         string(status),
		RecordingURL:   recordingURL,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := f.store.Create(context.Background(), call); err != nil {
		t.Fatalf("seed call: %v", err)
	}
	return call
}

func TestInitiateCallRecordsInitiatedStatus(t *testing.T) {
	f := newCallFixture(t)

	result, err := f.svc.InitiateCall(context.Background(), f.leads.lead.ID)
	if err != nil {
		t.Fatalf("InitiateCall returned error: %v", err)
	}

	if result.Status != transport.CallStatusInitiated {
		t.Fatalf("status = %s, want initiated", result.Status)
	}
	if result.ExternalCallID != "CA123" {
		t.Fatalf("external ID = %s, want CA123", result.ExternalCallID)
	}
	if result.Direction != transport.DirectionOutbound {
		t.Fatalf("direction = %s, want Outbound", result.Direction)
	}
}

func TestInitiateCallUnknownLead(t *testing.T) {
	f := newCallFixture(t)

	_, err := f.svc.InitiateCall(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOnWebhookProgressesAndPromotesOnTerminal(t *testing.T) {
	f := newCallFixture(t)
	call := f.seedCall(t, transport.CallStatusInitiated, "")

	for _, status := range []string{"ringing", "in-progress"} {
		if err := f.svc.OnWebhook(context.Background(), "CA123", status, nil, ""); err != nil {
			t.Fatalf("OnWebhook(%s) returned error: %v", status, err)
		}
	}
	if len(f.leads.promotions) != 0 {
		t.Fatal("expected no promotion before a terminal status")
	}

	duration := 95
	if err := f.svc.OnWebhook(context.Background(), "CA123", "completed", &duration, "https://api.example.com/rec/1"); err != nil {
		t.Fatalf("OnWebhook(completed) returned error: %v", err)
	}

	stored, _ := f.store.GetByID(context.Background(), call.ID)
	if stored.Status != string(transport.CallStatusCompleted) {
		t.Fatalf("status = %s, want completed", stored.Status)
	}
	if stored.Duration == nil || *stored.Duration != 95 {
		t.Fatalf("duration = %v, want 95", stored.Duration)
	}
	if stored.RecordingURL == "" {
		t.Fatal("expected recording URL stored")
	}
	if len(f.leads.promotions) != 1 || f.leads.promotions[0] != "call_webhook" {
		t.Fatalf("expected one call_webhook promotion, got %v", f.leads.promotions)
	}
}

func TestOnWebhookIgnoresStaleStatusAfterTerminal(t *testing.T) {
	f := newCallFixture(t)
	call := f.seedCall(t, transport.CallStatusCompleted, "")

	if err := f.svc.OnWebhook(context.Background(), "CA123", "ringing", nil, ""); err != nil {
		t.Fatalf("OnWebhook returned error: %v", err)
	}

	stored, _ := f.store.GetByID(context.Background(), call.ID)
	if stored.Status != string(transport.CallStatusCompleted) {
		t.Fatalf("terminal status was overwritten to %s", stored.Status)
	}
	if len(f.leads.promotions) != 0 {
		t.Fatal("expected no promotion for an ignored webhook")
	}
}

func TestOnWebhookMergesLateRecordingIntoTerminalCall(t *testing.T) {
	f := newCallFixture(t)
	call := f.seedCall(t, transport.CallStatusCompleted, "")

	// Same terminal status re-delivered, now carrying the recording.
	if err := f.svc.OnWebhook(context.Background(), "CA123", "completed", nil, "https://api.example.com/rec/2"); err != nil {
		t.Fatalf("OnWebhook returned error: %v", err)
	}

	stored, _ := f.store.GetByID(context.Background(), call.ID)
	if stored.RecordingURL != "https://api.example.com/rec/2" {
		t.Fatalf("recording URL = %q, want merged URL", stored.RecordingURL)
	}
	if len(f.leads.promotions) != 0 {
		t.Fatal("expected no second promotion when already terminal")
	}
}

func TestOnWebhookUnknownCallID(t *testing.T) {
	f := newCallFixture(t)

	err := f.svc.OnWebhook(context.Background(), "CA999", "completed", nil, "")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown SID, got %v", err)
	}
}

func TestTranscribeRequiresRecording(t *testing.T) {
	f := newCallFixture(t)
	call := f.seedCall(t, transport.CallStatusCompleted, "")

	_, err := f.svc.Transcribe(context.Background(), call.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for missing recording, got %v", err)
	}
}

func TestTranscribeStoresTranscriptSummaryAndArchive(t *testing.T) {
	f := newCallFixture(t)
	call := f.seedCall(t, transport.CallStatusCompleted, "https://api.example.com/rec/1")

	result, err := f.svc.Transcribe(context.Background(), call.ID)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	if result.Transcription != "hello world" {
		t.Fatalf("transcription = %q", result.Transcription)
	}
	if result.Summary != "lead wants a quote" {
		t.Fatalf("summary = %q", result.Summary)
	}
	if result.ArchiveKey != f.archive.key {
		t.Fatalf("archive key = %q, want %q", result.ArchiveKey, f.archive.key)
	}
	if string(f.archive.stored) != "audio-bytes" {
		t.Fatalf("archived bytes = %q", f.archive.stored)
	}

	// The summary uses the Call channel settings.
	if f.transcriber.summarySettings.Model != "model-for-Call" {
		t.Fatalf("summary model = %q, want Call channel settings", f.transcriber.summarySettings.Model)
	}

	if len(f.leads.promotions) != 1 || f.leads.promotions[0] != "transcription" {
		t.Fatalf("expected transcription promotion, got %v", f.leads.promotions)
	}
}

func TestTranscribeWithoutArchiveStillSucceeds(t *testing.T) {
	f := newCallFixture(t)
	f.svc.archive = nil
	call := f.seedCall(t, transport.CallStatusCompleted, "https://api.example.com/rec/1")

	result, err := f.svc.Transcribe(context.Background(), call.ID)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if result.ArchiveKey != "" {
		t.Fatalf("expected empty archive key, got %q", result.ArchiveKey)
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want transport.CallStatus
	}{
		{in: "queued", want: transport.CallStatusScheduled},
		{in: "ringing", want: transport.CallStatusRinging},
		{in: "in-progress", want: transport.CallStatusInProgress},
		{in: "Completed", want: transport.CallStatusCompleted},
		{in: "no-answer", want: transport.CallStatusNoAnswer},
		{in: "busy", want: transport.CallStatusBusy},
		{in: "canceled", want: transport.CallStatusFailed},
	}

	for _, tc := range tests {
		if got := normalizeStatus(tc.in); got != tc.want {
			t.Errorf("normalizeStatus(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestCallStatusIsTerminal(t *testing.T) {
	terminal := []transport.CallStatus{
		transport.CallStatusCompleted,
		transport.CallStatusFailed,
		transport.CallStatusNoAnswer,
		transport.CallStatusBusy,
	}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	for _, s := range []transport.CallStatus{
		transport.CallStatusScheduled,
		transport.CallStatusInitiated,
		transport.CallStatusRinging,
		transport.CallStatusInProgress,
	} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
