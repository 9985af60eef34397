package service

import (
	"context"
	"errors"
	"testing"

	"businesson_backend/internal/aisettings/repository"
	"businesson_backend/internal/aisettings/transport"
	"businesson_backend/internal/channel"
	"businesson_backend/internal/events"
	"businesson_backend/platform/logger"
)

type fakeSettingsStore struct {
	rows map[string]*repository.Settings
	err  error
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{rows: make(map[string]*repository.Settings)}
}

func (f *fakeSettingsStore) GetByChannel(_ context.Context, channelName string) (*repository.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	row, ok := f.rows[channelName]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (f *fakeSettingsStore) List(_ context.Context) ([]repository.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []repository.Settings
	for _, row := range f.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeSettingsStore) Upsert(_ context.Context, row *repository.Settings) error {
	if f.err != nil {
		return f.err
	}
	stored := *row
	f.rows[row.Channel] = &stored
	return nil
}

func newSettingsService() (*Service, *fakeSettingsStore) {
	store := newFakeSettingsStore()
	log := logger.New("test")
	return New(store, events.NewInMemoryBus(log), log), store
}

func TestGetByChannelReturnsDefaultsWhenUnconfigured(t *testing.T) {
	svc, _ := newSettingsService()

	got := svc.GetByChannel(context.Background(), channel.WhatsApp)
	if got.Model != DefaultModel || got.Tone != DefaultTone || got.MaxTokens != DefaultMaxTokens {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if got.Channel != channel.WhatsApp {
		t.Fatalf("channel = %s, want WhatsApp", got.Channel)
	}
}

func TestGetByChannelFailsOpenOnStorageError(t *testing.T) {
	svc, store := newSettingsService()
	store.err = errors.New("connection refused")

	got := svc.GetByChannel(context.Background(), channel.SMS)
	if got == nil {
		t.Fatal("expected defaults despite storage error")
	}
	if got.Model != DefaultModel {
		t.Fatalf("model = %q, want default", got.Model)
	}
}

func TestGetByChannelFillsEmptyFieldsFromDefaults(t *testing.T) {
	svc, store := newSettingsService()
	store.rows["Email"] = &repository.Settings{
		Channel:         "Email",
		BusinessContext: "We sell solar panels.",
		Temperature:     0.3,
	}

	got := svc.GetByChannel(context.Background(), channel.Email)
	if got.BusinessContext != "We sell solar panels." {
		t.Fatalf("business context lost: %+v", got)
	}
	if got.Temperature != 0.3 {
		t.Fatalf("temperature = %v, want stored 0.3", got.Temperature)
	}
	if got.Model != DefaultModel || got.Tone != DefaultTone {
		t.Fatal("expected empty fields filled from defaults")
	}
}

func TestListCoversEveryChannel(t *testing.T) {
	svc, store := newSettingsService()
	store.rows["SMS"] = &repository.Settings{Channel: "SMS", Tone: "formal"}

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != len(channel.All) {
		t.Fatalf("list size = %d, want %d", len(got), len(channel.All))
	}

	byChannel := make(map[channel.Channel]transport.SettingsResponse)
	for _, row := range got {
		byChannel[row.Channel] = row
	}
	if byChannel[channel.SMS].Tone != "formal" {
		t.Fatal("stored tone lost for SMS")
	}
	if byChannel[channel.Call].Tone != DefaultTone {
		t.Fatal("expected defaults for unconfigured Call channel")
	}
}

func TestUpsertRoundTrips(t *testing.T) {
	svc, _ := newSettingsService()

	temp := float32(0.2)
	saved, err := svc.Upsert(context.Background(), channel.WhatsApp, transport.UpsertSettingsRequest{
		BusinessContext: "Plumbing business in Austin.",
		Tone:            "casual",
		Temperature:     &temp,
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if saved.Temperature != 0.2 || saved.Tone != "casual" {
		t.Fatalf("saved = %+v", saved)
	}

	got := svc.GetByChannel(context.Background(), channel.WhatsApp)
	if got.BusinessContext != "Plumbing business in Austin." {
		t.Fatalf("round trip lost business context: %+v", got)
	}
}
