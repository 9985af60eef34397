package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"businesson_backend/internal/dashboard/repository"
	"businesson_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeMetricsStore struct {
	byStatus    []repository.StatusCount
	calls       repository.CallVolume
	autoReplies []repository.ChannelCount
	activities  []repository.ActivityRow
	snippets    []string
	failStatus  bool

	callsSince time.Time
}

func (f *fakeMetricsStore) LeadsByStatus(_ context.Context) ([]repository.StatusCount, error) {
	if f.failStatus {
		return nil, errors.New("query failed")
	}
	return f.byStatus, nil
}

func (f *fakeMetricsStore) CallsSince(_ context.Context, since time.Time) (repository.CallVolume, error) {
	f.callsSince = since
	return f.calls, nil
}

func (f *fakeMetricsStore) AutoRepliesSince(_ context.Context, _ time.Time) ([]repository.ChannelCount, error) {
	return f.autoReplies, nil
}

func (f *fakeMetricsStore) RecentActivities(_ context.Context, _ int) ([]repository.ActivityRow, error) {
	return f.activities, nil
}

func (f *fakeMetricsStore) ContextSnippets(_ context.Context, _ int) ([]string, error) {
	return f.snippets, nil
}

type fakeAssistant struct {
	answer   string
	snippets []string
	question string
}

func (f *fakeAssistant) Answer(_ context.Context, question string, contextSnippets []string) (string, error) {
	f.question = question
	f.snippets = contextSnippets
	return f.answer, nil
}

func TestMetricsAssemblesSnapshot(t *testing.T) {
	store := &fakeMetricsStore{
		byStatus: []repository.StatusCount{
			{Status: "Cold", Count: 3},
			{Status: "New", Count: 8},
			{Status: "Warm", Count: 6},
			{Status: "Hot", Count: 3},
		},
		calls: repository.CallVolume{Total: 4, Incoming: 1, Outgoing: 3},
		autoReplies: []repository.ChannelCount{
			{Channel: "SMS", Count: 5},
			{Channel: "WhatsApp", Count: 4},
		},
		activities: []repository.ActivityRow{
			{Type: "message", LeadID: uuid.New(), LeadName: "Dana", Detail: "hello", Timestamp: time.Now()},
		},
	}
	svc := New(store, &fakeAssistant{}, logger.New("test"))
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 15, 45, 0, 0, time.UTC) }

	got, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics returned error: %v", err)
	}

	if got.ActiveLeads != 17 {
		t.Fatalf("active leads = %d, want 17 (all but cold)", got.ActiveLeads)
	}
	if got.CallsToday.Total != 4 || got.CallsToday.Incoming != 1 || got.CallsToday.Outgoing != 3 {
		t.Fatalf("calls today = %+v", got.CallsToday)
	}
	if got.AutoReplies.Total != 9 || got.AutoReplies.ByChannel["SMS"] != 5 {
		t.Fatalf("auto replies = %+v", got.AutoReplies)
	}
	if got.ConversionRate != 15 {
		t.Fatalf("conversion rate = %v, want 15 (3 hot of 20)", got.ConversionRate)
	}
	if got.LeadPipeline.New != 8 || got.LeadPipeline.Hot != 3 {
		t.Fatalf("pipeline = %+v", got.LeadPipeline)
	}
	if len(got.RecentActivities) != 1 || got.RecentActivities[0].LeadName != "Dana" {
		t.Fatalf("activities = %+v", got.RecentActivities)
	}

	wantCutoff := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if !store.callsSince.Equal(wantCutoff) {
		t.Fatalf("calls cutoff = %v, want start of day %v", store.callsSince, wantCutoff)
	}
}

func TestMetricsZeroLeadsAvoidsDivisionByZero(t *testing.T) {
	svc := New(&fakeMetricsStore{}, &fakeAssistant{}, logger.New("test"))

	got, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics returned error: %v", err)
	}
	if got.ConversionRate != 0 {
		t.Fatalf("conversion rate = %v, want 0", got.ConversionRate)
	}
	if got.ActiveLeads != 0 {
		t.Fatalf("active leads = %d, want 0", got.ActiveLeads)
	}
}

func TestMetricsPropagatesQueryFailure(t *testing.T) {
	svc := New(&fakeMetricsStore{failStatus: true}, &fakeAssistant{}, logger.New("test"))

	if _, err := svc.Metrics(context.Background()); err == nil {
		t.Fatal("expected error when a metric query fails")
	}
}

func TestAskGroundsAnswerInSnippets(t *testing.T) {
	store := &fakeMetricsStore{snippets: []string{"Lead Dana (status Warm)", "Call with Dana: completed"}}
	assistant := &fakeAssistant{answer: "Dana's last call completed."}
	svc := New(store, assistant, logger.New("test"))

	got, err := svc.Ask(context.Background(), "How did the call with Dana go?")
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}
	if got.Answer != "Dana's last call completed." {
		t.Fatalf("answer = %q", got.Answer)
	}
	if len(assistant.snippets) != 2 {
		t.Fatalf("expected snippets forwarded, got %v", assistant.snippets)
	}
	if assistant.question != "How did the call with Dana go?" {
		t.Fatalf("question = %q", assistant.question)
	}
}
