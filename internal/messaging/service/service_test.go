package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"businesson_backend/internal/ai"
	aisettingstransport "businesson_backend/internal/aisettings/transport"
	"businesson_backend/internal/channel"
	"businesson_backend/internal/dispatch"
	"businesson_backend/internal/events"
	leadstransport "businesson_backend/internal/leads/transport"
	"businesson_backend/internal/messaging/repository"
	"businesson_backend/internal/messaging/transport"
	"businesson_backend/platform/apperr"
	"businesson_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	messages []repository.Message
	failNext bool
}

func (f *fakeStore) Create(_ context.Context, msg *repository.Message) error {
	if f.failNext {
		f.failNext = false
		return errors.New("store down")
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeStore) History(_ context.Context, leadID uuid.UUID, channelName string) ([]repository.Message, error) {
	var out []repository.Message
	for _, m := range f.messages {
		if m.LeadID == leadID && m.Channel == channelName {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) LastMessage(_ context.Context, leadID uuid.UUID, channelName string) (*repository.Message, error) {
	var last *repository.Message
	for i := range f.messages {
		m := f.messages[i]
		if m.LeadID == leadID && m.Channel == channelName {
			last = &m
		}
	}
	return last, nil
}

func (f *fakeStore) outbound() []repository.Message {
	var out []repository.Message
	for _, m := range f.messages {
		if m.Direction == string(transport.DirectionOutbound) {
			out = append(out, m)
		}
	}
	return out
}

type promotion struct {
	target leadstransport.LeadStatus
	source string
}

type fakeLeads struct {
	lead       *leadstransport.LeadResponse
	promotions []promotion
}

func (f *fakeLeads) GetByID(_ context.Context, id uuid.UUID) (*leadstransport.LeadResponse, error) {
	if f.lead == nil || f.lead.ID != id {
		return nil, apperr.NotFound("lead not found")
	}
	return f.lead, nil
}

func (f *fakeLeads) LookupByPhone(_ context.Context, rawPhone string) (*leadstransport.LeadResponse, error) {
	if f.lead != nil && f.lead.Phone == rawPhone {
		return f.lead, nil
	}
	return nil, nil
}

func (f *fakeLeads) LookupByEmail(_ context.Context, email string) (*leadstransport.LeadResponse, error) {
	if f.lead != nil && f.lead.Email == email {
		return f.lead, nil
	}
	return nil, nil
}

func (f *fakeLeads) Promote(_ context.Context, _ uuid.UUID, target leadstransport.LeadStatus, source string) error {
	f.promotions = append(f.promotions, promotion{target: target, source: source})
	return nil
}

type fakeBooker struct {
	err    error
	booked []time.Time
}

func (f *fakeBooker) BookAutomated(_ context.Context, _ uuid.UUID, at time.Time, _ channel.Channel) error {
	if f.err != nil {
		return f.err
	}
	f.booked = append(f.booked, at)
	return nil
}

type fakeSettings struct{}

func (fakeSettings) GetByChannel(_ context.Context, ch channel.Channel) *aisettingstransport.SettingsResponse {
	return &aisettingstransport.SettingsResponse{Channel: ch, Model: "gpt-4o-mini", Temperature: 0.7}
}

type fakeResponder struct {
	reply   string
	err     error
	history []ai.Message
	calls   int
}

func (f *fakeResponder) GenerateReply(_ context.Context, _ ai.Settings, history []ai.Message, _ string) (string, error) {
	f.calls++
	f.history = history
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeDispatcher struct {
	err  error
	sent []string
}

func (f *fakeDispatcher) Send(_ context.Context, _ channel.Channel, _ dispatch.Recipient, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, body)
	return nil
}

type fakeScheduler struct {
	scheduled []uuid.UUID
}

func (f *fakeScheduler) ScheduleFollowUp(_ context.Context, _ uuid.UUID, _ channel.Channel, messageID uuid.UUID) error {
	f.scheduled = append(f.scheduled, messageID)
	return nil
}

type pipeline struct {
	svc       *Service
	store     *fakeStore
	leads     *fakeLeads
	booker    *fakeBooker
	responder *fakeResponder
	outbound  *fakeDispatcher
	follow    *fakeScheduler
}

func newPipeline(t *testing.T, reply string) *pipeline {
	t.Helper()

	p := &pipeline{
		store:     &fakeStore{},
		booker:    &fakeBooker{},
		responder: &fakeResponder{reply: reply},
		outbound:  &fakeDispatcher{},
		follow:    &fakeScheduler{},
	}
	p.leads = &fakeLeads{lead: &leadstransport.LeadResponse{
		ID:     uuid.New(),
		Name:   "Dana Fisher",
		Phone:  "+15550001111",
		Email:  "dana@example.com",
		Status: leadstransport.LeadStatusNew,
	}}

	log := logger.New("test")
	p.svc = New(p.store, p.leads, p.booker, fakeSettings{}, p.responder, p.outbound, p.follow,
		OfficeHours{start: 9, end: 17, loc: time.UTC}, events.NewInMemoryBus(log), log)
	// Noon, inside office hours.
	p.svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	return p
}

func TestHandleInboundBooksAppointmentAndPromotesHot(t *testing.T) {
	p := newPipeline(t, "Great, I can book your appointment for 2026-03-12 14:00. See you then!")

	inbound, err := p.svc.HandleInbound(context.Background(), p.leads.lead.ID, channel.WhatsApp, "Can we meet Thursday at 2pm?")
	if err != nil {
		t.Fatalf("HandleInbound returned error: %v", err)
	}
	if inbound.Direction != transport.DirectionInbound {
		t.Fatalf("expected inbound message returned, got direction %s", inbound.Direction)
	}

	if len(p.booker.booked) != 1 {
		t.Fatalf("expected one booking, got %d", len(p.booker.booked))
	}
	want := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	if !p.booker.booked[0].Equal(want) {
		t.Fatalf("expected booking at %v, got %v", want, p.booker.booked[0])
	}

	if len(p.leads.promotions) != 1 || p.leads.promotions[0].target != leadstransport.LeadStatusHot {
		t.Fatalf("expected one promotion to Hot, got %v", p.leads.promotions)
	}

	// AI reply plus booking confirmation.
	if got := len(p.store.outbound()); got != 2 {
		t.Fatalf("expected 2 outbound messages, got %d", got)
	}

	if len(p.follow.scheduled) != 0 {
		t.Fatal("expected no follow-up after a successful booking")
	}
}

func TestHandleInboundOutOfOfficeSendsFixedReply(t *testing.T) {
	p := newPipeline(t, "should not be used")
	p.svc.now = func() time.Time { return time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC) }

	_, err := p.svc.HandleInbound(context.Background(), p.leads.lead.ID, channel.SMS, "Hello?")
	if err != nil {
		t.Fatalf("HandleInbound returned error: %v", err)
	}

	if p.responder.calls != 0 {
		t.Fatal("expected no AI call outside office hours")
	}

	out := p.store.outbound()
	if len(out) != 1 || out[0].Content != OutOfOfficeReply {
		t.Fatalf("expected single out-of-office reply, got %v", out)
	}
	if !out[0].Automated {
		t.Fatal("expected out-of-office reply to be marked automated")
	}
	if len(p.follow.scheduled) != 0 {
		t.Fatal("expected no follow-up for out-of-office replies")
	}
}

func TestHandleInboundSlotConflictAsksForAlternative(t *testing.T) {
	p := newPipeline(t, "I can confirm your appointment for 2026-03-12 14:00.")
	p.booker.err = apperr.Conflict("lead already has a scheduled appointment")

	if _, err := p.svc.HandleInbound(context.Background(), p.leads.lead.ID, channel.WhatsApp, "book me in"); err != nil {
		t.Fatalf("HandleInbound returned error: %v", err)
	}

	out := p.store.outbound()
	if len(out) != 2 || out[1].Content != SlotUnavailable {
		t.Fatalf("expected slot-unavailable reply, got %v", out)
	}
	if len(p.leads.promotions) != 1 || p.leads.promotions[0].target != leadstransport.LeadStatusWarm {
		t.Fatalf("expected promotion to Warm on conflict, got %v", p.leads.promotions)
	}
	if len(p.follow.scheduled) != 1 {
		t.Fatal("expected follow-up scheduled when no booking happened")
	}
}

func TestHandleInboundBookingWithoutSlotAsksForClarification(t *testing.T) {
	p := newPipeline(t, "I'd be happy to book an appointment for you. What time works?")

	if _, err := p.svc.HandleInbound(context.Background(), p.leads.lead.ID, channel.Email, "I want to meet"); err != nil {
		t.Fatalf("HandleInbound returned error: %v", err)
	}

	out := p.store.outbound()
	if len(out) != 2 || out[1].Content != ClarifySlot {
		t.Fatalf("expected clarification reply, got %v", out)
	}
	if len(p.leads.promotions) != 0 {
		t.Fatalf("expected no status change while clarifying, got %v", p.leads.promotions)
	}
}

func TestHandleInboundPlainReplySchedulesFollowUpAndWarmsLead(t *testing.T) {
	p := newPipeline(t, "We offer weekly cleanings starting at $80.")

	if _, err := p.svc.HandleInbound(context.Background(), p.leads.lead.ID, channel.SMS, "how much?"); err != nil {
		t.Fatalf("HandleInbound returned error: %v", err)
	}

	if len(p.leads.promotions) != 1 || p.leads.promotions[0].target != leadstransport.LeadStatusWarm {
		t.Fatalf("expected promotion to Warm, got %v", p.leads.promotions)
	}

	out := p.store.outbound()
	if len(out) != 1 {
		t.Fatalf("expected one outbound reply, got %d", len(out))
	}
	if len(p.follow.scheduled) != 1 || p.follow.scheduled[0] != out[0].ID {
		t.Fatal("expected follow-up keyed by the outbound message ID")
	}
}

func TestHandleInboundEscalationSendsNotice(t *testing.T) {
	p := newPipeline(t, "Let me connect you with an agent who can help with that.")

	if _, err := p.svc.HandleInbound(context.Background(), p.leads.lead.ID, channel.WhatsApp, "I need a human"); err != nil {
		t.Fatalf("HandleInbound returned error: %v", err)
	}

	out := p.store.outbound()
	if len(out) != 2 || out[1].Content != EscalationNotice {
		t.Fatalf("expected escalation notice after the reply, got %v", out)
	}
}

func TestHandleInboundDispatchFailureKeepsInboundMessage(t *testing.T) {
	p := newPipeline(t, "Thanks for reaching out!")
	p.outbound.err = errors.New("provider 503")

	if _, err := p.svc.HandleInbound(context.Background(), p.leads.lead.ID, channel.SMS, "hi"); err == nil {
		t.Fatal("expected error when dispatch fails")
	}

	if len(p.store.messages) != 1 || p.store.messages[0].Direction != string(transport.DirectionInbound) {
		t.Fatalf("expected only the inbound message persisted, got %v", p.store.messages)
	}
}

func TestHandleInboundGenerationFailureKeepsInboundMessage(t *testing.T) {
	p := newPipeline(t, "")
	p.responder.err = &ai.GenerationError{Operation: "reply", Err: errors.New("rate limited")}

	if _, err := p.svc.HandleInbound(context.Background(), p.leads.lead.ID, channel.SMS, "hi"); err == nil {
		t.Fatal("expected error when generation fails")
	}

	if len(p.store.messages) != 1 || p.store.messages[0].Direction != string(transport.DirectionInbound) {
		t.Fatalf("expected only the inbound message persisted, got %v", p.store.messages)
	}
}

func TestHandleInboundRejectsNonConversationalChannel(t *testing.T) {
	p := newPipeline(t, "unused")

	_, err := p.svc.HandleInbound(context.Background(), p.leads.lead.ID, channel.Call, "hello")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for call channel, got %v", err)
	}
	if len(p.store.messages) != 0 {
		t.Fatal("expected nothing persisted for a rejected channel")
	}
}

func TestHandleInboundExcludesNewMessageFromModelHistory(t *testing.T) {
	p := newPipeline(t, "Sure thing.")
	leadID := p.leads.lead.ID

	p.store.messages = []repository.Message{
		{ID: uuid.New(), LeadID: leadID, Channel: channel.SMS.String(), Direction: string(transport.DirectionInbound), Content: "earlier question"},
		{ID: uuid.New(), LeadID: leadID, Channel: channel.SMS.String(), Direction: string(transport.DirectionOutbound), Content: "earlier answer"},
	}

	if _, err := p.svc.HandleInbound(context.Background(), leadID, channel.SMS, "new question"); err != nil {
		t.Fatalf("HandleInbound returned error: %v", err)
	}

	if len(p.responder.history) != 2 {
		t.Fatalf("expected 2 history turns, got %d", len(p.responder.history))
	}
	for _, turn := range p.responder.history {
		if strings.Contains(turn.Content, "new question") {
			t.Fatal("new inbound message must not appear in history")
		}
	}
	if p.responder.history[0].Role != ai.RoleUser || p.responder.history[1].Role != ai.RoleAssistant {
		t.Fatalf("unexpected history roles: %v", p.responder.history)
	}
}

func TestHandleFollowUpNudgesWhenThreadUnanswered(t *testing.T) {
	p := newPipeline(t, "unused")
	leadID := p.leads.lead.ID
	lastID := uuid.New()

	p.store.messages = []repository.Message{
		{ID: lastID, LeadID: leadID, Channel: channel.SMS.String(), Direction: string(transport.DirectionOutbound), Content: "our reply", Automated: true},
	}

	if err := p.svc.HandleFollowUp(context.Background(), leadID, channel.SMS, lastID); err != nil {
		t.Fatalf("HandleFollowUp returned error: %v", err)
	}

	out := p.store.outbound()
	if len(out) != 2 || out[1].Content != FollowUpNudge {
		t.Fatalf("expected follow-up nudge, got %v", out)
	}
	if len(p.leads.promotions) != 1 || p.leads.promotions[0].source != "follow_up" {
		t.Fatalf("expected Warm promotion sourced from follow_up, got %v", p.leads.promotions)
	}
}

func TestHandleFollowUpNoOpWhenLeadReplied(t *testing.T) {
	p := newPipeline(t, "unused")
	leadID := p.leads.lead.ID
	scheduledFor := uuid.New()

	p.store.messages = []repository.Message{
		{ID: scheduledFor, LeadID: leadID, Channel: channel.SMS.String(), Direction: string(transport.DirectionOutbound)},
		{ID: uuid.New(), LeadID: leadID, Channel: channel.SMS.String(), Direction: string(transport.DirectionInbound), Content: "lead replied"},
	}

	if err := p.svc.HandleFollowUp(context.Background(), leadID, channel.SMS, scheduledFor); err != nil {
		t.Fatalf("HandleFollowUp returned error: %v", err)
	}

	if len(p.store.messages) != 2 {
		t.Fatal("expected no nudge when the lead already replied")
	}
	if len(p.leads.promotions) != 0 {
		t.Fatal("expected no promotion when the lead already replied")
	}
}

func TestHandleFollowUpIgnoresDeletedLead(t *testing.T) {
	p := newPipeline(t, "unused")
	goneLead := uuid.New()
	lastID := uuid.New()

	p.store.messages = []repository.Message{
		{ID: lastID, LeadID: goneLead, Channel: channel.SMS.String(), Direction: string(transport.DirectionOutbound)},
	}

	if err := p.svc.HandleFollowUp(context.Background(), goneLead, channel.SMS, lastID); err != nil {
		t.Fatalf("expected deleted lead to be tolerated, got %v", err)
	}
}

func TestSendManualRejectsCallChannel(t *testing.T) {
	p := newPipeline(t, "unused")

	_, err := p.svc.SendManual(context.Background(), p.leads.lead.ID, transport.SendMessageRequest{
		Channel: "Call",
		Content: "hello",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveSenderUsesEmailForEmailChannel(t *testing.T) {
	p := newPipeline(t, "unused")

	lead, err := p.svc.ResolveSender(context.Background(), channel.Email, "dana@example.com")
	if err != nil || lead == nil {
		t.Fatalf("expected lead resolved by email, got lead=%v err=%v", lead, err)
	}

	lead, err = p.svc.ResolveSender(context.Background(), channel.SMS, "+15550001111")
	if err != nil || lead == nil {
		t.Fatalf("expected lead resolved by phone, got lead=%v err=%v", lead, err)
	}

	lead, err = p.svc.ResolveSender(context.Background(), channel.SMS, "+19998887777")
	if err != nil || lead != nil {
		t.Fatalf("expected nil lead for unknown number, got lead=%v err=%v", lead, err)
	}
}
