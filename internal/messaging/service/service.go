// Package service implements the conversation store and the inbound
// message pipeline: persist, out-of-office gate, AI reply, dispatch, and
// the booking/escalation/follow-up side effects decided from the reply.
package service

import (
	"context"
	"fmt"
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

// Fixed reply texts used by the pipeline.
const (
	OutOfOfficeReply = "Thanks for reaching out! Our office is currently closed. We'll get back to you during business hours."
	SlotUnavailable  = "That time slot is unavailable. Could you propose an alternative time?"
	ClarifySlot      = "Happy to book an appointment for you. Could you confirm the exact date and time (YYYY-MM-DD HH:MM)?"
	EscalationNotice = "Connecting you to an agent. A member of our team will reach out to you shortly."
	FollowUpNudge    = "Just checking in! Do you have any questions we can help with?"
)

// LeadDirectory is the slice of the leads module the pipeline needs.
type LeadDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*leadstransport.LeadResponse, error)
	LookupByPhone(ctx context.Context, rawPhone string) (*leadstransport.LeadResponse, error)
	LookupByEmail(ctx context.Context, email string) (*leadstransport.LeadResponse, error)
	Promote(ctx context.Context, id uuid.UUID, target leadstransport.LeadStatus, source string) error
}

// Booker creates appointments from detected booking intent. A conflicting
// slot returns an apperr conflict.
type Booker interface {
	BookAutomated(ctx context.Context, leadID uuid.UUID, at time.Time, source channel.Channel) error
}

// SettingsSource provides effective per-channel AI settings. It fails open,
// so there is no error return.
type SettingsSource interface {
	GetByChannel(ctx context.Context, ch channel.Channel) *aisettingstransport.SettingsResponse
}

// ReplyGenerator produces AI replies from conversation context.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, settings ai.Settings, history []ai.Message, inbound string) (string, error)
}

// Dispatcher delivers outbound messages on a channel.
type Dispatcher interface {
	Send(ctx context.Context, ch channel.Channel, to dispatch.Recipient, body string) error
}

// FollowUpScheduler enqueues the deferred unanswered-thread check.
type FollowUpScheduler interface {
	ScheduleFollowUp(ctx context.Context, leadID uuid.UUID, ch channel.Channel, messageID uuid.UUID) error
}

// MessageStore is the slice of the repository the service needs.
type MessageStore interface {
	Create(ctx context.Context, msg *repository.Message) error
	History(ctx context.Context, leadID uuid.UUID, channelName string) ([]repository.Message, error)
	LastMessage(ctx context.Context, leadID uuid.UUID, channelName string) (*repository.Message, error)
}

// Service provides conversation business logic
type Service struct {
	repo      MessageStore
	leads     LeadDirectory
	booker    Booker
	settings  SettingsSource
	responder ReplyGenerator
	outbound  Dispatcher
	follow    FollowUpScheduler
	office    OfficeHours
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new messaging service. follow may be nil when no scheduler
// backend is configured; follow-up checks are then skipped with a log line.
func New(
	repo MessageStore,
	leads LeadDirectory,
	booker Booker,
	settings SettingsSource,
	responder ReplyGenerator,
	outbound Dispatcher,
	follow FollowUpScheduler,
	office OfficeHours,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		leads:     leads,
		booker:    booker,
		settings:  settings,
		responder: responder,
		outbound:  outbound,
		follow:    follow,
		office:    office,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// HandleInbound runs the inbound pipeline for one message and returns the
// persisted inbound message. The inbound message is durable before any
// AI or provider work happens; later failures leave it in place.
func (s *Service) HandleInbound(ctx context.Context, leadID uuid.UUID, ch channel.Channel, content string) (*transport.MessageResponse, error) {
	if !ch.IsConversational() {
		return nil, apperr.Validation("channel does not carry messages: " + ch.String())
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	inbound, err := s.persist(ctx, leadID, ch, transport.DirectionInbound, content, false)
	if err != nil {
		return nil, err
	}

	if s.office.OutOfOffice(s.now()) {
		if _, err := s.sendAndPersist(ctx, lead, ch, OutOfOfficeReply); err != nil {
			return nil, err
		}
		return toResponse(inbound), nil
	}

	reply, err := s.generateReply(ctx, lead, ch, content, inbound.ID)
	if err != nil {
		return nil, err
	}

	outboundMsg, err := s.sendAndPersist(ctx, lead, ch, reply)
	if err != nil {
		return nil, err
	}

	booked, err := s.applyIntent(ctx, lead, ch, reply)
	if err != nil {
		return nil, err
	}

	if !booked {
		s.scheduleFollowUp(ctx, leadID, ch, outboundMsg.ID)
	}

	return toResponse(inbound), nil
}

// HandleFollowUp runs the deferred unanswered-thread check. If the last
// message in the (lead, channel) thread is still the outbound message the
// follow-up was scheduled for, the lead never responded: send a nudge and
// mark the lead Warm. Otherwise the check is a no-op.
func (s *Service) HandleFollowUp(ctx context.Context, leadID uuid.UUID, ch channel.Channel, messageID uuid.UUID) error {
	last, err := s.repo.LastMessage(ctx, leadID, ch.String())
	if err != nil {
		return err
	}
	if last == nil || last.ID != messageID {
		return nil
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			// Lead was deleted after scheduling; nothing to do.
			return nil
		}
		return err
	}

	if _, err := s.sendAndPersist(ctx, lead, ch, FollowUpNudge); err != nil {
		return err
	}

	return s.leads.Promote(ctx, leadID, leadstransport.LeadStatusWarm, "follow_up")
}

// SendManual sends a user-authored outbound message and records it.
func (s *Service) SendManual(ctx context.Context, leadID uuid.UUID, req transport.SendMessageRequest) (*transport.MessageResponse, error) {
	ch, err := channel.Parse(req.Channel)
	if err != nil {
		return nil, err
	}
	if !ch.IsConversational() {
		return nil, apperr.Validation("channel does not carry messages: " + ch.String())
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	if err := s.outbound.Send(ctx, ch, recipient(lead), req.Content); err != nil {
		return nil, err
	}

	msg, err := s.persist(ctx, leadID, ch, transport.DirectionOutbound, req.Content, false)
	if err != nil {
		return nil, err
	}

	return toResponse(msg), nil
}

// Conversation returns the ordered history for (lead, channel).
func (s *Service) Conversation(ctx context.Context, leadID uuid.UUID, ch channel.Channel) (*transport.ConversationResponse, error) {
	if _, err := s.leads.GetByID(ctx, leadID); err != nil {
		return nil, err
	}

	msgs, err := s.repo.History(ctx, leadID, ch.String())
	if err != nil {
		return nil, err
	}

	items := make([]transport.MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, *toResponse(&msgs[i]))
	}

	return &transport.ConversationResponse{
		LeadID:   leadID,
		Channel:  ch,
		Messages: items,
	}, nil
}

// ResolveSender maps an inbound provider address to a lead, by phone for
// phone channels and by email otherwise. Returns nil when no lead matches.
func (s *Service) ResolveSender(ctx context.Context, ch channel.Channel, from string) (*leadstransport.LeadResponse, error) {
	if ch == channel.Email {
		return s.leads.LookupByEmail(ctx, from)
	}
	return s.leads.LookupByPhone(ctx, from)
}

func (s *Service) generateReply(ctx context.Context, lead *leadstransport.LeadResponse, ch channel.Channel, content string, inboundID uuid.UUID) (string, error) {
	settings := s.settings.GetByChannel(ctx, ch)

	stored, err := s.repo.History(ctx, lead.ID, ch.String())
	if err != nil {
		return "", err
	}

	history := make([]ai.Message, 0, len(stored))
	for _, msg := range stored {
		// The inbound message is already persisted; it goes in as the
		// final user turn, not as history.
		if msg.ID == inboundID {
			continue
		}
		role := ai.RoleAssistant
		if msg.Direction == string(transport.DirectionInbound) {
			role = ai.RoleUser
		}
		history = append(history, ai.Message{Role: role, Content: msg.Content})
	}

	return s.responder.GenerateReply(ctx, toAISettings(settings), history, content)
}

// applyIntent performs the side effects decided from the reply text.
// Returns whether an appointment was booked.
func (s *Service) applyIntent(ctx context.Context, lead *leadstransport.LeadResponse, ch channel.Channel, reply string) (bool, error) {
	intent := DetectIntent(reply, s.office.Location())
	booked := false

	switch {
	case intent.Booking && intent.When != nil:
		err := s.booker.BookAutomated(ctx, lead.ID, *intent.When, ch)
		switch {
		case err == nil:
			booked = true
			if err := s.leads.Promote(ctx, lead.ID, leadstransport.LeadStatusHot, "inbound_message"); err != nil {
				return false, err
			}
			confirmation := fmt.Sprintf("Your appointment is confirmed for %s. We look forward to speaking with you!", intent.When.Format(slotLayout))
			if _, err := s.sendAndPersist(ctx, lead, ch, confirmation); err != nil {
				return false, err
			}
		case apperr.Is(err, apperr.KindConflict):
			if _, err := s.sendAndPersist(ctx, lead, ch, SlotUnavailable); err != nil {
				return false, err
			}
			if err := s.leads.Promote(ctx, lead.ID, leadstransport.LeadStatusWarm, "inbound_message"); err != nil {
				return false, err
			}
		default:
			return false, err
		}

	case intent.Booking:
		// Booking language without a parseable slot: ask for one,
		// leave the status alone.
		if _, err := s.sendAndPersist(ctx, lead, ch, ClarifySlot); err != nil {
			return false, err
		}

	default:
		if err := s.leads.Promote(ctx, lead.ID, leadstransport.LeadStatusWarm, "inbound_message"); err != nil {
			return false, err
		}
	}

	if intent.Escalate {
		if _, err := s.sendAndPersist(ctx, lead, ch, EscalationNotice); err != nil {
			return false, err
		}
	}

	return booked, nil
}

func (s *Service) scheduleFollowUp(ctx context.Context, leadID uuid.UUID, ch channel.Channel, messageID uuid.UUID) {
	if s.follow == nil {
		s.log.Debug("follow-up scheduler not configured, skipping", "lead_id", leadID)
		return
	}
	if err := s.follow.ScheduleFollowUp(ctx, leadID, ch, messageID); err != nil {
		// Best effort: a lost follow-up never fails the pipeline.
		s.log.Error("failed to schedule follow-up", "lead_id", leadID, "error", err)
	}
}

// sendAndPersist dispatches an automated message and records it as an
// outbound turn. Nothing is persisted when dispatch fails.
func (s *Service) sendAndPersist(ctx context.Context, lead *leadstransport.LeadResponse, ch channel.Channel, content string) (*repository.Message, error) {
	if err := s.outbound.Send(ctx, ch, recipient(lead), content); err != nil {
		return nil, err
	}
	return s.persist(ctx, lead.ID, ch, transport.DirectionOutbound, content, true)
}

func (s *Service) persist(ctx context.Context, leadID uuid.UUID, ch channel.Channel, direction transport.Direction, content string, automated bool) (*repository.Message, error) {
	msg := &repository.Message{
		ID:        uuid.New(),
		LeadID:    leadID,
		Channel:   ch.String(),
		Direction: string(direction),
		Content:   content,
		Automated: automated,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.MessageReceived{
		BaseEvent: events.NewBaseEvent(),
		MessageID: msg.ID,
		LeadID:    leadID,
		Channel:   ch,
		Direction: string(direction),
		Body:      content,
		Automated: automated,
	})

	return msg, nil
}

func recipient(lead *leadstransport.LeadResponse) dispatch.Recipient {
	return dispatch.Recipient{
		Name:  lead.Name,
		Phone: lead.Phone,
		Email: lead.Email,
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

func toResponse(msg *repository.Message) *transport.MessageResponse {
	return &transport.MessageResponse{
		ID:        msg.ID,
		LeadID:    msg.LeadID,
		Channel:   channel.Channel(msg.Channel),
		Direction: transport.Direction(msg.Direction),
		Content:   msg.Content,
		Automated: msg.Automated,
		CreatedAt: msg.CreatedAt,
	}
}
