// Package dispatch routes outbound messages to the transport for their
// channel. All channel fan-out goes through the one table built in New,
// so there is exactly one place where a channel maps to a provider.
package dispatch

import (
	"context"
	"fmt"

	"businesson_backend/internal/channel"
	"businesson_backend/platform/logger"
)

// Recipient is the contact information needed to reach a lead.
type Recipient struct {
	Name  string
	Phone string
	Email string
}

// Error reports a delivery failure on a specific channel. Callers use it
// to persist the message as failed without losing which transport broke.
type Error struct {
	Channel channel.Channel
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dispatch on %s failed: %v", e.Channel, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TextSender delivers phone-based messages.
type TextSender interface {
	SendSMS(ctx context.Context, toNumber, body string) error
	SendWhatsApp(ctx context.Context, toNumber, body string) error
}

// EmailSender delivers email messages.
type EmailSender interface {
	SendMessage(ctx context.Context, toEmail, subject, body string) error
}

type sendFunc func(ctx context.Context, to Recipient, body string) error

// Dispatcher sends outbound messages over the correct transport.
type Dispatcher struct {
	table map[channel.Channel]sendFunc
	log   *logger.Logger
}

// New builds the dispatch table. Call is deliberately absent: calls are
// placed through the calls module, not dispatched as messages.
func New(texts TextSender, emails EmailSender, emailSubject string, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{log: log}
	d.table = map[channel.Channel]sendFunc{
		channel.WhatsApp: func(ctx context.Context, to Recipient, body string) error {
			return texts.SendWhatsApp(ctx, to.Phone, body)
		},
		channel.SMS: func(ctx context.Context, to Recipient, body string) error {
			return texts.SendSMS(ctx, to.Phone, body)
		},
		channel.Email: func(ctx context.Context, to Recipient, body string) error {
			if to.Email == "" {
				return fmt.Errorf("lead has no email address")
			}
			return emails.SendMessage(ctx, to.Email, emailSubject, body)
		},
	}
	return d
}

// Send delivers body to the recipient on the given channel.
func (d *Dispatcher) Send(ctx context.Context, ch channel.Channel, to Recipient, body string) error {
	send, ok := d.table[ch]
	if !ok {
		return &Error{Channel: ch, Err: fmt.Errorf("channel does not support message dispatch")}
	}

	if err := send(ctx, to, body); err != nil {
		d.log.Error("outbound dispatch failed", "channel", ch.String(), "error", err)
		return &Error{Channel: ch, Err: err}
	}

	return nil
}
