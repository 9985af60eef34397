package dispatch

import (
	"context"

	"businesson_backend/internal/telephony"
)

// TwilioTextSender adapts the telephony client to the TextSender
// interface, discarding provider message IDs the dispatcher has no use for.
type TwilioTextSender struct {
	client *telephony.Client
}

// NewTwilioTextSender wraps a telephony client. The client may be nil;
// sends then fail with the client's unconfigured-provider error.
func NewTwilioTextSender(client *telephony.Client) *TwilioTextSender {
	return &TwilioTextSender{client: client}
}

func (a *TwilioTextSender) SendSMS(ctx context.Context, toNumber, body string) error {
	_, err := a.client.SendSMS(ctx, toNumber, body)
	return err
}

func (a *TwilioTextSender) SendWhatsApp(ctx context.Context, toNumber, body string) error {
	_, err := a.client.SendWhatsApp(ctx, toNumber, body)
	return err
}
