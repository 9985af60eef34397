// Package channel defines the closed set of engagement channels and is the
// single place where channel names are parsed and validated. Every module
// that routes on channel switches over these constants, so adding a channel
// means extending this package and the compiler flags the switches to update.
package channel

import (
	"strings"

	"businesson_backend/platform/apperr"
)

// Channel identifies how a message or call reaches a lead.
type Channel string

const (
	WhatsApp Channel = "WhatsApp"
	SMS      Channel = "SMS"
	Email    Channel = "Email"
	Call     Channel = "Call"
)

// All lists every supported channel.
var All = []Channel{WhatsApp, SMS, Email, Call}

// Parse validates a channel name case-insensitively and returns the
// canonical constant. Unknown names return a validation error naming
// the offending value.
func Parse(value string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "whatsapp":
		return WhatsApp, nil
	case "sms":
		return SMS, nil
	case "email":
		return Email, nil
	case "call":
		return Call, nil
	default:
		return "", apperr.Validation("unsupported channel: " + value)
	}
}

// IsConversational reports whether the channel carries text messages.
// Call is excluded: its conversation history is built from transcripts,
// not from dispatched messages.
func (c Channel) IsConversational() bool {
	switch c {
	case WhatsApp, SMS, Email:
		return true
	default:
		return false
	}
}

// Valid reports whether c is one of the defined constants.
func (c Channel) Valid() bool {
	switch c {
	case WhatsApp, SMS, Email, Call:
		return true
	default:
		return false
	}
}

func (c Channel) String() string { return string(c) }
