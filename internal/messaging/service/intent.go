package service

import (
	"regexp"
	"strings"
	"time"
)

// Intent is what the generated reply text commits the business to.
// Classification runs on the assistant's reply, not on the lead's message:
// the model is instructed to confirm bookings in a recognizable form, and
// the reply is what was actually promised to the lead.
type Intent struct {
	// Booking is true when the reply talks about booking an appointment.
	Booking bool
	// When holds the parsed slot when the reply contained a
	// "YYYY-MM-DD HH:MM" token. Nil for booking language without a slot.
	When *time.Time
	// Escalate is true when the reply offers to connect the lead to a human.
	Escalate bool
}

var slotPattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2})`)

const slotLayout = "2006-01-02 15:04"

// DetectIntent classifies a generated reply. Slot times are interpreted in
// the given location.
func DetectIntent(reply string, loc *time.Location) Intent {
	lower := strings.ToLower(reply)

	intent := Intent{
		Booking:  strings.Contains(lower, "appointment") && (strings.Contains(lower, "book") || strings.Contains(lower, "confirm") || strings.Contains(lower, "schedul")),
		Escalate: strings.Contains(lower, "agent") && strings.Contains(lower, "connect"),
	}

	if intent.Booking {
		if match := slotPattern.FindStringSubmatch(reply); match != nil {
			if when, err := time.ParseInLocation(slotLayout, match[1]+" "+match[2], loc); err == nil {
				intent.When = &when
			}
		}
	}

	return intent
}
