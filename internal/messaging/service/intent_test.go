package service

import (
	"testing"
	"time"
)

func TestDetectIntent(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name     string
		reply    string
		booking  bool
		escalate bool
		when     string
	}{
		{
			name:    "booking with slot",
			reply:   "I can book your appointment for 2026-04-01 09:30.",
			booking: true,
			when:    "2026-04-01 09:30",
		},
		{
			name:    "confirmation with slot",
			reply:   "Your appointment is confirmed for 2026-04-01 09:30.",
			booking: true,
			when:    "2026-04-01 09:30",
		},
		{
			name:    "booking language without slot",
			reply:   "Happy to schedule an appointment, what time suits you?",
			booking: true,
		},
		{
			name:  "slot without booking language is ignored",
			reply: "Our next open house is on 2026-04-01 09:30.",
		},
		{
			name:     "escalation",
			reply:    "Let me connect you with an agent right away.",
			escalate: true,
		},
		{
			name:     "booking and escalation together",
			reply:    "I will book the appointment for 2026-04-01 09:30 and connect you to an agent.",
			booking:  true,
			escalate: true,
			when:     "2026-04-01 09:30",
		},
		{
			name:  "plain answer",
			reply: "We are open weekdays from nine to five.",
		},
		{
			name:    "malformed slot is dropped",
			reply:   "I can book your appointment for 2026-13-45 99:99.",
			booking: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			intent := DetectIntent(tc.reply, loc)

			if intent.Booking != tc.booking {
				t.Fatalf("booking = %v, want %v", intent.Booking, tc.booking)
			}
			if intent.Escalate != tc.escalate {
				t.Fatalf("escalate = %v, want %v", intent.Escalate, tc.escalate)
			}

			if tc.when == "" {
				if intent.When != nil {
					t.Fatalf("expected no slot, got %v", *intent.When)
				}
				return
			}
			want, err := time.ParseInLocation(slotLayout, tc.when, loc)
			if err != nil {
				t.Fatalf("bad test slot: %v", err)
			}
			if intent.When == nil || !intent.When.Equal(want) {
				t.Fatalf("slot = %v, want %v", intent.When, want)
			}
		})
	}
}

func TestOfficeHoursWindow(t *testing.T) {
	office := OfficeHours{start: 9, end: 17, loc: time.UTC}

	tests := []struct {
		hour int
		out  bool
	}{
		{hour: 8, out: true},
		{hour: 9, out: false},
		{hour: 12, out: false},
		{hour: 16, out: false},
		{hour: 17, out: true},
		{hour: 23, out: true},
	}

	for _, tc := range tests {
		at := time.Date(2026, 3, 10, tc.hour, 30, 0, 0, time.UTC)
		if got := office.OutOfOffice(at); got != tc.out {
			t.Errorf("OutOfOffice(%02d:30) = %v, want %v", tc.hour, got, tc.out)
		}
	}
}

func TestOfficeHoursRespectsTimezone(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	office := OfficeHours{start: 9, end: 17, loc: est}

	// 15:00 UTC is 10:00 EST, inside the window.
	if office.OutOfOffice(time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)) {
		t.Fatal("expected 10:00 local to be inside office hours")
	}
	// 03:00 UTC is 22:00 EST the previous day, outside.
	if !office.OutOfOffice(time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)) {
		t.Fatal("expected 22:00 local to be outside office hours")
	}
}

func TestDetectIntentParsesSlotInLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)

	intent := DetectIntent("I can book your appointment for 2026-04-01 09:30.", est)
	if intent.When == nil {
		t.Fatal("expected slot to parse")
	}
	if intent.When.Location() != est {
		t.Fatalf("slot location = %v, want EST", intent.When.Location())
	}
}

// "2026-13-45 99:99" still matches the slot regex shape, so parsing has to
// reject it rather than the pattern.
func TestSlotPatternMatchesShapeOnly(t *testing.T) {
	if slotPattern.FindStringSubmatch("2026-13-45 99:99") == nil {
		t.Fatal("expected the pattern to match the shape")
	}
}
