package channel

import (
	"testing"

	"businesson_backend/platform/apperr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Channel
	}{
		{in: "WhatsApp", want: WhatsApp},
		{in: "whatsapp", want: WhatsApp},
		{in: "SMS", want: SMS},
		{in: "sms", want: SMS},
		{in: " Email ", want: Email},
		{in: "CALL", want: Call},
	}

	for _, tc := range tests {
		got, err := Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseRejectsUnknownChannel(t *testing.T) {
	for _, in := range []string{"", "fax", "telegram"} {
		_, err := Parse(in)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("Parse(%q): expected validation error, got %v", in, err)
		}
	}
}

func TestIsConversational(t *testing.T) {
	for _, ch := range []Channel{WhatsApp, SMS, Email} {
		if !ch.IsConversational() {
			t.Errorf("%s should be conversational", ch)
		}
	}
	if Call.IsConversational() {
		t.Error("Call should not be conversational")
	}
}

func TestValid(t *testing.T) {
	for _, ch := range All {
		if !ch.Valid() {
			t.Errorf("%s should be valid", ch)
		}
	}
	if Channel("Pigeon").Valid() {
		t.Error("unknown channel should not be valid")
	}
}
