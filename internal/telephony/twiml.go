package telephony

import (
	"encoding/xml"
	"fmt"
)

// TwiML is the response document Twilio executes when a call connects.
type TwiML struct {
	XMLName xml.Name `xml:"Response"`
	Say     *Say     `xml:"Say,omitempty"`
	Record  *Record  `xml:"Record,omitempty"`
}

// Say speaks a message to the caller.
type Say struct {
	Voice string `xml:"voice,attr,omitempty"`
	Text  string `xml:",chardata"`
}

// Record captures the caller's audio after the greeting.
type Record struct {
	MaxLength int    `xml:"maxLength,attr,omitempty"`
	Action    string `xml:"action,attr,omitempty"`
}

// GreetingTwiML builds the document served to inbound callers: a spoken
// greeting followed by recording, so missed calls still produce a
// transcribable artifact.
func GreetingTwiML(greeting string, recordingAction string) ([]byte, error) {
	doc := TwiML{
		Say:    &Say{Voice: "alice", Text: greeting},
		Record: &Record{MaxLength: 120, Action: recordingAction},
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal twiml: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}
