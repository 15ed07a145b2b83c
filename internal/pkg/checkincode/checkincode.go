// Package checkincode parses the payload presented at a check-in desk.
//
// Attendees present either a scanned QR payload, a JSON object carrying at
// least a registration number and optionally the event it was issued for, or
// a registration number typed in by hand. Anything that does not parse as the
// structured payload is treated as a literal registration number.
package checkincode

import (
	"encoding/json"
	"strings"
)

// Code is the parsed form of a check-in input.
type Code struct {
	RegistrationNumber string
	// EventID is the event named by a structured payload, empty for raw
	// registration numbers or payloads that omit it.
	EventID string
	// Structured is true when the input parsed as a QR JSON payload.
	Structured bool
}

type qrPayload struct {
	RegistrationNumber string          `json:"registrationNumber"`
	EventID            json.RawMessage `json:"eventId"`
}

// Parse turns a raw scanner/form input into a Code. It never fails: inputs
// that are not valid payload JSON fall back to being a raw registration
// number.
func Parse(raw string) Code {
	trimmed := strings.TrimSpace(raw)

	var payload qrPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.RegistrationNumber != "" {
		return Code{
			RegistrationNumber: payload.RegistrationNumber,
			EventID:            eventIDString(payload.EventID),
			Structured:         true,
		}
	}

	return Code{RegistrationNumber: trimmed}
}

// eventIDString normalizes the payload's eventId, which scanners emit either
// as a JSON string or a bare number.
func eventIDString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return strings.TrimSpace(string(raw))
}

// MatchesEvent reports whether the code may be redeemed against the given
// event. Raw codes and payloads without an event always match; a structured
// payload naming a different event does not, regardless of whether its
// registration number exists.
func (c Code) MatchesEvent(eventID string) bool {
	if !c.Structured || c.EventID == "" {
		return true
	}

	return c.EventID == eventID
}
