// Package webhook holds the wire shapes of the webhook intake endpoint.
package webhook

import "encoding/json"

// Envelope is the body of POST /webhooks/{provider} after signature
// verification. Payload stays raw; handlers own its schema.
type Envelope struct {
	EventID string          `json:"eventId"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckResponse acknowledges receipt. It says nothing about processing:
// a handler failure is the receiver's problem, not the provider's.
type AckResponse struct {
	Received bool `json:"received"`
}
