package models

import "time"

// RawMessage is the projection of an inbound mail message the engine
// consumes. It is immutable input; the engine never writes it back.
type RawMessage struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	BodyPreview string    `json:"body_preview"`
	Body        string    `json:"body,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
	Flagged     bool      `json:"flagged"`
	Important   bool      `json:"important"`
	Recipients  []string  `json:"recipients,omitempty"`
}

// Text returns the subject and best available body joined for analysis.
func (m *RawMessage) Text() string {
	body := m.Body
	if body == "" {
		body = m.BodyPreview
	}
	if m.Subject == "" {
		return body
	}
	if body == "" {
		return m.Subject
	}
	return m.Subject + " " + body
}
