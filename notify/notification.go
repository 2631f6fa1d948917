// Package notify implements multi-channel notification dispatch with
// per-channel rate limiting and transient-failure retry.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders notification importance.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Notification is one message addressed to one or more recipients, possibly
// across channels.
type Notification struct {
	// ID uniquely identifies the notification.
	ID string `json:"id"`

	// Recipients are channel-inferred addresses: "#channel" or "@user" for
	// chat, anything containing "@" for email.
	Recipients []string `json:"recipients"`

	// Subject is the message subject. Chat providers fold it into the body.
	Subject string `json:"subject"`

	// Body is the message body.
	Body string `json:"body"`

	// Priority defaults to normal.
	Priority Priority `json:"priority"`

	// Metadata carries optional provider hints.
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt is when the notification was constructed.
	CreatedAt time.Time `json:"created_at"`
}

// New constructs a notification with a fresh ID and normal priority.
func New(recipients []string, subject, body string) *Notification {
	return &Notification{
		ID:         uuid.NewString(),
		Recipients: recipients,
		Subject:    subject,
		Body:       body,
		Priority:   PriorityNormal,
		CreatedAt:  time.Now().UTC(),
	}
}

// RecipientOutcome records the result of delivering to one recipient.
type RecipientOutcome struct {
	// Recipient is the address as given.
	Recipient string `json:"recipient"`

	// Channel the recipient was routed to.
	Channel string `json:"channel"`

	// Success reports whether delivery eventually succeeded.
	Success bool `json:"success"`

	// Error describes the final failure, empty on success.
	Error string `json:"error,omitempty"`

	// Attempts counts send attempts made for this recipient.
	Attempts int `json:"attempts"`

	// Duration is the total time spent on this recipient, including retries.
	Duration time.Duration `json:"duration"`
}

// DeliverySummary aggregates the per-recipient outcomes of one dispatch.
// Partial failure is normal: callers inspect Outcomes to see which
// recipients failed and why.
type DeliverySummary struct {
	// NotificationID references the dispatched notification.
	NotificationID string `json:"notification_id"`

	// Total is the recipient count.
	Total int `json:"total"`

	// Succeeded counts recipients delivered successfully.
	Succeeded int `json:"succeeded"`

	// Failed counts recipients that exhausted retries or failed permanently.
	Failed int `json:"failed"`

	// Outcomes holds one entry per recipient, in input order.
	Outcomes []RecipientOutcome `json:"outcomes"`
}

// AllSucceeded reports whether every recipient was delivered.
func (s *DeliverySummary) AllSucceeded() bool {
	return s.Failed == 0 && s.Total > 0
}
