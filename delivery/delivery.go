// Package delivery implements the webhook delivery engine: an attempt-tracked
// queue of outbound HTTP calls with per-webhook retry policies, payload
// signing, and bounded concurrent workers.
package delivery

import (
	"time"

	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
)

// State represents the current state of a delivery.
type State string

const (
	// StatePending indicates the delivery is awaiting its first attempt.
	StatePending State = "pending"

	// StateRetrying indicates a failed attempt is scheduled for retry.
	StateRetrying State = "retrying"

	// StateDelivered indicates the delivery was successfully sent.
	StateDelivered State = "delivered"

	// StateAbandoned indicates retries were exhausted without success.
	StateAbandoned State = "abandoned"

	// StateFailed indicates the delivery hit a permanent error and was not retried.
	StateFailed State = "failed"
)

// Terminal reports whether a state is final. Terminal deliveries are
// immutable history entries.
func (s State) Terminal() bool {
	return s == StateDelivered || s == StateAbandoned || s == StateFailed
}

// Delivery represents sending one event's payload to one webhook.
type Delivery struct {
	entity.Entity

	// ID is the unique TypeID for this delivery.
	ID id.ID `json:"id"`

	// WebhookID references the target webhook.
	WebhookID id.ID `json:"webhook_id"`

	// EventID references the event being delivered, when one exists.
	EventID id.ID `json:"event_id,omitempty"`

	// EventType is the event type name carried in delivery headers.
	EventType string `json:"event_type"`

	// Payload is the event payload sent as the request body.
	Payload map[string]any `json:"payload"`

	// State is the current delivery state.
	State State `json:"state"`

	// AttemptCount is the number of delivery attempts made so far. Never
	// exceeds MaxAttempts once the delivery is terminal.
	AttemptCount int `json:"attempt_count"`

	// MaxAttempts is the retry policy's MaxRetries plus the initial attempt.
	MaxAttempts int `json:"max_attempts"`

	// NextAttemptAt is when the next attempt should occur. Meaningful only
	// while the delivery is pending or retrying.
	NextAttemptAt time.Time `json:"next_attempt_at"`

	// LastError is the error message from the most recent failed attempt.
	LastError string `json:"last_error,omitempty"`

	// LastStatusCode is the HTTP status code from the most recent attempt.
	LastStatusCode int `json:"last_status_code,omitempty"`

	// LastResponse is the response body from the most recent attempt (capped at 1KB).
	LastResponse string `json:"last_response,omitempty"`

	// LastLatencyMs is the latency in milliseconds of the most recent attempt.
	LastLatencyMs int `json:"last_latency_ms,omitempty"`

	// CompletedAt is when the delivery reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ListOpts configures filtering and pagination for delivery listing.
// Listings are returned most-recent-first.
type ListOpts struct {
	Offset int
	Limit  int
	State  *State
}
