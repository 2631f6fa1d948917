// Package webhook manages webhook registrations: named HTTP endpoints with
// event type subscriptions, signing secrets, and per-webhook retry policies.
package webhook

import (
	"time"

	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
)

// Webhook represents a registered delivery target owned by a platform user.
type Webhook struct {
	entity.Entity

	// ID is the unique TypeID for this webhook.
	ID id.ID `json:"id"`

	// OwnerID identifies the owner of this webhook.
	OwnerID string `json:"owner_id"`

	// URL is the delivery URL. Must have an http or https scheme.
	URL string `json:"url"`

	// Description is a human-readable description of this webhook.
	Description string `json:"description"`

	// Secret is the HMAC signing secret for this webhook. Never serialized.
	Secret string `json:"-"`

	// EventTypes are patterns for event type subscriptions. May contain "*".
	EventTypes []string `json:"event_types"`

	// Headers are custom HTTP headers sent verbatim with each delivery.
	Headers map[string]string `json:"headers,omitempty"`

	// PayloadTemplate, when set, is rendered with event fields and sent
	// instead of the raw payload.
	PayloadTemplate string `json:"payload_template,omitempty"`

	// RetryPolicy governs delivery retries for this webhook.
	RetryPolicy RetryPolicy `json:"retry_policy"`

	// Active indicates whether the webhook receives deliveries.
	Active bool `json:"active"`

	// SuccessCount is the number of successful deliveries. Updated atomically
	// by the store after each completed delivery.
	SuccessCount int64 `json:"success_count"`

	// FailureCount is the number of permanently failed deliveries.
	FailureCount int64 `json:"failure_count"`

	// LastDeliveryAt is when the most recent successful delivery completed.
	LastDeliveryAt *time.Time `json:"last_delivery_at,omitempty"`

	// Metadata holds user-defined key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RetryPolicy controls retry/backoff behavior for a webhook's deliveries.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `json:"max_retries"`

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration `json:"initial_delay"`

	// BackoffMultiplier scales the delay on each subsequent retry.
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration `json:"max_delay"`

	// Timeout bounds each HTTP delivery attempt.
	Timeout time.Duration `json:"timeout"`
}

// DefaultRetryPolicy returns the retry policy applied when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		InitialDelay:      5 * time.Second,
		BackoffMultiplier: 2.0,
		MaxDelay:          5 * time.Minute,
		Timeout:           30 * time.Second,
	}
}

// Delay returns the backoff delay before the retry following the given
// attempt number (1-based). The delay grows exponentially and is capped
// at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.BackoffMultiplier
	}

	if max := float64(p.MaxDelay); p.MaxDelay > 0 && delay > max {
		delay = max
	}
	return time.Duration(delay)
}

// normalize fills zero-valued policy fields with defaults.
func (p RetryPolicy) normalize() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.BackoffMultiplier <= 0 {
		p.BackoffMultiplier = def.BackoffMultiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Timeout <= 0 {
		p.Timeout = def.Timeout
	}
	return p
}

// ListOpts configures filtering and pagination for webhook listing.
type ListOpts struct {
	Offset int
	Limit  int
	Active *bool
}
