package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/gridhook/gridhook/id"
)

// ErrNotFound is returned by stores when a webhook does not exist. Exposed at
// the root package as ErrWebhookNotFound.
var ErrNotFound = errors.New("webhook: not found")

// Store defines the persistence contract for webhooks.
type Store interface {
	// CreateWebhook persists a new webhook.
	CreateWebhook(ctx context.Context, wh *Webhook) error

	// GetWebhook returns a webhook by ID.
	GetWebhook(ctx context.Context, whID id.ID) (*Webhook, error)

	// UpdateWebhook modifies an existing webhook.
	UpdateWebhook(ctx context.Context, wh *Webhook) error

	// DeleteWebhook removes a webhook and all of its non-terminal deliveries.
	// Terminal delivery history is kept.
	DeleteWebhook(ctx context.Context, whID id.ID) error

	// ListWebhooks returns webhooks for an owner, optionally filtered.
	ListWebhooks(ctx context.Context, ownerID string, opts ListOpts) ([]*Webhook, error)

	// ResolveWebhooks finds all active webhooks subscribed to an event type,
	// across owners. Called on every publish.
	ResolveWebhooks(ctx context.Context, eventType string) ([]*Webhook, error)

	// SetWebhookActive enables or disables a webhook without deleting it.
	SetWebhookActive(ctx context.Context, whID id.ID, active bool) error

	// CountWebhooks returns total and active counts across all owners.
	CountWebhooks(ctx context.Context) (total, active int64, err error)

	// IncrDeliveryCounters atomically adjusts the webhook's success/failure
	// counters and, for successes, advances LastDeliveryAt. Concurrent
	// deliveries for the same webhook must not lose updates.
	IncrDeliveryCounters(ctx context.Context, whID id.ID, success, failure int64, deliveredAt *time.Time) error
}
