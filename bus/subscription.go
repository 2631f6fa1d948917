// Package bus implements the event bus: subscriptions matched against
// published hub events and fanned out through the webhook delivery engine.
package bus

import (
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
)

// Subscription is a registered interest in one or more event types, tied to a
// delivery endpoint. Each subscription is backed by a webhook registration so
// that fan-out reuses the delivery engine's signing and retry machinery.
type Subscription struct {
	entity.Entity

	// ID is the unique TypeID for this subscription.
	ID id.ID `json:"id"`

	// OwnerID identifies the subscriber. Only the owner may unsubscribe.
	OwnerID string `json:"owner_id"`

	// EventTypes are the subscribed event type patterns. May contain "*".
	EventTypes []string `json:"event_types"`

	// Endpoint is the URL that receives matched events.
	Endpoint string `json:"endpoint"`

	// Active indicates whether the subscription receives events.
	Active bool `json:"active"`

	// WebhookID references the backing webhook registration.
	WebhookID id.ID `json:"webhook_id"`
}

// ListOpts configures filtering and pagination for subscription listing.
type ListOpts struct {
	Offset int
	Limit  int
	Active *bool
}
