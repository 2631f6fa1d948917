// Package event defines the hub event published on every state change.
package event

import (
	"time"

	"github.com/gridhook/gridhook/id"
)

// Well-known event types published by the hub itself.
const (
	TypeIntegrationCreated  = "integration.created"
	TypeIntegrationUpdated  = "integration.updated"
	TypeIntegrationDeleted  = "integration.deleted"
	TypeIntegrationTested   = "integration.tested"
	TypeIntegrationExecuted = "integration.executed"
	TypeWebhookCreated      = "webhook.created"
	TypeWebhookUpdated      = "webhook.updated"
	TypeWebhookDeleted      = "webhook.deleted"
	TypeWebhookTest         = "webhook.test"
	TypeTemplateCreated     = "template.created"
	TypeTemplateUpdated     = "template.updated"
	TypeTemplateDeleted     = "template.deleted"
	TypeSubscriptionCreated = "subscription.created"
	TypeSubscriptionDeleted = "subscription.deleted"
	TypeNotificationSent    = "notification.sent"
)

// Event is a hub event: a record of something that happened, fanned out to
// matching subscriptions. Events are ephemeral: published, matched, and
// handed to delivery, never persisted by the hub core.
type Event struct {
	// ID is the unique TypeID for this event.
	ID id.ID `json:"id"`

	// Type is the dot-separated event type name (e.g. "integration.created").
	Type string `json:"type"`

	// Source identifies the component that published the event.
	Source string `json:"source"`

	// Data is the event payload.
	Data map[string]any `json:"data"`

	// OwnerID identifies the owner of the affected entity.
	OwnerID string `json:"owner_id"`

	// OccurredAt is when the event was published.
	OccurredAt time.Time `json:"occurred_at"`
}

// New creates an event of the given type with the current timestamp.
func New(eventType, source, ownerID string, data map[string]any) *Event {
	return &Event{
		ID:         id.NewEventID(),
		Type:       eventType,
		Source:     source,
		Data:       data,
		OwnerID:    ownerID,
		OccurredAt: time.Now().UTC(),
	}
}
