package gridhook

import (
	"errors"

	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/webhook"
)

// Sentinel errors returned by Gridhook operations.
var (
	// ErrNoStore is returned when a Hub is created without a store.
	ErrNoStore = errors.New("gridhook: store is required")

	// ErrWebhookNotFound is returned when a webhook cannot be found. The
	// delivery engine matches it to tell a deleted webhook from a store
	// failure.
	ErrWebhookNotFound = webhook.ErrNotFound

	// ErrWebhookInactive is returned when attempting to deliver to a disabled webhook.
	ErrWebhookInactive = delivery.ErrWebhookInactive

	// ErrDeliveryNotFound is returned when a delivery cannot be found.
	ErrDeliveryNotFound = errors.New("gridhook: delivery not found")

	// ErrIntegrationNotFound is returned when an integration cannot be found.
	ErrIntegrationNotFound = errors.New("gridhook: integration not found")

	// ErrIntegrationInactive is returned when executing an operation against
	// an integration that is not active.
	ErrIntegrationInactive = errors.New("gridhook: integration is not active")

	// ErrSubscriptionNotFound is returned when a subscription cannot be found.
	ErrSubscriptionNotFound = errors.New("gridhook: subscription not found")

	// ErrTemplateNotFound is returned when a template cannot be found.
	ErrTemplateNotFound = errors.New("gridhook: template not found")

	// ErrDuplicateTemplateName is returned when an owner already has a template with the same name.
	ErrDuplicateTemplateName = errors.New("gridhook: duplicate template name")

	// ErrDLQNotFound is returned when a DLQ entry cannot be found.
	ErrDLQNotFound = errors.New("gridhook: dlq entry not found")

	// ErrStoreClosed is returned when a store operation is attempted after the store is closed.
	ErrStoreClosed = errors.New("gridhook: store is closed")
)
