package bus

import (
	"context"

	"github.com/gridhook/gridhook/id"
)

// Store defines the persistence contract for event subscriptions.
type Store interface {
	// CreateSubscription persists a new subscription.
	CreateSubscription(ctx context.Context, sub *Subscription) error

	// GetSubscription returns a subscription by ID.
	GetSubscription(ctx context.Context, subID id.ID) (*Subscription, error)

	// DeleteSubscription removes a subscription.
	DeleteSubscription(ctx context.Context, subID id.ID) error

	// ListSubscriptions returns subscriptions for an owner, optionally filtered.
	ListSubscriptions(ctx context.Context, ownerID string, opts ListOpts) ([]*Subscription, error)

	// CountSubscriptions returns the total number of subscriptions.
	CountSubscriptions(ctx context.Context) (int64, error)
}
