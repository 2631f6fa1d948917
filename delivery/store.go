package delivery

import (
	"context"

	"github.com/gridhook/gridhook/id"
)

// Store defines the persistence contract for webhook deliveries.
type Store interface {
	// Enqueue creates a pending delivery.
	Enqueue(ctx context.Context, d *Delivery) error

	// EnqueueBatch creates multiple deliveries atomically (fan-out).
	EnqueueBatch(ctx context.Context, ds []*Delivery) error

	// Dequeue fetches deliveries ready for attempt: pending, or retrying with
	// next_attempt_at due (concurrent-safe). Implementations must ensure no
	// double-delivery (e.g. SKIP LOCKED).
	Dequeue(ctx context.Context, limit int) ([]*Delivery, error)

	// UpdateDelivery modifies a delivery (state, attempt count, next_attempt_at, etc.).
	UpdateDelivery(ctx context.Context, d *Delivery) error

	// GetDelivery returns a delivery by ID.
	GetDelivery(ctx context.Context, delID id.ID) (*Delivery, error)

	// ListByWebhook returns delivery history for a webhook, most-recent-first.
	ListByWebhook(ctx context.Context, whID id.ID, opts ListOpts) ([]*Delivery, error)

	// CountPending returns the number of deliveries awaiting attempt
	// (pending or retrying).
	CountPending(ctx context.Context) (int64, error)

	// CountByState returns delivery counts grouped by state.
	CountByState(ctx context.Context) (map[State]int64, error)
}
