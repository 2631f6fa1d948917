package gridhook

import (
	"context"
	"fmt"

	"github.com/gridhook/gridhook/delivery"
)

// Health is a point-in-time snapshot of hub state, suitable for dashboards
// and readiness reporting.
type Health struct {
	IntegrationsTotal   int64                    `json:"integrations_total"`
	IntegrationsActive  int64                    `json:"integrations_active"`
	WebhooksTotal       int64                    `json:"webhooks_total"`
	WebhooksActive      int64                    `json:"webhooks_active"`
	PendingDeliveries   int64                    `json:"pending_deliveries"`
	DeliveriesByState   map[delivery.State]int64 `json:"deliveries_by_state"`
	DeliverySuccessRate float64                  `json:"delivery_success_rate"`
	Subscriptions       int64                    `json:"subscriptions"`
	DLQEntries          int64                    `json:"dlq_entries"`
}

// Health aggregates counters from the store. The success rate covers
// finished deliveries only; a hub with no finished deliveries reports 0.
func (h *Hub) Health(ctx context.Context) (*Health, error) {
	if err := h.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gridhook: store unavailable: %w", err)
	}

	intgTotal, intgActive, err := h.store.CountIntegrations(ctx)
	if err != nil {
		return nil, err
	}
	whTotal, whActive, err := h.store.CountWebhooks(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := h.store.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	byState, err := h.store.CountByState(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := h.store.CountSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	dlqCount, err := h.store.CountDLQ(ctx)
	if err != nil {
		return nil, err
	}

	delivered := byState[delivery.StateDelivered]
	finished := delivered + byState[delivery.StateAbandoned] + byState[delivery.StateFailed]
	var successRate float64
	if finished > 0 {
		successRate = float64(delivered) / float64(finished)
	}

	return &Health{
		IntegrationsTotal:   intgTotal,
		IntegrationsActive:  intgActive,
		WebhooksTotal:       whTotal,
		WebhooksActive:      whActive,
		PendingDeliveries:   pending,
		DeliveriesByState:   byState,
		DeliverySuccessRate: successRate,
		Subscriptions:       subs,
		DLQEntries:          dlqCount,
	}, nil
}
