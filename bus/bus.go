package bus

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/event"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
	"github.com/gridhook/gridhook/observability"
	"github.com/gridhook/gridhook/webhook"
)

// ErrNotOwner is returned when a caller attempts to unsubscribe a
// subscription they do not own.
var ErrNotOwner = errors.New("bus: caller is not the subscription owner")

// subscriptionMetaKey marks backing webhooks so they are distinguishable from
// user-registered ones.
const subscriptionMetaKey = "gridhook.subscription_id"

// Bus matches published events against subscriptions and registered webhooks
// and hands matches to the delivery engine. Publishing never blocks the
// caller awaiting delivery outcomes: matches are enqueued, the engine's
// background loop performs the HTTP calls.
type Bus struct {
	store    Store
	webhooks *webhook.Service
	resolver webhook.Store
	engine   *delivery.Engine
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates an event bus.
func New(store Store, webhooks *webhook.Service, resolver webhook.Store, engine *delivery.Engine, metrics *observability.Metrics, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		store:    store,
		webhooks: webhooks,
		resolver: resolver,
		engine:   engine,
		metrics:  metrics,
		logger:   logger,
	}
}

// SubscribeInput is the payload for Subscribe.
type SubscribeInput struct {
	OwnerID    string   `json:"owner_id"`
	EventTypes []string `json:"event_types"`
	Endpoint   string   `json:"endpoint"`
	Secret     string   `json:"secret,omitempty"`
}

// Subscribe registers interest in a set of event types. The literal "*"
// matches every event. A backing webhook carries the endpoint, secret and
// retry policy used for fan-out deliveries.
func (b *Bus) Subscribe(ctx context.Context, in SubscribeInput) (*Subscription, error) {
	sub := &Subscription{
		Entity:     entity.New(),
		ID:         id.NewSubscriptionID(),
		OwnerID:    in.OwnerID,
		EventTypes: in.EventTypes,
		Endpoint:   in.Endpoint,
		Active:     true,
	}

	wh, err := b.webhooks.Create(ctx, webhook.Input{
		OwnerID:    in.OwnerID,
		URL:        in.Endpoint,
		Secret:     in.Secret,
		EventTypes: in.EventTypes,
		Metadata:   map[string]string{subscriptionMetaKey: sub.ID.String()},
	})
	if err != nil {
		return nil, err
	}
	sub.WebhookID = wh.ID

	if err := b.store.CreateSubscription(ctx, sub); err != nil {
		// Roll back the backing webhook so no orphan keeps receiving events.
		if delErr := b.webhooks.Delete(ctx, wh.ID); delErr != nil {
			b.logger.ErrorContext(ctx, "rollback backing webhook failed",
				"webhook_id", wh.ID, "error", delErr)
		}
		return nil, err
	}

	return sub, nil
}

// Unsubscribe removes a subscription. Fails with ErrNotOwner unless the
// caller is the subscription's owner. Queued (non-terminal) deliveries for
// the subscription are removed with its backing webhook; in-flight HTTP calls
// are not interrupted.
func (b *Bus) Unsubscribe(ctx context.Context, subID id.ID, ownerID string) error {
	sub, err := b.store.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}

	if sub.OwnerID != ownerID {
		return ErrNotOwner
	}

	if err := b.webhooks.Delete(ctx, sub.WebhookID); err != nil {
		b.logger.WarnContext(ctx, "delete backing webhook failed",
			"subscription_id", subID, "webhook_id", sub.WebhookID, "error", err)
	}

	return b.store.DeleteSubscription(ctx, subID)
}

// Get returns a subscription by ID.
func (b *Bus) Get(ctx context.Context, subID id.ID) (*Subscription, error) {
	return b.store.GetSubscription(ctx, subID)
}

// List returns subscriptions for an owner.
func (b *Bus) List(ctx context.Context, ownerID string, opts ListOpts) ([]*Subscription, error) {
	return b.store.ListSubscriptions(ctx, ownerID, opts)
}

// Publish fans an event out to every active webhook whose event type set
// matches, regardless of owner, user-registered webhooks and
// subscription-backed ones alike. The event's OwnerID records who caused it,
// it does not scope who receives it. One delivery is enqueued per match.
func (b *Bus) Publish(ctx context.Context, evt *event.Event) error {
	if evt.ID.IsNil() {
		evt.ID = id.NewEventID()
	}

	matches, err := b.resolver.ResolveWebhooks(ctx, evt.Type)
	if err != nil {
		return err
	}

	for _, wh := range matches {
		if _, err := b.engine.DeliverEvent(ctx, wh.ID, evt.ID, evt.Type, evt.Data); err != nil {
			b.logger.ErrorContext(ctx, "enqueue fan-out delivery failed",
				"event_id", evt.ID, "webhook_id", wh.ID, "error", err)
		}
	}

	if b.metrics != nil {
		b.metrics.EventsPublishedTotal.Inc()
	}

	b.logger.DebugContext(ctx, "event published",
		"event_id", evt.ID, "type", evt.Type, "matches", len(matches))

	return nil
}
