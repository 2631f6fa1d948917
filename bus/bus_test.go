package bus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gridhook/gridhook"
	"github.com/gridhook/gridhook/bus"
	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/dlq"
	"github.com/gridhook/gridhook/event"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/store/memory"
	"github.com/gridhook/gridhook/webhook"
)

func ctx() context.Context { return context.Background() }

func newBus(t *testing.T) (*bus.Bus, *memory.Store) {
	t.Helper()
	s := memory.New()
	whSvc := webhook.NewService(s, nil)
	eng := delivery.NewEngine(s, dlq.NewService(s, nil), delivery.EngineConfig{}, nil)
	return bus.New(s, whSvc, s, eng, nil, nil), s
}

func subscribe(t *testing.T, b *bus.Bus, ownerID string, patterns []string) *bus.Subscription {
	t.Helper()
	sub, err := b.Subscribe(ctx(), bus.SubscribeInput{
		OwnerID:    ownerID,
		EventTypes: patterns,
		Endpoint:   "https://example.com/hooks",
	})
	if err != nil {
		t.Fatal(err)
	}
	return sub
}

func pendingFor(t *testing.T, s *memory.Store, whID id.ID) int {
	t.Helper()
	ds, err := s.ListByWebhook(ctx(), whID, delivery.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	return len(ds)
}

func TestSubscribeCreatesBackingWebhook(t *testing.T) {
	b, s := newBus(t)

	sub := subscribe(t, b, "o1", []string{"order.*", "invoice.paid"})
	if !sub.Active {
		t.Error("subscription not active")
	}

	wh, err := s.GetWebhook(ctx(), sub.WebhookID)
	if err != nil {
		t.Fatal(err)
	}
	if wh.URL != sub.Endpoint {
		t.Errorf("backing webhook URL = %q, want %q", wh.URL, sub.Endpoint)
	}
	if len(wh.EventTypes) != 2 {
		t.Errorf("backing webhook event types = %v", wh.EventTypes)
	}
	if wh.Secret == "" {
		t.Error("backing webhook has no generated secret")
	}
}

func TestUnsubscribe(t *testing.T) {
	b, s := newBus(t)
	sub := subscribe(t, b, "o1", []string{"*"})

	if err := b.Unsubscribe(ctx(), sub.ID, "somebody-else"); !errors.Is(err, bus.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	if err := b.Unsubscribe(ctx(), sub.ID, "o1"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Get(ctx(), sub.ID); !errors.Is(err, gridhook.ErrSubscriptionNotFound) {
		t.Fatalf("expected subscription gone, got %v", err)
	}
	if _, err := s.GetWebhook(ctx(), sub.WebhookID); !errors.Is(err, gridhook.ErrWebhookNotFound) {
		t.Fatalf("expected backing webhook gone, got %v", err)
	}
}

func TestPublishMatchesPatterns(t *testing.T) {
	b, s := newBus(t)

	segment := subscribe(t, b, "o1", []string{"order.*"})
	catchAll := subscribe(t, b, "o1", []string{"*"})
	unrelated := subscribe(t, b, "o1", []string{"user.*"})

	if err := b.Publish(ctx(), event.New("order.created", "billing", "o1", map[string]any{"n": 1})); err != nil {
		t.Fatal(err)
	}

	if n := pendingFor(t, s, segment.WebhookID); n != 1 {
		t.Errorf("order.* subscriber: %d deliveries, want 1", n)
	}
	if n := pendingFor(t, s, catchAll.WebhookID); n != 1 {
		t.Errorf("* subscriber: %d deliveries, want 1", n)
	}
	if n := pendingFor(t, s, unrelated.WebhookID); n != 0 {
		t.Errorf("user.* subscriber: %d deliveries, want 0", n)
	}

	// A two-segment wildcard does not span deeper names.
	if err := b.Publish(ctx(), event.New("order.items.added", "billing", "o1", nil)); err != nil {
		t.Fatal(err)
	}
	if n := pendingFor(t, s, segment.WebhookID); n != 1 {
		t.Errorf("order.* matched a nested type: %d deliveries", n)
	}
	if n := pendingFor(t, s, catchAll.WebhookID); n != 2 {
		t.Errorf("* subscriber after second publish: %d deliveries, want 2", n)
	}
}

func TestPublishSpansOwners(t *testing.T) {
	b, s := newBus(t)

	other := subscribe(t, b, "o2", []string{"*"})

	if err := b.Publish(ctx(), event.New("order.created", "billing", "o1", nil)); err != nil {
		t.Fatal(err)
	}
	if n := pendingFor(t, s, other.WebhookID); n != 1 {
		t.Fatalf("subscription of another owner got %d deliveries, want 1", n)
	}
}

func TestPublishAssignsEventID(t *testing.T) {
	b, _ := newBus(t)

	evt := &event.Event{Type: "order.created", OwnerID: "o1"}
	if err := b.Publish(ctx(), evt); err != nil {
		t.Fatal(err)
	}
	if evt.ID.IsNil() {
		t.Fatal("expected event ID to be assigned")
	}
}

func TestListSubscriptions(t *testing.T) {
	b, _ := newBus(t)
	subscribe(t, b, "o1", []string{"*"})
	subscribe(t, b, "o1", []string{"order.*"})
	subscribe(t, b, "o2", []string{"*"})

	subs, err := b.List(ctx(), "o1", bus.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("listed %d subscriptions for o1, want 2", len(subs))
	}
}
