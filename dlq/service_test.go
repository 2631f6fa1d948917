package dlq_test

import (
	"context"
	"testing"
	"time"

	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/dlq"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/store/memory"
	"github.com/gridhook/gridhook/webhook"
)

func ctx() context.Context { return context.Background() }

func setup(t *testing.T) (*dlq.Service, *memory.Store, *webhook.Webhook) {
	t.Helper()
	s := memory.New()
	wh, err := webhook.NewService(s, nil).Create(ctx(), webhook.Input{
		OwnerID:    "o1",
		URL:        "https://example.com/hook",
		EventTypes: []string{"*"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return dlq.NewService(s, nil), s, wh
}

func failedDelivery(wh *webhook.Webhook) *delivery.Delivery {
	return &delivery.Delivery{
		ID:           id.NewDeliveryID(),
		WebhookID:    wh.ID,
		EventType:    "order.created",
		Payload:      map[string]any{"order_id": "42"},
		State:        delivery.StateAbandoned,
		AttemptCount: 4,
		MaxAttempts:  4,
	}
}

func TestPushFailed(t *testing.T) {
	svc, _, wh := setup(t)

	d := failedDelivery(wh)
	if err := svc.PushFailed(ctx(), d, wh, "connection refused", 0); err != nil {
		t.Fatal(err)
	}

	entries, err := svc.List(ctx(), dlq.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}

	e := entries[0]
	if e.DeliveryID != d.ID || e.WebhookID != wh.ID {
		t.Errorf("entry references wrong delivery/webhook: %+v", e)
	}
	if e.OwnerID != "o1" || e.URL != wh.URL {
		t.Errorf("entry missing webhook context: %+v", e)
	}
	if e.Error != "connection refused" || e.AttemptCount != 4 {
		t.Errorf("entry failure detail: %+v", e)
	}
	if e.FailedAt.IsZero() {
		t.Error("failed_at not set")
	}
}

func TestReplay(t *testing.T) {
	svc, s, wh := setup(t)

	d := failedDelivery(wh)
	if err := svc.PushFailed(ctx(), d, wh, "boom", 500); err != nil {
		t.Fatal(err)
	}
	entries, _ := svc.List(ctx(), dlq.ListOpts{})
	entry := entries[0]

	if err := svc.Replay(ctx(), entry.ID); err != nil {
		t.Fatal(err)
	}

	// The entry is kept, marked replayed.
	got, err := svc.Get(ctx(), entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ReplayedAt == nil {
		t.Fatal("expected replayed_at to be set")
	}

	// A fresh pending delivery exists for the webhook's payload.
	ds, err := s.ListByWebhook(ctx(), wh.ID, delivery.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	var pending int
	for _, rd := range ds {
		if rd.State == delivery.StatePending {
			pending++
			if rd.Payload["order_id"] != "42" {
				t.Errorf("replayed payload = %v", rd.Payload)
			}
		}
	}
	if pending != 1 {
		t.Fatalf("pending replays = %d, want 1", pending)
	}
}

func TestReplayBulkSkipsReplayed(t *testing.T) {
	svc, _, wh := setup(t)

	for i := 0; i < 3; i++ {
		if err := svc.PushFailed(ctx(), failedDelivery(wh), wh, "boom", 500); err != nil {
			t.Fatal(err)
		}
	}
	entries, _ := svc.List(ctx(), dlq.ListOpts{})
	if err := svc.Replay(ctx(), entries[0].ID); err != nil {
		t.Fatal(err)
	}

	n, err := svc.ReplayBulk(ctx(), time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("bulk replayed %d entries, want 2", n)
	}
}

func TestPurge(t *testing.T) {
	svc, _, wh := setup(t)

	if err := svc.PushFailed(ctx(), failedDelivery(wh), wh, "boom", 500); err != nil {
		t.Fatal(err)
	}

	// Nothing is old enough yet.
	n, err := svc.Purge(ctx(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("purged %d entries, want 0", n)
	}

	n, err = svc.Purge(ctx(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("purged %d entries, want 1", n)
	}

	count, err := svc.Count(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("count after purge = %d", count)
	}
}
