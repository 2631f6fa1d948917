package webhook_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/gridhook/gridhook/store/memory"
	"github.com/gridhook/gridhook/webhook"
)

func ctx() context.Context { return context.Background() }

func newService() *webhook.Service {
	return webhook.NewService(memory.New(), nil)
}

func TestCreate(t *testing.T) {
	svc := newService()

	wh, err := svc.Create(ctx(), webhook.Input{
		OwnerID:    "owner-1",
		URL:        "https://example.com/hook",
		EventTypes: []string{"integration.*"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if wh.ID.String() == "" {
		t.Fatal("expected non-empty ID")
	}
	if !strings.HasPrefix(wh.Secret, "whsec_") {
		t.Fatalf("expected auto-generated secret, got %q", wh.Secret)
	}
	if !wh.Active {
		t.Fatal("expected active by default")
	}
	if wh.RetryPolicy.MaxRetries != 3 {
		t.Fatalf("expected default retry policy, got %+v", wh.RetryPolicy)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newService()

	tests := []struct {
		name string
		in   webhook.Input
	}{
		{"missing URL", webhook.Input{OwnerID: "o1", EventTypes: []string{"*"}}},
		{"bad scheme", webhook.Input{OwnerID: "o1", URL: "ftp://example.com", EventTypes: []string{"*"}}},
		{"no host", webhook.Input{OwnerID: "o1", URL: "https://", EventTypes: []string{"*"}}},
		{"missing owner", webhook.Input{URL: "https://example.com", EventTypes: []string{"*"}}},
		{"empty event types", webhook.Input{OwnerID: "o1", URL: "https://example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx(), tt.in); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestGetUpdateDelete(t *testing.T) {
	svc := newService()

	wh, err := svc.Create(ctx(), webhook.Input{
		OwnerID:    "owner-1",
		URL:        "https://example.com/hook",
		EventTypes: []string{"*"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(ctx(), wh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.URL != wh.URL {
		t.Fatalf("Get returned URL %q, want %q", got.URL, wh.URL)
	}

	updated, err := svc.Update(ctx(), wh.ID, webhook.Input{
		URL:        "https://example.org/hook2",
		EventTypes: []string{"webhook.*"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.URL != "https://example.org/hook2" {
		t.Fatalf("URL not updated: %q", updated.URL)
	}
	if len(updated.EventTypes) != 1 || updated.EventTypes[0] != "webhook.*" {
		t.Fatalf("EventTypes not updated: %v", updated.EventTypes)
	}

	if err := svc.Delete(ctx(), wh.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx(), wh.ID); err == nil {
		t.Fatal("expected not-found after delete")
	}
}

func TestRotateSecret(t *testing.T) {
	svc := newService()

	wh, err := svc.Create(ctx(), webhook.Input{
		OwnerID:    "owner-1",
		URL:        "https://example.com/hook",
		EventTypes: []string{"*"},
	})
	if err != nil {
		t.Fatal(err)
	}

	old := wh.Secret
	rotated, err := svc.RotateSecret(ctx(), wh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rotated == old {
		t.Fatal("expected a different secret after rotation")
	}

	got, _ := svc.Get(ctx(), wh.ID)
	if got.Secret != rotated {
		t.Fatal("rotated secret not persisted")
	}
}

func TestList(t *testing.T) {
	svc := newService()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx(), webhook.Input{
			OwnerID:    "owner-1",
			URL:        "https://example.com/hook",
			EventTypes: []string{"*"},
		}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Create(ctx(), webhook.Input{
		OwnerID:    "owner-2",
		URL:        "https://example.com/hook",
		EventTypes: []string{"*"},
	}); err != nil {
		t.Fatal(err)
	}

	whs, err := svc.List(ctx(), "owner-1", webhook.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(whs) != 3 {
		t.Fatalf("expected 3 webhooks for owner-1, got %d", len(whs))
	}
}

func TestUpdateDoesNotMutateEarlierReads(t *testing.T) {
	svc := newService()

	wh, err := svc.Create(ctx(), webhook.Input{
		OwnerID:    "owner-1",
		URL:        "https://example.com/hook",
		EventTypes: []string{"*"},
		Headers:    map[string]string{"X-Env": "prod"},
	})
	if err != nil {
		t.Fatal(err)
	}

	held, err := svc.Get(ctx(), wh.ID)
	if err != nil {
		t.Fatal(err)
	}

	// A delivery worker may hold a fetched webhook across an update. The
	// held struct must keep the values it was read with.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, uerr := svc.Update(ctx(), wh.ID, webhook.Input{
				URL:     "https://example.com/v2",
				Headers: map[string]string{"X-Env": "staging"},
			})
			if uerr != nil {
				t.Error(uerr)
				return
			}
		}
	}()
	for i := 0; i < 100; i++ {
		_ = held.URL + held.Secret + held.Headers["X-Env"]
	}
	wg.Wait()

	if held.URL != "https://example.com/hook" {
		t.Fatalf("held webhook mutated by Update: %q", held.URL)
	}
	got, err := svc.Get(ctx(), wh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.URL != "https://example.com/v2" || got.Headers["X-Env"] != "staging" {
		t.Fatalf("update not persisted: url=%q headers=%v", got.URL, got.Headers)
	}
}

func TestRotateSecretDoesNotMutateEarlierReads(t *testing.T) {
	svc := newService()

	wh, err := svc.Create(ctx(), webhook.Input{
		OwnerID:    "owner-1",
		URL:        "https://example.com/hook",
		EventTypes: []string{"*"},
	})
	if err != nil {
		t.Fatal(err)
	}

	held, err := svc.Get(ctx(), wh.ID)
	if err != nil {
		t.Fatal(err)
	}
	before := held.Secret

	rotated, err := svc.RotateSecret(ctx(), wh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rotated == before {
		t.Fatal("expected a new secret")
	}
	if held.Secret != before {
		t.Fatal("held webhook's secret mutated by RotateSecret")
	}

	got, err := svc.Get(ctx(), wh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Secret != rotated {
		t.Fatalf("store secret = %q, want rotated value", got.Secret)
	}
}
