package gridhook_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gridhook/gridhook"
	"github.com/gridhook/gridhook/bus"
	"github.com/gridhook/gridhook/connector"
	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/event"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/integration"
	"github.com/gridhook/gridhook/notify"
	"github.com/gridhook/gridhook/observability"
	"github.com/gridhook/gridhook/store/memory"
	"github.com/gridhook/gridhook/webhook"
)

func ctx() context.Context { return context.Background() }

func setup(t *testing.T, opts ...gridhook.Option) (*gridhook.Hub, *memory.Store) {
	t.Helper()
	s := memory.New()
	h, err := gridhook.New(append([]gridhook.Option{gridhook.WithStore(s)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return h, s
}

// createWebhook registers a webhook through the service directly, so a test's
// delivery counts are not polluted by webhook.created hub events.
func createWebhook(t *testing.T, h *gridhook.Hub, ownerID string, patterns []string) id.ID {
	t.Helper()
	wh, err := h.Webhooks().Create(ctx(), webhook.Input{
		OwnerID:    ownerID,
		URL:        "https://example.com/hook",
		EventTypes: patterns,
	})
	if err != nil {
		t.Fatal(err)
	}
	return wh.ID
}

func deliveryCount(t *testing.T, h *gridhook.Hub, whID id.ID) int {
	t.Helper()
	ds, err := h.ListDeliveries(ctx(), whID, delivery.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	return len(ds)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := gridhook.New()
	if !errors.Is(err, gridhook.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

func TestPublishFanOut(t *testing.T) {
	h, _ := setup(t)

	exact := createWebhook(t, h, "o1", []string{"order.created"})
	segment := createWebhook(t, h, "o1", []string{"order.*"})
	all := createWebhook(t, h, "o1", []string{"*"})
	other := createWebhook(t, h, "o1", []string{"user.*"})

	evt := event.New("order.created", "billing", "o1", map[string]any{"order_id": "42"})
	if err := h.Publish(ctx(), evt); err != nil {
		t.Fatal(err)
	}

	for name, whID := range map[string]id.ID{"exact": exact, "segment": segment, "all": all} {
		if n := deliveryCount(t, h, whID); n != 1 {
			t.Errorf("%s: expected 1 delivery, got %d", name, n)
		}
	}
	if n := deliveryCount(t, h, other); n != 0 {
		t.Errorf("non-matching webhook got %d deliveries", n)
	}
}

func TestPublishReachesSubscribersOfAllOwners(t *testing.T) {
	h, _ := setup(t)

	mine := createWebhook(t, h, "o1", []string{"*"})
	theirs := createWebhook(t, h, "o2", []string{"*"})
	unrelated := createWebhook(t, h, "o2", []string{"user.*"})

	// The event's owner records who caused it; any owner's matching
	// subscription receives it.
	evt := event.New("order.created", "billing", "o1", nil)
	if err := h.Publish(ctx(), evt); err != nil {
		t.Fatal(err)
	}

	if n := deliveryCount(t, h, mine); n != 1 {
		t.Fatalf("expected 1 delivery for owner o1, got %d", n)
	}
	if n := deliveryCount(t, h, theirs); n != 1 {
		t.Fatalf("expected 1 delivery for owner o2, got %d", n)
	}
	if n := deliveryCount(t, h, unrelated); n != 0 {
		t.Fatalf("non-matching webhook got %d deliveries", n)
	}
}

func TestSubscribeAndPublish(t *testing.T) {
	h, _ := setup(t)

	sub, err := h.Subscribe(ctx(), bus.SubscribeInput{
		OwnerID:    "o1",
		EventTypes: []string{"invoice.*"},
		Endpoint:   "https://example.com/invoices",
	})
	if err != nil {
		t.Fatal(err)
	}
	if sub.WebhookID.IsNil() {
		t.Fatal("expected backing webhook to be created")
	}

	if err := h.Publish(ctx(), event.New("invoice.paid", "billing", "o1", nil)); err != nil {
		t.Fatal(err)
	}
	if n := deliveryCount(t, h, sub.WebhookID); n != 1 {
		t.Fatalf("expected 1 delivery via subscription, got %d", n)
	}

	// Only the owner may unsubscribe.
	if err := h.Unsubscribe(ctx(), sub.ID, "intruder"); !errors.Is(err, bus.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := h.Unsubscribe(ctx(), sub.ID, "o1"); err != nil {
		t.Fatal(err)
	}
}

func TestMutationsAnnounceHubEvents(t *testing.T) {
	h, _ := setup(t)

	audit := createWebhook(t, h, "o1", []string{"integration.*"})

	intg, err := h.CreateIntegration(ctx(), integration.Input{
		OwnerID: "o1",
		Name:    "ci-github",
		Type:    integration.TypeGitHub,
	})
	if err != nil {
		t.Fatal(err)
	}
	if n := deliveryCount(t, h, audit); n != 1 {
		t.Fatalf("expected integration.created to fan out, got %d deliveries", n)
	}

	if err := h.DeleteIntegration(ctx(), intg.ID); err != nil {
		t.Fatal(err)
	}
	if n := deliveryCount(t, h, audit); n != 2 {
		t.Fatalf("expected integration.deleted to fan out, got %d deliveries", n)
	}
}

// fakeConnector is a minimal in-memory connector for hub-level tests.
type fakeConnector struct {
	typ      integration.Type
	testOK   bool
	executed []string
}

func (f *fakeConnector) Type() integration.Type { return f.typ }

func (f *fakeConnector) Initialize(_ context.Context, _ *integration.Integration) (*connector.Info, error) {
	return &connector.Info{Name: string(f.typ), Version: "test"}, nil
}

func (f *fakeConnector) TestConnection(_ context.Context, _ *integration.Integration) (*connector.TestOutcome, error) {
	return &connector.TestOutcome{Success: f.testOK, Message: "probe", LatencyMs: 1}, nil
}

func (f *fakeConnector) Execute(_ context.Context, _ *integration.Integration, op string, _ map[string]any) (map[string]any, error) {
	f.executed = append(f.executed, op)
	return map[string]any{"ok": true}, nil
}

func (f *fakeConnector) Operations() []connector.OperationDescriptor {
	return []connector.OperationDescriptor{{Name: "ping", Description: "no-op probe"}}
}

func (f *fakeConnector) Cleanup(_ context.Context, _ *integration.Integration) error { return nil }

func TestTestIntegrationUpdatesStatus(t *testing.T) {
	fc := &fakeConnector{typ: integration.TypeSlack, testOK: false}
	h, _ := setup(t, gridhook.WithConnector(fc))

	intg, err := h.CreateIntegration(ctx(), integration.Input{
		OwnerID: "o1",
		Name:    "team-slack",
		Type:    integration.TypeSlack,
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := h.TestIntegration(ctx(), intg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if out.Success {
		t.Fatal("expected probe failure")
	}

	got, err := h.GetIntegration(ctx(), intg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != integration.StatusError {
		t.Fatalf("expected status error after failed probe, got %s", got.Status)
	}

	fc.testOK = true
	if _, err := h.TestIntegration(ctx(), intg.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = h.GetIntegration(ctx(), intg.ID)
	if got.Status != integration.StatusActive {
		t.Fatalf("expected status active after successful probe, got %s", got.Status)
	}
}

func TestExecuteIntegration(t *testing.T) {
	fc := &fakeConnector{typ: integration.TypeSlack, testOK: true}
	h, _ := setup(t, gridhook.WithConnector(fc))

	intg, err := h.CreateIntegration(ctx(), integration.Input{
		OwnerID: "o1",
		Name:    "team-slack",
		Type:    integration.TypeSlack,
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := h.ExecuteIntegration(ctx(), intg.ID, "ping", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result["ok"] != true {
		t.Fatalf("unexpected result: %v", result)
	}
	if len(fc.executed) != 1 || fc.executed[0] != "ping" {
		t.Fatalf("expected connector to run ping, got %v", fc.executed)
	}

	// Unknown operations are rejected by the registry.
	if _, err := h.ExecuteIntegration(ctx(), intg.ID, "bogus", nil); !errors.Is(err, connector.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}

	// Inactive integrations cannot execute.
	if err := h.Integrations().SetStatus(ctx(), intg.ID, integration.StatusInactive); err != nil {
		t.Fatal(err)
	}
	if _, err := h.ExecuteIntegration(ctx(), intg.ID, "ping", nil); !errors.Is(err, gridhook.ErrIntegrationInactive) {
		t.Fatalf("expected ErrIntegrationInactive, got %v", err)
	}
}

func TestExecuteIntegrationTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	fc := &fakeConnector{typ: integration.TypeSlack, testOK: true}
	h, _ := setup(t, gridhook.WithConnector(fc), gridhook.WithTracer(observability.NewTracer()))

	intg, err := h.CreateIntegration(ctx(), integration.Input{
		OwnerID: "o1",
		Name:    "team-slack",
		Type:    integration.TypeSlack,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.ExecuteIntegration(ctx(), intg.ID, "ping", nil); err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, span := range recorder.Ended() {
		if span.Name() != "gridhook.connector" {
			continue
		}
		found = true
		for _, attr := range span.Attributes() {
			if attr.Key == "gridhook.operation" && attr.Value.AsString() != "ping" {
				t.Errorf("operation attribute = %q, want ping", attr.Value.AsString())
			}
		}
	}
	if !found {
		t.Fatal("no connector span recorded for ExecuteIntegration")
	}
}

// recordingProvider collects sends for notification tests.
type recordingProvider struct {
	channel string
	sent    []string
}

func (p *recordingProvider) Channel() string { return p.channel }

func (p *recordingProvider) ValidateRecipient(string) error { return nil }

func (p *recordingProvider) Send(_ context.Context, recipient string, _ *notify.Notification) error {
	p.sent = append(p.sent, recipient)
	return nil
}

func TestSendNotification(t *testing.T) {
	chat := &recordingProvider{channel: notify.ChannelChat}
	h, _ := setup(t, gridhook.WithNotifyProvider(chat))

	n := notify.New([]string{"#ops"}, "deploy", "v1.2 is live")
	summary, err := h.SendNotification(ctx(), n, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if !summary.AllSucceeded() {
		t.Fatalf("expected success, got %+v", summary)
	}
	if len(chat.sent) != 1 || chat.sent[0] != "#ops" {
		t.Fatalf("unexpected sends: %v", chat.sent)
	}
}

func TestHealth(t *testing.T) {
	h, _ := setup(t)

	whID := createWebhook(t, h, "o1", []string{"*"})
	if _, err := h.CreateIntegration(ctx(), integration.Input{
		OwnerID: "o1", Name: "gh", Type: integration.TypeGitHub,
	}); err != nil {
		t.Fatal(err)
	}
	if err := h.Publish(ctx(), event.New("order.created", "billing", "o1", nil)); err != nil {
		t.Fatal(err)
	}

	health, err := h.Health(ctx())
	if err != nil {
		t.Fatal(err)
	}
	if health.IntegrationsTotal != 1 || health.IntegrationsActive != 1 {
		t.Fatalf("integration counts: %+v", health)
	}
	if health.WebhooksTotal != 1 || health.WebhooksActive != 1 {
		t.Fatalf("webhook counts: %+v", health)
	}
	// integration.created fan-out plus the explicit publish.
	if health.PendingDeliveries != 2 {
		t.Fatalf("expected 2 pending deliveries, got %d", health.PendingDeliveries)
	}
	if health.DeliverySuccessRate != 0 {
		t.Fatalf("expected zero success rate with no finished deliveries, got %f", health.DeliverySuccessRate)
	}

	if n := deliveryCount(t, h, whID); n != 2 {
		t.Fatalf("expected 2 deliveries on catch-all webhook, got %d", n)
	}
}
