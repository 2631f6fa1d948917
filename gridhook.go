package gridhook

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/gridhook/gridhook/bus"
	"github.com/gridhook/gridhook/connector"
	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/dlq"
	"github.com/gridhook/gridhook/event"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/integration"
	"github.com/gridhook/gridhook/notify"
	"github.com/gridhook/gridhook/store"
	"github.com/gridhook/gridhook/template"
	"github.com/gridhook/gridhook/webhook"
)

// eventSource identifies hub-originated events.
const eventSource = "gridhook"

// wireServices initializes the internal services after options have been applied.
func (h *Hub) wireServices() {
	h.integrationSvc = integration.NewService(h.store, h.logger)
	h.webhookSvc = webhook.NewService(h.store, h.logger)
	h.templateSvc = template.NewService(h.store, h.logger)
	h.dlqSvc = dlq.NewService(h.store, h.logger)

	h.engine = delivery.NewEngine(h.store, h.dlqSvc, delivery.EngineConfig{
		Concurrency:  h.config.Concurrency,
		PollInterval: h.config.PollInterval,
		BatchSize:    h.config.BatchSize,
		Metrics:      h.metrics,
		Tracer:       h.tracer,
	}, h.logger)

	h.bus = bus.New(h.store, h.webhookSvc, h.store, h.engine, h.metrics, h.logger)

	h.registry = connector.NewRegistry(h.logger)
	for _, c := range h.connectors {
		h.registry.Register(c)
	}

	h.dispatcher = notify.NewDispatcher(h.config.Notify, h.metrics, h.logger, h.providers...)
}

// Start begins the delivery engine.
func (h *Hub) Start(ctx context.Context) {
	h.engine.Start(ctx)
}

// Stop gracefully shuts down the delivery engine, waiting at most the
// configured ShutdownTimeout for in-flight deliveries.
func (h *Hub) Stop(ctx context.Context) error {
	if h.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.ShutdownTimeout)
		defer cancel()
	}
	return h.engine.Stop(ctx)
}

// announce publishes a hub event for a successful mutation. Announcement
// failures are logged, never surfaced: the mutation already happened.
func (h *Hub) announce(ctx context.Context, eventType, ownerID string, data map[string]any) {
	evt := event.New(eventType, eventSource, ownerID, data)
	if err := h.bus.Publish(ctx, evt); err != nil {
		h.logger.WarnContext(ctx, "hub event publish failed",
			"type", eventType,
			"owner_id", ownerID,
			"error", err,
		)
	}
}

// ──────────────────────────────────────────────────
// Integrations
// ──────────────────────────────────────────────────

// CreateIntegration registers a new third-party integration.
func (h *Hub) CreateIntegration(ctx context.Context, in integration.Input) (*integration.Integration, error) {
	intg, err := h.integrationSvc.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	h.announce(ctx, event.TypeIntegrationCreated, intg.OwnerID, map[string]any{
		"integration_id": intg.ID.String(),
		"type":           string(intg.Type),
		"name":           intg.Name,
	})
	return intg, nil
}

// GetIntegration returns an integration by ID.
func (h *Hub) GetIntegration(ctx context.Context, intgID id.ID) (*integration.Integration, error) {
	return h.integrationSvc.Get(ctx, intgID)
}

// UpdateIntegration modifies an existing integration.
func (h *Hub) UpdateIntegration(ctx context.Context, intgID id.ID, in integration.Input) (*integration.Integration, error) {
	intg, err := h.integrationSvc.Update(ctx, intgID, in)
	if err != nil {
		return nil, err
	}
	h.announce(ctx, event.TypeIntegrationUpdated, intg.OwnerID, map[string]any{
		"integration_id": intg.ID.String(),
	})
	return intg, nil
}

// DeleteIntegration soft-removes an integration. Its connector, if registered,
// gets a chance to release remote resources first.
func (h *Hub) DeleteIntegration(ctx context.Context, intgID id.ID) error {
	intg, err := h.integrationSvc.Get(ctx, intgID)
	if err != nil {
		return err
	}
	if cleanupErr := h.registry.Cleanup(ctx, intg); cleanupErr != nil {
		h.logger.WarnContext(ctx, "connector cleanup failed",
			"integration_id", intg.ID,
			"error", cleanupErr,
		)
	}
	if err := h.integrationSvc.Delete(ctx, intgID); err != nil {
		return err
	}
	h.announce(ctx, event.TypeIntegrationDeleted, intg.OwnerID, map[string]any{
		"integration_id": intg.ID.String(),
	})
	return nil
}

// ListIntegrations returns non-deleted integrations for an owner.
func (h *Hub) ListIntegrations(ctx context.Context, ownerID string, opts integration.ListOpts) ([]*integration.Integration, error) {
	return h.integrationSvc.List(ctx, ownerID, opts)
}

// TestIntegration checks connectivity for an integration through its
// connector and records the outcome on the integration's status.
func (h *Hub) TestIntegration(ctx context.Context, intgID id.ID) (*connector.TestOutcome, error) {
	intg, err := h.integrationSvc.Get(ctx, intgID)
	if err != nil {
		return nil, err
	}

	out, err := h.registry.TestConnection(ctx, intg)
	if err != nil {
		return nil, err
	}

	status := integration.StatusActive
	if !out.Success {
		status = integration.StatusError
	}
	if statusErr := h.integrationSvc.SetStatus(ctx, intgID, status); statusErr != nil {
		h.logger.WarnContext(ctx, "integration status update failed",
			"integration_id", intgID,
			"error", statusErr,
		)
	}

	h.announce(ctx, event.TypeIntegrationTested, intg.OwnerID, map[string]any{
		"integration_id": intg.ID.String(),
		"success":        out.Success,
		"latency_ms":     out.LatencyMs,
	})
	return out, nil
}

// ExecuteIntegration runs a named connector operation against an integration.
// Parameters are validated against the operation's descriptor before dispatch.
func (h *Hub) ExecuteIntegration(ctx context.Context, intgID id.ID, op string, params map[string]any) (map[string]any, error) {
	intg, err := h.integrationSvc.Get(ctx, intgID)
	if err != nil {
		return nil, err
	}
	if intg.Status != integration.StatusActive {
		return nil, fmt.Errorf("%w: %s", ErrIntegrationInactive, intg.Status)
	}

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.StartConnectorSpan(ctx, string(intg.Type), op)
	}

	result, err := h.registry.Execute(ctx, intg, op, params)
	if span != nil {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		h.tracer.EndConnectorSpan(span, errMsg)
	}
	if err != nil {
		var remoteErr *connector.RemoteError
		if errors.As(err, &remoteErr) {
			if statusErr := h.integrationSvc.SetStatus(ctx, intgID, integration.StatusError); statusErr != nil {
				h.logger.WarnContext(ctx, "integration status update failed",
					"integration_id", intgID,
					"error", statusErr,
				)
			}
		}
		return nil, err
	}

	h.announce(ctx, event.TypeIntegrationExecuted, intg.OwnerID, map[string]any{
		"integration_id": intg.ID.String(),
		"operation":      op,
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// Webhooks & deliveries
// ──────────────────────────────────────────────────

// CreateWebhook registers a new webhook endpoint.
func (h *Hub) CreateWebhook(ctx context.Context, in webhook.Input) (*webhook.Webhook, error) {
	wh, err := h.webhookSvc.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	h.announce(ctx, event.TypeWebhookCreated, wh.OwnerID, map[string]any{
		"webhook_id": wh.ID.String(),
		"url":        wh.URL,
	})
	return wh, nil
}

// GetWebhook returns a webhook by ID.
func (h *Hub) GetWebhook(ctx context.Context, whID id.ID) (*webhook.Webhook, error) {
	return h.webhookSvc.Get(ctx, whID)
}

// UpdateWebhook modifies an existing webhook.
func (h *Hub) UpdateWebhook(ctx context.Context, whID id.ID, in webhook.Input) (*webhook.Webhook, error) {
	wh, err := h.webhookSvc.Update(ctx, whID, in)
	if err != nil {
		return nil, err
	}
	h.announce(ctx, event.TypeWebhookUpdated, wh.OwnerID, map[string]any{
		"webhook_id": wh.ID.String(),
	})
	return wh, nil
}

// DeleteWebhook removes a webhook. Non-terminal deliveries are discarded;
// terminal delivery history is kept.
func (h *Hub) DeleteWebhook(ctx context.Context, whID id.ID) error {
	wh, err := h.webhookSvc.Get(ctx, whID)
	if err != nil {
		return err
	}
	if err := h.webhookSvc.Delete(ctx, whID); err != nil {
		return err
	}
	h.announce(ctx, event.TypeWebhookDeleted, wh.OwnerID, map[string]any{
		"webhook_id": wh.ID.String(),
	})
	return nil
}

// ListWebhooks returns webhooks for an owner, optionally filtered.
func (h *Hub) ListWebhooks(ctx context.Context, ownerID string, opts webhook.ListOpts) ([]*webhook.Webhook, error) {
	return h.webhookSvc.List(ctx, ownerID, opts)
}

// SetWebhookActive enables or disables a webhook without deleting it.
func (h *Hub) SetWebhookActive(ctx context.Context, whID id.ID, active bool) error {
	return h.webhookSvc.SetActive(ctx, whID, active)
}

// RotateWebhookSecret replaces the webhook's signing secret and returns the
// new value. This is the only moment the secret is readable.
func (h *Hub) RotateWebhookSecret(ctx context.Context, whID id.ID) (string, error) {
	return h.webhookSvc.RotateSecret(ctx, whID)
}

// Deliver enqueues a one-off delivery of an event payload to a webhook.
func (h *Hub) Deliver(ctx context.Context, whID id.ID, eventType string, payload map[string]any) (*delivery.Delivery, error) {
	return h.engine.Deliver(ctx, whID, eventType, payload)
}

// TestWebhook enqueues a synthetic test delivery to verify the endpoint is
// reachable and the signature verifies.
func (h *Hub) TestWebhook(ctx context.Context, whID id.ID) (*delivery.Delivery, error) {
	d, err := h.engine.Test(ctx, whID)
	if err != nil {
		return nil, err
	}
	if wh, getErr := h.webhookSvc.Get(ctx, whID); getErr == nil {
		h.announce(ctx, event.TypeWebhookTest, wh.OwnerID, map[string]any{
			"webhook_id":  whID.String(),
			"delivery_id": d.ID.String(),
		})
	}
	return d, nil
}

// ListDeliveries returns delivery history for a webhook, most-recent-first.
func (h *Hub) ListDeliveries(ctx context.Context, whID id.ID, opts delivery.ListOpts) ([]*delivery.Delivery, error) {
	return h.store.ListByWebhook(ctx, whID, opts)
}

// ──────────────────────────────────────────────────
// Templates
// ──────────────────────────────────────────────────

// CreateTemplate registers a payload template. Names are unique per owner.
func (h *Hub) CreateTemplate(ctx context.Context, in template.Input) (*template.Template, error) {
	tpl, err := h.templateSvc.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	h.announce(ctx, event.TypeTemplateCreated, tpl.OwnerID, map[string]any{
		"template_id": tpl.ID.String(),
		"name":        tpl.Name,
	})
	return tpl, nil
}

// GetTemplate returns a template by ID.
func (h *Hub) GetTemplate(ctx context.Context, tplID id.ID) (*template.Template, error) {
	return h.templateSvc.Get(ctx, tplID)
}

// UpdateTemplate modifies an existing template.
func (h *Hub) UpdateTemplate(ctx context.Context, tplID id.ID, in template.Input) (*template.Template, error) {
	tpl, err := h.templateSvc.Update(ctx, tplID, in)
	if err != nil {
		return nil, err
	}
	h.announce(ctx, event.TypeTemplateUpdated, tpl.OwnerID, map[string]any{
		"template_id": tpl.ID.String(),
	})
	return tpl, nil
}

// DeleteTemplate removes a template.
func (h *Hub) DeleteTemplate(ctx context.Context, tplID id.ID) error {
	tpl, err := h.templateSvc.Get(ctx, tplID)
	if err != nil {
		return err
	}
	if err := h.templateSvc.Delete(ctx, tplID); err != nil {
		return err
	}
	h.announce(ctx, event.TypeTemplateDeleted, tpl.OwnerID, map[string]any{
		"template_id": tpl.ID.String(),
	})
	return nil
}

// ListTemplates returns templates for an owner.
func (h *Hub) ListTemplates(ctx context.Context, ownerID string, opts template.ListOpts) ([]*template.Template, error) {
	return h.templateSvc.List(ctx, ownerID, opts)
}

// RenderTemplate renders a template's subject and body against data.
func (h *Hub) RenderTemplate(ctx context.Context, tplID id.ID, data map[string]any) (subject, body string, err error) {
	return h.templateSvc.Render(ctx, tplID, data)
}

// ──────────────────────────────────────────────────
// Event bus
// ──────────────────────────────────────────────────

// Subscribe registers interest in a set of event types. "*" matches every
// event; "order.*" matches one trailing segment.
func (h *Hub) Subscribe(ctx context.Context, in bus.SubscribeInput) (*bus.Subscription, error) {
	sub, err := h.bus.Subscribe(ctx, in)
	if err != nil {
		return nil, err
	}
	h.announce(ctx, event.TypeSubscriptionCreated, sub.OwnerID, map[string]any{
		"subscription_id": sub.ID.String(),
		"event_types":     sub.EventTypes,
	})
	return sub, nil
}

// Unsubscribe removes a subscription owned by ownerID.
func (h *Hub) Unsubscribe(ctx context.Context, subID id.ID, ownerID string) error {
	if err := h.bus.Unsubscribe(ctx, subID, ownerID); err != nil {
		return err
	}
	h.announce(ctx, event.TypeSubscriptionDeleted, ownerID, map[string]any{
		"subscription_id": subID.String(),
	})
	return nil
}

// ListSubscriptions returns subscriptions for an owner.
func (h *Hub) ListSubscriptions(ctx context.Context, ownerID string, opts bus.ListOpts) ([]*bus.Subscription, error) {
	return h.bus.List(ctx, ownerID, opts)
}

// Publish fans an event out to every active webhook and subscription whose
// event types match, across owners.
func (h *Hub) Publish(ctx context.Context, evt *event.Event) error {
	return h.bus.Publish(ctx, evt)
}

// ──────────────────────────────────────────────────
// Notifications
// ──────────────────────────────────────────────────

// SendNotification dispatches a notification to every recipient across the
// registered channels and reports the per-recipient outcome.
func (h *Hub) SendNotification(ctx context.Context, n *notify.Notification, ownerID string) (*notify.DeliverySummary, error) {
	summary, err := h.dispatcher.Dispatch(ctx, n)
	if err != nil {
		return nil, err
	}
	h.announce(ctx, event.TypeNotificationSent, ownerID, map[string]any{
		"notification_id": summary.NotificationID,
		"total":           summary.Total,
		"succeeded":       summary.Succeeded,
		"failed":          summary.Failed,
	})
	return summary, nil
}

// ──────────────────────────────────────────────────
// Accessors
// ──────────────────────────────────────────────────

// Integrations returns the integration management service.
func (h *Hub) Integrations() *integration.Service { return h.integrationSvc }

// Webhooks returns the webhook management service.
func (h *Hub) Webhooks() *webhook.Service { return h.webhookSvc }

// Templates returns the template service.
func (h *Hub) Templates() *template.Service { return h.templateSvc }

// DLQ returns the dead letter queue service.
func (h *Hub) DLQ() *dlq.Service { return h.dlqSvc }

// Bus returns the event bus.
func (h *Hub) Bus() *bus.Bus { return h.bus }

// Connectors returns the connector registry.
func (h *Hub) Connectors() *connector.Registry { return h.registry }

// Notifier returns the notification dispatcher.
func (h *Hub) Notifier() *notify.Dispatcher { return h.dispatcher }

// Store returns the underlying store.
func (h *Hub) Store() store.Store { return h.store }
