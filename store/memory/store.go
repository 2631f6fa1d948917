// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/gridhook/gridhook"
	"github.com/gridhook/gridhook/bus"
	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/dlq"
	"github.com/gridhook/gridhook/event"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/integration"
	hubstore "github.com/gridhook/gridhook/store"
	"github.com/gridhook/gridhook/template"
	"github.com/gridhook/gridhook/webhook"
)

// compile-time interface check.
var _ hubstore.Store = (*Store)(nil)

// Reads hand out detached copies and writes store detached copies, so a
// struct held by one caller is never mutated by another. Engine workers read
// webhooks while the service layer updates them concurrently.

func copyIntegration(in *integration.Integration) *integration.Integration {
	cp := *in
	cp.Config = maps.Clone(in.Config)
	return &cp
}

func copyWebhook(wh *webhook.Webhook) *webhook.Webhook {
	cp := *wh
	cp.EventTypes = slices.Clone(wh.EventTypes)
	cp.Headers = maps.Clone(wh.Headers)
	cp.Metadata = maps.Clone(wh.Metadata)
	return &cp
}

func copySubscription(sub *bus.Subscription) *bus.Subscription {
	cp := *sub
	cp.EventTypes = slices.Clone(sub.EventTypes)
	return &cp
}

func copyTemplate(tpl *template.Template) *template.Template {
	cp := *tpl
	cp.Variables = slices.Clone(tpl.Variables)
	return &cp
}

func copyDLQEntry(e *dlq.Entry) *dlq.Entry {
	cp := *e
	cp.Payload = maps.Clone(e.Payload)
	return &cp
}

// Store is an in-memory implementation of store.Store for testing.
type Store struct {
	mu sync.RWMutex

	integrations  map[string]*integration.Integration // keyed by ID string
	webhooks      map[string]*webhook.Webhook         // keyed by ID string
	deliveries    map[string]*delivery.Delivery       // keyed by ID string
	locked        map[string]bool                     // simulates SKIP LOCKED
	subscriptions map[string]*bus.Subscription        // keyed by ID string
	templates     map[string]*template.Template       // keyed by ID string
	dlqEntries    map[string]*dlq.Entry               // keyed by ID string

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		integrations:  make(map[string]*integration.Integration),
		webhooks:      make(map[string]*webhook.Webhook),
		deliveries:    make(map[string]*delivery.Delivery),
		locked:        make(map[string]bool),
		subscriptions: make(map[string]*bus.Subscription),
		templates:     make(map[string]*template.Template),
		dlqEntries:    make(map[string]*dlq.Entry),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Ping is a no-op for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return gridhook.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// integration.Store
// ──────────────────────────────────────────────────

// CreateIntegration persists a new integration.
func (s *Store) CreateIntegration(_ context.Context, in *integration.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.integrations[in.ID.String()] = copyIntegration(in)
	return nil
}

// GetIntegration returns an integration by ID, including soft-deleted ones.
func (s *Store) GetIntegration(_ context.Context, intgID id.ID) (*integration.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.integrations[intgID.String()]
	if !ok {
		return nil, gridhook.ErrIntegrationNotFound
	}
	return copyIntegration(in), nil
}

// UpdateIntegration modifies an existing integration.
func (s *Store) UpdateIntegration(_ context.Context, in *integration.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.integrations[in.ID.String()]; !ok {
		return gridhook.ErrIntegrationNotFound
	}
	in.UpdatedAt = time.Now().UTC()
	s.integrations[in.ID.String()] = copyIntegration(in)
	return nil
}

// DeleteIntegration soft-removes an integration.
func (s *Store) DeleteIntegration(_ context.Context, intgID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.integrations[intgID.String()]
	if !ok {
		return gridhook.ErrIntegrationNotFound
	}

	now := time.Now().UTC()
	in.DeletedAt = &now
	in.Status = integration.StatusInactive
	in.UpdatedAt = now
	return nil
}

// ListIntegrations returns non-deleted integrations for an owner.
func (s *Store) ListIntegrations(_ context.Context, ownerID string, opts integration.ListOpts) ([]*integration.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*integration.Integration, 0, len(s.integrations))
	for _, in := range s.integrations {
		if in.OwnerID != ownerID || in.DeletedAt != nil {
			continue
		}
		if opts.Type != "" && in.Type != opts.Type {
			continue
		}
		if opts.Status != "" && in.Status != opts.Status {
			continue
		}
		result = append(result, copyIntegration(in))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// SetIntegrationStatus updates the lifecycle status.
func (s *Store) SetIntegrationStatus(_ context.Context, intgID id.ID, status integration.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.integrations[intgID.String()]
	if !ok {
		return gridhook.ErrIntegrationNotFound
	}
	in.Status = status
	in.UpdatedAt = time.Now().UTC()
	return nil
}

// CountIntegrations returns total and active counts across all owners.
func (s *Store) CountIntegrations(_ context.Context) (total, active int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, in := range s.integrations {
		if in.DeletedAt != nil {
			continue
		}
		total++
		if in.Status == integration.StatusActive {
			active++
		}
	}
	return total, active, nil
}

// ──────────────────────────────────────────────────
// webhook.Store
// ──────────────────────────────────────────────────

// CountWebhooks returns total and active counts across all owners.
func (s *Store) CountWebhooks(_ context.Context) (total, active int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, wh := range s.webhooks {
		total++
		if wh.Active {
			active++
		}
	}
	return total, active, nil
}

// CreateWebhook persists a new webhook.
func (s *Store) CreateWebhook(_ context.Context, wh *webhook.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.webhooks[wh.ID.String()] = copyWebhook(wh)
	return nil
}

// GetWebhook returns a copy of the webhook by ID.
func (s *Store) GetWebhook(_ context.Context, whID id.ID) (*webhook.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wh, ok := s.webhooks[whID.String()]
	if !ok {
		return nil, gridhook.ErrWebhookNotFound
	}
	return copyWebhook(wh), nil
}

// UpdateWebhook modifies an existing webhook.
func (s *Store) UpdateWebhook(_ context.Context, wh *webhook.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.webhooks[wh.ID.String()]; !ok {
		return gridhook.ErrWebhookNotFound
	}
	wh.UpdatedAt = time.Now().UTC()
	s.webhooks[wh.ID.String()] = copyWebhook(wh)
	return nil
}

// DeleteWebhook removes a webhook and its non-terminal deliveries. Terminal
// delivery history is kept.
func (s *Store) DeleteWebhook(_ context.Context, whID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.webhooks[whID.String()]; !ok {
		return gridhook.ErrWebhookNotFound
	}
	delete(s.webhooks, whID.String())

	for k, d := range s.deliveries {
		if d.WebhookID.String() == whID.String() && !d.State.Terminal() {
			delete(s.deliveries, k)
			delete(s.locked, k)
		}
	}
	return nil
}

// ListWebhooks returns webhooks for an owner, optionally filtered.
func (s *Store) ListWebhooks(_ context.Context, ownerID string, opts webhook.ListOpts) ([]*webhook.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*webhook.Webhook, 0, len(s.webhooks))
	for _, wh := range s.webhooks {
		if wh.OwnerID != ownerID {
			continue
		}
		if opts.Active != nil && wh.Active != *opts.Active {
			continue
		}
		result = append(result, copyWebhook(wh))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// ResolveWebhooks finds all active webhooks subscribed to an event type,
// across owners.
func (s *Store) ResolveWebhooks(_ context.Context, eventType string) ([]*webhook.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*webhook.Webhook
	for _, wh := range s.webhooks {
		if !wh.Active {
			continue
		}
		if event.MatchAny(wh.EventTypes, eventType) {
			result = append(result, copyWebhook(wh))
		}
	}
	return result, nil
}

// SetWebhookActive enables or disables a webhook.
func (s *Store) SetWebhookActive(_ context.Context, whID id.ID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wh, ok := s.webhooks[whID.String()]
	if !ok {
		return gridhook.ErrWebhookNotFound
	}
	wh.Active = active
	wh.UpdatedAt = time.Now().UTC()
	return nil
}

// IncrDeliveryCounters atomically adjusts a webhook's delivery counters.
func (s *Store) IncrDeliveryCounters(_ context.Context, whID id.ID, success, failure int64, deliveredAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wh, ok := s.webhooks[whID.String()]
	if !ok {
		return gridhook.ErrWebhookNotFound
	}
	wh.SuccessCount += success
	wh.FailureCount += failure
	if deliveredAt != nil {
		wh.LastDeliveryAt = deliveredAt
	}
	wh.UpdatedAt = time.Now().UTC()
	return nil
}

// ──────────────────────────────────────────────────
// delivery.Store
// ──────────────────────────────────────────────────

// Enqueue creates a pending delivery.
func (s *Store) Enqueue(_ context.Context, d *delivery.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deliveries[d.ID.String()] = d
	return nil
}

// EnqueueBatch creates multiple deliveries atomically.
func (s *Store) EnqueueBatch(_ context.Context, ds []*delivery.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range ds {
		s.deliveries[d.ID.String()] = d
	}
	return nil
}

// copyDelivery returns a shallow copy of the delivery.
func copyDelivery(d *delivery.Delivery) *delivery.Delivery {
	cp := *d
	return &cp
}

// Dequeue fetches deliveries ready for attempt (concurrent-safe). Returns
// copies so callers can mutate without holding a lock.
func (s *Store) Dequeue(_ context.Context, limit int) ([]*delivery.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	candidates := make([]*delivery.Delivery, 0, len(s.deliveries))

	for _, d := range s.deliveries {
		if d.State != delivery.StatePending && d.State != delivery.StateRetrying {
			continue
		}
		if d.NextAttemptAt.After(now) {
			continue
		}
		if s.locked[d.ID.String()] {
			continue
		}
		candidates = append(candidates, d)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].NextAttemptAt.Before(candidates[j].NextAttemptAt)
	})

	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}

	result := make([]*delivery.Delivery, 0, len(candidates))
	for _, d := range candidates {
		s.locked[d.ID.String()] = true
		result = append(result, copyDelivery(d))
	}

	return result, nil
}

// UpdateDelivery modifies a delivery and releases its lock.
func (s *Store) UpdateDelivery(_ context.Context, d *delivery.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deliveries[d.ID.String()]; !ok {
		return gridhook.ErrDeliveryNotFound
	}
	d.UpdatedAt = time.Now().UTC()
	s.deliveries[d.ID.String()] = copyDelivery(d)
	delete(s.locked, d.ID.String())
	return nil
}

// GetDelivery returns a copy of the delivery by ID.
func (s *Store) GetDelivery(_ context.Context, delID id.ID) (*delivery.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deliveries[delID.String()]
	if !ok {
		return nil, gridhook.ErrDeliveryNotFound
	}
	return copyDelivery(d), nil
}

// ListByWebhook returns delivery history for a webhook, most-recent-first.
func (s *Store) ListByWebhook(_ context.Context, whID id.ID, opts delivery.ListOpts) ([]*delivery.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*delivery.Delivery, 0, len(s.deliveries))
	for _, d := range s.deliveries {
		if d.WebhookID.String() != whID.String() {
			continue
		}
		if opts.State != nil && d.State != *opts.State {
			continue
		}
		result = append(result, copyDelivery(d))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// CountPending returns the number of deliveries awaiting attempt.
func (s *Store) CountPending(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, d := range s.deliveries {
		if d.State == delivery.StatePending || d.State == delivery.StateRetrying {
			count++
		}
	}
	return count, nil
}

// CountByState returns delivery counts grouped by state.
func (s *Store) CountByState(_ context.Context) (map[delivery.State]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[delivery.State]int64)
	for _, d := range s.deliveries {
		counts[d.State]++
	}
	return counts, nil
}

// ──────────────────────────────────────────────────
// bus.Store
// ──────────────────────────────────────────────────

// CreateSubscription persists a new subscription.
func (s *Store) CreateSubscription(_ context.Context, sub *bus.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions[sub.ID.String()] = copySubscription(sub)
	return nil
}

// GetSubscription returns a subscription by ID.
func (s *Store) GetSubscription(_ context.Context, subID id.ID) (*bus.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[subID.String()]
	if !ok {
		return nil, gridhook.ErrSubscriptionNotFound
	}
	return copySubscription(sub), nil
}

// DeleteSubscription removes a subscription.
func (s *Store) DeleteSubscription(_ context.Context, subID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[subID.String()]; !ok {
		return gridhook.ErrSubscriptionNotFound
	}
	delete(s.subscriptions, subID.String())
	return nil
}

// ListSubscriptions returns subscriptions for an owner, optionally filtered.
func (s *Store) ListSubscriptions(_ context.Context, ownerID string, opts bus.ListOpts) ([]*bus.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*bus.Subscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		if sub.OwnerID != ownerID {
			continue
		}
		if opts.Active != nil && sub.Active != *opts.Active {
			continue
		}
		result = append(result, copySubscription(sub))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// CountSubscriptions returns the total subscription count.
func (s *Store) CountSubscriptions(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.subscriptions)), nil
}

// ──────────────────────────────────────────────────
// template.Store
// ──────────────────────────────────────────────────

// CreateTemplate persists a new template. Names are unique per owner.
func (s *Store) CreateTemplate(_ context.Context, tpl *template.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.templates {
		if existing.OwnerID == tpl.OwnerID && existing.Name == tpl.Name {
			return gridhook.ErrDuplicateTemplateName
		}
	}
	s.templates[tpl.ID.String()] = copyTemplate(tpl)
	return nil
}

// GetTemplate returns a template by ID.
func (s *Store) GetTemplate(_ context.Context, tplID id.ID) (*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[tplID.String()]
	if !ok {
		return nil, gridhook.ErrTemplateNotFound
	}
	return copyTemplate(tpl), nil
}

// GetTemplateByName returns an owner's template by name.
func (s *Store) GetTemplateByName(_ context.Context, ownerID, name string) (*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tpl := range s.templates {
		if tpl.OwnerID == ownerID && tpl.Name == name {
			return copyTemplate(tpl), nil
		}
	}
	return nil, gridhook.ErrTemplateNotFound
}

// UpdateTemplate modifies an existing template.
func (s *Store) UpdateTemplate(_ context.Context, tpl *template.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[tpl.ID.String()]; !ok {
		return gridhook.ErrTemplateNotFound
	}
	tpl.UpdatedAt = time.Now().UTC()
	s.templates[tpl.ID.String()] = copyTemplate(tpl)
	return nil
}

// DeleteTemplate removes a template.
func (s *Store) DeleteTemplate(_ context.Context, tplID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[tplID.String()]; !ok {
		return gridhook.ErrTemplateNotFound
	}
	delete(s.templates, tplID.String())
	return nil
}

// ListTemplates returns templates for an owner, optionally filtered.
func (s *Store) ListTemplates(_ context.Context, ownerID string, opts template.ListOpts) ([]*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*template.Template, 0, len(s.templates))
	for _, tpl := range s.templates {
		if tpl.OwnerID != ownerID {
			continue
		}
		if opts.Channel != "" && tpl.Channel != opts.Channel {
			continue
		}
		result = append(result, copyTemplate(tpl))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// ──────────────────────────────────────────────────
// dlq.Store
// ──────────────────────────────────────────────────

// Push moves a permanently failed delivery into the DLQ.
func (s *Store) Push(_ context.Context, entry *dlq.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dlqEntries[entry.ID.String()] = copyDLQEntry(entry)
	return nil
}

// ListDLQ returns DLQ entries, optionally filtered.
func (s *Store) ListDLQ(_ context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*dlq.Entry, 0, len(s.dlqEntries))
	for _, e := range s.dlqEntries {
		if opts.OwnerID != "" && e.OwnerID != opts.OwnerID {
			continue
		}
		if opts.WebhookID != nil && e.WebhookID.String() != opts.WebhookID.String() {
			continue
		}
		if opts.From != nil && e.FailedAt.Before(*opts.From) {
			continue
		}
		if opts.To != nil && e.FailedAt.After(*opts.To) {
			continue
		}
		result = append(result, copyDLQEntry(e))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].FailedAt.After(result[j].FailedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// GetDLQ returns a DLQ entry by ID.
func (s *Store) GetDLQ(_ context.Context, dlqID id.ID) (*dlq.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.dlqEntries[dlqID.String()]
	if !ok {
		return nil, gridhook.ErrDLQNotFound
	}
	return copyDLQEntry(e), nil
}

// Replay marks a DLQ entry as replayed and re-enqueues a fresh delivery.
func (s *Store) Replay(_ context.Context, dlqID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.dlqEntries[dlqID.String()]
	if !ok {
		return gridhook.ErrDLQNotFound
	}

	now := time.Now().UTC()
	e.ReplayedAt = &now

	d := s.replayDelivery(e, now)
	s.deliveries[d.ID.String()] = d
	return nil
}

// ReplayBulk replays all unreplayed DLQ entries in a time window.
func (s *Store) ReplayBulk(_ context.Context, from, to time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var count int64

	for _, e := range s.dlqEntries {
		if e.FailedAt.Before(from) || e.FailedAt.After(to) {
			continue
		}
		if e.ReplayedAt != nil {
			continue
		}

		e.ReplayedAt = &now
		d := s.replayDelivery(e, now)
		s.deliveries[d.ID.String()] = d
		count++
	}
	return count, nil
}

// Purge deletes DLQ entries that failed before the threshold.
func (s *Store) Purge(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for k, e := range s.dlqEntries {
		if e.FailedAt.Before(before) {
			delete(s.dlqEntries, k)
			count++
		}
	}
	return count, nil
}

// CountDLQ returns the total number of DLQ entries.
func (s *Store) CountDLQ(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.dlqEntries)), nil
}

// replayDelivery builds a fresh pending delivery for a DLQ entry. Callers
// hold the write lock.
func (s *Store) replayDelivery(e *dlq.Entry, now time.Time) *delivery.Delivery {
	maxAttempts := webhook.DefaultRetryPolicy().MaxRetries + 1
	if wh, ok := s.webhooks[e.WebhookID.String()]; ok {
		maxAttempts = wh.RetryPolicy.MaxRetries + 1
	}

	return &delivery.Delivery{
		Entity:        gridhook.NewEntity(),
		ID:            id.NewDeliveryID(),
		WebhookID:     e.WebhookID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		Payload:       e.Payload,
		State:         delivery.StatePending,
		MaxAttempts:   maxAttempts,
		NextAttemptAt: now,
	}
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) && offset > 0 {
		return nil
	}

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
