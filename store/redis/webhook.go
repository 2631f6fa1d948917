package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gridhook/gridhook"
	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/event"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
	"github.com/gridhook/gridhook/webhook"
)

// webhookModel is the JSON representation stored in Redis. It persists the
// signing secret, which the domain type never serializes. Delivery counters
// live in a separate hash so concurrent increments never lose updates; they
// are overlaid on reads.
type webhookModel struct {
	ID              string              `json:"id"`
	OwnerID         string              `json:"owner_id"`
	URL             string              `json:"url"`
	Description     string              `json:"description,omitempty"`
	Secret          string              `json:"secret"`
	EventTypes      []string            `json:"event_types"`
	Headers         map[string]string   `json:"headers,omitempty"`
	PayloadTemplate string              `json:"payload_template,omitempty"`
	RetryPolicy     webhook.RetryPolicy `json:"retry_policy"`
	Active          bool                `json:"active"`
	Metadata        map[string]string   `json:"metadata,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toWebhookModel(wh *webhook.Webhook) *webhookModel {
	return &webhookModel{
		ID:              wh.ID.String(),
		OwnerID:         wh.OwnerID,
		URL:             wh.URL,
		Description:     wh.Description,
		Secret:          wh.Secret,
		EventTypes:      wh.EventTypes,
		Headers:         wh.Headers,
		PayloadTemplate: wh.PayloadTemplate,
		RetryPolicy:     wh.RetryPolicy,
		Active:          wh.Active,
		Metadata:        wh.Metadata,
		CreatedAt:       wh.CreatedAt,
		UpdatedAt:       wh.UpdatedAt,
	}
}

func fromWebhookModel(m *webhookModel) (*webhook.Webhook, error) {
	whID, err := id.ParseWebhookID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.ID, err)
	}
	return &webhook.Webhook{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              whID,
		OwnerID:         m.OwnerID,
		URL:             m.URL,
		Description:     m.Description,
		Secret:          m.Secret,
		EventTypes:      m.EventTypes,
		Headers:         m.Headers,
		PayloadTemplate: m.PayloadTemplate,
		RetryPolicy:     m.RetryPolicy,
		Active:          m.Active,
		Metadata:        m.Metadata,
	}, nil
}

// counter hash fields.
const (
	fieldSuccess        = "success"
	fieldFailure        = "failure"
	fieldLastDeliveryAt = "last_delivery_at" // RFC 3339
)

// loadWebhook fetches a webhook and overlays its counter hash.
func (s *Store) loadWebhook(ctx context.Context, whID string) (*webhook.Webhook, error) {
	var m webhookModel
	if err := s.getEntity(ctx, entityKey(prefixWebhook, whID), &m); err != nil {
		if isRedisNil(err) {
			return nil, gridhook.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("gridhook/redis: get webhook: %w", err)
	}

	wh, err := fromWebhookModel(&m)
	if err != nil {
		return nil, err
	}

	counters, err := s.rdb.HGetAll(ctx, hWebhookCounters+whID).Result()
	if err != nil && !isRedisNil(err) {
		return nil, fmt.Errorf("gridhook/redis: get webhook counters: %w", err)
	}
	if v, ok := counters[fieldSuccess]; ok {
		wh.SuccessCount, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := counters[fieldFailure]; ok {
		wh.FailureCount, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := counters[fieldLastDeliveryAt]; ok {
		if ts, perr := time.Parse(time.RFC3339Nano, v); perr == nil {
			wh.LastDeliveryAt = &ts
		}
	}
	return wh, nil
}

func (s *Store) CreateWebhook(ctx context.Context, wh *webhook.Webhook) error {
	m := toWebhookModel(wh)
	key := entityKey(prefixWebhook, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("gridhook/redis: create webhook: %w", err)
	}
	if err := s.rdb.ZAdd(ctx, zWebhookOwner+m.OwnerID, goredis.Z{
		Score: scoreFromTime(m.CreatedAt), Member: m.ID,
	}).Err(); err != nil {
		return fmt.Errorf("gridhook/redis: create webhook index: %w", err)
	}
	return nil
}

func (s *Store) GetWebhook(ctx context.Context, whID id.ID) (*webhook.Webhook, error) {
	return s.loadWebhook(ctx, whID.String())
}

func (s *Store) UpdateWebhook(ctx context.Context, wh *webhook.Webhook) error {
	key := entityKey(prefixWebhook, wh.ID.String())
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("gridhook/redis: update webhook: %w", err)
	}
	if exists == 0 {
		return gridhook.ErrWebhookNotFound
	}

	wh.UpdatedAt = now()
	return s.setEntity(ctx, key, toWebhookModel(wh))
}

func (s *Store) DeleteWebhook(ctx context.Context, whID id.ID) error {
	wh, err := s.loadWebhook(ctx, whID.String())
	if err != nil {
		return err
	}

	// Remove the webhook's non-terminal deliveries; terminal history stays.
	delIDs, err := s.rdb.ZRange(ctx, zDeliveryWebhook+whID.String(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("gridhook/redis: delete webhook deliveries: %w", err)
	}
	for _, delID := range delIDs {
		var m deliveryModel
		if err := s.getEntity(ctx, entityKey(prefixDelivery, delID), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return err
		}
		if delivery.State(m.State).Terminal() {
			continue
		}
		pipe := s.rdb.Pipeline()
		pipe.Del(ctx, entityKey(prefixDelivery, delID))
		pipe.ZRem(ctx, zDeliveryDue, delID)
		pipe.ZRem(ctx, zDeliveryWebhook+whID.String(), delID)
		pipe.HIncrBy(ctx, hDeliveryStates, m.State, -1)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("gridhook/redis: delete webhook delivery: %w", err)
		}
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, entityKey(prefixWebhook, whID.String()))
	pipe.Del(ctx, hWebhookCounters+whID.String())
	pipe.ZRem(ctx, zWebhookOwner+wh.OwnerID, whID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("gridhook/redis: delete webhook: %w", err)
	}
	return nil
}

func (s *Store) ListWebhooks(ctx context.Context, ownerID string, opts webhook.ListOpts) ([]*webhook.Webhook, error) {
	ids, err := s.rdb.ZRange(ctx, zWebhookOwner+ownerID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("gridhook/redis: list webhooks: %w", err)
	}

	result := make([]*webhook.Webhook, 0, len(ids))
	for _, whID := range ids {
		wh, err := s.loadWebhook(ctx, whID)
		if err != nil {
			if err == gridhook.ErrWebhookNotFound {
				continue
			}
			return nil, err
		}
		if opts.Active != nil && wh.Active != *opts.Active {
			continue
		}
		result = append(result, wh)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

// ResolveWebhooks scans every stored webhook and keeps the active ones whose
// event type set matches, across owners.
func (s *Store) ResolveWebhooks(ctx context.Context, eventType string) ([]*webhook.Webhook, error) {
	var result []*webhook.Webhook

	iter := s.rdb.Scan(ctx, 0, prefixWebhook+"*", 0).Iterator()
	for iter.Next(ctx) {
		var m webhookModel
		if err := s.getEntity(ctx, iter.Val(), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, fmt.Errorf("gridhook/redis: resolve webhooks: %w", err)
		}
		if !m.Active {
			continue
		}
		if !event.MatchAny(m.EventTypes, eventType) {
			continue
		}
		wh, err := fromWebhookModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, wh)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("gridhook/redis: resolve webhooks scan: %w", err)
	}
	return result, nil
}

func (s *Store) SetWebhookActive(ctx context.Context, whID id.ID, active bool) error {
	wh, err := s.loadWebhook(ctx, whID.String())
	if err != nil {
		return err
	}
	wh.Active = active
	wh.UpdatedAt = now()
	return s.setEntity(ctx, entityKey(prefixWebhook, whID.String()), toWebhookModel(wh))
}

// IncrDeliveryCounters uses a hash per webhook so concurrent increments are
// atomic on the server side.
func (s *Store) CountWebhooks(ctx context.Context) (total, active int64, err error) {
	// Health reporting path; SCAN is acceptable here.
	iter := s.rdb.Scan(ctx, 0, prefixWebhook+"*", 0).Iterator()
	for iter.Next(ctx) {
		var m webhookModel
		if err := s.getEntity(ctx, iter.Val(), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return 0, 0, err
		}
		total++
		if m.Active {
			active++
		}
	}
	if err := iter.Err(); err != nil {
		return 0, 0, fmt.Errorf("gridhook/redis: count webhooks: %w", err)
	}
	return total, active, nil
}

func (s *Store) IncrDeliveryCounters(ctx context.Context, whID id.ID, success, failure int64, deliveredAt *time.Time) error {
	key := hWebhookCounters + whID.String()

	pipe := s.rdb.Pipeline()
	if success != 0 {
		pipe.HIncrBy(ctx, key, fieldSuccess, success)
	}
	if failure != 0 {
		pipe.HIncrBy(ctx, key, fieldFailure, failure)
	}
	if deliveredAt != nil {
		pipe.HSet(ctx, key, fieldLastDeliveryAt, deliveredAt.UTC().Format(time.RFC3339Nano))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("gridhook/redis: incr delivery counters: %w", err)
	}
	return nil
}
