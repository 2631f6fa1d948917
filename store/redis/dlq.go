package redis

import (
	"context"
	"fmt"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gridhook/gridhook"
	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/dlq"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
	"github.com/gridhook/gridhook/webhook"
)

// dlqEntryModel is the JSON representation stored in Redis.
type dlqEntryModel struct {
	ID             string         `json:"id"`
	DeliveryID     string         `json:"delivery_id"`
	WebhookID      string         `json:"webhook_id"`
	EventID        string         `json:"event_id,omitempty"`
	OwnerID        string         `json:"owner_id"`
	EventType      string         `json:"event_type"`
	URL            string         `json:"url"`
	Payload        map[string]any `json:"payload,omitempty"`
	Error          string         `json:"error"`
	AttemptCount   int            `json:"attempt_count"`
	LastStatusCode int            `json:"last_status_code,omitempty"`
	ReplayedAt     *time.Time     `json:"replayed_at,omitempty"`
	FailedAt       time.Time      `json:"failed_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func toDLQEntryModel(e *dlq.Entry) *dlqEntryModel {
	m := &dlqEntryModel{
		ID:             e.ID.String(),
		DeliveryID:     e.DeliveryID.String(),
		WebhookID:      e.WebhookID.String(),
		OwnerID:        e.OwnerID,
		EventType:      e.EventType,
		URL:            e.URL,
		Payload:        e.Payload,
		Error:          e.Error,
		AttemptCount:   e.AttemptCount,
		LastStatusCode: e.LastStatusCode,
		ReplayedAt:     e.ReplayedAt,
		FailedAt:       e.FailedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	if !e.EventID.IsNil() {
		m.EventID = e.EventID.String()
	}
	return m
}

func fromDLQEntryModel(m *dlqEntryModel) (*dlq.Entry, error) {
	dlqID, err := id.ParseDLQID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse DLQ ID %q: %w", m.ID, err)
	}
	delID, err := id.ParseDeliveryID(m.DeliveryID)
	if err != nil {
		return nil, fmt.Errorf("parse delivery ID %q: %w", m.DeliveryID, err)
	}
	whID, err := id.ParseWebhookID(m.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.WebhookID, err)
	}

	e := &dlq.Entry{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             dlqID,
		DeliveryID:     delID,
		WebhookID:      whID,
		OwnerID:        m.OwnerID,
		EventType:      m.EventType,
		URL:            m.URL,
		Payload:        m.Payload,
		Error:          m.Error,
		AttemptCount:   m.AttemptCount,
		LastStatusCode: m.LastStatusCode,
		ReplayedAt:     m.ReplayedAt,
		FailedAt:       m.FailedAt,
	}
	if m.EventID != "" {
		evtID, err := id.ParseEventID(m.EventID)
		if err != nil {
			return nil, fmt.Errorf("parse event ID %q: %w", m.EventID, err)
		}
		e.EventID = evtID
	}
	return e, nil
}

func (s *Store) Push(ctx context.Context, entry *dlq.Entry) error {
	m := toDLQEntryModel(entry)
	key := entityKey(prefixDLQ, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("gridhook/redis: push dlq: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zDLQAll, goredis.Z{Score: scoreFromTime(m.FailedAt), Member: m.ID})
	if m.OwnerID != "" {
		pipe.ZAdd(ctx, zDLQOwner+m.OwnerID, goredis.Z{Score: scoreFromTime(m.FailedAt), Member: m.ID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("gridhook/redis: push dlq indexes: %w", err)
	}
	return nil
}

func (s *Store) ListDLQ(ctx context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	zKey := zDLQAll
	if opts.OwnerID != "" {
		zKey = zDLQOwner + opts.OwnerID
	}

	minScore := math.Inf(-1)
	maxScore := math.Inf(1)
	if opts.From != nil {
		minScore = scoreFromTime(*opts.From)
	}
	if opts.To != nil {
		maxScore = scoreFromTime(*opts.To)
	}

	ids, err := s.zRangeByScoreIDs(ctx, zKey, minScore, maxScore)
	if err != nil {
		return nil, fmt.Errorf("gridhook/redis: list dlq: %w", err)
	}

	result := make([]*dlq.Entry, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- { // reverse for most-recent-first
		var m dlqEntryModel
		if err := s.getEntity(ctx, entityKey(prefixDLQ, ids[i]), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, err
		}
		if opts.WebhookID != nil && m.WebhookID != opts.WebhookID.String() {
			continue
		}
		entry, err := fromDLQEntryModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

func (s *Store) GetDLQ(ctx context.Context, dlqID id.ID) (*dlq.Entry, error) {
	var m dlqEntryModel
	if err := s.getEntity(ctx, entityKey(prefixDLQ, dlqID.String()), &m); err != nil {
		if isRedisNil(err) {
			return nil, gridhook.ErrDLQNotFound
		}
		return nil, fmt.Errorf("gridhook/redis: get dlq: %w", err)
	}
	return fromDLQEntryModel(&m)
}

func (s *Store) Replay(ctx context.Context, dlqID id.ID) error {
	entry, err := s.GetDLQ(ctx, dlqID)
	if err != nil {
		return err
	}

	if err := s.Enqueue(ctx, s.replayDelivery(ctx, entry)); err != nil {
		return err
	}

	ts := now()
	entry.ReplayedAt = &ts
	entry.UpdatedAt = ts
	return s.setEntity(ctx, entityKey(prefixDLQ, dlqID.String()), toDLQEntryModel(entry))
}

func (s *Store) ReplayBulk(ctx context.Context, from, to time.Time) (int64, error) {
	ids, err := s.zRangeByScoreIDs(ctx, zDLQAll, scoreFromTime(from), scoreFromTime(to))
	if err != nil {
		return 0, fmt.Errorf("gridhook/redis: replay bulk list: %w", err)
	}

	var count int64
	for _, entryID := range ids {
		var m dlqEntryModel
		if err := s.getEntity(ctx, entityKey(prefixDLQ, entryID), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return count, err
		}
		if m.ReplayedAt != nil {
			continue
		}

		entry, err := fromDLQEntryModel(&m)
		if err != nil {
			return count, err
		}

		if err := s.Enqueue(ctx, s.replayDelivery(ctx, entry)); err != nil {
			return count, err
		}

		ts := now()
		entry.ReplayedAt = &ts
		entry.UpdatedAt = ts
		if err := s.setEntity(ctx, entityKey(prefixDLQ, entryID), toDLQEntryModel(entry)); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	ids, err := s.zRangeByScoreIDs(ctx, zDLQAll, math.Inf(-1), scoreFromTime(before))
	if err != nil {
		return 0, fmt.Errorf("gridhook/redis: purge list: %w", err)
	}

	var count int64
	for _, entryID := range ids {
		var m dlqEntryModel
		if err := s.getEntity(ctx, entityKey(prefixDLQ, entryID), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return count, err
		}

		pipe := s.rdb.Pipeline()
		pipe.Del(ctx, entityKey(prefixDLQ, entryID))
		pipe.ZRem(ctx, zDLQAll, entryID)
		if m.OwnerID != "" {
			pipe.ZRem(ctx, zDLQOwner+m.OwnerID, entryID)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func (s *Store) CountDLQ(ctx context.Context) (int64, error) {
	count, err := s.rdb.ZCard(ctx, zDLQAll).Result()
	if err != nil {
		return 0, fmt.Errorf("gridhook/redis: count dlq: %w", err)
	}
	return count, nil
}

// replayDelivery builds a fresh pending delivery for a DLQ entry, using the
// webhook's retry policy when the webhook still exists.
func (s *Store) replayDelivery(ctx context.Context, entry *dlq.Entry) *delivery.Delivery {
	maxAttempts := webhook.DefaultRetryPolicy().MaxRetries + 1
	if wh, err := s.loadWebhook(ctx, entry.WebhookID.String()); err == nil {
		maxAttempts = wh.RetryPolicy.MaxRetries + 1
	}

	return &delivery.Delivery{
		Entity:        gridhook.NewEntity(),
		ID:            id.NewDeliveryID(),
		WebhookID:     entry.WebhookID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		Payload:       entry.Payload,
		State:         delivery.StatePending,
		MaxAttempts:   maxAttempts,
		NextAttemptAt: now(),
	}
}
