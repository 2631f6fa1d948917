package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gridhook/gridhook"
	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
)

// deliveryModel is the JSON representation stored in Redis.
type deliveryModel struct {
	ID             string         `json:"id"`
	WebhookID      string         `json:"webhook_id"`
	EventID        string         `json:"event_id,omitempty"`
	EventType      string         `json:"event_type"`
	Payload        map[string]any `json:"payload"`
	State          string         `json:"state"`
	AttemptCount   int            `json:"attempt_count"`
	MaxAttempts    int            `json:"max_attempts"`
	NextAttemptAt  time.Time      `json:"next_attempt_at"`
	LastError      string         `json:"last_error,omitempty"`
	LastStatusCode int            `json:"last_status_code,omitempty"`
	LastResponse   string         `json:"last_response,omitempty"`
	LastLatencyMs  int            `json:"last_latency_ms,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func toDeliveryModel(d *delivery.Delivery) *deliveryModel {
	m := &deliveryModel{
		ID:             d.ID.String(),
		WebhookID:      d.WebhookID.String(),
		EventType:      d.EventType,
		Payload:        d.Payload,
		State:          string(d.State),
		AttemptCount:   d.AttemptCount,
		MaxAttempts:    d.MaxAttempts,
		NextAttemptAt:  d.NextAttemptAt,
		LastError:      d.LastError,
		LastStatusCode: d.LastStatusCode,
		LastResponse:   d.LastResponse,
		LastLatencyMs:  d.LastLatencyMs,
		CompletedAt:    d.CompletedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if !d.EventID.IsNil() {
		m.EventID = d.EventID.String()
	}
	return m
}

func fromDeliveryModel(m *deliveryModel) (*delivery.Delivery, error) {
	delID, err := id.ParseDeliveryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse delivery ID %q: %w", m.ID, err)
	}
	whID, err := id.ParseWebhookID(m.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.WebhookID, err)
	}

	d := &delivery.Delivery{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             delID,
		WebhookID:      whID,
		EventType:      m.EventType,
		Payload:        m.Payload,
		State:          delivery.State(m.State),
		AttemptCount:   m.AttemptCount,
		MaxAttempts:    m.MaxAttempts,
		NextAttemptAt:  m.NextAttemptAt,
		LastError:      m.LastError,
		LastStatusCode: m.LastStatusCode,
		LastResponse:   m.LastResponse,
		LastLatencyMs:  m.LastLatencyMs,
		CompletedAt:    m.CompletedAt,
	}
	if m.EventID != "" {
		evtID, err := id.ParseEventID(m.EventID)
		if err != nil {
			return nil, fmt.Errorf("parse event ID %q: %w", m.EventID, err)
		}
		d.EventID = evtID
	}
	return d, nil
}

// dequeueScript atomically claims due deliveries from the sorted set so two
// engines never attempt the same delivery.
// KEYS[1] = gridhook:z:del:due
// ARGV[1] = current unix timestamp (score threshold)
// ARGV[2] = limit
var dequeueScript = goredis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
if #ids == 0 then return {} end
for i, id in ipairs(ids) do
    redis.call('ZREM', KEYS[1], id)
end
return ids
`)

func (s *Store) Enqueue(ctx context.Context, d *delivery.Delivery) error {
	m := toDeliveryModel(d)
	key := entityKey(prefixDelivery, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("gridhook/redis: enqueue delivery: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zDeliveryDue, goredis.Z{Score: scoreFromTime(m.NextAttemptAt), Member: m.ID})
	pipe.ZAdd(ctx, zDeliveryWebhook+m.WebhookID, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID})
	pipe.HIncrBy(ctx, hDeliveryStates, m.State, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("gridhook/redis: enqueue delivery indexes: %w", err)
	}
	return nil
}

func (s *Store) EnqueueBatch(ctx context.Context, ds []*delivery.Delivery) error {
	if len(ds) == 0 {
		return nil
	}

	pipe := s.rdb.Pipeline()
	for _, d := range ds {
		m := toDeliveryModel(d)
		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("gridhook/redis: enqueue batch marshal: %w", err)
		}
		pipe.Set(ctx, entityKey(prefixDelivery, m.ID), raw, 0)
		pipe.ZAdd(ctx, zDeliveryDue, goredis.Z{Score: scoreFromTime(m.NextAttemptAt), Member: m.ID})
		pipe.ZAdd(ctx, zDeliveryWebhook+m.WebhookID, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID})
		pipe.HIncrBy(ctx, hDeliveryStates, m.State, 1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("gridhook/redis: enqueue batch: %w", err)
	}
	return nil
}

func (s *Store) Dequeue(ctx context.Context, limit int) ([]*delivery.Delivery, error) {
	nowScore := fmt.Sprintf("%f", scoreFromTime(now()))
	claimed, err := dequeueScript.Run(ctx, s.rdb, []string{zDeliveryDue}, nowScore, limit).StringSlice()
	if err != nil {
		if isRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("gridhook/redis: dequeue script: %w", err)
	}
	if len(claimed) == 0 {
		return nil, nil
	}

	deliveries := make([]*delivery.Delivery, 0, len(claimed))
	for _, delID := range claimed {
		var m deliveryModel
		if err := s.getEntity(ctx, entityKey(prefixDelivery, delID), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, fmt.Errorf("gridhook/redis: dequeue get: %w", err)
		}

		d, err := fromDeliveryModel(&m)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}

	return deliveries, nil
}

func (s *Store) UpdateDelivery(ctx context.Context, d *delivery.Delivery) error {
	key := entityKey(prefixDelivery, d.ID.String())

	// Read the previous state to keep the per-state counts accurate.
	var prev deliveryModel
	prevState := ""
	if err := s.getEntity(ctx, key, &prev); err != nil {
		if isRedisNil(err) {
			return gridhook.ErrDeliveryNotFound
		}
		return fmt.Errorf("gridhook/redis: update delivery: %w", err)
	}
	prevState = prev.State

	d.UpdatedAt = now()
	m := toDeliveryModel(d)
	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("gridhook/redis: update delivery: %w", err)
	}

	pipe := s.rdb.Pipeline()
	if prevState != m.State {
		pipe.HIncrBy(ctx, hDeliveryStates, prevState, -1)
		pipe.HIncrBy(ctx, hDeliveryStates, m.State, 1)
	}
	// Deliveries awaiting another attempt go back on the due set.
	if !d.State.Terminal() {
		pipe.ZAdd(ctx, zDeliveryDue, goredis.Z{Score: scoreFromTime(m.NextAttemptAt), Member: m.ID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("gridhook/redis: update delivery indexes: %w", err)
	}
	return nil
}

func (s *Store) GetDelivery(ctx context.Context, delID id.ID) (*delivery.Delivery, error) {
	var m deliveryModel
	if err := s.getEntity(ctx, entityKey(prefixDelivery, delID.String()), &m); err != nil {
		if isRedisNil(err) {
			return nil, gridhook.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("gridhook/redis: get delivery: %w", err)
	}
	return fromDeliveryModel(&m)
}

func (s *Store) ListByWebhook(ctx context.Context, whID id.ID, opts delivery.ListOpts) ([]*delivery.Delivery, error) {
	ids, err := s.rdb.ZRange(ctx, zDeliveryWebhook+whID.String(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("gridhook/redis: list by webhook: %w", err)
	}

	result := make([]*delivery.Delivery, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- { // reverse for most-recent-first
		var m deliveryModel
		if err := s.getEntity(ctx, entityKey(prefixDelivery, ids[i]), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, err
		}
		if opts.State != nil && delivery.State(m.State) != *opts.State {
			continue
		}
		d, err := fromDeliveryModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountPending(ctx context.Context) (int64, error) {
	counts, err := s.CountByState(ctx)
	if err != nil {
		return 0, err
	}
	return counts[delivery.StatePending] + counts[delivery.StateRetrying], nil
}

func (s *Store) CountByState(ctx context.Context) (map[delivery.State]int64, error) {
	fields, err := s.rdb.HGetAll(ctx, hDeliveryStates).Result()
	if err != nil {
		return nil, fmt.Errorf("gridhook/redis: count by state: %w", err)
	}

	counts := make(map[delivery.State]int64, len(fields))
	for state, v := range fields {
		var n int64
		fmt.Sscan(v, &n)
		if n > 0 {
			counts[delivery.State(state)] = n
		}
	}
	return counts, nil
}
