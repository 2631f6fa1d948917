package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gridhook/gridhook"
	"github.com/gridhook/gridhook/bus"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
)

// subscriptionModel is the JSON representation stored in Redis.
type subscriptionModel struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	EventTypes []string  `json:"event_types"`
	Endpoint   string    `json:"endpoint"`
	Active     bool      `json:"active"`
	WebhookID  string    `json:"webhook_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toSubscriptionModel(sub *bus.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:         sub.ID.String(),
		OwnerID:    sub.OwnerID,
		EventTypes: sub.EventTypes,
		Endpoint:   sub.Endpoint,
		Active:     sub.Active,
		WebhookID:  sub.WebhookID.String(),
		CreatedAt:  sub.CreatedAt,
		UpdatedAt:  sub.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*bus.Subscription, error) {
	subID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse subscription ID %q: %w", m.ID, err)
	}
	whID, err := id.ParseWebhookID(m.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.WebhookID, err)
	}
	return &bus.Subscription{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         subID,
		OwnerID:    m.OwnerID,
		EventTypes: m.EventTypes,
		Endpoint:   m.Endpoint,
		Active:     m.Active,
		WebhookID:  whID,
	}, nil
}

func (s *Store) CreateSubscription(ctx context.Context, sub *bus.Subscription) error {
	m := toSubscriptionModel(sub)
	key := entityKey(prefixSubscription, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("gridhook/redis: create subscription: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zSubscriptionOwn+m.OwnerID, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID})
	pipe.Incr(ctx, hSubscriptionCnt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("gridhook/redis: create subscription index: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.ID) (*bus.Subscription, error) {
	var m subscriptionModel
	if err := s.getEntity(ctx, entityKey(prefixSubscription, subID.String()), &m); err != nil {
		if isRedisNil(err) {
			return nil, gridhook.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("gridhook/redis: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) DeleteSubscription(ctx context.Context, subID id.ID) error {
	sub, err := s.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, entityKey(prefixSubscription, subID.String()))
	pipe.ZRem(ctx, zSubscriptionOwn+sub.OwnerID, subID.String())
	pipe.Decr(ctx, hSubscriptionCnt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("gridhook/redis: delete subscription: %w", err)
	}
	return nil
}

func (s *Store) ListSubscriptions(ctx context.Context, ownerID string, opts bus.ListOpts) ([]*bus.Subscription, error) {
	ids, err := s.rdb.ZRange(ctx, zSubscriptionOwn+ownerID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("gridhook/redis: list subscriptions: %w", err)
	}

	result := make([]*bus.Subscription, 0, len(ids))
	for _, subID := range ids {
		var m subscriptionModel
		if err := s.getEntity(ctx, entityKey(prefixSubscription, subID), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, err
		}
		if opts.Active != nil && m.Active != *opts.Active {
			continue
		}
		sub, err := fromSubscriptionModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountSubscriptions(ctx context.Context) (int64, error) {
	n, err := s.rdb.Get(ctx, hSubscriptionCnt).Int64()
	if err != nil {
		if isRedisNil(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("gridhook/redis: count subscriptions: %w", err)
	}
	return n, nil
}
