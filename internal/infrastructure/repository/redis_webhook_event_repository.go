package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	redisEventKeyPrefix = "webhook_event:"
	redisShopKeyPrefix  = "webhook_events:shop:"
	redisUpdateAttempts = 5
	redisListBatchSize  = 100
)

// RedisWebhookEventRepository implements WebhookEventRepository on Redis.
// Create uses SETNX on the event key; Update runs in a WATCH/MULTI transaction
// on the same key so a delivery is finalized at most once.
type RedisWebhookEventRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisWebhookEventRepository creates a Redis backed dedup ledger.
// A zero ttl keeps entries forever.
func NewRedisWebhookEventRepository(client *redis.Client, ttl time.Duration) *RedisWebhookEventRepository {
	return &RedisWebhookEventRepository{
		client: client,
		ttl:    ttl,
	}
}

var _ ports.WebhookEventRepository = (*RedisWebhookEventRepository)(nil)

func eventKey(id string) string {
	return redisEventKeyPrefix + id
}

func shopIndexKey(shop string) string {
	return redisShopKeyPrefix + shop
}

// Get retrieves a webhook event by its dedup id
func (r *RedisWebhookEventRepository) Get(ctx context.Context, id string) (*domain.WebhookEvent, error) {
	data, err := r.client.Get(ctx, eventKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	var event domain.WebhookEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}
	return &event, nil
}

// Create inserts a webhook event unless the id is already taken
func (r *RedisWebhookEventRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode webhook event: %w", err)
	}

	created, err := r.client.SetNX(ctx, eventKey(event.ID), payload, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create webhook event: %w", err)
	}
	if !created {
		return domain.ErrDuplicateWebhook
	}

	// The shop index lives as long as its newest event; members older than the
	// ttl point at expired keys and are pruned on every insert.
	indexKey := shopIndexKey(event.Shop)
	member := redis.Z{Score: float64(event.CreatedAt.UnixMilli()), Member: event.ID}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, indexKey, member)
		if r.ttl > 0 {
			cutoff := time.Now().Add(-r.ttl).UnixMilli()
			pipe.ZRemRangeByScore(ctx, indexKey, "-inf", fmt.Sprintf("(%d", cutoff))
			pipe.Expire(ctx, indexKey, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index webhook event: %w", err)
	}
	return nil
}

// Update finalizes a processing webhook event
func (r *RedisWebhookEventRepository) Update(ctx context.Context, id string, update domain.WebhookEventUpdate) error {
	key := eventKey(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrWebhookNotFound
		}
		if err != nil {
			return err
		}

		var event domain.WebhookEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("failed to decode webhook event: %w", err)
		}
		if event.Status != domain.WebhookStatusProcessing {
			return domain.ErrAlreadyFinalized
		}

		now := time.Now()
		event.Status = update.Status
		event.OrderID = update.OrderID
		event.ErrorMessage = update.ErrorMessage
		event.UpdatedAt = now
		event.ProcessedAt = &now

		payload, err := json.Marshal(&event)
		if err != nil {
			return fmt.Errorf("failed to encode webhook event: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, redis.KeepTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, domain.ErrWebhookNotFound) || errors.Is(err, domain.ErrAlreadyFinalized) {
				return err
			}
			return fmt.Errorf("failed to update webhook event: %w", err)
		}
		return nil
	}

	return fmt.Errorf("failed to update webhook event %s: too many concurrent writers", id)
}

// ListByShop retrieves the newest webhook events of a shop. Index entries
// whose event has expired are removed from the index and do not count
// against the limit.
func (r *RedisWebhookEventRepository) ListByShop(ctx context.Context, shop string, limit int) ([]*domain.WebhookEvent, error) {
	indexKey := shopIndexKey(shop)
	events := []*domain.WebhookEvent{}

	offset := int64(0)
	for limit <= 0 || len(events) < limit {
		batch := redisListBatchSize
		if limit > 0 {
			batch = limit - len(events)
		}

		ids, err := r.client.ZRevRange(ctx, indexKey, offset, offset+int64(batch)-1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list webhook events: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = eventKey(id)
		}

		values, err := r.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load webhook events: %w", err)
		}

		var stale []interface{}
		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				stale = append(stale, ids[i])
				continue
			}
			var event domain.WebhookEvent
			if err := json.Unmarshal([]byte(raw), &event); err != nil {
				return nil, fmt.Errorf("failed to decode webhook event: %w", err)
			}
			events = append(events, &event)
		}

		if len(stale) > 0 {
			if err := r.client.ZRem(ctx, indexKey, stale...).Err(); err != nil {
				return nil, fmt.Errorf("failed to prune webhook event index: %w", err)
			}
		}

		offset += int64(len(ids) - len(stale))
		if len(ids) < batch {
			break
		}
	}
	return events, nil
}
