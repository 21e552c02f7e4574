package application

import (
	"context"
	"fmt"
	"time"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/ports"
)

// DedupStore is the idempotency ledger of webhook deliveries
type DedupStore struct {
	repo ports.WebhookEventRepository
}

// NewDedupStore creates a ledger on top of the event repository
func NewDedupStore(repo ports.WebhookEventRepository) *DedupStore {
	return &DedupStore{repo: repo}
}

// ComputeID derives the delivery id from topic, shop and raw body
func (s *DedupStore) ComputeID(topic, shop string, body []byte) string {
	return domain.ComputeWebhookID(topic, shop, body)
}

// FindByID returns nil, nil when the delivery has never been seen
func (s *DedupStore) FindByID(ctx context.Context, id string) (*domain.WebhookEvent, error) {
	return s.repo.Get(ctx, id)
}

// Create records a delivery as processing. It returns domain.ErrDuplicateWebhook
// when another caller recorded the same id first.
func (s *DedupStore) Create(ctx context.Context, id, shop, topic string) (*domain.WebhookEvent, error) {
	now := time.Now().UTC()
	event := &domain.WebhookEvent{
		ID:        id,
		Shop:      shop,
		Topic:     topic,
		Status:    domain.WebhookStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Finalize moves a processing delivery to completed or failed, exactly once
func (s *DedupStore) Finalize(ctx context.Context, id string, status domain.WebhookStatus, orderID, errorMessage string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("failed to finalize webhook event %s: %q is not a terminal status", id, status)
	}
	return s.repo.Update(ctx, id, domain.WebhookEventUpdate{
		Status:       status,
		OrderID:      orderID,
		ErrorMessage: errorMessage,
	})
}

// ListByShop returns the newest deliveries of a shop first
func (s *DedupStore) ListByShop(ctx context.Context, shop string, limit int) ([]*domain.WebhookEvent, error) {
	return s.repo.ListByShop(ctx, shop, limit)
}
