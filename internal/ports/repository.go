package ports

import (
	"context"

	"shopify-learnworlds-layer/internal/domain"
)

// ShopConfigRepository defines the interface for shop configuration persistence
type ShopConfigRepository interface {
	// Get returns nil, nil when the shop has no configuration
	Get(ctx context.Context, shop string) (*domain.ShopConfig, error)

	// Put stores the configuration as given, replacing any previous one
	Put(ctx context.Context, config *domain.ShopConfig) error

	// Upsert creates the configuration or applies the update to the stored one
	// atomically. Mappings are overlaid, never replaced wholesale.
	Upsert(ctx context.Context, update *domain.ShopConfigUpdate) (*domain.ShopConfig, error)

	List(ctx context.Context) ([]*domain.ShopConfig, error)
}

// WebhookEventRepository defines the interface for the dedup ledger
type WebhookEventRepository interface {
	// Get returns nil, nil when no event has the id
	Get(ctx context.Context, id string) (*domain.WebhookEvent, error)

	// Create inserts the event atomically. It returns domain.ErrDuplicateWebhook
	// when an event with the same id already exists.
	Create(ctx context.Context, event *domain.WebhookEvent) error

	// Update moves a processing event to a terminal status. It returns
	// domain.ErrAlreadyFinalized when the event is not processing anymore.
	Update(ctx context.Context, id string, update domain.WebhookEventUpdate) error

	// ListByShop returns the newest events first
	ListByShop(ctx context.Context, shop string, limit int) ([]*domain.WebhookEvent, error)
}
