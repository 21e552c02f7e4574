package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/ports"
)

// MemoryShopConfigRepository keeps shop configurations in process memory
type MemoryShopConfigRepository struct {
	mu      sync.RWMutex
	configs map[string]*domain.ShopConfig
}

// NewMemoryShopConfigRepository creates an empty in-memory repository
func NewMemoryShopConfigRepository() *MemoryShopConfigRepository {
	return &MemoryShopConfigRepository{
		configs: make(map[string]*domain.ShopConfig),
	}
}

var _ ports.ShopConfigRepository = (*MemoryShopConfigRepository)(nil)

func (r *MemoryShopConfigRepository) Get(_ context.Context, shop string) (*domain.ShopConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, ok := r.configs[shop]
	if !ok {
		return nil, nil
	}
	return config.Clone(), nil
}

func (r *MemoryShopConfigRepository) Put(_ context.Context, config *domain.ShopConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := config.Clone()
	now := time.Now()
	if existing, ok := r.configs[config.Shop]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.configs[config.Shop] = stored
	return nil
}

func (r *MemoryShopConfigRepository) Upsert(_ context.Context, update *domain.ShopConfigUpdate) (*domain.ShopConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored, ok := r.configs[update.Shop]
	if !ok {
		stored = update.NewConfig()
		stored.CreatedAt = now
	} else {
		stored.Apply(update)
	}
	stored.UpdatedAt = now
	r.configs[update.Shop] = stored
	return stored.Clone(), nil
}

func (r *MemoryShopConfigRepository) List(_ context.Context) ([]*domain.ShopConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]*domain.ShopConfig, 0, len(r.configs))
	for _, config := range r.configs {
		configs = append(configs, config.Clone())
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Shop < configs[j].Shop })
	return configs, nil
}

// MemoryWebhookEventRepository keeps the dedup ledger in process memory.
// A single mutex makes Create an atomic check-and-insert.
type MemoryWebhookEventRepository struct {
	mu     sync.Mutex
	events map[string]*domain.WebhookEvent
}

// NewMemoryWebhookEventRepository creates an empty in-memory ledger
func NewMemoryWebhookEventRepository() *MemoryWebhookEventRepository {
	return &MemoryWebhookEventRepository{
		events: make(map[string]*domain.WebhookEvent),
	}
}

var _ ports.WebhookEventRepository = (*MemoryWebhookEventRepository)(nil)

func (r *MemoryWebhookEventRepository) Get(_ context.Context, id string) (*domain.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (r *MemoryWebhookEventRepository) Create(_ context.Context, event *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; exists {
		return domain.ErrDuplicateWebhook
	}
	stored := *event
	r.events[event.ID] = &stored
	return nil
}

func (r *MemoryWebhookEventRepository) Update(_ context.Context, id string, update domain.WebhookEventUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok {
		return domain.ErrWebhookNotFound
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
	return nil
}

func (r *MemoryWebhookEventRepository) ListByShop(_ context.Context, shop string, limit int) ([]*domain.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]*domain.WebhookEvent, 0)
	for _, event := range r.events {
		if event.Shop != shop {
			continue
		}
		copied := *event
		events = append(events, &copied)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
