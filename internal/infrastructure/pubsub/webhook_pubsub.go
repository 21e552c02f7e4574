package pubsub

import (
	"context"
	"sync"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const channelBufferSize = 16

// WebhookEventChannel represents a subscription channel
type WebhookEventChannel struct {
	ID     string
	Filter *WebhookEventFilter
	Events chan *domain.WebhookNotification
	Done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// WebhookEventFilter filters webhook notifications
type WebhookEventFilter struct {
	Topics []string // Filter by topics
	Shop   string   // Filter by shop domain
}

// WebhookPubSub fans processed webhook deliveries out to live subscribers
type WebhookPubSub struct {
	mu       sync.RWMutex
	channels map[string]*WebhookEventChannel
	logger   zerolog.Logger
}

// NewWebhookPubSub creates a new webhook pub/sub system
func NewWebhookPubSub(logger zerolog.Logger) *WebhookPubSub {
	return &WebhookPubSub{
		channels: make(map[string]*WebhookEventChannel),
		logger:   logger,
	}
}

var _ ports.WebhookPublisher = (*WebhookPubSub)(nil)

// Subscribe creates a subscription that lives until ctx is cancelled
func (ps *WebhookPubSub) Subscribe(ctx context.Context, filter *WebhookEventFilter) *WebhookEventChannel {
	subCtx, cancel := context.WithCancel(ctx)

	channel := &WebhookEventChannel{
		ID:     uuid.NewString(),
		Filter: filter,
		Events: make(chan *domain.WebhookNotification, channelBufferSize),
		Done:   make(chan struct{}),
		ctx:    subCtx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.channels[channel.ID] = channel
	ps.mu.Unlock()

	ps.logger.Info().
		Str("channelId", channel.ID).
		Interface("filter", filter).
		Msg("Webhook subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(channel.ID)
	}()

	return channel
}

// Unsubscribe removes a subscription channel
func (ps *WebhookPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Info().
		Str("channelId", channelID).
		Msg("Webhook subscription removed")
}

// Publish broadcasts a notification to all matching subscribers without blocking
func (ps *WebhookPubSub) Publish(notification *domain.WebhookNotification) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	publishedCount := 0
	for _, channel := range ps.channels {
		if !matchesFilter(notification, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- notification:
			publishedCount++
		default:
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Msg("Channel buffer full, dropping event")
		}
	}

	if publishedCount > 0 {
		ps.logger.Debug().
			Str("topic", notification.Topic).
			Str("shop", notification.Shop).
			Int("subscribers", publishedCount).
			Msg("Published webhook event to subscribers")
	}
}

func matchesFilter(notification *domain.WebhookNotification, filter *WebhookEventFilter) bool {
	if filter == nil {
		return true
	}

	if len(filter.Topics) > 0 {
		topicMatch := false
		for _, topic := range filter.Topics {
			if notification.Topic == topic {
				topicMatch = true
				break
			}
		}
		if !topicMatch {
			return false
		}
	}

	if filter.Shop != "" && notification.Shop != filter.Shop {
		return false
	}

	return true
}

// Stats returns pub/sub statistics
func (ps *WebhookPubSub) Stats() map[string]interface{} {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return map[string]interface{}{
		"active_subscriptions": len(ps.channels),
	}
}
