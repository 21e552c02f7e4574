package application

import (
	"context"
	"fmt"

	"shopify-learnworlds-layer/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes deliveries of the topics it accepts
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, delivery *domain.WebhookDelivery, config *domain.ShopConfig) (*domain.OrderResult, error)
}

// WebhookDispatcher routes a delivery to the first handler accepting its topic
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a dispatcher with no handlers
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Handlers are consulted in registration order.
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// CanDispatch reports whether some handler accepts the topic
func (d *WebhookDispatcher) CanDispatch(topic string) bool {
	return d.handlerFor(topic) != nil
}

// Dispatch runs the handler of the delivery's topic
func (d *WebhookDispatcher) Dispatch(ctx context.Context, delivery *domain.WebhookDelivery, config *domain.ShopConfig) (*domain.OrderResult, error) {
	handler := d.handlerFor(delivery.Topic)
	if handler == nil {
		d.logger.Warn().Str("topic", delivery.Topic).Str("shop", delivery.Shop).Msg("No handler for webhook topic")
		return nil, fmt.Errorf("%w: %s", domain.ErrUnhandledTopic, delivery.Topic)
	}
	return handler.Handle(ctx, delivery, config)
}

func (d *WebhookDispatcher) handlerFor(topic string) WebhookHandler {
	for _, handler := range d.handlers {
		if handler.CanHandle(topic) {
			return handler
		}
	}
	return nil
}
