package webhook_handlers

import (
	"context"

	"shopify-learnworlds-layer/internal/application"
	"shopify-learnworlds-layer/internal/domain"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	configs *application.ConfigService
	logger  zerolog.Logger
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(configs *application.ConfigService, logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		configs: configs,
		logger:  logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled.String()
}

// Handle deactivates the shop. Its configuration and mappings are kept so a
// reinstall picks them up again.
func (h *AppUninstalledHandler) Handle(ctx context.Context, delivery *domain.WebhookDelivery, config *domain.ShopConfig) (*domain.OrderResult, error) {
	h.logger.Info().
		Str("topic", delivery.Topic).
		Str("shop", config.Shop).
		Msg("Processing app uninstalled webhook event")

	if err := h.configs.Deactivate(ctx, config.Shop); err != nil {
		return nil, err
	}

	return &domain.OrderResult{
		Success: true,
		Topic:   delivery.Topic,
		Message: "Shop deactivated",
	}, nil
}
