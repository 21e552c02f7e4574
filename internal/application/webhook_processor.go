package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/infrastructure/metrics"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/rs/zerolog"
)

const reasonAlreadyProcessed = "Already processed"

// WebhookProcessor runs a webhook delivery through dedup, shop resolution,
// signature verification, topic dispatch and finalization
type WebhookProcessor struct {
	dedup      *DedupStore
	shops      ports.ShopConfigRepository
	verifier   *SignatureVerifier
	dispatcher *WebhookDispatcher
	publisher  ports.WebhookPublisher
	logger     zerolog.Logger
}

// NewWebhookProcessor creates a processor. publisher may be nil.
func NewWebhookProcessor(
	dedup *DedupStore,
	shops ports.ShopConfigRepository,
	verifier *SignatureVerifier,
	dispatcher *WebhookDispatcher,
	publisher ports.WebhookPublisher,
	logger zerolog.Logger,
) *WebhookProcessor {
	return &WebhookProcessor{
		dedup:      dedup,
		shops:      shops,
		verifier:   verifier,
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// Process handles one delivery. A repeated delivery returns Processed=false
// without side effects. Payload validation failures are reported in the result,
// not as an error.
func (p *WebhookProcessor) Process(ctx context.Context, delivery *domain.WebhookDelivery) (*domain.ProcessResult, error) {
	id := p.dedup.ComputeID(delivery.Topic, delivery.Shop, delivery.Body)
	log := p.logger.With().
		Str("webhookId", id).
		Str("shop", delivery.Shop).
		Str("topic", delivery.Topic).
		Logger()

	existing, err := p.dedup.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check webhook event: %w", err)
	}
	if existing != nil {
		log.Info().Str("status", string(existing.Status)).Msg("Webhook already processed")
		return p.duplicate(id, delivery.Topic), nil
	}

	config, err := p.shops.Get(ctx, delivery.Shop)
	if err != nil {
		return nil, fmt.Errorf("failed to load shop config: %w", err)
	}
	if config == nil {
		metrics.WebhooksTotal.WithLabelValues(delivery.Topic, metrics.OutcomeUnconfigured).Inc()
		return nil, domain.ErrShopNotConfigured
	}
	if !config.IsActive {
		metrics.WebhooksTotal.WithLabelValues(delivery.Topic, metrics.OutcomeUnconfigured).Inc()
		return nil, domain.ErrShopInactive
	}

	if err := p.verifier.Verify(delivery); err != nil {
		metrics.WebhooksTotal.WithLabelValues(delivery.Topic, metrics.OutcomeRejected).Inc()
		return nil, err
	}

	if _, err := p.dedup.Create(ctx, id, delivery.Shop, delivery.Topic); err != nil {
		if errors.Is(err, domain.ErrDuplicateWebhook) {
			log.Info().Msg("Concurrent delivery already recorded")
			return p.duplicate(id, delivery.Topic), nil
		}
		return nil, fmt.Errorf("failed to create webhook event: %w", err)
	}

	log.Info().Msg("Processing webhook")

	result, err := p.dispatcher.Dispatch(ctx, delivery, config)

	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		log.Warn().Str("field", validationErr.Field).Msg(validationErr.Message)
		result = &domain.OrderResult{
			Success: false,
			Topic:   delivery.Topic,
			Message: validationErr.Message,
		}
		p.finalize(ctx, log, id, delivery, domain.WebhookStatusFailed, "", validationErr.Message, result)
		metrics.WebhooksTotal.WithLabelValues(delivery.Topic, metrics.OutcomeInvalid).Inc()
		return &domain.ProcessResult{WebhookID: id, Processed: true, Result: result}, nil

	case err != nil:
		log.Error().Err(err).Msg("Webhook processing failed")
		p.finalize(ctx, log, id, delivery, domain.WebhookStatusFailed, "", err.Error(), nil)
		metrics.WebhooksTotal.WithLabelValues(delivery.Topic, metrics.OutcomeFailed).Inc()
		return nil, err
	}

	p.finalize(ctx, log, id, delivery, domain.WebhookStatusCompleted, result.OrderID, "", result)
	metrics.WebhooksTotal.WithLabelValues(delivery.Topic, metrics.OutcomeProcessed).Inc()

	if result.Summary != nil {
		log.Info().
			Str("orderId", result.OrderID).
			Int("totalItems", result.Summary.TotalItems).
			Int("successful", result.Summary.Successful).
			Int("failed", result.Summary.Failed).
			Msg("Webhook processed")
	} else {
		log.Info().Msg("Webhook processed")
	}

	return &domain.ProcessResult{WebhookID: id, Processed: true, Result: result}, nil
}

func (p *WebhookProcessor) duplicate(id, topic string) *domain.ProcessResult {
	metrics.WebhooksTotal.WithLabelValues(topic, metrics.OutcomeDuplicate).Inc()
	return &domain.ProcessResult{
		WebhookID: id,
		Processed: false,
		Reason:    reasonAlreadyProcessed,
	}
}

// finalize records the terminal status. A failing ledger write is logged and
// does not change the outcome returned to the caller.
func (p *WebhookProcessor) finalize(
	ctx context.Context,
	log zerolog.Logger,
	id string,
	delivery *domain.WebhookDelivery,
	status domain.WebhookStatus,
	orderID, errorMessage string,
	result *domain.OrderResult,
) {
	if err := p.dedup.Finalize(ctx, id, status, orderID, errorMessage); err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("Failed to finalize webhook event")
	}

	if p.publisher == nil {
		return
	}
	p.publisher.Publish(&domain.WebhookNotification{
		WebhookID:    id,
		Shop:         delivery.Shop,
		Topic:        delivery.Topic,
		Status:       status,
		OrderID:      orderID,
		Result:       result,
		ErrorMessage: errorMessage,
		ProcessedAt:  time.Now().UTC(),
	})
}
