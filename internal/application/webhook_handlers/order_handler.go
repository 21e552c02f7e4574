package webhook_handlers

import (
	"context"

	"shopify-learnworlds-layer/internal/application"
	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/infrastructure/metrics"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/rs/zerolog"
)

// OrderHandler unenrolls the customer of a refunded or cancelled order from
// the LearnWorlds products its line items map to
type OrderHandler struct {
	kind    string
	topics  map[domain.Topic]struct{}
	clients ports.EnrollmentClientFactory
	logger  zerolog.Logger
}

func newOrderHandler(kind string, clients ports.EnrollmentClientFactory, logger zerolog.Logger, topics ...domain.Topic) *OrderHandler {
	set := make(map[domain.Topic]struct{}, len(topics))
	for _, topic := range topics {
		set[topic] = struct{}{}
	}
	return &OrderHandler{
		kind:    kind,
		topics:  set,
		clients: clients,
		logger:  logger.With().Str("handler", kind).Logger(),
	}
}

// NewRefundHandler handles full and partial refunds
func NewRefundHandler(clients ports.EnrollmentClientFactory, logger zerolog.Logger) *OrderHandler {
	return newOrderHandler("refund", clients, logger, domain.TopicOrdersRefunded, domain.TopicOrdersPartiallyRefunded)
}

// NewCancellationHandler handles cancelled orders as full refunds
func NewCancellationHandler(clients ports.EnrollmentClientFactory, logger zerolog.Logger) *OrderHandler {
	return newOrderHandler("cancellation", clients, logger, domain.TopicOrdersCancelled)
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	_, ok := h.topics[domain.Topic(topic)]
	return ok
}

// Handle processes an order webhook. Every line item is attempted; item
// failures are reported in the result and do not fail the order.
func (h *OrderHandler) Handle(ctx context.Context, delivery *domain.WebhookDelivery, config *domain.ShopConfig) (*domain.OrderResult, error) {
	order, err := domain.ParseOrderRefundContext(delivery.Body)
	if err != nil {
		return nil, err
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	h.logger.Info().
		Str("topic", delivery.Topic).
		Str("shop", delivery.Shop).
		Str("orderId", order.OrderID).
		Str("orderName", order.OrderName).
		Str("email", order.CustomerEmail).
		Int("lineItems", len(order.LineItems)).
		Msg("Processing order webhook event")

	var client ports.EnrollmentClient
	if config.LearnWorldsConfigured() {
		client = h.clients.ForConnection(config.LearnWorlds)
	}

	items := make([]domain.LineItemResult, 0, len(order.LineItems))
	for _, lineItem := range order.LineItems {
		items = append(items, h.processLineItem(ctx, client, config, order.CustomerEmail, lineItem))
	}

	return &domain.OrderResult{
		Success:        true,
		OrderID:        order.OrderID,
		Email:          order.CustomerEmail,
		Topic:          delivery.Topic,
		ProcessedItems: items,
		Summary:        domain.Summarize(items),
	}, nil
}

func (h *OrderHandler) processLineItem(
	ctx context.Context,
	client ports.EnrollmentClient,
	config *domain.ShopConfig,
	email string,
	lineItem domain.LineItem,
) domain.LineItemResult {
	name := lineItem.Name
	if name == "" {
		name = lineItem.Title
	}
	result := domain.LineItemResult{
		ProductID: lineItem.ProductID.String(),
		VariantID: lineItem.VariantID.String(),
		Name:      name,
	}

	productID, identifier, ok := application.ResolveProductMapping(lineItem.CandidateIdentifiers(), config.ProductMapping)
	if !ok {
		h.logger.Warn().
			Str("shop", config.Shop).
			Strs("candidates", lineItem.CandidateIdentifiers()).
			Msg("No LearnWorlds product mapping for line item")
		result.Error = "No LearnWorlds product mapping found"
		metrics.LineItemsTotal.WithLabelValues("unmapped").Inc()
		return result
	}
	result.MappedIdentifier = identifier
	result.LearnWorldsProductID = productID

	if client == nil {
		result.Error = domain.ErrLearnWorldsNotConfigured.Error()
		metrics.LineItemsTotal.WithLabelValues("failed").Inc()
		return result
	}

	record, err := client.Unenroll(ctx, email, productID, domain.ProductTypeCourse)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("shop", config.Shop).
			Str("email", email).
			Str("learnWorldsProductId", productID).
			Msg("Failed to unenroll line item")
		result.Error = err.Error()
		metrics.LineItemsTotal.WithLabelValues("failed").Inc()
		return result
	}

	result.Success = true
	result.Result = record
	result.Message = record.Message
	if record.AlreadyUnenrolled {
		metrics.LineItemsTotal.WithLabelValues("already_unenrolled").Inc()
	} else {
		metrics.LineItemsTotal.WithLabelValues("unenrolled").Inc()
	}
	return result
}
