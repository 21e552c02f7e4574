package api

import (
	"errors"
	"io"
	"net/http"

	"shopify-learnworlds-layer/internal/application"
	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/infrastructure/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	headerShopDomain = "X-Shopify-Shop-Domain"
	headerHmac       = "X-Shopify-Hmac-Sha256"

	maxWebhookBodyBytes = 5 << 20
)

type webhookResponse struct {
	Success   bool                `json:"success"`
	Processed bool                `json:"processed"`
	Result    *domain.OrderResult `json:"result"`
	Reason    *string             `json:"reason"`
}

// WebhookHandler is the HTTP boundary of the webhook processor
type WebhookHandler struct {
	processor  *application.WebhookProcessor
	dispatcher *application.WebhookDispatcher
	logger     zerolog.Logger
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(processor *application.WebhookProcessor, dispatcher *application.WebhookDispatcher, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor:  processor,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle serves POST /webhooks/{resource}/{action}. The topic is
// "{resource}/{action}" and the raw body is handed over unchanged.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "resource") + "/" + chi.URLParam(r, "action")
	shop := r.Header.Get(headerShopDomain)
	signature := r.Header.Get(headerHmac)

	log := h.logger.With().Str("topic", topic).Str("shop", shop).Logger()

	supported := h.dispatcher.CanDispatch(topic)
	topicLabel := metrics.TopicUnsupported
	if supported {
		topicLabel = topic
	}

	if shop == "" || signature == "" {
		log.Warn().Bool("signaturePresent", signature != "").Msg("Missing required webhook headers")
		metrics.WebhooksTotal.WithLabelValues(topicLabel, metrics.OutcomeRejected).Inc()
		writeError(w, http.StatusBadRequest, "Missing required headers",
			headerShopDomain+" and "+headerHmac+" headers are required")
		return
	}

	if !supported {
		log.Warn().Msg("Unsupported webhook topic")
		metrics.WebhooksTotal.WithLabelValues(topicLabel, metrics.OutcomeRejected).Inc()
		writeError(w, http.StatusBadRequest, "unhandled_topic", "Unsupported webhook topic: "+topic)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read webhook body")
		writeError(w, http.StatusBadRequest, "invalid_body", "Failed to read request body")
		return
	}

	result, err := h.processor.Process(r.Context(), &domain.WebhookDelivery{
		Topic:     topic,
		Shop:      shop,
		Signature: signature,
		Body:      body,
	})
	if err != nil {
		h.respondProcessError(w, log, err)
		return
	}

	resp := webhookResponse{
		Success:   true,
		Processed: result.Processed,
		Result:    result.Result,
	}
	if result.Reason != "" {
		resp.Reason = &result.Reason
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *WebhookHandler) respondProcessError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrShopNotConfigured):
		writeError(w, http.StatusNotFound, "Shop configuration not found", "Please configure your shop settings first")
	case errors.Is(err, domain.ErrShopInactive):
		writeError(w, http.StatusForbidden, "Shop is inactive", "Shop configuration is disabled")
	case errors.Is(err, domain.ErrInvalidSignature):
		log.Warn().Msg("Webhook signature verification failed")
		writeError(w, http.StatusUnauthorized, "Invalid signature", "Webhook signature verification failed")
	default:
		log.Error().Err(err).Msg("Webhook processing error")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error processing webhook")
	}
}
