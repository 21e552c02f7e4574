package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"shopify-learnworlds-layer/internal/infrastructure/pubsub"

	"github.com/rs/zerolog"
)

// StreamHandler pushes processed webhook deliveries to the admin UI as server-sent events
type StreamHandler struct {
	pubsub    *pubsub.WebhookPubSub
	heartbeat time.Duration
	done      chan struct{}
	closeOnce sync.Once
	logger    zerolog.Logger
}

// NewStreamHandler creates a stream handler
func NewStreamHandler(ps *pubsub.WebhookPubSub, heartbeat time.Duration, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		pubsub:    ps,
		heartbeat: heartbeat,
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Close ends every open stream
func (h *StreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Stream serves GET /api/webhooks/stream?shop=&topic=
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "Streaming unsupported")
		return
	}

	filter := &pubsub.WebhookEventFilter{Shop: r.URL.Query().Get("shop")}
	if topics := r.URL.Query()["topic"]; len(topics) > 0 {
		filter.Topics = topics
	}
	sub := h.pubsub.Subscribe(r.Context(), filter)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": subscribed %s\n\n", sub.ID)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case notification, ok := <-sub.Events:
			if !ok {
				return
			}
			data, err := json.Marshal(notification)
			if err != nil {
				h.logger.Error().Err(err).Msg("Failed to encode webhook notification")
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: webhook\ndata: %s\n\n", notification.WebhookID, data)
			flusher.Flush()
		}
	}
}
