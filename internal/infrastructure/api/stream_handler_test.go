package api

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopify-learnworlds-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamHandler_ForwardsMatchingNotifications(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/webhooks/stream?shop="+demoShop, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, ": subscribed"), line)

	f.pubsub.Publish(&domain.WebhookNotification{WebhookID: "other", Shop: "other.myshopify.com", Topic: "orders/refunded"})
	f.pubsub.Publish(&domain.WebhookNotification{WebhookID: "wanted", Shop: demoShop, Topic: "orders/refunded", Status: domain.WebhookStatusCompleted})

	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}

	assert.Contains(t, data, `"webhookId":"wanted"`)
	assert.Contains(t, data, `"status":"completed"`)
}

func TestStreamHandler_CloseEndsStreams(t *testing.T) {
	f := newFixture(t)
	handler := NewStreamHandler(f.pubsub, time.Hour, zerolog.Nop())
	server := httptest.NewServer(http.HandlerFunc(handler.Stream))
	defer server.Close()

	resp, err := http.Get(server.URL + "?topic=orders/refunded")
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)

	handler.Close()
	handler.Close()

	_, err = io.ReadAll(reader)
	assert.NoError(t, err)
}
