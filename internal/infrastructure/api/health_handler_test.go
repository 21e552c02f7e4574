package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		f := newFixture(t, HealthCheck{Name: "storage", Check: func(context.Context) error { return nil }})

		rec := f.doJSON(http.MethodGet, "/health", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp healthResponse
		decode(t, rec, &resp)
		assert.Equal(t, "ok", resp.Status)
		require.Len(t, resp.Checks, 1)
		assert.Equal(t, "up", resp.Checks[0].Status)
	})

	t.Run("degraded", func(t *testing.T) {
		f := newFixture(t,
			HealthCheck{Name: "storage", Check: func(context.Context) error { return nil }},
			HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
		)

		rec := f.doJSON(http.MethodGet, "/health", nil)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp healthResponse
		decode(t, rec, &resp)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "connection refused", resp.Checks[1].Message)
	})
}

func TestRouter_ExposesMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(webhookRequest("/webhooks/orders/refunded", demoShop, refundBody))

	rec := f.doJSON(http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shopify_learnworlds_webhook_deliveries_total")
	assert.Contains(t, rec.Body.String(), "shopify_learnworlds_http_requests_total")
}
