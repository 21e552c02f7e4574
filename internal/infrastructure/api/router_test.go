package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		auth   string
	}{
		{name: "enroll without token", method: http.MethodPost, target: "/api/enroll",
			body: `{"shop":"demo.myshopify.com","email":"attacker@example.com","productId":"pro_bundle_123"}`},
		{name: "shop update with wrong token", method: http.MethodPut, target: "/api/shops/" + demoShop,
			body: `{"isActive":false}`, auth: "Bearer nope"},
		{name: "stream without token", method: http.MethodGet, target: "/api/webhooks/stream"},
		{name: "logs with basic auth", method: http.MethodGet, target: "/api/webhooks/logs?shop=" + demoShop, auth: "Basic " + adminToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}

			rec := f.do(req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	assert.Empty(t, f.client.enrolled)

	stored, err := f.shops.Get(context.Background(), demoShop)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsActive)
}

func TestRouter_AdminRoutesDisabledWithoutToken(t *testing.T) {
	router := NewRouter(Dependencies{Logger: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodGet, "/api/shops", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}
