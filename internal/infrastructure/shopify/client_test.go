package shopify

import (
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GenerateAuthURL(t *testing.T) {
	c := NewClient(ClientConfig{
		APIKey:      "api-key",
		APISecret:   "secret",
		RedirectURL: "https://app.example.com/auth/callback",
		Scope:       "read_orders",
		APIVersion:  "2024-01",
	}, zerolog.Nop())

	authURL, err := c.GenerateAuthURL("demo.myshopify.com", "nonce-1")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", parsed.Host)
	assert.Equal(t, "/admin/oauth/authorize", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "api-key", query.Get("client_id"))
	assert.Equal(t, "read_orders", query.Get("scope"))
	assert.Equal(t, "nonce-1", query.Get("state"))
	assert.Equal(t, "https://app.example.com/auth/callback", query.Get("redirect_uri"))
}
