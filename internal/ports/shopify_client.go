package ports

import (
	"context"
	"net/url"
)

// ShopifyClient defines the Shopify operations needed to install the app
type ShopifyClient interface {
	// Authentication
	GenerateAuthURL(shop string, state string) (string, error)
	VerifyCallback(callbackURL *url.URL) (bool, error)
	ExchangeToken(ctx context.Context, shop string, code string) (string, error)

	// Webhook API
	CreateWebhook(ctx context.Context, shop string, accessToken string, topic string, address string) error
}
