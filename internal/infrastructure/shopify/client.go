package shopify

import (
	"context"
	"fmt"
	"net/url"

	"shopify-learnworlds-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

type client struct {
	app        goshopify.App
	apiVersion string
	logger     zerolog.Logger
}

// ClientConfig holds the app credentials used for OAuth and Admin API calls
type ClientConfig struct {
	APIKey      string
	APISecret   string
	RedirectURL string
	Scope       string
	APIVersion  string
}

// NewClient creates a new Shopify client adapter
func NewClient(cfg ClientConfig, logger zerolog.Logger) ports.ShopifyClient {
	app := goshopify.App{
		ApiKey:      cfg.APIKey,
		ApiSecret:   cfg.APISecret,
		RedirectUrl: cfg.RedirectURL,
		Scope:       cfg.Scope,
	}
	return &client{
		app:        app,
		apiVersion: cfg.APIVersion,
		logger:     logger,
	}
}

// createClient is a helper to create a goshopify client
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	var opts []goshopify.Option
	if c.apiVersion != "" {
		opts = append(opts, goshopify.WithVersion(c.apiVersion))
	}

	client, err := goshopify.NewClient(c.app, shopDomain, accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Authentication methods

func (c *client) GenerateAuthURL(shop string, state string) (string, error) {
	authURL, err := c.app.AuthorizeUrl(shop, state)
	if err != nil {
		return "", fmt.Errorf("failed to build authorize URL: %w", err)
	}

	c.logger.Info().
		Str("shop", shop).
		Str("scope", c.app.Scope).
		Msg("Generated OAuth authorization URL")

	return authURL, nil
}

func (c *client) VerifyCallback(callbackURL *url.URL) (bool, error) {
	ok, err := c.app.VerifyAuthorizationURL(callbackURL)
	if err != nil {
		return false, fmt.Errorf("failed to verify callback: %w", err)
	}
	return ok, nil
}

func (c *client) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	token, err := c.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	return token, nil
}

// Webhook API

func (c *client) CreateWebhook(ctx context.Context, shopDomain string, accessToken string, topic string, address string) error {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return err
	}

	webhook := goshopify.Webhook{
		Topic:   topic,
		Address: address,
		Format:  "json",
	}
	created, err := client.Webhook.Create(ctx, webhook)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	c.logger.Info().
		Str("shop", shopDomain).
		Str("topic", topic).
		Uint64("webhookId", created.Id).
		Msg("Webhook registered")
	return nil
}
