package application

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookSubscription is a topic registered on install and the path it is delivered to
type WebhookSubscription struct {
	Topic domain.Topic
	Path  string
}

// InstallWebhooks are registered on every shop after OAuth
var InstallWebhooks = []WebhookSubscription{
	{Topic: domain.TopicOrdersRefunded, Path: "/webhooks/orders/refunded"},
	{Topic: domain.TopicOrdersPartiallyRefunded, Path: "/webhooks/orders/partially_refunded"},
	{Topic: domain.TopicOrdersCancelled, Path: "/webhooks/orders/cancelled"},
	{Topic: domain.TopicAppUninstalled, Path: "/webhooks/app/uninstalled"},
}

// WebhookRegistration is the outcome of registering one webhook topic
type WebhookRegistration struct {
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Error   string `json:"error,omitempty"`
}

// InstallResult summarizes a completed OAuth install
type InstallResult struct {
	Shop     string                `json:"shop"`
	Webhooks []WebhookRegistration `json:"webhooks"`
}

// InstallService runs the Shopify OAuth install
type InstallService struct {
	shopify ports.ShopifyClient
	configs *ConfigService
	appURL  string
	scope   string
	logger  zerolog.Logger
}

// NewInstallService creates an install service. appURL is the public base URL
// webhooks are delivered to.
func NewInstallService(shopify ports.ShopifyClient, configs *ConfigService, appURL, scope string, logger zerolog.Logger) *InstallService {
	return &InstallService{
		shopify: shopify,
		configs: configs,
		appURL:  strings.TrimRight(appURL, "/"),
		scope:   scope,
		logger:  logger,
	}
}

// NormalizeShopDomain accepts "demo" or "demo.myshopify.com" and returns the
// full myshopify domain
func NormalizeShopDomain(shop string) (string, error) {
	shop = strings.ToLower(strings.TrimSpace(shop))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimSuffix(shop, "/")
	if shop == "" || strings.ContainsAny(shop, "/?#@: ") {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidShopDomain, shop)
	}
	if !strings.Contains(shop, ".") {
		shop += ".myshopify.com"
	}
	return shop, nil
}

// GenerateAuthURL builds the OAuth authorize URL of a shop
func (s *InstallService) GenerateAuthURL(shop, state string) (string, error) {
	shop, err := NormalizeShopDomain(shop)
	if err != nil {
		return "", err
	}
	return s.shopify.GenerateAuthURL(shop, state)
}

// CompleteInstall verifies the OAuth callback, stores the access token and
// registers the webhooks. Webhook registration failures are reported per topic.
func (s *InstallService) CompleteInstall(ctx context.Context, callbackURL *url.URL) (*InstallResult, error) {
	ok, err := s.shopify.VerifyCallback(callbackURL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidSignature
	}

	query := callbackURL.Query()
	shop, err := NormalizeShopDomain(query.Get("shop"))
	if err != nil {
		return nil, err
	}
	code := query.Get("code")
	if code == "" {
		return nil, &domain.ValidationError{Field: "code", Message: "Missing authorization code"}
	}

	token, err := s.shopify.ExchangeToken(ctx, shop, code)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to exchange token")
		return nil, err
	}

	if _, err := s.configs.InstallShop(ctx, shop, token, s.scope); err != nil {
		return nil, err
	}

	return &InstallResult{
		Shop:     shop,
		Webhooks: s.RegisterWebhooks(ctx, shop, token),
	}, nil
}

// RegisterWebhooks subscribes the shop to every install topic
func (s *InstallService) RegisterWebhooks(ctx context.Context, shop, accessToken string) []WebhookRegistration {
	registrations := make([]WebhookRegistration, 0, len(InstallWebhooks))
	for _, sub := range InstallWebhooks {
		registration := WebhookRegistration{
			Topic:   sub.Topic.String(),
			Address: s.appURL + sub.Path,
		}

		if err := s.shopify.CreateWebhook(ctx, shop, accessToken, registration.Topic, registration.Address); err != nil {
			s.logger.Error().
				Err(err).
				Str("shop", shop).
				Str("topic", registration.Topic).
				Msg("Failed to register webhook")
			registration.Error = err.Error()
		}
		registrations = append(registrations, registration)
	}
	return registrations
}
