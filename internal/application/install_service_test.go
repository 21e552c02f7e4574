package application

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/infrastructure/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShopifyClient struct {
	mu          sync.Mutex
	verified    bool
	token       string
	failTopic   string
	registered  map[string]string
	authURLShop string
}

func (f *fakeShopifyClient) GenerateAuthURL(shop string, state string) (string, error) {
	f.authURLShop = shop
	return "https://" + shop + "/admin/oauth/authorize?state=" + state, nil
}

func (f *fakeShopifyClient) VerifyCallback(*url.URL) (bool, error) {
	return f.verified, nil
}

func (f *fakeShopifyClient) ExchangeToken(context.Context, string, string) (string, error) {
	return f.token, nil
}

func (f *fakeShopifyClient) CreateWebhook(_ context.Context, _ string, _ string, topic string, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if topic == f.failTopic {
		return errors.New("topic rejected")
	}
	if f.registered == nil {
		f.registered = make(map[string]string)
	}
	f.registered[topic] = address
	return nil
}

func TestNormalizeShopDomain(t *testing.T) {
	shop, err := NormalizeShopDomain("Demo")
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", shop)

	shop, err = NormalizeShopDomain("https://demo.myshopify.com/")
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", shop)

	_, err = NormalizeShopDomain("evil.com/path")
	assert.ErrorIs(t, err, domain.ErrInvalidShopDomain)

	_, err = NormalizeShopDomain("")
	assert.ErrorIs(t, err, domain.ErrInvalidShopDomain)
}

func TestInstallService_GenerateAuthURL(t *testing.T) {
	fake := &fakeShopifyClient{}
	configs := NewConfigService(repository.NewMemoryShopConfigRepository(), testDefaults, zerolog.Nop())
	svc := NewInstallService(fake, configs, "https://app.example.com/", "read_orders", zerolog.Nop())

	authURL, err := svc.GenerateAuthURL("demo", "state-1")

	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", fake.authURLShop)
	assert.Contains(t, authURL, "state=state-1")
}

func TestInstallService_CompleteInstall(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryShopConfigRepository()
	fake := &fakeShopifyClient{verified: true, token: "shpat_abc", failTopic: "orders/cancelled"}
	configs := NewConfigService(repo, testDefaults, zerolog.Nop())
	svc := NewInstallService(fake, configs, "https://app.example.com/", "read_orders", zerolog.Nop())

	callback, err := url.Parse("https://app.example.com/auth/callback?shop=demo.myshopify.com&code=abc&hmac=x&state=s")
	require.NoError(t, err)

	result, err := svc.CompleteInstall(ctx, callback)

	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", result.Shop)
	require.Len(t, result.Webhooks, 4)
	assert.Equal(t, "https://app.example.com/webhooks/orders/refunded", fake.registered["orders/refunded"])
	assert.Equal(t, "https://app.example.com/webhooks/app/uninstalled", fake.registered["app/uninstalled"])
	assert.Equal(t, "topic rejected", result.Webhooks[2].Error)

	config, err := repo.Get(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.True(t, config.IsActive)
	assert.Equal(t, "shpat_abc", config.AccessToken)
	assert.Equal(t, testDefaults, config.LearnWorlds)
}

func TestInstallService_CompleteInstallRejectsBadHMAC(t *testing.T) {
	repo := repository.NewMemoryShopConfigRepository()
	fake := &fakeShopifyClient{verified: false}
	svc := NewInstallService(fake, NewConfigService(repo, testDefaults, zerolog.Nop()), "https://app.example.com", "", zerolog.Nop())

	callback, err := url.Parse("https://app.example.com/auth/callback?shop=demo.myshopify.com&code=abc&hmac=bad")
	require.NoError(t, err)

	_, err = svc.CompleteInstall(context.Background(), callback)

	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	assert.Empty(t, fake.registered)
}
