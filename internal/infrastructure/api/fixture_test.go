package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"shopify-learnworlds-layer/internal/application"
	"shopify-learnworlds-layer/internal/application/webhook_handlers"
	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/infrastructure/pubsub"
	"shopify-learnworlds-layer/internal/infrastructure/repository"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	demoShop     = "demo.myshopify.com"
	pausedShop   = "paused.myshopify.com"
	bareShop     = "bare.myshopify.com"
	webhookKey   = "test-api-secret"
	knownEmail   = "jane@example.com"
	mappedLWItem = "pro_bundle_123"
	adminToken   = "admin-token"
)

type stubEnrollmentClient struct {
	mu         sync.Mutex
	unenrolled []string
	enrolled   []string
}

func (c *stubEnrollmentClient) GetUser(_ context.Context, email string) (*domain.LearnWorldsUser, error) {
	if email != knownEmail {
		return nil, nil
	}
	return &domain.LearnWorldsUser{ID: "u1", Email: email, Username: "jane"}, nil
}

func (c *stubEnrollmentClient) GetUserCourses(context.Context, string) (*domain.LearnWorldsListing, error) {
	return &domain.LearnWorldsListing{Data: []domain.LearnWorldsProduct{{ID: "go_course"}}}, nil
}

func (c *stubEnrollmentClient) GetUserProducts(context.Context, string) (*domain.LearnWorldsListing, error) {
	return &domain.LearnWorldsListing{Data: []domain.LearnWorldsProduct{{ID: mappedLWItem, Type: "bundle"}}}, nil
}

func (c *stubEnrollmentClient) Enroll(_ context.Context, email, productID, _ string, _ float64, _ bool) (*domain.EnrollmentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enrolled = append(c.enrolled, email+":"+productID)
	return &domain.EnrollmentRecord{Success: true}, nil
}

func (c *stubEnrollmentClient) Unenroll(_ context.Context, email, productID, _ string) (*domain.UnenrollmentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if productID == "broken" {
		return nil, &domain.RemoteAPIError{Operation: "unenroll user", StatusCode: 500, Body: "boom"}
	}
	c.unenrolled = append(c.unenrolled, email+":"+productID)
	return &domain.UnenrollmentRecord{Success: true}, nil
}

func (c *stubEnrollmentClient) BulkUnenroll(ctx context.Context, requests []domain.EnrollmentRequest) []domain.BulkUnenrollResult {
	results := make([]domain.BulkUnenrollResult, 0, len(requests))
	for _, req := range requests {
		record, err := c.Unenroll(ctx, req.Email, req.ProductID, req.ProductType)
		result := domain.BulkUnenrollResult{Email: req.Email, ProductID: req.ProductID, Success: err == nil, Result: record}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

func (c *stubEnrollmentClient) ListCourses(context.Context) (*domain.LearnWorldsListing, error) {
	return &domain.LearnWorldsListing{Data: []domain.LearnWorldsProduct{{ID: "go_course", Title: "Go"}}}, nil
}

func (c *stubEnrollmentClient) ListBundles(context.Context) (*domain.LearnWorldsListing, error) {
	return &domain.LearnWorldsListing{Data: []domain.LearnWorldsProduct{{ID: mappedLWItem, Title: "Pro"}}}, nil
}

func (c *stubEnrollmentClient) Unenrolled() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.unenrolled...)
}

type stubClientFactory struct {
	client *stubEnrollmentClient
}

func (f stubClientFactory) ForConnection(domain.LearnWorldsConnection) ports.EnrollmentClient {
	return f.client
}

type stubShopifyClient struct {
	mu       sync.Mutex
	verified bool
	webhooks []string
}

func (c *stubShopifyClient) GenerateAuthURL(shop, state string) (string, error) {
	return fmt.Sprintf("https://%s/admin/oauth/authorize?client_id=key&state=%s", shop, state), nil
}

func (c *stubShopifyClient) VerifyCallback(*url.URL) (bool, error) {
	return c.verified, nil
}

func (c *stubShopifyClient) ExchangeToken(_ context.Context, _ string, code string) (string, error) {
	return "shpat_" + code, nil
}

func (c *stubShopifyClient) CreateWebhook(_ context.Context, _, _ string, topic, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.webhooks = append(c.webhooks, topic)
	return nil
}

type fixture struct {
	router  http.Handler
	shops   *repository.MemoryShopConfigRepository
	events  *repository.MemoryWebhookEventRepository
	client  *stubEnrollmentClient
	shopify *stubShopifyClient
	pubsub  *pubsub.WebhookPubSub
}

func newFixture(t *testing.T, healthChecks ...HealthCheck) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	ctx := context.Background()
	shops := repository.NewMemoryShopConfigRepository()
	events := repository.NewMemoryWebhookEventRepository()
	client := &stubEnrollmentClient{}
	factory := stubClientFactory{client: client}
	shopifyClient := &stubShopifyClient{verified: true}
	ps := pubsub.NewWebhookPubSub(logger)

	connection := domain.LearnWorldsConnection{
		BaseURL:   "https://school.example.com",
		ClientID:  "client",
		AuthToken: "token",
	}
	require.NoError(t, shops.Put(ctx, &domain.ShopConfig{
		Shop:           demoShop,
		IsActive:       true,
		LearnWorlds:    connection,
		ProductMapping: map[string]string{"1822": mappedLWItem, "SKU-BROKEN": "broken"},
	}))
	require.NoError(t, shops.Put(ctx, &domain.ShopConfig{Shop: pausedShop, IsActive: false, LearnWorlds: connection}))
	require.NoError(t, shops.Put(ctx, &domain.ShopConfig{Shop: bareShop, IsActive: true}))

	configs := application.NewConfigService(shops, connection, logger)
	dedup := application.NewDedupStore(events)

	dispatcher := application.NewWebhookDispatcher(logger)
	dispatcher.RegisterHandler(webhook_handlers.NewRefundHandler(factory, logger))
	dispatcher.RegisterHandler(webhook_handlers.NewCancellationHandler(factory, logger))
	dispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(configs, logger))

	processor := application.NewWebhookProcessor(
		dedup,
		shops,
		application.NewSignatureVerifier(webhookKey, false, logger),
		dispatcher,
		ps,
		logger,
	)

	install := application.NewInstallService(shopifyClient, configs, "https://app.example.com", "read_orders", logger)
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))

	router := NewRouter(Dependencies{
		Webhooks:     NewWebhookHandler(processor, dispatcher, logger),
		Admin:        NewAdminHandler(application.NewEnrollmentService(configs, factory, logger), configs, dedup, logger),
		OAuth:        NewOAuthHandler(install, store, false, logger),
		Stream:       NewStreamHandler(ps, time.Hour, logger),
		HealthChecks: healthChecks,
		Logger:       logger,
		AdminToken:   adminToken,
	})

	return &fixture{
		router:  router,
		shops:   shops,
		events:  events,
		client:  client,
		shopify: shopifyClient,
		pubsub:  ps,
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doJSON(method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	return f.do(req)
}

func signBody(body string) string {
	mac := hmac.New(sha256.New, []byte(webhookKey))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func webhookRequest(path, shop, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if shop != "" {
		req.Header.Set(headerShopDomain, shop)
	}
	req.Header.Set(headerHmac, signBody(body))
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
