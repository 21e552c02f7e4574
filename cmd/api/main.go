package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"shopify-learnworlds-layer/internal/application"
	"shopify-learnworlds-layer/internal/application/webhook_handlers"
	"shopify-learnworlds-layer/internal/config"
	"shopify-learnworlds-layer/internal/domain"
	apiinfra "shopify-learnworlds-layer/internal/infrastructure/api"
	"shopify-learnworlds-layer/internal/infrastructure/learnworlds"
	logging "shopify-learnworlds-layer/internal/infrastructure/logger"
	"shopify-learnworlds-layer/internal/infrastructure/pubsub"
	"shopify-learnworlds-layer/internal/infrastructure/repository"
	shopifyinfra "shopify-learnworlds-layer/internal/infrastructure/shopify"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	shutdownTimeout = 15 * time.Second
	streamHeartbeat = 25 * time.Second
	swaggerFile     = "./docs/swagger.json"
)

func main() {
	bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		bootLogger.Warn().Msg(".env file not found")
	}

	cfg, err := config.New()
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		shopRepo     ports.ShopConfigRepository
		eventRepo    ports.WebhookEventRepository
		healthChecks []apiinfra.HealthCheck
	)

	// Storage
	switch cfg.StorageBackend {
	case config.StorageMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())

		if err := client.Ping(ctx, nil); err != nil {
			logger.Fatal().Err(err).Msg("Failed to ping MongoDB")
		}

		db := client.Database(cfg.MongoDatabase)
		shopRepo = repository.NewMongoShopConfigRepository(db)

		mongoEvents := repository.NewMongoWebhookEventRepository(db)
		if err := mongoEvents.EnsureIndexes(ctx, cfg.WebhookEventTTL); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create webhook event indexes")
		}
		eventRepo = mongoEvents

		healthChecks = append(healthChecks, apiinfra.HealthCheck{
			Name:  "mongodb",
			Check: func(ctx context.Context) error { return client.Ping(ctx, nil) },
		})
		logger.Info().Str("database", cfg.MongoDatabase).Msg("Using MongoDB storage")
	default:
		shopRepo = repository.NewMemoryShopConfigRepository()
		eventRepo = repository.NewMemoryWebhookEventRepository()
		logger.Warn().Msg("Using in-memory storage, data is lost on restart")
	}

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}

		eventRepo = repository.NewRedisWebhookEventRepository(redisClient, cfg.WebhookEventTTL)
		healthChecks = append(healthChecks, apiinfra.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
		logger.Info().Dur("ttl", cfg.WebhookEventTTL).Msg("Using Redis webhook ledger")
	}

	// LearnWorlds defaults for new shops
	defaults := domain.LearnWorldsConnection{
		BaseURL:   cfg.LearnWorldsAPIBase,
		ClientID:  cfg.LearnWorldsClientID,
		AuthToken: cfg.LearnWorldsAuthToken,
	}
	if defaults.ClientID == "" || defaults.AuthToken == "" {
		logger.Warn().Msg("LEARNWORLDS_CLIENT_ID or LEARNWORLDS_AUTH_TOKEN not set, shops need their own LearnWorlds connection")
		defaults = domain.LearnWorldsConnection{}
	}

	if cfg.ShopifyAPISecret == "" && !cfg.SkipWebhookVerification {
		logger.Warn().Msg("SHOPIFY_API_SECRET not set, every webhook will fail signature verification")
	}

	// Application services
	clientFactory := learnworlds.NewFactory(cfg.LearnWorldsTimeout, logger)
	configService := application.NewConfigService(shopRepo, defaults, logger)
	enrollmentService := application.NewEnrollmentService(configService, clientFactory, logger)
	dedupStore := application.NewDedupStore(eventRepo)

	configured := configService.AutoConfigure(ctx, cfg.ShopDomains, os.LookupEnv)
	logger.Info().
		Int("requested", len(cfg.ShopDomains)).
		Int("configured", len(configured)).
		Msg("Shops configured from environment")

	shopifyClient := shopifyinfra.NewClient(shopifyinfra.ClientConfig{
		APIKey:      cfg.ShopifyAPIKey,
		APISecret:   cfg.ShopifyAPISecret,
		RedirectURL: cfg.AppURL + "/auth/callback",
		Scope:       cfg.ShopifyScopes,
		APIVersion:  cfg.ShopifyAPIVersion,
	}, logger)
	installService := application.NewInstallService(shopifyClient, configService, cfg.AppURL, cfg.ShopifyScopes, logger)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewRefundHandler(clientFactory, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewCancellationHandler(clientFactory, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(configService, logger))

	webhookPubSub := pubsub.NewWebhookPubSub(logger)

	processor := application.NewWebhookProcessor(
		dedupStore,
		shopRepo,
		application.NewSignatureVerifier(cfg.ShopifyAPISecret, cfg.SkipWebhookVerification, logger),
		webhookDispatcher,
		webhookPubSub,
		logger,
	)

	var oauthHandler *apiinfra.OAuthHandler
	if key := cfg.SessionKey(); len(key) > 0 && cfg.ShopifyAPIKey != "" {
		store := sessions.NewCookieStore(key)
		oauthHandler = apiinfra.NewOAuthHandler(installService, store, strings.HasPrefix(cfg.AppURL, "https://"), logger)
	} else {
		logger.Warn().Msg("Shopify app credentials not set, OAuth install routes disabled")
	}

	if cfg.AdminAPIToken == "" {
		logger.Warn().Msg("ADMIN_API_TOKEN not set, admin API routes disabled")
	}

	streamHandler := apiinfra.NewStreamHandler(webhookPubSub, streamHeartbeat, logger)

	router := apiinfra.NewRouter(apiinfra.Dependencies{
		Webhooks:     apiinfra.NewWebhookHandler(processor, webhookDispatcher, logger),
		Admin:        apiinfra.NewAdminHandler(enrollmentService, configService, dedupStore, logger),
		OAuth:        oauthHandler,
		Stream:       streamHandler,
		HealthChecks: healthChecks,
		SwaggerFile:  swaggerFile,
		Logger:       logger,

		AdminToken:     cfg.AdminAPIToken,
		AllowedOrigins: cfg.AdminAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(streamHandler.Close)

	go func() {
		logger.Info().Int("port", cfg.Port).Msg("Starting API server")
		logger.Info().Msgf("Swagger documentation available at http://localhost:%d/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
