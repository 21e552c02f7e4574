package api

import (
	"net/http"

	"shopify-learnworlds-layer/internal/infrastructure/metrics"
	securitymiddleware "shopify-learnworlds-layer/internal/infrastructure/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Dependencies are the handlers mounted by NewRouter
type Dependencies struct {
	Webhooks     *WebhookHandler
	Admin        *AdminHandler
	OAuth        *OAuthHandler
	Stream       *StreamHandler
	HealthChecks []HealthCheck
	SwaggerFile  string
	Logger       zerolog.Logger

	// AdminToken guards the /api group. The group is not mounted when empty.
	AdminToken     string
	AllowedOrigins []string
}

// NewRouter builds the HTTP router
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(securitymiddleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(securitymiddleware.MetricsMiddleware())

	r.Get("/health", HealthHandler(deps.HealthChecks...))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	if deps.SwaggerFile != "" {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
		r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, r, deps.SwaggerFile)
		})
	}

	// Shopify webhooks: /webhooks/orders/{action} and /webhooks/app/uninstalled
	r.Post("/webhooks/{resource}/{action}", deps.Webhooks.Handle)

	if deps.OAuth != nil {
		r.Get("/auth", deps.OAuth.Begin)
		r.Get("/auth/callback", deps.OAuth.Callback)
	}

	if deps.AdminToken == "" {
		return r
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
		r.Use(securitymiddleware.BearerAuthMiddleware(deps.AdminToken))

		r.Get("/user/{email}", deps.Admin.GetUser)
		r.Post("/enroll", deps.Admin.Enroll)
		r.Post("/unenroll", deps.Admin.Unenroll)
		r.Post("/unenroll/bulk", deps.Admin.BulkUnenroll)
		r.Get("/catalog", deps.Admin.Catalog)

		r.Get("/webhooks/logs", deps.Admin.WebhookLogs)
		if deps.Stream != nil {
			r.Get("/webhooks/stream", deps.Stream.Stream)
		}

		r.Get("/shops", deps.Admin.ListShops)
		r.Get("/shops/{shop}", deps.Admin.GetShop)
		r.Put("/shops/{shop}", deps.Admin.UpdateShop)
	})

	return r
}
