package middleware

import (
	"net/http"
	"strconv"
	"time"

	"shopify-learnworlds-layer/internal/infrastructure/metrics"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// MetricsMiddleware records request latency and counts labelled by the matched
// route pattern, so path parameters do not create new series
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unknown"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			code := strconv.Itoa(status)
			metrics.HTTPRequestDuration.WithLabelValues(route, r.Method, code).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		})
	}
}
