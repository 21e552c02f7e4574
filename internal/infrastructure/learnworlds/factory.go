package learnworlds

import (
	"net/http"
	"time"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Factory builds clients that share one HTTP connection pool
type Factory struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewFactory creates a client factory with a per-call timeout
func NewFactory(timeout time.Duration, logger zerolog.Logger) *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

var _ ports.EnrollmentClientFactory = (*Factory)(nil)

// ForConnection returns a client bound to the given school credentials
func (f *Factory) ForConnection(conn domain.LearnWorldsConnection) ports.EnrollmentClient {
	return NewClientWithHTTP(conn, f.httpClient, f.logger)
}
