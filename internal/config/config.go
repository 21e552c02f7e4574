package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	AppURL    string `env:"APP_URL" envDefault:"http://localhost:8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	StorageBackend  string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	MongoURI        string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase   string        `env:"MONGODB_DATABASE" envDefault:"shopify_learnworlds"`
	RedisURL        string        `env:"REDIS_URL"`
	WebhookEventTTL time.Duration `env:"WEBHOOK_EVENT_TTL" envDefault:"720h"`

	ShopifyAPIKey     string   `env:"SHOPIFY_API_KEY"`
	ShopifyAPISecret  string   `env:"SHOPIFY_API_SECRET"`
	ShopifyAPIVersion string   `env:"SHOPIFY_API_VERSION" envDefault:"2024-01"`
	ShopifyScopes     string   `env:"SHOPIFY_SCOPES" envDefault:"read_orders,read_products"`
	ShopDomains       []string `env:"SHOPIFY_SHOP_DOMAINS" envSeparator:","`
	SessionSecret     string   `env:"SESSION_SECRET"`

	// Bearer token for the /api admin routes. The routes are disabled when unset.
	AdminAPIToken       string   `env:"ADMIN_API_TOKEN"`
	AdminAllowedOrigins []string `env:"ADMIN_ALLOWED_ORIGINS" envSeparator:","`

	// Disables webhook HMAC verification. Local testing only.
	SkipWebhookVerification bool `env:"SKIP_WEBHOOK_VERIFICATION" envDefault:"false"`

	LearnWorldsAPIBase   string        `env:"LEARNWORLDS_API_BASE" envDefault:"https://api.learnworlds.com"`
	LearnWorldsClientID  string        `env:"LEARNWORLDS_CLIENT_ID"`
	LearnWorldsAuthToken string        `env:"LEARNWORLDS_AUTH_TOKEN"`
	LearnWorldsTimeout   time.Duration `env:"LEARNWORLDS_TIMEOUT" envDefault:"20s"`
}

func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// NewFromMap parses the configuration from the given variables instead of the process environment
func NewFromMap(vars map[string]string) (Config, error) {
	c, err := env.ParseAsWithOptions[Config](env.Options{Environment: vars})
	if err != nil {
		return Config{}, err
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c *Config) validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: expected %s or %s", c.StorageBackend, StorageMongo, StorageMemory)
	}

	if c.WebhookEventTTL < 0 {
		return fmt.Errorf("invalid WEBHOOK_EVENT_TTL %s: must not be negative", c.WebhookEventTTL)
	}
	if c.LearnWorldsTimeout <= 0 {
		return fmt.Errorf("invalid LEARNWORLDS_TIMEOUT %s: must be positive", c.LearnWorldsTimeout)
	}

	c.AppURL = strings.TrimRight(c.AppURL, "/")

	domains := make([]string, 0, len(c.ShopDomains))
	for _, d := range c.ShopDomains {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	c.ShopDomains = domains

	origins := make([]string, 0, len(c.AdminAllowedOrigins))
	for _, o := range c.AdminAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.AdminAllowedOrigins = origins

	return nil
}

// SessionKey returns the key signing the OAuth session cookie
func (c Config) SessionKey() []byte {
	if c.SessionSecret != "" {
		return []byte(c.SessionSecret)
	}
	return []byte(c.ShopifyAPISecret)
}
