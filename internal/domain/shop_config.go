package domain

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// LearnWorldsConnection holds the credentials used to call a LearnWorlds school API
type LearnWorldsConnection struct {
	BaseURL   string `json:"baseURL" validate:"omitempty,url"`
	ClientID  string `json:"clientId" validate:"required_with=BaseURL"`
	AuthToken string `json:"authToken" validate:"required_with=BaseURL"`
}

// ShopConfig is the per-tenant configuration for a Shopify shop
type ShopConfig struct {
	Shop           string                `json:"shop" validate:"required,hostname_rfc1123"`
	IsActive       bool                  `json:"isActive"`
	LearnWorlds    LearnWorldsConnection `json:"learnworlds"`
	ProductMapping map[string]string     `json:"productMapping" validate:"dive,keys,required,endkeys,required"`
	AccessToken    string                `json:"-"`
	Scope          string                `json:"scope,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// Validate checks the configuration before it is stored
func (c *ShopConfig) Validate() error {
	return validate.Struct(c)
}

// MergeMappings overlays the given mappings onto the existing ones.
// Existing identifiers not present in overlay are kept.
func (c *ShopConfig) MergeMappings(overlay map[string]string) {
	if c.ProductMapping == nil {
		c.ProductMapping = make(map[string]string, len(overlay))
	}
	for identifier, productID := range overlay {
		c.ProductMapping[identifier] = productID
	}
}

// ShopConfigUpdate is a partial change applied by the repository on top of the
// stored configuration. A nil IsActive and empty connection fields keep the
// stored values; mappings are overlaid.
type ShopConfigUpdate struct {
	Shop           string
	IsActive       *bool
	LearnWorlds    LearnWorldsConnection
	ProductMapping map[string]string
	AccessToken    string
	Scope          string
}

// NewConfig builds the configuration stored when the shop does not exist yet.
// New shops are active unless the update says otherwise.
func (u *ShopConfigUpdate) NewConfig() *ShopConfig {
	config := &ShopConfig{
		Shop:        u.Shop,
		IsActive:    true,
		LearnWorlds: u.LearnWorlds,
		AccessToken: u.AccessToken,
		Scope:       u.Scope,
	}
	if u.IsActive != nil {
		config.IsActive = *u.IsActive
	}
	config.MergeMappings(u.ProductMapping)
	return config
}

// Apply merges an update onto the stored configuration
func (c *ShopConfig) Apply(update *ShopConfigUpdate) {
	if update.IsActive != nil {
		c.IsActive = *update.IsActive
	}
	if update.LearnWorlds.BaseURL != "" {
		c.LearnWorlds.BaseURL = update.LearnWorlds.BaseURL
	}
	if update.LearnWorlds.ClientID != "" {
		c.LearnWorlds.ClientID = update.LearnWorlds.ClientID
	}
	if update.LearnWorlds.AuthToken != "" {
		c.LearnWorlds.AuthToken = update.LearnWorlds.AuthToken
	}
	if update.AccessToken != "" {
		c.AccessToken = update.AccessToken
	}
	if update.Scope != "" {
		c.Scope = update.Scope
	}
	c.MergeMappings(update.ProductMapping)
}

// Clone returns a deep copy so callers cannot mutate stored state
func (c *ShopConfig) Clone() *ShopConfig {
	clone := *c
	clone.ProductMapping = make(map[string]string, len(c.ProductMapping))
	for k, v := range c.ProductMapping {
		clone.ProductMapping[k] = v
	}
	return &clone
}

// LearnWorldsConfigured reports whether every connection field is present
func (c *ShopConfig) LearnWorldsConfigured() bool {
	return c.LearnWorlds.BaseURL != "" && c.LearnWorlds.ClientID != "" && c.LearnWorlds.AuthToken != ""
}

// ShopConfigSummary is the admin view of a shop configuration
type ShopConfigSummary struct {
	Shop                  string            `json:"shop"`
	IsActive              bool              `json:"isActive"`
	MappingsCount         int               `json:"mappingsCount"`
	Mappings              map[string]string `json:"mappings"`
	LearnWorldsConfigured bool              `json:"learnworldsConfigured"`
}

// Summary builds the admin view without credentials
func (c *ShopConfig) Summary() ShopConfigSummary {
	mappings := c.ProductMapping
	if mappings == nil {
		mappings = map[string]string{}
	}
	return ShopConfigSummary{
		Shop:                  c.Shop,
		IsActive:              c.IsActive,
		MappingsCount:         len(mappings),
		Mappings:              mappings,
		LearnWorldsConfigured: c.LearnWorldsConfigured(),
	}
}
