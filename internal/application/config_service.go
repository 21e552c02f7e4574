package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/rs/zerolog"
)

// LookupFunc reads an environment variable, reporting whether it is set
type LookupFunc func(key string) (string, bool)

// ConfigService manages per-shop configuration
type ConfigService struct {
	repo     ports.ShopConfigRepository
	defaults domain.LearnWorldsConnection
	logger   zerolog.Logger
}

// NewConfigService creates a configuration service. defaults is the LearnWorlds
// connection given to shops created without one.
func NewConfigService(repo ports.ShopConfigRepository, defaults domain.LearnWorldsConnection, logger zerolog.Logger) *ConfigService {
	return &ConfigService{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
	}
}

// ShopConfigInput is a partial update of a shop configuration. Nil fields keep
// the stored value.
type ShopConfigInput struct {
	IsActive       *bool                         `json:"isActive,omitempty"`
	LearnWorlds    *domain.LearnWorldsConnection `json:"learnworlds,omitempty"`
	ProductMapping map[string]string             `json:"productMapping,omitempty"`
}

// ParseProductMappings reads mappings given either as a JSON object or as
// comma separated identifier:productId pairs. Malformed pairs are ignored.
func ParseProductMappings(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	mappings := make(map[string]string)
	if raw == "" {
		return mappings, nil
	}

	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
		if err := json.Unmarshal([]byte(raw), &mappings); err != nil {
			return nil, fmt.Errorf("failed to parse product mappings: %w", err)
		}
		return mappings, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		identifier, productID, found := strings.Cut(pair, ":")
		identifier = strings.TrimSpace(identifier)
		productID = strings.TrimSpace(productID)
		if !found || identifier == "" || productID == "" {
			continue
		}
		mappings[identifier] = productID
	}
	return mappings, nil
}

// ShopEnvKey builds a per-shop variable name, e.g. PRODUCT_MAPPINGS_DEMO_MYSHOPIFY_COM
func ShopEnvKey(prefix, shop string) string {
	return prefix + "_" + strings.ReplaceAll(strings.ToUpper(shop), ".", "_")
}

// ConfigureShopFromEnv upserts a shop from PRODUCT_MAPPINGS_<SHOP> (or
// PRODUCT_MAPPINGS) and SHOP_ACTIVE_<SHOP>. It returns nil when no mappings
// are defined for the shop.
func (s *ConfigService) ConfigureShopFromEnv(ctx context.Context, shop string, lookup LookupFunc) (*domain.ShopConfigSummary, error) {
	raw, ok := lookup(ShopEnvKey("PRODUCT_MAPPINGS", shop))
	if !ok || strings.TrimSpace(raw) == "" {
		raw, _ = lookup("PRODUCT_MAPPINGS")
	}

	mappings, err := ParseProductMappings(raw)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		s.logger.Warn().
			Str("shop", shop).
			Str("key", ShopEnvKey("PRODUCT_MAPPINGS", shop)).
			Msg("No product mappings found for shop")
		return nil, nil
	}

	active := true
	if value, ok := lookup(ShopEnvKey("SHOP_ACTIVE", shop)); ok && strings.TrimSpace(value) == "false" {
		active = false
	}

	if _, err := s.UpdateShop(ctx, shop, ShopConfigInput{IsActive: &active, ProductMapping: mappings}); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("shop", shop).
		Bool("isActive", active).
		Int("mappings", len(mappings)).
		Msg("Shop configured from environment")

	return &domain.ShopConfigSummary{
		Shop:          shop,
		IsActive:      active,
		MappingsCount: len(mappings),
		Mappings:      mappings,
	}, nil
}

// AutoConfigure configures every listed shop from the environment. A failing
// shop is logged and skipped.
func (s *ConfigService) AutoConfigure(ctx context.Context, shops []string, lookup LookupFunc) []domain.ShopConfigSummary {
	results := make([]domain.ShopConfigSummary, 0, len(shops))
	for _, shop := range shops {
		shop = strings.TrimSpace(shop)
		if shop == "" {
			continue
		}

		summary, err := s.ConfigureShopFromEnv(ctx, shop, lookup)
		if err != nil {
			s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to configure shop")
			continue
		}
		if summary != nil {
			results = append(results, *summary)
		}
	}
	return results
}

// GetShop returns domain.ErrShopNotConfigured when the shop is unknown
func (s *ConfigService) GetShop(ctx context.Context, shop string) (*domain.ShopConfig, error) {
	config, err := s.repo.Get(ctx, shop)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrShopNotConfigured, shop)
	}
	return config, nil
}

// ListShops returns the admin summaries of every configured shop
func (s *ConfigService) ListShops(ctx context.Context) ([]domain.ShopConfigSummary, error) {
	configs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ShopConfigSummary, 0, len(configs))
	for _, config := range configs {
		summaries = append(summaries, config.Summary())
	}
	return summaries, nil
}

// UpdateShop creates or merges a shop configuration. New shops start active
// with the default LearnWorlds connection; mappings are always overlaid and the
// active flag only changes when the input sets it.
func (s *ConfigService) UpdateShop(ctx context.Context, shop string, input ShopConfigInput) (*domain.ShopConfig, error) {
	existing, err := s.repo.Get(ctx, shop)
	if err != nil {
		return nil, err
	}

	update := &domain.ShopConfigUpdate{
		Shop:           shop,
		IsActive:       input.IsActive,
		ProductMapping: input.ProductMapping,
	}
	if existing == nil {
		update.LearnWorlds = s.defaults
	}
	if input.LearnWorlds != nil {
		update.LearnWorlds = *input.LearnWorlds
	}

	if err := update.NewConfig().Validate(); err != nil {
		return nil, &domain.ValidationError{Field: "shopConfig", Message: err.Error()}
	}

	config, err := s.repo.Upsert(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("failed to save shop config: %w", err)
	}

	s.logger.Info().
		Str("shop", shop).
		Bool("isActive", config.IsActive).
		Int("mappings", len(config.ProductMapping)).
		Msg("Shop configuration saved")

	return config, nil
}

// InstallShop records the OAuth access token of a shop and activates it
func (s *ConfigService) InstallShop(ctx context.Context, shop, accessToken, scope string) (*domain.ShopConfig, error) {
	existing, err := s.repo.Get(ctx, shop)
	if err != nil {
		return nil, err
	}

	active := true
	update := &domain.ShopConfigUpdate{
		Shop:        shop,
		IsActive:    &active,
		AccessToken: accessToken,
		Scope:       scope,
	}
	if existing == nil {
		update.LearnWorlds = s.defaults
	}

	config, err := s.repo.Upsert(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("failed to save installed shop: %w", err)
	}

	s.logger.Info().Str("shop", shop).Msg("Shop installed")
	return config, nil
}

// Deactivate marks a shop inactive. Unknown shops are ignored.
func (s *ConfigService) Deactivate(ctx context.Context, shop string) error {
	existing, err := s.repo.Get(ctx, shop)
	if err != nil {
		return err
	}
	if existing == nil {
		s.logger.Warn().Str("shop", shop).Msg("Deactivation requested for unknown shop")
		return nil
	}

	inactive := false
	if _, err := s.repo.Upsert(ctx, &domain.ShopConfigUpdate{Shop: shop, IsActive: &inactive}); err != nil {
		return fmt.Errorf("failed to deactivate shop: %w", err)
	}

	s.logger.Info().Str("shop", shop).Msg("Shop deactivated")
	return nil
}
