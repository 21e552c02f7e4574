package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopConfig_Apply(t *testing.T) {
	stored := func() *ShopConfig {
		return &ShopConfig{
			Shop:     "demo.myshopify.com",
			IsActive: true,
			LearnWorlds: LearnWorldsConnection{
				BaseURL:   "https://school.example.com",
				ClientID:  "client",
				AuthToken: "token",
			},
			ProductMapping: map[string]string{"1822": "old", "SKU-1": "course_1"},
		}
	}

	t.Run("overlays fields that are set", func(t *testing.T) {
		config := stored()
		inactive := false

		config.Apply(&ShopConfigUpdate{
			Shop:           "demo.myshopify.com",
			IsActive:       &inactive,
			LearnWorlds:    LearnWorldsConnection{AuthToken: "rotated"},
			ProductMapping: map[string]string{"1822": "pro_bundle_123"},
		})

		assert.False(t, config.IsActive)
		assert.Equal(t, "https://school.example.com", config.LearnWorlds.BaseURL)
		assert.Equal(t, "rotated", config.LearnWorlds.AuthToken)
		assert.Equal(t, map[string]string{"1822": "pro_bundle_123", "SKU-1": "course_1"}, config.ProductMapping)
	})

	t.Run("keeps active flag when unset", func(t *testing.T) {
		config := stored()
		config.IsActive = false

		config.Apply(&ShopConfigUpdate{Shop: "demo.myshopify.com", ProductMapping: map[string]string{"SKU-2": "course_2"}})

		assert.False(t, config.IsActive)
		assert.Equal(t, "course_2", config.ProductMapping["SKU-2"])
	})
}

func TestShopConfigUpdate_NewConfig(t *testing.T) {
	config := (&ShopConfigUpdate{Shop: "demo.myshopify.com", ProductMapping: map[string]string{"A": "c1"}}).NewConfig()
	assert.True(t, config.IsActive)
	assert.Equal(t, map[string]string{"A": "c1"}, config.ProductMapping)

	inactive := false
	config = (&ShopConfigUpdate{Shop: "demo.myshopify.com", IsActive: &inactive}).NewConfig()
	assert.False(t, config.IsActive)
	assert.NotNil(t, config.ProductMapping)
}

func TestShopConfig_Clone(t *testing.T) {
	original := &ShopConfig{Shop: "demo.myshopify.com", ProductMapping: map[string]string{"a": "b"}}

	clone := original.Clone()
	clone.ProductMapping["c"] = "d"

	assert.Len(t, original.ProductMapping, 1)
}

func TestShopConfig_Validate(t *testing.T) {
	valid := func() *ShopConfig {
		return &ShopConfig{
			Shop: "demo.myshopify.com",
			LearnWorlds: LearnWorldsConnection{
				BaseURL:   "https://school.example.com",
				ClientID:  "client",
				AuthToken: "token",
			},
			ProductMapping: map[string]string{"1822": "pro_bundle_123"},
		}
	}

	require.NoError(t, valid().Validate())
	require.NoError(t, (&ShopConfig{Shop: "demo.myshopify.com"}).Validate())

	tests := []struct {
		name   string
		mutate func(c *ShopConfig)
	}{
		{name: "missing shop", mutate: func(c *ShopConfig) { c.Shop = "" }},
		{name: "invalid shop", mutate: func(c *ShopConfig) { c.Shop = "not a host!" }},
		{name: "invalid base url", mutate: func(c *ShopConfig) { c.LearnWorlds.BaseURL = "school" }},
		{name: "base url without token", mutate: func(c *ShopConfig) { c.LearnWorlds.AuthToken = "" }},
		{name: "empty mapping value", mutate: func(c *ShopConfig) { c.ProductMapping["x"] = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestShopConfig_Summary(t *testing.T) {
	config := &ShopConfig{
		Shop:        "demo.myshopify.com",
		IsActive:    true,
		AccessToken: "shpat_secret",
		LearnWorlds: LearnWorldsConnection{BaseURL: "https://school.example.com"},
	}

	summary := config.Summary()

	assert.Equal(t, "demo.myshopify.com", summary.Shop)
	assert.Equal(t, 0, summary.MappingsCount)
	assert.NotNil(t, summary.Mappings)
	assert.False(t, summary.LearnWorldsConfigured)
}
