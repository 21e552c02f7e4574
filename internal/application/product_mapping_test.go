package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveProductMapping(t *testing.T) {
	mapping := map[string]string{
		"1822":       "pro_bundle_123",
		"Pro Bundle": "pro_bundle_123",
		"SKU-9":      "course_sku",
		"Go Course":  "course_title",
	}

	tests := []struct {
		name           string
		candidates     []string
		wantProduct    string
		wantIdentifier string
		wantOK         bool
	}{
		{
			name:           "product id wins over title",
			candidates:     []string{"1822", "Pro Bundle"},
			wantProduct:    "pro_bundle_123",
			wantIdentifier: "1822",
			wantOK:         true,
		},
		{
			name:           "falls through to later candidate",
			candidates:     []string{"999", "111", "SKU-9", "Go Course"},
			wantProduct:    "course_sku",
			wantIdentifier: "SKU-9",
			wantOK:         true,
		},
		{
			name:       "exact match only",
			candidates: []string{"go course", "pro bundle"},
		},
		{
			name: "no candidates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, identifier, ok := ResolveProductMapping(tt.candidates, mapping)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantProduct, product)
			assert.Equal(t, tt.wantIdentifier, identifier)
		})
	}
}

func TestResolveProductMapping_NilMapping(t *testing.T) {
	_, _, ok := ResolveProductMapping([]string{"1822"}, nil)

	assert.False(t, ok)
}
