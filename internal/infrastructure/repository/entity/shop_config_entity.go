package entity

import (
	"sort"
	"time"

	"shopify-learnworlds-layer/internal/domain"
)

// MongoProductMappingDoc is one identifier mapping. Mappings are stored as an
// array because Shopify titles may contain characters not allowed in field names.
type MongoProductMappingDoc struct {
	Identifier string `bson:"identifier"`
	ProductID  string `bson:"productId"`
}

// MongoLearnWorldsDoc holds the LearnWorlds connection of a shop
type MongoLearnWorldsDoc struct {
	BaseURL   string `bson:"baseURL"`
	ClientID  string `bson:"clientId"`
	AuthToken string `bson:"authToken"`
}

// MongoShopConfigDoc represents a shop configuration in MongoDB
type MongoShopConfigDoc struct {
	Shop           string                   `bson:"_id"`
	IsActive       bool                     `bson:"isActive"`
	LearnWorlds    MongoLearnWorldsDoc      `bson:"learnworlds"`
	ProductMapping []MongoProductMappingDoc `bson:"productMapping"`
	AccessToken    string                   `bson:"accessToken,omitempty"`
	Scope          string                   `bson:"scope,omitempty"`
	Version        int64                    `bson:"version"`
	CreatedAt      time.Time                `bson:"createdAt"`
	UpdatedAt      time.Time                `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopConfigDoc) ToDomain() *domain.ShopConfig {
	mapping := make(map[string]string, len(d.ProductMapping))
	for _, m := range d.ProductMapping {
		mapping[m.Identifier] = m.ProductID
	}
	return &domain.ShopConfig{
		Shop:     d.Shop,
		IsActive: d.IsActive,
		LearnWorlds: domain.LearnWorldsConnection{
			BaseURL:   d.LearnWorlds.BaseURL,
			ClientID:  d.LearnWorlds.ClientID,
			AuthToken: d.LearnWorlds.AuthToken,
		},
		ProductMapping: mapping,
		AccessToken:    d.AccessToken,
		Scope:          d.Scope,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// MongoShopConfigDocFromDomain converts a domain entity to a MongoDB document
func MongoShopConfigDocFromDomain(config *domain.ShopConfig) *MongoShopConfigDoc {
	identifiers := make([]string, 0, len(config.ProductMapping))
	for identifier := range config.ProductMapping {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)

	mapping := make([]MongoProductMappingDoc, 0, len(identifiers))
	for _, identifier := range identifiers {
		mapping = append(mapping, MongoProductMappingDoc{
			Identifier: identifier,
			ProductID:  config.ProductMapping[identifier],
		})
	}

	return &MongoShopConfigDoc{
		Shop:     config.Shop,
		IsActive: config.IsActive,
		LearnWorlds: MongoLearnWorldsDoc{
			BaseURL:   config.LearnWorlds.BaseURL,
			ClientID:  config.LearnWorlds.ClientID,
			AuthToken: config.LearnWorlds.AuthToken,
		},
		ProductMapping: mapping,
		AccessToken:    config.AccessToken,
		Scope:          config.Scope,
		CreatedAt:      config.CreatedAt,
		UpdatedAt:      config.UpdatedAt,
	}
}
