package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/infrastructure/repository/entity"
	"shopify-learnworlds-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const upsertMaxAttempts = 3

// MongoShopConfigRepository implements ShopConfigRepository using MongoDB.
// Each shop is one document keyed by its domain; a version field guards merges.
type MongoShopConfigRepository struct {
	collection *mongo.Collection
}

// NewMongoShopConfigRepository creates a new MongoDB repository
func NewMongoShopConfigRepository(db *mongo.Database) ports.ShopConfigRepository {
	return &MongoShopConfigRepository{
		collection: db.Collection("shop_configs"),
	}
}

// Get retrieves the configuration of a shop
func (r *MongoShopConfigRepository) Get(ctx context.Context, shop string) (*domain.ShopConfig, error) {
	doc, err := r.find(ctx, shop)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return doc.ToDomain(), nil
}

// Put replaces the configuration of a shop, creating it when missing
func (r *MongoShopConfigRepository) Put(ctx context.Context, config *domain.ShopConfig) error {
	existing, err := r.find(ctx, config.Shop)
	if err != nil {
		return err
	}

	now := time.Now()
	doc := entity.MongoShopConfigDocFromDomain(config)
	doc.CreatedAt = now
	doc.Version = 1
	if existing != nil {
		doc.CreatedAt = existing.CreatedAt
		doc.Version = existing.Version + 1
	}
	doc.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": config.Shop}, doc, opts); err != nil {
		return fmt.Errorf("failed to save shop config: %w", err)
	}
	return nil
}

// Upsert creates the configuration or applies the update to the stored document.
// A concurrent writer makes the version filter miss and the update is retried
// against the fresh document.
func (r *MongoShopConfigRepository) Upsert(ctx context.Context, update *domain.ShopConfigUpdate) (*domain.ShopConfig, error) {
	for attempt := 0; attempt < upsertMaxAttempts; attempt++ {
		existing, err := r.find(ctx, update.Shop)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		if existing == nil {
			doc := entity.MongoShopConfigDocFromDomain(update.NewConfig())
			doc.Version = 1
			doc.CreatedAt = now
			doc.UpdatedAt = now

			_, err := r.collection.InsertOne(ctx, doc)
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to create shop config: %w", err)
			}
			return doc.ToDomain(), nil
		}

		merged := existing.ToDomain()
		merged.Apply(update)

		doc := entity.MongoShopConfigDocFromDomain(merged)
		doc.Version = existing.Version + 1
		doc.CreatedAt = existing.CreatedAt
		doc.UpdatedAt = now

		filter := bson.M{"_id": update.Shop, "version": existing.Version}
		result, err := r.collection.ReplaceOne(ctx, filter, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to update shop config: %w", err)
		}
		if result.MatchedCount == 0 {
			continue
		}
		return doc.ToDomain(), nil
	}

	return nil, fmt.Errorf("failed to upsert shop config %s: concurrent modification", update.Shop)
}

// List retrieves all shop configurations
func (r *MongoShopConfigRepository) List(ctx context.Context) ([]*domain.ShopConfig, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop configs: %w", err)
	}
	defer cursor.Close(ctx)

	var configs []*domain.ShopConfig
	for cursor.Next(ctx) {
		var doc entity.MongoShopConfigDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode shop config: %w", err)
		}
		configs = append(configs, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return configs, nil
}

func (r *MongoShopConfigRepository) find(ctx context.Context, shop string) (*entity.MongoShopConfigDoc, error) {
	var doc entity.MongoShopConfigDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": shop}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop config: %w", err)
	}
	return &doc, nil
}
