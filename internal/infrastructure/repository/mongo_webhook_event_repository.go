package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWebhookEventRepository implements WebhookEventRepository using MongoDB.
// The dedup id is the document _id, so InsertOne is the atomic create.
type MongoWebhookEventRepository struct {
	collection *mongo.Collection
}

// NewMongoWebhookEventRepository creates a new MongoDB dedup ledger
func NewMongoWebhookEventRepository(db *mongo.Database) *MongoWebhookEventRepository {
	return &MongoWebhookEventRepository{
		collection: db.Collection("webhook_events"),
	}
}

var _ ports.WebhookEventRepository = (*MongoWebhookEventRepository)(nil)

// EnsureIndexes creates the log index and, when ttl is positive, a TTL index
// expiring ledger entries.
func (r *MongoWebhookEventRepository) EnsureIndexes(ctx context.Context, ttl time.Duration) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "shop", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if ttl > 0 {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
		})
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create webhook event indexes: %w", err)
	}
	return nil
}

// Get retrieves a webhook event by its dedup id
func (r *MongoWebhookEventRepository) Get(ctx context.Context, id string) (*domain.WebhookEvent, error) {
	var event domain.WebhookEvent
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}
	return &event, nil
}

// Create inserts a webhook event
func (r *MongoWebhookEventRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	_, err := r.collection.InsertOne(ctx, event)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateWebhook
	}
	if err != nil {
		return fmt.Errorf("failed to create webhook event: %w", err)
	}
	return nil
}

// Update finalizes a processing webhook event
func (r *MongoWebhookEventRepository) Update(ctx context.Context, id string, update domain.WebhookEventUpdate) error {
	now := time.Now()
	set := bson.M{
		"status":      update.Status,
		"updatedAt":   now,
		"processedAt": now,
	}
	if update.OrderID != "" {
		set["orderId"] = update.OrderID
	}
	if update.ErrorMessage != "" {
		set["errorMessage"] = update.ErrorMessage
	}

	filter := bson.M{"_id": id, "status": domain.WebhookStatusProcessing}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update webhook event: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	existing, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrWebhookNotFound
	}
	return domain.ErrAlreadyFinalized
}

// ListByShop retrieves the newest webhook events of a shop
func (r *MongoWebhookEventRepository) ListByShop(ctx context.Context, shop string, limit int) ([]*domain.WebhookEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"shop": shop}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*domain.WebhookEvent
	for cursor.Next(ctx) {
		var event domain.WebhookEvent
		if err := cursor.Decode(&event); err != nil {
			return nil, fmt.Errorf("failed to decode webhook event: %w", err)
		}
		events = append(events, &event)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return events, nil
}
