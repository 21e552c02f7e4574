package repository

import (
	"context"
	"testing"
	"time"

	"shopify-learnworlds-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func webhookEventDoc(id, status string) bson.D {
	now := time.Now()
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "shop", Value: "demo.myshopify.com"},
		{Key: "topic", Value: "orders/refunded"},
		{Key: "status", Value: status},
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	}
}

func TestMongoWebhookEventRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongoWebhookEventRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), newProcessingEvent("id-1", "demo.myshopify.com", time.Now()))

		assert.NoError(mt, err)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		repo := NewMongoWebhookEventRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Create(context.Background(), newProcessingEvent("id-1", "demo.myshopify.com", time.Now()))

		assert.ErrorIs(mt, err, domain.ErrDuplicateWebhook)
	})

	mt.Run("get", func(mt *mtest.T) {
		repo := NewMongoWebhookEventRepository(mt.DB)
		ns := mt.Coll.Database().Name() + ".webhook_events"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, webhookEventDoc("id-1", "completed")))

		event, err := repo.Get(context.Background(), "id-1")

		require.NoError(mt, err)
		require.NotNil(mt, event)
		assert.Equal(mt, "id-1", event.ID)
		assert.Equal(mt, domain.WebhookStatusCompleted, event.Status)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoWebhookEventRepository(mt.DB)
		ns := mt.Coll.Database().Name() + ".webhook_events"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		event, err := repo.Get(context.Background(), "missing")

		require.NoError(mt, err)
		assert.Nil(mt, event)
	})

	mt.Run("update processing", func(mt *mtest.T) {
		repo := NewMongoWebhookEventRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.Update(context.Background(), "id-1", domain.WebhookEventUpdate{Status: domain.WebhookStatusCompleted})

		assert.NoError(mt, err)
	})

	mt.Run("update finalized", func(mt *mtest.T) {
		repo := NewMongoWebhookEventRepository(mt.DB)
		ns := mt.Coll.Database().Name() + ".webhook_events"
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, webhookEventDoc("id-1", "completed")),
		)

		err := repo.Update(context.Background(), "id-1", domain.WebhookEventUpdate{Status: domain.WebhookStatusFailed})

		assert.ErrorIs(mt, err, domain.ErrAlreadyFinalized)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := NewMongoWebhookEventRepository(mt.DB)
		ns := mt.Coll.Database().Name() + ".webhook_events"
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		err := repo.Update(context.Background(), "missing", domain.WebhookEventUpdate{Status: domain.WebhookStatusFailed})

		assert.ErrorIs(mt, err, domain.ErrWebhookNotFound)
	})
}

func TestMongoShopConfigRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get", func(mt *mtest.T) {
		repo := NewMongoShopConfigRepository(mt.DB)
		ns := mt.Coll.Database().Name() + ".shop_configs"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "demo.myshopify.com"},
			{Key: "isActive", Value: true},
			{Key: "learnworlds", Value: bson.D{
				{Key: "baseURL", Value: "https://school.test"},
				{Key: "clientId", Value: "client"},
				{Key: "authToken", Value: "token"},
			}},
			{Key: "productMapping", Value: bson.A{
				bson.D{{Key: "identifier", Value: "SKU-1"}, {Key: "productId", Value: "course-1"}},
			}},
			{Key: "version", Value: int64(2)},
		}))

		config, err := repo.Get(context.Background(), "demo.myshopify.com")

		require.NoError(mt, err)
		require.NotNil(mt, config)
		assert.True(mt, config.IsActive)
		assert.True(mt, config.LearnWorldsConfigured())
		assert.Equal(mt, map[string]string{"SKU-1": "course-1"}, config.ProductMapping)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoShopConfigRepository(mt.DB)
		ns := mt.Coll.Database().Name() + ".shop_configs"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		config, err := repo.Get(context.Background(), "missing.myshopify.com")

		require.NoError(mt, err)
		assert.Nil(mt, config)
	})

	mt.Run("upsert new", func(mt *mtest.T) {
		repo := NewMongoShopConfigRepository(mt.DB)
		ns := mt.Coll.Database().Name() + ".shop_configs"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		config, err := repo.Upsert(context.Background(), &domain.ShopConfigUpdate{
			Shop:           "demo.myshopify.com",
			ProductMapping: map[string]string{"A": "c1"},
		})

		require.NoError(mt, err)
		assert.Equal(mt, map[string]string{"A": "c1"}, config.ProductMapping)
	})

	mt.Run("upsert merges existing", func(mt *mtest.T) {
		repo := NewMongoShopConfigRepository(mt.DB)
		ns := mt.Coll.Database().Name() + ".shop_configs"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "demo.myshopify.com"},
				{Key: "isActive", Value: false},
				{Key: "productMapping", Value: bson.A{
					bson.D{{Key: "identifier", Value: "A"}, {Key: "productId", Value: "c1"}},
				}},
				{Key: "version", Value: int64(1)},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		config, err := repo.Upsert(context.Background(), &domain.ShopConfigUpdate{
			Shop:           "demo.myshopify.com",
			ProductMapping: map[string]string{"B": "c2"},
		})

		require.NoError(mt, err)
		assert.False(mt, config.IsActive)
		assert.Equal(mt, map[string]string{"A": "c1", "B": "c2"}, config.ProductMapping)
	})
}
