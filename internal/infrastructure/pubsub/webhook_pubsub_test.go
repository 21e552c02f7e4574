package pubsub

import (
	"context"
	"testing"
	"time"

	"shopify-learnworlds-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch *WebhookEventChannel) *domain.WebhookNotification {
	t.Helper()
	select {
	case n := <-ch.Events:
		return n
	case <-time.After(time.Second):
		t.Fatal("no notification received")
		return nil
	}
}

func TestWebhookPubSub_PublishFiltered(t *testing.T) {
	ps := NewWebhookPubSub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all := ps.Subscribe(ctx, nil)
	demoOnly := ps.Subscribe(ctx, &WebhookEventFilter{Shop: "demo.myshopify.com"})
	cancelledOnly := ps.Subscribe(ctx, &WebhookEventFilter{Topics: []string{"orders/cancelled"}})
	assert.NotEqual(t, all.ID, demoOnly.ID)

	ps.Publish(&domain.WebhookNotification{WebhookID: "1", Shop: "demo.myshopify.com", Topic: "orders/refunded"})

	assert.Equal(t, "1", receive(t, all).WebhookID)
	assert.Equal(t, "1", receive(t, demoOnly).WebhookID)
	assert.Len(t, cancelledOnly.Events, 0)
}

func TestWebhookPubSub_UnsubscribeOnCancel(t *testing.T) {
	ps := NewWebhookPubSub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	channel := ps.Subscribe(ctx, nil)
	require.Equal(t, 1, ps.Stats()["active_subscriptions"])

	cancel()

	select {
	case <-channel.Done:
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
	assert.Equal(t, 0, ps.Stats()["active_subscriptions"])
}

func TestWebhookPubSub_FullBufferDoesNotBlock(t *testing.T) {
	ps := NewWebhookPubSub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := ps.Subscribe(ctx, nil)
	for i := 0; i < channelBufferSize+5; i++ {
		ps.Publish(&domain.WebhookNotification{Topic: "orders/refunded"})
	}

	assert.Len(t, channel.Events, channelBufferSize)
}
