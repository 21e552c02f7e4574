package ports

import "shopify-learnworlds-layer/internal/domain"

// WebhookPublisher broadcasts processed deliveries to live subscribers
type WebhookPublisher interface {
	Publish(notification *domain.WebhookNotification)
}
