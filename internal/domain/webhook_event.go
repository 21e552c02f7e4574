package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// WebhookStatus is the processing state of a webhook delivery
type WebhookStatus string

const (
	WebhookStatusPending    WebhookStatus = "pending"
	WebhookStatusProcessing WebhookStatus = "processing"
	WebhookStatusCompleted  WebhookStatus = "completed"
	WebhookStatusFailed     WebhookStatus = "failed"
)

// IsTerminal reports whether the status can no longer change
func (s WebhookStatus) IsTerminal() bool {
	return s == WebhookStatusCompleted || s == WebhookStatusFailed
}

// WebhookEvent is one entry of the dedup ledger
type WebhookEvent struct {
	ID           string        `json:"webhookId" bson:"_id"`
	Shop         string        `json:"shop" bson:"shop"`
	Topic        string        `json:"topic" bson:"topic"`
	OrderID      string        `json:"orderId,omitempty" bson:"orderId,omitempty"`
	Status       WebhookStatus `json:"status" bson:"status"`
	ErrorMessage string        `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updatedAt"`
	ProcessedAt  *time.Time    `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
}

// WebhookEventUpdate carries the terminal transition of an event
type WebhookEventUpdate struct {
	Status       WebhookStatus
	OrderID      string
	ErrorMessage string
}

// ComputeWebhookID derives the dedup id from topic, shop and the raw body.
// The same triple always yields the same id.
func ComputeWebhookID(topic, shop string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(topic))
	h.Write([]byte("-"))
	h.Write([]byte(shop))
	h.Write([]byte("-"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
