package domain

import "time"

// WebhookDelivery is one inbound webhook as received at the HTTP boundary.
// Body holds the exact raw bytes the signature was computed over.
type WebhookDelivery struct {
	Topic     string
	Shop      string
	Signature string
	Body      []byte
}

// WebhookNotification is published to live subscribers once a delivery has
// been processed
type WebhookNotification struct {
	WebhookID    string        `json:"webhookId"`
	Shop         string        `json:"shop"`
	Topic        string        `json:"topic"`
	Status       WebhookStatus `json:"status"`
	OrderID      string        `json:"orderId,omitempty"`
	Result       *OrderResult  `json:"result,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	ProcessedAt  time.Time     `json:"processedAt"`
}
