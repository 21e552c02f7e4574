package domain

import "encoding/json"

// LineItemResult is the outcome of processing one order line item
type LineItemResult struct {
	ProductID            string              `json:"productId,omitempty"`
	VariantID            string              `json:"variantId,omitempty"`
	Name                 string              `json:"name,omitempty"`
	MappedIdentifier     string              `json:"mappedIdentifier,omitempty"`
	LearnWorldsProductID string              `json:"learnWorldsProductId,omitempty"`
	Success              bool                `json:"success"`
	Result               *UnenrollmentRecord `json:"result,omitempty"`
	Message              string              `json:"message,omitempty"`
	Error                string              `json:"error,omitempty"`
}

// ResultSummary counts line item outcomes
type ResultSummary struct {
	TotalItems int `json:"totalItems"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// OrderResult is the aggregated outcome of an order webhook
type OrderResult struct {
	Success        bool             `json:"success"`
	OrderID        string           `json:"orderId,omitempty"`
	Email          string           `json:"email,omitempty"`
	Topic          string           `json:"topic,omitempty"`
	ProcessedItems []LineItemResult `json:"processedItems,omitempty"`
	Summary        *ResultSummary   `json:"summary,omitempty"`
	Message        string           `json:"message,omitempty"`
}

// Summarize builds the summary counts from the processed items
func Summarize(items []LineItemResult) *ResultSummary {
	summary := &ResultSummary{TotalItems: len(items)}
	for _, item := range items {
		if item.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// ProcessResult is returned to the HTTP boundary for a single delivery
type ProcessResult struct {
	WebhookID string       `json:"webhookId"`
	Processed bool         `json:"processed"`
	Result    *OrderResult `json:"result"`
	Reason    string       `json:"reason,omitempty"`
}

// ProductTypeCourse is the LearnWorlds product type used for refunds
const ProductTypeCourse = "course"

// UnenrollmentRecord is the outcome of a LearnWorlds unenroll call
type UnenrollmentRecord struct {
	Success           bool            `json:"success"`
	Message           string          `json:"message,omitempty"`
	AlreadyUnenrolled bool            `json:"alreadyUnenrolled,omitempty"`
	Response          json.RawMessage `json:"response,omitempty"`
}

// EnrollmentRecord is the outcome of a LearnWorlds enroll call
type EnrollmentRecord struct {
	Success  bool            `json:"success"`
	Response json.RawMessage `json:"response,omitempty"`
}

// EnrollmentRequest identifies a customer and a LearnWorlds product
type EnrollmentRequest struct {
	Email       string `json:"email" validate:"required,email"`
	ProductID   string `json:"productId" validate:"required"`
	ProductType string `json:"productType" validate:"required,oneof=course bundle subscription"`
}

// Validate checks the request fields
func (r *EnrollmentRequest) Validate() error {
	return validate.Struct(r)
}

// BulkUnenrollResult is the per-item outcome of a bulk unenrollment
type BulkUnenrollResult struct {
	Email     string              `json:"email"`
	ProductID string              `json:"productId"`
	Success   bool                `json:"success"`
	Result    *UnenrollmentRecord `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
}
