package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// ExternalID is a Shopify identifier that may arrive as a JSON number or string
type ExternalID string

// UnmarshalJSON accepts numbers, strings and null
func (id *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ExternalID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid identifier %s: %w", string(data), err)
	}
	*id = ExternalID(normalizeNumber(n.String()))
	return nil
}

// normalizeNumber writes a JSON number in plain decimal notation. Integer
// literals are returned untouched so ids above 2^53 keep every digit.
func normalizeNumber(literal string) string {
	if isIntegerLiteral(literal) {
		return literal
	}
	f, _, err := big.ParseFloat(literal, 10, 256, big.ToNearestEven)
	if err != nil {
		return literal
	}
	if f.IsInt() {
		i, _ := f.Int(nil)
		return i.String()
	}
	return f.Text('f', -1)
}

func isIntegerLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (id ExternalID) String() string {
	return string(id)
}

// LineItem is the subset of a Shopify order line item used for product mapping
type LineItem struct {
	ProductID ExternalID `json:"product_id"`
	VariantID ExternalID `json:"variant_id"`
	SKU       string     `json:"sku"`
	Title     string     `json:"title"`
	Name      string     `json:"name"`
	Quantity  int        `json:"quantity"`
}

// CandidateIdentifiers returns the identifiers to try against a product mapping,
// highest precedence first. Empty and "N/A" values are skipped.
func (li LineItem) CandidateIdentifiers() []string {
	raw := []string{
		li.ProductID.String(),
		li.VariantID.String(),
		li.SKU,
		li.Name,
		li.Title,
	}
	candidates := make([]string, 0, len(raw))
	for _, id := range raw {
		if id == "" || id == "N/A" {
			continue
		}
		candidates = append(candidates, id)
	}
	return candidates
}

// OrderRefundContext is the part of an order webhook needed to unenroll a customer
type OrderRefundContext struct {
	OrderID       string
	OrderName     string
	CustomerEmail string
	LineItems     []LineItem
}

type orderCustomer struct {
	ID        ExternalID `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
}

type orderPayload struct {
	ID        ExternalID     `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Customer  *orderCustomer `json:"customer"`
	LineItems []LineItem     `json:"line_items"`
}

// ParseOrderRefundContext decodes an order webhook body. The body may be the
// order itself or an object wrapping it under "order".
func ParseOrderRefundContext(body []byte) (*OrderRefundContext, error) {
	var wrapper struct {
		Order *orderPayload `json:"order"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, &ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON payload: %v", err)}
	}

	order := wrapper.Order
	if order == nil {
		order = &orderPayload{}
		if err := json.Unmarshal(body, order); err != nil {
			return nil, &ValidationError{Field: "body", Message: fmt.Sprintf("invalid order payload: %v", err)}
		}
	}

	email := strings.TrimSpace(order.Email)
	if email == "" && order.Customer != nil {
		email = strings.TrimSpace(order.Customer.Email)
	}

	return &OrderRefundContext{
		OrderID:       order.ID.String(),
		OrderName:     order.Name,
		CustomerEmail: email,
		LineItems:     order.LineItems,
	}, nil
}

// Validate checks the fields required before any remote call is made
func (o *OrderRefundContext) Validate() error {
	if o.OrderID == "" {
		return &ValidationError{Field: "id", Message: "Invalid refund data: missing order information"}
	}
	if len(o.LineItems) == 0 {
		return &ValidationError{Field: "line_items", Message: "No line items found in order"}
	}
	if o.CustomerEmail == "" {
		return &ValidationError{Field: "email", Message: "No customer email found"}
	}
	return nil
}
