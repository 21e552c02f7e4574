package domain

import "encoding/json"

// LearnWorldsUser is a user as returned by the LearnWorlds API
type LearnWorldsUser struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	IsSuspended bool     `json:"is_suspended"`
	Tags        []string `json:"tags,omitempty"`
}

// LearnWorldsProduct is an entry of a LearnWorlds product or course listing
type LearnWorldsProduct struct {
	ID        string `json:"id"`
	ProductID string `json:"productId,omitempty"`
	Title     string `json:"title,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Matches reports whether the entry refers to the given product id
func (p LearnWorldsProduct) Matches(productID string) bool {
	return p.ID == productID || p.ProductID == productID
}

// LearnWorldsListing is a paginated LearnWorlds listing
type LearnWorldsListing struct {
	Data []LearnWorldsProduct `json:"data"`
	Meta json.RawMessage      `json:"meta,omitempty"`
}

// Contains reports whether any entry matches the product id
func (l *LearnWorldsListing) Contains(productID string) bool {
	if l == nil {
		return false
	}
	for _, p := range l.Data {
		if p.Matches(productID) {
			return true
		}
	}
	return false
}
