package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrDuplicateWebhook  = errors.New("webhook already recorded")
	ErrWebhookNotFound   = errors.New("webhook event not found")
	ErrAlreadyFinalized  = errors.New("webhook event already finalized")
	ErrUnhandledTopic    = errors.New("unhandled webhook topic")
	ErrShopNotConfigured = errors.New("shop not configured")
	ErrShopInactive      = errors.New("shop is inactive")
	ErrMappingNotFound   = errors.New("no LearnWorlds product mapping found")

	ErrLearnWorldsNotConfigured = errors.New("LearnWorlds connection not configured")
	ErrInvalidShopDomain        = errors.New("invalid shop domain")
)

// ValidationError reports a malformed or incomplete webhook payload
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteAPIError is a non-2xx or failed call to the LearnWorlds API.
// StatusCode is 0 when the request never got a response.
type RemoteAPIError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("failed to %s: status %d, body: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}
