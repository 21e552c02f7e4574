package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"shopify-learnworlds-layer/internal/domain"

	"github.com/rs/zerolog"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// statusForError maps service errors onto HTTP status codes and error codes
func statusForError(err error) (int, string) {
	var validationErr *domain.ValidationError
	var remoteErr *domain.RemoteAPIError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrInvalidShopDomain):
		return http.StatusBadRequest, "invalid_shop"
	case errors.Is(err, domain.ErrUnhandledTopic):
		return http.StatusBadRequest, "unhandled_topic"
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid_signature"
	case errors.Is(err, domain.ErrShopInactive):
		return http.StatusForbidden, "shop_inactive"
	case errors.Is(err, domain.ErrShopNotConfigured):
		return http.StatusNotFound, "shop_not_configured"
	case errors.Is(err, domain.ErrLearnWorldsNotConfigured):
		return http.StatusConflict, "learnworlds_not_configured"
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway, "remote_api_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError writes the mapped error. Internal errors are logged and their
// message is not exposed.
func respondError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("Request failed")
		if status == http.StatusInternalServerError {
			writeError(w, status, code, "Internal server error")
			return
		}
	}
	writeError(w, status, code, err.Error())
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Field: "body", Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}
