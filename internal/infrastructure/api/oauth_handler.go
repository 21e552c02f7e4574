package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"shopify-learnworlds-layer/internal/application"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

const (
	oauthSessionName = "shopify_oauth"
	oauthStateKey    = "state"
	oauthShopKey     = "shop"
	oauthSessionTTL  = 600
)

type installResponse struct {
	Success  bool                              `json:"success"`
	Shop     string                            `json:"shop"`
	Webhooks []application.WebhookRegistration `json:"webhooks"`
}

// OAuthHandler runs the Shopify app install flow. The state nonce travels in
// a signed session cookie between /auth and /auth/callback.
type OAuthHandler struct {
	install *application.InstallService
	store   sessions.Store
	secure  bool
	logger  zerolog.Logger
}

// NewOAuthHandler creates the OAuth handler. secure marks the session cookie HTTPS only.
func NewOAuthHandler(install *application.InstallService, store sessions.Store, secure bool, logger zerolog.Logger) *OAuthHandler {
	return &OAuthHandler{
		install: install,
		store:   store,
		secure:  secure,
		logger:  logger,
	}
}

// Begin serves GET /auth?shop=
func (h *OAuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	shop, err := application.NormalizeShopDomain(r.URL.Query().Get("shop"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_shop", "Missing or invalid shop parameter")
		return
	}

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		h.logger.Error().Err(err).Msg("Failed to generate state")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}
	state := hex.EncodeToString(stateBytes)

	authURL, err := h.install.GenerateAuthURL(shop, state)
	if err != nil {
		h.logger.Error().Err(err).Str("shop", shop).Msg("Failed to build authorize URL")
		writeError(w, http.StatusInternalServerError, "internal_error", "Authentication failed")
		return
	}

	// A cookie that fails to decode yields a fresh session, which is what we want here.
	session, _ := h.store.Get(r, oauthSessionName)
	session.Options = h.sessionOptions(oauthSessionTTL)
	session.Values[oauthStateKey] = state
	session.Values[oauthShopKey] = shop
	if err := session.Save(r, w); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save OAuth session")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	h.logger.Info().Str("shop", shop).Msg("Redirecting to Shopify for app install")
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback serves GET /auth/callback
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("shop") == "" || query.Get("code") == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "Missing shop or code parameter")
		return
	}

	session, err := h.store.Get(r, oauthSessionName)
	if err != nil || session.IsNew {
		writeError(w, http.StatusUnauthorized, "invalid_state", "OAuth session not found")
		return
	}
	expectedState, _ := session.Values[oauthStateKey].(string)
	expectedShop, _ := session.Values[oauthShopKey].(string)

	shop, err := application.NormalizeShopDomain(query.Get("shop"))
	if err != nil || expectedState == "" ||
		subtle.ConstantTimeCompare([]byte(expectedState), []byte(query.Get("state"))) != 1 ||
		shop != expectedShop {
		h.logger.Warn().Str("shop", query.Get("shop")).Msg("OAuth state mismatch")
		writeError(w, http.StatusUnauthorized, "invalid_state", "OAuth state mismatch")
		return
	}

	session.Options = h.sessionOptions(-1)
	if err := session.Save(r, w); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to clear OAuth session")
	}

	result, err := h.install.CompleteInstall(r.Context(), r.URL)
	if err != nil {
		status, code := statusForError(err)
		if status == http.StatusInternalServerError || status == http.StatusBadGateway {
			h.logger.Error().Err(err).Str("shop", shop).Msg("Authentication callback failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "Authentication callback failed")
			return
		}
		writeError(w, status, code, err.Error())
		return
	}

	h.logger.Info().
		Str("shop", result.Shop).
		Int("webhooks", len(result.Webhooks)).
		Msg("App installed")

	writeJSON(w, http.StatusOK, installResponse{
		Success:  true,
		Shop:     result.Shop,
		Webhooks: result.Webhooks,
	})
}

func (h *OAuthHandler) sessionOptions(maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
