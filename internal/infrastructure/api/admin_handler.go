package api

import (
	"net/http"
	"strconv"

	"shopify-learnworlds-layer/internal/application"
	"shopify-learnworlds-layer/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

type enrollmentBody struct {
	Shop        string  `json:"shop" validate:"required"`
	Email       string  `json:"email"`
	ProductID   string  `json:"productId"`
	ProductType string  `json:"productType"`
	Price       float64 `json:"price" validate:"gte=0"`
}

func (b enrollmentBody) request() domain.EnrollmentRequest {
	productType := b.ProductType
	if productType == "" {
		productType = domain.ProductTypeCourse
	}
	return domain.EnrollmentRequest{Email: b.Email, ProductID: b.ProductID, ProductType: productType}
}

type bulkUnenrollBody struct {
	Shop  string                     `json:"shop" validate:"required"`
	Items []domain.EnrollmentRequest `json:"items"`
}

type shopConfigBody struct {
	IsActive       *bool                         `json:"isActive"`
	LearnWorlds    *domain.LearnWorldsConnection `json:"learnworlds"`
	ProductMapping map[string]string             `json:"productMapping"`
}

type operationResponse struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result"`
}

// AdminHandler serves the JSON admin API
type AdminHandler struct {
	enrollment *application.EnrollmentService
	configs    *application.ConfigService
	dedup      *application.DedupStore
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewAdminHandler creates the admin API handler
func NewAdminHandler(
	enrollment *application.EnrollmentService,
	configs *application.ConfigService,
	dedup *application.DedupStore,
	logger zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		enrollment: enrollment,
		configs:    configs,
		dedup:      dedup,
		validate:   validator.New(),
		logger:     logger,
	}
}

func (h *AdminHandler) shopParam(r *http.Request) (string, error) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		return "", &domain.ValidationError{Field: "shop", Message: "Missing shop parameter"}
	}
	return application.NormalizeShopDomain(shop)
}

func (h *AdminHandler) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	if err := h.validate.Struct(v); err != nil {
		return &domain.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

// GetUser serves GET /api/user/{email}?shop=
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	shop, err := h.shopParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	overview, err := h.enrollment.GetUserOverview(r.Context(), shop, chi.URLParam(r, "email"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Enroll serves POST /api/enroll
func (h *AdminHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var body enrollmentBody
	if err := h.decodeAndValidate(r, &body); err != nil {
		respondError(w, h.logger, err)
		return
	}
	shop, err := application.NormalizeShopDomain(body.Shop)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	record, err := h.enrollment.Enroll(r.Context(), shop, body.request(), body.Price)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Result: record})
}

// Unenroll serves POST /api/unenroll
func (h *AdminHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	var body enrollmentBody
	if err := h.decodeAndValidate(r, &body); err != nil {
		respondError(w, h.logger, err)
		return
	}
	shop, err := application.NormalizeShopDomain(body.Shop)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	record, err := h.enrollment.Unenroll(r.Context(), shop, body.request())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Result: record})
}

// BulkUnenroll serves POST /api/unenroll/bulk
func (h *AdminHandler) BulkUnenroll(w http.ResponseWriter, r *http.Request) {
	var body bulkUnenrollBody
	if err := h.decodeAndValidate(r, &body); err != nil {
		respondError(w, h.logger, err)
		return
	}
	shop, err := application.NormalizeShopDomain(body.Shop)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	results, err := h.enrollment.BulkUnenroll(r.Context(), shop, body.Items)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Result: results})
}

// Catalog serves GET /api/catalog?shop=
func (h *AdminHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	shop, err := h.shopParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	catalog, err := h.enrollment.Catalog(r.Context(), shop)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// WebhookLogs serves GET /api/webhooks/logs?shop=&limit=
func (h *AdminHandler) WebhookLogs(w http.ResponseWriter, r *http.Request) {
	shop, err := h.shopParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, h.logger, &domain.ValidationError{Field: "limit", Message: "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxLogLimit)
	}

	events, err := h.dedup.ListByShop(r.Context(), shop, limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if events == nil {
		events = []*domain.WebhookEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ListShops serves GET /api/shops
func (h *AdminHandler) ListShops(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.configs.ListShops(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetShop serves GET /api/shops/{shop}
func (h *AdminHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	shop, err := application.NormalizeShopDomain(chi.URLParam(r, "shop"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	config, err := h.configs.GetShop(r.Context(), shop)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, config.Summary())
}

// UpdateShop serves PUT /api/shops/{shop}. Mappings are merged into the
// stored ones.
func (h *AdminHandler) UpdateShop(w http.ResponseWriter, r *http.Request) {
	shop, err := application.NormalizeShopDomain(chi.URLParam(r, "shop"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var body shopConfigBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, h.logger, err)
		return
	}

	config, err := h.configs.UpdateShop(r.Context(), shop, application.ShopConfigInput{
		IsActive:       body.IsActive,
		LearnWorlds:    body.LearnWorlds,
		ProductMapping: body.ProductMapping,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, config.Summary())
}
