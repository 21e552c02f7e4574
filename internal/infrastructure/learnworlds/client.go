package learnworlds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/infrastructure/metrics"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/rs/zerolog"
)

const enrollmentJustification = "Shopify order enrollment"

type client struct {
	conn       domain.LearnWorldsConnection
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a LearnWorlds API client for one school. Every call is
// bounded by timeout; a call that exceeds it surfaces as *domain.RemoteAPIError.
func NewClient(conn domain.LearnWorldsConnection, timeout time.Duration, logger zerolog.Logger) ports.EnrollmentClient {
	return NewClientWithHTTP(conn, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP creates a client using the given HTTP client
func NewClientWithHTTP(conn domain.LearnWorldsConnection, httpClient *http.Client, logger zerolog.Logger) ports.EnrollmentClient {
	conn.BaseURL = strings.TrimRight(conn.BaseURL, "/")
	return &client{
		conn:       conn,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "learnworlds").Str("client_id", conn.ClientID).Logger(),
	}
}

func userPath(email string, suffix string) string {
	return "/users/" + url.PathEscape(email) + suffix
}

// GetUser retrieves a user by email, including suspended users
func (c *client) GetUser(ctx context.Context, email string) (*domain.LearnWorldsUser, error) {
	var user domain.LearnWorldsUser
	err := c.do(ctx, "get user", http.MethodGet, userPath(email, "?include_suspended=true"), nil, &user)

	var remoteErr *domain.RemoteAPIError
	if errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserCourses retrieves the courses assigned to a user
func (c *client) GetUserCourses(ctx context.Context, email string) (*domain.LearnWorldsListing, error) {
	var listing domain.LearnWorldsListing
	if err := c.do(ctx, "get user courses", http.MethodGet, userPath(email, "/courses"), nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetUserProducts retrieves the products (courses, bundles, subscriptions) of a user
func (c *client) GetUserProducts(ctx context.Context, email string) (*domain.LearnWorldsListing, error) {
	var listing domain.LearnWorldsListing
	if err := c.do(ctx, "get user products", http.MethodGet, userPath(email, "/products"), nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// Enroll grants a user access to a product
func (c *client) Enroll(ctx context.Context, email, productID, productType string, price float64, sendEmail bool) (*domain.EnrollmentRecord, error) {
	body := map[string]interface{}{
		"productId":             productID,
		"productType":           productType,
		"justification":         enrollmentJustification,
		"price":                 price,
		"send_enrollment_email": sendEmail,
	}

	var raw json.RawMessage
	if err := c.do(ctx, "enroll user", http.MethodPost, userPath(email, "/enrollment"), body, &raw); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("email", email).
		Str("product_id", productID).
		Str("product_type", productType).
		Msg("User enrolled")

	return &domain.EnrollmentRecord{Success: true, Response: raw}, nil
}

// Unenroll revokes a user's access to a product. A 404 is treated as success
// when the user's product list confirms the product is not assigned.
func (c *client) Unenroll(ctx context.Context, email, productID, productType string) (*domain.UnenrollmentRecord, error) {
	body := map[string]string{
		"productId":   productID,
		"productType": productType,
	}

	var raw json.RawMessage
	err := c.do(ctx, "unenroll user", http.MethodDelete, userPath(email, "/enrollment"), body, &raw)
	if err == nil {
		c.logger.Info().
			Str("email", email).
			Str("product_id", productID).
			Str("product_type", productType).
			Msg("User unenrolled")
		return &domain.UnenrollmentRecord{Success: true, Response: raw}, nil
	}

	var remoteErr *domain.RemoteAPIError
	if !errors.As(err, &remoteErr) || remoteErr.StatusCode != http.StatusNotFound {
		return nil, err
	}

	products, checkErr := c.GetUserProducts(ctx, email)
	if checkErr != nil {
		c.logger.Warn().
			Err(checkErr).
			Str("email", email).
			Str("product_id", productID).
			Msg("Could not verify enrollment status after 404")
		return nil, err
	}

	if !products.Contains(productID) {
		c.logger.Info().
			Str("email", email).
			Str("product_id", productID).
			Str("product_type", productType).
			Msg("User not enrolled in product, nothing to unenroll")
		return &domain.UnenrollmentRecord{
			Success:           true,
			Message:           "User not enrolled in this product",
			AlreadyUnenrolled: true,
		}, nil
	}

	return nil, err
}

// BulkUnenroll unenrolls each request in order. A failing item does not stop
// the remaining ones.
func (c *client) BulkUnenroll(ctx context.Context, requests []domain.EnrollmentRequest) []domain.BulkUnenrollResult {
	results := make([]domain.BulkUnenrollResult, 0, len(requests))
	for _, req := range requests {
		result := domain.BulkUnenrollResult{
			Email:     req.Email,
			ProductID: req.ProductID,
		}

		record, err := c.Unenroll(ctx, req.Email, req.ProductID, req.ProductType)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Success = true
			result.Result = record
		}
		results = append(results, result)
	}
	return results
}

// ListCourses retrieves the courses of the school
func (c *client) ListCourses(ctx context.Context) (*domain.LearnWorldsListing, error) {
	var listing domain.LearnWorldsListing
	if err := c.do(ctx, "get courses", http.MethodGet, "/courses", nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListBundles retrieves the bundles of the school
func (c *client) ListBundles(ctx context.Context) (*domain.LearnWorldsListing, error) {
	var listing domain.LearnWorldsListing
	if err := c.do(ctx, "get bundles", http.MethodGet, "/bundles", nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (c *client) do(ctx context.Context, operation, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.conn.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.conn.AuthToken)
	req.Header.Set("Lw-Client", c.conn.ClientID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.LearnWorldsRequestDuration.WithLabelValues(operation, "error").Observe(time.Since(start).Seconds())
		c.logger.Error().
			Err(err).
			Str("operation", operation).
			Str("method", method).
			Msg("LearnWorlds request failed")
		return &domain.RemoteAPIError{Operation: operation, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.LearnWorldsRequestDuration.
		WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).
		Observe(time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.RemoteAPIError{Operation: operation, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("operation", operation).
			Str("method", method).
			Int("status", resp.StatusCode).
			Str("body", string(respBody)).
			Msg("LearnWorlds returned non-success status")
		return &domain.RemoteAPIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], respBody...)
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return nil
}
