package application

import (
	"context"
	"fmt"

	"shopify-learnworlds-layer/internal/domain"
	"shopify-learnworlds-layer/internal/ports"

	"github.com/rs/zerolog"
)

// EnrollmentService runs manual LearnWorlds operations on behalf of a shop
type EnrollmentService struct {
	configs *ConfigService
	clients ports.EnrollmentClientFactory
	logger  zerolog.Logger
}

// NewEnrollmentService creates an enrollment service
func NewEnrollmentService(configs *ConfigService, clients ports.EnrollmentClientFactory, logger zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		configs: configs,
		clients: clients,
		logger:  logger,
	}
}

// UserOverview is a LearnWorlds user with its assignments. User is nil when
// LearnWorlds does not know the email.
type UserOverview struct {
	User     *domain.LearnWorldsUser    `json:"user"`
	Courses  *domain.LearnWorldsListing `json:"courses"`
	Products *domain.LearnWorldsListing `json:"products"`
}

// Catalog lists what a school sells
type Catalog struct {
	Courses *domain.LearnWorldsListing `json:"courses"`
	Bundles *domain.LearnWorldsListing `json:"bundles"`
}

func (s *EnrollmentService) clientFor(ctx context.Context, shop string) (ports.EnrollmentClient, error) {
	config, err := s.configs.GetShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	if !config.LearnWorldsConfigured() {
		return nil, fmt.Errorf("%w for shop %s", domain.ErrLearnWorldsNotConfigured, shop)
	}
	return s.clients.ForConnection(config.LearnWorlds), nil
}

// GetUserOverview fetches a user together with its courses and products
func (s *EnrollmentService) GetUserOverview(ctx context.Context, shop, email string) (*UserOverview, error) {
	client, err := s.clientFor(ctx, shop)
	if err != nil {
		return nil, err
	}

	user, err := client.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}
	overview := &UserOverview{User: user}
	if user == nil {
		return overview, nil
	}

	if overview.Courses, err = client.GetUserCourses(ctx, email); err != nil {
		return nil, err
	}
	if overview.Products, err = client.GetUserProducts(ctx, email); err != nil {
		return nil, err
	}
	return overview, nil
}

// Enroll grants a product to a user. LearnWorlds sends its enrollment email.
func (s *EnrollmentService) Enroll(ctx context.Context, shop string, req domain.EnrollmentRequest, price float64) (*domain.EnrollmentRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, &domain.ValidationError{Field: "enrollment", Message: err.Error()}
	}

	client, err := s.clientFor(ctx, shop)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("shop", shop).
		Str("email", req.Email).
		Str("productId", req.ProductID).
		Msg("Manual enrollment")

	return client.Enroll(ctx, req.Email, req.ProductID, req.ProductType, price, true)
}

// Unenroll revokes a product from a user
func (s *EnrollmentService) Unenroll(ctx context.Context, shop string, req domain.EnrollmentRequest) (*domain.UnenrollmentRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, &domain.ValidationError{Field: "enrollment", Message: err.Error()}
	}

	client, err := s.clientFor(ctx, shop)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("shop", shop).
		Str("email", req.Email).
		Str("productId", req.ProductID).
		Msg("Manual unenrollment")

	return client.Unenroll(ctx, req.Email, req.ProductID, req.ProductType)
}

// BulkUnenroll revokes several products one after another
func (s *EnrollmentService) BulkUnenroll(ctx context.Context, shop string, reqs []domain.EnrollmentRequest) ([]domain.BulkUnenrollResult, error) {
	if len(reqs) == 0 {
		return nil, &domain.ValidationError{Field: "items", Message: "No unenrollment items given"}
	}
	for i := range reqs {
		if err := reqs[i].Validate(); err != nil {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("items[%d]", i), Message: err.Error()}
		}
	}

	client, err := s.clientFor(ctx, shop)
	if err != nil {
		return nil, err
	}
	return client.BulkUnenroll(ctx, reqs), nil
}

// Catalog lists the school's courses and bundles
func (s *EnrollmentService) Catalog(ctx context.Context, shop string) (*Catalog, error) {
	client, err := s.clientFor(ctx, shop)
	if err != nil {
		return nil, err
	}

	courses, err := client.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	bundles, err := client.ListBundles(ctx)
	if err != nil {
		return nil, err
	}
	return &Catalog{Courses: courses, Bundles: bundles}, nil
}
