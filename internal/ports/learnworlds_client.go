package ports

import (
	"context"

	"shopify-learnworlds-layer/internal/domain"
)

// EnrollmentClient defines the LearnWorlds operations used by the service.
// Non-2xx responses are returned as *domain.RemoteAPIError.
type EnrollmentClient interface {
	// GetUser returns nil, nil when LearnWorlds reports the user as not found
	GetUser(ctx context.Context, email string) (*domain.LearnWorldsUser, error)
	GetUserCourses(ctx context.Context, email string) (*domain.LearnWorldsListing, error)
	GetUserProducts(ctx context.Context, email string) (*domain.LearnWorldsListing, error)
	Enroll(ctx context.Context, email, productID, productType string, price float64, sendEmail bool) (*domain.EnrollmentRecord, error)
	Unenroll(ctx context.Context, email, productID, productType string) (*domain.UnenrollmentRecord, error)
	BulkUnenroll(ctx context.Context, requests []domain.EnrollmentRequest) []domain.BulkUnenrollResult
	ListCourses(ctx context.Context) (*domain.LearnWorldsListing, error)
	ListBundles(ctx context.Context) (*domain.LearnWorldsListing, error)
}

// EnrollmentClientFactory builds a client bound to one shop's LearnWorlds connection
type EnrollmentClientFactory interface {
	ForConnection(conn domain.LearnWorldsConnection) EnrollmentClient
}
