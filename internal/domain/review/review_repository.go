package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// RatingStats is the aggregate of all ratings for a product
type RatingStats struct {
	Average decimal.Decimal
	Count   int64
}

// ReviewRepository defines the interface for review persistence
type ReviewRepository interface {
	// FindByID finds a review by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// FindByProduct finds reviews for a product matching the filter
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]Review, error)

	// FindByProductAndCustomer finds a customer's review of a product
	FindByProductAndCustomer(ctx context.Context, productID, customerID uuid.UUID) (*Review, error)

	// Save creates or updates a review
	Save(ctx context.Context, r *Review) error

	// Delete deletes a review
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByProduct counts reviews for a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// StatsByProduct computes the average rating and count for a product
	StatsByProduct(ctx context.Context, productID uuid.UUID) (RatingStats, error)
}
