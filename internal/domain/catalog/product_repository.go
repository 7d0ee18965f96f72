package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// FindByCategory finds all products in a category
	FindByCategory(ctx context.Context, categoryID uuid.UUID, filter shared.Filter) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock updates a product with optimistic lock checking
	SaveWithLock(ctx context.Context, product *Product) error

	// Delete deletes a product
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByCategory counts products referencing a category
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// ReserveStock atomically decrements available stock by quantity.
	// Fails with shared.ErrInsufficientStock when the remaining stock
	// would go negative; the decrement and the check are one statement.
	ReserveStock(ctx context.Context, productID uuid.UUID, quantity int64) error

	// ReleaseStock atomically returns previously reserved stock
	ReleaseStock(ctx context.Context, productID uuid.UUID, quantity int64) error

	// UpdateRatingStats updates the denormalized review aggregates
	UpdateRatingStats(ctx context.Context, productID uuid.UUID, average decimal.Decimal, count int64) error
}
