package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindByPaymentIntent finds an order by its payment processor reference
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*Order, error)

	// FindByCustomer finds a customer's orders matching the filter
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindAll finds all orders matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Save creates or updates an order together with its items
	Save(ctx context.Context, o *Order) error

	// SaveWithLock updates an order with optimistic lock checking
	SaveWithLock(ctx context.Context, o *Order) error

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByCustomer counts a customer's orders matching the filter
	CountByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (int64, error)
}
