package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	// FindByID finds a cart by its ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)

	// FindActiveByCustomer finds the customer's active cart, items included
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*Cart, error)

	// Save creates or updates a cart together with its items
	Save(ctx context.Context, cart *Cart) error

	// SaveWithLock updates a cart with optimistic lock checking
	SaveWithLock(ctx context.Context, cart *Cart) error

	// FindIdleActive finds active carts not touched since the given
	// time, items included, up to limit
	FindIdleActive(ctx context.Context, before time.Time, limit int) ([]Cart, error)

	// Delete deletes a cart and its items
	Delete(ctx context.Context, id uuid.UUID) error
}
