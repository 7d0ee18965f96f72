package cart

import (
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeCart = "Cart"

// Event type constants
const (
	EventTypeCartItemAdded  = "CartItemAdded"
	EventTypeCartCheckedOut = "CartCheckedOut"
)

// CartItemAddedEvent is published when a product is added to a cart
type CartItemAddedEvent struct {
	shared.BaseDomainEvent
	CartID     uuid.UUID `json:"cart_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int64     `json:"quantity"`
}

// NewCartItemAddedEvent creates a new CartItemAddedEvent
func NewCartItemAddedEvent(c *Cart, productID uuid.UUID, quantity int64) *CartItemAddedEvent {
	return &CartItemAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCartItemAdded, AggregateTypeCart, c.ID),
		CartID:          c.ID,
		CustomerID:      c.CustomerID,
		ProductID:       productID,
		Quantity:        quantity,
	}
}

// CartCheckedOutEvent is published when a cart is converted to an order
type CartCheckedOutEvent struct {
	shared.BaseDomainEvent
	CartID     uuid.UUID `json:"cart_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	ItemCount  int64     `json:"item_count"`
}

// NewCartCheckedOutEvent creates a new CartCheckedOutEvent
func NewCartCheckedOutEvent(c *Cart) *CartCheckedOutEvent {
	return &CartCheckedOutEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCartCheckedOut, AggregateTypeCart, c.ID),
		CartID:          c.ID,
		CustomerID:      c.CustomerID,
		ItemCount:       c.ItemCount(),
	}
}
