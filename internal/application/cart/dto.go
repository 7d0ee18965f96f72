package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/cart"
)

// AddItemRequest contains the input for adding a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID
	Quantity  int64
}

// SetQuantityRequest contains the input for changing a line's quantity
type SetQuantityRequest struct {
	Quantity int64
}

// CartItemResponse is a single cart line returned to clients
type CartItemResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	Quantity    int64     `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Subtotal    string    `json:"subtotal"`
}

// CartResponse is the cart view returned to clients
type CartResponse struct {
	ID         uuid.UUID          `json:"id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	Status     string             `json:"status"`
	Items      []CartItemResponse `json:"items"`
	ItemCount  int64              `json:"item_count"`
	Subtotal   string             `json:"subtotal"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func toCartResponse(c *cart.Cart) CartResponse {
	items := make([]CartItemResponse, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		items[i] = CartItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Subtotal:    item.Subtotal().StringFixed(2),
		}
	}

	return CartResponse{
		ID:         c.ID,
		CustomerID: c.CustomerID,
		Status:     string(c.Status),
		Items:      items,
		ItemCount:  c.ItemCount(),
		Subtotal:   c.Subtotal().StringFixed(2),
		UpdatedAt:  c.UpdatedAt,
	}
}
