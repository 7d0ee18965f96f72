package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/order"
)

// ShippingAddressInput contains the shipping address for checkout
type ShippingAddressInput struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

func (a ShippingAddressInput) toDomain() order.ShippingAddress {
	return order.ShippingAddress{
		Name:       a.Name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

// CheckoutRequest contains the input for placing an order. The
// idempotency key is optional; when present a resubmission under the
// same key is rejected instead of placing a second order.
type CheckoutRequest struct {
	ShippingAddress ShippingAddressInput
	IdempotencyKey  string
}

// CheckoutResponse is returned after a successful checkout. The client
// secret is handed to the payment widget on the client side.
type CheckoutResponse struct {
	Order               OrderResponse `json:"order"`
	PaymentClientSecret string        `json:"payment_client_secret,omitempty"`
}

// CancelRequest contains the input for cancelling an order
type CancelRequest struct {
	Reason string
}

// ListOrdersInput contains filters for order listings
type ListOrdersInput struct {
	Page     int
	PageSize int
	Status   string
}

// OrderItemResponse is a single order line returned to clients
type OrderItemResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	Quantity    int64     `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Amount      string    `json:"amount"`
}

// OrderResponse is the order view returned to clients
type OrderResponse struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"order_number"`
	CustomerID      uuid.UUID             `json:"customer_id"`
	Items           []OrderItemResponse   `json:"items"`
	Subtotal        string                `json:"subtotal"`
	ShippingFee     string                `json:"shipping_fee"`
	TotalAmount     string                `json:"total_amount"`
	Status          string                `json:"status"`
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
	PaymentIntentID string                `json:"payment_intent_id,omitempty"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	ShippedAt       *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Amount:      item.Amount.StringFixed(2),
		}
	}

	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Items:           items,
		Subtotal:        o.Subtotal.StringFixed(2),
		ShippingFee:     o.ShippingFee.StringFixed(2),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		PaymentIntentID: o.PaymentIntentID,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		CancelReason:    o.CancelReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
