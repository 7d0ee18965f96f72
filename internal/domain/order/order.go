package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending" // Awaiting payment
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// ShippingAddress is the destination for an order
type ShippingAddress struct {
	Name       string `gorm:"column:shipping_name;type:varchar(200);not null" json:"name"`
	Line1      string `gorm:"column:shipping_line1;type:varchar(200);not null" json:"line1"`
	Line2      string `gorm:"column:shipping_line2;type:varchar(200)" json:"line2,omitempty"`
	City       string `gorm:"column:shipping_city;type:varchar(100);not null" json:"city"`
	State      string `gorm:"column:shipping_state;type:varchar(100)" json:"state,omitempty"`
	PostalCode string `gorm:"column:shipping_postal_code;type:varchar(20);not null" json:"postal_code"`
	Country    string `gorm:"column:shipping_country;type:varchar(2);not null" json:"country"`
	Phone      string `gorm:"column:shipping_phone;type:varchar(50)" json:"phone,omitempty"`
}

// Validate checks the required address fields
func (a ShippingAddress) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Recipient name is required")
	}
	if strings.TrimSpace(a.Line1) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Address line is required")
	}
	if strings.TrimSpace(a.City) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "City is required")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Postal code is required")
	}
	if len(strings.TrimSpace(a.Country)) != 2 {
		return shared.NewDomainError("INVALID_ADDRESS", "Country must be a two-letter code")
	}
	return nil
}

// OrderItem represents a line item in an order
// Quantity and UnitPrice are immutable snapshots taken from the cart
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	SKU         string          `gorm:"type:varchar(50);not null"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Quantity * UnitPrice
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates a new order line item
func NewOrderItem(orderID, productID uuid.UUID, productName, sku string, quantity int64, unitPrice valueobject.Money) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	amount := unitPrice.Amount().Mul(decimal.NewFromInt(quantity))
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		SKU:         sku,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		Amount:      amount,
		CreatedAt:   time.Now(),
	}, nil
}

// Order represents a placed customer order
// It is the aggregate root for the order lifecycle
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string      `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID      uuid.UUID   `gorm:"type:uuid;not null;index"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ShippingFee     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	ShippingAddress ShippingAddress `gorm:"embedded"`
	PaymentIntentID string          `gorm:"type:varchar(100);index"`
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderLine describes a line to place an order with
type OrderLine struct {
	ProductID   uuid.UUID
	ProductName string
	SKU         string
	Quantity    int64
	UnitPrice   valueobject.Money
}

// NewOrder creates a pending order from the given lines.
// The subtotal is the sum of line amounts computed here, from the
// price snapshots the lines carry, never re-read from the catalog.
func NewOrder(customerID uuid.UUID, lines []OrderLine, address ShippingAddress, shippingFee valueobject.Money) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.ErrCartEmpty
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}
	if shippingFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_SHIPPING_FEE", "Shipping fee cannot be negative")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       NewOrderNumber(),
		CustomerID:        customerID,
		Items:             make([]OrderItem, 0, len(lines)),
		ShippingFee:       shippingFee.Amount(),
		Status:            OrderStatusPending,
		ShippingAddress:   address,
	}

	seen := make(map[uuid.UUID]bool, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		if seen[line.ProductID] {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product appears in more than one line")
		}
		seen[line.ProductID] = true

		item, err := NewOrderItem(o.ID, line.ProductID, line.ProductName, line.SKU, line.Quantity, line.UnitPrice)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, *item)
		subtotal = subtotal.Add(item.Amount)
	}

	o.Subtotal = subtotal
	o.TotalAmount = subtotal.Add(o.ShippingFee)

	o.AddDomainEvent(NewOrderPlacedEvent(o))

	return o, nil
}

// SetPaymentIntent attaches the payment processor reference
func (o *Order) SetPaymentIntent(paymentIntentID string) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Payment reference can only be set on a pending order")
	}
	if paymentIntentID == "" {
		return shared.NewDomainError("INVALID_PAYMENT_REF", "Payment reference cannot be empty")
	}

	o.PaymentIntentID = paymentIntentID
	o.UpdatedAt = time.Now()

	return nil
}

// MarkPaid marks the order as paid
func (o *Order) MarkPaid() error {
	if !o.Status.CanTransitionTo(OrderStatusPaid) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark order paid in %s status", o.Status))
	}

	now := time.Now()
	o.Status = OrderStatusPaid
	o.PaidAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderPaidEvent(o))

	return nil
}

// Ship marks the order as shipped
func (o *Order) Ship() error {
	if !o.Status.CanTransitionTo(OrderStatusShipped) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot ship order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = OrderStatusShipped
	o.ShippedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderShippedEvent(o))

	return nil
}

// Deliver marks the order as delivered
func (o *Order) Deliver() error {
	if !o.Status.CanTransitionTo(OrderStatusDelivered) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot deliver order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderDeliveredEvent(o))

	return nil
}

// Cancel cancels the order. Allowed before shipment only; the caller
// restores the reserved stock for every line.
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	wasPaid := o.Status == OrderStatusPaid
	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderCancelledEvent(o, wasPaid))

	return nil
}

// IsPending returns true if the order awaits payment
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsCancellable returns true if the order can still be cancelled
func (o *Order) IsCancellable() bool {
	return o.Status.CanTransitionTo(OrderStatusCancelled)
}

// TotalMoney returns the total as a Money value object
func (o *Order) TotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.TotalAmount)
}

// NewOrderNumber generates an order number of the form ORD-YYYYMMDD-XXXXXX
func NewOrderNumber() string {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		// Extremely unlikely; fall back to a uuid-derived suffix
		copy(suffix, uuid.New().NodeID())
	}
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix)))
}
