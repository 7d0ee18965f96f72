package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// CartStatus represents the status of a cart
type CartStatus string

const (
	CartStatusActive     CartStatus = "active"
	CartStatusCheckedOut CartStatus = "checked_out"
)

// CartItem represents a line item in a cart
// UnitPrice is a snapshot of the product price at the time the item was added
type CartItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CartID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	SKU         string          `gorm:"type:varchar(50);not null"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// NewCartItem creates a new cart line item
func NewCartItem(cartID, productID uuid.UUID, productName, sku string, quantity int64, unitPrice valueobject.Money) (*CartItem, error) {
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

	now := time.Now()
	return &CartItem{
		ID:          uuid.New(),
		CartID:      cartID,
		ProductID:   productID,
		ProductName: productName,
		SKU:         sku,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Subtotal returns quantity times unit price for this line
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Cart represents a customer's shopping cart
// A customer has at most one active cart; checked out carts are kept
// for history and never mutated again
type Cart struct {
	shared.BaseAggregateRoot
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status     CartStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// NewCart creates a new active cart for a customer
func NewCart(customerID uuid.UUID) (*Cart, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}

	cart := &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Status:            CartStatusActive,
		Items:             make([]CartItem, 0),
	}

	return cart, nil
}

// FindItem returns the line item for a product, if present
func (c *Cart) FindItem(productID uuid.UUID) (*CartItem, bool) {
	for idx := range c.Items {
		if c.Items[idx].ProductID == productID {
			return &c.Items[idx], true
		}
	}
	return nil, false
}

// AddItem adds a product to the cart. When the product is already in
// the cart the quantities are merged into the existing line; a product
// never appears twice. The price snapshot of the existing line is kept.
func (c *Cart) AddItem(productID uuid.UUID, productName, sku string, quantity int64, unitPrice valueobject.Money) error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	if existing, ok := c.FindItem(productID); ok {
		existing.Quantity += quantity
		existing.UpdatedAt = time.Now()
	} else {
		item, err := NewCartItem(c.ID, productID, productName, sku, quantity, unitPrice)
		if err != nil {
			return err
		}
		c.Items = append(c.Items, *item)
	}

	c.UpdatedAt = time.Now()

	c.AddDomainEvent(NewCartItemAddedEvent(c, productID, quantity))

	return nil
}

// SetItemQuantity sets the absolute quantity of an existing line.
// Returns the signed difference against the previous quantity so the
// caller can adjust stock reservations accordingly.
func (c *Cart) SetItemQuantity(productID uuid.UUID, quantity int64) (int64, error) {
	if err := c.ensureActive(); err != nil {
		return 0, err
	}
	if quantity <= 0 {
		return 0, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive, remove the item instead")
	}

	item, ok := c.FindItem(productID)
	if !ok {
		return 0, shared.NewDomainError("ITEM_NOT_FOUND", "Product is not in the cart")
	}

	delta := quantity - item.Quantity
	item.Quantity = quantity
	item.UpdatedAt = time.Now()
	c.UpdatedAt = time.Now()

	return delta, nil
}

// RemoveItem removes a product line from the cart.
// Returns the removed quantity so the caller can release the reservation.
func (c *Cart) RemoveItem(productID uuid.UUID) (int64, error) {
	if err := c.ensureActive(); err != nil {
		return 0, err
	}

	for idx := range c.Items {
		if c.Items[idx].ProductID == productID {
			removed := c.Items[idx].Quantity
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			c.UpdatedAt = time.Now()
			return removed, nil
		}
	}

	return 0, shared.NewDomainError("ITEM_NOT_FOUND", "Product is not in the cart")
}

// Clear removes all lines from the cart.
// Returns the removed quantities per product for reservation release.
func (c *Cart) Clear() (map[uuid.UUID]int64, error) {
	if err := c.ensureActive(); err != nil {
		return nil, err
	}

	released := make(map[uuid.UUID]int64, len(c.Items))
	for _, item := range c.Items {
		released[item.ProductID] = item.Quantity
	}

	c.Items = make([]CartItem, 0)
	c.UpdatedAt = time.Now()

	return released, nil
}

// MarkCheckedOut transitions the cart to checked out.
// Requires at least one item; a checked out cart is immutable.
func (c *Cart) MarkCheckedOut() error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	if c.IsEmpty() {
		return shared.ErrCartEmpty
	}

	c.Status = CartStatusCheckedOut
	c.UpdatedAt = time.Now()

	c.AddDomainEvent(NewCartCheckedOutEvent(c))

	return nil
}

// IsEmpty returns true if the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// IsActive returns true if the cart is still mutable
func (c *Cart) IsActive() bool {
	return c.Status == CartStatusActive
}

// ItemCount returns the total quantity across all lines
func (c *Cart) ItemCount() int64 {
	var count int64
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns the sum of all line subtotals
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// SubtotalMoney returns the subtotal as a Money value object
func (c *Cart) SubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(c.Subtotal())
}

func (c *Cart) ensureActive() error {
	if c.Status != CartStatusActive {
		return shared.NewDomainError("CART_CHECKED_OUT", "Cart has already been checked out")
	}
	return nil
}
