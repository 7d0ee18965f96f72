package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Product represents a sellable item in the catalog
// It is the aggregate root for product-related operations
type Product struct {
	shared.BaseAggregateRoot
	SKU           string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	Brand         string          `gorm:"type:varchar(100);index"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Stock         int64           `gorm:"not null;default:0"`
	ImageKeys     string          `gorm:"type:jsonb"` // JSON array of object storage keys
	RatingAverage decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0"`
	RatingCount   int64           `gorm:"not null;default:0"`
	Status        ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(sku, name string, price valueobject.Money) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(sku),
		Name:              name,
		Price:             price.Amount(),
		RatingAverage:     decimal.Zero,
		Status:            ProductStatusActive,
		ImageKeys:         "[]",
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description, brand string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.Brand = brand
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetCategory sets the product category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewProductUpdatedEvent(p))
}

// SetPrice sets the selling price
func (p *Product) SetPrice(price valueobject.Money) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	oldPrice := p.Price
	p.Price = price.Amount()
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewProductPriceChangedEvent(p, oldPrice))

	return nil
}

// Restock increases the available stock by the given quantity.
// Reservation and release of stock during cart and order flows go
// through the repository's conditional update, not this method.
func (p *Product) Restock(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}

	p.Stock += quantity
	p.UpdatedAt = time.Now()

	return nil
}

// Images returns the decoded image keys
func (p *Product) Images() []string {
	if p.ImageKeys == "" {
		return nil
	}
	var keys []string
	if err := json.Unmarshal([]byte(p.ImageKeys), &keys); err != nil {
		return nil
	}
	return keys
}

// AddImage appends an object storage key to the product's images
func (p *Product) AddImage(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_IMAGE_KEY", "Image key cannot be empty")
	}

	keys := p.Images()
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	keys = append(keys, key)

	data, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	p.ImageKeys = string(data)
	p.UpdatedAt = time.Now()

	return nil
}

// RemoveImage removes an object storage key from the product's images
func (p *Product) RemoveImage(key string) error {
	keys := p.Images()
	filtered := make([]string, 0, len(keys))
	found := false
	for _, k := range keys {
		if k == key {
			found = true
			continue
		}
		filtered = append(filtered, k)
	}
	if !found {
		return shared.ErrNotFound
	}

	data, err := json.Marshal(filtered)
	if err != nil {
		return err
	}
	p.ImageKeys = string(data)
	p.UpdatedAt = time.Now()

	return nil
}

// ApplyRatingStats updates the denormalized review aggregates
func (p *Product) ApplyRatingStats(average decimal.Decimal, count int64) {
	p.RatingAverage = average.Round(2)
	p.RatingCount = count
	p.UpdatedAt = time.Now()
}

// Activate activates the product
func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("CANNOT_ACTIVATE", "Cannot activate a discontinued product")
	}

	oldStatus := p.Status
	p.Status = ProductStatusActive
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewProductStatusChangedEvent(p, oldStatus, ProductStatusActive))

	return nil
}

// Deactivate deactivates the product
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("CANNOT_DEACTIVATE", "Cannot deactivate a discontinued product")
	}

	oldStatus := p.Status
	p.Status = ProductStatusInactive
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewProductStatusChangedEvent(p, oldStatus, ProductStatusInactive))

	return nil
}

// Discontinue marks the product as discontinued
// A discontinued product cannot be reactivated
func (p *Product) Discontinue() error {
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("ALREADY_DISCONTINUED", "Product is already discontinued")
	}

	oldStatus := p.Status
	p.Status = ProductStatusDiscontinued
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewProductStatusChangedEvent(p, oldStatus, ProductStatusDiscontinued))

	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsDiscontinued returns true if the product is discontinued
func (p *Product) IsDiscontinued() bool {
	return p.Status == ProductStatusDiscontinued
}

// IsPurchasable returns true if the product can be added to a cart
func (p *Product) IsPurchasable() bool {
	return p.Status == ProductStatusActive
}

// PriceMoney returns the selling price as a Money value object
func (p *Product) PriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Price)
}

// validateSKU validates the product SKU
func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_SKU", "SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
