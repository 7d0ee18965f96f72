package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/catalog"
)

// CreateProductRequest contains the input for creating a product
type CreateProductRequest struct {
	SKU         string
	Name        string
	Description string
	Brand       string
	CategoryID  *uuid.UUID
	Price       string // Decimal string, e.g. "19.99"
	Stock       int64
}

// UpdateProductRequest contains the input for updating a product.
// Price and CategoryID are optional; nil leaves the field unchanged.
type UpdateProductRequest struct {
	Name        string
	Description string
	Brand       string
	Price       *string
	CategoryID  *uuid.UUID
}

// RestockRequest contains the input for adding stock
type RestockRequest struct {
	Quantity int64
}

// ProductResponse is the product view returned to clients
type ProductResponse struct {
	ID            uuid.UUID  `json:"id"`
	SKU           string     `json:"sku"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Brand         string     `json:"brand,omitempty"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	Price         string     `json:"price"`
	Stock         int64      `json:"stock"`
	Images        []string   `json:"images"`
	RatingAverage string     `json:"rating_average"`
	RatingCount   int64      `json:"rating_count"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProductListFilter contains filters for product listings
type ProductListFilter struct {
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
	Search     string
	Status     string
	Brand      string
	CategoryID *uuid.UUID
	MinPrice   string
	MaxPrice   string
	InStock    bool
}

// CreateCategoryRequest contains the input for creating a category
type CreateCategoryRequest struct {
	Slug        string
	Name        string
	Description string
	ParentID    *uuid.UUID
	SortOrder   int
}

// UpdateCategoryRequest contains the input for updating a category
type UpdateCategoryRequest struct {
	Name        string
	Description string
	SortOrder   *int
}

// CategoryResponse is the category view returned to clients
type CategoryResponse struct {
	ID          uuid.UUID          `json:"id"`
	Slug        string             `json:"slug"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	ParentID    *uuid.UUID         `json:"parent_id,omitempty"`
	Level       int                `json:"level"`
	SortOrder   int                `json:"sort_order"`
	Status      string             `json:"status"`
	Children    []CategoryResponse `json:"children,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func toProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Brand:         p.Brand,
		CategoryID:    p.CategoryID,
		Price:         p.Price.StringFixed(2),
		Stock:         p.Stock,
		Images:        p.Images(),
		RatingAverage: p.RatingAverage.StringFixed(2),
		RatingCount:   p.RatingCount,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		ParentID:    c.ParentID,
		Level:       c.Level,
		SortOrder:   c.SortOrder,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
