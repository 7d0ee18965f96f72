package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ProductHandler handles product endpoints. Reads are public, writes
// are registered under the admin group.
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	SKU         string  `json:"sku" binding:"required,min=1,max=64"`
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	Description string  `json:"description" binding:"max=5000"`
	Brand       string  `json:"brand" binding:"max=100"`
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	Price       string  `json:"price" binding:"required"`
	Stock       int64   `json:"stock" binding:"min=0"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name        string  `json:"name" binding:"omitempty,min=1,max=200"`
	Description string  `json:"description" binding:"max=5000"`
	Brand       string  `json:"brand" binding:"max=100"`
	Price       *string `json:"price"`
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
}

// RestockProductRequest represents a request to add stock
type RestockProductRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

// ListProductsRequest represents the product listing query
type ListProductsRequest struct {
	dto.ListRequest
	Status     string `form:"status" binding:"omitempty,oneof=draft active inactive discontinued"`
	Brand      string `form:"brand"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	MinPrice   string `form:"min_price"`
	MaxPrice   string `form:"max_price"`
	InStock    bool   `form:"in_stock"`
}

func parseOptionalUUID(raw *string) *uuid.UUID {
	if raw == nil || *raw == "" {
		return nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil
	}
	return &id
}

// Create creates a new product
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.productService.Create(c.Request.Context(), catalogapp.CreateProductRequest{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Brand:       req.Brand,
		CategoryID:  parseOptionalUUID(req.CategoryID),
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get returns a single product by ID
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetBySKU returns a single product by SKU
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "Missing SKU")
		return
	}

	resp, err := h.productService.GetBySKU(c.Request.Context(), sku)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns a filtered page of products
func (h *ProductHandler) List(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.productService.List(c.Request.Context(), toProductListFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListByCategory returns products in a category
func (h *ProductHandler) ListByCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
		return
	}

	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.productService.ListByCategory(c.Request.Context(), categoryID, toProductListFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update updates product details
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.productService.Update(c.Request.Context(), id, catalogapp.UpdateProductRequest{
		Name:        req.Name,
		Description: req.Description,
		Brand:       req.Brand,
		Price:       req.Price,
		CategoryID:  parseOptionalUUID(req.CategoryID),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Restock adds stock to a product
func (h *ProductHandler) Restock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req RestockProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.productService.Restock(c.Request.Context(), id, catalogapp.RestockRequest{
		Quantity: req.Quantity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Activate makes a product purchasable
func (h *ProductHandler) Activate(c *gin.Context) {
	h.transition(c, h.productService.Activate)
}

// Deactivate hides a product from sale
func (h *ProductHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.productService.Deactivate)
}

// Discontinue permanently retires a product
func (h *ProductHandler) Discontinue(c *gin.Context) {
	h.transition(c, h.productService.Discontinue)
}

// Delete removes a product
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *ProductHandler) transition(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := op(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterPublicRoutes registers the public catalog routes
func (h *ProductHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/catalog/products")
	{
		products.GET("", h.List)
		products.GET("/:id", h.Get)
		products.GET("/sku/:sku", h.GetBySKU)
	}
	rg.GET("/catalog/categories/:id/products", h.ListByCategory)
}

// RegisterAdminRoutes registers the admin product routes
func (h *ProductHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.POST("", h.Create)
		products.PUT("/:id", h.Update)
		products.POST("/:id/restock", h.Restock)
		products.POST("/:id/activate", h.Activate)
		products.POST("/:id/deactivate", h.Deactivate)
		products.POST("/:id/discontinue", h.Discontinue)
		products.DELETE("/:id", h.Delete)
	}
}

func toProductListFilter(req ListProductsRequest) catalogapp.ProductListFilter {
	var categoryID *uuid.UUID
	if req.CategoryID != "" {
		categoryID = parseOptionalUUID(&req.CategoryID)
	}
	return catalogapp.ProductListFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		OrderBy:    req.OrderBy,
		OrderDir:   req.OrderDir,
		Search:     req.Search,
		Status:     req.Status,
		Brand:      req.Brand,
		CategoryID: categoryID,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		InStock:    req.InStock,
	}
}
