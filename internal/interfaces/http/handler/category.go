package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
)

// CategoryHandler handles category endpoints. Reads are public, writes
// are registered under the admin group.
type CategoryHandler struct {
	BaseHandler
	categoryService *catalogapp.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *catalogapp.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Slug        string  `json:"slug" binding:"required,min=1,max=100"`
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description string  `json:"description" binding:"max=2000"`
	ParentID    *string `json:"parent_id" binding:"omitempty,uuid"`
	SortOrder   int     `json:"sort_order"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"omitempty,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
	SortOrder   *int   `json:"sort_order"`
}

// Create creates a new category
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.categoryService.Create(c.Request.Context(), catalogapp.CreateCategoryRequest{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		ParentID:    parseOptionalUUID(req.ParentID),
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get returns a single category by ID
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
		return
	}

	resp, err := h.categoryService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetBySlug returns a single category by slug
func (h *CategoryHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		h.BadRequest(c, "Missing slug")
		return
	}

	resp, err := h.categoryService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Tree returns the full category tree
func (h *CategoryHandler) Tree(c *gin.Context) {
	tree, err := h.categoryService.Tree(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tree)
}

// Subtree returns a category with its nested descendants
func (h *CategoryHandler) Subtree(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
		return
	}

	resp, err := h.categoryService.Subtree(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update updates category details
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.categoryService.Update(c.Request.Context(), id, catalogapp.UpdateCategoryRequest{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Activate makes a category visible
func (h *CategoryHandler) Activate(c *gin.Context) {
	h.transition(c, h.categoryService.Activate)
}

// Deactivate hides a category
func (h *CategoryHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.categoryService.Deactivate)
}

// Delete removes an empty leaf category
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *CategoryHandler) transition(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*catalogapp.CategoryResponse, error)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
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
func (h *CategoryHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/catalog/categories")
	{
		categories.GET("", h.Tree)
		categories.GET("/:id", h.Get)
		categories.GET("/:id/tree", h.Subtree)
		categories.GET("/slug/:slug", h.GetBySlug)
	}
}

// RegisterAdminRoutes registers the admin category routes
func (h *CategoryHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/categories")
	{
		categories.POST("", h.Create)
		categories.PUT("/:id", h.Update)
		categories.POST("/:id/activate", h.Activate)
		categories.POST("/:id/deactivate", h.Deactivate)
		categories.DELETE("/:id", h.Delete)
	}
}
