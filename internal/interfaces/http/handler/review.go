package handler

import (
	"github.com/gin-gonic/gin"

	reviewapp "github.com/storefront/backend/internal/application/review"
)

// ReviewHandler handles product review endpoints
type ReviewHandler struct {
	BaseHandler
	reviewService *reviewapp.ReviewService
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService *reviewapp.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// CreateReviewRequest represents a request to review a product
type CreateReviewRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Title     string `json:"title" binding:"max=200"`
	Comment   string `json:"comment" binding:"max=5000"`
}

// UpdateReviewRequest represents a request to edit a review
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title" binding:"max=200"`
	Comment string `json:"comment" binding:"max=5000"`
}

// ListReviewsRequest represents the review listing query
type ListReviewsRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Create creates a review for a purchased product
func (h *ReviewHandler) Create(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	productID := parseOptionalUUID(&req.ProductID)
	if productID == nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := h.reviewService.Create(c.Request.Context(), customerID, reviewapp.CreateReviewRequest{
		ProductID: *productID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Update edits the caller's own review
func (h *ReviewHandler) Update(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid review ID")
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.reviewService.Update(c.Request.Context(), customerID, reviewID, reviewapp.UpdateReviewRequest{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes a review. Authors can delete their own, admins any.
func (h *ReviewHandler) Delete(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid review ID")
		return
	}

	caller, err := requestedBy(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), reviewID, caller); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListByProduct returns reviews for a product
func (h *ReviewHandler) ListByProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req ListReviewsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.reviewService.ListByProduct(c.Request.Context(), productID, reviewapp.ListReviewsInput{
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// RegisterPublicRoutes registers the public review listing
func (h *ReviewHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog/products/:id/reviews", h.ListByProduct)
}

// RegisterRoutes registers authenticated review routes
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reviews := rg.Group("/reviews")
	{
		reviews.POST("", h.Create)
		reviews.PUT("/:id", h.Update)
		reviews.DELETE("/:id", h.Delete)
	}
}
