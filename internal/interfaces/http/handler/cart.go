package handler

import (
	"github.com/gin-gonic/gin"

	cartapp "github.com/storefront/backend/internal/application/cart"
)

// CartHandler handles the authenticated customer's cart
type CartHandler struct {
	BaseHandler
	cartService *cartapp.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// AddCartItemRequest represents a request to add a product to the cart
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

// SetCartQuantityRequest represents a request to change a line quantity
type SetCartQuantityRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

// Get returns the customer's active cart, creating one if needed
func (h *CartHandler) Get(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.cartService.GetCart(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AddItem adds a product to the cart, merging quantities for repeats
func (h *CartHandler) AddItem(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	productID := parseOptionalUUID(&req.ProductID)
	if productID == nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := h.cartService.AddItem(c.Request.Context(), customerID, cartapp.AddItemRequest{
		ProductID: *productID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// SetItemQuantity sets the quantity of a cart line
func (h *CartHandler) SetItemQuantity(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	productID, ok := parseIDParam(c, "productId")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req SetCartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.cartService.SetItemQuantity(c.Request.Context(), customerID, productID, cartapp.SetQuantityRequest{
		Quantity: req.Quantity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveItem removes a cart line and releases its stock
func (h *CartHandler) RemoveItem(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	productID, ok := parseIDParam(c, "productId")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := h.cartService.RemoveItem(c.Request.Context(), customerID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Clear empties the cart and releases all reserved stock
func (h *CartHandler) Clear(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.cartService.Clear(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers cart routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.Get)
		cart.POST("/items", h.AddItem)
		cart.PUT("/items/:productId", h.SetItemQuantity)
		cart.DELETE("/items/:productId", h.RemoveItem)
		cart.DELETE("", h.Clear)
	}
}
