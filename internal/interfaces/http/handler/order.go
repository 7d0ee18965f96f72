package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// OrderHandler handles order endpoints for customers and admins
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// ShippingAddressRequest represents a shipping address in requests
type ShippingAddressRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=200"`
	Line1      string `json:"line1" binding:"required,min=1,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,min=1,max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"required,min=1,max=20"`
	Country    string `json:"country" binding:"required,len=2"`
	Phone      string `json:"phone" binding:"max=30"`
}

// CheckoutRequest represents a request to place an order from the cart
type CheckoutRequest struct {
	ShippingAddress ShippingAddressRequest `json:"shipping_address" binding:"required"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ListOrdersRequest represents the order listing query
type ListOrdersRequest struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=pending paid shipped delivered cancelled"`
}

// Checkout places an order from the customer's active cart. Clients
// may send an Idempotency-Key header; resubmitting under the same key
// does not place a second order.
func (h *OrderHandler) Checkout(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.Checkout(c.Request.Context(), customerID, orderapp.CheckoutRequest{
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		ShippingAddress: orderapp.ShippingAddressInput{
			Name:       req.ShippingAddress.Name,
			Line1:      req.ShippingAddress.Line1,
			Line2:      req.ShippingAddress.Line2,
			City:       req.ShippingAddress.City,
			State:      req.ShippingAddress.State,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
			Phone:      req.ShippingAddress.Phone,
		},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// RetryPayment creates or re-reads a payment intent for a pending order
func (h *OrderHandler) RetryPayment(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := h.orderService.RetryPayment(c.Request.Context(), customerID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Get returns a single order. Customers can only see their own.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	caller, err := requestedBy(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.orderService.Get(c.Request.Context(), orderID, caller)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListMine returns the authenticated customer's orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.ListByCustomer(c.Request.Context(), customerID, orderapp.ListOrdersInput{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   req.Status,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Cancel cancels a pending or paid order and restocks its items
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	caller, err := requestedBy(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.Cancel(c.Request.Context(), orderID, caller, orderapp.CancelRequest{
		Reason: req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListAll returns all orders for administrators
func (h *OrderHandler) ListAll(c *gin.Context) {
	var req ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.ListAll(c.Request.Context(), orderapp.ListOrdersInput{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   req.Status,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Ship marks a paid order as shipped
func (h *OrderHandler) Ship(c *gin.Context) {
	h.transition(c, h.orderService.Ship)
}

// Deliver marks a shipped order as delivered
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.transition(c, h.orderService.Deliver)
}

func (h *OrderHandler) transition(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*orderapp.OrderResponse, error)) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := op(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers customer-facing order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("/checkout", h.Checkout)
		orders.GET("", h.ListMine)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/cancel", h.Cancel)
		orders.POST("/:id/payment/retry", h.RetryPayment)
	}
}

// RegisterAdminRoutes registers admin order routes
func (h *OrderHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.ListAll)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/ship", h.Ship)
		orders.POST("/:id/deliver", h.Deliver)
		orders.POST("/:id/cancel", h.Cancel)
	}
}
