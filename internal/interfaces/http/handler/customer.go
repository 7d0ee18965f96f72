package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// CustomerHandler handles administrative account endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *identityapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *identityapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// ListCustomersRequest represents the customer listing query
type ListCustomersRequest struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=active disabled locked"`
	Role   string `form:"role" binding:"omitempty,oneof=customer admin"`
}

// List returns a page of accounts
func (h *CustomerHandler) List(c *gin.Context) {
	var req ListCustomersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), identityapp.ListCustomersInput{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Status:   req.Status,
		Role:     req.Role,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]*CustomerResponse, len(result.Items))
	for i := range result.Items {
		items[i] = toCustomerResponse(result.Items[i])
	}
	h.SuccessWithMeta(c, items, result.Total, result.Page, result.PageSize)
}

// Get returns a single account
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	info, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCustomerResponse(*info))
}

// Disable blocks an account from logging in
func (h *CustomerHandler) Disable(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	if err := h.customerService.DisableCustomer(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Enable re-activates a disabled account
func (h *CustomerHandler) Enable(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	if err := h.customerService.EnableCustomer(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers admin customer routes
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	{
		customers.GET("", h.List)
		customers.GET("/:id", h.Get)
		customers.POST("/:id/disable", h.Disable)
		customers.POST("/:id/enable", h.Enable)
	}
}
