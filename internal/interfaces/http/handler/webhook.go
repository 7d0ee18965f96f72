package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	orderapp "github.com/storefront/backend/internal/application/order"
)

// Stripe webhook payloads are small; anything larger is rejected
const maxWebhookPayloadSize = 65536

// WebhookHandler handles payment gateway callbacks. These endpoints
// are called by Stripe and authenticate via signature, not JWT.
type WebhookHandler struct {
	orderService *orderapp.OrderService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(orderService *orderapp.OrderService) *WebhookHandler {
	return &WebhookHandler{
		orderService: orderService,
	}
}

// WebhookResponse represents the webhook acknowledgement
type WebhookResponse struct {
	Received bool   `json:"received"`
	Message  string `json:"message,omitempty"`
}

// HandleStripeWebhook verifies and processes a Stripe event. The raw
// body is required for signature verification.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, WebhookResponse{
			Received: false,
			Message:  "Failed to read request body",
		})
		return
	}

	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, WebhookResponse{
			Received: false,
			Message:  "Payload too large",
		})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusUnauthorized, WebhookResponse{
			Received: false,
			Message:  "Missing Stripe-Signature header",
		})
		return
	}

	if err := h.orderService.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		// Stripe retries non-2xx responses, so only signature and
		// transient failures should reach this branch
		c.JSON(http.StatusBadRequest, WebhookResponse{
			Received: false,
			Message:  "Webhook processing failed",
		})
		return
	}

	c.JSON(http.StatusOK, WebhookResponse{Received: true})
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/stripe", h.HandleStripeWebhook)
}
