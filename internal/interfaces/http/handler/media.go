package handler

import (
	"github.com/gin-gonic/gin"

	mediaapp "github.com/storefront/backend/internal/application/media"
)

// MediaHandler handles product image upload and delivery endpoints.
// Files never pass through the API server; clients exchange presigned
// URLs with object storage directly.
type MediaHandler struct {
	BaseHandler
	mediaService *mediaapp.MediaService
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(mediaService *mediaapp.MediaService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
	}
}

// RequestUploadRequest represents a request for a presigned upload URL
type RequestUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// ConfirmUploadRequest represents a request to attach an uploaded image
type ConfirmUploadRequest struct {
	StorageKey string `json:"storage_key" binding:"required"`
}

// RequestUpload issues a presigned PUT URL for a product image
func (h *MediaHandler) RequestUpload(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ticket, err := h.mediaService.RequestUpload(c.Request.Context(), productID, mediaapp.UploadRequest{
		ContentType: req.ContentType,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ticket)
}

// ConfirmUpload verifies the object exists and attaches it to the product
func (h *MediaHandler) ConfirmUpload(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.mediaService.ConfirmUpload(c.Request.Context(), productID, req.StorageKey); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RemoveImage detaches an image from the product and deletes the object
func (h *MediaHandler) RemoveImage(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	storageKey := c.Query("key")
	if storageKey == "" {
		h.BadRequest(c, "Missing key parameter")
		return
	}

	if err := h.mediaService.RemoveImage(c.Request.Context(), productID, storageKey); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// DownloadURL issues a presigned GET URL for a stored image
func (h *MediaHandler) DownloadURL(c *gin.Context) {
	storageKey := c.Query("key")
	if storageKey == "" {
		h.BadRequest(c, "Missing key parameter")
		return
	}

	ticket, err := h.mediaService.DownloadURL(c.Request.Context(), storageKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ticket)
}

// RegisterPublicRoutes registers the public media routes
func (h *MediaHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog/media/url", h.DownloadURL)
}

// RegisterAdminRoutes registers the admin media routes
func (h *MediaHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	images := rg.Group("/products/:id/images")
	{
		images.POST("/upload-url", h.RequestUpload)
		images.POST("/confirm", h.ConfirmUpload)
		images.DELETE("", h.RemoveImage)
	}
}
