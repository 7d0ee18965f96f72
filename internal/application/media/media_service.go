package media

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// Presigned URL lifetimes
const (
	uploadURLExpiration   = 15 * time.Minute
	downloadURLExpiration = 1 * time.Hour
)

// allowedImageTypes maps accepted upload content types to file extensions
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ObjectStorage is the presigned URL surface the media service needs
type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// UploadRequest contains the input for requesting an image upload
type UploadRequest struct {
	ContentType string
}

// UploadTicket is a presigned PUT the client uploads the image with
type UploadTicket struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// DownloadTicket is a presigned GET for an image
type DownloadTicket struct {
	StorageKey string    `json:"storage_key"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// MediaService handles product image uploads through presigned object
// storage URLs. Clients upload directly to storage; the backend only
// hands out URLs and tracks the keys on the product.
type MediaService struct {
	storage     ObjectStorage
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewMediaService creates a new MediaService
func NewMediaService(storage ObjectStorage, productRepo catalog.ProductRepository, logger *zap.Logger) *MediaService {
	return &MediaService{
		storage:     storage,
		productRepo: productRepo,
		logger:      logger,
	}
}

// RequestUpload issues a presigned upload URL for a product image
func (s *MediaService) RequestUpload(ctx context.Context, productID uuid.UUID, req UploadRequest) (*UploadTicket, error) {
	ext, ok := allowedImageTypes[req.ContentType]
	if !ok {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", "Only JPEG, PNG and WebP images are accepted")
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	storageKey := fmt.Sprintf("products/%s/%s%s", productID, uuid.New(), ext)

	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, storageKey, req.ContentType, uploadURLExpiration)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Issued upload URL",
		zap.String("product_id", productID.String()),
		zap.String("storage_key", storageKey))

	return &UploadTicket{
		StorageKey: storageKey,
		UploadURL:  url,
		ExpiresAt:  expiresAt,
	}, nil
}

// ConfirmUpload attaches an uploaded image to the product. The object
// must exist in storage before the key is recorded.
func (s *MediaService) ConfirmUpload(ctx context.Context, productID uuid.UUID, storageKey string) error {
	exists, err := s.storage.ObjectExists(ctx, storageKey)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NewDomainError("OBJECT_NOT_FOUND", "No uploaded object for this key")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	if err := product.AddImage(storageKey); err != nil {
		return err
	}

	return s.productRepo.SaveWithLock(ctx, product)
}

// RemoveImage detaches an image from the product and deletes the object
func (s *MediaService) RemoveImage(ctx context.Context, productID uuid.UUID, storageKey string) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	if err := product.RemoveImage(storageKey); err != nil {
		return err
	}

	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return err
	}

	// The image is already detached; a dangling object is harmless
	if err := s.storage.DeleteObject(ctx, storageKey); err != nil {
		s.logger.Warn("Failed to delete stored image",
			zap.String("storage_key", storageKey),
			zap.Error(err))
	}

	return nil
}

// DownloadURL issues a presigned download URL for an image key
func (s *MediaService) DownloadURL(ctx context.Context, storageKey string) (*DownloadTicket, error) {
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, storageKey, downloadURLExpiration)
	if err != nil {
		return nil, err
	}

	return &DownloadTicket{
		StorageKey: storageKey,
		URL:        url,
		ExpiresAt:  expiresAt,
	}, nil
}
