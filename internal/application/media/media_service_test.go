package media

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/storage"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCategory(ctx context.Context, categoryID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, categoryID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ReserveStock(ctx context.Context, productID uuid.UUID, quantity int64) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) ReleaseStock(ctx context.Context, productID uuid.UUID, quantity int64) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateRatingStats(ctx context.Context, productID uuid.UUID, average decimal.Decimal, count int64) error {
	args := m.Called(ctx, productID, average, count)
	return args.Error(0)
}

func newTestMediaService(productRepo *MockProductRepository) *MediaService {
	return NewMediaService(storage.NewStubObjectStorage(), productRepo, zap.NewNop())
}

func testProduct(t *testing.T) *catalog.Product {
	t.Helper()
	price, err := valueobject.NewMoneyUSDFromString("129.99")
	require.NoError(t, err)
	product, err := catalog.NewProduct("KB-0001", "Mechanical Keyboard", price)
	require.NoError(t, err)
	return product
}

func TestMediaServiceRequestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a presigned URL with a product scoped key", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		svc := newTestMediaService(productRepo)

		product := testProduct(t)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)

		ticket, err := svc.RequestUpload(ctx, product.ID, UploadRequest{ContentType: "image/png"})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ticket.StorageKey, "products/"+product.ID.String()+"/"))
		assert.True(t, strings.HasSuffix(ticket.StorageKey, ".png"))
		assert.NotEmpty(t, ticket.UploadURL)
		assert.False(t, ticket.ExpiresAt.IsZero())
	})

	t.Run("rejects content types that are not images", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		svc := newTestMediaService(productRepo)

		_, err := svc.RequestUpload(ctx, uuid.New(), UploadRequest{ContentType: "application/pdf"})

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_CONTENT_TYPE", de.Code)
		productRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown product is reported", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		svc := newTestMediaService(productRepo)

		productID := uuid.New()
		productRepo.On("FindByID", ctx, productID).Return(nil, shared.ErrNotFound)

		_, err := svc.RequestUpload(ctx, productID, UploadRequest{ContentType: "image/jpeg"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestMediaServiceConfirmUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches the key to the product", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		svc := newTestMediaService(productRepo)

		product := testProduct(t)
		key := "products/" + product.ID.String() + "/front.jpg"

		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		productRepo.On("SaveWithLock", ctx, product).Return(nil)

		require.NoError(t, svc.ConfirmUpload(ctx, product.ID, key))
		assert.Equal(t, []string{key}, product.Images())
	})
}

func TestMediaServiceRemoveImage(t *testing.T) {
	ctx := context.Background()

	t.Run("detaches the key and deletes the object", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		svc := newTestMediaService(productRepo)

		product := testProduct(t)
		key := "products/" + product.ID.String() + "/front.jpg"
		require.NoError(t, product.AddImage(key))

		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		productRepo.On("SaveWithLock", ctx, product).Return(nil)

		require.NoError(t, svc.RemoveImage(ctx, product.ID, key))
		assert.Empty(t, product.Images())
	})

	t.Run("unknown key is reported", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		svc := newTestMediaService(productRepo)

		product := testProduct(t)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)

		err := svc.RemoveImage(ctx, product.ID, "products/unknown.jpg")
		assert.ErrorIs(t, err, shared.ErrNotFound)
		productRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestMediaServiceDownloadURL(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a presigned download URL", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		svc := newTestMediaService(productRepo)

		ticket, err := svc.DownloadURL(ctx, "products/abc/front.jpg")

		require.NoError(t, err)
		assert.Contains(t, ticket.URL, "products/abc/front.jpg")
		assert.False(t, ticket.ExpiresAt.IsZero())
	})
}
