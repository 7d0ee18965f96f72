package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// MockCartRepository is a mock implementation of cart.CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartRepository) SaveWithLock(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartRepository) FindIdleActive(ctx context.Context, before time.Time, limit int) ([]cart.Cart, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

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

func newTestCartService(cartRepo *MockCartRepository, productRepo *MockProductRepository) *CartService {
	return NewCartService(cartRepo, productRepo, zap.NewNop())
}

func mustCart(t *testing.T, customerID uuid.UUID) *cart.Cart {
	t.Helper()
	c, err := cart.NewCart(customerID)
	require.NoError(t, err)
	return c
}

func mustProduct(t *testing.T, sku, name, price string) *catalog.Product {
	t.Helper()
	money, err := valueobject.NewMoneyUSDFromString(price)
	require.NoError(t, err)
	product, err := catalog.NewProduct(sku, name, money)
	require.NoError(t, err)
	return product
}

func TestCartServiceGetCart(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the existing active cart", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		existing := mustCart(t, customerID)
		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(existing, nil)

		resp, err := svc.GetCart(ctx, customerID)
		require.NoError(t, err)
		assert.Equal(t, existing.ID, resp.ID)
		cartRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("creates a cart when the customer has none", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(nil, shared.ErrNotFound)
		cartRepo.On("Save", ctx, mock.AnythingOfType("*cart.Cart")).Return(nil)

		resp, err := svc.GetCart(ctx, customerID)
		require.NoError(t, err)
		assert.Equal(t, customerID, resp.CustomerID)
		assert.Empty(t, resp.Items)
		assert.Equal(t, "0.00", resp.Subtotal)
		cartRepo.AssertExpectations(t)
	})
}

func TestCartServiceAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves stock and snapshots the price", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		c := mustCart(t, customerID)
		product := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")

		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		productRepo.On("ReserveStock", ctx, product.ID, int64(2)).Return(nil)
		cartRepo.On("SaveWithLock", ctx, c).Return(nil)

		resp, err := svc.AddItem(ctx, customerID, AddItemRequest{ProductID: product.ID, Quantity: 2})

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "129.99", resp.Items[0].UnitPrice)
		assert.Equal(t, "259.98", resp.Items[0].Subtotal)
		productRepo.AssertExpectations(t)
	})

	t.Run("merges quantity for a product already in the cart", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		c := mustCart(t, customerID)
		product := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")
		require.NoError(t, c.AddItem(product.ID, product.Name, product.SKU, 1, product.PriceMoney()))

		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		productRepo.On("ReserveStock", ctx, product.ID, int64(3)).Return(nil)
		cartRepo.On("SaveWithLock", ctx, c).Return(nil)

		resp, err := svc.AddItem(ctx, customerID, AddItemRequest{ProductID: product.ID, Quantity: 3})

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, int64(4), resp.Items[0].Quantity)
	})

	t.Run("insufficient stock leaves the cart untouched", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		c := mustCart(t, customerID)
		product := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")

		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		productRepo.On("ReserveStock", ctx, product.ID, int64(500)).Return(shared.ErrInsufficientStock)

		_, err := svc.AddItem(ctx, customerID, AddItemRequest{ProductID: product.ID, Quantity: 500})

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Empty(t, c.Items)
		cartRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("releases the reservation when the save fails", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		c := mustCart(t, customerID)
		product := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")

		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		productRepo.On("ReserveStock", ctx, product.ID, int64(2)).Return(nil)
		cartRepo.On("SaveWithLock", ctx, c).Return(shared.ErrConcurrencyConflict)
		productRepo.On("ReleaseStock", ctx, product.ID, int64(2)).Return(nil)

		_, err := svc.AddItem(ctx, customerID, AddItemRequest{ProductID: product.ID, Quantity: 2})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		productRepo.AssertCalled(t, "ReleaseStock", ctx, product.ID, int64(2))
	})

	t.Run("rejects products not open for sale", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		c := mustCart(t, customerID)
		product := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")
		require.NoError(t, product.Deactivate())

		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)

		_, err := svc.AddItem(ctx, customerID, AddItemRequest{ProductID: product.ID, Quantity: 1})

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "PRODUCT_UNAVAILABLE", de.Code)
		productRepo.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCartServiceSetItemQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("growing a line reserves the difference", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		c := mustCart(t, customerID)
		product := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")
		require.NoError(t, c.AddItem(product.ID, product.Name, product.SKU, 2, product.PriceMoney()))

		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		productRepo.On("ReserveStock", ctx, product.ID, int64(3)).Return(nil)
		cartRepo.On("SaveWithLock", ctx, c).Return(nil)

		resp, err := svc.SetItemQuantity(ctx, customerID, product.ID, SetQuantityRequest{Quantity: 5})

		require.NoError(t, err)
		assert.Equal(t, int64(5), resp.Items[0].Quantity)
		productRepo.AssertExpectations(t)
	})

	t.Run("shrinking a line releases the difference after saving", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		c := mustCart(t, customerID)
		product := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")
		require.NoError(t, c.AddItem(product.ID, product.Name, product.SKU, 5, product.PriceMoney()))

		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		cartRepo.On("SaveWithLock", ctx, c).Return(nil)
		productRepo.On("ReleaseStock", ctx, product.ID, int64(3)).Return(nil)

		resp, err := svc.SetItemQuantity(ctx, customerID, product.ID, SetQuantityRequest{Quantity: 2})

		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Items[0].Quantity)
		productRepo.AssertCalled(t, "ReleaseStock", ctx, product.ID, int64(3))
		productRepo.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown line is reported", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		c := mustCart(t, customerID)

		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)

		_, err := svc.SetItemQuantity(ctx, customerID, uuid.New(), SetQuantityRequest{Quantity: 2})
		require.Error(t, err)
		cartRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestCartServiceRemoveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the line and releases its reservation", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		c := mustCart(t, customerID)
		product := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")
		require.NoError(t, c.AddItem(product.ID, product.Name, product.SKU, 3, product.PriceMoney()))

		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		cartRepo.On("SaveWithLock", ctx, c).Return(nil)
		productRepo.On("ReleaseStock", ctx, product.ID, int64(3)).Return(nil)

		resp, err := svc.RemoveItem(ctx, customerID, product.ID)

		require.NoError(t, err)
		assert.Empty(t, resp.Items)
		productRepo.AssertExpectations(t)
	})
}

func TestCartServiceClear(t *testing.T) {
	ctx := context.Background()

	t.Run("releases every line's reservation", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		customerID := uuid.New()
		c := mustCart(t, customerID)
		keyboard := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")
		mouse := mustProduct(t, "MS-0001", "Wireless Mouse", "49.99")
		require.NoError(t, c.AddItem(keyboard.ID, keyboard.Name, keyboard.SKU, 2, keyboard.PriceMoney()))
		require.NoError(t, c.AddItem(mouse.ID, mouse.Name, mouse.SKU, 1, mouse.PriceMoney()))

		cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		cartRepo.On("SaveWithLock", ctx, c).Return(nil)
		productRepo.On("ReleaseStock", ctx, keyboard.ID, int64(2)).Return(nil)
		productRepo.On("ReleaseStock", ctx, mouse.ID, int64(1)).Return(nil)

		resp, err := svc.Clear(ctx, customerID)

		require.NoError(t, err)
		assert.Empty(t, resp.Items)
		assert.Equal(t, "0.00", resp.Subtotal)
		productRepo.AssertExpectations(t)
	})
}

func TestCartServiceSweepAbandoned(t *testing.T) {
	ctx := context.Background()

	t.Run("releases reservations and deletes idle carts", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		c := mustCart(t, uuid.New())
		product := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")
		require.NoError(t, c.AddItem(product.ID, product.Name, product.SKU, 2, product.PriceMoney()))

		cartRepo.On("FindIdleActive", ctx, mock.AnythingOfType("time.Time"), sweepBatchSize).
			Return([]cart.Cart{*c}, nil)
		productRepo.On("ReleaseStock", ctx, product.ID, int64(2)).Return(nil)
		cartRepo.On("Delete", ctx, c.ID).Return(nil)

		swept, err := svc.SweepAbandoned(ctx, 72*time.Hour)

		require.NoError(t, err)
		assert.Equal(t, 1, swept)
		productRepo.AssertExpectations(t)
		cartRepo.AssertExpectations(t)
	})

	t.Run("nothing to sweep", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		cartRepo.On("FindIdleActive", ctx, mock.AnythingOfType("time.Time"), sweepBatchSize).
			Return([]cart.Cart{}, nil)

		swept, err := svc.SweepAbandoned(ctx, 72*time.Hour)

		require.NoError(t, err)
		assert.Zero(t, swept)
		cartRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("a failed delete keeps the reservation for the next sweep", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		c := mustCart(t, uuid.New())
		product := mustProduct(t, "KB-0001", "Mechanical Keyboard", "129.99")
		require.NoError(t, c.AddItem(product.ID, product.Name, product.SKU, 3, product.PriceMoney()))

		cartRepo.On("FindIdleActive", ctx, mock.AnythingOfType("time.Time"), sweepBatchSize).
			Return([]cart.Cart{*c}, nil)
		cartRepo.On("Delete", ctx, c.ID).Return(assert.AnError)

		swept, err := svc.SweepAbandoned(ctx, 72*time.Hour)
		require.NoError(t, err)
		assert.Zero(t, swept)

		// The cart is still active, so a second sweep picks it up
		// again; its units must not be counted back into stock twice
		swept, err = svc.SweepAbandoned(ctx, 72*time.Hour)
		require.NoError(t, err)
		assert.Zero(t, swept)

		productRepo.AssertNotCalled(t, "ReleaseStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("a failed delete does not stop the sweep", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := newTestCartService(cartRepo, productRepo)

		first := mustCart(t, uuid.New())
		second := mustCart(t, uuid.New())

		cartRepo.On("FindIdleActive", ctx, mock.AnythingOfType("time.Time"), sweepBatchSize).
			Return([]cart.Cart{*first, *second}, nil)
		cartRepo.On("Delete", ctx, first.ID).Return(assert.AnError)
		cartRepo.On("Delete", ctx, second.ID).Return(nil)

		swept, err := svc.SweepAbandoned(ctx, 72*time.Hour)

		require.NoError(t, err)
		assert.Equal(t, 1, swept)
	})
}
