package order

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
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/payment"
)

// MockOrderRepository is a mock implementation of order.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*order.Order, error) {
	args := m.Called(ctx, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, customerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

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

// MockCustomerRepository is a mock implementation of identity.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByEmail(ctx context.Context, email string) (*identity.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Customer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *identity.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockCheckoutStore is a mock implementation of CheckoutStore
type MockCheckoutStore struct {
	mock.Mock
}

func (m *MockCheckoutStore) PlaceOrder(ctx context.Context, o *order.Order, c *cart.Cart) error {
	args := m.Called(ctx, o, c)
	return args.Error(0)
}

type orderServiceFixture struct {
	orderRepo    *MockOrderRepository
	cartRepo     *MockCartRepository
	productRepo  *MockProductRepository
	customerRepo *MockCustomerRepository
	store        *MockCheckoutStore
	gateway      *payment.StubPaymentGateway
	idempotency  *cache.InMemoryIdempotencyStore
	svc          *OrderService
}

func newOrderServiceFixture(t *testing.T) *orderServiceFixture {
	t.Helper()

	f := &orderServiceFixture{
		orderRepo:    new(MockOrderRepository),
		cartRepo:     new(MockCartRepository),
		productRepo:  new(MockProductRepository),
		customerRepo: new(MockCustomerRepository),
		store:        new(MockCheckoutStore),
		gateway:      payment.NewStubPaymentGateway(),
		idempotency:  cache.NewInMemoryIdempotencyStore(),
	}
	t.Cleanup(func() { _ = f.idempotency.Close() })

	policy, err := NewCheckoutPolicy(config.CheckoutConfig{ShippingFee: "5.00", FreeShippingAbove: "100.00"})
	require.NoError(t, err)

	f.svc = NewOrderService(
		f.orderRepo, f.cartRepo, f.productRepo, f.customerRepo,
		f.store, f.gateway, nil, f.idempotency, policy, zap.NewNop(),
	)
	return f
}

func cartWithItem(t *testing.T, customerID uuid.UUID, price string, quantity int64) *cart.Cart {
	t.Helper()
	c, err := cart.NewCart(customerID)
	require.NoError(t, err)
	money, err := valueobject.NewMoneyUSDFromString(price)
	require.NoError(t, err)
	require.NoError(t, c.AddItem(uuid.New(), "Widget", "WIDGET-001", quantity, money))
	c.ClearDomainEvents()
	return c
}

func testAddress() ShippingAddressInput {
	return ShippingAddressInput{
		Name:       "Jane Doe",
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
}

func pendingOrder(t *testing.T, customerID uuid.UUID, price string, quantity int64) *order.Order {
	t.Helper()
	money, err := valueobject.NewMoneyUSDFromString(price)
	require.NoError(t, err)
	o, err := order.NewOrder(customerID, []order.OrderLine{{
		ProductID:   uuid.New(),
		ProductName: "Widget",
		SKU:         "WIDGET-001",
		Quantity:    quantity,
		UnitPrice:   money,
	}}, testAddress().toDomain(), valueobject.ZeroUSD())
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func TestCheckoutPolicy(t *testing.T) {
	t.Run("flat fee below the free shipping threshold", func(t *testing.T) {
		policy, err := NewCheckoutPolicy(config.CheckoutConfig{ShippingFee: "5.00", FreeShippingAbove: "100.00"})
		require.NoError(t, err)

		fee := policy.FeeFor(decimal.RequireFromString("99.99"))
		assert.Equal(t, "5.00", fee.StringFixed(2))
	})

	t.Run("free shipping at and above the threshold", func(t *testing.T) {
		policy, err := NewCheckoutPolicy(config.CheckoutConfig{ShippingFee: "5.00", FreeShippingAbove: "100.00"})
		require.NoError(t, err)

		assert.True(t, policy.FeeFor(decimal.RequireFromString("100.00")).IsZero())
		assert.True(t, policy.FeeFor(decimal.RequireFromString("250.00")).IsZero())
	})

	t.Run("no threshold always charges the fee", func(t *testing.T) {
		policy, err := NewCheckoutPolicy(config.CheckoutConfig{ShippingFee: "5.00"})
		require.NoError(t, err)

		fee := policy.FeeFor(decimal.RequireFromString("1000.00"))
		assert.Equal(t, "5.00", fee.StringFixed(2))
	})

	t.Run("rejects malformed settings", func(t *testing.T) {
		_, err := NewCheckoutPolicy(config.CheckoutConfig{ShippingFee: "free"})
		assert.Error(t, err)

		_, err = NewCheckoutPolicy(config.CheckoutConfig{ShippingFee: "5.00", FreeShippingAbove: "lots"})
		assert.Error(t, err)
	})
}

func TestOrderServiceCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("places the order from cart snapshots and returns a client secret", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		c := cartWithItem(t, customerID, "19.99", 2)

		f.cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		f.store.On("PlaceOrder", ctx, mock.AnythingOfType("*order.Order"), c).Return(nil)
		f.customerRepo.On("FindByID", ctx, customerID).Return(nil, shared.ErrNotFound)
		f.orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*order.Order")).Return(nil)

		resp, err := f.svc.Checkout(ctx, customerID, CheckoutRequest{ShippingAddress: testAddress()})

		require.NoError(t, err)
		assert.Equal(t, "39.98", resp.Order.Subtotal)
		assert.Equal(t, "5.00", resp.Order.ShippingFee)
		assert.Equal(t, "44.98", resp.Order.TotalAmount)
		assert.Equal(t, string(order.OrderStatusPending), resp.Order.Status)
		assert.NotEmpty(t, resp.Order.PaymentIntentID)
		assert.NotEmpty(t, resp.PaymentClientSecret)
		assert.Equal(t, string(cart.CartStatusCheckedOut), string(c.Status))
		f.store.AssertExpectations(t)
	})

	t.Run("free shipping above the threshold", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		c := cartWithItem(t, customerID, "60.00", 2)

		f.cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		f.store.On("PlaceOrder", ctx, mock.AnythingOfType("*order.Order"), c).Return(nil)
		f.customerRepo.On("FindByID", ctx, customerID).Return(nil, shared.ErrNotFound)
		f.orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*order.Order")).Return(nil)

		resp, err := f.svc.Checkout(ctx, customerID, CheckoutRequest{ShippingAddress: testAddress()})

		require.NoError(t, err)
		assert.Equal(t, "0.00", resp.Order.ShippingFee)
		assert.Equal(t, "120.00", resp.Order.TotalAmount)
	})

	t.Run("no active cart reads as an empty cart", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		f.cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(nil, shared.ErrNotFound)

		_, err := f.svc.Checkout(ctx, customerID, CheckoutRequest{ShippingAddress: testAddress()})
		assert.ErrorIs(t, err, shared.ErrCartEmpty)
	})

	t.Run("empty cart cannot be checked out", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		c, err := cart.NewCart(customerID)
		require.NoError(t, err)
		f.cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)

		_, err = f.svc.Checkout(ctx, customerID, CheckoutRequest{ShippingAddress: testAddress()})
		assert.ErrorIs(t, err, shared.ErrCartEmpty)
		f.store.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("a lost checkout race surfaces as a conflict", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		c := cartWithItem(t, customerID, "19.99", 1)

		f.cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)
		f.store.On("PlaceOrder", ctx, mock.AnythingOfType("*order.Order"), c).Return(shared.ErrConcurrencyConflict)

		_, err := f.svc.Checkout(ctx, customerID, CheckoutRequest{ShippingAddress: testAddress()})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		f.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("a reused idempotency key does not place a second order", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		c := cartWithItem(t, customerID, "19.99", 2)

		f.cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil).Once()
		f.store.On("PlaceOrder", ctx, mock.AnythingOfType("*order.Order"), c).Return(nil).Once()
		f.customerRepo.On("FindByID", ctx, customerID).Return(nil, shared.ErrNotFound)
		f.orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*order.Order")).Return(nil)

		req := CheckoutRequest{ShippingAddress: testAddress(), IdempotencyKey: "key-123"}
		_, err := f.svc.Checkout(ctx, customerID, req)
		require.NoError(t, err)

		_, err = f.svc.Checkout(ctx, customerID, req)
		assert.ErrorIs(t, err, ErrDuplicateCheckout)
		f.store.AssertNumberOfCalls(t, "PlaceOrder", 1)
	})

	t.Run("a failed checkout releases the idempotency key", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		first := cartWithItem(t, customerID, "19.99", 1)
		second := cartWithItem(t, customerID, "19.99", 1)

		f.cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(first, nil).Once()
		f.store.On("PlaceOrder", ctx, mock.AnythingOfType("*order.Order"), first).Return(shared.ErrConcurrencyConflict).Once()
		f.cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(second, nil).Once()
		f.store.On("PlaceOrder", ctx, mock.AnythingOfType("*order.Order"), second).Return(nil).Once()
		f.customerRepo.On("FindByID", ctx, customerID).Return(nil, shared.ErrNotFound)
		f.orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*order.Order")).Return(nil)

		req := CheckoutRequest{ShippingAddress: testAddress(), IdempotencyKey: "key-456"}
		_, err := f.svc.Checkout(ctx, customerID, req)
		require.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		resp, err := f.svc.Checkout(ctx, customerID, req)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.PaymentClientSecret)
	})

	t.Run("invalid address leaves the cart active", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		c := cartWithItem(t, customerID, "19.99", 1)
		f.cartRepo.On("FindActiveByCustomer", ctx, customerID).Return(c, nil)

		_, err := f.svc.Checkout(ctx, customerID, CheckoutRequest{})
		require.Error(t, err)
		assert.True(t, c.IsActive())
		f.store.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderServiceHandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("payment success marks the order paid", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		o := pendingOrder(t, uuid.New(), "19.99", 2)
		require.NoError(t, o.SetPaymentIntent("pi_stub_000001"))

		f.orderRepo.On("FindByPaymentIntent", ctx, "pi_stub_000001").Return(o, nil)
		f.orderRepo.On("SaveWithLock", ctx, o).Return(nil)

		err := f.svc.HandleWebhook(ctx, []byte("pi_stub_000001"), payment.EventPaymentSucceeded)

		require.NoError(t, err)
		assert.Equal(t, order.OrderStatusPaid, o.Status)
		require.NotNil(t, o.PaidAt)
	})

	t.Run("a redelivered event is acknowledged once", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		o := pendingOrder(t, uuid.New(), "19.99", 2)
		require.NoError(t, o.SetPaymentIntent("pi_stub_000001"))

		f.orderRepo.On("FindByPaymentIntent", ctx, "pi_stub_000001").Return(o, nil).Once()
		f.orderRepo.On("SaveWithLock", ctx, o).Return(nil).Once()

		require.NoError(t, f.svc.HandleWebhook(ctx, []byte("pi_stub_000001"), payment.EventPaymentSucceeded))
		require.NoError(t, f.svc.HandleWebhook(ctx, []byte("pi_stub_000001"), payment.EventPaymentSucceeded))

		f.orderRepo.AssertExpectations(t)
	})

	t.Run("a failed save lets the redelivery retry", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		first := pendingOrder(t, customerID, "19.99", 2)
		require.NoError(t, first.SetPaymentIntent("pi_stub_000004"))
		second := pendingOrder(t, customerID, "19.99", 2)
		require.NoError(t, second.SetPaymentIntent("pi_stub_000004"))

		f.orderRepo.On("FindByPaymentIntent", ctx, "pi_stub_000004").Return(first, nil).Once()
		f.orderRepo.On("SaveWithLock", ctx, first).Return(shared.ErrConcurrencyConflict).Once()
		f.orderRepo.On("FindByPaymentIntent", ctx, "pi_stub_000004").Return(second, nil).Once()
		f.orderRepo.On("SaveWithLock", ctx, second).Return(nil).Once()

		err := f.svc.HandleWebhook(ctx, []byte("pi_stub_000004"), payment.EventPaymentSucceeded)
		require.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		// The redelivered event must reach the repository again, not
		// be skipped as already processed
		err = f.svc.HandleWebhook(ctx, []byte("pi_stub_000004"), payment.EventPaymentSucceeded)
		require.NoError(t, err)
		assert.Equal(t, order.OrderStatusPaid, second.Status)
		f.orderRepo.AssertExpectations(t)
	})

	t.Run("payment failure cancels the order and restores stock", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		o := pendingOrder(t, uuid.New(), "19.99", 2)
		require.NoError(t, o.SetPaymentIntent("pi_stub_000002"))
		productID := o.Items[0].ProductID

		f.orderRepo.On("FindByPaymentIntent", ctx, "pi_stub_000002").Return(o, nil)
		f.orderRepo.On("SaveWithLock", ctx, o).Return(nil)
		f.productRepo.On("ReleaseStock", ctx, productID, int64(2)).Return(nil)

		err := f.svc.HandleWebhook(ctx, []byte("pi_stub_000002"), payment.EventPaymentFailed)

		require.NoError(t, err)
		assert.Equal(t, order.OrderStatusCancelled, o.Status)
		f.productRepo.AssertExpectations(t)
	})

	t.Run("unknown payment intent is acknowledged", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		f.orderRepo.On("FindByPaymentIntent", ctx, "pi_unknown").Return(nil, shared.ErrNotFound)

		err := f.svc.HandleWebhook(ctx, []byte("pi_unknown"), payment.EventPaymentSucceeded)
		assert.NoError(t, err)
	})

	t.Run("unrelated event types are ignored", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		err := f.svc.HandleWebhook(ctx, []byte("pi_stub_000003"), "charge.refunded")
		assert.NoError(t, err)
		f.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestOrderServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("paid orders ship and deliver", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		o := pendingOrder(t, uuid.New(), "19.99", 1)
		require.NoError(t, o.MarkPaid())
		o.ClearDomainEvents()

		f.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		f.orderRepo.On("SaveWithLock", ctx, o).Return(nil)

		resp, err := f.svc.Ship(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, string(order.OrderStatusShipped), resp.Status)

		resp, err = f.svc.Deliver(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, string(order.OrderStatusDelivered), resp.Status)
	})

	t.Run("pending orders cannot ship", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		o := pendingOrder(t, uuid.New(), "19.99", 1)
		f.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := f.svc.Ship(ctx, o.ID)
		require.Error(t, err)
		f.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestOrderServiceCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("customer cancels their own pending order", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		o := pendingOrder(t, customerID, "19.99", 3)
		productID := o.Items[0].ProductID

		f.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		f.orderRepo.On("SaveWithLock", ctx, o).Return(nil)
		f.productRepo.On("ReleaseStock", ctx, productID, int64(3)).Return(nil)

		resp, err := f.svc.Cancel(ctx, o.ID, &customerID, CancelRequest{Reason: "Changed my mind"})

		require.NoError(t, err)
		assert.Equal(t, string(order.OrderStatusCancelled), resp.Status)
		assert.Equal(t, "Changed my mind", resp.CancelReason)
		f.productRepo.AssertExpectations(t)
	})

	t.Run("cannot cancel another customer's order", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		o := pendingOrder(t, uuid.New(), "19.99", 1)
		stranger := uuid.New()
		f.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := f.svc.Cancel(ctx, o.ID, &stranger, CancelRequest{Reason: "Not mine"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("shipped orders cannot be cancelled", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		o := pendingOrder(t, uuid.New(), "19.99", 1)
		require.NoError(t, o.MarkPaid())
		require.NoError(t, o.Ship())
		o.ClearDomainEvents()

		f.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := f.svc.Cancel(ctx, o.ID, nil, CancelRequest{Reason: "Too late"})
		require.Error(t, err)
		f.productRepo.AssertNotCalled(t, "ReleaseStock", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderServiceQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("customers see only their own order", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		o := pendingOrder(t, customerID, "19.99", 1)
		f.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		resp, err := f.svc.Get(ctx, o.ID, &customerID)
		require.NoError(t, err)
		assert.Equal(t, o.OrderNumber, resp.OrderNumber)

		stranger := uuid.New()
		_, err = f.svc.Get(ctx, o.ID, &stranger)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("listing passes the status filter through", func(t *testing.T) {
		f := newOrderServiceFixture(t)

		customerID := uuid.New()
		o := pendingOrder(t, customerID, "19.99", 1)

		var captured shared.Filter
		f.orderRepo.On("FindByCustomer", ctx, customerID, mock.AnythingOfType("shared.Filter")).
			Run(func(args mock.Arguments) {
				captured = args.Get(2).(shared.Filter)
			}).
			Return([]order.Order{*o}, nil)
		f.orderRepo.On("CountByCustomer", ctx, customerID, mock.AnythingOfType("shared.Filter")).Return(int64(1), nil)

		result, err := f.svc.ListByCustomer(ctx, customerID, ListOrdersInput{Status: "pending"})

		require.NoError(t, err)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, "pending", captured.Filters["status"])
	})
}
