package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

// webhookDedupTTL is how long processed webhook event IDs are remembered
const webhookDedupTTL = 24 * time.Hour

// checkoutDedupTTL is how long claimed checkout idempotency keys are
// remembered
const checkoutDedupTTL = 24 * time.Hour

// ErrDuplicateCheckout is returned when a checkout reuses an
// idempotency key that already produced an order
var ErrDuplicateCheckout = shared.NewDomainError("DUPLICATE_CHECKOUT", "A checkout with this idempotency key was already submitted")

// CheckoutStore persists an order and checks out its source cart in a
// single transaction
type CheckoutStore interface {
	PlaceOrder(ctx context.Context, o *order.Order, c *cart.Cart) error
}

// CheckoutPolicy decides the shipping fee for an order
type CheckoutPolicy struct {
	shippingFee       valueobject.Money
	freeShippingAbove *decimal.Decimal
}

// NewCheckoutPolicy parses the checkout settings
func NewCheckoutPolicy(cfg config.CheckoutConfig) (CheckoutPolicy, error) {
	fee, err := valueobject.NewMoneyUSDFromString(cfg.ShippingFee)
	if err != nil {
		return CheckoutPolicy{}, fmt.Errorf("checkout: invalid shipping fee %q: %w", cfg.ShippingFee, err)
	}

	policy := CheckoutPolicy{shippingFee: fee}
	if cfg.FreeShippingAbove != "" {
		threshold, err := decimal.NewFromString(cfg.FreeShippingAbove)
		if err != nil {
			return CheckoutPolicy{}, fmt.Errorf("checkout: invalid free shipping threshold %q: %w", cfg.FreeShippingAbove, err)
		}
		policy.freeShippingAbove = &threshold
	}
	return policy, nil
}

// FeeFor returns the shipping fee for the given order subtotal
func (p CheckoutPolicy) FeeFor(subtotal decimal.Decimal) valueobject.Money {
	if p.freeShippingAbove != nil && subtotal.GreaterThanOrEqual(*p.freeShippingAbove) {
		return valueobject.ZeroUSD()
	}
	return p.shippingFee
}

// OrderService handles checkout, payment confirmation and the order
// lifecycle
type OrderService struct {
	orderRepo    order.OrderRepository
	cartRepo     cart.CartRepository
	productRepo  catalog.ProductRepository
	customerRepo identity.CustomerRepository
	store        CheckoutStore
	gateway      payment.PaymentGateway
	events       shared.EventPublisher
	idempotency  cache.IdempotencyStore
	policy       CheckoutPolicy
	logger       *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.OrderRepository,
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	customerRepo identity.CustomerRepository,
	store CheckoutStore,
	gateway payment.PaymentGateway,
	events shared.EventPublisher,
	idempotency cache.IdempotencyStore,
	policy CheckoutPolicy,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		store:        store,
		gateway:      gateway,
		events:       events,
		idempotency:  idempotency,
		policy:       policy,
		logger:       logger,
	}
}

// Checkout turns the customer's active cart into a pending order.
// Totals come from the price snapshots the cart lines carry. The cart
// transition and the order insert happen in one transaction, then a
// payment intent is created for the order total. When the request
// carries an idempotency key, a resubmission under the same key is
// rejected; the key is released again if the checkout fails.
func (s *OrderService) Checkout(ctx context.Context, customerID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error) {
	if req.IdempotencyKey == "" {
		return s.checkout(ctx, customerID, req)
	}

	claim := checkoutClaimKey(customerID, req.IdempotencyKey)
	claimed, err := s.idempotency.MarkProcessed(ctx, claim, checkoutDedupTTL)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.logger.Debug("Rejecting checkout with an already used idempotency key",
			zap.String("customer_id", customerID.String()))
		return nil, ErrDuplicateCheckout
	}

	resp, err := s.checkout(ctx, customerID, req)
	if err != nil {
		s.releaseClaim(ctx, claim)
		return nil, err
	}
	return resp, nil
}

func (s *OrderService) checkout(ctx context.Context, customerID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error) {
	c, err := s.cartRepo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrCartEmpty
		}
		return nil, err
	}
	if c.IsEmpty() {
		return nil, shared.ErrCartEmpty
	}

	lines := make([]order.OrderLine, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		lines[i] = order.OrderLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   valueobject.NewMoneyUSD(item.UnitPrice),
		}
	}

	o, err := order.NewOrder(customerID, lines, req.ShippingAddress.toDomain(), s.policy.FeeFor(c.Subtotal()))
	if err != nil {
		return nil, err
	}

	if err := c.MarkCheckedOut(); err != nil {
		return nil, err
	}

	if err := s.store.PlaceOrder(ctx, o, c); err != nil {
		s.logger.Error("Failed to place order",
			zap.String("cart_id", c.ID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.TotalAmount.StringFixed(2)))

	s.publish(ctx, c.GetDomainEvents()...)
	c.ClearDomainEvents()
	s.publish(ctx, o.GetDomainEvents()...)
	o.ClearDomainEvents()

	clientSecret, err := s.createIntent(ctx, o)
	if err != nil {
		// The order stays pending; payment can be retried
		s.logger.Error("Failed to create payment intent",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}

	return &CheckoutResponse{
		Order:               toOrderResponse(o),
		PaymentClientSecret: clientSecret,
	}, nil
}

// RetryPayment creates a fresh payment intent for a pending order that
// has none, or returns the existing one
func (s *OrderService) RetryPayment(ctx context.Context, customerID, orderID uuid.UUID) (*CheckoutResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, shared.ErrForbidden
	}
	if !o.IsPending() {
		return nil, shared.NewDomainError("INVALID_STATE", "Order is not awaiting payment")
	}

	if o.PaymentIntentID != "" {
		intent, err := s.gateway.GetIntent(ctx, o.PaymentIntentID)
		if err == nil {
			return &CheckoutResponse{
				Order:               toOrderResponse(o),
				PaymentClientSecret: intent.ClientSecret,
			}, nil
		}
		s.logger.Warn("Failed to load existing payment intent, creating a new one",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}

	clientSecret, err := s.createIntent(ctx, o)
	if err != nil {
		return nil, err
	}

	return &CheckoutResponse{
		Order:               toOrderResponse(o),
		PaymentClientSecret: clientSecret,
	}, nil
}

// HandleWebhook verifies and applies a payment processor notification.
// Redelivered events are acknowledged without reprocessing.
func (s *OrderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return err
	}
	if event.PaymentIntentID == "" {
		return nil
	}

	newlyMarked, err := s.idempotency.MarkProcessed(ctx, event.ID, webhookDedupTTL)
	if err != nil {
		return err
	}
	if !newlyMarked {
		s.logger.Debug("Skipping already processed webhook event",
			zap.String("event_id", event.ID))
		return nil
	}

	// The marker must not outlive a failed state change, or the
	// processor's redelivery would be skipped and the order stuck
	if err := s.applyPaymentEvent(ctx, event); err != nil {
		s.releaseClaim(ctx, event.ID)
		return err
	}
	return nil
}

func (s *OrderService) applyPaymentEvent(ctx context.Context, event *payment.WebhookEvent) error {
	o, err := s.orderRepo.FindByPaymentIntent(ctx, event.PaymentIntentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Webhook references unknown payment intent",
				zap.String("event_id", event.ID),
				zap.String("payment_intent_id", event.PaymentIntentID))
			return nil
		}
		return err
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		return s.confirmPayment(ctx, o, event.ID)
	case payment.EventPaymentFailed, payment.EventPaymentCanceled:
		if !o.IsPending() {
			return nil
		}
		return s.cancelAndRestock(ctx, o, "Payment was not completed")
	default:
		return nil
	}
}

// Ship marks a paid order as shipped
func (s *OrderService) Ship(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, (*order.Order).Ship)
}

// Deliver marks a shipped order as delivered
func (s *OrderService) Deliver(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, (*order.Order).Deliver)
}

// Cancel cancels an unshipped order and returns its stock. When
// requestedBy is set the order must belong to that customer.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, requestedBy *uuid.UUID, req CancelRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if requestedBy != nil && o.CustomerID != *requestedBy {
		return nil, shared.ErrForbidden
	}

	hadIntent := o.IsPending() && o.PaymentIntentID != ""

	if err := s.cancelAndRestock(ctx, o, req.Reason); err != nil {
		return nil, err
	}

	if hadIntent {
		if _, err := s.gateway.CancelIntent(ctx, o.PaymentIntentID); err != nil {
			s.logger.Warn("Failed to cancel payment intent",
				zap.String("order_id", o.ID.String()),
				zap.Error(err))
		}
	}

	resp := toOrderResponse(o)
	return &resp, nil
}

// Get returns an order. When requestedBy is set the order must belong
// to that customer.
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID, requestedBy *uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if requestedBy != nil && o.CustomerID != *requestedBy {
		return nil, shared.ErrForbidden
	}
	resp := toOrderResponse(o)
	return &resp, nil
}

// ListByCustomer returns a page of the customer's orders
func (s *OrderService) ListByCustomer(ctx context.Context, customerID uuid.UUID, input ListOrdersInput) (*shared.Paginated[OrderResponse], error) {
	f := toSharedFilter(input)

	orders, err := s.orderRepo.FindByCustomer(ctx, customerID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.CountByCustomer(ctx, customerID, f)
	if err != nil {
		return nil, err
	}

	return paginate(orders, total, f), nil
}

// ListAll returns a page of all orders
func (s *OrderService) ListAll(ctx context.Context, input ListOrdersInput) (*shared.Paginated[OrderResponse], error) {
	f := toSharedFilter(input)

	orders, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	return paginate(orders, total, f), nil
}

func (s *OrderService) createIntent(ctx context.Context, o *order.Order) (string, error) {
	input := payment.CreateIntentInput{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Amount:      o.TotalMoney(),
	}
	if customer, err := s.customerRepo.FindByID(ctx, o.CustomerID); err == nil {
		input.CustomerEmail = customer.Email
	}

	intent, err := s.gateway.CreateIntent(ctx, input)
	if err != nil {
		return "", err
	}

	if err := o.SetPaymentIntent(intent.ID); err != nil {
		return "", err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return "", err
	}

	return intent.ClientSecret, nil
}

func (s *OrderService) confirmPayment(ctx context.Context, o *order.Order, eventID string) error {
	if err := o.MarkPaid(); err != nil {
		// A second success for the same intent is not an error
		s.logger.Warn("Payment confirmation for order not awaiting payment",
			zap.String("order_id", o.ID.String()),
			zap.String("event_id", eventID),
			zap.String("status", string(o.Status)))
		return nil
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return err
	}

	s.logger.Info("Order paid",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber))

	s.publish(ctx, o.GetDomainEvents()...)
	o.ClearDomainEvents()
	return nil
}

func (s *OrderService) cancelAndRestock(ctx context.Context, o *order.Order, reason string) error {
	if err := o.Cancel(reason); err != nil {
		return err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		if err := s.productRepo.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("Failed to restore stock for cancelled order",
				zap.String("order_id", o.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Int64("quantity", item.Quantity),
				zap.Error(err))
		}
	}

	s.logger.Info("Order cancelled",
		zap.String("order_id", o.ID.String()),
		zap.String("reason", reason))

	s.publish(ctx, o.GetDomainEvents()...)
	o.ClearDomainEvents()
	return nil
}

func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, change func(*order.Order) error) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := change(o); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("status", string(o.Status)))

	s.publish(ctx, o.GetDomainEvents()...)
	o.ClearDomainEvents()

	resp := toOrderResponse(o)
	return &resp, nil
}

// releaseClaim drops an idempotency marker whose processing failed so
// the next attempt is not mistaken for a duplicate
func (s *OrderService) releaseClaim(ctx context.Context, key string) {
	if err := s.idempotency.Forget(ctx, key); err != nil {
		s.logger.Error("Failed to release idempotency claim",
			zap.String("key", key),
			zap.Error(err))
	}
}

func checkoutClaimKey(customerID uuid.UUID, idempotencyKey string) string {
	return "checkout:" + customerID.String() + ":" + idempotencyKey
}

func (s *OrderService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}

func toSharedFilter(input ListOrdersInput) shared.Filter {
	f := shared.DefaultFilter()
	if input.Page > 0 {
		f.Page = input.Page
	}
	if input.PageSize > 0 {
		f.PageSize = input.PageSize
	}
	if input.Status != "" {
		f.Filters["status"] = input.Status
	}
	return f
}

func paginate(orders []order.Order, total int64, f shared.Filter) *shared.Paginated[OrderResponse] {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = toOrderResponse(&orders[i])
	}
	result := shared.NewPaginated(responses, total, f.Page, f.PageSize)
	return &result
}
