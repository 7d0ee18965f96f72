package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// sweepBatchSize caps how many idle carts one sweep iteration loads
const sweepBatchSize = 100

// CartService handles shopping cart operations. Stock is reserved at
// add time through the product repository's atomic decrement, and any
// quantity leaving the cart releases its reservation.
type CartService struct {
	cartRepo    cart.CartRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// GetCart returns the customer's active cart, creating one if none exists
func (s *CartService) GetCart(ctx context.Context, customerID uuid.UUID) (*CartResponse, error) {
	c, err := s.getOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	resp := toCartResponse(c)
	return &resp, nil
}

// AddItem reserves stock for the requested quantity and adds the
// product to the cart, merging with an existing line for the same
// product. The reservation is released if the cart cannot be saved.
func (s *CartService) AddItem(ctx context.Context, customerID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	c, err := s.getOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available for purchase")
	}

	if err := s.productRepo.ReserveStock(ctx, product.ID, req.Quantity); err != nil {
		return nil, err
	}

	if err := s.addAndSave(ctx, c, product, req.Quantity); err != nil {
		s.releaseStock(ctx, product.ID, req.Quantity)
		return nil, err
	}

	s.logger.Info("Item added to cart",
		zap.String("cart_id", c.ID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int64("quantity", req.Quantity))

	resp := toCartResponse(c)
	return &resp, nil
}

// SetItemQuantity sets the absolute quantity of an existing line.
// A growing line reserves the difference, a shrinking line releases it.
func (s *CartService) SetItemQuantity(ctx context.Context, customerID, productID uuid.UUID, req SetQuantityRequest) (*CartResponse, error) {
	c, err := s.cartRepo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	delta, err := c.SetItemQuantity(productID, req.Quantity)
	if err != nil {
		return nil, err
	}

	if delta > 0 {
		if err := s.productRepo.ReserveStock(ctx, productID, delta); err != nil {
			return nil, err
		}
	}

	if err := s.cartRepo.SaveWithLock(ctx, c); err != nil {
		if delta > 0 {
			s.releaseStock(ctx, productID, delta)
		}
		return nil, err
	}

	if delta < 0 {
		s.releaseStock(ctx, productID, -delta)
	}

	resp := toCartResponse(c)
	return &resp, nil
}

// RemoveItem removes a line from the cart and releases its reservation
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*CartResponse, error) {
	c, err := s.cartRepo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	released, err := c.RemoveItem(productID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	s.releaseStock(ctx, productID, released)

	resp := toCartResponse(c)
	return &resp, nil
}

// Clear empties the cart and releases every reservation
func (s *CartService) Clear(ctx context.Context, customerID uuid.UUID) (*CartResponse, error) {
	c, err := s.cartRepo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	released, err := c.Clear()
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	for productID, quantity := range released {
		s.releaseStock(ctx, productID, quantity)
	}

	resp := toCartResponse(c)
	return &resp, nil
}

// SweepAbandoned deletes active carts idle for longer than idleFor and
// returns their reservations to stock. The customer gets a fresh cart
// on their next visit. Returns the number of carts swept.
func (s *CartService) SweepAbandoned(ctx context.Context, idleFor time.Duration) (int, error) {
	cutoff := time.Now().Add(-idleFor)
	swept := 0

	for {
		carts, err := s.cartRepo.FindIdleActive(ctx, cutoff, sweepBatchSize)
		if err != nil {
			return swept, err
		}
		if len(carts) == 0 {
			return swept, nil
		}

		for i := range carts {
			c := &carts[i]
			// Delete first. Releasing before a failed delete would
			// leave the cart eligible for the next sweep and count
			// the same reservation back into stock twice.
			if err := s.cartRepo.Delete(ctx, c.ID); err != nil {
				s.logger.Error("Failed to delete abandoned cart",
					zap.String("cart_id", c.ID.String()),
					zap.Error(err))
				continue
			}
			for _, item := range c.Items {
				s.releaseStock(ctx, item.ProductID, item.Quantity)
			}
			swept++
		}

		if len(carts) < sweepBatchSize {
			return swept, nil
		}
	}
}

func (s *CartService) getOrCreateCart(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	c, err := s.cartRepo.FindActiveByCustomer(ctx, customerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	c, err = cart.NewCart(customerID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Cart created",
		zap.String("cart_id", c.ID.String()),
		zap.String("customer_id", customerID.String()))

	return c, nil
}

func (s *CartService) addAndSave(ctx context.Context, c *cart.Cart, product *catalog.Product, quantity int64) error {
	if err := c.AddItem(product.ID, product.Name, product.SKU, quantity, product.PriceMoney()); err != nil {
		return err
	}
	return s.cartRepo.SaveWithLock(ctx, c)
}

// releaseStock returns a reservation to stock. A failed release leaves
// stock under-counted rather than oversold, so it is only logged.
func (s *CartService) releaseStock(ctx context.Context, productID uuid.UUID, quantity int64) {
	if quantity <= 0 {
		return
	}
	if err := s.productRepo.ReleaseStock(ctx, productID, quantity); err != nil {
		s.logger.Error("Failed to release reserved stock",
			zap.String("product_id", productID.String()),
			zap.Int64("quantity", quantity),
			zap.Error(err))
	}
}
