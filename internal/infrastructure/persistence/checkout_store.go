package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormCheckoutStore persists an order and checks out its source cart
// in a single database transaction
type GormCheckoutStore struct {
	db *gorm.DB
}

// NewGormCheckoutStore creates a new GormCheckoutStore
func NewGormCheckoutStore(db *gorm.DB) *GormCheckoutStore {
	return &GormCheckoutStore{db: db}
}

// PlaceOrder inserts the order with its items and flips the cart to
// checked out, all in one transaction. The cart update is conditional
// on the cart still being active at its expected version, so a cart
// can only ever produce one order.
func (s *GormCheckoutStore) PlaceOrder(ctx context.Context, o *order.Order, c *cart.Cart) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := c.Version
		c.Version++
		c.UpdatedAt = time.Now()

		result := tx.Model(&cart.Cart{}).
			Where("id = ? AND version = ? AND status = ?", c.ID, currentVersion, cart.CartStatusActive).
			Updates(map[string]interface{}{
				"status":     cart.CartStatusCheckedOut,
				"version":    c.Version,
				"updated_at": c.UpdatedAt,
			})
		if result.Error != nil {
			c.Version = currentVersion
			return result.Error
		}
		if result.RowsAffected == 0 {
			c.Version = currentVersion
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Omit("Items").Create(o).Error; err != nil {
			return err
		}
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
			if err := tx.Create(&o.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
