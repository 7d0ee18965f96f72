package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormCartRepository implements CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByID finds a cart by its ID, items included
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindActiveByCustomer finds the customer's active cart, items included
func (r *GormCartRepository) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ? AND status = ?", customerID, cart.CartStatusActive).
		Order("created_at DESC").
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Save creates or updates a cart together with its items
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(c).Error; err != nil {
			return err
		}
		return r.syncItems(tx, c)
	})
}

// SaveWithLock updates a cart with optimistic lock checking
func (r *GormCartRepository) SaveWithLock(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := c.Version
		c.Version++
		c.UpdatedAt = time.Now()

		result := tx.Model(&cart.Cart{}).
			Where("id = ? AND version = ?", c.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":     c.Status,
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

		return r.syncItems(tx, c)
	})
}

// FindIdleActive finds active carts not touched since the given time
func (r *GormCartRepository) FindIdleActive(ctx context.Context, before time.Time, limit int) ([]cart.Cart, error) {
	var carts []cart.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND updated_at < ?", cart.CartStatusActive, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

// Delete deletes a cart and its items
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&cart.Cart{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// syncItems deletes removed lines and upserts the remaining ones
func (r *GormCartRepository) syncItems(tx *gorm.DB, c *cart.Cart) error {
	currentItemIDs := make([]uuid.UUID, len(c.Items))
	for i, item := range c.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("cart_id = ? AND id NOT IN ?", c.ID, currentItemIDs).
			Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("cart_id = ?", c.ID).
			Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
	}

	for i := range c.Items {
		c.Items[i].CartID = c.ID
		if err := tx.Save(&c.Items[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// Ensure GormCartRepository implements CartRepository
var _ cart.CartRepository = (*GormCartRepository)(nil)
