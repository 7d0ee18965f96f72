package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

func price(t *testing.T, s string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyUSDFromString(s)
	require.NoError(t, err)
	return m
}

func TestNewCart(t *testing.T) {
	t.Run("creates active empty cart", func(t *testing.T) {
		customerID := uuid.New()
		c, err := NewCart(customerID)
		require.NoError(t, err)

		assert.Equal(t, customerID, c.CustomerID)
		assert.Equal(t, CartStatusActive, c.Status)
		assert.True(t, c.IsEmpty())
		assert.True(t, c.IsActive())
		assert.Equal(t, int64(0), c.ItemCount())
	})

	t.Run("rejects nil customer", func(t *testing.T) {
		_, err := NewCart(uuid.Nil)
		assert.Error(t, err)
	})
}

func TestCartAddItem(t *testing.T) {
	t.Run("adds new line", func(t *testing.T) {
		c, _ := NewCart(uuid.New())
		productID := uuid.New()

		err := c.AddItem(productID, "Basic Tee", "TEE-001", 2, price(t, "19.99"))
		require.NoError(t, err)

		require.Len(t, c.Items, 1)
		assert.Equal(t, int64(2), c.Items[0].Quantity)
		assert.Equal(t, "39.98", c.Subtotal().StringFixed(2))
	})

	t.Run("merges quantity for existing product", func(t *testing.T) {
		c, _ := NewCart(uuid.New())
		productID := uuid.New()

		require.NoError(t, c.AddItem(productID, "Basic Tee", "TEE-001", 2, price(t, "19.99")))
		require.NoError(t, c.AddItem(productID, "Basic Tee", "TEE-001", 3, price(t, "24.99")))

		require.Len(t, c.Items, 1)
		assert.Equal(t, int64(5), c.Items[0].Quantity)
		// price snapshot of the first add is kept
		assert.True(t, c.Items[0].UnitPrice.Equal(decimal.NewFromFloat(19.99)))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		c, _ := NewCart(uuid.New())
		assert.Error(t, c.AddItem(uuid.New(), "Basic Tee", "TEE-001", 0, price(t, "19.99")))
	})

	t.Run("records item added event", func(t *testing.T) {
		c, _ := NewCart(uuid.New())
		require.NoError(t, c.AddItem(uuid.New(), "Basic Tee", "TEE-001", 1, price(t, "19.99")))

		events := c.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeCartItemAdded, events[0].EventType())
	})
}

func TestCartSetItemQuantity(t *testing.T) {
	c, _ := NewCart(uuid.New())
	productID := uuid.New()
	require.NoError(t, c.AddItem(productID, "Basic Tee", "TEE-001", 2, price(t, "19.99")))

	t.Run("returns positive delta on increase", func(t *testing.T) {
		delta, err := c.SetItemQuantity(productID, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(3), delta)
		assert.Equal(t, int64(5), c.Items[0].Quantity)
	})

	t.Run("returns negative delta on decrease", func(t *testing.T) {
		delta, err := c.SetItemQuantity(productID, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(-4), delta)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := c.SetItemQuantity(productID, 0)
		assert.Error(t, err)
	})

	t.Run("fails for unknown product", func(t *testing.T) {
		_, err := c.SetItemQuantity(uuid.New(), 2)
		assert.Error(t, err)
	})
}

func TestCartRemoveItem(t *testing.T) {
	c, _ := NewCart(uuid.New())
	productID := uuid.New()
	require.NoError(t, c.AddItem(productID, "Basic Tee", "TEE-001", 3, price(t, "19.99")))

	t.Run("removes line and returns quantity", func(t *testing.T) {
		removed, err := c.RemoveItem(productID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)
		assert.True(t, c.IsEmpty())
	})

	t.Run("fails for unknown product", func(t *testing.T) {
		_, err := c.RemoveItem(productID)
		assert.Error(t, err)
	})
}

func TestCartClear(t *testing.T) {
	c, _ := NewCart(uuid.New())
	p1 := uuid.New()
	p2 := uuid.New()
	require.NoError(t, c.AddItem(p1, "Basic Tee", "TEE-001", 2, price(t, "19.99")))
	require.NoError(t, c.AddItem(p2, "Mug", "MUG-001", 1, price(t, "9.99")))

	released, err := c.Clear()
	require.NoError(t, err)

	assert.True(t, c.IsEmpty())
	assert.Equal(t, map[uuid.UUID]int64{p1: 2, p2: 1}, released)
}

func TestCartMarkCheckedOut(t *testing.T) {
	t.Run("fails on empty cart", func(t *testing.T) {
		c, _ := NewCart(uuid.New())
		err := c.MarkCheckedOut()
		assert.ErrorIs(t, err, shared.ErrCartEmpty)
	})

	t.Run("freezes the cart", func(t *testing.T) {
		c, _ := NewCart(uuid.New())
		productID := uuid.New()
		require.NoError(t, c.AddItem(productID, "Basic Tee", "TEE-001", 1, price(t, "19.99")))

		require.NoError(t, c.MarkCheckedOut())
		assert.Equal(t, CartStatusCheckedOut, c.Status)
		assert.False(t, c.IsActive())

		assert.Error(t, c.AddItem(uuid.New(), "Mug", "MUG-001", 1, price(t, "9.99")))
		_, err := c.SetItemQuantity(productID, 2)
		assert.Error(t, err)
		_, err = c.RemoveItem(productID)
		assert.Error(t, err)
		_, err = c.Clear()
		assert.Error(t, err)
		assert.Error(t, c.MarkCheckedOut())
	})
}

func TestCartTotals(t *testing.T) {
	c, _ := NewCart(uuid.New())
	require.NoError(t, c.AddItem(uuid.New(), "Basic Tee", "TEE-001", 2, price(t, "19.99")))
	require.NoError(t, c.AddItem(uuid.New(), "Mug", "MUG-001", 3, price(t, "9.50")))

	assert.Equal(t, int64(5), c.ItemCount())
	assert.Equal(t, "68.48", c.Subtotal().StringFixed(2))
	assert.Equal(t, valueobject.USD, c.SubtotalMoney().Currency())
}
