package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

func mustPrice(t *testing.T, s string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyUSDFromString(s)
	require.NoError(t, err)
	return m
}

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid input", func(t *testing.T) {
		product, err := NewProduct("tee-001", "Basic Tee", mustPrice(t, "19.99"))
		require.NoError(t, err)

		assert.Equal(t, "TEE-001", product.SKU)
		assert.Equal(t, "Basic Tee", product.Name)
		assert.True(t, product.Price.Equal(decimal.NewFromFloat(19.99)))
		assert.Equal(t, ProductStatusActive, product.Status)
		assert.Equal(t, int64(0), product.Stock)
		assert.Equal(t, 1, product.GetVersion())
		assert.NotEqual(t, uuid.Nil, product.ID)
	})

	t.Run("publishes created event", func(t *testing.T) {
		product, err := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "19.99"))
		require.NoError(t, err)

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductCreated, events[0].EventType())
	})

	t.Run("rejects empty sku", func(t *testing.T) {
		_, err := NewProduct("", "Basic Tee", mustPrice(t, "19.99"))
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_SKU", domainErr.Code)
	})

	t.Run("rejects sku with invalid characters", func(t *testing.T) {
		_, err := NewProduct("TEE 001!", "Basic Tee", mustPrice(t, "19.99"))
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewProduct("TEE-001", "", mustPrice(t, "19.99"))
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "-1.00"))
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PRICE", domainErr.Code)
	})
}

func TestProductUpdate(t *testing.T) {
	product, _ := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "19.99"))
	product.ClearDomainEvents()

	t.Run("updates fields", func(t *testing.T) {
		err := product.Update("Premium Tee", "Soft cotton", "Acme")
		require.NoError(t, err)

		assert.Equal(t, "Premium Tee", product.Name)
		assert.Equal(t, "Soft cotton", product.Description)
		assert.Equal(t, "Acme", product.Brand)
		require.Len(t, product.GetDomainEvents(), 1)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		err := product.Update("", "desc", "Acme")
		assert.Error(t, err)
	})
}

func TestProductSetPrice(t *testing.T) {
	product, _ := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "19.99"))
	product.ClearDomainEvents()

	t.Run("changes price and records event", func(t *testing.T) {
		err := product.SetPrice(mustPrice(t, "24.99"))
		require.NoError(t, err)
		assert.True(t, product.Price.Equal(decimal.NewFromFloat(24.99)))

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		priceEvent, ok := events[0].(*ProductPriceChangedEvent)
		require.True(t, ok)
		assert.True(t, priceEvent.OldPrice.Equal(decimal.NewFromFloat(19.99)))
		assert.True(t, priceEvent.NewPrice.Equal(decimal.NewFromFloat(24.99)))
	})

	t.Run("rejects negative price", func(t *testing.T) {
		err := product.SetPrice(mustPrice(t, "-5"))
		assert.Error(t, err)
	})
}

func TestProductRestock(t *testing.T) {
	product, _ := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "19.99"))

	t.Run("adds stock", func(t *testing.T) {
		require.NoError(t, product.Restock(10))
		assert.Equal(t, int64(10), product.Stock)

		require.NoError(t, product.Restock(5))
		assert.Equal(t, int64(15), product.Stock)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		assert.Error(t, product.Restock(0))
		assert.Error(t, product.Restock(-3))
	})
}

func TestProductImages(t *testing.T) {
	product, _ := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "19.99"))

	t.Run("starts empty", func(t *testing.T) {
		assert.Empty(t, product.Images())
	})

	t.Run("adds and lists keys", func(t *testing.T) {
		require.NoError(t, product.AddImage("products/tee-front.jpg"))
		require.NoError(t, product.AddImage("products/tee-back.jpg"))
		assert.Equal(t, []string{"products/tee-front.jpg", "products/tee-back.jpg"}, product.Images())
	})

	t.Run("ignores duplicate key", func(t *testing.T) {
		require.NoError(t, product.AddImage("products/tee-front.jpg"))
		assert.Len(t, product.Images(), 2)
	})

	t.Run("removes key", func(t *testing.T) {
		require.NoError(t, product.RemoveImage("products/tee-front.jpg"))
		assert.Equal(t, []string{"products/tee-back.jpg"}, product.Images())
	})

	t.Run("remove of unknown key fails", func(t *testing.T) {
		err := product.RemoveImage("products/missing.jpg")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects empty key", func(t *testing.T) {
		assert.Error(t, product.AddImage(""))
	})
}

func TestProductApplyRatingStats(t *testing.T) {
	product, _ := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "19.99"))

	product.ApplyRatingStats(decimal.NewFromFloat(4.266), 3)

	assert.Equal(t, "4.27", product.RatingAverage.StringFixed(2))
	assert.Equal(t, int64(3), product.RatingCount)
}

func TestProductStatusTransitions(t *testing.T) {
	t.Run("deactivate then reactivate", func(t *testing.T) {
		product, _ := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "19.99"))

		require.NoError(t, product.Deactivate())
		assert.Equal(t, ProductStatusInactive, product.Status)
		assert.False(t, product.IsPurchasable())

		require.NoError(t, product.Activate())
		assert.True(t, product.IsActive())
		assert.True(t, product.IsPurchasable())
	})

	t.Run("cannot activate twice", func(t *testing.T) {
		product, _ := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "19.99"))
		assert.Error(t, product.Activate())
	})

	t.Run("discontinue is terminal", func(t *testing.T) {
		product, _ := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "19.99"))

		require.NoError(t, product.Discontinue())
		assert.True(t, product.IsDiscontinued())
		assert.Error(t, product.Activate())
		assert.Error(t, product.Deactivate())
		assert.Error(t, product.Discontinue())
	})
}

func TestProductPriceMoney(t *testing.T) {
	product, _ := NewProduct("TEE-001", "Basic Tee", mustPrice(t, "19.99"))
	money := product.PriceMoney()
	assert.Equal(t, valueobject.USD, money.Currency())
	assert.Equal(t, int64(1999), money.Cents())
}
