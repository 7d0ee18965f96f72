package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// newMockCartRepository creates a GormCartRepository with a mocked SQL connection
func newMockCartRepository(t *testing.T) (*GormCartRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCartRepository(gormDB), mock, mockDB
}

func TestGormCartRepository_FindActiveByCustomer(t *testing.T) {
	t.Run("loads the cart together with its items", func(t *testing.T) {
		repo, mock, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		cartID := uuid.New()
		customerID := uuid.New()
		productID := uuid.New()

		cartRows := sqlmock.NewRows([]string{"id", "customer_id", "status", "version"}).
			AddRow(cartID, customerID, "active", 1)

		mock.ExpectQuery(`SELECT \* FROM "carts" WHERE customer_id = \$1 AND status = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(customerID, "active", 1).
			WillReturnRows(cartRows)

		itemRows := sqlmock.NewRows([]string{"id", "cart_id", "product_id", "product_name", "sku", "quantity", "unit_price"}).
			AddRow(uuid.New(), cartID, productID, "Widget", "WIDGET-001", int64(2), decimal.RequireFromString("19.99"))

		mock.ExpectQuery(`SELECT \* FROM "cart_items" WHERE "cart_items"\."cart_id" = \$1`).
			WithArgs(cartID).
			WillReturnRows(itemRows)

		c, err := repo.FindActiveByCustomer(context.Background(), customerID)

		assert.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, cartID, c.ID)
		require.Len(t, c.Items, 1)
		assert.Equal(t, productID, c.Items[0].ProductID)
		assert.EqualValues(t, 2, c.Items[0].Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when the customer has no active cart", func(t *testing.T) {
		repo, mock, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "carts" WHERE customer_id = \$1 AND status = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(customerID, "active", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindActiveByCustomer(context.Background(), customerID)

		assert.Nil(t, c)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCartRepository_FindIdleActive(t *testing.T) {
	t.Run("returns stale active carts oldest first", func(t *testing.T) {
		repo, mock, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		cartID := uuid.New()
		cutoff := time.Now().Add(-72 * time.Hour)

		cartRows := sqlmock.NewRows([]string{"id", "customer_id", "status", "version"}).
			AddRow(cartID, uuid.New(), "active", 1)

		mock.ExpectQuery(`SELECT \* FROM "carts" WHERE status = \$1 AND updated_at < \$2 ORDER BY updated_at ASC LIMIT .*`).
			WithArgs("active", cutoff, 100).
			WillReturnRows(cartRows)

		itemRows := sqlmock.NewRows([]string{"id", "cart_id", "product_id", "product_name", "sku", "quantity", "unit_price"}).
			AddRow(uuid.New(), cartID, uuid.New(), "Widget", "WIDGET-001", int64(1), decimal.RequireFromString("19.99"))

		mock.ExpectQuery(`SELECT \* FROM "cart_items" WHERE "cart_items"\."cart_id" = \$1`).
			WithArgs(cartID).
			WillReturnRows(itemRows)

		carts, err := repo.FindIdleActive(context.Background(), cutoff, 100)

		assert.NoError(t, err)
		require.Len(t, carts, 1)
		assert.Equal(t, cartID, carts[0].ID)
		require.Len(t, carts[0].Items, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result when every cart is fresh", func(t *testing.T) {
		repo, mock, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		cutoff := time.Now().Add(-72 * time.Hour)

		mock.ExpectQuery(`SELECT \* FROM "carts" WHERE status = \$1 AND updated_at < \$2`).
			WithArgs("active", cutoff, 100).
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "status", "version"}))

		carts, err := repo.FindIdleActive(context.Background(), cutoff, 100)

		assert.NoError(t, err)
		assert.Empty(t, carts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCartRepository_SaveWithLock(t *testing.T) {
	t.Run("returns conflict when another transaction won", func(t *testing.T) {
		repo, mock, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		c, err := cart.NewCart(uuid.New())
		require.NoError(t, err)
		c.Version = 1

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "carts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.SaveWithLock(context.Background(), c)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, c.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCartRepository_Delete(t *testing.T) {
	t.Run("deletes items before the cart", func(t *testing.T) {
		repo, mock, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		cartID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "cart_items" WHERE cart_id = \$1`).
			WithArgs(cartID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM "carts" WHERE id = \$1`).
			WithArgs(cartID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Delete(context.Background(), cartID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for a missing cart", func(t *testing.T) {
		repo, mock, mockDB := newMockCartRepository(t)
		defer mockDB.Close()

		cartID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "cart_items" WHERE cart_id = \$1`).
			WithArgs(cartID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM "carts" WHERE id = \$1`).
			WithArgs(cartID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), cartID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
