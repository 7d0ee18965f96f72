package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

func TestStubPaymentGateway(t *testing.T) {
	gw := NewStubPaymentGateway()
	amount, err := valueobject.NewMoneyUSDFromString("10.00")
	require.NoError(t, err)

	t.Run("intent lifecycle", func(t *testing.T) {
		intent, err := gw.CreateIntent(context.Background(), CreateIntentInput{
			OrderID:     uuid.New(),
			OrderNumber: "ORD-1",
			Amount:      amount,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1000), intent.Amount)
		assert.Equal(t, "usd", intent.Currency)

		got, err := gw.GetIntent(context.Background(), intent.ID)
		require.NoError(t, err)
		assert.Equal(t, intent.ID, got.ID)

		cancelled, err := gw.CancelIntent(context.Background(), intent.ID)
		require.NoError(t, err)
		assert.Equal(t, "canceled", cancelled.Status)
	})

	t.Run("unknown intent", func(t *testing.T) {
		_, err := gw.GetIntent(context.Background(), "pi_missing")
		assert.Error(t, err)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := gw.CreateIntent(context.Background(), CreateIntentInput{
			OrderID: uuid.New(),
			Amount:  valueobject.ZeroUSD(),
		})
		assert.Error(t, err)
	})

	t.Run("webhook passthrough", func(t *testing.T) {
		event, err := gw.VerifyWebhook([]byte("pi_stub_000001"), EventPaymentSucceeded)
		require.NoError(t, err)
		assert.Equal(t, EventPaymentSucceeded, event.Type)
		assert.Equal(t, "pi_stub_000001", event.PaymentIntentID)
	})
}
