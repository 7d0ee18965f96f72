package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_JTI(t *testing.T) {
	t.Run("blacklisted JTI is reported", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()
		ctx := context.Background()

		require.NoError(t, bl.AddToBlacklist(ctx, "jti-1", time.Minute))

		blacklisted, err := bl.IsBlacklisted(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, blacklisted)
	})

	t.Run("unknown JTI is not blacklisted", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		blacklisted, err := bl.IsBlacklisted(context.Background(), "jti-unknown")
		require.NoError(t, err)
		assert.False(t, blacklisted)
	})

	t.Run("entries expire with their TTL", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()
		ctx := context.Background()

		require.NoError(t, bl.AddToBlacklist(ctx, "jti-short", -time.Second))

		blacklisted, err := bl.IsBlacklisted(ctx, "jti-short")
		require.NoError(t, err)
		assert.False(t, blacklisted)
	})
}

func TestInMemoryTokenBlacklist_CustomerInvalidation(t *testing.T) {
	t.Run("tokens issued before invalidation are rejected", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()
		ctx := context.Background()

		issuedAt := time.Now().Add(-time.Minute)
		require.NoError(t, bl.AddCustomerTokensToBlacklist(ctx, "customer-1", time.Hour))

		invalidated, err := bl.IsCustomerTokenInvalidated(ctx, "customer-1", issuedAt)
		require.NoError(t, err)
		assert.True(t, invalidated)
	})

	t.Run("tokens issued after invalidation stay valid", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()
		ctx := context.Background()

		require.NoError(t, bl.AddCustomerTokensToBlacklist(ctx, "customer-1", time.Hour))
		issuedAt := time.Now().Add(time.Second)

		invalidated, err := bl.IsCustomerTokenInvalidated(ctx, "customer-1", issuedAt)
		require.NoError(t, err)
		assert.False(t, invalidated)
	})

	t.Run("customers without invalidation are unaffected", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		invalidated, err := bl.IsCustomerTokenInvalidated(context.Background(), "customer-2", time.Now())
		require.NoError(t, err)
		assert.False(t, invalidated)
	})
}
