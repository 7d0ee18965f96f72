package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
)

func newTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-for-middleware",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "storefront-test",
		MaxRefreshCount:        10,
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, role string) string {
	t.Helper()
	pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{
		CustomerID: uuid.New(),
		Email:      "shopper@example.com",
		Role:       role,
	})
	require.NoError(t, err)
	return pair.AccessToken
}

func newAuthedRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/api/v1/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"customer_id": GetJWTCustomerID(c)})
	})
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService(t)

	t.Run("valid token passes and claims are stored", func(t *testing.T) {
		r := newAuthedRouter(JWTAuthMiddleware(svc))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+issueToken(t, svc, "customer"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "customer_id")
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		r := newAuthedRouter(JWTAuthMiddleware(svc))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		r := newAuthedRouter(JWTAuthMiddleware(svc))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+"not-a-jwt")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("refresh token cannot be used as access token", func(t *testing.T) {
		pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{
			CustomerID: uuid.New(),
			Email:      "shopper@example.com",
			Role:       "customer",
		})
		require.NoError(t, err)

		r := newAuthedRouter(JWTAuthMiddleware(svc))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.RefreshToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip paths bypass authentication", func(t *testing.T) {
		r := newAuthedRouter(JWTAuthMiddleware(svc))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("revoked claims are rejected via verify hook", func(t *testing.T) {
		cfg := DefaultJWTConfig(svc)
		cfg.VerifyClaims = func(c *gin.Context, claims *auth.Claims) error {
			return errors.New("revoked")
		}
		r := newAuthedRouter(JWTAuthMiddlewareWithConfig(cfg))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+issueToken(t, svc, "customer"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")
	})
}

func TestRequireAdmin(t *testing.T) {
	svc := newTestJWTService(t)

	newAdminRouter := func() *gin.Engine {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(JWTAuthMiddleware(svc))
		admin := r.Group("/api/v1/admin")
		admin.Use(RequireAdmin())
		admin.GET("/customers", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	t.Run("admin role passes", func(t *testing.T) {
		r := newAdminRouter()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/customers", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+issueToken(t, svc, "admin"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("customer role is forbidden", func(t *testing.T) {
		r := newAdminRouter()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/customers", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+issueToken(t, svc, "customer"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(OptionalJWTAuthMiddleware(svc))
	r.GET("/products", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"customer_id": GetJWTCustomerID(c)})
	})

	t.Run("anonymous request passes without claims", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"customer_id":""`)
	})

	t.Run("valid token populates claims", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+issueToken(t, svc, "customer"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), `"customer_id":""`)
	})
}
