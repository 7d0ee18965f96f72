package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRouterSetup(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("registrars mount under the versioned prefix", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine)
		r.Register(RegistrarFunc(func(rg *gin.RouterGroup) {
			rg.GET("/ping", func(c *gin.Context) {
				c.String(http.StatusOK, "pong")
			})
		}))
		r.Setup()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
	})

	t.Run("custom API version changes the prefix", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine, WithAPIVersion("v2"))
		r.Register(RegistrarFunc(func(rg *gin.RouterGroup) {
			rg.GET("/ping", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
		}))
		r.Setup()

		req := httptest.NewRequest(http.MethodGet, "/api/v2/ping", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("admin registrars get the admin middleware", func(t *testing.T) {
		engine := gin.New()
		guard := func(c *gin.Context) {
			if c.GetHeader("X-Role") != "admin" {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
		}

		r := NewRouter(engine, WithAdminMiddleware(guard))
		r.RegisterAdmin(RegistrarFunc(func(rg *gin.RouterGroup) {
			rg.GET("/reports", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
		}))
		r.Setup()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports", nil)
		req.Header.Set("X-Role", "admin")
		w = httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
