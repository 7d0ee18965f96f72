package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RegistrarFunc adapts a function to the RouteRegistrar interface
type RegistrarFunc func(rg *gin.RouterGroup)

// RegisterRoutes implements RouteRegistrar
func (f RegistrarFunc) RegisterRoutes(rg *gin.RouterGroup) {
	f(rg)
}

// Router manages HTTP route registration. Routes are grouped under a
// versioned API prefix, with admin routes behind extra middleware.
type Router struct {
	engine          *gin.Engine
	apiVersion      string
	registrars      []RouteRegistrar
	adminRegistrars []RouteRegistrar
	adminMiddleware []gin.HandlerFunc
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithAdminMiddleware sets the middleware applied to the admin group
func WithAdminMiddleware(middleware ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.adminMiddleware = middleware
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar for the main API group
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// RegisterAdmin adds a RouteRegistrar for the admin group
func (r *Router) RegisterAdmin(registrars ...RouteRegistrar) *Router {
	r.adminRegistrars = append(r.adminRegistrars, registrars...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	admin := api.Group("/admin")
	if len(r.adminMiddleware) > 0 {
		admin.Use(r.adminMiddleware...)
	}
	for _, registrar := range r.adminRegistrars {
		registrar.RegisterRoutes(admin)
	}
}
