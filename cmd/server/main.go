package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	identityapp "github.com/storefront/backend/internal/application/identity"
	mediaapp "github.com/storefront/backend/internal/application/media"
	orderapp "github.com/storefront/backend/internal/application/order"
	reportapp "github.com/storefront/backend/internal/application/report"
	reviewapp "github.com/storefront/backend/internal/application/review"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize Redis (token blacklist, webhook/checkout idempotency)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()

	// Initialize repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	reviewRepo := persistence.NewGormReviewRepository(db.DB)
	salesReportRepo := persistence.NewGormSalesReportRepository(db.DB)
	checkoutStore := persistence.NewGormCheckoutStore(db.DB)

	// Payment gateway. Falls back to the stub when no Stripe key is
	// configured so the stack runs locally without external accounts.
	var gateway payment.PaymentGateway
	if cfg.Stripe.SecretKey != "" {
		gateway, err = payment.NewStripeGateway(cfg.Stripe, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe gateway", zap.Error(err))
		}
		log.Info("Stripe payment gateway initialized")
	} else {
		gateway = payment.NewStubPaymentGateway()
		log.Warn("No Stripe secret key configured, using stub payment gateway")
	}

	// Object storage for product media
	var objectStorage mediaapp.ObjectStorage
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objectStorage = s3Storage
		log.Info("S3 object storage initialized",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("region", cfg.Storage.Region),
		)
	} else {
		objectStorage = storage.NewStubObjectStorage()
		log.Warn("No storage bucket configured, using stub object storage")
	}

	// Identity services (JWT, token blacklist, auth)
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewRedisTokenBlacklist(redisClient)
	authService := identityapp.NewAuthService(customerRepo, jwtService, blacklist, identityapp.AuthServiceConfig{
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockDuration:     cfg.Auth.LockoutDuration,
	}, log)
	customerService := identityapp.NewCustomerService(customerRepo, log)

	// Event bus for order lifecycle events
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Checkout policy and idempotency store. The store deduplicates
	// both webhook deliveries and Idempotency-Key checkouts, so the
	// prefix is concern-neutral; the service namespaces its own keys.
	checkoutPolicy, err := orderapp.NewCheckoutPolicy(cfg.Checkout)
	if err != nil {
		log.Fatal("Invalid checkout configuration", zap.Error(err))
	}
	idempotencyStore := cache.NewRedisIdempotencyStore(redisClient, "idempotency:")

	// Application services
	productService := catalogapp.NewProductService(productRepo, categoryRepo, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, productRepo, log)
	cartService := cartapp.NewCartService(cartRepo, productRepo, log)
	orderService := orderapp.NewOrderService(
		orderRepo, cartRepo, productRepo, customerRepo,
		checkoutStore, gateway, eventBus, idempotencyStore, checkoutPolicy, log,
	)
	reviewService := reviewapp.NewReviewService(reviewRepo, productRepo, log)
	mediaService := mediaapp.NewMediaService(objectStorage, productRepo, log)
	reportService := reportapp.NewSalesReportService(salesReportRepo, log)

	// Background sweep of abandoned carts releases reserved stock
	cartScheduler := scheduler.NewCartExpirationScheduler(scheduler.DefaultCartExpirationConfig(), cartService, log)
	if err := cartScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start cart expiration scheduler", zap.Error(err))
	}
	defer func() {
		if err := cartScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping cart expiration scheduler", zap.Error(err))
		}
	}()

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(db.DB, redisClient, version)
	authHandler := handler.NewAuthHandler(authService)
	customerHandler := handler.NewCustomerHandler(customerService)
	productHandler := handler.NewProductHandler(productService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(orderService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	mediaHandler := handler.NewMediaHandler(mediaService)
	reportHandler := handler.NewReportHandler(reportService)
	webhookHandler := handler.NewWebhookHandler(orderService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first:
	// request ID, panic recovery, request logging, security headers,
	// CORS, body size limit, rate limiting, JWT authentication.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// JWT authentication. Public endpoints (catalog browsing, auth,
	// health, Stripe webhook) come from the default skip list. The
	// VerifyClaims hook rejects blacklisted tokens.
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	jwtConfig.VerifyClaims = func(c *gin.Context, claims *auth.Claims) error {
		return authService.VerifyAccessClaims(c.Request.Context(), claims)
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Root-level probes for container orchestration, mirrored under the
	// API prefix by the system handler.
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	// Route registration. Admin routes mount under /api/v1/admin behind
	// the role check.
	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithAdminMiddleware(middleware.RequireAdmin()),
	)
	r.Register(
		systemHandler,
		authHandler,
		cartHandler,
		orderHandler,
		webhookHandler,
		router.RegistrarFunc(productHandler.RegisterPublicRoutes),
		router.RegistrarFunc(categoryHandler.RegisterPublicRoutes),
		router.RegistrarFunc(reviewHandler.RegisterPublicRoutes),
		router.RegistrarFunc(reviewHandler.RegisterRoutes),
		router.RegistrarFunc(mediaHandler.RegisterPublicRoutes),
	)
	r.RegisterAdmin(
		customerHandler,
		reportHandler,
		router.RegistrarFunc(productHandler.RegisterAdminRoutes),
		router.RegistrarFunc(categoryHandler.RegisterAdminRoutes),
		router.RegistrarFunc(orderHandler.RegisterAdminRoutes),
		router.RegistrarFunc(mediaHandler.RegisterAdminRoutes),
	)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
