package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AbandonedCartSweeper abandons idle carts and releases their reserved stock
type AbandonedCartSweeper interface {
	SweepAbandoned(ctx context.Context, idleFor time.Duration) (int, error)
}

// CartExpirationConfig holds configuration for the cart expiration scheduler
type CartExpirationConfig struct {
	// CheckInterval is how often the sweep runs
	CheckInterval time.Duration
	// IdleAfter is how long a cart may sit untouched before it is abandoned
	IdleAfter time.Duration
}

// DefaultCartExpirationConfig returns the default sweep cadence
func DefaultCartExpirationConfig() CartExpirationConfig {
	return CartExpirationConfig{
		CheckInterval: 15 * time.Minute,
		IdleAfter:     72 * time.Hour,
	}
}

// CartExpirationScheduler periodically abandons idle carts so their
// reserved stock returns to the catalog
type CartExpirationScheduler struct {
	config  CartExpirationConfig
	sweeper AbandonedCartSweeper
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewCartExpirationScheduler creates a new cart expiration scheduler
func NewCartExpirationScheduler(
	config CartExpirationConfig,
	sweeper AbandonedCartSweeper,
	logger *zap.Logger,
) *CartExpirationScheduler {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultCartExpirationConfig().CheckInterval
	}
	if config.IdleAfter <= 0 {
		config.IdleAfter = DefaultCartExpirationConfig().IdleAfter
	}
	return &CartExpirationScheduler{
		config:  config,
		sweeper: sweeper,
		logger:  logger,
	}
}

// Start starts the background sweep loop. Calling Start on a running
// scheduler is a no-op.
func (s *CartExpirationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Cart expiration scheduler started",
		zap.Duration("check_interval", s.config.CheckInterval),
		zap.Duration("idle_after", s.config.IdleAfter),
	)

	return nil
}

// Stop stops the sweep loop, waiting for an in-flight sweep to finish
// or the context to expire
func (s *CartExpirationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Cart expiration scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CartExpirationScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *CartExpirationScheduler) sweep(ctx context.Context) {
	swept, err := s.sweeper.SweepAbandoned(ctx, s.config.IdleAfter)
	if err != nil {
		s.logger.Error("Abandoned cart sweep failed", zap.Error(err))
		return
	}
	if swept > 0 {
		s.logger.Info("Abandoned idle carts", zap.Int("count", swept))
	}
}
