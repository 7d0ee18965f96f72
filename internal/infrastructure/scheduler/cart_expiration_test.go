package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSweeper struct {
	calls atomic.Int32
	swept int
	err   error
}

func (f *fakeSweeper) SweepAbandoned(ctx context.Context, idleFor time.Duration) (int, error) {
	f.calls.Add(1)
	return f.swept, f.err
}

func TestCartExpirationSchedulerSweeps(t *testing.T) {
	sweeper := &fakeSweeper{swept: 3}
	sched := NewCartExpirationScheduler(CartExpirationConfig{
		CheckInterval: 10 * time.Millisecond,
		IdleAfter:     time.Hour,
	}, sweeper, zap.NewNop())

	require.NoError(t, sched.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, sched.Stop(context.Background()))
}

func TestCartExpirationSchedulerSurvivesSweepErrors(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}
	sched := NewCartExpirationScheduler(CartExpirationConfig{
		CheckInterval: 10 * time.Millisecond,
		IdleAfter:     time.Hour,
	}, sweeper, zap.NewNop())

	require.NoError(t, sched.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, sched.Stop(context.Background()))
}

func TestCartExpirationSchedulerStartIsIdempotent(t *testing.T) {
	sweeper := &fakeSweeper{}
	sched := NewCartExpirationScheduler(CartExpirationConfig{
		CheckInterval: time.Hour,
		IdleAfter:     time.Hour,
	}, sweeper, zap.NewNop())

	require.NoError(t, sched.Start(context.Background()))
	require.NoError(t, sched.Start(context.Background()))
	require.NoError(t, sched.Stop(context.Background()))
	require.NoError(t, sched.Stop(context.Background()))
}

func TestCartExpirationSchedulerDefaults(t *testing.T) {
	sched := NewCartExpirationScheduler(CartExpirationConfig{}, &fakeSweeper{}, zap.NewNop())
	assert.Equal(t, DefaultCartExpirationConfig().CheckInterval, sched.config.CheckInterval)
	assert.Equal(t, DefaultCartExpirationConfig().IdleAfter, sched.config.IdleAfter)
}
