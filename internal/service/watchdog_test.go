package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumgrade/entropyval/config"
)

// mockWatchdogRepo is a simple mock implementation for testing.
type mockWatchdogRepo struct {
	failStaleRunningCalled int
	failStaleRunningCount  int64
	failStaleRunningError  error

	failStaleQueuedCalled int
	failStaleQueuedCount  int64
	failStaleQueuedError  error

	lastMaxRuntime   time.Duration
	lastMaxQueueWait time.Duration
	lastBatchSize    int
}

func (m *mockWatchdogRepo) FailStaleRunningJobs(
	ctx context.Context,
	maxRuntime time.Duration,
	batchSize int,
) (int64, error) {
	m.failStaleRunningCalled++
	m.lastMaxRuntime = maxRuntime
	m.lastBatchSize = batchSize
	if m.failStaleRunningError != nil {
		return 0, m.failStaleRunningError
	}
	// Return count on first call, then 0 to simulate batch exhaustion
	if m.failStaleRunningCalled == 1 {
		return m.failStaleRunningCount, nil
	}
	return 0, nil
}

func (m *mockWatchdogRepo) FailStaleQueuedJobs(
	ctx context.Context,
	maxQueueWait time.Duration,
	batchSize int,
) (int64, error) {
	m.failStaleQueuedCalled++
	m.lastMaxQueueWait = maxQueueWait
	if m.failStaleQueuedError != nil {
		return 0, m.failStaleQueuedError
	}
	if m.failStaleQueuedCalled == 1 {
		return m.failStaleQueuedCount, nil
	}
	return 0, nil
}

func watchdogTestConfig() config.WatchdogConfig {
	return config.WatchdogConfig{
		Interval:     10 * time.Minute,
		MaxRuntime:   30 * time.Minute,
		MaxQueueWait: 24 * time.Hour,
		BatchSize:    1000,
	}
}

func TestNewWatchdogService(t *testing.T) {
	t.Run("creates service with valid options", func(t *testing.T) {
		svc, err := NewWatchdogService(WatchdogServiceOptions{
			Repo:   &mockWatchdogRepo{},
			Config: watchdogTestConfig(),
			Logger: slog.Default(),
		})

		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("returns error when repo is nil", func(t *testing.T) {
		_, err := NewWatchdogService(WatchdogServiceOptions{
			Repo:   nil,
			Config: watchdogTestConfig(),
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "WatchdogRepository is required")
	})
}

func TestWatchdogService_RunSweep(t *testing.T) {
	t.Run("runs both sweep operations successfully", func(t *testing.T) {
		repo := &mockWatchdogRepo{
			failStaleRunningCount: 3,
			failStaleQueuedCount:  7,
		}

		svc, err := NewWatchdogService(WatchdogServiceOptions{
			Repo:   repo,
			Config: watchdogTestConfig(),
		})
		require.NoError(t, err)

		err = svc.RunSweep(context.Background())

		require.NoError(t, err)
		// Each operation is called twice: once returning count, once returning 0
		assert.Equal(t, 2, repo.failStaleRunningCalled)
		assert.Equal(t, 2, repo.failStaleQueuedCalled)
		assert.Equal(t, 30*time.Minute, repo.lastMaxRuntime)
		assert.Equal(t, 24*time.Hour, repo.lastMaxQueueWait)
		assert.Equal(t, 1000, repo.lastBatchSize)
	})

	t.Run("continues past a failing operation", func(t *testing.T) {
		repo := &mockWatchdogRepo{
			failStaleRunningError: errors.New("running sweep error"),
			failStaleQueuedCount:  2,
		}

		svc, err := NewWatchdogService(WatchdogServiceOptions{
			Repo:   repo,
			Config: watchdogTestConfig(),
		})
		require.NoError(t, err)

		err = svc.RunSweep(context.Background())

		// Should return error but still call the queued sweep
		require.Error(t, err)
		assert.Equal(t, 1, repo.failStaleRunningCalled)
		assert.Equal(t, 2, repo.failStaleQueuedCalled)
	})
}

func TestWatchdogService_Run(t *testing.T) {
	t.Run("stops on context cancellation", func(t *testing.T) {
		repo := &mockWatchdogRepo{}
		cfg := watchdogTestConfig()
		cfg.Interval = 50 * time.Millisecond

		svc, err := NewWatchdogService(WatchdogServiceOptions{
			Repo:   repo,
			Config: cfg,
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- svc.Run(ctx)
		}()

		// Wait long enough for the startup jitter plus one sweep
		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case runErr := <-done:
			require.NoError(t, runErr)
		case <-time.After(time.Second):
			t.Fatal("Run did not stop after context cancellation")
		}

		assert.GreaterOrEqual(t, repo.failStaleRunningCalled, 1)
	})

	t.Run("continues running despite sweep errors", func(t *testing.T) {
		repo := &mockWatchdogRepo{
			failStaleRunningError: errors.New("test error"),
			failStaleQueuedError:  errors.New("test error"),
		}
		cfg := watchdogTestConfig()
		cfg.Interval = 30 * time.Millisecond

		svc, err := NewWatchdogService(WatchdogServiceOptions{
			Repo:   repo,
			Config: cfg,
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()

		runErr := svc.Run(ctx)

		// Should return context deadline exceeded, not the sweep error
		require.Error(t, runErr)
		require.ErrorIs(t, runErr, context.DeadlineExceeded)
		assert.GreaterOrEqual(t, repo.failStaleRunningCalled, 2)
	})
}
