package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantumgrade/entropyval/config"
	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/observability/metrics"
	"github.com/quantumgrade/entropyval/internal/observability/statsd"
)

// WatchdogServiceOptions groups dependencies for WatchdogService.
type WatchdogServiceOptions struct {
	Repo    core.WatchdogRepository // Required: watchdog repository
	Config  config.WatchdogConfig   // Required: watchdog configuration
	Logger  *slog.Logger            // Optional: structured logger
	Metrics statsd.Sink             // Optional: metrics sink (StatsD-compatible)
}

// WatchdogService fails jobs that stopped making progress.
//
// This service manages:
// - Failing running jobs whose orchestrator died or hung past the max runtime.
// - Failing queued jobs that no orchestrator picked up within the max wait.
type WatchdogService struct {
	repo    core.WatchdogRepository
	config  config.WatchdogConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewWatchdogService constructs a new WatchdogService.
func NewWatchdogService(opts WatchdogServiceOptions) (*WatchdogService, error) {
	if opts.Repo == nil {
		return nil, errors.New("WatchdogRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "watchdog_service")
		logger.Debug("WatchdogService initialized",
			"interval", opts.Config.Interval,
			"max_runtime", opts.Config.MaxRuntime,
			"max_queue_wait", opts.Config.MaxQueueWait,
		)
	}

	return &WatchdogService{
		repo:    opts.Repo,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the watchdog loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *WatchdogService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting watchdog service", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	waitWithJitter(ctx, s.config.Interval, s.logger)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run a sweep immediately after jitter
	if err := s.RunSweep(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "watchdog service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunSweep(ctx); err != nil {
				s.logSweepError(err, "sweep")
				// Continue running despite errors
			}
		}
	}
}

// RunSweep performs one watchdog pass over running and queued jobs.
func (s *WatchdogService) RunSweep(ctx context.Context) error {
	var errs []error

	runningCount, err := s.failStaleRunning(ctx)
	metrics.EmitSweep(s.metrics, "fail_stale_running", runningCount, suppressContextCancellation(err))
	if err != nil {
		errs = append(errs, fmt.Errorf("fail stale running jobs: %w", err))
	}

	queuedCount, err := s.failStaleQueued(ctx)
	metrics.EmitSweep(s.metrics, "fail_stale_queued", queuedCount, suppressContextCancellation(err))
	if err != nil {
		errs = append(errs, fmt.Errorf("fail stale queued jobs: %w", err))
	}

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if isContextCancellation(joined) {
			return context.Canceled
		}
		return fmt.Errorf("watchdog sweep failed: %w", joined)
	}
	return nil
}

// failStaleRunning fails running jobs past the max runtime.
// Loops until no more rows are affected to handle large backlogs in batches.
func (s *WatchdogService) failStaleRunning(ctx context.Context) (int64, error) {
	var totalCount int64
	for {
		count, err := s.repo.FailStaleRunningJobs(ctx, s.config.MaxRuntime, s.config.BatchSize)
		if err != nil {
			return totalCount, err
		}
		totalCount += count
		if count == 0 {
			break
		}
		// Check context between batches
		if ctx.Err() != nil {
			return totalCount, ctx.Err()
		}
	}

	if totalCount > 0 && s.logger != nil {
		s.logger.WarnContext(ctx, "failed stale running jobs",
			"count", totalCount,
			"max_runtime", s.config.MaxRuntime,
		)
	}

	return totalCount, nil
}

// failStaleQueued fails queued jobs past the max queue wait.
// Loops until no more rows are affected to handle large backlogs in batches.
func (s *WatchdogService) failStaleQueued(ctx context.Context) (int64, error) {
	var totalCount int64
	for {
		count, err := s.repo.FailStaleQueuedJobs(ctx, s.config.MaxQueueWait, s.config.BatchSize)
		if err != nil {
			return totalCount, err
		}
		totalCount += count
		if count == 0 {
			break
		}
		// Check context between batches
		if ctx.Err() != nil {
			return totalCount, ctx.Err()
		}
	}

	if totalCount > 0 && s.logger != nil {
		s.logger.WarnContext(ctx, "failed stale queued jobs",
			"count", totalCount,
			"max_queue_wait", s.config.MaxQueueWait,
		)
	}

	return totalCount, nil
}

func (s *WatchdogService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func waitWithJitter(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	maxJitter := int64(interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if logger != nil {
			logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	// Use modulo on uint64 before converting to avoid overflow
	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
