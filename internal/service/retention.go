package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantumgrade/entropyval/config"
	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/domain/model"
	"github.com/quantumgrade/entropyval/internal/observability/metrics"
	"github.com/quantumgrade/entropyval/internal/observability/statsd"
)

// RetentionServiceOptions groups dependencies for RetentionService.
type RetentionServiceOptions struct {
	Repo    core.RetentionRepository // Required: retention repository
	Config  config.RetentionConfig   // Required: retention configuration
	Logger  *slog.Logger             // Optional: structured logger
	Metrics statsd.Sink              // Optional: metrics sink (StatsD-compatible)
}

// RetentionService removes aged rows to keep the database lean.
//
// This service manages:
// - Deleting old completed jobs past the retention horizon.
// - Deleting old failed jobs past the retention horizon.
// - Deleting old assessment result rows, which outlive their jobs.
type RetentionService struct {
	repo    core.RetentionRepository
	config  config.RetentionConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewRetentionService constructs a new RetentionService.
func NewRetentionService(opts RetentionServiceOptions) (*RetentionService, error) {
	if opts.Repo == nil {
		return nil, errors.New("RetentionRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "retention_service")
		logger.Debug("RetentionService initialized",
			"interval", opts.Config.Interval,
			"completed_max_age", opts.Config.CompletedMaxAge,
			"failed_max_age", opts.Config.FailedMaxAge,
			"results_max_age", opts.Config.ResultsMaxAge,
		)
	}

	return &RetentionService{
		repo:    opts.Repo,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the retention loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *RetentionService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting retention service", "interval", s.config.Interval)
	}

	waitWithJitter(ctx, s.config.Interval, s.logger)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.RunSweep(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "retention service stopping", "reason", ctx.Err())
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

// RunSweep performs one retention pass over jobs and results.
func (s *RetentionService) RunSweep(ctx context.Context) error {
	var errs []error

	completedCount, err := s.deleteOldJobs(ctx, model.JobStatusCompleted, s.config.CompletedMaxAge)
	metrics.EmitSweep(s.metrics, "delete_completed", completedCount, suppressContextCancellation(err))
	if err != nil {
		errs = append(errs, fmt.Errorf("delete old completed jobs: %w", err))
	}

	failedCount, err := s.deleteOldJobs(ctx, model.JobStatusFailed, s.config.FailedMaxAge)
	metrics.EmitSweep(s.metrics, "delete_failed", failedCount, suppressContextCancellation(err))
	if err != nil {
		errs = append(errs, fmt.Errorf("delete old failed jobs: %w", err))
	}

	resultsCount, err := s.deleteOldResults(ctx)
	metrics.EmitSweep(s.metrics, "delete_results", resultsCount, suppressContextCancellation(err))
	if err != nil {
		errs = append(errs, fmt.Errorf("delete old assessment results: %w", err))
	}

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if isContextCancellation(joined) {
			return context.Canceled
		}
		return fmt.Errorf("retention sweep failed: %w", joined)
	}
	return nil
}

// deleteOldJobs deletes terminal jobs of one status older than maxAge.
// Loops until no more rows are affected to handle large datasets in batches.
func (s *RetentionService) deleteOldJobs(ctx context.Context, status model.JobStatus, maxAge time.Duration) (int64, error) {
	var totalCount int64
	for {
		count, err := s.repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
			Status:    status,
			MaxAge:    maxAge,
			BatchSize: s.config.BatchSize,
		})
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
		s.logger.InfoContext(ctx, "deleted old jobs",
			"status", status,
			"count", totalCount,
			"max_age", maxAge,
		)
	}

	return totalCount, nil
}

// deleteOldResults deletes assessment result rows older than the results horizon.
func (s *RetentionService) deleteOldResults(ctx context.Context) (int64, error) {
	var totalCount int64
	for {
		count, err := s.repo.DeleteOldResults(ctx, core.DeleteOldResultsParams{
			MaxAge:    s.config.ResultsMaxAge,
			BatchSize: s.config.BatchSize,
		})
		if err != nil {
			return totalCount, err
		}
		totalCount += count
		if count == 0 {
			break
		}
		if ctx.Err() != nil {
			return totalCount, ctx.Err()
		}
	}

	if totalCount > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "deleted old assessment results",
			"count", totalCount,
			"max_age", s.config.ResultsMaxAge,
		)
	}

	return totalCount, nil
}

func (s *RetentionService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}
