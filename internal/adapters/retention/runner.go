// Package retention provides adapters for running the retention sweeper.
package retention

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quantumgrade/entropyval/config"
	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/data"
	"github.com/quantumgrade/entropyval/internal/observability/statsd"
	"github.com/quantumgrade/entropyval/internal/service"
)

// Runner provides a simple adapter to run the retention loop.
type Runner struct {
	retention *service.RetentionService
	logger    *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.RetentionConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Repo    core.RetentionRepository
	Metrics statsd.Sink
}

// NewRunner creates a new retention runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DB == nil && opts.Repo == nil {
		return nil, errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	repo := opts.Repo
	if repo == nil {
		jobRepo := data.NewJobRepo(opts.DB, data.RepoConfig{Logger: opts.Logger})
		repo = &retentionRepoAdapter{r: jobRepo}
	}

	retention, err := service.NewRetentionService(service.RetentionServiceOptions{
		Repo:    repo,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire retention service: %w", err)
	}

	return &Runner{
		retention: retention,
		logger:    opts.Logger,
	}, nil
}

// Run starts the retention loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting retention runner")
	return r.retention.Run(ctx)
}

// retentionRepoAdapter adapts JobRepo to implement RetentionRepository interface.
type retentionRepoAdapter struct {
	r *data.JobRepo
}

func (a *retentionRepoAdapter) DeleteOldJobs(ctx context.Context, params core.DeleteOldJobsParams) (int64, error) {
	return a.r.DeleteOldJobs(ctx, params)
}

func (a *retentionRepoAdapter) DeleteOldResults(
	ctx context.Context,
	params core.DeleteOldResultsParams,
) (int64, error) {
	return a.r.DeleteOldResults(ctx, params)
}
