// Package watchdog provides adapters for running the stuck-job watchdog.
package watchdog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantumgrade/entropyval/config"
	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/data"
	"github.com/quantumgrade/entropyval/internal/observability/statsd"
	"github.com/quantumgrade/entropyval/internal/service"
)

// Runner provides a simple adapter to run the watchdog loop.
type Runner struct {
	watchdog *service.WatchdogService
	logger   *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.WatchdogConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Repo    core.WatchdogRepository
	Metrics statsd.Sink
}

// NewRunner creates a new watchdog runner with the given options.
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
		repo = &watchdogRepoAdapter{r: jobRepo}
	}

	watchdog, err := service.NewWatchdogService(service.WatchdogServiceOptions{
		Repo:    repo,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire watchdog service: %w", err)
	}

	return &Runner{
		watchdog: watchdog,
		logger:   opts.Logger,
	}, nil
}

// Run starts the watchdog loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting watchdog runner")
	return r.watchdog.Run(ctx)
}

// watchdogRepoAdapter adapts JobRepo to implement WatchdogRepository interface.
type watchdogRepoAdapter struct {
	r *data.JobRepo
}

func (a *watchdogRepoAdapter) FailStaleRunningJobs(
	ctx context.Context,
	maxRuntime time.Duration,
	batchSize int,
) (int64, error) {
	return a.r.FailStaleRunningJobs(ctx, maxRuntime, batchSize)
}

func (a *watchdogRepoAdapter) FailStaleQueuedJobs(
	ctx context.Context,
	maxQueueWait time.Duration,
	batchSize int,
) (int64, error) {
	return a.r.FailStaleQueuedJobs(ctx, maxQueueWait, batchSize)
}
