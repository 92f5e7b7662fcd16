// Package qualitymon provides adapters for running the stream quality monitor.
package qualitymon

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

// Runner provides a simple adapter to run the quality monitor loop.
type Runner struct {
	quality *service.QualityService
	logger  *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.QualityConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Events  core.EventRepository
	Reports core.ReportRepository
	Cache   core.CacheRepository
	Metrics statsd.Sink
}

// NewRunner creates a new quality monitor runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DB == nil && (opts.Events == nil || opts.Reports == nil) {
		return nil, errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	events := opts.Events
	if events == nil {
		events = data.NewEventRepo(opts.DB, opts.Logger)
	}

	reports := opts.Reports
	if reports == nil {
		reports = data.NewReportRepo(opts.DB, nil, opts.Logger)
	}

	quality, err := service.NewQualityService(service.QualityServiceOptions{
		Events:  events,
		Reports: reports,
		Cache:   opts.Cache,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire quality service: %w", err)
	}

	return &Runner{
		quality: quality,
		logger:  opts.Logger,
	}, nil
}

// Service exposes the wired quality service for callers that read reports
// through the same instance.
func (r *Runner) Service() *service.QualityService {
	return r.quality
}

// Run starts the quality monitor loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting quality monitor runner")
	return r.quality.Run(ctx)
}
