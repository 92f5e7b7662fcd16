// Package orchestrator provides adapters for running validation job workers.
package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/quantumgrade/entropyval/config"
	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/data"
	"github.com/quantumgrade/entropyval/internal/observability/statsd"
	"github.com/quantumgrade/entropyval/internal/service"
)

// Runner wires the orchestrator service and runs its worker pool.
type Runner struct {
	svc         *service.OrchestratorService
	concurrency int
	logger      *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB         *sql.DB
	Config     config.OrchestratorConfig
	Assessment core.AssessmentClient
	Logger     *slog.Logger

	// Optional dependency injection for testing/decoupling
	Jobs    core.JobRepository
	Events  core.EventRepository
	Results core.ResultRepository
	Metrics statsd.Sink
}

// NewRunner creates a new orchestrator runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	svc, err := wireOrchestratorService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire orchestrator service: %w", err)
	}

	return &Runner{
		svc:         svc,
		concurrency: opts.Config.Concurrency,
		logger:      opts.Logger,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && (opts.Jobs == nil || opts.Events == nil || opts.Results == nil) {
		return errors.New("database connection is required")
	}
	if opts.Assessment == nil {
		return errors.New("assessment client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config.Concurrency < 1 {
		opts.Config.Concurrency = 1
	}
	return nil
}

// wireOrchestratorService wires up all dependencies for the orchestrator service.
func wireOrchestratorService(opts RunnerOptions) (*service.OrchestratorService, error) {
	jobs := opts.Jobs
	if jobs == nil {
		jobs = data.NewJobRepo(opts.DB, data.RepoConfig{Logger: opts.Logger})
	}

	events := opts.Events
	if events == nil {
		events = data.NewEventRepo(opts.DB, opts.Logger)
	}

	results := opts.Results
	if results == nil {
		results = data.NewResultRepo(opts.DB, nil, opts.Logger)
	}

	return service.NewOrchestratorService(service.OrchestratorServiceOptions{
		Jobs:       jobs,
		Events:     events,
		Results:    results,
		Assessment: opts.Assessment,
		Config:     opts.Config,
		Logger:     opts.Logger,
		Metrics:    opts.Metrics,
	})
}

// Service exposes the wired orchestrator service for callers that submit
// jobs or read status through the same instance.
func (r *Runner) Service() *service.OrchestratorService {
	return r.svc
}

// Run starts the configured number of workers and blocks until the context
// is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting orchestrator runner", "concurrency", r.concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.concurrency; i++ {
		worker := i
		g.Go(func() error {
			r.logger.DebugContext(gctx, "orchestrator worker started", "worker", worker)
			return r.svc.RunWorker(gctx)
		})
	}
	return g.Wait()
}
