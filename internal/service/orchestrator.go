package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quantumgrade/entropyval/config"
	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/domain/job"
	"github.com/quantumgrade/entropyval/internal/domain/model"
	apperrors "github.com/quantumgrade/entropyval/internal/errors"
	"github.com/quantumgrade/entropyval/internal/observability/metrics"
	"github.com/quantumgrade/entropyval/internal/observability/statsd"
)

// OrchestratorServiceOptions groups dependencies for OrchestratorService.
type OrchestratorServiceOptions struct {
	Jobs       core.JobRepository        // Required: validation job repository
	Events     core.EventRepository      // Required: entropy event repository
	Results    core.ResultRepository     // Required: assessment result repository
	Assessment core.AssessmentClient     // Required: external assessment client
	Config     config.OrchestratorConfig // Required: orchestrator configuration
	Logger     *slog.Logger              // Optional: structured logger
	Metrics    statsd.Sink               // Optional: metrics sink (StatsD-compatible)
}

// OrchestratorService drives queued validation jobs through their lifecycle:
// claim, plan into chunks, assess each chunk against the external service,
// record per-chunk results and progress, then complete or fail the job.
type OrchestratorService struct {
	jobs       core.JobRepository
	events     core.EventRepository
	results    core.ResultRepository
	assessment core.AssessmentClient
	config     config.OrchestratorConfig
	logger     *slog.Logger
	metrics    statsd.Sink
}

// NewOrchestratorService constructs a new OrchestratorService.
func NewOrchestratorService(opts OrchestratorServiceOptions) (*OrchestratorService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Events == nil {
		return nil, errors.New("EventRepository is required")
	}
	if opts.Results == nil {
		return nil, errors.New("ResultRepository is required")
	}
	if opts.Assessment == nil {
		return nil, errors.New("AssessmentClient is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "orchestrator_service")
		logger.Debug("OrchestratorService initialized",
			"max_chunk_events", opts.Config.MaxChunkEvents,
			"chunk_timeout", opts.Config.ChunkTimeout,
		)
	}

	return &OrchestratorService{
		jobs:       opts.Jobs,
		events:     opts.Events,
		results:    opts.Results,
		assessment: opts.Assessment,
		config:     opts.Config,
		logger:     logger,
		metrics:    opts.Metrics,
	}, nil
}

// CreateJob validates and enqueues a new validation job.
func (s *OrchestratorService) CreateJob(ctx context.Context, req *model.CreateJobRequest) (*model.ValidationJob, error) {
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	if !req.Type.Valid() {
		req.Type = s.config.DefaultJobType
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validationf("invalid job request: %v", err)
	}

	created, err := s.jobs.Create(ctx, req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.MapDBError(err), apperrors.ErrCodeInternal, "create validation job")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "validation job queued",
			"job_id", created.ID,
			"type", created.Type,
			"window_start", created.WindowStart,
			"window_end", created.WindowEnd,
		)
	}
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		JobType:    string(created.Type),
		Transition: "queued",
		Result:     metrics.ResultSuccess,
	})

	return created, nil
}

// GetJobStatus returns polling-shaped status information for a job.
func (s *OrchestratorService) GetJobStatus(ctx context.Context, id string) (*model.JobStatusResponse, error) {
	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return nil, apperrors.NotFoundf("job %s not found", id)
		}
		return nil, apperrors.MapDBError(err)
	}
	return &model.JobStatusResponse{
		Status:          j.Status,
		ProgressPercent: j.ProgressPercent,
		CurrentChunk:    j.CurrentChunk,
		TotalChunks:     j.TotalChunks,
		CompletedAt:     j.CompletedAt,
		ErrorMessage:    j.ErrorMessage,
	}, nil
}

// GetJobResults returns all persisted per-chunk results for a job, or
// NotFound when the job has not produced a result run yet.
func (s *OrchestratorService) GetJobResults(ctx context.Context, id string) ([]*model.AssessmentResult, error) {
	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return nil, apperrors.NotFoundf("job %s not found", id)
		}
		return nil, apperrors.MapDBError(err)
	}
	if j.ResultRunID == nil {
		return nil, apperrors.NotFound("job has no results yet")
	}
	results, err := s.results.ListByRunID(ctx, *j.ResultRunID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "list job results")
	}
	return results, nil
}

// Stats returns counts of validation jobs in each state.
func (s *OrchestratorService) Stats(ctx context.Context) (*model.JobStats, error) {
	stats, err := s.jobs.Stats(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "get job stats")
	}
	return stats, nil
}

// RunNext claims and executes one queued job. Returns
// model.ErrNoJobsAvailable when the queue is empty, nil when a job ran to a
// terminal state (including failure, which is recorded on the row rather
// than propagated), and an error only for infrastructure problems.
func (s *OrchestratorService) RunNext(ctx context.Context) error {
	j, err := s.jobs.NextQueued(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNoJobsAvailable) {
			return model.ErrNoJobsAvailable
		}
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "fetch next queued job")
	}

	started, err := s.jobs.Start(ctx, j.ID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "start job")
	}
	if !started {
		// Another worker won the claim race. Not an error.
		if s.logger != nil {
			s.logger.DebugContext(ctx, "lost job claim race", "job_id", j.ID)
		}
		return nil
	}

	startTime := time.Now()
	execErr := s.execute(ctx, j)
	s.finish(ctx, j, execErr, time.Since(startTime))
	return nil
}

// execute runs the claimed job through planning and per-chunk assessment.
func (s *OrchestratorService) execute(ctx context.Context, j *model.ValidationJob) error {
	window := j.Window()

	stride, err := job.BoundaryStride(s.config.MaxChunkEvents)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "derive chunk stride")
	}

	boundaries, err := s.events.ChunkBoundaries(ctx, core.ChunkBoundariesParams{
		Window:  window,
		Channel: s.config.Channel,
		Stride:  stride,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "query chunk boundaries")
	}

	plan, err := job.PlanChunks(window, boundaries)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "plan chunks")
	}

	runID := uuid.NewString()
	planSet, err := s.jobs.SetPlan(ctx, core.SetPlanParams{
		JobID:       j.ID,
		TotalChunks: plan.TotalChunks(),
		ResultRunID: runID,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "record chunk plan")
	}
	if !planSet {
		return apperrors.StateConflict("job left running state before planning finished")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job plan recorded",
			"job_id", j.ID,
			"run_id", runID,
			"total_chunks", plan.TotalChunks(),
		)
	}

	for _, chunk := range plan.Chunks {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.executeChunk(ctx, j, runID, chunk, plan.TotalChunks()); err != nil {
			return err
		}

		progress := ((chunk.Index + 1) * 100) / plan.TotalChunks()
		advanced, err := s.jobs.AdvanceProgress(ctx, core.AdvanceProgressParams{
			JobID:           j.ID,
			CurrentChunk:    chunk.Index + 1,
			ProgressPercent: progress,
		})
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "advance job progress")
		}
		if !advanced {
			// The watchdog failed the job mid-flight; stop wasting assessment calls.
			return apperrors.StateConflict("job left running state during execution")
		}
	}

	return nil
}

// executeChunk assesses one chunk and persists its results.
func (s *OrchestratorService) executeChunk(
	ctx context.Context,
	j *model.ValidationJob,
	runID string,
	chunk job.Chunk,
	totalChunks int,
) error {
	events, err := s.events.QueryChunk(ctx, core.QueryChunkParams{
		Window:  j.Window(),
		Channel: s.config.Channel,
		From:    chunk.From,
		To:      chunk.To,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "query chunk events")
	}

	req := job.PackBitstream(events)
	req.Kind = j.Type

	chunkStart := time.Now()
	var outcome *model.AssessmentOutcome
	if req.BitCount == 0 {
		// Sparse chunk with fewer than two events carries no bits to test.
		outcome = &model.AssessmentOutcome{}
	} else {
		assessCtx, cancel := context.WithTimeout(ctx, s.config.ChunkTimeout)
		outcome, err = s.assessment.Evaluate(assessCtx, req)
		cancel()
		if err != nil {
			metrics.EmitChunkAssessed(s.metrics, string(j.Type), time.Since(chunkStart), err)
			return apperrors.Wrapf(err, apperrors.GetCodeOr(err, apperrors.ErrCodeInternal), "assess chunk %d", chunk.Index)
		}
	}
	metrics.EmitChunkAssessed(s.metrics, string(j.Type), time.Since(chunkStart), nil)

	if _, err := s.results.InsertChunkResults(ctx, core.InsertChunkResultsParams{
		RunID:      runID,
		JobID:      j.ID,
		ChunkIndex: chunk.Index,
		ChunkCount: totalChunks,
		Outcome:    outcome,
	}); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "persist chunk %d results", chunk.Index)
	}

	return nil
}

// finish records the terminal state of an executed job.
func (s *OrchestratorService) finish(ctx context.Context, j *model.ValidationJob, execErr error, elapsed time.Duration) {
	if execErr == nil {
		completed, err := s.jobs.Complete(ctx, j.ID)
		if err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "complete job failed", "job_id", j.ID, "error", err)
		}
		if completed {
			if s.logger != nil {
				s.logger.InfoContext(ctx, "validation job completed", "job_id", j.ID, "elapsed", elapsed)
			}
			metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
				JobType:    string(j.Type),
				Transition: "completed",
				Result:     metrics.ResultSuccess,
				Duration:   elapsed,
			})
		}
		return
	}

	// A per-call assessment deadline is a job failure, recorded on the row
	// right away. Only a worker shutdown (parent context done) or an explicit
	// cancellation leaves the row running for the watchdog to reclaim.
	if isContextCancellation(execErr) && (ctx.Err() != nil || apperrors.IsCanceled(execErr)) {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "job execution interrupted", "job_id", j.ID, "error", execErr)
		}
		return
	}

	failed, err := s.jobs.Fail(ctx, j.ID, execErr.Error())
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "fail job failed", "job_id", j.ID, "error", err)
	}
	if failed {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "validation job failed",
				"job_id", j.ID,
				"elapsed", elapsed,
				"error", execErr,
			)
		}
		metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
			JobType:    string(j.Type),
			Transition: "failed",
			Result:     metrics.ResultError,
			Duration:   elapsed,
			Err:        execErr,
		})
	}
}

// RunWorker polls for queued jobs until the context is cancelled. Intended to
// run in one goroutine per configured worker.
func (s *OrchestratorService) RunWorker(ctx context.Context) error {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		err := s.RunNext(ctx)
		switch {
		case err == nil:
			// A job ran; immediately look for the next one.
			continue
		case errors.Is(err, model.ErrNoJobsAvailable):
		case isContextCancellation(err):
			return nil
		default:
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "orchestrator pass failed", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
