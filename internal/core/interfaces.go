// Package core defines the repository and client interfaces (ports in
// hexagonal architecture) between the service layer and its collaborators.
// Services depend on these interfaces, never on concrete implementations.
package core

import (
	"context"
	"time"

	"github.com/quantumgrade/entropyval/internal/domain/model"
)

// JobRepository defines the interface for validation job data operations.
// Every mutation is a conditional update keyed on the current status, so an
// orchestrator and the watchdog can never corrupt each other's view of a row.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.ValidationJob, error)
	GetByID(ctx context.Context, id string) (*model.ValidationJob, error)

	// NextQueued returns the oldest queued job, or model.ErrNoJobsAvailable.
	NextQueued(ctx context.Context) (*model.ValidationJob, error)

	// Start flips queued → running and stamps started_at. Returns false when
	// the job was no longer queued (a concurrent invocation won the race).
	Start(ctx context.Context, id string) (bool, error)

	// SetPlan records total_chunks and the result run id once planning
	// completes. Valid only while running.
	SetPlan(ctx context.Context, params SetPlanParams) (bool, error)

	// AdvanceProgress moves current_chunk forward and recomputes
	// progress_percent. Valid only while running; progress never decreases.
	AdvanceProgress(ctx context.Context, params AdvanceProgressParams) (bool, error)

	// Complete flips running → completed with progress_percent = 100.
	Complete(ctx context.Context, id string) (bool, error)

	// Fail flips the job to failed with the given error message from any
	// non-terminal status.
	Fail(ctx context.Context, id, errMsg string) (bool, error)

	Stats(ctx context.Context) (*model.JobStats, error)
}

// SetPlanParams groups parameters for JobRepository.SetPlan.
type SetPlanParams struct {
	JobID       string
	TotalChunks int
	ResultRunID string
}

// AdvanceProgressParams groups parameters for JobRepository.AdvanceProgress.
type AdvanceProgressParams struct {
	JobID           string
	CurrentChunk    int
	ProgressPercent int
}

// WatchdogRepository defines the bulk conditional transitions used by the
// stuck-job watchdog. Both operations are single UPDATE ... WHERE statements,
// so a job that leaves the filtered state between read and write is simply
// not matched.
type WatchdogRepository interface {
	// FailStaleRunningJobs fails running jobs whose started_at is older than
	// maxRuntime, up to batchSize rows per call.
	FailStaleRunningJobs(ctx context.Context, maxRuntime time.Duration, batchSize int) (int64, error)

	// FailStaleQueuedJobs fails queued jobs whose created_at is older than
	// maxQueueWait, up to batchSize rows per call.
	FailStaleQueuedJobs(ctx context.Context, maxQueueWait time.Duration, batchSize int) (int64, error)
}

// DeleteOldJobsParams groups parameters for RetentionRepository.DeleteOldJobs.
type DeleteOldJobsParams struct {
	Status    model.JobStatus
	MaxAge    time.Duration
	BatchSize int
}

// DeleteOldResultsParams groups parameters for RetentionRepository.DeleteOldResults.
type DeleteOldResultsParams struct {
	MaxAge    time.Duration
	BatchSize int
}

// RetentionRepository defines the hard-delete operations used by the
// retention sweeper. Only terminal jobs are ever deleted.
type RetentionRepository interface {
	DeleteOldJobs(ctx context.Context, params DeleteOldJobsParams) (int64, error)
	DeleteOldResults(ctx context.Context, params DeleteOldResultsParams) (int64, error)
}

// QueryWindowParams groups parameters for event window queries.
type QueryWindowParams struct {
	Window  model.Window
	Channel string // empty matches all channels
}

// ChunkBoundariesParams groups parameters for EventRepository.ChunkBoundaries.
type ChunkBoundariesParams struct {
	Window  model.Window
	Channel string
	Stride  int // sample the cursor of every Stride-th event
}

// QueryChunkParams groups parameters for chunk event queries. From and To
// bound the chunk in reception order; a nil bound falls back to the
// corresponding window edge.
type QueryChunkParams struct {
	Window  model.Window
	Channel string
	From    *model.EventCursor
	To      *model.EventCursor
}

// EventRepository defines read-only access to the entropy event stream.
type EventRepository interface {
	// QueryWindow returns all events in the window ordered by reception time,
	// then sequence.
	QueryWindow(ctx context.Context, params QueryWindowParams) ([]*model.EntropyEvent, error)

	// QueryChunk returns the events of one chunk in reception order, bounded
	// by keyset cursors so timestamp ties cannot leak events across chunks.
	QueryChunk(ctx context.Context, params QueryChunkParams) ([]*model.EntropyEvent, error)

	// ChunkBoundaries returns the cursor of the first event of each new group
	// of Stride events inside the window, in ascending order. These are the
	// interior split points for chunk planning.
	ChunkBoundaries(ctx context.Context, params ChunkBoundariesParams) ([]model.EventCursor, error)
}

// InsertChunkResultsParams groups parameters for ResultRepository.InsertChunkResults.
type InsertChunkResultsParams struct {
	RunID      string
	JobID      string
	ChunkIndex int
	ChunkCount int
	Outcome    *model.AssessmentOutcome
}

// ResultRepository defines persistence for per-chunk assessment results.
// Result rows outlive their job records and carry their own retention policy.
type ResultRepository interface {
	InsertChunkResults(ctx context.Context, params InsertChunkResultsParams) (int, error)
	ListByRunID(ctx context.Context, runID string) ([]*model.AssessmentResult, error)
}

// ReportRepository defines persistence for quality reports.
type ReportRepository interface {
	Insert(ctx context.Context, report *model.QualityReport) (*model.QualityReport, error)
	GetLatest(ctx context.Context, channel string) (*model.QualityReport, error)
}

// AssessmentClient invokes the external statistical assessment service with
// one bit-stream chunk.
type AssessmentClient interface {
	Evaluate(ctx context.Context, req model.AssessmentRequest) (*model.AssessmentOutcome, error)
}

// CacheRepository defines the byte-oriented cache operations used for
// latest-report lookups.
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
}
