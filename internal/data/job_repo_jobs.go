package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/data/pgxutil"
	"github.com/quantumgrade/entropyval/internal/domain/model"
)

// SQL used by NextQueued to atomically claim the oldest queued job without
// blocking concurrent orchestrators.
const nextQueuedSelectSQL = `
  SELECT ` + jobColumns + `
  FROM validation_jobs
  WHERE status = 'queued'
  ORDER BY created_at ASC
  LIMIT 1
  FOR UPDATE SKIP LOCKED`

// Create creates a new queued validation job with the given parameters.
func (r *JobRepo) Create(
	ctx context.Context,
	req *model.CreateJobRequest,
) (*model.ValidationJob, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if validateErr := req.Validate(); validateErr != nil {
		return nil, validateErr
	}

	currentTime := r.timeProvider.Now().UTC()
	query := `
      INSERT INTO validation_jobs(type, status, window_start, window_end, created_by, created_at, updated_at)
      VALUES ($1,'queued',$2,$3,$4,$5,$5)
      RETURNING ` + jobColumns

	var job *model.ValidationJob
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query,
			req.Type,
			req.WindowStart.UTC(),
			req.WindowEnd.UTC(),
			req.CreatedBy,
			currentTime,
		)
		if qerr != nil {
			return fmt.Errorf("insert job: %w", qerr)
		}
		defer rows.Close()
		var collectErr error
		job, collectErr = collectJobFromRows(rows)
		return collectErr
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetByID retrieves a validation job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.ValidationJob, error) {
	var job *model.ValidationJob
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM validation_jobs
			WHERE id = $1
		`, id)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		var collectErr error
		job, collectErr = collectJobFromRows(rows)
		return collectErr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// NextQueued returns the oldest queued job, or model.ErrNoJobsAvailable when
// the queue is empty. The row lock is released when the transaction commits;
// callers still claim ownership through Start.
func (r *JobRepo) NextQueued(ctx context.Context) (*model.ValidationJob, error) {
	var job *model.ValidationJob
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			rows, qerr := tx.Query(ctx, nextQueuedSelectSQL)
			if qerr != nil {
				return fmt.Errorf("select next queued job: %w", qerr)
			}
			defer rows.Close()

			j, cerr := collectJobFromRows(rows)
			if errors.Is(cerr, pgx.ErrNoRows) {
				return model.ErrNoJobsAvailable
			}
			if cerr != nil {
				return fmt.Errorf("collect queued job: %w", cerr)
			}
			job = j
			return nil
		},
	})
	if err != nil {
		if errors.Is(err, model.ErrNoJobsAvailable) {
			return nil, model.ErrNoJobsAvailable
		}
		return nil, err
	}
	return job, nil
}

// Start flips a job from queued to running and stamps started_at. Returns
// false when the job was no longer queued, which means another orchestrator
// invocation won the claim race.
func (r *JobRepo) Start(ctx context.Context, id string) (bool, error) {
	currentTime := r.timeProvider.Now().UTC()

	query := `
		UPDATE validation_jobs
		SET status = 'running',
		    started_at = $2,
		    updated_at = $2
		WHERE id = $1 AND status = 'queued'
	`

	res, err := r.DB.ExecContext(ctx, query, id, currentTime)
	if err != nil {
		return false, fmt.Errorf("start job: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("start rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// SetPlan records the chunk plan size and result run id once planning
// completes. Valid only while the job is running.
func (r *JobRepo) SetPlan(ctx context.Context, params core.SetPlanParams) (bool, error) {
	if params.TotalChunks < 1 {
		return false, errors.New("total chunks must be >= 1")
	}
	currentTime := r.timeProvider.Now().UTC()

	query := `
		UPDATE validation_jobs
		SET total_chunks = $2,
		    result_run_id = $3,
		    updated_at = $4
		WHERE id = $1 AND status = 'running'
	`

	res, err := r.DB.ExecContext(ctx, query, params.JobID, params.TotalChunks, params.ResultRunID, currentTime)
	if err != nil {
		return false, fmt.Errorf("set job plan: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set plan rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// AdvanceProgress moves current_chunk and progress_percent forward. The
// GREATEST guards keep progress monotonic even if a delayed write lands after
// a newer one.
func (r *JobRepo) AdvanceProgress(ctx context.Context, params core.AdvanceProgressParams) (bool, error) {
	if params.ProgressPercent < 0 || params.ProgressPercent > 100 {
		return false, errors.New("progress percent must be between 0 and 100")
	}
	currentTime := r.timeProvider.Now().UTC()

	query := `
		UPDATE validation_jobs
		SET current_chunk = GREATEST(current_chunk, $2),
		    progress_percent = GREATEST(progress_percent, $3),
		    updated_at = $4
		WHERE id = $1 AND status = 'running'
	`

	res, err := r.DB.ExecContext(ctx, query, params.JobID, params.CurrentChunk, params.ProgressPercent, currentTime)
	if err != nil {
		return false, fmt.Errorf("advance job progress: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("advance progress rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Complete marks a running job as completed with full progress.
func (r *JobRepo) Complete(ctx context.Context, id string) (bool, error) {
	currentTime := r.timeProvider.Now().UTC()

	query := `
		UPDATE validation_jobs
		SET status = 'completed',
		    progress_percent = 100,
		    current_chunk = total_chunks,
		    completed_at = $2,
		    updated_at = $2,
		    error_message = NULL
		WHERE id = $1 AND status = 'running'
	`

	res, err := r.DB.ExecContext(ctx, query, id, currentTime)
	if err != nil {
		return false, fmt.Errorf("complete job: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Fail marks a job as failed with the given error message. Terminal rows are
// never touched, so completing and failing the same job cannot both win.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	currentTime := r.timeProvider.Now().UTC()

	query := `
		UPDATE validation_jobs
		SET status = 'failed',
		    error_message = $2,
		    completed_at = $3,
		    updated_at = $3
		WHERE id = $1 AND status IN ('queued', 'running')
	`

	res, err := r.DB.ExecContext(ctx, query, id, errMsg, currentTime)
	if err != nil {
		return false, fmt.Errorf("fail job: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("fail rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Stats returns counts of validation jobs in each state.
func (r *JobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	var s model.JobStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'queued')    AS queued,
    count(*) FILTER (WHERE status = 'running')   AS running,
    count(*) FILTER (WHERE status = 'completed') AS completed,
    count(*) FILTER (WHERE status = 'failed')    AS failed
  FROM validation_jobs
  `).Scan(
		&s.Queued,
		&s.Running,
		&s.Completed,
		&s.Failed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	return &s, nil
}

// collectJobFromRows collects a single job from pgx rows using pgx v5 helpers.
func collectJobFromRows(rows pgx.Rows) (*model.ValidationJob, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}

	return job, nil
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	resultRunID, errorMessage sql.NullString
	startedAt, completedAt    sql.NullTime
}

func (d *jobRowData) scanInto(scanner jobRowScanner, job *model.ValidationJob) error {
	return scanner.Scan(
		&job.ID,
		&job.Type,
		&job.Status,
		&job.ProgressPercent,
		&job.CurrentChunk,
		&job.TotalChunks,
		&job.WindowStart,
		&job.WindowEnd,
		&d.resultRunID,
		&d.errorMessage,
		&job.CreatedBy,
		&job.CreatedAt,
		&d.startedAt,
		&d.completedAt,
		&job.UpdatedAt,
	)
}

func (d *jobRowData) apply(job *model.ValidationJob) {
	job.ResultRunID = cloneNullableString(d.resultRunID)
	job.ErrorMessage = cloneNullableString(d.errorMessage)
	job.StartedAt = cloneNullableTime(d.startedAt)
	job.CompletedAt = cloneNullableTime(d.completedAt)
}

func scanJobFromRow(scanner jobRowScanner) (*model.ValidationJob, error) {
	job := &model.ValidationJob{}
	var data jobRowData
	if err := data.scanInto(scanner, job); err != nil {
		return nil, err
	}

	data.apply(job)
	return job, nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
