package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quantumgrade/entropyval/internal/data/pgxutil"
)

// Advisory lock namespace for watchdog and retention operations.
// Using two-arg pg_try_advisory_xact_lock(major, minor) for proper namespacing.
// Major key 2000 is reserved for entropyval sweep operations.
const (
	advisoryLockSweepMajor         = 2000
	advisoryLockSweepFailRunning   = 1 // minor key for FailStaleRunningJobs
	advisoryLockSweepFailQueued    = 2 // minor key for FailStaleQueuedJobs
	advisoryLockSweepDeleteJobs    = 3 // minor key for DeleteOldJobs
	advisoryLockSweepDeleteResults = 4 // minor key for DeleteOldResults
)

// FailStaleRunningJobs fails running jobs whose started_at is older than
// maxRuntime. Processes up to batchSize jobs per call to prevent long locks
// and I/O spikes. Uses advisory locks so concurrent watchdog instances skip
// instead of conflicting. Returns the number of jobs failed.
func (r *JobRepo) FailStaleRunningJobs(ctx context.Context, maxRuntime time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockSweepMajor, advisoryLockSweepFailRunning).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			currentTime := r.timeProvider.Now()
			cutoffTime := currentTime.Add(-maxRuntime)

			res, err := tx.ExecContext(ctx, `
				UPDATE validation_jobs
				SET status = 'failed',
					error_message = 'Job exceeded maximum runtime',
					completed_at = $1,
					updated_at = $1
				WHERE id IN (
					SELECT id FROM validation_jobs
					WHERE status = 'running'
					  AND started_at < $2
					ORDER BY started_at
					LIMIT $3
				)
			`, currentTime.UTC(), cutoffTime.UTC(), batchSize)
			if err != nil {
				return fmt.Errorf("fail stale running jobs: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}

// FailStaleQueuedJobs fails queued jobs whose created_at is older than
// maxQueueWait. A job that sat queued that long indicates no orchestrator is
// draining the queue; failing it surfaces the problem to the submitter
// instead of leaving the row pending forever.
func (r *JobRepo) FailStaleQueuedJobs(ctx context.Context, maxQueueWait time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockSweepMajor, advisoryLockSweepFailQueued).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			currentTime := r.timeProvider.Now()
			cutoffTime := currentTime.Add(-maxQueueWait)

			res, err := tx.ExecContext(ctx, `
				UPDATE validation_jobs
				SET status = 'failed',
					error_message = 'Job timed out in queued status',
					completed_at = $1,
					updated_at = $1
				WHERE id IN (
					SELECT id FROM validation_jobs
					WHERE status = 'queued'
					  AND created_at < $2
					ORDER BY created_at
					LIMIT $3
				)
			`, currentTime.UTC(), cutoffTime.UTC(), batchSize)
			if err != nil {
				return fmt.Errorf("fail stale queued jobs: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}
