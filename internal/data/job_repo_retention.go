package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/data/pgxutil"
)

// DeleteOldJobs deletes terminal jobs with the given status created before
// the retention horizon. The horizon keys on created_at, so a long-lived job
// that only recently reached a terminal state is still purged once its
// creation falls outside the horizon. Processes up to BatchSize jobs per call
// to prevent long locks and I/O spikes. Uses advisory locks so concurrent
// retention instances skip instead of conflicting. Returns the number of jobs
// deleted.
func (r *JobRepo) DeleteOldJobs(ctx context.Context, params core.DeleteOldJobsParams) (int64, error) {
	if !params.Status.Valid() {
		return 0, fmt.Errorf("invalid job status: %s", params.Status)
	}
	if !params.Status.Terminal() {
		return 0, fmt.Errorf("only terminal jobs may be deleted, got status: %s", params.Status)
	}
	if params.BatchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}
	if params.MaxAge <= 0 {
		return 0, errors.New("max age must be greater than zero")
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockSweepMajor, advisoryLockSweepDeleteJobs).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			currentTime := r.timeProvider.Now()
			cutoffTime := currentTime.Add(-params.MaxAge)

			res, err := tx.ExecContext(ctx, `
				DELETE FROM validation_jobs
				WHERE id IN (
					SELECT id FROM validation_jobs
					WHERE status = $1
					  AND created_at < $2
					ORDER BY created_at
					LIMIT $3
				)
			`, params.Status, cutoffTime.UTC(), params.BatchSize)
			if err != nil {
				return fmt.Errorf("delete old jobs: %w", err)
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

// DeleteOldResults deletes persisted assessment_results rows older than
// MaxAge. Result rows outlive their job records, so they carry a retention
// horizon of their own. Processes up to BatchSize rows per call.
func (r *JobRepo) DeleteOldResults(ctx context.Context, params core.DeleteOldResultsParams) (int64, error) {
	if params.BatchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}
	if params.MaxAge <= 0 {
		return 0, errors.New("max age must be greater than zero")
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockSweepMajor, advisoryLockSweepDeleteResults).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			cutoffTime := r.timeProvider.Now().Add(-params.MaxAge).UTC()

			res, err := tx.ExecContext(ctx, `
				DELETE FROM assessment_results
				USING (
					SELECT ctid
					FROM assessment_results
					WHERE created_at < $1
					ORDER BY created_at
					LIMIT $2
				) sub
				WHERE assessment_results.ctid = sub.ctid
			`, cutoffTime, params.BatchSize)
			if err != nil {
				return fmt.Errorf("delete old assessment_results: %w", err)
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
