package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/data/pgxutil"
	"github.com/quantumgrade/entropyval/internal/domain/model"
)

// ResultRepo provides database operations for per-chunk assessment results.
type ResultRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewResultRepo creates a new ResultRepo instance.
func NewResultRepo(db *sql.DB, tp TimeProvider, logger *slog.Logger) *ResultRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &ResultRepo{DB: db, timeProvider: tp, logger: logger}
}

const resultColumns = `
  id,
  run_id,
  job_id,
  chunk_index,
  chunk_count,
  test_name,
  passed,
  p_value,
  entropy_estimate,
  created_at
`

const insertResultSQL = `
  INSERT INTO assessment_results(run_id, job_id, chunk_index, chunk_count, test_name, passed, p_value, entropy_estimate, created_at)
  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

// InsertChunkResults persists every test verdict and entropy estimate from one
// assessment call, tagged with the chunk position so callers can reconstruct
// which chunk produced which row. All rows of a chunk land in one transaction.
// Returns the number of rows written.
func (r *ResultRepo) InsertChunkResults(ctx context.Context, params core.InsertChunkResultsParams) (int, error) {
	if params.RunID == "" || params.JobID == "" {
		return 0, errors.New("run id and job id are required")
	}
	if params.Outcome == nil {
		return 0, errors.New("assessment outcome is required")
	}
	if params.ChunkIndex < 0 || params.ChunkCount < 1 || params.ChunkIndex >= params.ChunkCount {
		return 0, errors.New("chunk index must be within chunk count")
	}

	currentTime := r.timeProvider.Now().UTC()

	batch := &pgx.Batch{}
	for _, test := range params.Outcome.Tests {
		batch.Queue(insertResultSQL,
			params.RunID, params.JobID, params.ChunkIndex, params.ChunkCount,
			test.Name, test.Passed, test.PValue, nil, currentTime)
	}

	// Entropy estimates are keyed by estimator name; emit them in a stable
	// order so repeated runs produce identical row sequences.
	estimators := make([]string, 0, len(params.Outcome.EntropyEstimates))
	for name := range params.Outcome.EntropyEstimates {
		estimators = append(estimators, name)
	}
	sort.Strings(estimators)
	for _, name := range estimators {
		estimate := params.Outcome.EntropyEstimates[name]
		batch.Queue(insertResultSQL,
			params.RunID, params.JobID, params.ChunkIndex, params.ChunkCount,
			name, true, nil, estimate, currentTime)
	}

	if batch.Len() == 0 {
		return 0, nil
	}

	inserted := 0
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			results := tx.SendBatch(ctx, batch)
			defer func() {
				if closeErr := results.Close(); closeErr != nil {
					_ = closeErr
				}
			}()
			for i := 0; i < batch.Len(); i++ {
				if _, execErr := results.Exec(); execErr != nil {
					return fmt.Errorf("insert assessment result: %w", execErr)
				}
				inserted++
			}
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListByRunID returns all result rows for a run ordered by chunk position and
// test name.
func (r *ResultRepo) ListByRunID(ctx context.Context, runID string) ([]*model.AssessmentResult, error) {
	if runID == "" {
		return nil, errors.New("run id is required")
	}

	query := `
		SELECT ` + resultColumns + `
		FROM assessment_results
		WHERE run_id = $1
		ORDER BY chunk_index ASC, test_name ASC
	`

	var results []*model.AssessmentResult
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query, runID)
		if qerr != nil {
			return fmt.Errorf("list results by run id: %w", qerr)
		}
		defer rows.Close()

		for rows.Next() {
			res := &model.AssessmentResult{}
			var pValue, entropy sql.NullFloat64
			if scanErr := rows.Scan(
				&res.ID,
				&res.RunID,
				&res.JobID,
				&res.ChunkIndex,
				&res.ChunkCount,
				&res.TestName,
				&res.Passed,
				&pValue,
				&entropy,
				&res.CreatedAt,
			); scanErr != nil {
				return fmt.Errorf("scan result: %w", scanErr)
			}
			if pValue.Valid {
				v := pValue.Float64
				res.PValue = &v
			}
			if entropy.Valid {
				v := entropy.Float64
				res.EntropyEstimate = &v
			}
			results = append(results, res)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
