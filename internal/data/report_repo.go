package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/quantumgrade/entropyval/internal/data/pgxutil"
	"github.com/quantumgrade/entropyval/internal/domain/model"
)

// ReportRepo provides database operations for quality reports. Reports are
// append-only; a newer report supersedes an older one by created_at.
type ReportRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewReportRepo creates a new ReportRepo instance.
func NewReportRepo(db *sql.DB, tp TimeProvider, logger *slog.Logger) *ReportRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &ReportRepo{DB: db, timeProvider: tp, logger: logger}
}

const reportColumns = `
  id,
  channel,
  window_start,
  window_end,
  total_events,
  missing_sequence_count,
  clock_drift_us_per_hour,
  average_network_delay_ms,
  average_decay_interval_ms,
  decay_rate_realistic,
  overall_quality_score,
  status,
  recommendations,
  created_at
`

// Insert persists a new quality report and returns the stored row.
func (r *ReportRepo) Insert(ctx context.Context, report *model.QualityReport) (*model.QualityReport, error) {
	if report == nil {
		return nil, errors.New("quality report is required")
	}
	if !report.Status.Valid() {
		return nil, fmt.Errorf("invalid quality status: %s", report.Status)
	}

	recommendations, err := json.Marshal(report.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("marshal recommendations: %w", err)
	}

	currentTime := r.timeProvider.Now().UTC()
	query := `
      INSERT INTO quality_reports(
        channel, window_start, window_end, total_events, missing_sequence_count,
        clock_drift_us_per_hour, average_network_delay_ms, average_decay_interval_ms,
        decay_rate_realistic, overall_quality_score, status, recommendations, created_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
      RETURNING ` + reportColumns

	var stored *model.QualityReport
	err = pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query,
			report.Channel,
			report.WindowStart.UTC(),
			report.WindowEnd.UTC(),
			report.TotalEvents,
			report.MissingSequenceCount,
			report.ClockDriftUsPerHour,
			report.AverageNetworkDelayMs,
			report.AverageDecayIntervalMs,
			report.DecayRateRealistic,
			report.OverallQualityScore,
			report.Status,
			recommendations,
			currentTime,
		)
		if qerr != nil {
			return fmt.Errorf("insert quality report: %w", qerr)
		}
		defer rows.Close()

		if !rows.Next() {
			if rowsErr := rows.Err(); rowsErr != nil {
				return rowsErr
			}
			return pgx.ErrNoRows
		}
		var scanErr error
		stored, scanErr = scanReportFromRow(rows)
		if scanErr != nil {
			return fmt.Errorf("collect quality report: %w", scanErr)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// GetLatest returns the most recent quality report for a channel, or
// model.ErrReportNotFound when the channel has never been scored.
func (r *ReportRepo) GetLatest(ctx context.Context, channel string) (*model.QualityReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM quality_reports
		WHERE channel = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var report *model.QualityReport
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query, channel)
		if qerr != nil {
			return fmt.Errorf("get latest quality report: %w", qerr)
		}
		defer rows.Close()

		if !rows.Next() {
			if rowsErr := rows.Err(); rowsErr != nil {
				return rowsErr
			}
			return pgx.ErrNoRows
		}
		var scanErr error
		report, scanErr = scanReportFromRow(rows)
		if scanErr != nil {
			return fmt.Errorf("collect quality report: %w", scanErr)
		}
		return rows.Err()
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func scanReportFromRow(scanner interface{ Scan(dest ...any) error }) (*model.QualityReport, error) {
	report := &model.QualityReport{}
	var drift, delay, interval sql.NullFloat64
	var realistic sql.NullBool
	var recommendations []byte

	if err := scanner.Scan(
		&report.ID,
		&report.Channel,
		&report.WindowStart,
		&report.WindowEnd,
		&report.TotalEvents,
		&report.MissingSequenceCount,
		&drift,
		&delay,
		&interval,
		&realistic,
		&report.OverallQualityScore,
		&report.Status,
		&recommendations,
		&report.CreatedAt,
	); err != nil {
		return nil, err
	}

	if drift.Valid {
		v := drift.Float64
		report.ClockDriftUsPerHour = &v
	}
	if delay.Valid {
		v := delay.Float64
		report.AverageNetworkDelayMs = &v
	}
	if interval.Valid {
		v := interval.Float64
		report.AverageDecayIntervalMs = &v
	}
	if realistic.Valid {
		v := realistic.Bool
		report.DecayRateRealistic = &v
	}
	if len(recommendations) > 0 {
		if err := json.Unmarshal(recommendations, &report.Recommendations); err != nil {
			return nil, fmt.Errorf("unmarshal recommendations: %w", err)
		}
	}
	return report, nil
}
