package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/data/pgxutil"
	"github.com/quantumgrade/entropyval/internal/domain/model"
)

// EventRepo provides read-only database access to the entropy event stream.
// Events are written by the sensor gateway; this service never mutates them.
type EventRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewEventRepo creates a new EventRepo instance.
func NewEventRepo(db *sql.DB, logger *slog.Logger) *EventRepo {
	return &EventRepo{DB: db, logger: logger}
}

const eventColumns = `
  id,
  sequence,
  channel,
  hw_timestamp_ns,
  server_received_at,
  network_delay_ms
`

// QueryWindow returns all events in the half-open window ordered by reception
// time, then sequence for a stable order under identical timestamps.
func (r *EventRepo) QueryWindow(ctx context.Context, params core.QueryWindowParams) ([]*model.EntropyEvent, error) {
	if err := params.Window.Validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + eventColumns + `
		FROM entropy_events
		WHERE server_received_at >= $1
		  AND server_received_at < $2
		  AND ($3 = '' OR channel = $3)
		ORDER BY server_received_at ASC, sequence ASC
	`

	return r.queryEvents(ctx, query,
		params.Window.Start.UTC(), params.Window.End.UTC(), params.Channel)
}

// QueryChunk returns one chunk's events in reception order. From and To are
// keyset bounds on (server_received_at, sequence); a nil bound falls back to
// the corresponding window edge. Row comparison on the pair keeps events with
// tied timestamps on the correct side of each bound.
func (r *EventRepo) QueryChunk(ctx context.Context, params core.QueryChunkParams) ([]*model.EntropyEvent, error) {
	if err := params.Window.Validate(); err != nil {
		return nil, err
	}

	var fromTs, toTs *time.Time
	var fromSeq, toSeq int64
	if params.From != nil {
		t := params.From.ReceivedAt.UTC()
		fromTs = &t
		fromSeq = params.From.Sequence
	}
	if params.To != nil {
		t := params.To.ReceivedAt.UTC()
		toTs = &t
		toSeq = params.To.Sequence
	}

	query := `
		SELECT ` + eventColumns + `
		FROM entropy_events
		WHERE server_received_at >= $1
		  AND server_received_at < $2
		  AND ($3 = '' OR channel = $3)
		  AND ($4::timestamptz IS NULL OR (server_received_at, sequence) >= ($4::timestamptz, $5::bigint))
		  AND ($6::timestamptz IS NULL OR (server_received_at, sequence) < ($6::timestamptz, $7::bigint))
		ORDER BY server_received_at ASC, sequence ASC
	`

	return r.queryEvents(ctx, query,
		params.Window.Start.UTC(), params.Window.End.UTC(), params.Channel,
		fromTs, fromSeq, toTs, toSeq)
}

func (r *EventRepo) queryEvents(ctx context.Context, query string, args ...any) ([]*model.EntropyEvent, error) {
	var events []*model.EntropyEvent
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query, args...)
		if qerr != nil {
			return fmt.Errorf("query events: %w", qerr)
		}
		defer rows.Close()

		for rows.Next() {
			ev := &model.EntropyEvent{}
			var delay sql.NullFloat64
			if scanErr := rows.Scan(
				&ev.ID,
				&ev.Sequence,
				&ev.Channel,
				&ev.HwTimestampNs,
				&ev.ServerReceivedAt,
				&delay,
			); scanErr != nil {
				return fmt.Errorf("scan event: %w", scanErr)
			}
			if delay.Valid {
				d := delay.Float64
				ev.NetworkDelayMs = &d
			}
			events = append(events, ev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ChunkBoundaries returns the cursor of the first event of each new group of
// Stride events inside the window, in ascending order. These become the
// interior split points of a chunk plan, so each resulting chunk holds at
// most Stride events even when a bursty gateway flush stamps many events with
// the same reception timestamp.
func (r *EventRepo) ChunkBoundaries(ctx context.Context, params core.ChunkBoundariesParams) ([]model.EventCursor, error) {
	if err := params.Window.Validate(); err != nil {
		return nil, err
	}
	if params.Stride <= 0 {
		return nil, errors.New("stride must be positive")
	}

	// row_number is 1-based; rows where (rn - 1) % stride == 0 open a new
	// group of stride events. The first row is excluded because the first
	// chunk always starts at the window edge, and ordering by
	// (server_received_at, sequence) keeps cursors unique under ties.
	query := `
		SELECT server_received_at, sequence FROM (
			SELECT server_received_at,
			       sequence,
			       row_number() OVER (ORDER BY server_received_at ASC, sequence ASC) AS rn
			FROM entropy_events
			WHERE server_received_at >= $1
			  AND server_received_at < $2
			  AND ($3 = '' OR channel = $3)
		) numbered
		WHERE (rn - 1) % $4 = 0 AND rn > 1
		ORDER BY server_received_at ASC, sequence ASC
	`

	var boundaries []model.EventCursor
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query,
			params.Window.Start.UTC(), params.Window.End.UTC(), params.Channel, params.Stride)
		if qerr != nil {
			return fmt.Errorf("query chunk boundaries: %w", qerr)
		}
		defer rows.Close()

		for rows.Next() {
			var c model.EventCursor
			if scanErr := rows.Scan(&c.ReceivedAt, &c.Sequence); scanErr != nil {
				return fmt.Errorf("scan boundary: %w", scanErr)
			}
			c.ReceivedAt = c.ReceivedAt.UTC()
			boundaries = append(boundaries, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return boundaries, nil
}
