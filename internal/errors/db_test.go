package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	err := MapDBError(nil)
	if err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "canceled",
			err:      context.Canceled,
			wantCode: ErrCodeCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if GetCode(err) != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("MapDBError() should preserve the cause chain for %v", tt.err)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(pgx.ErrNoRows)
	if !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_CheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           pgerrcode.CheckViolation,
		ConstraintName: "validation_jobs_progress_check",
	}

	err := MapDBError(pgErr)
	if !IsValidation(err) {
		t.Errorf("MapDBError() should be Validation, got %v", GetCode(err))
	}
}

func TestMapDBError_NotNullViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:       pgerrcode.NotNullViolation,
		ColumnName: "window_start",
	}

	err := MapDBError(pgErr)
	if !IsValidation(err) {
		t.Errorf("MapDBError() should be Validation, got %v", GetCode(err))
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "quality_reports_channel_window_key",
	}

	err := MapDBError(pgErr)
	if !IsStateConflict(err) {
		t.Errorf("MapDBError() should be StateConflict, got %v", GetCode(err))
	}
}

func TestMapDBError_UnknownPgError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:    "99999", // unknown error code
		Message: "unknown error",
	}
	err := MapDBError(pgErr)
	if !IsInternal(err) {
		t.Errorf("MapDBError() should be Internal for unknown pg error, got %v", GetCode(err))
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	stdErr := errors.New("standard error")
	err := MapDBError(stdErr)
	if !errors.Is(err, stdErr) {
		t.Errorf("MapDBError() should return original error for non-db errors, got %v", err)
	}
}
