package model

import (
	"errors"
	"time"
)

// AssessmentRequest is one bounded bit-stream chunk submitted to the external
// assessment service.
type AssessmentRequest struct {
	Kind     ValidationType `json:"kind"`
	Bits     []byte         `json:"bits"`
	BitCount int            `json:"bit_count"`
}

// Validate checks the request before it leaves the process.
func (r *AssessmentRequest) Validate() error {
	if !r.Kind.Valid() {
		return errors.New("invalid assessment kind")
	}
	if r.BitCount < 0 {
		return errors.New("bit count must be >= 0")
	}
	if r.BitCount > len(r.Bits)*8 {
		return errors.New("bit count exceeds provided bits")
	}
	return nil
}

// TestOutcome is one statistical test verdict from the assessment service.
type TestOutcome struct {
	Name   string   `json:"name"`
	Passed bool     `json:"passed"`
	PValue *float64 `json:"p_value,omitempty"`
}

// AssessmentOutcome is the full result set of one assessment call.
type AssessmentOutcome struct {
	Tests            []TestOutcome      `json:"tests"`
	EntropyEstimates map[string]float64 `json:"entropy_estimates,omitempty"`
}

// AssessmentResult is one persisted per-test result row. ChunkIndex and
// ChunkCount tag every row so callers can deterministically reconstruct which
// chunk produced which result after the fact.
type AssessmentResult struct {
	ID              string    `json:"id"                         db:"id"`
	RunID           string    `json:"run_id"                     db:"run_id"`
	JobID           string    `json:"job_id"                     db:"job_id"`
	ChunkIndex      int       `json:"chunk_index"                db:"chunk_index"`
	ChunkCount      int       `json:"chunk_count"                db:"chunk_count"`
	TestName        string    `json:"test_name"                  db:"test_name"`
	Passed          bool      `json:"passed"                     db:"passed"`
	PValue          *float64  `json:"p_value,omitempty"          db:"p_value"`
	EntropyEstimate *float64  `json:"entropy_estimate,omitempty" db:"entropy_estimate"`
	CreatedAt       time.Time `json:"created_at"                 db:"created_at"`
}
