// Package model defines the core data types and structures used throughout the entropy validation system.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationType represents the kind of external assessment a validation job targets.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ValidationType string

// JobStatus represents the current status of a validation job.
type JobStatus string

const (
	// ValidationStatisticalSuite runs the full statistical randomness test battery.
	ValidationStatisticalSuite ValidationType = "statistical_suite"
	// ValidationEntropyAssessment runs min-entropy estimation only.
	ValidationEntropyAssessment ValidationType = "entropy_assessment"

	// JobStatusQueued indicates a job is waiting to be picked up by an orchestrator.
	JobStatusQueued JobStatus = "queued"
	// JobStatusRunning indicates a job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates a job has finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job has failed to complete.
	JobStatusFailed JobStatus = "failed"
)

// UnmarshalText implements encoding.TextUnmarshaler for ValidationType to allow env parsing.
func (t *ValidationType) UnmarshalText(text []byte) error {
	v := ValidationType(strings.ToLower(strings.TrimSpace(string(text))))
	if v.Valid() {
		*t = v
		return nil
	}
	return fmt.Errorf("invalid ValidationType: %q", string(text))
}

// ErrNoJobsAvailable is returned when no queued jobs are available for pickup.
var ErrNoJobsAvailable = errors.New("no jobs available")

// ErrJobNotFound is returned when a validation job is not found.
var ErrJobNotFound = errors.New("validation job not found")

// Valid returns true if the ValidationType is valid.
func (t ValidationType) Valid() bool {
	return t == ValidationStatisticalSuite || t == ValidationEntropyAssessment
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusQueued || s == JobStatusRunning || s == JobStatusCompleted ||
		s == JobStatusFailed
}

// Terminal returns true if the JobStatus allows no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ValidationJob represents a long-running randomness validation job over a window
// of entropy events.
//
// Lifecycle: queued → running → {completed, failed}. Terminal rows are immutable.
// While running, the job is owned by exactly one orchestrator invocation; the
// watchdog may only transition it through a status-conditional update.
type ValidationJob struct {
	ID              string         `json:"id"                       db:"id"`
	Type            ValidationType `json:"type"                     db:"type"`
	Status          JobStatus      `json:"status"                   db:"status"`
	ProgressPercent int            `json:"progress_percent"         db:"progress_percent"`
	CurrentChunk    int            `json:"current_chunk"            db:"current_chunk"`
	TotalChunks     int            `json:"total_chunks"             db:"total_chunks"`
	WindowStart     time.Time      `json:"window_start"             db:"window_start"`
	WindowEnd       time.Time      `json:"window_end"               db:"window_end"`
	ResultRunID     *string        `json:"result_run_id,omitempty"  db:"result_run_id"`
	ErrorMessage    *string        `json:"error_message,omitempty"  db:"error_message"`
	CreatedBy       string         `json:"created_by"               db:"created_by"`
	CreatedAt       time.Time      `json:"created_at"               db:"created_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"     db:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"   db:"completed_at"`
	UpdatedAt       time.Time      `json:"updated_at"               db:"updated_at"`
}

// Window returns the analysis range of the job.
func (j *ValidationJob) Window() Window {
	return Window{Start: j.WindowStart, End: j.WindowEnd}
}

// CreateJobRequest represents a request to create a new validation job.
type CreateJobRequest struct {
	Type        ValidationType `json:"type"`
	WindowStart time.Time      `json:"window_start"`
	WindowEnd   time.Time      `json:"window_end"`
	CreatedBy   string         `json:"created_by"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid validation type")
	}
	if err := (Window{Start: r.WindowStart, End: r.WindowEnd}).Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.CreatedBy) == "" {
		return errors.New("created by is required")
	}
	return nil
}

// JobStats represents counts of validation jobs in each state.
type JobStats struct {
	Queued    int `json:"queued"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// JobStatusResponse represents the status information for a specific job,
// shaped for polling callers.
type JobStatusResponse struct {
	Status          JobStatus  `json:"status"`
	ProgressPercent int        `json:"progress_percent"`
	CurrentChunk    int        `json:"current_chunk"`
	TotalChunks     int        `json:"total_chunks"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
}
