// Package testutil provides testing utilities and helpers for the entropy validation system.
package testutil

import (
	"fmt"
	"time"

	"github.com/quantumgrade/entropyval/internal/domain/model"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a new JobRequestBuilder with sensible defaults.
func NewJobRequest() *JobRequestBuilder {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{
			Type:        model.ValidationStatisticalSuite,
			WindowStart: start,
			WindowEnd:   start.Add(time.Hour),
			CreatedBy:   "test-suite",
		},
	}
}

// WithType sets the validation type.
func (b *JobRequestBuilder) WithType(t model.ValidationType) *JobRequestBuilder {
	b.req.Type = t
	return b
}

// WithWindow sets the analysis window.
func (b *JobRequestBuilder) WithWindow(start, end time.Time) *JobRequestBuilder {
	b.req.WindowStart = start
	b.req.WindowEnd = end
	return b
}

// WithCreatedBy sets the submitter.
func (b *JobRequestBuilder) WithCreatedBy(createdBy string) *JobRequestBuilder {
	b.req.CreatedBy = createdBy
	return b
}

// Build returns the constructed CreateJobRequest.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	return b.req
}

// JobBuilder provides a fluent interface for building ValidationJob rows for testing.
type JobBuilder struct {
	job *model.ValidationJob
}

// NewJob creates a new JobBuilder with a queued job and sensible defaults.
func NewJob() *JobBuilder {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &JobBuilder{
		job: &model.ValidationJob{
			ID:          "00000000-0000-0000-0000-000000000001",
			Type:        model.ValidationStatisticalSuite,
			Status:      model.JobStatusQueued,
			WindowStart: start,
			WindowEnd:   start.Add(time.Hour),
			CreatedBy:   "test-suite",
			CreatedAt:   start.Add(-time.Minute),
			UpdatedAt:   start.Add(-time.Minute),
		},
	}
}

// WithID sets the job ID.
func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.ID = id
	return b
}

// WithType sets the validation type.
func (b *JobBuilder) WithType(t model.ValidationType) *JobBuilder {
	b.job.Type = t
	return b
}

// WithStatus sets the job status.
func (b *JobBuilder) WithStatus(status model.JobStatus) *JobBuilder {
	b.job.Status = status
	return b
}

// WithWindow sets the analysis window.
func (b *JobBuilder) WithWindow(start, end time.Time) *JobBuilder {
	b.job.WindowStart = start
	b.job.WindowEnd = end
	return b
}

// WithPlan sets total chunks and the result run ID.
func (b *JobBuilder) WithPlan(totalChunks int, runID string) *JobBuilder {
	b.job.TotalChunks = totalChunks
	b.job.ResultRunID = &runID
	return b
}

// Build returns the constructed ValidationJob.
func (b *JobBuilder) Build() *model.ValidationJob {
	return b.job
}

// EventStreamOptions controls synthetic event stream generation.
type EventStreamOptions struct {
	Channel    string
	Count      int
	Start      time.Time
	Interval   time.Duration // spacing between server reception times
	IntervalNs int64         // spacing between hardware timestamps
	FirstSeq   int64
	DelayMs    *float64 // network delay applied to every event, nil leaves it unset
}

// GenerateEvents produces a well-behaved synthetic event stream: contiguous
// sequence numbers, evenly spaced hardware timestamps, and monotonically
// increasing reception times.
func GenerateEvents(opts EventStreamOptions) []*model.EntropyEvent {
	if opts.Channel == "" {
		opts.Channel = "default"
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.IntervalNs <= 0 {
		opts.IntervalNs = opts.Interval.Nanoseconds()
	}

	events := make([]*model.EntropyEvent, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		seq := opts.FirstSeq + int64(i)
		ev := &model.EntropyEvent{
			ID:               fmt.Sprintf("event-%d", seq),
			Sequence:         seq,
			Channel:          opts.Channel,
			HwTimestampNs:    int64(i) * opts.IntervalNs,
			ServerReceivedAt: opts.Start.Add(time.Duration(i) * opts.Interval),
		}
		if opts.DelayMs != nil {
			delay := *opts.DelayMs
			ev.NetworkDelayMs = &delay
		}
		events = append(events, ev)
	}
	return events
}

// Float64Ptr returns a pointer to the given float64. Handy for optional fields.
func Float64Ptr(v float64) *float64 {
	return &v
}

// StringPtr returns a pointer to the given string.
func StringPtr(v string) *string {
	return &v
}
