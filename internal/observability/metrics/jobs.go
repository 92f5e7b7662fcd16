package metrics

import (
	"time"

	"github.com/quantumgrade/entropyval/internal/domain/model"
	obserrors "github.com/quantumgrade/entropyval/internal/observability/errors"
	"github.com/quantumgrade/entropyval/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// JobMetric captures details about a validation job lifecycle event for
// metric emission.
type JobMetric struct {
	JobType    string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitJobLifecycle emits standardised validation job lifecycle metrics.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job_type":   in.JobType,
		"transition": in.Transition,
		"result":     in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("validation_job.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("validation_job.duration", in.Duration, CloneTags(tags))
	}
}

// EmitChunkAssessed records one completed assessment chunk.
func EmitChunkAssessed(sink statsd.Sink, jobType string, duration time.Duration, err error) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	tags := map[string]string{"job_type": jobType}
	if err != nil {
		result = ResultError
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
	tags["result"] = result

	sink.Count("assessment.chunk", 1, tags)
	if duration > 0 {
		sink.Timing("assessment.chunk_duration", duration, CloneTags(tags))
	}
}

// EmitQualityScore records the composite score and status of a quality sweep.
func EmitQualityScore(sink statsd.Sink, channel string, score float64, status model.QualityStatus) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"channel": channel,
		"status":  string(status),
	}
	sink.Gauge("quality.score", score, tags)
	sink.Count("quality.report", 1, CloneTags(tags))
}

// EmitSweep records the outcome of one watchdog or retention sweep pass.
func EmitSweep(sink statsd.Sink, sweep string, affected int64, err error) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	tags := map[string]string{"sweep": sweep}
	if err != nil {
		result = ResultError
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	} else if affected == 0 {
		result = ResultNoop
	}
	tags["result"] = result

	sink.Count("sweep.pass", 1, tags)
	if affected > 0 {
		sink.Count("sweep.rows", affected, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
