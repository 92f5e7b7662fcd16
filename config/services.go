package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quantumgrade/entropyval/internal/domain/model"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeOrchestrator runs the validation job orchestrator workers.
	ServiceModeOrchestrator ServiceMode = "orchestrator"
	// ServiceModeWatchdog runs the stuck-job watchdog.
	ServiceModeWatchdog ServiceMode = "watchdog"
	// ServiceModeRetention runs the retention sweeper for old rows.
	ServiceModeRetention ServiceMode = "retention"
	// ServiceModeQualityMonitor runs the periodic stream quality monitor.
	ServiceModeQualityMonitor ServiceMode = "quality-monitor"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeOrchestrator,
		ServiceModeWatchdog,
		ServiceModeRetention,
		ServiceModeQualityMonitor,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeOrchestrator,
			ServiceModeWatchdog,
			ServiceModeRetention,
			ServiceModeQualityMonitor:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: orchestrator, watchdog, retention, quality-monitor)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// OrchestratorConfig contains validation job orchestrator configuration.
type OrchestratorConfig struct {
	// Concurrency is the number of worker goroutines claiming queued jobs.
	Concurrency int `env:"ORCHESTRATOR_CONCURRENCY" envDefault:"2"`

	// PollInterval is how often idle workers check for queued jobs.
	PollInterval time.Duration `env:"ORCHESTRATOR_POLL_INTERVAL" envDefault:"5s"`

	// MaxChunkEvents is the maximum number of events per assessment chunk.
	MaxChunkEvents int `env:"ORCHESTRATOR_MAX_CHUNK_EVENTS" envDefault:"100000"`

	// ChunkTimeout bounds a single assessment service call.
	ChunkTimeout time.Duration `env:"ORCHESTRATOR_CHUNK_TIMEOUT" envDefault:"2m"`

	// Channel restricts jobs to one sensor channel. Empty matches all channels.
	Channel string `env:"ORCHESTRATOR_CHANNEL" envDefault:""`

	// DefaultJobType is the assessment kind used when a submitter omits one.
	DefaultJobType model.ValidationType `env:"ORCHESTRATOR_DEFAULT_JOB_TYPE" envDefault:"statistical_suite"`
}

// Sanitize applies guardrails to orchestrator configuration values.
func (o *OrchestratorConfig) Sanitize() {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.PollInterval < time.Second {
		o.PollInterval = time.Second
	}
	if o.MaxChunkEvents < 2 {
		o.MaxChunkEvents = 2
	}
	if o.ChunkTimeout < 5*time.Second {
		o.ChunkTimeout = 5 * time.Second
	}
	o.Channel = strings.TrimSpace(o.Channel)
	if !o.DefaultJobType.Valid() {
		o.DefaultJobType = model.ValidationStatisticalSuite
	}
}

// AssessmentConfig contains external assessment service client configuration.
type AssessmentConfig struct {
	// BaseURL is the root endpoint of the statistical assessment service.
	BaseURL string `env:"ASSESSMENT_BASE_URL" envDefault:"http://localhost:8090"`

	// Timeout bounds each HTTP call to the assessment service.
	Timeout time.Duration `env:"ASSESSMENT_TIMEOUT" envDefault:"90s"`
}

// Sanitize applies guardrails to assessment client configuration values.
func (a *AssessmentConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout < time.Second {
		a.Timeout = time.Second
	}
}

// WatchdogConfig contains stuck-job watchdog configuration.
type WatchdogConfig struct {
	// Interval is the watchdog tick interval.
	Interval time.Duration `env:"WATCHDOG_INTERVAL" envDefault:"10m"`

	// MaxRuntime is the maximum time a job may stay running before it is
	// presumed orphaned and failed.
	MaxRuntime time.Duration `env:"WATCHDOG_MAX_RUNTIME" envDefault:"30m"`

	// MaxQueueWait is the maximum time a job may stay queued before it is failed.
	MaxQueueWait time.Duration `env:"WATCHDOG_MAX_QUEUE_WAIT" envDefault:"24h"`

	// BatchSize is the maximum number of rows to process per sweep.
	BatchSize int `env:"WATCHDOG_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to watchdog configuration values.
func (w *WatchdogConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if w.Interval < time.Minute {
		w.Interval = time.Minute
	}
	if w.MaxRuntime < 5*time.Minute {
		w.MaxRuntime = 5 * time.Minute
	}
	if w.MaxQueueWait < 10*time.Minute {
		w.MaxQueueWait = 10 * time.Minute
	}
	if w.BatchSize < 1 {
		w.BatchSize = 1
	}
	if w.BatchSize > 10000 {
		w.BatchSize = 10000
	}
}

// RetentionConfig contains retention sweeper configuration.
type RetentionConfig struct {
	// Interval is the retention sweep interval.
	Interval time.Duration `env:"RETENTION_INTERVAL" envDefault:"1h"`

	// CompletedMaxAge is the maximum age for completed jobs before deletion.
	CompletedMaxAge time.Duration `env:"RETENTION_COMPLETED_MAX_AGE" envDefault:"168h"` // 7 days

	// FailedMaxAge is the maximum age for failed jobs before deletion.
	FailedMaxAge time.Duration `env:"RETENTION_FAILED_MAX_AGE" envDefault:"168h"` // 7 days

	// ResultsMaxAge is the maximum age for assessment_results rows before deletion.
	// These records keep test history after their corresponding jobs are removed.
	ResultsMaxAge time.Duration `env:"RETENTION_RESULTS_MAX_AGE" envDefault:"2160h"` // 90 days

	// BatchSize is the maximum number of rows to process per operation.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"RETENTION_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to retention configuration values.
func (r *RetentionConfig) Sanitize() {
	if r.Interval < time.Minute {
		r.Interval = time.Minute
	}
	if r.CompletedMaxAge < time.Hour {
		r.CompletedMaxAge = time.Hour
	}
	if r.FailedMaxAge < time.Hour {
		r.FailedMaxAge = time.Hour
	}
	if r.ResultsMaxAge < 24*time.Hour {
		r.ResultsMaxAge = 24 * time.Hour
	}

	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}

// QualityConfig contains stream quality monitor configuration.
type QualityConfig struct {
	// Interval is the quality sweep interval.
	Interval time.Duration `env:"QUALITY_INTERVAL" envDefault:"15m"`

	// WindowSize is the lookback window each sweep scores.
	WindowSize time.Duration `env:"QUALITY_WINDOW_SIZE" envDefault:"1h"`

	// Channels is the list of sensor channels to score each sweep.
	Channels []string `env:"QUALITY_CHANNELS" envDefault:"default"`

	// MinDriftSamples is the minimum number of events required before a clock
	// drift estimate is reported.
	MinDriftSamples int `env:"QUALITY_MIN_DRIFT_SAMPLES" envDefault:"10"`

	// Score thresholds separating status buckets. A score at or above a
	// threshold earns that status.
	ExcellentThreshold float64 `env:"QUALITY_EXCELLENT_THRESHOLD" envDefault:"0.95"`
	GoodThreshold      float64 `env:"QUALITY_GOOD_THRESHOLD"      envDefault:"0.85"`
	WarningThreshold   float64 `env:"QUALITY_WARNING_THRESHOLD"   envDefault:"0.60"`
}

// Sanitize applies guardrails to quality monitor configuration values.
func (q *QualityConfig) Sanitize() {
	if q.Interval < time.Minute {
		q.Interval = time.Minute
	}
	if q.WindowSize < 5*time.Minute {
		q.WindowSize = 5 * time.Minute
	}
	if q.MinDriftSamples < 2 {
		q.MinDriftSamples = 2
	}

	channels := q.Channels[:0]
	for _, ch := range q.Channels {
		if trimmed := strings.TrimSpace(ch); trimmed != "" {
			channels = append(channels, trimmed)
		}
	}
	q.Channels = channels

	// Thresholds must stay ordered and inside (0, 1]. A partial fix could
	// still leave them out of order, so reset the trio together.
	ordered := 0 < q.WarningThreshold &&
		q.WarningThreshold < q.GoodThreshold &&
		q.GoodThreshold < q.ExcellentThreshold &&
		q.ExcellentThreshold <= 1
	if !ordered {
		q.ExcellentThreshold = 0.95
		q.GoodThreshold = 0.85
		q.WarningThreshold = 0.60
	}
}
