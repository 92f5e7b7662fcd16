package model

import (
	"errors"
	"time"
)

// ErrReportNotFound is returned when no quality report exists for a channel.
var ErrReportNotFound = errors.New("quality report not found")

// QualityStatus is the discrete health bucket derived from a composite score.
type QualityStatus string

const (
	// QualityExcellent indicates a near-perfect stream.
	QualityExcellent QualityStatus = "excellent"
	// QualityGood indicates minor degradation that needs no action.
	QualityGood QualityStatus = "good"
	// QualityWarning indicates degradation that should be investigated.
	QualityWarning QualityStatus = "warning"
	// QualityCritical indicates the stream should not be trusted.
	QualityCritical QualityStatus = "critical"
)

// Valid returns true if the QualityStatus is valid.
func (s QualityStatus) Valid() bool {
	return s == QualityExcellent || s == QualityGood || s == QualityWarning ||
		s == QualityCritical
}

// QualityReport is an immutable snapshot of stream quality for one window and
// channel. A new report supersedes an old one for overlapping windows; reports
// are never updated in place.
//
// Sub-metrics that could not be measured are nil, never zero, so callers can
// distinguish "measured zero" from "unknown".
type QualityReport struct {
	ID                     string        `json:"id"                                  db:"id"`
	Channel                string        `json:"channel"                             db:"channel"`
	WindowStart            time.Time     `json:"window_start"                        db:"window_start"`
	WindowEnd              time.Time     `json:"window_end"                          db:"window_end"`
	TotalEvents            int           `json:"total_events"                        db:"total_events"`
	MissingSequenceCount   int           `json:"missing_sequence_count"              db:"missing_sequence_count"`
	ClockDriftUsPerHour    *float64      `json:"clock_drift_us_per_hour,omitempty"   db:"clock_drift_us_per_hour"`
	AverageNetworkDelayMs  *float64      `json:"average_network_delay_ms,omitempty"  db:"average_network_delay_ms"`
	AverageDecayIntervalMs *float64      `json:"average_decay_interval_ms,omitempty" db:"average_decay_interval_ms"`
	DecayRateRealistic     *bool         `json:"decay_rate_realistic,omitempty"      db:"decay_rate_realistic"`
	OverallQualityScore    float64       `json:"overall_quality_score"               db:"overall_quality_score"`
	Status                 QualityStatus `json:"status"                              db:"status"`
	Recommendations        []string      `json:"recommendations"                     db:"recommendations"`
	CreatedAt              time.Time     `json:"created_at"                          db:"created_at"`
}
