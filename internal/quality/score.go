package quality

import "github.com/quantumgrade/entropyval/internal/domain/model"

// Penalty factors and trigger levels for the composite score. The score starts
// at 1.0 and each fired penalty multiplies it down, so independent problems
// compound instead of averaging each other out.
const (
	driftMinorUsPerHour = 10.0
	driftMajorUsPerHour = 50.0
	delayLimitMs        = 100.0

	penaltyDriftMinor = 0.95
	penaltyDriftMajor = 0.85
	penaltyDecayRate  = 0.90
	penaltyDelay      = 0.95
)

// Thresholds map a composite score to a discrete status, checked in descending
// order. Boundaries are policy, not contract; tune them via configuration.
type Thresholds struct {
	Excellent float64
	Good      float64
	Warning   float64
}

// DefaultThresholds returns the boundaries used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Excellent: 0.95,
		Good:      0.85,
		Warning:   0.60,
	}
}

// Status maps a score to its discrete bucket.
func (t Thresholds) Status(score float64) model.QualityStatus {
	switch {
	case score >= t.Excellent:
		return model.QualityExcellent
	case score >= t.Good:
		return model.QualityGood
	case score >= t.Warning:
		return model.QualityWarning
	default:
		return model.QualityCritical
	}
}

// Input holds the per-window signals fed into the composite score. Pointer
// fields are nil when the underlying metric could not be measured; unknown
// signals never fire a penalty.
type Input struct {
	// TotalEvents is the number of events observed in the window.
	TotalEvents int

	// MissingSequenceCount is the gap detector's missing count.
	// Nil when sequence numbers were unavailable.
	MissingSequenceCount *int64

	// DriftUsPerHour is the clock-drift estimate. Nil when the estimator had
	// too few samples.
	DriftUsPerHour *float64

	// DecayRateRealistic reports whether inter-event timing is plausible for
	// the entropy source. Nil means the check was inconclusive.
	DecayRateRealistic *bool

	// AverageNetworkDelayMs is the mean gateway-to-server delay. Nil when no
	// delay samples were available.
	AverageNetworkDelayMs *float64
}

// Output is the result of the composite score calculation.
type Output struct {
	// Score is the composite quality score in [0, 1].
	Score float64

	// Status is the discrete bucket derived from Score.
	Status model.QualityStatus

	// Recommendations lists one remediation hint per fired penalty, in the
	// order the penalties were applied.
	Recommendations []string
}

// Score computes the composite quality score from the given inputs.
//
// Penalties, applied in order:
//  1. packet loss:    ×(1 − missing/total), skipped when total is 0 or missing unknown
//  2. clock drift:    |drift| > 10 µs/h ⇒ ×0.95, and additionally |drift| > 50 µs/h ⇒ ×0.85
//  3. decay rate:     implausible inter-event timing ⇒ ×0.90
//  4. network delay:  mean delay > 100 ms ⇒ ×0.95
//
// The final score is clamped to [0, 1].
func Score(in Input, thresholds Thresholds) Output {
	score := 1.0
	var recs []string

	if in.TotalEvents > 0 && in.MissingSequenceCount != nil && *in.MissingSequenceCount > 0 {
		score *= 1 - float64(*in.MissingSequenceCount)/float64(in.TotalEvents)
		recs = append(recs, "sequence gaps detected; inspect gateway transport for packet loss")
	}

	if in.DriftUsPerHour != nil {
		drift := abs(*in.DriftUsPerHour)
		if drift > driftMinorUsPerHour {
			score *= penaltyDriftMinor
			recs = append(recs, "clock drift exceeds tolerance; check sensor clock synchronization")
		}
		if drift > driftMajorUsPerHour {
			score *= penaltyDriftMajor
			recs = append(recs, "severe clock drift; recalibrate the hardware oscillator")
		}
	}

	if in.DecayRateRealistic != nil && !*in.DecayRateRealistic {
		score *= penaltyDecayRate
		recs = append(recs, "decay interval outside plausible range; verify source activity and detector bias")
	}

	if in.AverageNetworkDelayMs != nil && *in.AverageNetworkDelayMs > delayLimitMs {
		score *= penaltyDelay
		recs = append(recs, "high network delay; review gateway link stability")
	}

	score = clamp01(score)

	return Output{
		Score:           score,
		Status:          thresholds.Status(score),
		Recommendations: recs,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
