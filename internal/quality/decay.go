package quality

import "time"

// Plausible mean inter-event intervals for the radioactive source, in
// milliseconds. A healthy detector produces events well inside this band;
// means outside it indicate a dead source, a saturated detector, or timestamp
// corruption rather than genuine physics.
const (
	DefaultMinDecayIntervalMs = 0.5
	DefaultMaxDecayIntervalMs = 5000.0
)

// DecayBounds is the plausibility band for the mean decay interval.
type DecayBounds struct {
	MinIntervalMs float64
	MaxIntervalMs float64
}

// DefaultDecayBounds returns the band used when none is configured.
func DefaultDecayBounds() DecayBounds {
	return DecayBounds{
		MinIntervalMs: DefaultMinDecayIntervalMs,
		MaxIntervalMs: DefaultMaxDecayIntervalMs,
	}
}

// DecayAnalysis reports the mean inter-event interval and whether it is
// plausible for the entropy source. Both fields are nil when fewer than two
// hardware timestamps were available.
type DecayAnalysis struct {
	AverageIntervalMs *float64
	Realistic         *bool
}

// AnalyzeDecay computes the mean interval between consecutive hardware
// timestamps and checks it against the plausibility band. Timestamps must be
// in stream order; non-positive deltas are skipped as clock artifacts.
func AnalyzeDecay(hwTimestampsNs []int64, bounds DecayBounds) DecayAnalysis {
	if len(hwTimestampsNs) < 2 {
		return DecayAnalysis{}
	}

	var sumNs float64
	var count int
	for i := 1; i < len(hwTimestampsNs); i++ {
		delta := hwTimestampsNs[i] - hwTimestampsNs[i-1]
		if delta <= 0 {
			continue
		}
		sumNs += float64(delta)
		count++
	}
	if count == 0 {
		return DecayAnalysis{}
	}

	avgMs := sumNs / float64(count) / float64(time.Millisecond)
	realistic := avgMs >= bounds.MinIntervalMs && avgMs <= bounds.MaxIntervalMs

	return DecayAnalysis{
		AverageIntervalMs: &avgMs,
		Realistic:         &realistic,
	}
}
