package quality

import (
	"math"
	"time"
)

// DefaultMinDriftSamples is the minimum number of paired samples required
// before a drift estimate is reported at all.
const DefaultMinDriftSamples = 10

// DriftSample pairs one hardware clock reading with the reception timestamp of
// the same event.
type DriftSample struct {
	HardwareNs int64
	ReceivedAt time.Time
}

// EstimateDriftUsPerHour fits a least-squares line to the offset between the
// two clocks and returns the drift rate of the hardware clock relative to the
// reception clock, in microseconds per hour. Positive values mean the hardware
// clock runs fast.
//
// Returns nil (not zero) when fewer than minSamples pairs are available or the
// fit is degenerate, so callers can distinguish "no drift" from "unknown".
func EstimateDriftUsPerHour(samples []DriftSample, minSamples int) *float64 {
	if minSamples < 2 {
		minSamples = 2
	}
	if len(samples) < minSamples {
		return nil
	}

	// Offsets are tiny compared to absolute nanosecond timestamps, so work
	// relative to the first sample to keep the arithmetic well conditioned.
	baseHw := samples[0].HardwareNs
	baseRx := samples[0].ReceivedAt

	var sumX, sumY, sumXX, sumXY float64
	for _, s := range samples {
		x := float64(s.HardwareNs-baseHw) / float64(time.Hour) // hours of hardware time
		offsetNs := float64(s.HardwareNs-baseHw) - float64(s.ReceivedAt.Sub(baseRx))
		y := offsetNs / float64(time.Microsecond) // µs the hardware clock is ahead
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	n := float64(len(samples))
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}

	slope := (n*sumXY - sumX*sumY) / denom
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return nil
	}
	return &slope
}
