// Package quality implements the data-quality scoring engine for the entropy
// event stream: sequence-gap detection, clock-drift estimation, and the
// composite score that folds the individual signals into one number.
package quality

import "sort"

// GapInterval is one contiguous run of missing sequence numbers, inclusive on
// both ends.
type GapInterval struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Len returns the number of missing sequence numbers in the interval.
func (g GapInterval) Len() int64 {
	return g.To - g.From + 1
}

// GapReport summarizes the missing sequence numbers inside an observed window.
// The expected range is [min, max] of the observed values; anything absent in
// between counts as missing. Used as the primary packet-loss signal.
type GapReport struct {
	MissingCount  int64         `json:"missing_count"`
	TotalExpected int64         `json:"total_expected"`
	Intervals     []GapInterval `json:"intervals"`
}

// MissingRatio returns MissingCount / TotalExpected, or 0 when nothing was
// observed.
func (r GapReport) MissingRatio() float64 {
	if r.TotalExpected == 0 {
		return 0
	}
	return float64(r.MissingCount) / float64(r.TotalExpected)
}

// DetectGaps scans the observed sequence numbers and reports every missing
// integer in the minimal-to-maximal observed range. The input does not need to
// be sorted or deduplicated.
func DetectGaps(observed []int64) GapReport {
	if len(observed) == 0 {
		return GapReport{}
	}

	seqs := append([]int64(nil), observed...)
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	report := GapReport{
		TotalExpected: seqs[len(seqs)-1] - seqs[0] + 1,
	}

	prev := seqs[0]
	for _, s := range seqs[1:] {
		if s == prev || s == prev+1 {
			prev = s
			continue
		}
		interval := GapInterval{From: prev + 1, To: s - 1}
		report.Intervals = append(report.Intervals, interval)
		report.MissingCount += interval.Len()
		prev = s
	}

	return report
}
