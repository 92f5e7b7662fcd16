package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantumgrade/entropyval/internal/domain/model"
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool          { return &v }

func TestScore(t *testing.T) {
	t.Parallel()

	t.Run("clean window scores a perfect one", func(t *testing.T) {
		t.Parallel()

		out := Score(Input{
			TotalEvents:           1000,
			MissingSequenceCount:  int64Ptr(0),
			DriftUsPerHour:        float64Ptr(2.5),
			DecayRateRealistic:    boolPtr(true),
			AverageNetworkDelayMs: float64Ptr(12.0),
		}, DefaultThresholds())

		assert.InDelta(t, 1.0, out.Score, 1e-12)
		assert.Equal(t, model.QualityExcellent, out.Status)
		assert.Empty(t, out.Recommendations)
	})

	t.Run("unknown signals fire no penalty", func(t *testing.T) {
		t.Parallel()

		out := Score(Input{TotalEvents: 0}, DefaultThresholds())

		assert.InDelta(t, 1.0, out.Score, 1e-12)
		assert.Equal(t, model.QualityExcellent, out.Status)
		assert.Empty(t, out.Recommendations)
	})

	t.Run("independent problems compound multiplicatively", func(t *testing.T) {
		t.Parallel()

		out := Score(Input{
			TotalEvents:           100,
			MissingSequenceCount:  int64Ptr(5),
			DriftUsPerHour:        float64Ptr(-60.0),
			DecayRateRealistic:    boolPtr(false),
			AverageNetworkDelayMs: float64Ptr(150.0),
		}, DefaultThresholds())

		// loss ×0.95, minor drift ×0.95, major drift ×0.85, decay ×0.90, delay ×0.95
		want := 0.95 * 0.95 * 0.85 * 0.90 * 0.95
		assert.InDelta(t, want, out.Score, 1e-12)
		assert.Equal(t, model.QualityWarning, out.Status)
		assert.Len(t, out.Recommendations, 5)
	})

	t.Run("minor drift fires one penalty, major drift fires both", func(t *testing.T) {
		t.Parallel()

		minor := Score(Input{DriftUsPerHour: float64Ptr(25.0)}, DefaultThresholds())
		assert.InDelta(t, 0.95, minor.Score, 1e-12)
		assert.Len(t, minor.Recommendations, 1)

		major := Score(Input{DriftUsPerHour: float64Ptr(80.0)}, DefaultThresholds())
		assert.InDelta(t, 0.95*0.85, major.Score, 1e-12)
		assert.Len(t, major.Recommendations, 2)
	})

	t.Run("drift penalties use the magnitude, not the sign", func(t *testing.T) {
		t.Parallel()

		out := Score(Input{DriftUsPerHour: float64Ptr(-25.0)}, DefaultThresholds())

		assert.InDelta(t, 0.95, out.Score, 1e-12)
	})

	t.Run("total loss drives the score to zero", func(t *testing.T) {
		t.Parallel()

		out := Score(Input{
			TotalEvents:          10,
			MissingSequenceCount: int64Ptr(10),
		}, DefaultThresholds())

		assert.InDelta(t, 0.0, out.Score, 1e-12)
		assert.Equal(t, model.QualityCritical, out.Status)
	})

	t.Run("delay at the limit fires no penalty", func(t *testing.T) {
		t.Parallel()

		out := Score(Input{AverageNetworkDelayMs: float64Ptr(100.0)}, DefaultThresholds())

		assert.InDelta(t, 1.0, out.Score, 1e-12)
	})
}

func TestThresholdsStatus(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()

	tests := []struct {
		score float64
		want  model.QualityStatus
	}{
		{1.0, model.QualityExcellent},
		{0.95, model.QualityExcellent},
		{0.94, model.QualityGood},
		{0.85, model.QualityGood},
		{0.84, model.QualityWarning},
		{0.60, model.QualityWarning},
		{0.59, model.QualityCritical},
		{0.0, model.QualityCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Status(tt.score), "score %v", tt.score)
	}
}
