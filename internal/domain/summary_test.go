package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func probs(pAny ...float64) []ProbabilityRecord {
	out := make([]ProbabilityRecord, len(pAny))
	for i, p := range pAny {
		out[i] = ProbabilityRecord{NYears: 10, PAny: p, PFour: p / 2}
	}
	return out
}

func TestSummarize(t *testing.T) {
	s := Summarize(probs(0.2, 0.6, 0.9), discardLogger())

	assert.Equal(t, 3, s.Days)
	assert.InDelta(t, 1.7, s.MeanAny, 1e-9)
	assert.InDelta(t, 0.85, s.MeanFour, 1e-9)
	assert.InDelta(t, 2.34, s.P80Any, 1e-9)
	assert.InDelta(t, 2.52, s.P90Any, 1e-9)
}

func TestSummarize_SkipsNaN(t *testing.T) {
	records := probs(0.5, math.NaN(), 0.5, 0.5)
	s := Summarize(records, discardLogger())

	assert.Equal(t, 4, s.Days)
	assert.InDelta(t, 2.0, s.MeanAny, 1e-9)
	assert.InDelta(t, 2.0, s.P90Any, 1e-9)
}

func TestSummarize_AllNaN(t *testing.T) {
	s := Summarize(probs(math.NaN(), math.NaN()), discardLogger())

	assert.Equal(t, 2, s.Days)
	assert.True(t, math.IsNaN(s.MeanAny))
	assert.True(t, math.IsNaN(s.MeanFour))
	assert.True(t, math.IsNaN(s.P80Any))
	assert.True(t, math.IsNaN(s.P90Any))
}

func TestInterpolatePercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"single value", []float64{0.4}, 90, 0.4},
		{"exact rank", []float64{1, 2, 3, 4, 5}, 50, 3},
		{"interpolated", []float64{1, 2, 3, 4}, 80, 3.4},
		{"max", []float64{1, 2, 3}, 100, 3},
		{"min", []float64{1, 2, 3}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, interpolatePercentile(tt.values, tt.p), 1e-9)
		})
	}
	assert.True(t, math.IsNaN(interpolatePercentile(nil, 50)))
}
