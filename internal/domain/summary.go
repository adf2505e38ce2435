package domain

import (
	"log/slog"
	"math"
	"sort"
)

// WindowSummary reduces a window of probabilities to expected hazardous-day
// counts. Every statistic is scaled by the number of window days.
type WindowSummary struct {
	Days     int     `json:"days"`
	MeanAny  float64 `json:"mean_any"`
	MeanFour float64 `json:"mean_four"`
	P80Any   float64 `json:"80th_any"`
	P90Any   float64 `json:"90th_any"`
}

// Summarize computes expected-count and tail statistics over the non-NaN
// probabilities. A statistic with no usable input is NaN.
func Summarize(records []ProbabilityRecord, logger *slog.Logger) WindowSummary {
	days := len(records)
	anyVals := make([]float64, 0, days)
	fourVals := make([]float64, 0, days)
	for _, r := range records {
		if !math.IsNaN(r.PAny) {
			anyVals = append(anyVals, r.PAny)
		}
		if !math.IsNaN(r.PFour) {
			fourVals = append(fourVals, r.PFour)
		}
	}

	sort.Float64s(anyVals)
	scale := float64(days)
	s := WindowSummary{
		Days:     days,
		MeanAny:  mean(anyVals) * scale,
		MeanFour: mean(fourVals) * scale,
		P80Any:   interpolatePercentile(anyVals, 80) * scale,
		P90Any:   interpolatePercentile(anyVals, 90) * scale,
	}

	logger.Info("summarized window probabilities",
		"days", s.Days,
		"mean_any", s.MeanAny,
		"mean_four", s.MeanFour,
		"p80_any", s.P80Any,
		"p90_any", s.P90Any,
	)
	return s
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// interpolatePercentile returns the p-th percentile (0-100) of sorted values
// using linear interpolation between closest ranks.
func interpolatePercentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return math.NaN()
	}
	if len(sortedValues) == 1 {
		return sortedValues[0]
	}

	index := (p / 100.0) * float64(len(sortedValues)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sortedValues[lower]
	}

	weight := index - float64(lower)
	return sortedValues[lower]*(1-weight) + sortedValues[upper]*weight
}
