package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })

	daily := []DailySummary{
		day(2018, 4, 10, true, true),
		day(2019, 4, 10, false, false),
		day(2019, 4, 11, true, false),
	}
	w := mustWindow(t, "2026-04-10", "2026-04-12")

	r := BuildReport(daily, w, EstimateOptions{Years: YearRange{Min: 2010}}, discardLogger())

	assert.Equal(t, frozen, r.GeneratedAt)
	assert.True(t, strings.HasPrefix(r.ID, "report-"))
	assert.Len(t, r.Probabilities, 3)
	assert.Equal(t, 3, r.Summary.Days)
	assert.True(t, math.IsNaN(r.Probabilities[2].PAny))
	assert.InDelta(t, (0.5+1.0)/2*3, r.Summary.MeanAny, 1e-9)

	again := BuildReport(daily, w, EstimateOptions{Years: YearRange{Min: 2010}}, discardLogger())
	assert.Equal(t, r.ID, again.ID)

	other := BuildReport(daily, w, EstimateOptions{Hazard: HazardThunderstorm, YearFloors: DefaultYearFloors}, discardLogger())
	assert.NotEqual(t, r.ID, other.ID)
	assert.True(t, strings.HasPrefix(other.ID, "thunderstorm-"))
}

func TestSetClock_NilResets(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Unix(0, 0)))
	SetClock(nil)
	assert.WithinDuration(t, time.Now(), clock.Now(), time.Minute)
}

func TestReportJSON_NaNAsNull(t *testing.T) {
	w := mustWindow(t, "2026-01-01", "2026-01-02")
	r := Report{
		ID:     "report-abc",
		Window: w,
		Probabilities: []ProbabilityRecord{
			{Date: w.Start, Month: 1, Day: 1, NYears: 0, PAny: math.NaN(), PFour: math.NaN()},
			{Date: w.End, Month: 1, Day: 2, NYears: 4, PAny: 0.75, PFour: 0.25},
		},
		Summary: WindowSummary{Days: 2, MeanAny: 1.5, MeanFour: 0.5, P80Any: math.NaN(), P90Any: 0.75},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	window := raw["window"].(map[string]any)
	assert.Equal(t, "2026-01-01", window["start"])

	records := raw["probabilities"].([]any)
	first := records[0].(map[string]any)
	assert.Nil(t, first["p_any"])
	assert.Contains(t, first, "p_four")
	assert.Equal(t, "2026-01-01", first["date"])

	summary := raw["summary"].(map[string]any)
	assert.Nil(t, summary["80th_any"])
	assert.Equal(t, 0.75, summary["90th_any"])

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, math.IsNaN(decoded.Probabilities[0].PAny))
	assert.Equal(t, 0.75, decoded.Probabilities[1].PAny)
	assert.True(t, math.IsNaN(decoded.Summary.P80Any))
	assert.Equal(t, w, decoded.Window)
}
