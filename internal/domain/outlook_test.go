package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastHazardHours(t *testing.T) {
	a := day(2015, 9, 1, true, true)
	a.HazardCounts = map[HazardType]int{HazardWind: 4, HazardRain1h: 1}
	b := day(2016, 9, 1, true, false)
	b.HazardCounts = map[HazardType]int{HazardWind: 2}
	old := day(1990, 9, 1, true, true)
	old.HazardCounts = map[HazardType]int{HazardWind: 20}

	w := mustWindow(t, "2025-09-01", "2025-09-02")
	got := ForecastHazardHours([]DailySummary{a, b, old}, w, YearRange{Min: 2000}, discardLogger())
	require.Len(t, got, 2)

	assert.Equal(t, 2, got[0].NYears)
	assert.InDelta(t, 3.0, got[0].MeanHours[HazardWind], 1e-9)
	assert.InDelta(t, 0.5, got[0].MeanHours[HazardRain1h], 1e-9)
	assert.InDelta(t, 0.0, got[0].MeanHours[HazardSnow3h], 1e-9)
	assert.InDelta(t, 2.5, got[0].MeanHazardHours, 1e-9)

	assert.Equal(t, 0, got[1].NYears)
	assert.True(t, math.IsNaN(got[1].MeanHazardHours))
	assert.True(t, math.IsNaN(got[1].MeanHours[HazardWind]))

	data, err := json.Marshal(got[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mean_hazard_hours":null`)
}
