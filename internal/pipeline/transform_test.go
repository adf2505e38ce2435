package pipeline

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
)

func TestHazardTransformer_WorkingHours(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	heat := 80.0
	var records []domain.HourlyRecord
	for h := 0; h < 24; h++ {
		temp := 70.0
		if h < 6 || h >= 20 {
			temp = 95
		}
		records = append(records, domain.HourlyRecord{
			Time: time.Date(2024, 8, 1, h, 0, 0, 0, time.UTC),
			Temp: &temp,
		})
	}

	all := NewTransformer(TransformOptions{Thresholds: domain.Thresholds{TempHeat: &heat}, WorkStart: -1, WorkEnd: -1}, logger)
	flags, daily := all.Transform(records)
	assert.Len(t, flags, 24)
	require.Len(t, daily, 1)
	assert.Equal(t, 10, daily[0].HazardHours)
	assert.True(t, daily[0].FourHourFlag)

	work := NewTransformer(TransformOptions{Thresholds: domain.Thresholds{TempHeat: &heat}, WorkStart: 8, WorkEnd: 18}, logger)
	flags, daily = work.Transform(records)
	assert.Len(t, flags, 10)
	require.Len(t, daily, 1)
	assert.Equal(t, 10, daily[0].TotalHours)
	assert.False(t, daily[0].AnyHourFlag)
	assert.Equal(t, []domain.HazardType{domain.HazardHeat}, work.Selected())
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, nextBackoff(200*time.Millisecond, 5*time.Second))
	assert.Equal(t, 5*time.Second, nextBackoff(4*time.Second, 5*time.Second))
}
