package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
	"github.com/couchcryptid/storm-hazard-outlook/internal/observability"
	"github.com/couchcryptid/storm-hazard-outlook/internal/pipeline"
)

// --- mocks ---

type mockSource struct {
	records  []domain.HourlyRecord
	failures int
	calls    atomic.Int64
}

func (m *mockSource) LoadHourly(_ context.Context) ([]domain.HourlyRecord, error) {
	n := int(m.calls.Add(1))
	if n <= m.failures {
		return nil, errors.New("source unavailable")
	}
	return m.records, nil
}

type mockLoader struct {
	name     string
	err      error
	calls    int
	received []domain.DailySummary
}

func (m *mockLoader) Name() string { return m.name }

func (m *mockLoader) LoadSummaries(_ context.Context, summaries []domain.DailySummary) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.received = append(m.received, summaries...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func ptr(v float64) *float64 { return &v }

// windHistory produces three years of 2024-style July 15/16 observations.
// July 15 is windy for four hours in 2021 and one hour in 2022; July 16 is calm.
func windHistory() []domain.HourlyRecord {
	var out []domain.HourlyRecord
	windy := map[int]int{2021: 4, 2022: 1, 2023: 0}
	for year, hours := range windy {
		for _, d := range []int{15, 16} {
			for h := 0; h < 24; h++ {
				speed := 5.0
				if d == 15 && h >= 12 && h < 12+hours {
					speed = 35
				}
				out = append(out, domain.HourlyRecord{
					Time:      time.Date(year, 7, d, h, 0, 0, 0, time.UTC),
					WindSpeed: ptr(speed),
				})
			}
		}
	}
	return out
}

func newPipeline(src pipeline.HourlySource, loaders []pipeline.SummaryLoader, metrics *observability.Metrics) *pipeline.Pipeline {
	tfm := pipeline.NewTransformer(pipeline.TransformOptions{
		Thresholds:     domain.Thresholds{WindSpeed: ptr(28)},
		MinHazardHours: 4,
		WorkStart:      -1,
		WorkEnd:        -1,
	}, discardLogger())
	return pipeline.New(src, tfm, loaders, discardLogger(), metrics, pipeline.Options{
		InitialBackoff: time.Millisecond,
		MaxAttempts:    3,
	})
}

func mustWindow(t *testing.T, start, end string) domain.Window {
	t.Helper()
	w, err := domain.ParseWindow(start, end)
	require.NoError(t, err)
	return w
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	src := &mockSource{records: windHistory()}
	kafka := &mockLoader{name: "kafka"}
	pg := &mockLoader{name: "postgres"}
	metrics := newTestMetrics()
	p := newPipeline(src, []pipeline.SummaryLoader{kafka, pg}, metrics)

	require.Error(t, p.CheckReadiness(context.Background()))

	err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, p.Ready())
	require.NoError(t, p.CheckReadiness(context.Background()))

	assert.Len(t, kafka.received, 6)
	if diff := cmp.Diff(kafka.received, pg.received); diff != "" {
		t.Errorf("sinks received different summaries (-kafka +postgres):\n%s", diff)
	}
	assert.InDelta(t, 144, testutil.ToFloat64(metrics.HoursFlagged), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(metrics.HazardousHours), 0)
	assert.InDelta(t, 6, testutil.ToFloat64(metrics.DaysAggregated), 0)
	assert.InDelta(t, 6, testutil.ToFloat64(metrics.SummariesPublished.WithLabelValues("kafka")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PipelineRuns.WithLabelValues("success")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_RetriesSource(t *testing.T) {
	src := &mockSource{records: windHistory(), failures: 2}
	p := newPipeline(src, nil, newTestMetrics())

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, int64(3), src.calls.Load())
	assert.True(t, p.Ready())
}

func TestPipeline_Run_SourceExhausted(t *testing.T) {
	src := &mockSource{failures: 10}
	metrics := newTestMetrics()
	p := newPipeline(src, nil, metrics)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load hourly records")
	assert.Equal(t, int64(3), src.calls.Load())
	assert.False(t, p.Ready())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PipelineRuns.WithLabelValues("error")), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	src := &mockSource{failures: 10}
	p := newPipeline(src, nil, newTestMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.False(t, p.Ready())
}

func TestPipeline_Run_SinkFailureKeepsReadiness(t *testing.T) {
	src := &mockSource{records: windHistory()}
	bad := &mockLoader{name: "postgres", err: errors.New("connection refused")}
	good := &mockLoader{name: "kafka"}
	metrics := newTestMetrics()
	p := newPipeline(src, []pipeline.SummaryLoader{bad, good}, metrics)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish to postgres")
	assert.Equal(t, 3, bad.calls)
	assert.Len(t, good.received, 6)
	assert.True(t, p.Ready())
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.PublishErrors.WithLabelValues("postgres")), 0)
}

func TestPipeline_QueriesBeforeReady(t *testing.T) {
	p := newPipeline(&mockSource{}, nil, newTestMetrics())
	w := mustWindow(t, "2025-07-15", "2025-07-16")

	_, err := p.Report(w, "", domain.YearRange{})
	assert.ErrorIs(t, err, pipeline.ErrNotReady)
	_, err = p.Outlook(w, domain.YearRange{})
	assert.ErrorIs(t, err, pipeline.ErrNotReady)
	_, err = p.Daily(0)
	assert.ErrorIs(t, err, pipeline.ErrNotReady)
}

func TestPipeline_Report(t *testing.T) {
	frozen := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { domain.SetClock(nil) })

	metrics := newTestMetrics()
	p := newPipeline(&mockSource{records: windHistory()}, nil, metrics)
	require.NoError(t, p.Run(context.Background()))

	r, err := p.Report(mustWindow(t, "2025-07-15", "2025-07-17"), "", domain.YearRange{})
	require.NoError(t, err)

	require.Len(t, r.Probabilities, 3)
	july15 := r.Probabilities[0]
	assert.Equal(t, 3, july15.NYears)
	assert.InDelta(t, 2.0/3.0, july15.PAny, 1e-9)
	assert.InDelta(t, 1.0/3.0, july15.PFour, 1e-9)
	assert.Equal(t, 0.0, r.Probabilities[1].PAny)
	assert.True(t, math.IsNaN(r.Probabilities[2].PAny))
	assert.Equal(t, frozen, r.GeneratedAt)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EmptyBuckets), 0)

	t.Run("query years narrow the history", func(t *testing.T) {
		r, err := p.Report(mustWindow(t, "2025-07-15", "2025-07-15"), "", domain.YearRange{Min: 2022})
		require.NoError(t, err)
		assert.Equal(t, 2, r.Probabilities[0].NYears)
		assert.InDelta(t, 0.5, r.Probabilities[0].PAny, 1e-9)
	})
}

func TestPipeline_DefaultYearsMerge(t *testing.T) {
	tfm := pipeline.NewTransformer(pipeline.TransformOptions{
		Thresholds: domain.Thresholds{WindSpeed: ptr(28)},
		WorkStart:  -1,
		WorkEnd:    -1,
	}, discardLogger())
	p := pipeline.New(&mockSource{records: windHistory()}, tfm, nil, discardLogger(), newTestMetrics(), pipeline.Options{
		Years: domain.YearRange{Min: 2021, Max: 2022},
	})
	require.NoError(t, p.Run(context.Background()))

	r, err := p.Report(mustWindow(t, "2025-07-15", "2025-07-15"), "", domain.YearRange{Max: 2023})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Probabilities[0].NYears)
	assert.Equal(t, domain.YearRange{Min: 2021, Max: 2023}, r.Years)
}

func TestPipeline_DailyAndOutlook(t *testing.T) {
	p := newPipeline(&mockSource{records: windHistory()}, nil, newTestMetrics())
	require.NoError(t, p.Run(context.Background()))

	all, err := p.Daily(0)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	y2021, err := p.Daily(2021)
	require.NoError(t, err)
	require.Len(t, y2021, 2)
	assert.True(t, y2021[0].FourHourFlag)

	out, err := p.Outlook(mustWindow(t, "2025-07-15", "2025-07-15"), domain.YearRange{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 5.0/3.0, out[0].MeanHazardHours, 1e-9)
	assert.InDelta(t, 5.0/3.0, out[0].MeanHours[domain.HazardWind], 1e-9)
}
