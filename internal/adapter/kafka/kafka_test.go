package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-hazard-outlook/internal/config"
	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func summary(year, month, day, hours int) domain.DailySummary {
	return domain.DailySummary{
		Date:         time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
		Year:         year,
		Month:        month,
		Day:          day,
		HazardCounts: map[domain.HazardType]int{domain.HazardWind: hours},
		HazardHours:  hours,
		TotalHours:   24,
		AnyHourFlag:  hours > 0,
		FourHourFlag: hours >= 4,
	}
}

func newTestWriter(fw *fakeWriter, now time.Time) *Writer {
	return &Writer{
		writer:         fw,
		minHazardHours: 4,
		clock:          clockwork.NewFakeClockAt(now),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	msg, err := serializeToMessage(summary(2024, 4, 25, 5), "run-1", 4, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("2024-04-25"), msg.Key)
	assert.Contains(t, string(msg.Value), `"four_hour_flag":true`)
	assert.Contains(t, string(msg.Value), `"hazard_counts":{"wind":5}`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, "min_hazard_hours", msg.Headers[1].Key)
	assert.Equal(t, []byte("4"), msg.Headers[1].Value)
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded domain.DailySummary
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 5, decoded.HazardHours)
}

func TestWriter_LoadSummaries(t *testing.T) {
	fw := &fakeWriter{}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	w := newTestWriter(fw, now)

	err := w.LoadSummaries(context.Background(), []domain.DailySummary{summary(2020, 1, 1, 0), summary(2020, 1, 2, 6)})
	require.NoError(t, err)
	require.Len(t, fw.msgs, 2)

	runID := string(fw.msgs[0].Headers[0].Value)
	_, err = uuid.Parse(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, string(fw.msgs[1].Headers[0].Value), "one run id per call")
	assert.Equal(t, []byte("2020-01-02"), fw.msgs[1].Key)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_LoadSummaries_Empty(t *testing.T) {
	fw := &fakeWriter{err: errors.New("should not be called")}
	w := newTestWriter(fw, time.Now())
	require.NoError(t, w.LoadSummaries(context.Background(), nil))
}

func TestWriter_LoadSummaries_Error(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	w := newTestWriter(fw, time.Now())

	err := w.LoadSummaries(context.Background(), []domain.DailySummary{summary(2020, 1, 1, 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write daily summaries")
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(&config.Config{
		KafkaBrokers:   []string{"localhost:9092"},
		KafkaSinkTopic: "daily-hazard-summaries",
		MinHazardHours: 3,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, "kafka", w.Name())
	assert.Equal(t, 3, w.minHazardHours)
	kw, ok := w.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "daily-hazard-summaries", kw.Topic)
	require.NoError(t, w.Close())
}
