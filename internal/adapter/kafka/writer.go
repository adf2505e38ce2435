package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-hazard-outlook/internal/config"
	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces daily hazard summaries to a Kafka topic.
// It implements pipeline.SummaryLoader.
type Writer struct {
	writer         messageWriter
	minHazardHours int
	clock          clockwork.Clock
	logger         *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{
		writer:         w,
		minHazardHours: cfg.MinHazardHours,
		clock:          clockwork.NewRealClock(),
		logger:         logger,
	}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// LoadSummaries serializes and publishes daily summaries in a single
// WriteMessages call. Every message in one call shares a run ID.
func (w *Writer) LoadSummaries(ctx context.Context, summaries []domain.DailySummary) error {
	if len(summaries) == 0 {
		return nil
	}
	runID := uuid.NewString()
	processedAt := w.clock.Now().UTC()

	msgs := make([]kafkago.Message, len(summaries))
	for i := range summaries {
		msg, err := serializeToMessage(summaries[i], runID, w.minHazardHours, processedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write daily summaries: %w", err)
	}
	w.logger.Debug("wrote daily summaries to kafka", "run_id", runID, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DailySummary into a Kafka message keyed by date,
// so repeated runs for the same day land on the same partition.
func serializeToMessage(s domain.DailySummary, runID string, minHazardHours int, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize daily summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Date.Format(domain.DateLayout)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "min_hazard_hours", Value: []byte(strconv.Itoa(minHazardHours))},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
