package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
)

// HazardTransformer turns hourly observations into daily hazard summaries:
// optional working-hours filter, hourly flagging, then daily aggregation.
type HazardTransformer struct {
	evaluator      *domain.Evaluator
	minHazardHours int
	workStart      int
	workEnd        int
	logger         *slog.Logger
}

// TransformOptions configures a HazardTransformer.
type TransformOptions struct {
	Thresholds     domain.Thresholds
	Mode           domain.CombineMode
	MinHazardHours int
	// WorkStart and WorkEnd bound the local hours kept before flagging.
	// Negative values disable the filter.
	WorkStart int
	WorkEnd   int
}

// NewTransformer creates a HazardTransformer.
func NewTransformer(opts TransformOptions, logger *slog.Logger) *HazardTransformer {
	return &HazardTransformer{
		evaluator:      domain.NewEvaluator(opts.Thresholds, opts.Mode, logger),
		minHazardHours: opts.MinHazardHours,
		workStart:      opts.WorkStart,
		workEnd:        opts.WorkEnd,
		logger:         logger,
	}
}

// Transform runs the filter, evaluator, and aggregator over one batch of
// hourly records. The flags are returned alongside the summaries for metrics.
func (t *HazardTransformer) Transform(records []domain.HourlyRecord) ([]domain.HourlyFlags, []domain.DailySummary) {
	if t.workStart >= 0 && t.workEnd >= 0 {
		records = domain.FilterWorkingHours(records, t.workStart, t.workEnd, t.logger)
	}
	flags := t.evaluator.FlagHourly(records)
	return flags, domain.AggregateDaily(flags, t.minHazardHours, t.logger)
}

// Selected returns the hazards feeding the combined flag.
func (t *HazardTransformer) Selected() []domain.HazardType {
	return t.evaluator.Selected()
}
