package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
	"github.com/couchcryptid/storm-hazard-outlook/internal/observability"
)

// ErrNotReady is returned by queries issued before the daily set is built.
var ErrNotReady = errors.New("daily hazard set has not been built yet")

// HourlySource loads the complete hourly observation history.
type HourlySource interface {
	LoadHourly(ctx context.Context) ([]domain.HourlyRecord, error)
}

// Transformer converts hourly records into daily summaries.
type Transformer interface {
	Transform(records []domain.HourlyRecord) ([]domain.HourlyFlags, []domain.DailySummary)
}

// SummaryLoader writes daily summaries to a destination.
type SummaryLoader interface {
	Name() string
	LoadSummaries(ctx context.Context, summaries []domain.DailySummary) error
}

// Options tunes retry and estimation behaviour.
type Options struct {
	// Years is the default eligible-year bound applied to queries.
	Years domain.YearRange
	// YearFloors maps hazard types to their earliest valid year.
	YearFloors map[domain.HazardType]int
	// MaxAttempts bounds retries of the source and of each sink. Zero means 5.
	MaxAttempts int
	// InitialBackoff is the first retry delay. Zero means 200ms.
	InitialBackoff time.Duration
}

// Pipeline builds the daily hazard set once and answers probability queries
// against it.
type Pipeline struct {
	source      HourlySource
	transformer Transformer
	loaders     []SummaryLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options

	mu    sync.RWMutex
	daily []domain.DailySummary
	ready atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(s HourlySource, t Transformer, loaders []SummaryLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 200 * time.Millisecond
	}
	if opts.YearFloors == nil {
		opts.YearFloors = domain.DefaultYearFloors
	}
	return &Pipeline{
		source:      s,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
	}
}

// CheckReadiness returns nil once the daily set has been built,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return ErrNotReady
	}
	return nil
}

// Ready reports whether queries can be answered.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run loads the hourly history, builds the daily set, and publishes it to
// every loader. Cancellation before the set is built returns nil. Sink
// failures do not affect readiness and are returned joined.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "sinks", len(p.loaders))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	start := time.Now()

	var records []domain.HourlyRecord
	err := p.retry(ctx, "load hourly records", func() error {
		var err error
		records, err = p.source.LoadHourly(ctx)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
		p.metrics.PipelineRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("load hourly records: %w", err)
	}

	flags, daily := p.transformer.Transform(records)
	p.recordFlags(flags, daily)
	p.SetDaily(daily)

	var errs []error
	for _, l := range p.loaders {
		if err := p.publish(ctx, l, daily); err != nil {
			if ctx.Err() != nil {
				break
			}
			errs = append(errs, err)
		}
	}

	p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	if len(errs) > 0 {
		p.metrics.PipelineRuns.WithLabelValues("error").Inc()
		return errors.Join(errs...)
	}
	p.metrics.PipelineRuns.WithLabelValues("success").Inc()
	p.logger.Info("pipeline finished", "days", len(daily), "duration", time.Since(start))
	return nil
}

// SetDaily replaces the daily set and marks the pipeline ready.
func (p *Pipeline) SetDaily(daily []domain.DailySummary) {
	p.mu.Lock()
	p.daily = daily
	p.mu.Unlock()
	p.ready.Store(true)
}

func (p *Pipeline) recordFlags(flags []domain.HourlyFlags, daily []domain.DailySummary) {
	hazardous := 0
	for i := range flags {
		if flags[i].Hazard {
			hazardous++
		}
	}
	p.metrics.HoursFlagged.Add(float64(len(flags)))
	p.metrics.HazardousHours.Add(float64(hazardous))
	p.metrics.DaysAggregated.Add(float64(len(daily)))
}

func (p *Pipeline) publish(ctx context.Context, l SummaryLoader, daily []domain.DailySummary) error {
	err := p.retry(ctx, "publish to "+l.Name(), func() error {
		err := l.LoadSummaries(ctx, daily)
		if err != nil {
			p.metrics.PublishErrors.WithLabelValues(l.Name()).Inc()
		}
		return err
	})
	if err != nil {
		p.logger.Error("publish daily summaries failed", "sink", l.Name(), "error", err)
		return fmt.Errorf("publish to %s: %w", l.Name(), err)
	}
	p.metrics.SummariesPublished.WithLabelValues(l.Name()).Add(float64(len(daily)))
	p.logger.Info("published daily summaries", "sink", l.Name(), "count", len(daily))
	return nil
}

// retry runs fn with exponential backoff (doubling, capped at 5s) until it
// succeeds, attempts run out, or ctx is cancelled.
func (p *Pipeline) retry(ctx context.Context, op string, fn func() error) error {
	const maxBackoff = 5 * time.Second
	backoff := p.opts.InitialBackoff

	var err error
	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("operation failed", "op", op, "attempt", attempt, "error", err)
		if attempt == p.opts.MaxAttempts {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return err
}

func (p *Pipeline) snapshot() ([]domain.DailySummary, error) {
	if !p.ready.Load() {
		return nil, ErrNotReady
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.daily, nil
}

// years merges a query bound over the configured default, side by side.
func (p *Pipeline) years(q domain.YearRange) domain.YearRange {
	r := p.opts.Years
	if q.Min != 0 {
		r.Min = q.Min
	}
	if q.Max != 0 {
		r.Max = q.Max
	}
	return r
}

// Daily returns the daily summaries, restricted to one year when year is non-zero.
func (p *Pipeline) Daily(year int) ([]domain.DailySummary, error) {
	daily, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailySummary, 0, len(daily))
	for i := range daily {
		if year == 0 || daily[i].Year == year {
			out = append(out, daily[i])
		}
	}
	return out, nil
}

// Report estimates per-date probabilities over the window and summarizes them.
func (p *Pipeline) Report(w domain.Window, hazard domain.HazardType, years domain.YearRange) (domain.Report, error) {
	daily, err := p.snapshot()
	if err != nil {
		return domain.Report{}, err
	}
	r := domain.BuildReport(daily, w, domain.EstimateOptions{
		Hazard:     hazard,
		Years:      p.years(years),
		YearFloors: p.opts.YearFloors,
	}, p.logger)

	for _, rec := range r.Probabilities {
		if math.IsNaN(rec.PAny) {
			p.metrics.EmptyBuckets.Inc()
		}
	}
	return r, nil
}

// Outlook forecasts mean hazard hours for each window date.
func (p *Pipeline) Outlook(w domain.Window, years domain.YearRange) ([]domain.HourlyOutlook, error) {
	daily, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	return domain.ForecastHazardHours(daily, w, p.years(years), p.logger), nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
