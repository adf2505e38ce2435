package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazard_outlook"

// Metrics holds the Prometheus counters, histograms, and gauges for the hazard pipeline.
type Metrics struct {
	HoursFlagged    prometheus.Counter
	HazardousHours  prometheus.Counter
	DaysAggregated  prometheus.Counter
	PipelineRunning prometheus.Gauge
	PipelineRuns    *prometheus.CounterVec // labels: outcome={success,error}

	PipelineDuration prometheus.Histogram

	// Sink metrics.
	SummariesPublished *prometheus.CounterVec // labels: sink={kafka,postgres}
	PublishErrors      *prometheus.CounterVec // labels: sink={kafka,postgres}

	// Query metrics.
	ReportRequests *prometheus.CounterVec // labels: endpoint, hazard
	EmptyBuckets   prometheus.Counter
	ReportCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.HoursFlagged,
		m.HazardousHours,
		m.DaysAggregated,
		m.PipelineRunning,
		m.PipelineRuns,
		m.PipelineDuration,
		m.SummariesPublished,
		m.PublishErrors,
		m.ReportRequests,
		m.EmptyBuckets,
		m.ReportCache,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that are never exported, for
// one-shot commands that have no /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics(true)
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		HoursFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hours_flagged_total",
			Help:      help("Total hourly records evaluated against hazard thresholds."),
		}),
		HazardousHours: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazardous_hours_total",
			Help:      help("Total hourly records whose combined hazard flag was set."),
		}),
		DaysAggregated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_aggregated_total",
			Help:      help("Total daily summaries produced."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 while the pipeline is building the daily set, 0 otherwise."),
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      help("Pipeline runs by outcome."),
		}, []string{"outcome"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      help("Duration of a complete load-flag-aggregate-publish cycle."),
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SummariesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_published_total",
			Help:      help("Daily summaries written to each sink."),
		}, []string{"sink"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      help("Failed sink publish attempts."),
		}, []string{"sink"}),
		ReportRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_requests_total",
			Help:      help("Query requests by endpoint and hazard selector."),
		}, []string{"endpoint", "hazard"}),
		EmptyBuckets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_buckets_total",
			Help:      help("Window dates answered with no eligible history."),
		}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      help("Report cache lookups by result."),
		}, []string{"result"}),
	}
}
