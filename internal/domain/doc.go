// Package domain models hourly weather observations and the historical hazard
// climatology derived from them.
//
// # Data Source
//
// Hourly observations come from a multi-decade station archive (one row per
// hour, timestamps unique after ingestion). The ingestion collaborator parses
// the archive CSV, derives the thunderstorm indicator and hands the core an
// ordered []HourlyRecord. Nothing in this package performs I/O.
//
// # Stages
//
// Data flows strictly forward:
//
//	[]HourlyRecord -> Evaluator -> []HourlyFlags
//	[]HourlyFlags  -> AggregateDaily -> []DailySummary
//	[]DailySummary -> EstimateProbabilities -> []ProbabilityRecord
//	[]ProbabilityRecord -> Summarize -> WindowSummary
//
// Each stage is a pure function of its inputs. Stages accept a *slog.Logger for
// diagnostics and never keep state between calls.
//
// # Hazard Predicates
//
// Default thresholds (imperial units, as delivered by the archive):
//
//	wind:          wind_speed >= 28 mph
//	heat:          feels_like (fallback temp) >= 80 °F
//	cold:          feels_like (fallback temp) <= 32 °F
//	rain_1h:       rain_1h >= 0.25 in   (missing -> 0)
//	rain_3h:       rain_3h >= 1.0 in    (missing -> 0)
//	snow_1h:       snow_1h >= 0.5 in    (missing -> 0)
//	snow_3h:       snow_3h >= 1.5 in    (missing -> 0)
//	thunderstorm:  external indicator, when enabled
//
// A missing numeric input fails its predicate (false). Thresholds are not range
// checked.
//
// # Predicate Selection
//
// Every per-type flag is always evaluated (absent thresholds use the defaults
// above) so per-type hour counts are complete. Only the combined flag is
// restricted: it combines the predicates whose threshold is explicitly set in
// Thresholds. When no field is set, all predicates take part. An explicitly
// disabled thunderstorm predicate never takes part.
//
// # Calendar-Day Buckets
//
// Probabilities are computed per (month, day) across all eligible years. A
// bucket with no eligible history reports NaN probabilities with NYears = 0,
// which is distinct from a bucket whose hazard was never observed (0.0).
// February 29 only collects leap years.
package domain
