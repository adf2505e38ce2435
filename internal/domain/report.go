package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// Report bundles the probability records and window summary for one query.
type Report struct {
	ID            string              `json:"id"`
	Window        Window              `json:"window"`
	Hazard        HazardType          `json:"hazard,omitempty"`
	Years         YearRange           `json:"years"`
	Probabilities []ProbabilityRecord `json:"probabilities"`
	Summary       WindowSummary       `json:"summary"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// BuildReport runs the estimator and reporter for one window.
func BuildReport(daily []DailySummary, w Window, opts EstimateOptions, logger *slog.Logger) Report {
	probs := EstimateProbabilities(daily, w, opts, logger)
	return Report{
		ID:            generateID(w, opts.Hazard, opts.Years),
		Window:        w,
		Hazard:        opts.Hazard,
		Years:         opts.Years,
		Probabilities: probs,
		Summary:       Summarize(probs, logger),
		GeneratedAt:   clock.Now(),
	}
}

// generateID derives a deterministic report ID from the query parameters, so
// identical queries against the same history are recognizable downstream.
func generateID(w Window, hazard HazardType, years YearRange) string {
	input := fmt.Sprintf("%s|%s|%s|%d|%d",
		w.Start.Format(DateLayout), w.End.Format(DateLayout), hazard, years.Min, years.Max)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if hazard == "" {
		return "report-" + short
	}
	return string(hazard) + "-" + short
}
