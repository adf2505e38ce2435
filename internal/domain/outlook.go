package domain

import (
	"log/slog"
	"math"
	"time"
)

// HourlyOutlook is the mean number of hazard hours expected on one window
// date, averaged across eligible years.
type HourlyOutlook struct {
	Date            time.Time              `json:"date"`
	NYears          int                    `json:"n_years"`
	MeanHours       map[HazardType]float64 `json:"mean_hours"`
	MeanHazardHours float64                `json:"mean_hazard_hours"`
}

// ForecastHazardHours averages per-type daily hazard hours for each window
// date's calendar-day bucket. Means are NaN when the bucket has no history.
func ForecastHazardHours(daily []DailySummary, w Window, years YearRange, logger *slog.Logger) []HourlyOutlook {
	idx := buildIndex(daily, years)

	dates := w.Dates()
	out := make([]HourlyOutlook, 0, len(dates))
	for _, date := range dates {
		byYear := idx[monthDayOf(date)]
		o := HourlyOutlook{
			Date:      date,
			NYears:    len(byYear),
			MeanHours: make(map[HazardType]float64, len(HazardTypes)),
		}

		var n int
		sums := make(map[HazardType]float64, len(HazardTypes))
		var hazardSum float64
		for _, summaries := range byYear {
			for _, s := range summaries {
				n++
				hazardSum += float64(s.HazardHours)
				for h, c := range s.HazardCounts {
					sums[h] += float64(c)
				}
			}
		}

		for _, h := range HazardTypes {
			if n == 0 {
				o.MeanHours[h] = math.NaN()
				continue
			}
			o.MeanHours[h] = sums[h] / float64(n)
		}
		if n == 0 {
			o.MeanHazardHours = math.NaN()
		} else {
			o.MeanHazardHours = hazardSum / float64(n)
		}
		out = append(out, o)
	}

	logger.Info("computed hazard hour outlook",
		"window_start", w.Start.Format(DateLayout),
		"window_end", w.End.Format(DateLayout),
		"days", len(out),
	)
	return out
}
