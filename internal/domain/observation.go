package domain

import (
	"log/slog"
	"strings"
	"time"
)

// HourlyRecord is one hourly station observation. Nil readings are missing.
type HourlyRecord struct {
	Time         time.Time `json:"time"`
	Temp         *float64  `json:"temp,omitempty"`
	FeelsLike    *float64  `json:"feels_like,omitempty"`
	WindSpeed    *float64  `json:"wind_speed,omitempty"`
	Rain1h       *float64  `json:"rain_1h,omitempty"`
	Rain3h       *float64  `json:"rain_3h,omitempty"`
	Snow1h       *float64  `json:"snow_1h,omitempty"`
	Snow3h       *float64  `json:"snow_3h,omitempty"`
	Thunderstorm bool      `json:"thunderstorm"`
}

// apparentTemp prefers feels-like and falls back to air temperature.
func (r HourlyRecord) apparentTemp() (float64, bool) {
	if v, ok := reading(r.FeelsLike); ok {
		return v, true
	}
	return reading(r.Temp)
}

// HourlyFlags is the hazard classification of one hour.
type HourlyFlags struct {
	Time    time.Time           `json:"time"`
	Hazards map[HazardType]bool `json:"hazards"`
	Hazard  bool                `json:"hazard"`
}

// Thunderstorm weather condition codes occupy 200-299.
const (
	thunderstormCodeMin = 200
	thunderstormCodeMax = 299
)

// IsThunderstorm derives the thunderstorm indicator from the weather category
// text or numeric condition code.
func IsThunderstorm(main, description string, code int) bool {
	if code >= thunderstormCodeMin && code <= thunderstormCodeMax {
		return true
	}
	return containsFold(main, "thunderstorm") || containsFold(description, "thunderstorm")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

// FilterWorkingHours keeps records whose local hour h satisfies start <= h < end.
// Bounds outside 0..24 or start >= end disable the filter.
func FilterWorkingHours(records []HourlyRecord, start, end int, logger *slog.Logger) []HourlyRecord {
	if start < 0 || end > 24 || start >= end {
		return records
	}
	out := make([]HourlyRecord, 0, len(records))
	for _, r := range records {
		if h := r.Time.Hour(); h >= start && h < end {
			out = append(out, r)
		}
	}
	logger.Info("filtered to working hours",
		"start_hour", start,
		"end_hour", end,
		"kept", len(out),
		"dropped", len(records)-len(out),
	)
	return out
}
