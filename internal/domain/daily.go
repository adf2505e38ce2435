package domain

import (
	"log/slog"
	"sort"
	"time"
)

// DefaultMinHazardHours is the hazardous-hour count that sets FourHourFlag.
const DefaultMinHazardHours = 4

// DailySummary collapses one calendar day of hourly flags.
type DailySummary struct {
	Date         time.Time          `json:"date" db:"date"`
	Year         int                `json:"year" db:"year"`
	Month        int                `json:"month" db:"month"`
	Day          int                `json:"day" db:"day"`
	HazardCounts map[HazardType]int `json:"hazard_counts" db:"-"`
	HazardHours  int                `json:"hazard_hours" db:"hazard_hours"`
	TotalHours   int                `json:"total_hours" db:"total_hours"`
	AnyHourFlag  bool               `json:"any_hour_flag" db:"any_hour_flag"`
	FourHourFlag bool               `json:"four_hour_flag" db:"four_hour_flag"`
}

// calendarDate truncates t to midnight of its own local calendar day and
// re-anchors it in UTC so dates from different zones compare by value.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AggregateDaily groups hourly flags by local calendar date. minHazardHours
// below 1 falls back to DefaultMinHazardHours. Output is sorted by date and
// contains only dates that have at least one hourly record.
func AggregateDaily(flags []HourlyFlags, minHazardHours int, logger *slog.Logger) []DailySummary {
	if minHazardHours < 1 {
		minHazardHours = DefaultMinHazardHours
	}

	byDate := make(map[time.Time]*DailySummary)
	for i := range flags {
		date := calendarDate(flags[i].Time)
		s, ok := byDate[date]
		if !ok {
			s = &DailySummary{
				Date:         date,
				Year:         date.Year(),
				Month:        int(date.Month()),
				Day:          date.Day(),
				HazardCounts: make(map[HazardType]int, len(HazardTypes)),
			}
			for _, h := range HazardTypes {
				s.HazardCounts[h] = 0
			}
			byDate[date] = s
		}
		s.TotalHours++
		for h, on := range flags[i].Hazards {
			if on {
				s.HazardCounts[h]++
			}
		}
		if flags[i].Hazard {
			s.HazardHours++
		}
	}

	out := make([]DailySummary, 0, len(byDate))
	flaggedDays := 0
	for _, s := range byDate {
		s.AnyHourFlag = s.HazardHours > 0
		s.FourHourFlag = s.HazardHours >= minHazardHours
		if s.AnyHourFlag {
			flaggedDays++
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	logger.Info("aggregated daily hazard flags",
		"days", len(out),
		"days_with_hazard", flaggedDays,
		"min_hazard_hours", minHazardHours,
	)
	return out
}
