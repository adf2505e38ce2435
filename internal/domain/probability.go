package domain

import (
	"log/slog"
	"math"
	"time"
)

// DefaultYearFloors holds the earliest reliable year per hazard type.
// Thunderstorm categories are only consistently recorded from 2004 onward.
var DefaultYearFloors = map[HazardType]int{
	HazardThunderstorm: 2004,
}

// EstimateOptions narrows the history used for a probability estimate.
type EstimateOptions struct {
	// Hazard selects a hazard-specific year floor. Empty means no floor.
	Hazard HazardType
	// Years bounds eligible years inclusively.
	Years YearRange
	// YearFloors maps hazard types to their earliest valid year.
	YearFloors map[HazardType]int
}

// eligibleYears folds the year bound and the hazard floor into one range.
func (o EstimateOptions) eligibleYears() YearRange {
	r := o.Years
	if o.Hazard == "" {
		return r
	}
	floor, ok := o.YearFloors[o.Hazard]
	if !ok || floor == 0 {
		return r
	}
	if r.Min == 0 || floor > r.Min {
		r.Min = floor
	}
	return r
}

// ProbabilityRecord is the empirical hazard probability for one window date.
type ProbabilityRecord struct {
	Date   time.Time `json:"date"`
	Month  int       `json:"month"`
	Day    int       `json:"day"`
	NYears int       `json:"n_years"`
	PAny   float64   `json:"p_any"`
	PFour  float64   `json:"p_four"`
}

// yearFlags records whether a year had any/four-hour hazard days in a bucket.
type yearFlags struct {
	any  bool
	four bool
}

// bucketIndex groups eligible daily summaries by (month, day) then year.
type bucketIndex map[monthDay]map[int][]*DailySummary

func buildIndex(daily []DailySummary, years YearRange) bucketIndex {
	idx := make(bucketIndex)
	for i := range daily {
		s := &daily[i]
		if !years.Contains(s.Year) {
			continue
		}
		key := monthDay{month: s.Month, day: s.Day}
		byYear, ok := idx[key]
		if !ok {
			byYear = make(map[int][]*DailySummary)
			idx[key] = byYear
		}
		byYear[s.Year] = append(byYear[s.Year], s)
	}
	return idx
}

// EstimateProbabilities computes, for every date in the window, the fraction
// of eligible years whose matching calendar day was flagged. One record is
// emitted per window date; buckets without history carry NaN probabilities.
func EstimateProbabilities(daily []DailySummary, w Window, opts EstimateOptions, logger *slog.Logger) []ProbabilityRecord {
	years := opts.eligibleYears()
	idx := buildIndex(daily, years)

	dates := w.Dates()
	out := make([]ProbabilityRecord, 0, len(dates))
	empty := 0
	for _, date := range dates {
		key := monthDayOf(date)
		rec := ProbabilityRecord{Date: date, Month: key.month, Day: key.day}

		flagsByYear := make(map[int]yearFlags, len(idx[key]))
		for year, summaries := range idx[key] {
			var f yearFlags
			for _, s := range summaries {
				f.any = f.any || s.AnyHourFlag
				f.four = f.four || s.FourHourFlag
			}
			flagsByYear[year] = f
		}

		rec.NYears = len(flagsByYear)
		if rec.NYears == 0 {
			rec.PAny, rec.PFour = math.NaN(), math.NaN()
			empty++
			out = append(out, rec)
			continue
		}
		var anyYears, fourYears int
		for _, f := range flagsByYear {
			if f.any {
				anyYears++
			}
			if f.four {
				fourYears++
			}
		}
		rec.PAny = float64(anyYears) / float64(rec.NYears)
		rec.PFour = float64(fourYears) / float64(rec.NYears)

		logger.Debug("calendar day probability",
			"month", rec.Month,
			"day", rec.Day,
			"n_years", rec.NYears,
			"p_any", rec.PAny,
			"p_four", rec.PFour,
		)
		out = append(out, rec)
	}

	logger.Info("computed hazard probabilities",
		"window_start", w.Start.Format(DateLayout),
		"window_end", w.End.Format(DateLayout),
		"hazard", string(opts.Hazard),
		"min_year", years.Min,
		"max_year", years.Max,
		"days", len(out),
		"days_without_history", empty,
	)
	return out
}
