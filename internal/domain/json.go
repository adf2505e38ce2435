package domain

import (
	"encoding/json"
	"math"
	"time"
)

// NaN has no JSON representation; it is written as null and read back as NaN.

func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func fromNullable(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}

type probabilityRecordJSON struct {
	Date   string   `json:"date"`
	Month  int      `json:"month"`
	Day    int      `json:"day"`
	NYears int      `json:"n_years"`
	PAny   *float64 `json:"p_any"`
	PFour  *float64 `json:"p_four"`
}

func (r ProbabilityRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(probabilityRecordJSON{
		Date:   r.Date.Format(DateLayout),
		Month:  r.Month,
		Day:    r.Day,
		NYears: r.NYears,
		PAny:   nullable(r.PAny),
		PFour:  nullable(r.PFour),
	})
}

func (r *ProbabilityRecord) UnmarshalJSON(data []byte) error {
	var w probabilityRecordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Date != "" {
		d, err := time.Parse(DateLayout, w.Date)
		if err != nil {
			return err
		}
		r.Date = d
	}
	r.Month, r.Day, r.NYears = w.Month, w.Day, w.NYears
	r.PAny, r.PFour = fromNullable(w.PAny), fromNullable(w.PFour)
	return nil
}

type windowSummaryJSON struct {
	Days     int      `json:"days"`
	MeanAny  *float64 `json:"mean_any"`
	MeanFour *float64 `json:"mean_four"`
	P80Any   *float64 `json:"80th_any"`
	P90Any   *float64 `json:"90th_any"`
}

func (s WindowSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(windowSummaryJSON{
		Days:     s.Days,
		MeanAny:  nullable(s.MeanAny),
		MeanFour: nullable(s.MeanFour),
		P80Any:   nullable(s.P80Any),
		P90Any:   nullable(s.P90Any),
	})
}

func (s *WindowSummary) UnmarshalJSON(data []byte) error {
	var w windowSummaryJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Days = w.Days
	s.MeanAny, s.MeanFour = fromNullable(w.MeanAny), fromNullable(w.MeanFour)
	s.P80Any, s.P90Any = fromNullable(w.P80Any), fromNullable(w.P90Any)
	return nil
}

type hourlyOutlookJSON struct {
	Date            string                  `json:"date"`
	NYears          int                     `json:"n_years"`
	MeanHours       map[HazardType]*float64 `json:"mean_hours"`
	MeanHazardHours *float64                `json:"mean_hazard_hours"`
}

func (o HourlyOutlook) MarshalJSON() ([]byte, error) {
	hours := make(map[HazardType]*float64, len(o.MeanHours))
	for h, v := range o.MeanHours {
		hours[h] = nullable(v)
	}
	return json.Marshal(hourlyOutlookJSON{
		Date:            o.Date.Format(DateLayout),
		NYears:          o.NYears,
		MeanHours:       hours,
		MeanHazardHours: nullable(o.MeanHazardHours),
	})
}

type windowJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(windowJSON{Start: w.Start.Format(DateLayout), End: w.End.Format(DateLayout)})
}

func (w *Window) UnmarshalJSON(data []byte) error {
	var raw windowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseWindow(raw.Start, raw.End)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
