package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar date format accepted by ParseWindow.
const DateLayout = "2006-01-02"

// Window is an inclusive range of calendar dates. Only month and day matter
// for bucket lookup; the year is nominal.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow normalizes both ends to calendar dates.
func NewWindow(start, end time.Time) (Window, error) {
	s, e := calendarDate(start), calendarDate(end)
	if e.Before(s) {
		return Window{}, fmt.Errorf("window end %s is before start %s", e.Format(DateLayout), s.Format(DateLayout))
	}
	return Window{Start: s, End: e}, nil
}

// ParseWindow parses YYYY-MM-DD start and end dates.
func ParseWindow(start, end string) (Window, error) {
	if start == "" || end == "" {
		return Window{}, errors.New("window start and end are required")
	}
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Window{}, fmt.Errorf("parse window start: %w", err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Window{}, fmt.Errorf("parse window end: %w", err)
	}
	return NewWindow(s, e)
}

// Dates enumerates every date in the window, in order.
func (w Window) Dates() []time.Time {
	var dates []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Days returns the number of dates in the window.
func (w Window) Days() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// YearRange is an inclusive year bound. Zero on either side means unbounded.
type YearRange struct {
	Min int `json:"min_year,omitempty"`
	Max int `json:"max_year,omitempty"`
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	if r.Min != 0 && year < r.Min {
		return false
	}
	if r.Max != 0 && year > r.Max {
		return false
	}
	return true
}

// monthDay is a calendar-day bucket key.
type monthDay struct {
	month int
	day   int
}

func monthDayOf(t time.Time) monthDay {
	return monthDay{month: int(t.Month()), day: t.Day()}
}
