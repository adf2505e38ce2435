package domain

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// HazardType names a single hazard predicate.
type HazardType string

const (
	HazardWind         HazardType = "wind"
	HazardHeat         HazardType = "heat"
	HazardCold         HazardType = "cold"
	HazardRain1h       HazardType = "rain_1h"
	HazardRain3h       HazardType = "rain_3h"
	HazardSnow1h       HazardType = "snow_1h"
	HazardSnow3h       HazardType = "snow_3h"
	HazardThunderstorm HazardType = "thunderstorm"
)

// HazardTypes lists every hazard in evaluation order.
var HazardTypes = []HazardType{
	HazardWind,
	HazardHeat,
	HazardCold,
	HazardRain1h,
	HazardRain3h,
	HazardSnow1h,
	HazardSnow3h,
	HazardThunderstorm,
}

// ParseHazardType validates a hazard name. The empty string is accepted and
// means "no specific hazard" (the combined flag).
func ParseHazardType(s string) (HazardType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "any" {
		return "", nil
	}
	for _, h := range HazardTypes {
		if string(h) == s {
			return h, nil
		}
	}
	return "", fmt.Errorf("unknown hazard type %q", s)
}

// Default thresholds applied when a Thresholds field is nil.
const (
	DefaultWindSpeed = 28.0
	DefaultTempHeat  = 80.0
	DefaultTempCold  = 32.0
	DefaultRain1h    = 0.25
	DefaultRain3h    = 1.0
	DefaultSnow1h    = 0.5
	DefaultSnow3h    = 1.5
)

// Thresholds is the typed hazard threshold configuration. A nil field means
// "not configured": the predicate still runs with its default threshold but
// is left out of the combined flag unless no field is configured at all.
type Thresholds struct {
	WindSpeed    *float64 `yaml:"wind_speed" json:"wind_speed,omitempty"`
	TempHeat     *float64 `yaml:"temp_heat" json:"temp_heat,omitempty"`
	TempCold     *float64 `yaml:"temp_cold" json:"temp_cold,omitempty"`
	Rain1h       *float64 `yaml:"rain_1h" json:"rain_1h,omitempty"`
	Rain3h       *float64 `yaml:"rain_3h" json:"rain_3h,omitempty"`
	Snow1h       *float64 `yaml:"snow_1h" json:"snow_1h,omitempty"`
	Snow3h       *float64 `yaml:"snow_3h" json:"snow_3h,omitempty"`
	Thunderstorm *bool    `yaml:"thunderstorm" json:"thunderstorm,omitempty"`
}

// configured reports whether the threshold for h was set explicitly.
func (t Thresholds) configured(h HazardType) bool {
	switch h {
	case HazardWind:
		return t.WindSpeed != nil
	case HazardHeat:
		return t.TempHeat != nil
	case HazardCold:
		return t.TempCold != nil
	case HazardRain1h:
		return t.Rain1h != nil
	case HazardRain3h:
		return t.Rain3h != nil
	case HazardSnow1h:
		return t.Snow1h != nil
	case HazardSnow3h:
		return t.Snow3h != nil
	case HazardThunderstorm:
		return t.Thunderstorm != nil
	}
	return false
}

func (t Thresholds) thunderstormEnabled() bool {
	return t.Thunderstorm == nil || *t.Thunderstorm
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// CombineMode selects how selected predicates fold into the combined flag.
type CombineMode int

const (
	// CombineAny sets the combined flag when any selected predicate holds.
	CombineAny CombineMode = iota
	// CombineAll sets the combined flag only when every selected predicate holds.
	CombineAll
)

// ParseCombineMode accepts "any" (or empty) and "all", case-insensitive.
func ParseCombineMode(s string) (CombineMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return CombineAny, nil
	case "all":
		return CombineAll, nil
	default:
		return CombineAny, fmt.Errorf("unknown combine mode %q", s)
	}
}

func (m CombineMode) String() string {
	if m == CombineAll {
		return "all"
	}
	return "any"
}

// Evaluator classifies hourly records against a fixed threshold configuration.
type Evaluator struct {
	thresholds Thresholds
	mode       CombineMode
	selected   []HazardType
	logger     *slog.Logger
}

// NewEvaluator resolves the selected predicate set once so that per-record
// evaluation does no configuration work.
func NewEvaluator(thresholds Thresholds, mode CombineMode, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
		mode:       mode,
		selected:   selectPredicates(thresholds),
		logger:     logger,
	}
}

// selectPredicates returns the hazards that feed the combined flag.
func selectPredicates(t Thresholds) []HazardType {
	var selected []HazardType
	for _, h := range HazardTypes {
		if h == HazardThunderstorm && !t.thunderstormEnabled() {
			continue
		}
		if t.configured(h) {
			selected = append(selected, h)
		}
	}
	if len(selected) > 0 {
		return selected
	}
	for _, h := range HazardTypes {
		if h == HazardThunderstorm && !t.thunderstormEnabled() {
			continue
		}
		selected = append(selected, h)
	}
	return selected
}

// Selected returns the hazards combined into HourlyFlags.Hazard.
func (e *Evaluator) Selected() []HazardType {
	return append([]HazardType(nil), e.selected...)
}

// Mode returns the combination mode.
func (e *Evaluator) Mode() CombineMode {
	return e.mode
}

// Evaluate classifies a single hourly record.
func (e *Evaluator) Evaluate(r HourlyRecord) HourlyFlags {
	t := e.thresholds
	flags := HourlyFlags{
		Time:    r.Time,
		Hazards: make(map[HazardType]bool, len(HazardTypes)),
	}

	apparent, hasApparent := r.apparentTemp()

	flags.Hazards[HazardWind] = atLeast(r.WindSpeed, orDefault(t.WindSpeed, DefaultWindSpeed))
	flags.Hazards[HazardHeat] = hasApparent && apparent >= orDefault(t.TempHeat, DefaultTempHeat)
	flags.Hazards[HazardCold] = hasApparent && apparent <= orDefault(t.TempCold, DefaultTempCold)
	flags.Hazards[HazardRain1h] = precipAtLeast(r.Rain1h, orDefault(t.Rain1h, DefaultRain1h))
	flags.Hazards[HazardRain3h] = precipAtLeast(r.Rain3h, orDefault(t.Rain3h, DefaultRain3h))
	flags.Hazards[HazardSnow1h] = precipAtLeast(r.Snow1h, orDefault(t.Snow1h, DefaultSnow1h))
	flags.Hazards[HazardSnow3h] = precipAtLeast(r.Snow3h, orDefault(t.Snow3h, DefaultSnow3h))
	flags.Hazards[HazardThunderstorm] = t.thunderstormEnabled() && r.Thunderstorm

	flags.Hazard = e.combine(flags.Hazards)
	return flags
}

func (e *Evaluator) combine(hazards map[HazardType]bool) bool {
	if e.mode == CombineAll {
		for _, h := range e.selected {
			if !hazards[h] {
				return false
			}
		}
		return len(e.selected) > 0
	}
	for _, h := range e.selected {
		if hazards[h] {
			return true
		}
	}
	return false
}

// FlagHourly evaluates every record, preserving input order.
func (e *Evaluator) FlagHourly(records []HourlyRecord) []HourlyFlags {
	out := make([]HourlyFlags, len(records))
	flagged := 0
	for i := range records {
		out[i] = e.Evaluate(records[i])
		if out[i].Hazard {
			flagged++
		}
	}
	e.logger.Info("flagged hourly hazards",
		"mode", e.mode.String(),
		"selected", e.selected,
		"hazardous_hours", flagged,
		"total_hours", len(records),
	)
	return out
}

// atLeast fails open on a missing or non-finite reading.
func atLeast(v *float64, threshold float64) bool {
	x, ok := reading(v)
	return ok && x >= threshold
}

// precipAtLeast treats a missing amount as zero precipitation.
func precipAtLeast(v *float64, threshold float64) bool {
	x, ok := reading(v)
	if !ok {
		x = 0
	}
	return x >= threshold
}

func reading(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}
