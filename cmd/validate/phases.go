package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/storm-hazard-outlook/internal/adapter/csv"
	"github.com/couchcryptid/storm-hazard-outlook/internal/config"
	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
	"github.com/couchcryptid/storm-hazard-outlook/internal/pipeline"
)

// maxListed caps the error lines kept per phase; the rest are only counted.
const maxListed = 20

// Plausible reading bounds in the export's imperial units.
const (
	minTempF   = -80.0
	maxTempF   = 140.0
	maxWindMPH = 200.0
	maxPrecipI = 20.0
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	count  int
}

func (p *phase) errorf(format string, args ...any) {
	p.count++
	if len(p.errors) < maxListed {
		p.errors = append(p.errors, fmt.Sprintf(format, args...))
	}
}

func (p *phase) passed() bool { return p.count == 0 }

type fileData struct {
	path    string
	records []domain.HourlyRecord
	skipped int
}

type dataset struct {
	files   []fileData
	all     []domain.HourlyRecord
	deduped []domain.HourlyRecord
	dupes   int
}

func (d *dataset) parsed() int { return len(d.all) }

func (d *dataset) skipped() int {
	n := 0
	for _, f := range d.files {
		n += f.skipped
	}
	return n
}

func (d *dataset) days() int {
	seen := make(map[string]struct{})
	for _, r := range d.deduped {
		seen[r.Time.Format(domain.DateLayout)] = struct{}{}
	}
	return len(seen)
}

func loadFiles(paths []string) (*dataset, error) {
	d := &dataset{}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		records, skipped, err := csv.Parse(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		d.files = append(d.files, fileData{path: path, records: records, skipped: skipped})
		d.all = append(d.all, records...)
	}
	d.deduped, d.dupes = csv.Deduplicate(d.all)
	return d, nil
}

func loadProfile(path string) (config.Profile, error) {
	if path == "" {
		return config.DefaultProfile(), nil
	}
	return config.LoadProfile(path)
}

// ── Phase 1: Row integrity ──

func validateRows(d *dataset) *phase {
	p := &phase{name: "Phase 1: Row Integrity"}
	for _, f := range d.files {
		if f.skipped > 0 {
			p.errorf("%s: %d rows with unparseable timestamps", f.path, f.skipped)
		}
		if len(f.records) == 0 {
			p.errorf("%s: no data rows", f.path)
			continue
		}
		noTemp, noWind := 0, 0
		for _, r := range f.records {
			if r.Temp == nil && r.FeelsLike == nil {
				noTemp++
			}
			if r.WindSpeed == nil {
				noWind++
			}
		}
		if noTemp == len(f.records) {
			p.errorf("%s: no temperature readings", f.path)
		}
		if noWind == len(f.records) {
			p.errorf("%s: no wind readings", f.path)
		}
	}
	return p
}

// ── Phase 2: Duplicate timestamps ──
// Identical duplicates are harmless; conflicting ones are merged by the
// pipeline but usually point at overlapping exports.

func validateDuplicates(d *dataset) *phase {
	p := &phase{name: "Phase 2: Duplicate Timestamps"}
	first := make(map[int64]domain.HourlyRecord, len(d.all))
	reported := make(map[int64]bool)
	for _, r := range d.all {
		key := r.Time.UnixNano()
		prev, ok := first[key]
		if !ok {
			first[key] = r
			continue
		}
		if !csv.Identical(prev, r) && !reported[key] {
			reported[key] = true
			p.errorf("%s: conflicting readings for the same hour", r.Time.Format("2006-01-02 15:04 -0700"))
		}
	}
	return p
}

// ── Phase 3: Coverage ──
// Interior days must have all 24 hours; the first and last day may be partial.

func validateCoverage(d *dataset) *phase {
	p := &phase{name: "Phase 3: Daily Coverage"}
	if len(d.deduped) == 0 {
		return p
	}

	var order []string
	hours := make(map[string]int)
	for _, r := range d.deduped {
		date := r.Time.Format(domain.DateLayout)
		if _, ok := hours[date]; !ok {
			order = append(order, date)
		}
		hours[date]++
	}
	for i, date := range order {
		if i == 0 || i == len(order)-1 {
			continue
		}
		if hours[date] != 24 {
			p.errorf("%s: %d of 24 hours present", date, hours[date])
		}
	}

	for i := 1; i < len(d.deduped); i++ {
		gap := d.deduped[i].Time.Sub(d.deduped[i-1].Time)
		if gap.Hours() > 24 {
			p.errorf("gap of %s after %s", gap, d.deduped[i-1].Time.Format("2006-01-02 15:04"))
		}
	}
	return p
}

// ── Phase 4: Value ranges ──

func validateRanges(d *dataset) *phase {
	p := &phase{name: "Phase 4: Value Ranges"}
	for _, r := range d.deduped {
		at := r.Time.Format("2006-01-02 15:04")
		checkRange(p, at, "temp", r.Temp, minTempF, maxTempF)
		checkRange(p, at, "feels_like", r.FeelsLike, minTempF, maxTempF)
		checkRange(p, at, "wind_speed", r.WindSpeed, 0, maxWindMPH)
		checkRange(p, at, "rain_1h", r.Rain1h, 0, maxPrecipI)
		checkRange(p, at, "rain_3h", r.Rain3h, 0, maxPrecipI)
		checkRange(p, at, "snow_1h", r.Snow1h, 0, maxPrecipI)
		checkRange(p, at, "snow_3h", r.Snow3h, 0, maxPrecipI)
	}
	return p
}

func checkRange(p *phase, at, field string, v *float64, lo, hi float64) {
	if v == nil {
		return
	}
	if *v < lo || *v > hi {
		p.errorf("%s: %s=%g outside [%g, %g]", at, field, *v, lo, hi)
	}
}

// ── Phase 5: Daily summaries ──
// Runs the hazard transform and checks the aggregate invariants.

func validateDaily(d *dataset, profile config.Profile, minHazardHours int) *phase {
	p := &phase{name: "Phase 5: Daily Summary Consistency"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	t := pipeline.NewTransformer(pipeline.TransformOptions{
		Thresholds:     profile.Thresholds,
		Mode:           profile.Mode,
		MinHazardHours: minHazardHours,
		WorkStart:      -1,
		WorkEnd:        -1,
	}, logger)
	flags, daily := t.Transform(d.deduped)

	if len(daily) != d.days() {
		p.errorf("expected %d daily summaries, got %d", d.days(), len(daily))
	}

	total := 0
	for i := range daily {
		s := daily[i]
		date := s.Date.Format(domain.DateLayout)
		total += s.TotalHours
		if s.HazardHours > s.TotalHours {
			p.errorf("%s: %d hazard hours exceed %d total hours", date, s.HazardHours, s.TotalHours)
		}
		if s.FourHourFlag && !s.AnyHourFlag {
			p.errorf("%s: four-hour flag set without any-hour flag", date)
		}
		if s.AnyHourFlag != (s.HazardHours > 0) {
			p.errorf("%s: any-hour flag disagrees with %d hazard hours", date, s.HazardHours)
		}
		for h, c := range s.HazardCounts {
			if c > s.TotalHours {
				p.errorf("%s: %s count %d exceeds %d total hours", date, h, c, s.TotalHours)
			}
		}
	}
	if total != len(flags) {
		p.errorf("daily totals cover %d hours, %d were flagged", total, len(flags))
	}
	return p
}
