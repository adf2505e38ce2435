package csv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
)

// maxConcurrentFiles bounds how many files are parsed at once.
const maxConcurrentFiles = 4

// Source reads hourly observations from one or more CSV files.
// It implements pipeline.HourlySource.
type Source struct {
	paths  []string
	logger *slog.Logger
}

// NewSource creates a CSV source over the given file paths.
func NewSource(paths []string, logger *slog.Logger) *Source {
	return &Source{paths: paths, logger: logger}
}

// LoadHourly parses every file concurrently, then merges the rows, resolves
// duplicate timestamps, and returns records in chronological order.
func (s *Source) LoadHourly(ctx context.Context) ([]domain.HourlyRecord, error) {
	results := make([][]domain.HourlyRecord, len(s.paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)
	for i, path := range s.paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := s.loadFile(path)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.HourlyRecord
	for _, r := range results {
		all = append(all, r...)
	}

	merged, dupes := Deduplicate(all)
	s.logger.Info("loaded hourly records",
		"files", len(s.paths),
		"rows", len(all),
		"records", len(merged),
		"duplicate_timestamps", dupes,
	)
	return merged, nil
}

func (s *Source) loadFile(path string) ([]domain.HourlyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hourly csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, skipped, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped unparseable rows", "path", path, "rows", skipped)
	}
	s.logger.Debug("parsed hourly csv", "path", path, "records", len(records))
	return records, nil
}

// Deduplicate collapses records sharing a timestamp. Identical duplicates
// keep the first row; differing duplicates take the maximum of each numeric
// reading and OR the thunderstorm indicator. The result is sorted by time.
// The second return value counts timestamps that had more than one row.
func Deduplicate(records []domain.HourlyRecord) ([]domain.HourlyRecord, int) {
	index := make(map[int64]int, len(records))
	out := make([]domain.HourlyRecord, 0, len(records))
	dupes := make(map[int64]struct{})

	for _, r := range records {
		key := r.Time.UnixNano()
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, r)
			continue
		}
		dupes[key] = struct{}{}
		if Identical(out[i], r) {
			continue
		}
		out[i] = mergeMax(out[i], r)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, len(dupes)
}

// Identical reports whether two records carry the same readings.
func Identical(a, b domain.HourlyRecord) bool {
	return sameReading(a.Temp, b.Temp) &&
		sameReading(a.FeelsLike, b.FeelsLike) &&
		sameReading(a.WindSpeed, b.WindSpeed) &&
		sameReading(a.Rain1h, b.Rain1h) &&
		sameReading(a.Rain3h, b.Rain3h) &&
		sameReading(a.Snow1h, b.Snow1h) &&
		sameReading(a.Snow3h, b.Snow3h) &&
		a.Thunderstorm == b.Thunderstorm
}

func sameReading(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func mergeMax(a, b domain.HourlyRecord) domain.HourlyRecord {
	return domain.HourlyRecord{
		Time:         a.Time,
		Temp:         maxReading(a.Temp, b.Temp),
		FeelsLike:    maxReading(a.FeelsLike, b.FeelsLike),
		WindSpeed:    maxReading(a.WindSpeed, b.WindSpeed),
		Rain1h:       maxReading(a.Rain1h, b.Rain1h),
		Rain3h:       maxReading(a.Rain3h, b.Rain3h),
		Snow1h:       maxReading(a.Snow1h, b.Snow1h),
		Snow3h:       maxReading(a.Snow3h, b.Snow3h),
		Thunderstorm: a.Thunderstorm || b.Thunderstorm,
	}
}

// maxReading ignores a missing side.
func maxReading(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}
