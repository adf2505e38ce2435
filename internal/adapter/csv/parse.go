package csv

import (
	enccsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
)

// Column names follow the hourly history bulk export layout.
const (
	colTimeISO     = "dt_iso"
	colTimeUnix    = "dt"
	colTimezone    = "timezone"
	colTemp        = "temp"
	colFeelsLike   = "feels_like"
	colWindSpeed   = "wind_speed"
	colRain1h      = "rain_1h"
	colRain3h      = "rain_3h"
	colSnow1h      = "snow_1h"
	colSnow3h      = "snow_3h"
	colWeatherID   = "weather_id"
	colWeatherMain = "weather_main"
	colWeatherDesc = "weather_description"
	colThunder     = "is_thunderstorm"
)

var timeLayouts = []string{
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// header maps lower-cased column names to their index.
type header map[string]int

func (h header) get(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Parse reads an hourly CSV. Rows with an unparseable timestamp are skipped
// and counted; unparseable numeric cells are treated as missing readings.
// When a timezone offset column (seconds east of UTC) is present, each
// timestamp is moved into that offset so calendar dates are station-local.
func Parse(r io.Reader) ([]domain.HourlyRecord, int, error) {
	cr := enccsv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(first))
	for i, name := range first {
		h[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	_, hasISO := h[colTimeISO]
	_, hasUnix := h[colTimeUnix]
	if !hasISO && !hasUnix {
		return nil, 0, fmt.Errorf("missing %s or %s column", colTimeISO, colTimeUnix)
	}

	var records []domain.HourlyRecord
	skipped := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		ts, ok := parseTimestamp(h, row)
		if !ok {
			skipped++
			continue
		}
		records = append(records, domain.HourlyRecord{
			Time:         ts,
			Temp:         parseReading(h.get(row, colTemp)),
			FeelsLike:    parseReading(h.get(row, colFeelsLike)),
			WindSpeed:    parseReading(h.get(row, colWindSpeed)),
			Rain1h:       parseReading(h.get(row, colRain1h)),
			Rain3h:       parseReading(h.get(row, colRain3h)),
			Snow1h:       parseReading(h.get(row, colSnow1h)),
			Snow3h:       parseReading(h.get(row, colSnow3h)),
			Thunderstorm: thunderstorm(h, row),
		})
	}
	return records, skipped, nil
}

func parseTimestamp(h header, row []string) (time.Time, bool) {
	var ts time.Time
	var ok bool
	if v := h.get(row, colTimeISO); v != "" {
		ts, ok = parseTime(v)
	}
	if !ok {
		if v := h.get(row, colTimeUnix); v != "" {
			if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
				ts, ok = time.Unix(sec, 0).UTC(), true
			}
		}
	}
	if !ok {
		return time.Time{}, false
	}
	if v := h.get(row, colTimezone); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			ts = ts.In(time.FixedZone("", offset))
		}
	}
	return ts, true
}

func parseTime(v string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseReading(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func thunderstorm(h header, row []string) bool {
	if v := h.get(row, colThunder); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			return true
		}
	}
	code, _ := strconv.Atoi(h.get(row, colWeatherID))
	return domain.IsThunderstorm(h.get(row, colWeatherMain), h.get(row, colWeatherDesc), code)
}
