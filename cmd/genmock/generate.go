package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
)

var columns = []string{
	"dt", "dt_iso", "timezone", "temp", "feels_like", "wind_speed",
	"rain_1h", "rain_3h", "snow_1h", "snow_3h",
	"weather_id", "weather_main", "weather_description",
}

type generatorConfig struct {
	StartYear int
	EndYear   int
	TZOffset  int
	Seed      uint64
}

// genStats counts generated hours that cross the default thresholds.
type genStats struct {
	Rows    int
	Windy   int
	Hot     int
	Cold    int
	Wet     int
	Thunder int
}

type generator struct {
	cfg generatorConfig
	rng *rand.Rand
	loc *time.Location
}

func newGenerator(cfg generatorConfig) (*generator, error) {
	if cfg.StartYear <= 0 || cfg.EndYear < cfg.StartYear {
		return nil, fmt.Errorf("invalid year range %d-%d", cfg.StartYear, cfg.EndYear)
	}
	if cfg.TZOffset < -14*3600 || cfg.TZOffset > 14*3600 {
		return nil, errors.New("tz-offset must be within +/-14h")
	}
	return &generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		loc: time.FixedZone("", cfg.TZOffset),
	}, nil
}

// write emits one row per local hour from Jan 1 of StartYear through Dec 31
// of EndYear, with a seasonal temperature cycle and random weather.
func (g *generator) write(w io.Writer) (genStats, error) {
	var stats genStats
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return stats, err
	}

	start := time.Date(g.cfg.StartYear, time.January, 1, 0, 0, 0, 0, g.loc)
	end := time.Date(g.cfg.EndYear+1, time.January, 1, 0, 0, 0, 0, g.loc)
	for t := start; t.Before(end); t = t.Add(time.Hour) {
		h := g.hour(t)
		if err := cw.Write(h.row(t, g.cfg.TZOffset)); err != nil {
			return stats, err
		}
		stats.count(h)
	}
	cw.Flush()
	return stats, cw.Error()
}

type synthHour struct {
	temp, feels, wind    float64
	rain1h, snow1h       float64
	weatherID            int
	weatherMain, weather string
}

func (g *generator) hour(t time.Time) synthHour {
	// Seasonal peak in late July, diurnal peak mid-afternoon.
	season := math.Cos(2 * math.Pi * float64(t.YearDay()-205) / 365.25)
	diurnal := math.Cos(2 * math.Pi * float64(t.Hour()-15) / 24)
	temp := 52 + 28*season + 9*diurnal + g.rng.NormFloat64()*5

	h := synthHour{
		temp:        round1(temp),
		wind:        round1(math.Max(0, 9+g.rng.NormFloat64()*6+4*(1-season))),
		weatherID:   800,
		weatherMain: "Clear",
		weather:     "sky is clear",
	}
	if g.rng.Float64() < 0.01 {
		h.wind = round1(h.wind + 20 + g.rng.Float64()*15)
	}

	switch p := g.rng.Float64(); {
	case p < 0.015 && season > 0.3:
		h.weatherID, h.weatherMain, h.weather = 211, "Thunderstorm", "thunderstorm"
		h.rain1h = round2(0.1 + g.rng.ExpFloat64()*0.3)
		h.wind = round1(h.wind + 10)
	case p < 0.08 && temp <= 34:
		h.weatherID, h.weatherMain, h.weather = 601, "Snow", "snow"
		h.snow1h = round2(g.rng.ExpFloat64() * 0.3)
	case p < 0.08:
		h.weatherID, h.weatherMain, h.weather = 500, "Rain", "light rain"
		h.rain1h = round2(g.rng.ExpFloat64() * 0.12)
	}

	// Wind chill in the cold season, heat index in the warm one.
	switch {
	case temp < 50:
		h.feels = round1(temp - h.wind*0.3)
	case temp > 80:
		h.feels = round1(temp + (temp-80)*0.4)
	default:
		h.feels = h.temp
	}
	return h
}

func (h synthHour) row(t time.Time, offset int) []string {
	row := []string{
		strconv.FormatInt(t.Unix(), 10),
		t.UTC().Format("2006-01-02 15:04:05 +0000 UTC"),
		strconv.Itoa(offset),
		formatFloat(h.temp),
		formatFloat(h.feels),
		formatFloat(h.wind),
		"", "", "", "",
		strconv.Itoa(h.weatherID),
		h.weatherMain,
		h.weather,
	}
	if h.rain1h > 0 {
		row[6] = formatFloat(h.rain1h)
	}
	if h.snow1h > 0 {
		row[8] = formatFloat(h.snow1h)
	}
	return row
}

func (s *genStats) count(h synthHour) {
	s.Rows++
	if h.wind >= domain.DefaultWindSpeed {
		s.Windy++
	}
	if h.feels >= domain.DefaultTempHeat {
		s.Hot++
	}
	if h.feels <= domain.DefaultTempCold {
		s.Cold++
	}
	if h.rain1h >= domain.DefaultRain1h || h.snow1h >= domain.DefaultSnow1h {
		s.Wet++
	}
	if h.weatherMain == "Thunderstorm" {
		s.Thunder++
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
