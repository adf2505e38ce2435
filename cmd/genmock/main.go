// Command genmock writes a synthetic hourly observation CSV in the bulk
// export layout read by the hazard pipeline. Output is deterministic for a
// given seed so fixtures can be regenerated and diffed.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/hourly.csv \
//	  -start-year 2015 -end-year 2024 \
//	  -tz-offset -18000 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the hourly CSV")
	startYear := flag.Int("start-year", 2015, "first year generated")
	endYear := flag.Int("end-year", 2024, "last year generated (inclusive)")
	tzOffset := flag.Int("tz-offset", 0, "station offset from UTC in seconds")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	gen, err := newGenerator(generatorConfig{
		StartYear: *startYear,
		EndYear:   *endYear,
		TZOffset:  *tzOffset,
		Seed:      *seed,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	stats, err := gen.write(f)
	if err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %s: %d hours, %d windy, %d hot, %d cold, %d wet, %d thunderstorm",
		*out, stats.Rows, stats.Windy, stats.Hot, stats.Cold, stats.Wet, stats.Thunder)
	return f.Close()
}
