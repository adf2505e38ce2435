// Command validate runs data-quality checks over hourly observation CSVs
// before they feed the hazard pipeline: parse failures, duplicate
// timestamps, per-day coverage, physically implausible readings, and the
// consistency of the daily summaries the pipeline derives from them.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -hourly data/hourly_2015_2019.csv,data/hourly_2020_2024.csv \
//	  -profile configs/hazards.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

func main() {
	hourly := flag.String("hourly", "", "comma-separated hourly CSV files")
	profile := flag.String("profile", "", "optional YAML hazard profile")
	minHazardHours := flag.Int("min-hazard-hours", 4, "hazardous hours that set the four-hour flag")
	flag.Parse()

	if *hourly == "" {
		flag.Usage()
		os.Exit(1)
	}

	paths := strings.Split(*hourly, ",")
	if code := run(os.Stdout, paths, *profile, *minHazardHours); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, paths []string, profilePath string, minHazardHours int) int {
	fmt.Fprintln(out, "=== Hourly Observation Validation ===")
	fmt.Fprintln(out)

	data, err := loadFiles(paths)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}
	profile, err := loadProfile(profilePath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRows(data),
		validateDuplicates(data),
		validateCoverage(data),
		validateRanges(data),
		validateDaily(data, profile, minHazardHours),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", p.count)
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d parsed, %d skipped, %d after dedup, %d local days\n",
		data.parsed(), data.skipped(), len(data.deduped), data.days())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		if p.count > len(p.errors) {
			fmt.Fprintf(out, "  ... and %d more\n", p.count-len(p.errors))
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}
