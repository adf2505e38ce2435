// Command hazardctl computes hazard climatology from hourly CSV history and
// prints the result as JSON.
//
// Usage:
//
//	hazardctl --hourly data/hourly.csv daily --year 2020
//	hazardctl --hourly a.csv,b.csv --profile wind.yaml probability --start 2025-07-01 --end 2025-07-14
//	hazardctl --hourly data/hourly.csv --work-start 8 --work-end 18 outlook --start 2025-12-20 --end 2026-01-05
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
