package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-hazard-outlook/internal/adapter/csv"
	"github.com/couchcryptid/storm-hazard-outlook/internal/config"
	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
	"github.com/couchcryptid/storm-hazard-outlook/internal/observability"
	"github.com/couchcryptid/storm-hazard-outlook/internal/pipeline"
)

type rootOptions struct {
	hourly         []string
	profile        string
	mode           string
	minHazardHours int
	workStart      int
	workEnd        int
	logLevel       string
}

type queryOptions struct {
	start   string
	end     string
	hazard  string
	minYear int
	maxYear int
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "hazardctl",
		Short:         "Historical weather hazard probabilities from hourly observations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.PersistentFlags()
	f.StringSliceVar(&opts.hourly, "hourly", []string{"data/hourly.csv"}, "hourly CSV files (comma-separated)")
	f.StringVar(&opts.profile, "profile", "", "YAML hazard profile")
	f.StringVar(&opts.mode, "mode", "", "combine mode: any or all (overrides the profile)")
	f.IntVar(&opts.minHazardHours, "min-hazard-hours", domain.DefaultMinHazardHours, "hazardous hours that set the four-hour flag")
	f.IntVar(&opts.workStart, "work-start", -1, "first local hour kept (inclusive)")
	f.IntVar(&opts.workEnd, "work-end", -1, "last local hour kept (exclusive)")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(newDailyCmd(opts), newProbabilityCmd(opts), newOutlookCmd(opts))
	return root
}

func newDailyCmd(opts *rootOptions) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Print the daily hazard summaries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := buildPipeline(cmd, opts)
			if err != nil {
				return err
			}
			daily, err := p.Daily(year)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), daily)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "restrict output to one year")
	return cmd
}

func newProbabilityCmd(opts *rootOptions) *cobra.Command {
	q := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "probability",
		Short: "Estimate per-date hazard probabilities and summarize the window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := domain.ParseWindow(q.start, q.end)
			if err != nil {
				return err
			}
			hazard, err := domain.ParseHazardType(q.hazard)
			if err != nil {
				return err
			}
			p, err := buildPipeline(cmd, opts)
			if err != nil {
				return err
			}
			report, err := p.Report(w, hazard, domain.YearRange{Min: q.minYear, Max: q.maxYear})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	addWindowFlags(cmd, q)
	cmd.Flags().StringVar(&q.hazard, "hazard", "", "hazard whose earliest valid year bounds the history")
	return cmd
}

func newOutlookCmd(opts *rootOptions) *cobra.Command {
	q := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "outlook",
		Short: "Forecast mean hazard hours per window date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := domain.ParseWindow(q.start, q.end)
			if err != nil {
				return err
			}
			p, err := buildPipeline(cmd, opts)
			if err != nil {
				return err
			}
			outlook, err := p.Outlook(w, domain.YearRange{Min: q.minYear, Max: q.maxYear})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), outlook)
		},
	}
	addWindowFlags(cmd, q)
	return cmd
}

func addWindowFlags(cmd *cobra.Command, q *queryOptions) {
	cmd.Flags().StringVar(&q.start, "start", "", "window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.end, "end", "", "window end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&q.minYear, "min-year", 0, "earliest year of history")
	cmd.Flags().IntVar(&q.maxYear, "max-year", 0, "latest year of history")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

// buildPipeline loads the hourly files and builds the daily set synchronously.
func buildPipeline(cmd *cobra.Command, opts *rootOptions) (*pipeline.Pipeline, error) {
	if len(opts.hourly) == 0 {
		return nil, errors.New("at least one --hourly file is required")
	}
	if (opts.workStart < 0) != (opts.workEnd < 0) {
		return nil, errors.New("--work-start and --work-end must be set together")
	}

	profile := config.DefaultProfile()
	if opts.profile != "" {
		var err error
		profile, err = config.LoadProfile(opts.profile)
		if err != nil {
			return nil, err
		}
	}
	if opts.mode != "" {
		mode, err := domain.ParseCombineMode(opts.mode)
		if err != nil {
			return nil, err
		}
		profile.Mode = mode
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), opts.logLevel, "text")
	transformer := pipeline.NewTransformer(pipeline.TransformOptions{
		Thresholds:     profile.Thresholds,
		Mode:           profile.Mode,
		MinHazardHours: opts.minHazardHours,
		WorkStart:      opts.workStart,
		WorkEnd:        opts.workEnd,
	}, logger)

	p := pipeline.New(csv.NewSource(opts.hourly, logger), transformer, nil, logger,
		observability.NewUnregisteredMetrics(), pipeline.Options{
			YearFloors:  profile.YearFloors,
			MaxAttempts: 1,
		})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.Run(ctx); err != nil {
		return nil, err
	}
	if !p.Ready() {
		return nil, fmt.Errorf("interrupted: %w", ctx.Err())
	}
	return p, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
