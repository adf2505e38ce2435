package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/storm-hazard-outlook/internal/adapter/http"
	"github.com/couchcryptid/storm-hazard-outlook/internal/adapter/csv"
	kafkaadapter "github.com/couchcryptid/storm-hazard-outlook/internal/adapter/kafka"
	"github.com/couchcryptid/storm-hazard-outlook/internal/adapter/postgres"
	"github.com/couchcryptid/storm-hazard-outlook/internal/config"
	"github.com/couchcryptid/storm-hazard-outlook/internal/observability"
	"github.com/couchcryptid/storm-hazard-outlook/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var loaders []pipeline.SummaryLoader

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka sink disabled")
	}

	var store *postgres.Store
	if cfg.PostgresDSN != "" {
		store, err = postgres.Open(ctx, cfg.PostgresDSN, cfg.PostgresTimeout, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("failed to create postgres schema", "error", err)
			os.Exit(1)
		}
		loaders = append(loaders, store)
		logger.Info("postgres sink enabled")
	}

	workStart, workEnd := -1, -1
	if cfg.WorkingHoursEnabled() {
		workStart, workEnd = cfg.WorkStartHour, cfg.WorkEndHour
	}

	source := csv.NewSource(cfg.HourlyFiles, logger)
	transformer := pipeline.NewTransformer(pipeline.TransformOptions{
		Thresholds:     cfg.Profile.Thresholds,
		Mode:           cfg.Profile.Mode,
		MinHazardHours: cfg.MinHazardHours,
		WorkStart:      workStart,
		WorkEnd:        workEnd,
	}, logger)

	p := pipeline.New(source, transformer, loaders, logger, metrics, pipeline.Options{
		Years:      cfg.Years,
		YearFloors: cfg.Profile.YearFloors,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, metrics, cfg.ReportCacheSize, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Build the daily hazard set.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("postgres close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
