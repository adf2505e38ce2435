package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HourlyFiles   []string
	HazardProfile string
	Profile       Profile

	MinHazardHours int
	WorkStartHour  int
	WorkEndHour    int
	Years          domain.YearRange

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	PostgresDSN     string
	PostgresTimeout time.Duration

	ReportCacheSize int
}

// WorkingHoursEnabled reports whether both working-hour bounds are set.
func (c *Config) WorkingHoursEnabled() bool {
	return c.WorkStartHour >= 0 && c.WorkEndHour >= 0
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	postgresTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("POSTGRES_TIMEOUT", "5s"))
	if err != nil || postgresTimeout <= 0 {
		return nil, errors.New("invalid POSTGRES_TIMEOUT")
	}

	minHazardHours, err := parsePositiveInt("MIN_HAZARD_HOURS", domain.DefaultMinHazardHours)
	if err != nil {
		return nil, err
	}

	workStart, err := parseHour("WORK_START_HOUR")
	if err != nil {
		return nil, err
	}
	workEnd, err := parseHour("WORK_END_HOUR")
	if err != nil {
		return nil, err
	}
	if (workStart < 0) != (workEnd < 0) {
		return nil, errors.New("WORK_START_HOUR and WORK_END_HOUR must be set together")
	}
	if workStart >= 0 && workStart >= workEnd {
		return nil, errors.New("WORK_START_HOUR must be before WORK_END_HOUR")
	}

	minYear, err := parseYear("MIN_YEAR")
	if err != nil {
		return nil, err
	}
	maxYear, err := parseYear("MAX_YEAR")
	if err != nil {
		return nil, err
	}
	if minYear != 0 && maxYear != 0 && minYear > maxYear {
		return nil, errors.New("MIN_YEAR must not exceed MAX_YEAR")
	}

	cacheSize, err := parsePositiveInt("REPORT_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	profilePath := os.Getenv("HAZARD_PROFILE")
	profile := DefaultProfile()
	if profilePath != "" {
		profile, err = LoadProfile(profilePath)
		if err != nil {
			return nil, err
		}
	}
	if v := os.Getenv("COMBINE_MODE"); v != "" {
		mode, err := domain.ParseCombineMode(v)
		if err != nil {
			return nil, fmt.Errorf("invalid COMBINE_MODE: %w", err)
		}
		profile.Mode = mode
	}

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	kafkaEnabled := kafkaBrokers != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HourlyFiles:     splitList(sharedcfg.EnvOrDefault("HOURLY_FILES", "data/hourly.csv")),
		HazardProfile:   profilePath,
		Profile:         profile,
		MinHazardHours:  minHazardHours,
		WorkStartHour:   workStart,
		WorkEndHour:     workEnd,
		Years:           domain.YearRange{Min: minYear, Max: maxYear},
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,
		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "daily-hazard-summaries"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		PostgresTimeout: postgresTimeout,
		ReportCacheSize: cacheSize,
	}

	if len(cfg.HourlyFiles) == 0 {
		return nil, errors.New("HOURLY_FILES is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

// parseHour returns -1 when the variable is unset.
func parseHour(key string) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 24 {
		return 0, fmt.Errorf("invalid %s: must be between 0 and 24", key)
	}
	return n, nil
}

func parseYear(key string) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
