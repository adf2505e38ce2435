package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_hazard_summaries (
	date           DATE PRIMARY KEY,
	year           INTEGER NOT NULL,
	month          INTEGER NOT NULL,
	day            INTEGER NOT NULL,
	hazard_counts  JSONB NOT NULL,
	hazard_hours   INTEGER NOT NULL,
	total_hours    INTEGER NOT NULL,
	any_hour_flag  BOOLEAN NOT NULL,
	four_hour_flag BOOLEAN NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSummary = `
	INSERT INTO daily_hazard_summaries
	(date, year, month, day, hazard_counts, hazard_hours, total_hours, any_hour_flag, four_hour_flag)
	VALUES (:date, :year, :month, :day, :hazard_counts, :hazard_hours, :total_hours, :any_hour_flag, :four_hour_flag)
	ON CONFLICT (date) DO UPDATE SET
		year = EXCLUDED.year,
		month = EXCLUDED.month,
		day = EXCLUDED.day,
		hazard_counts = EXCLUDED.hazard_counts,
		hazard_hours = EXCLUDED.hazard_hours,
		total_hours = EXCLUDED.total_hours,
		any_hour_flag = EXCLUDED.any_hour_flag,
		four_hour_flag = EXCLUDED.four_hour_flag,
		updated_at = now()`

const selectSummaries = `
	SELECT date, year, month, day, hazard_counts, hazard_hours, total_hours, any_hour_flag, four_hour_flag
	FROM daily_hazard_summaries
	WHERE ($1 = 0 OR year = $1)
	ORDER BY date`

// summaryRow is the table representation of a DailySummary.
type summaryRow struct {
	domain.DailySummary
	HazardCounts []byte `db:"hazard_counts"`
}

// Store upserts daily hazard summaries into PostgreSQL.
// It implements pipeline.SummaryLoader.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
	logger  *slog.Logger
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string, timeout time.Duration, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewStore(db, timeout, logger), nil
}

// NewStore wraps an existing connection.
func NewStore(db *sqlx.DB, timeout time.Duration, logger *slog.Logger) *Store {
	return &Store{db: db, timeout: timeout, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "postgres" }

// EnsureSchema creates the summaries table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// LoadSummaries upserts every summary in one transaction, keyed by date.
func (s *Store) LoadSummaries(ctx context.Context, summaries []domain.DailySummary) error {
	if len(summaries) == 0 {
		return nil
	}

	// Budget one timeout per 500 rows.
	ctx, cancel := context.WithTimeout(ctx, s.timeout*time.Duration(len(summaries)/500+1))
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, upsertSummary)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range summaries {
		row, err := toRow(summaries[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("upsert summary %s: %w", summaries[i].Date.Format(domain.DateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.Debug("upserted daily summaries", "count", len(summaries))
	return nil
}

// Summaries reads stored summaries, restricted to one year when year is non-zero.
func (s *Store) Summaries(ctx context.Context, year int) ([]domain.DailySummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []summaryRow
	if err := s.db.SelectContext(ctx, &rows, selectSummaries, year); err != nil {
		return nil, fmt.Errorf("select summaries: %w", err)
	}
	out := make([]domain.DailySummary, len(rows))
	for i, r := range rows {
		out[i] = r.DailySummary
		if err := json.Unmarshal(r.HazardCounts, &out[i].HazardCounts); err != nil {
			return nil, fmt.Errorf("decode hazard counts: %w", err)
		}
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func toRow(d domain.DailySummary) (summaryRow, error) {
	counts, err := json.Marshal(d.HazardCounts)
	if err != nil {
		return summaryRow{}, fmt.Errorf("encode hazard counts: %w", err)
	}
	return summaryRow{DailySummary: d, HazardCounts: counts}, nil
}
