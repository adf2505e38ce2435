package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
	"github.com/couchcryptid/storm-hazard-outlook/internal/observability"
)

// Querier answers climatology queries against the daily hazard set.
type Querier interface {
	sharedobs.ReadinessChecker
	Report(w domain.Window, hazard domain.HazardType, years domain.YearRange) (domain.Report, error)
	Outlook(w domain.Window, years domain.YearRange) ([]domain.HourlyOutlook, error)
	Daily(year int) ([]domain.DailySummary, error)
}

// Server exposes health, readiness, metrics, and the JSON query API.
type Server struct {
	httpServer *http.Server
	querier    Querier
	metrics    *observability.Metrics
	reports    *lruCache[domain.Report]
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and /v1 routes.
func NewServer(addr string, q Querier, metrics *observability.Metrics, cacheSize int, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		querier: q,
		metrics: metrics,
		reports: newLRUCache[domain.Report](cacheSize),
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(q))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/probabilities", s.requireReady(s.handleProbabilities))
	mux.HandleFunc("GET /v1/outlook", s.requireReady(s.handleOutlook))
	mux.HandleFunc("GET /v1/daily", s.requireReady(s.handleDaily))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) requireReady(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.querier.CheckReadiness(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleProbabilities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	win, err := parseWindow(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	hazard, err := domain.ParseHazardType(q.Get("hazard"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	years, err := parseYears(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.metrics.ReportRequests.WithLabelValues("probabilities", hazardLabel(hazard)).Inc()

	key := fmt.Sprintf("%s|%s|%s|%d|%d",
		win.Start.Format(domain.DateLayout), win.End.Format(domain.DateLayout), hazard, years.Min, years.Max)
	if report, ok := s.reports.get(key); ok {
		s.metrics.ReportCache.WithLabelValues("hit").Inc()
		writeJSON(w, http.StatusOK, report)
		return
	}
	s.metrics.ReportCache.WithLabelValues("miss").Inc()

	report, err := s.querier.Report(win, hazard, years)
	if err != nil {
		s.logger.Error("build report failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.reports.put(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleOutlook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	win, err := parseWindow(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	years, err := parseYears(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.metrics.ReportRequests.WithLabelValues("outlook", "any").Inc()

	outlook, err := s.querier.Outlook(win, years)
	if err != nil {
		s.logger.Error("build outlook failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"window": win, "outlook": outlook})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	year, err := parseOptionalInt(r.URL.Query(), "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.metrics.ReportRequests.WithLabelValues("daily", "any").Inc()

	daily, err := s.querier.Daily(year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(daily), "days": daily})
}

func parseWindow(q url.Values) (domain.Window, error) {
	return domain.ParseWindow(q.Get("start"), q.Get("end"))
}

func parseYears(q url.Values) (domain.YearRange, error) {
	minYear, err := parseOptionalInt(q, "min_year")
	if err != nil {
		return domain.YearRange{}, err
	}
	maxYear, err := parseOptionalInt(q, "max_year")
	if err != nil {
		return domain.YearRange{}, err
	}
	if minYear != 0 && maxYear != 0 && minYear > maxYear {
		return domain.YearRange{}, errors.New("min_year must not exceed max_year")
	}
	return domain.YearRange{Min: minYear, Max: maxYear}, nil
}

func parseOptionalInt(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func hazardLabel(h domain.HazardType) string {
	if h == "" {
		return "any"
	}
	return string(h)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
