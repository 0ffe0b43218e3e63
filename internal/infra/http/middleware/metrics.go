package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	ingestedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_ingested_records_total",
			Help: "Records processed by ingestion runs, by outcome",
		},
		[]string{"source", "outcome"},
	)

	ingestionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_ingestion_runs_total",
			Help: "Finished ingestion runs, by status",
		},
		[]string{"source", "status"},
	)

	truncatedListings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadforms_truncated_listings_total",
			Help: "Lead forms listings that had pages beyond the first",
		},
		[]string{"resource"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern keeps label cardinality bounded: /leads/42/status is
// reported as /leads/{id}/status.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// IngestionObserver feeds ingestion run outcomes into prometheus.
type IngestionObserver struct{}

func (IngestionObserver) RecordOutcome(source entity.Source, outcome string) {
	ingestedRecords.WithLabelValues(string(source), outcome).Inc()
}

func (IngestionObserver) RunFinished(source entity.Source, status usecase.RunStatus) {
	ingestionRuns.WithLabelValues(string(source), string(status)).Inc()
}

func RecordTruncatedListing(resource string) {
	truncatedListings.WithLabelValues(resource).Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
