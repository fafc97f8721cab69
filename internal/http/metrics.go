package http

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-template-trends-ui/internal/connectors/activity"
)

const metricsNamespace = "template_trends_ui"

// metrics holds the Prometheus collectors of one server plus a small
// in-memory aggregate of backend calls for the JSON summary.
type metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	inFlight         prometheus.Gauge
	backendDuration  *prometheus.HistogramVec
	workflowOutcomes *prometheus.CounterVec
	uploadBytes      prometheus.Counter

	mu      sync.Mutex
	backend map[string]*backendSeries
}

type backendSeries struct {
	Count              uint64
	Errors             uint64
	DurationSecondsSum float64
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests handled by this app.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests currently served by this app.",
		}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API call duration in seconds by operation and outcome.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation", "outcome"}),
		workflowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "workflow_outcomes_total",
			Help:      "Dashboard actions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes of documents forwarded to the backend.",
		}),
		backend: map[string]*backendSeries{},
	}
	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.inFlight,
		m.backendDuration,
		m.workflowOutcomes,
		m.uploadBytes,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// observeBackend is installed as the backend client observer.
func (m *metrics) observeBackend(operation string, d time.Duration, err error) {
	if operation == "" {
		operation = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.backendDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.backend[operation]
	if !ok {
		row = &backendSeries{}
		m.backend[operation] = row
	}
	row.Count++
	row.DurationSecondsSum += d.Seconds()
	if err != nil {
		row.Errors++
	}
}

// outcomeRecorder counts every dashboard action before handing it to the
// activity store.
type outcomeRecorder struct {
	metrics *metrics
	next    activity.Store
}

func (r outcomeRecorder) Record(ctx context.Context, e activity.Entry) error {
	r.metrics.workflowOutcomes.WithLabelValues(e.Kind, e.Outcome).Inc()
	return r.next.Record(ctx, e)
}

func appMetricsSummaryHandler(m *metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type backendRow struct {
			Operation string  `json:"operation"`
			Count     uint64  `json:"count"`
			Errors    uint64  `json:"errors"`
			AvgMS     float64 `json:"avg_ms"`
		}

		m.mu.Lock()
		rows := make([]backendRow, 0, len(m.backend))
		totalErrors := uint64(0)
		for op, s := range m.backend {
			avg := 0.0
			if s.Count > 0 {
				avg = (s.DurationSecondsSum / float64(s.Count)) * 1000.0
			}
			rows = append(rows, backendRow{Operation: op, Count: s.Count, Errors: s.Errors, AvgMS: avg})
			totalErrors += s.Errors
		}
		m.mu.Unlock()

		sort.Slice(rows, func(i, j int) bool { return rows[i].AvgMS > rows[j].AvgMS })

		writeJSON(w, http.StatusOK, map[string]any{
			"meta": map[string]any{
				"generated_at": time.Now().UTC(),
			},
			"data": map[string]any{
				"backend_slowest_avg_ms": rows,
				"errors": map[string]any{
					"backend_total": totalErrors,
				},
			},
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := normalizeMetricPath(r.URL.Path)
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func normalizeMetricPath(path string) string {
	switch {
	case strings.HasPrefix(path, "/ui/templates/") && path != "/ui/templates/refresh":
		return "/ui/templates/{id}"
	case path == "/", strings.HasPrefix(path, "/ui/"), strings.HasPrefix(path, "/api/"),
		path == "/health", path == "/ready", path == "/metrics", path == "/favicon.ico":
		return path
	default:
		return "other"
	}
}
