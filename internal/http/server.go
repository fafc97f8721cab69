package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-template-trends-ui/internal/config"
	"go-template-trends-ui/internal/connectors/activity"
	"go-template-trends-ui/internal/connectors/backend"
	"go-template-trends-ui/internal/dashboard"
)

// Server hosts the dashboard page, its form endpoints and the JSON API.
type Server struct {
	httpServer *nethttp.Server
	dash       *dashboard.Dashboard
	store      activity.Store
	logger     *zap.Logger

	pollInterval time.Duration
	pollMu       sync.Mutex
	pollCancel   context.CancelFunc
	pollDone     chan struct{}
}

// NewServer builds the backend client, activity store and dashboard from
// cfg and wires the routes.
func NewServer(cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := activity.Open(cfg)
	if err != nil {
		return nil, err
	}

	m := newMetrics()
	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger.Named("backend"))
	client.Observe(m.observeBackend)

	dash := dashboard.New(client, dashboard.Options{
		Logger:        logger,
		Recorder:      outcomeRecorder{metrics: m, next: store},
		HealthHistory: cfg.HealthHistoryMaxPoints,
	})

	h := &handlers{
		dash:        dash,
		store:       store,
		logger:      logger.Named("http"),
		metrics:     m,
		maxUploadMB: cfg.MaxUploadMB,
	}

	mux := nethttp.NewServeMux()
	mux.HandleFunc("/", h.page)
	mux.HandleFunc("/favicon.ico", faviconHandler)
	mux.Handle("/metrics", m.handler())
	mux.HandleFunc("/api/v1/metrics/app", appMetricsSummaryHandler(m))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/ui/analyze", h.analyze)
	mux.HandleFunc("/ui/ingest", h.ingest)
	mux.HandleFunc("/ui/templates/refresh", h.refreshTemplates)
	mux.HandleFunc("/ui/templates/", h.templateDetail)
	mux.HandleFunc("/ui/trends/template", h.selectTrendTemplate)
	mux.HandleFunc("/ui/trends/query", h.queryTrend)
	mux.HandleFunc("/api/v1/state", h.state)
	mux.HandleFunc("/api/v1/activity", h.activity)
	mux.HandleFunc("/api/v1/status/services", servicesStatusHandler(dash, store, cfg.ActivityStore))
	mux.HandleFunc("/api/v1/settings", settingsHandler(cfg))

	httpServer := &nethttp.Server{
		Addr:         cfg.ListenAddr,
		Handler:      loggingMiddleware(logger.Named("access"), m.middleware(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer:   httpServer,
		dash:         dash,
		store:        store,
		logger:       logger,
		pollInterval: cfg.HealthPollInterval,
	}, nil
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() nethttp.Handler {
	return s.httpServer.Handler
}

// Dashboard returns the state behind the page.
func (s *Server) Dashboard() *dashboard.Dashboard {
	return s.dash
}

// ListenAndServe boots the dashboard in the background and starts the
// HTTP server.
func (s *Server) ListenAndServe() error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.pollMu.Lock()
	s.pollCancel = cancel
	s.pollDone = done
	s.pollMu.Unlock()
	go s.startHealthPoller(ctx, done)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the poller, drains requests and closes the activity store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.pollMu.Lock()
	cancel, done := s.pollCancel, s.pollDone
	s.pollMu.Unlock()
	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	err := s.httpServer.Shutdown(ctx)
	if s.store != nil {
		if cerr := s.store.Close(); cerr != nil {
			s.logger.Warn("close activity store", zap.Error(cerr))
		}
	}
	return err
}

// startHealthPoller boots the dashboard once and then probes the backend
// every poll interval. A non-positive interval disables polling.
func (s *Server) startHealthPoller(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	s.dash.Boot(ctx)
	if s.pollInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dash.Health.Probe(ctx)
		}
	}
}

func healthHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func readyHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ready",
	})
}

const requestIDHeader = "X-Request-ID"

func loggingMiddleware(logger *zap.Logger, next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w nethttp.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
