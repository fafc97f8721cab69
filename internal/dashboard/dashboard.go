// Package dashboard holds the operator-facing state of the template trends
// dashboard: which tab is open, the template catalog, the analyze and ingest
// forms, the trend pipeline and the backend health badge. Every component
// is safe for concurrent use and never holds its lock across a backend call.
package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-template-trends-ui/internal/chart"
	"go-template-trends-ui/internal/connectors/activity"
	"go-template-trends-ui/internal/connectors/backend"
)

// API is the subset of the backend client the dashboard drives.
type API interface {
	Health(ctx context.Context) (backend.HealthStatus, error)
	Analyze(ctx context.Context, req backend.AnalyzeRequest) (*backend.Payload, error)
	Ingest(ctx context.Context, req backend.IngestRequest) (*backend.Payload, error)
	ListTemplates(ctx context.Context) ([]backend.Template, error)
	GetTemplate(ctx context.Context, templateID int64) (*backend.Payload, error)
	ListMetrics(ctx context.Context, templateID int64) ([]string, error)
	Trend(ctx context.Context, templateID int64, q backend.TrendQuery) (backend.TrendSeries, *backend.Payload, error)
}

// Recorder receives one entry per completed action.
type Recorder interface {
	Record(ctx context.Context, e activity.Entry) error
}

// Phase is the lifecycle state of a result area.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
	PhaseInvalid    Phase = "invalid"
)

// Panel is the text shown in one result area and the phase that produced it.
type Panel struct {
	Phase Phase  `json:"phase"`
	Text  string `json:"text"`
}

// Failed reports whether the panel holds an error or a validation message.
func (p Panel) Failed() bool {
	return p.Phase == PhaseError || p.Phase == PhaseInvalid
}

// Options configures a Dashboard.
type Options struct {
	Logger   *zap.Logger
	Recorder Recorder
	// HealthHistory bounds the number of kept health probes.
	HealthHistory int
}

// Dashboard wires all components around one backend.
type Dashboard struct {
	Views   *Views
	Catalog *Catalog
	Analyze *AnalyzeWorkflow
	Ingest  *IngestWorkflow
	Trends  *TrendPipeline
	Health  *HealthMonitor

	logger *zap.Logger
}

func New(api API, opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rec := newRecorder(opts.Recorder, logger)

	catalog := NewCatalog(api, logger.Named("catalog"), rec)
	return &Dashboard{
		Views:   NewViews(),
		Catalog: catalog,
		Analyze: NewAnalyzeWorkflow(api, logger.Named("analyze"), rec),
		Ingest:  NewIngestWorkflow(api, catalog, logger.Named("ingest"), rec),
		Trends:  NewTrendPipeline(api, logger.Named("trends"), rec),
		Health:  NewHealthMonitor(api, opts.HealthHistory),
		logger:  logger,
	}
}

// Boot probes backend health and then loads the catalog.
func (d *Dashboard) Boot(ctx context.Context) {
	badge := d.Health.Probe(ctx)
	d.logger.Info("backend health probed", zap.String("badge", badge.Text))
	d.Catalog.LoadInitial(ctx)
}

// State is the complete view model of the page.
type State struct {
	ActiveTab       string         `json:"active_tab"`
	Tabs            []Tab          `json:"tabs"`
	Health          Badge          `json:"health"`
	HealthHistory   []HealthSample `json:"health_history"`
	Catalog         CatalogView    `json:"catalog"`
	TemplateOptions []Option       `json:"template_options"`
	Detail          Panel          `json:"detail"`
	Analyze         Panel          `json:"analyze"`
	Ingest          Panel          `json:"ingest"`
	Trend           TrendView      `json:"trend"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// LatencyChart renders the probe latency history.
func (s State) LatencyChart() chart.Chart {
	values := make([]float64, 0, len(s.HealthHistory))
	for _, h := range s.HealthHistory {
		values = append(values, h.LatencyMS)
	}
	return chart.Render(values)
}

func (d *Dashboard) State() State {
	trend := d.Trends.View()
	return State{
		ActiveTab:       d.Views.Active(),
		Tabs:            d.Views.Tabs(),
		Health:          d.Health.Badge(),
		HealthHistory:   d.Health.History(),
		Catalog:         d.Catalog.ListView(),
		TemplateOptions: d.Catalog.Options(trend.TemplateID),
		Detail:          d.Catalog.Detail(),
		Analyze:         d.Analyze.Panel(),
		Ingest:          d.Ingest.Panel(),
		Trend:           trend,
		GeneratedAt:     time.Now().UTC(),
	}
}

// recorder writes activity entries without letting a store failure reach
// the operator.
type recorder struct {
	next   Recorder
	logger *zap.Logger
}

func newRecorder(next Recorder, logger *zap.Logger) *recorder {
	if next == nil {
		next = activity.Nop{}
	}
	return &recorder{next: next, logger: logger}
}

func (r *recorder) record(ctx context.Context, kind string, p Panel, start time.Time) {
	outcome := activity.OutcomeSuccess
	switch p.Phase {
	case PhaseError:
		outcome = activity.OutcomeError
	case PhaseInvalid:
		outcome = activity.OutcomeInvalid
	}
	entry := activity.Entry{
		Kind:       kind,
		Outcome:    outcome,
		Message:    p.Text,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err := r.next.Record(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Warn("record activity failed", zap.String("kind", kind), zap.Error(err))
	}
}
