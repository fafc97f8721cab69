package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-template-trends-ui/internal/chart"
	"go-template-trends-ui/internal/connectors/activity"
	"go-template-trends-ui/internal/connectors/backend"
)

const (
	msgSelectMetric       = "Select metric"
	msgMetricsError       = "Metrics error: "
	msgSelectTemplateAndM = "Select template and metric."
	msgComputingTrend     = "Computing trend..."
	msgTrendError         = "Trend error: "
)

// TrendRequest is the content of the trend form.
type TrendRequest struct {
	TemplateID string
	Metric     string
	SheetName  string
	StartDate  string
	EndDate    string
}

// TrendView is what the trends panel shows. Chart is nil when the chart
// area is cleared.
type TrendView struct {
	TemplateID    string       `json:"template_id"`
	MetricOptions []Option     `json:"metric_options"`
	Metric        string       `json:"metric"`
	SheetName     string       `json:"sheet_name"`
	StartDate     string       `json:"start_date"`
	EndDate       string       `json:"end_date"`
	Result        Panel        `json:"result"`
	Chart         *chart.Chart `json:"chart,omitempty"`
}

// TrendPipeline drives template selection, metric listing and trend
// queries. Each slot carries a generation; a response whose generation is
// no longer current is dropped.
type TrendPipeline struct {
	api    API
	logger *zap.Logger
	rec    *recorder

	mu         sync.Mutex
	templateID string
	metrics    []string
	metric     string
	filters    TrendRequest
	result     Panel
	chart      *chart.Chart
	metricsGen uint64
	trendGen   uint64
}

func NewTrendPipeline(api API, logger *zap.Logger, rec *recorder) *TrendPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = newRecorder(nil, logger)
	}
	return &TrendPipeline{api: api, logger: logger, rec: rec, result: Panel{Phase: PhaseIdle}}
}

// SelectTemplate switches the pipeline to templateID. Metric options,
// selected metric, chart and result are cleared before any fetch starts;
// an in-flight trend query for the previous selection is invalidated.
func (t *TrendPipeline) SelectTemplate(ctx context.Context, templateID string) Panel {
	templateID = strings.TrimSpace(templateID)

	t.mu.Lock()
	t.metricsGen++
	t.trendGen++
	gen := t.metricsGen
	t.templateID = templateID
	t.metrics = nil
	t.metric = ""
	t.filters = TrendRequest{}
	t.chart = nil
	t.result = Panel{Phase: PhaseIdle}
	t.mu.Unlock()

	if templateID == "" {
		return Panel{Phase: PhaseIdle}
	}

	id, err := parseTemplateID(templateID)
	var metrics []string
	if err == nil {
		metrics, err = t.api.ListMetrics(ctx, id)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.metricsGen {
		t.logger.Debug("discarding stale metrics response", zap.String("template_id", templateID))
		return t.result
	}
	if err != nil {
		t.result = Panel{Phase: PhaseError, Text: msgMetricsError + backend.Message(err)}
		t.logger.Warn("list metrics failed", zap.String("template_id", templateID), zap.Error(err))
		return t.result
	}
	t.metrics = append([]string(nil), metrics...)
	return t.result
}

// Query fetches and charts one metric series. Without a template and a
// metric nothing is sent. A query for a template other than the selected
// one switches the selection first, so the chart never sits under another
// template's selector.
func (t *TrendPipeline) Query(ctx context.Context, req TrendRequest) Panel {
	start := time.Now()
	req.TemplateID = strings.TrimSpace(req.TemplateID)
	req.SheetName = strings.TrimSpace(req.SheetName)

	if req.TemplateID == "" || req.Metric == "" {
		p := Panel{Phase: PhaseInvalid, Text: msgSelectTemplateAndM}
		t.mu.Lock()
		t.result = p
		t.mu.Unlock()
		t.rec.record(ctx, activity.KindTrend, p, start)
		return p
	}

	t.mu.Lock()
	switched := t.templateID != req.TemplateID
	t.mu.Unlock()
	if switched {
		t.SelectTemplate(ctx, req.TemplateID)
	}

	t.mu.Lock()
	t.trendGen++
	gen := t.trendGen
	t.metric = req.Metric
	t.filters = req
	t.result = Panel{Phase: PhaseSubmitting, Text: msgComputingTrend}
	t.mu.Unlock()

	var (
		series  backend.TrendSeries
		payload *backend.Payload
	)
	id, err := parseTemplateID(req.TemplateID)
	if err == nil {
		series, payload, err = t.api.Trend(ctx, id, backend.TrendQuery{
			Metric:    req.Metric,
			SheetName: req.SheetName,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		})
	}

	var p Panel
	var rendered *chart.Chart
	if err != nil {
		p = Panel{Phase: PhaseError, Text: msgTrendError + backend.Message(err)}
	} else {
		c := chart.Render(series.Values())
		rendered = &c
		p = Panel{Phase: PhaseSuccess, Text: payload.Pretty()}
	}

	t.mu.Lock()
	if gen != t.trendGen {
		t.mu.Unlock()
		t.logger.Debug("discarding stale trend response", zap.String("template_id", req.TemplateID), zap.String("metric", req.Metric))
		return p
	}
	t.result = p
	t.chart = rendered
	t.mu.Unlock()

	if err != nil {
		t.logger.Warn("trend query failed", zap.String("template_id", req.TemplateID), zap.String("metric", req.Metric), zap.Error(err))
	}
	t.rec.record(ctx, activity.KindTrend, p, start)
	return p
}

// View returns a copy of the pipeline state.
func (t *TrendPipeline) View() TrendView {
	t.mu.Lock()
	defer t.mu.Unlock()

	opts := make([]Option, 0, len(t.metrics)+1)
	opts = append(opts, Option{Value: "", Label: msgSelectMetric, Selected: t.metric == ""})
	for _, m := range t.metrics {
		opts = append(opts, Option{Value: m, Label: m, Selected: m == t.metric})
	}

	view := TrendView{
		TemplateID:    t.templateID,
		MetricOptions: opts,
		Metric:        t.metric,
		SheetName:     t.filters.SheetName,
		StartDate:     t.filters.StartDate,
		EndDate:       t.filters.EndDate,
		Result:        t.result,
	}
	if t.chart != nil {
		c := *t.chart
		c.Points = append([]chart.Point(nil), t.chart.Points...)
		view.Chart = &c
	}
	return view
}

func parseTemplateID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid template id %q", raw)
	}
	return id, nil
}
