package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Template is one entry of the backend template catalog.
type Template struct {
	TemplateID      int64  `json:"template_id"`
	TemplateName    string `json:"template_name"`
	TemplateVersion int    `json:"template_version"`
	CreatedAt       string `json:"created_at"`
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CreatedTime parses CreatedAt in the formats the backend is known to emit.
func (t Template) CreatedTime() (time.Time, bool) {
	raw := strings.TrimSpace(t.CreatedAt)
	for _, layout := range createdAtLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// HealthStatus is the /health response.
type HealthStatus struct {
	Status string `json:"status"`
}

// AnalyzeRequest uploads a document for schema analysis.
type AnalyzeRequest struct {
	File Upload
}

// IngestRequest uploads a document and versions it under a template.
type IngestRequest struct {
	File         Upload
	TemplateName string
	TemplateID   string
	Force        bool
}

func (r IngestRequest) formFields() map[string]string {
	fields := map[string]string{"force": strconv.FormatBool(r.Force)}
	if name := strings.TrimSpace(r.TemplateName); name != "" {
		fields["template_name"] = name
	}
	if id := strings.TrimSpace(r.TemplateID); id != "" {
		fields["template_id"] = id
	}
	return fields
}

// TrendQuery selects one metric series, optionally filtered.
type TrendQuery struct {
	Metric    string
	SheetName string
	StartDate string
	EndDate   string
}

// Params returns the query string values; empty filters are omitted.
func (q TrendQuery) Params() map[string]string {
	params := map[string]string{"metric": q.Metric}
	if q.SheetName != "" {
		params["sheet_name"] = q.SheetName
	}
	if q.StartDate != "" {
		params["start_date"] = q.StartDate
	}
	if q.EndDate != "" {
		params["end_date"] = q.EndDate
	}
	return params
}

// TrendPoint is one sample of a trend series. Fields other than
// metric_value are passed through untouched.
type TrendPoint map[string]any

// Value returns metric_value as a number for charting. Missing, null and
// non-numeric values count as zero.
func (p TrendPoint) Value() float64 {
	switch v := p["metric_value"].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// TrendSeries is a trend in backend order.
type TrendSeries []TrendPoint

// Values extracts the chart values without reordering.
func (s TrendSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value()
	}
	return out
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	payload, err := c.Do(ctx, http.MethodGet, "/health", RequestOptions{Operation: "health"})
	if err != nil {
		return out, err
	}
	if err := payload.Decode(&out); err != nil {
		return out, fmt.Errorf("decode health response: %w", err)
	}
	return out, nil
}

// Analyze calls POST /template/analyze with the document.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*Payload, error) {
	file := req.File
	return c.Do(ctx, http.MethodPost, "/template/analyze", RequestOptions{
		Operation: "analyze",
		File:      &file,
	})
}

// Ingest calls POST /template/ingest with the document and options.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (*Payload, error) {
	file := req.File
	return c.Do(ctx, http.MethodPost, "/template/ingest", RequestOptions{
		Operation: "ingest",
		File:      &file,
		Form:      req.formFields(),
	})
}

// ListTemplates calls GET /templates.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	payload, err := c.Do(ctx, http.MethodGet, "/templates", RequestOptions{Operation: "list_templates"})
	if err != nil {
		return nil, err
	}
	var out []Template
	if err := payload.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	if out == nil {
		out = []Template{}
	}
	return out, nil
}

// GetTemplate calls GET /template/{id} and returns the record untouched.
func (c *Client) GetTemplate(ctx context.Context, templateID int64) (*Payload, error) {
	return c.Do(ctx, http.MethodGet, fmt.Sprintf("/template/%d", templateID), RequestOptions{Operation: "get_template"})
}

// ListMetrics calls GET /template/{id}/metrics.
func (c *Client) ListMetrics(ctx context.Context, templateID int64) ([]string, error) {
	payload, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/template/%d/metrics", templateID), RequestOptions{Operation: "list_metrics"})
	if err != nil {
		return nil, err
	}
	var out struct {
		Metrics *[]string `json:"metrics"`
	}
	if err := payload.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	if out.Metrics == nil {
		return nil, errors.New("metrics response has no metrics list")
	}
	return *out.Metrics, nil
}

// Trend calls GET /template/{id}/trend. The raw payload is returned next to
// the decoded series so rows can be displayed exactly as received.
func (c *Client) Trend(ctx context.Context, templateID int64, q TrendQuery) (TrendSeries, *Payload, error) {
	payload, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/template/%d/trend", templateID), RequestOptions{
		Operation: "trend",
		Query:     q.Params(),
	})
	if err != nil {
		return nil, nil, err
	}
	if !payload.JSON {
		return nil, payload, errors.New("trend response is not JSON")
	}
	dec := json.NewDecoder(bytes.NewReader(payload.Body))
	dec.UseNumber()
	var series TrendSeries
	if err := dec.Decode(&series); err != nil {
		return nil, payload, fmt.Errorf("decode trend rows: %w", err)
	}
	if series == nil {
		series = TrendSeries{}
	}
	return series, payload, nil
}
