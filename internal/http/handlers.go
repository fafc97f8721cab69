package http

import (
	"context"
	"errors"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"go-template-trends-ui/internal/connectors/activity"
	"go-template-trends-ui/internal/connectors/backend"
	"go-template-trends-ui/internal/dashboard"
)

const defaultActivityLimit = 50

type handlers struct {
	dash        *dashboard.Dashboard
	store       activity.Store
	logger      *zap.Logger
	metrics     *metrics
	maxUploadMB int64
}

// page renders the dashboard. ?tab= switches the active tab; unknown names
// are ignored.
func (h *handlers) page(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.URL.Path != "/" {
		nethttp.NotFound(w, r)
		return
	}
	if r.Method != nethttp.MethodGet && r.Method != nethttp.MethodHead {
		methodNotAllowed(w, nethttp.MethodGet)
		return
	}
	if tab := r.URL.Query().Get("tab"); tab != "" {
		h.dash.Views.Activate(tab)
	}

	entries, err := h.store.Recent(r.Context(), 10)
	if err != nil {
		h.logger.Warn("load recent activity failed", zap.Error(err))
		entries = nil
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderPage(w, h.dash.State(), entries); err != nil {
		h.logger.Error("render page failed", zap.Error(err))
	}
}

func (h *handlers) analyze(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		methodNotAllowed(w, nethttp.MethodPost)
		return
	}
	h.dash.Views.Activate(dashboard.TabAnalyze)

	file, closeFile, err := h.formUpload(w, r)
	if err != nil {
		h.logger.Warn("analyze upload rejected", zap.Error(err))
		h.dash.Analyze.Fail(detached(r), err)
		redirectToTab(w, r, dashboard.TabAnalyze)
		return
	}
	defer closeFile()

	h.dash.Analyze.Submit(detached(r), file)
	redirectToTab(w, r, dashboard.TabAnalyze)
}

func (h *handlers) ingest(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		methodNotAllowed(w, nethttp.MethodPost)
		return
	}
	h.dash.Views.Activate(dashboard.TabIngest)

	file, closeFile, err := h.formUpload(w, r)
	if err != nil {
		h.logger.Warn("ingest upload rejected", zap.Error(err))
		h.dash.Ingest.Fail(detached(r), err)
		redirectToTab(w, r, dashboard.TabIngest)
		return
	}
	defer closeFile()

	h.dash.Ingest.Submit(detached(r), dashboard.IngestSubmission{
		File:         file,
		TemplateName: r.FormValue("template_name"),
		TemplateID:   r.FormValue("template_id"),
		Force:        parseCheckbox(r.FormValue("force")),
	})
	redirectToTab(w, r, dashboard.TabIngest)
}

func (h *handlers) refreshTemplates(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		methodNotAllowed(w, nethttp.MethodPost)
		return
	}
	h.dash.Views.Activate(dashboard.TabTemplates)
	h.dash.Catalog.Refresh(detached(r))
	redirectToTab(w, r, dashboard.TabTemplates)
}

// templateDetail serves GET /ui/templates/{id}.
func (h *handlers) templateDetail(w nethttp.ResponseWriter, r *nethttp.Request) {
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ui/templates/"), "/")
	if raw == "" || strings.Contains(raw, "/") {
		nethttp.NotFound(w, r)
		return
	}
	if r.Method != nethttp.MethodGet {
		methodNotAllowed(w, nethttp.MethodGet)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "template id must be an integer"})
		return
	}

	h.dash.Views.Activate(dashboard.TabTemplates)
	h.dash.Catalog.ShowDetail(detached(r), id)
	redirectToTab(w, r, dashboard.TabTemplates)
}

func (h *handlers) selectTrendTemplate(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		methodNotAllowed(w, nethttp.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid form"})
		return
	}
	h.dash.Views.Activate(dashboard.TabTrends)
	h.dash.Trends.SelectTemplate(detached(r), r.FormValue("template_id"))
	redirectToTab(w, r, dashboard.TabTrends)
}

func (h *handlers) queryTrend(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		methodNotAllowed(w, nethttp.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid form"})
		return
	}
	h.dash.Views.Activate(dashboard.TabTrends)
	h.dash.Trends.Query(detached(r), dashboard.TrendRequest{
		TemplateID: r.FormValue("template_id"),
		Metric:     r.FormValue("metric"),
		SheetName:  r.FormValue("sheet_name"),
		StartDate:  r.FormValue("start_date"),
		EndDate:    r.FormValue("end_date"),
	})
	redirectToTab(w, r, dashboard.TabTrends)
}

func (h *handlers) state(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		methodNotAllowed(w, nethttp.MethodGet)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"data": h.dash.State(),
	})
}

func (h *handlers) activity(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		methodNotAllowed(w, nethttp.MethodGet)
		return
	}
	limit := parseLimit(r, defaultActivityLimit)
	items, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Warn("list activity failed", zap.Error(err))
		writeJSON(w, nethttp.StatusInternalServerError, map[string]any{
			"error": "failed to fetch activity",
		})
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": map[string]any{
			"limit": limit,
			"count": len(items),
		},
		"data": items,
	})
}

// formUpload parses a multipart form and returns its "file" part, or nil
// when no file was chosen.
func (h *handlers) formUpload(w nethttp.ResponseWriter, r *nethttp.Request) (*backend.Upload, func(), error) {
	noop := func() {}
	limit := h.maxUploadMB << 20
	r.Body = nethttp.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *nethttp.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, errors.New("upload exceeds size limit")
		}
		if !errors.Is(err, nethttp.ErrNotMultipart) {
			return nil, noop, errors.New("invalid multipart form")
		}
		if err := r.ParseForm(); err != nil {
			return nil, noop, errors.New("invalid form")
		}
		return nil, noop, nil
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, nethttp.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, errors.New("invalid file part")
	}
	if hdr.Filename == "" {
		_ = f.Close()
		return nil, noop, nil
	}
	h.metrics.uploadBytes.Add(float64(hdr.Size))
	return uploadFrom(f, hdr), func() { _ = f.Close() }, nil
}

func uploadFrom(f multipart.File, hdr *multipart.FileHeader) *backend.Upload {
	return &backend.Upload{Filename: hdr.Filename, Reader: f, Size: hdr.Size}
}

// detached keeps request values but outlives the browser request, so a
// closed tab never cancels a backend call midway.
func detached(r *nethttp.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func redirectToTab(w nethttp.ResponseWriter, r *nethttp.Request, tab string) {
	nethttp.Redirect(w, r, "/?tab="+url.QueryEscape(tab), nethttp.StatusSeeOther)
}

func methodNotAllowed(w nethttp.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
}

func parseCheckbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

func parseLimit(r *nethttp.Request, defaultLimit int) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	return limit
}

func faviconHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.WriteHeader(nethttp.StatusNoContent)
}
