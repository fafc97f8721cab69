package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"go-template-trends-ui/internal/connectors/activity"
	"go-template-trends-ui/internal/connectors/backend"
)

const (
	msgSelectFile        = "Select a file"
	msgAnalyzeInProgress = "Analysis in progress..."
	msgAnalyzeError      = "Analysis error: "
	msgIngestInProgress  = "Ingestion in progress..."
	msgIngestError       = "Ingestion error: "
)

// resultPanel holds the text of one workflow form. Concurrent submissions
// are allowed; whichever finishes last owns the panel.
type resultPanel struct {
	mu    sync.Mutex
	panel Panel
}

func (r *resultPanel) set(p Panel) {
	r.mu.Lock()
	r.panel = p
	r.mu.Unlock()
}

func (r *resultPanel) get() Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.panel
}

// AnalyzeWorkflow uploads a document for schema analysis.
type AnalyzeWorkflow struct {
	api    API
	logger *zap.Logger
	rec    *recorder
	result resultPanel
}

func NewAnalyzeWorkflow(api API, logger *zap.Logger, rec *recorder) *AnalyzeWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = newRecorder(nil, logger)
	}
	return &AnalyzeWorkflow{api: api, logger: logger, rec: rec, result: resultPanel{panel: Panel{Phase: PhaseIdle}}}
}

// Submit analyzes file. A nil file is rejected without contacting the
// backend.
func (w *AnalyzeWorkflow) Submit(ctx context.Context, file *backend.Upload) Panel {
	start := time.Now()
	if file == nil {
		p := Panel{Phase: PhaseInvalid, Text: msgSelectFile}
		w.result.set(p)
		w.rec.record(ctx, activity.KindAnalyze, p, start)
		return p
	}

	w.result.set(Panel{Phase: PhaseSubmitting, Text: msgAnalyzeInProgress})
	w.logger.Info("analyze submitted", zap.String("file", file.Filename), zap.String("size", humanize.Bytes(uint64(max(file.Size, 0)))))

	var p Panel
	payload, err := w.api.Analyze(ctx, backend.AnalyzeRequest{File: *file})
	if err != nil {
		p = Panel{Phase: PhaseError, Text: msgAnalyzeError + backend.Message(err)}
		w.logger.Warn("analyze failed", zap.String("file", file.Filename), zap.Error(err))
	} else {
		p = Panel{Phase: PhaseSuccess, Text: payload.Pretty()}
	}
	w.result.set(p)
	w.rec.record(ctx, activity.KindAnalyze, p, start)
	return p
}

// Fail shows an error that happened before the document could be sent,
// such as an unreadable or oversized upload.
func (w *AnalyzeWorkflow) Fail(ctx context.Context, err error) Panel {
	p := Panel{Phase: PhaseError, Text: msgAnalyzeError + err.Error()}
	w.result.set(p)
	w.rec.record(ctx, activity.KindAnalyze, p, time.Now())
	return p
}

func (w *AnalyzeWorkflow) Panel() Panel {
	return w.result.get()
}

// IngestSubmission is the content of the ingest form.
type IngestSubmission struct {
	File         *backend.Upload
	TemplateName string
	TemplateID   string
	Force        bool
}

// Request converts the form into a backend request with trimmed fields.
func (s IngestSubmission) Request() backend.IngestRequest {
	req := backend.IngestRequest{
		TemplateName: strings.TrimSpace(s.TemplateName),
		TemplateID:   strings.TrimSpace(s.TemplateID),
		Force:        s.Force,
	}
	if s.File != nil {
		req.File = *s.File
	}
	return req
}

// catalogLoader is what ingest needs from the catalog.
type catalogLoader interface {
	Load(ctx context.Context) ([]backend.Template, error)
}

// IngestWorkflow uploads a document as a new template version and then
// reloads the catalog once.
type IngestWorkflow struct {
	api     API
	catalog catalogLoader
	logger  *zap.Logger
	rec     *recorder
	result  resultPanel
}

func NewIngestWorkflow(api API, catalog catalogLoader, logger *zap.Logger, rec *recorder) *IngestWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = newRecorder(nil, logger)
	}
	return &IngestWorkflow{api: api, catalog: catalog, logger: logger, rec: rec, result: resultPanel{panel: Panel{Phase: PhaseIdle}}}
}

// Submit ingests the document. Without a file nothing is sent, whatever
// the other fields say. After a successful ingestion the catalog is
// reloaded exactly once; a failed reload never replaces the result.
func (w *IngestWorkflow) Submit(ctx context.Context, sub IngestSubmission) Panel {
	start := time.Now()
	if sub.File == nil {
		p := Panel{Phase: PhaseInvalid, Text: msgSelectFile}
		w.result.set(p)
		w.rec.record(ctx, activity.KindIngest, p, start)
		return p
	}

	w.result.set(Panel{Phase: PhaseSubmitting, Text: msgIngestInProgress})
	req := sub.Request()
	w.logger.Info("ingest submitted",
		zap.String("file", req.File.Filename),
		zap.String("size", humanize.Bytes(uint64(max(req.File.Size, 0)))),
		zap.String("template_name", req.TemplateName),
		zap.String("template_id", req.TemplateID),
		zap.Bool("force", req.Force),
	)

	payload, err := w.api.Ingest(ctx, req)
	if err != nil {
		p := Panel{Phase: PhaseError, Text: msgIngestError + backend.Message(err)}
		w.logger.Warn("ingest failed", zap.String("file", req.File.Filename), zap.Error(err))
		w.result.set(p)
		w.rec.record(ctx, activity.KindIngest, p, start)
		return p
	}

	p := Panel{Phase: PhaseSuccess, Text: payload.Pretty()}
	w.result.set(p)
	w.rec.record(ctx, activity.KindIngest, p, start)

	if w.catalog != nil {
		reloadStart := time.Now()
		if _, err := w.catalog.Load(ctx); err != nil {
			w.logger.Warn("catalog reload after ingest failed", zap.Error(err))
			w.rec.record(ctx, activity.KindCatalog, Panel{Phase: PhaseError, Text: msgRefreshError + backend.Message(err)}, reloadStart)
		}
	}
	return p
}

// Fail shows an error that happened before the document could be sent.
// The catalog is left alone.
func (w *IngestWorkflow) Fail(ctx context.Context, err error) Panel {
	p := Panel{Phase: PhaseError, Text: msgIngestError + err.Error()}
	w.result.set(p)
	w.rec.record(ctx, activity.KindIngest, p, time.Now())
	return p
}

func (w *IngestWorkflow) Panel() Panel {
	return w.result.get()
}
