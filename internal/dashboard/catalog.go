package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"go-template-trends-ui/internal/connectors/activity"
	"go-template-trends-ui/internal/connectors/backend"
)

const (
	msgNoTemplates      = "No templates available."
	msgSelectTemplate   = "Select template"
	msgLoadingDetail    = "Loading template detail..."
	msgDetailError      = "Detail error: "
	msgRefreshed        = "Templates refreshed."
	msgRefreshError     = "Refresh error: "
	msgLoadTemplatesErr = "Error loading templates: "
)

// TemplateRow is one line of the template list.
type TemplateRow struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Meta  string `json:"meta"`
	Age   string `json:"age,omitempty"`
}

// CatalogView is what the template list area shows. Error is set only when
// the boot load failed and nothing has loaded since.
type CatalogView struct {
	Placeholder string        `json:"placeholder,omitempty"`
	Error       string        `json:"error,omitempty"`
	Rows        []TemplateRow `json:"rows"`
}

// Option is one entry of a select element.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Catalog caches the backend template list. The snapshot is replaced
// wholesale by each successful load and only handed out as copies.
type Catalog struct {
	api    API
	logger *zap.Logger
	rec    *recorder

	mu       sync.Mutex
	snapshot []backend.Template
	issued   uint64
	applied  uint64
	bootErr  string
	detail   Panel
}

func NewCatalog(api API, logger *zap.Logger, rec *recorder) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = newRecorder(nil, logger)
	}
	return &Catalog{
		api:      api,
		logger:   logger,
		rec:      rec,
		snapshot: []backend.Template{},
		detail:   Panel{Phase: PhaseIdle},
	}
}

// Load fetches the template list. On success the snapshot is replaced and
// a copy returned; on failure the snapshot is left untouched. A load that
// finishes after a later-issued load has been applied is discarded.
func (c *Catalog) Load(ctx context.Context) ([]backend.Template, error) {
	c.mu.Lock()
	c.issued++
	gen := c.issued
	c.mu.Unlock()

	templates, err := c.api.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.applied {
		c.logger.Debug("discarding stale catalog load", zap.Uint64("generation", gen), zap.Uint64("applied", c.applied))
		return copyTemplates(c.snapshot), nil
	}
	c.snapshot = copyTemplates(templates)
	c.applied = gen
	c.bootErr = ""
	return copyTemplates(c.snapshot), nil
}

// LoadInitial is the boot-time load; a failure is shown in the list area.
func (c *Catalog) LoadInitial(ctx context.Context) {
	start := time.Now()
	_, err := c.Load(ctx)
	p := Panel{Phase: PhaseSuccess, Text: "templates loaded"}
	if err != nil {
		p = Panel{Phase: PhaseError, Text: msgLoadTemplatesErr + backend.Message(err)}
		c.mu.Lock()
		c.bootErr = p.Text
		c.mu.Unlock()
		c.logger.Warn("initial catalog load failed", zap.Error(err))
	}
	c.rec.record(ctx, activity.KindCatalog, p, start)
}

// Refresh reloads the catalog and reports the outcome in the detail area.
func (c *Catalog) Refresh(ctx context.Context) Panel {
	start := time.Now()
	p := Panel{Phase: PhaseSuccess, Text: msgRefreshed}
	if _, err := c.Load(ctx); err != nil {
		p = Panel{Phase: PhaseError, Text: msgRefreshError + backend.Message(err)}
		c.logger.Warn("catalog refresh failed", zap.Error(err))
	}
	c.setDetail(p)
	c.rec.record(ctx, activity.KindCatalog, p, start)
	return p
}

// ShowDetail fetches one template record into the detail area.
func (c *Catalog) ShowDetail(ctx context.Context, templateID int64) Panel {
	start := time.Now()
	c.setDetail(Panel{Phase: PhaseSubmitting, Text: msgLoadingDetail})

	p := Panel{Phase: PhaseSuccess}
	payload, err := c.api.GetTemplate(ctx, templateID)
	if err != nil {
		p = Panel{Phase: PhaseError, Text: msgDetailError + backend.Message(err)}
	} else {
		p.Text = payload.Pretty()
	}
	c.setDetail(p)
	c.rec.record(ctx, activity.KindDetail, p, start)
	return p
}

func (c *Catalog) setDetail(p Panel) {
	c.mu.Lock()
	c.detail = p
	c.mu.Unlock()
}

func (c *Catalog) Detail() Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detail
}

// Snapshot returns a copy of the current template list.
func (c *Catalog) Snapshot() []backend.Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyTemplates(c.snapshot)
}

// ListView renders the template list area.
func (c *Catalog) ListView() CatalogView {
	c.mu.Lock()
	templates := copyTemplates(c.snapshot)
	bootErr := c.bootErr
	c.mu.Unlock()

	if bootErr != "" {
		return CatalogView{Error: bootErr, Rows: []TemplateRow{}}
	}
	if len(templates) == 0 {
		return CatalogView{Placeholder: msgNoTemplates, Rows: []TemplateRow{}}
	}
	rows := make([]TemplateRow, 0, len(templates))
	for _, t := range templates {
		row := TemplateRow{
			ID:    t.TemplateID,
			Title: fmt.Sprintf("%s v%d", t.TemplateName, t.TemplateVersion),
			Meta:  fmt.Sprintf("ID %d · %s", t.TemplateID, t.CreatedAt),
		}
		if created, ok := t.CreatedTime(); ok {
			row.Age = humanize.Time(created)
		}
		rows = append(rows, row)
	}
	return CatalogView{Rows: rows}
}

// Options builds the trend template selector from scratch. The first entry
// is the empty prompt; selected marks the matching template, if any.
func (c *Catalog) Options(selected string) []Option {
	templates := c.Snapshot()
	out := make([]Option, 0, len(templates)+1)
	out = append(out, Option{Value: "", Label: msgSelectTemplate, Selected: selected == ""})
	for _, t := range templates {
		value := strconv.FormatInt(t.TemplateID, 10)
		out = append(out, Option{
			Value:    value,
			Label:    TemplateLabel(t),
			Selected: value == selected,
		})
	}
	return out
}

// TemplateLabel is the selector text for t.
func TemplateLabel(t backend.Template) string {
	return fmt.Sprintf("%s v%d (ID %d)", t.TemplateName, t.TemplateVersion, t.TemplateID)
}

func copyTemplates(in []backend.Template) []backend.Template {
	out := make([]backend.Template, len(in))
	copy(out, in)
	return out
}
