package dashboard

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIngestFixture(t *testing.T, ingest http.HandlerFunc, templates http.HandlerFunc) (*fakeBackend, *IngestWorkflow, *Catalog, *memRecorder) {
	t.Helper()
	fb := newFakeBackend(t)
	fb.handle("/template/ingest", ingest)
	fb.handle("/templates", templates)
	rec := &memRecorder{}
	r := newRecorder(rec, zap.NewNop())
	catalog := NewCatalog(fb.client(), zap.NewNop(), r)
	return fb, NewIngestWorkflow(fb.client(), catalog, zap.NewNop(), r), catalog, rec
}

func TestAnalyze_RequiresFile(t *testing.T) {
	fb := newFakeBackend(t)
	w := NewAnalyzeWorkflow(fb.client(), zap.NewNop(), nil)

	p := w.Submit(context.Background(), nil)
	assert.Equal(t, Panel{Phase: PhaseInvalid, Text: "Select a file"}, p)
	assert.Equal(t, 0, fb.requests())
}

func TestAnalyze_SuccessAndError(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/template/analyze", writeJSON(http.StatusOK, `{"sheets":2}`))
	w := NewAnalyzeWorkflow(fb.client(), zap.NewNop(), nil)

	p := w.Submit(context.Background(), upload("a.xlsx"))
	assert.Equal(t, Panel{Phase: PhaseSuccess, Text: "{\n  \"sheets\": 2\n}"}, p)

	fb2 := newFakeBackend(t)
	fb2.handle("/template/analyze", writeJSON(http.StatusUnprocessableEntity, `{"detail":{"message":"unsupported format"}}`))
	w2 := NewAnalyzeWorkflow(fb2.client(), zap.NewNop(), nil)

	p = w2.Submit(context.Background(), upload("a.txt"))
	assert.Equal(t, Panel{Phase: PhaseError, Text: "Analysis error: unsupported format"}, p)
	assert.Equal(t, p, w2.Panel())
}

func TestIngest_NoFileSendsNothing(t *testing.T) {
	fb, w, _, rec := newIngestFixture(t,
		writeJSON(http.StatusOK, `{}`),
		writeJSON(http.StatusOK, `[]`),
	)

	p := w.Submit(context.Background(), IngestSubmission{Force: true, TemplateName: "MNP"})
	assert.Equal(t, Panel{Phase: PhaseInvalid, Text: "Select a file"}, p)
	assert.Equal(t, 0, fb.requests())
	assert.Equal(t, []string{"ingest:invalid"}, rec.kinds())
}

func TestIngest_SuccessReloadsCatalogOnce(t *testing.T) {
	fb, w, catalog, _ := newIngestFixture(t,
		writeJSON(http.StatusOK, `{"template_id":1,"inserted_rows":12}`),
		writeJSON(http.StatusOK, twoTemplates),
	)

	p := w.Submit(context.Background(), IngestSubmission{File: upload("m.xlsx"), TemplateName: " MNP ", Force: false})
	assert.Equal(t, PhaseSuccess, p.Phase)
	assert.Contains(t, p.Text, `"inserted_rows": 12`)
	assert.Equal(t, 1, fb.count("/template/ingest"))
	assert.Equal(t, 1, fb.count("/templates"))
	assert.Len(t, catalog.Snapshot(), 2)
}

func TestIngest_FailureDoesNotReload(t *testing.T) {
	fb, w, _, _ := newIngestFixture(t,
		writeJSON(http.StatusConflict, `{"detail":"duplicate file"}`),
		writeJSON(http.StatusOK, twoTemplates),
	)

	p := w.Submit(context.Background(), IngestSubmission{File: upload("m.xlsx"), Force: true})
	assert.Equal(t, Panel{Phase: PhaseError, Text: "Ingestion error: duplicate file"}, p)
	assert.Equal(t, 0, fb.count("/templates"))
}

func TestIngest_FailedReloadKeepsResult(t *testing.T) {
	_, w, _, rec := newIngestFixture(t,
		writeJSON(http.StatusOK, `{"inserted_rows":3}`),
		writeJSON(http.StatusBadGateway, `{"detail":"catalog offline"}`),
	)

	p := w.Submit(context.Background(), IngestSubmission{File: upload("m.xlsx")})
	require.Equal(t, PhaseSuccess, p.Phase)
	assert.Equal(t, p, w.Panel())
	assert.Equal(t, []string{"ingest:success", "catalog:error"}, rec.kinds())
}

func TestIngestSubmission_Request(t *testing.T) {
	req := IngestSubmission{File: upload("x.csv"), TemplateName: "  A ", TemplateID: " 4 ", Force: true}.Request()
	assert.Equal(t, "x.csv", req.File.Filename)
	assert.Equal(t, "A", req.TemplateName)
	assert.Equal(t, "4", req.TemplateID)
	assert.True(t, req.Force)
}
