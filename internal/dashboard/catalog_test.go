package dashboard

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const twoTemplates = `[
 {"template_id":1,"template_name":"MNP","template_version":1,"created_at":"2024-01-10T08:00:00"},
 {"template_id":2,"template_name":"Churn","template_version":3,"created_at":"2024-02-11T09:30:00"}
]`

func TestCatalog_LoadReplacesSnapshot(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/templates", writeJSON(http.StatusOK, twoTemplates))
	c := NewCatalog(fb.client(), zap.NewNop(), nil)

	assert.Empty(t, c.Snapshot())

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	got[0].TemplateName = "mutated"
	assert.Equal(t, "MNP", c.Snapshot()[0].TemplateName)
}

func TestCatalog_FailedLoadKeepsSnapshot(t *testing.T) {
	fb := newFakeBackend(t)
	fail := false
	var mu sync.Mutex
	fb.handle("/templates", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			writeJSON(http.StatusServiceUnavailable, `{"detail":"db down"}`)(w, r)
			return
		}
		writeJSON(http.StatusOK, twoTemplates)(w, r)
	})
	c := NewCatalog(fb.client(), zap.NewNop(), nil)

	_, err := c.Load(context.Background())
	require.NoError(t, err)

	mu.Lock()
	fail = true
	mu.Unlock()

	_, err = c.Load(context.Background())
	require.Error(t, err)
	assert.Len(t, c.Snapshot(), 2)

	p := c.Refresh(context.Background())
	assert.Equal(t, Panel{Phase: PhaseError, Text: "Refresh error: db down"}, p)
	assert.Equal(t, p, c.Detail())
	assert.Len(t, c.ListView().Rows, 2)
}

func TestCatalog_StaleLoadIsDiscarded(t *testing.T) {
	fb := newFakeBackend(t)
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var calls int
	var mu sync.Mutex
	fb.handle("/templates", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			<-releaseFirst
			writeJSON(http.StatusOK, `[{"template_id":9,"template_name":"old","template_version":1,"created_at":""}]`)(w, r)
			return
		}
		writeJSON(http.StatusOK, twoTemplates)(w, r)
	})
	c := NewCatalog(fb.client(), zap.NewNop(), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Load(context.Background())
	}()
	waitFor(t, firstStarted)

	_, err := c.Load(context.Background())
	require.NoError(t, err)
	close(releaseFirst)
	waitFor(t, done)

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "MNP", snap[0].TemplateName)
}

func TestCatalog_ListViewAndOptions(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/templates", writeJSON(http.StatusOK, twoTemplates))
	c := NewCatalog(fb.client(), zap.NewNop(), nil)

	empty := c.ListView()
	assert.Equal(t, "No templates available.", empty.Placeholder)
	assert.Empty(t, empty.Rows)
	assert.Equal(t, []Option{{Value: "", Label: "Select template", Selected: true}}, c.Options(""))

	_, err := c.Load(context.Background())
	require.NoError(t, err)

	view := c.ListView()
	assert.Empty(t, view.Placeholder)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "Churn v3", view.Rows[1].Title)
	assert.Equal(t, "ID 2 · 2024-02-11T09:30:00", view.Rows[1].Meta)
	assert.NotEmpty(t, view.Rows[1].Age)

	opts := c.Options("2")
	require.Len(t, opts, 3)
	assert.Equal(t, Option{Value: "", Label: "Select template"}, opts[0])
	assert.Equal(t, Option{Value: "1", Label: "MNP v1 (ID 1)"}, opts[1])
	assert.Equal(t, Option{Value: "2", Label: "Churn v3 (ID 2)", Selected: true}, opts[2])
}

func TestCatalog_BootFailureShownInList(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/templates", writeJSON(http.StatusInternalServerError, `{"message":"boom"}`))
	rec := &memRecorder{}
	c := NewCatalog(fb.client(), zap.NewNop(), newRecorder(rec, zap.NewNop()))

	c.LoadInitial(context.Background())

	assert.Equal(t, "Error loading templates: boom", c.ListView().Error)
	assert.Equal(t, []string{"catalog:error"}, rec.kinds())
}

func TestCatalog_ShowDetail(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/template/1", writeJSON(http.StatusOK, `{"template_id":1,"schema":{"sheets":["A"]}}`))
	fb.handle("/template/5", writeJSON(http.StatusNotFound, `{"detail":"Template not found"}`))
	c := NewCatalog(fb.client(), zap.NewNop(), nil)

	p := c.ShowDetail(context.Background(), 1)
	assert.Equal(t, PhaseSuccess, p.Phase)
	assert.Equal(t, "{\n  \"template_id\": 1,\n  \"schema\": {\n    \"sheets\": [\n      \"A\"\n    ]\n  }\n}", p.Text)

	p = c.ShowDetail(context.Background(), 5)
	assert.Equal(t, Panel{Phase: PhaseError, Text: "Detail error: Template not found"}, p)
	assert.Equal(t, p, c.Detail())
}

func TestCatalog_RefreshSuccess(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/templates", writeJSON(http.StatusOK, twoTemplates))
	c := NewCatalog(fb.client(), zap.NewNop(), nil)

	p := c.Refresh(context.Background())
	assert.Equal(t, Panel{Phase: PhaseSuccess, Text: "Templates refreshed."}, p)
	assert.Len(t, c.Snapshot(), 2)
}
