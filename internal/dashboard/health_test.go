package dashboard

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_Badge(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/health", writeJSON(http.StatusOK, `{"status":"ok"}`))
	h := NewHealthMonitor(fb.client(), 10)

	assert.Equal(t, Badge{Text: "API: checking"}, h.Badge())
	assert.Equal(t, Badge{Text: "API: ok"}, h.Probe(context.Background()))
}

func TestHealth_OfflineOnError(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/health", writeJSON(http.StatusServiceUnavailable, `{"status":"degraded"}`))
	h := NewHealthMonitor(fb.client(), 10)

	assert.Equal(t, Badge{Text: "API: offline", Warn: true}, h.Probe(context.Background()))
	history := h.History()
	require.Len(t, history, 1)
	assert.False(t, history[0].OK)
}

func TestHealth_HistoryIsBounded(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/health", writeJSON(http.StatusOK, `{"status":"ok"}`))
	h := NewHealthMonitor(fb.client(), 3)

	for i := 0; i < 5; i++ {
		h.Probe(context.Background())
	}
	history := h.History()
	require.Len(t, history, 3)
	assert.False(t, history[0].At.After(history[2].At))
	assert.Equal(t, 5, fb.count("/health"))
}

func TestHealth_CheckDoesNotRecord(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/health", writeJSON(http.StatusOK, `{"status":"ok"}`))
	h := NewHealthMonitor(fb.client(), 10)

	badge, _, err := h.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Badge{Text: "API: ok"}, badge)

	assert.Equal(t, Badge{Text: "API: checking"}, h.Badge())
	assert.Empty(t, h.History())
	assert.Equal(t, 1, fb.count("/health"))
}
