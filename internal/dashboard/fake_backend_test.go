package dashboard

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-template-trends-ui/internal/connectors/activity"
	"go-template-trends-ui/internal/connectors/backend"
)

// fakeBackend is an httptest server that counts requests per path.
type fakeBackend struct {
	mu     sync.Mutex
	counts map[string]int
	total  int32
	mux    *http.ServeMux
	srv    *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	f := &fakeBackend{counts: map[string]int{}, mux: http.NewServeMux()}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.counts[r.URL.Path]++
		f.mu.Unlock()
		atomic.AddInt32(&f.total, 1)
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBackend) handle(pattern string, h http.HandlerFunc) {
	f.mux.HandleFunc(pattern, h)
}

func (f *fakeBackend) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[path]
}

func (f *fakeBackend) requests() int {
	return int(atomic.LoadInt32(&f.total))
}

func (f *fakeBackend) client() *backend.Client {
	return backend.NewClient(f.srv.URL, 0, nil)
}

func writeJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// memRecorder collects activity entries in memory.
type memRecorder struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (m *memRecorder) Record(_ context.Context, e activity.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memRecorder) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Kind+":"+e.Outcome)
	}
	return out
}

func upload(name string) *backend.Upload {
	return &backend.Upload{Filename: name, Reader: strings.NewReader("content"), Size: 7}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for backend request")
	}
}
