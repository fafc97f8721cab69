// Package activity persists the outcome of every dashboard action so the
// operator can see what was submitted and how it ended.
package activity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-template-trends-ui/internal/config"
)

// Kinds of recorded actions.
const (
	KindAnalyze = "analyze"
	KindIngest  = "ingest"
	KindTrend   = "trend"
	KindCatalog = "catalog"
	KindDetail  = "detail"
)

// Outcomes of a recorded action.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// Entry is one recorded action.
type Entry struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// maxMessageLen bounds stored messages; pretty-printed payloads can be large.
const maxMessageLen = 2000

func (e Entry) normalized() Entry {
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	if len(e.Message) > maxMessageLen {
		e.Message = strings.ToValidUTF8(e.Message[:maxMessageLen], "")
	}
	return e
}

// Store records entries and lists the most recent ones, newest first.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Nop discards everything. It is used when no activity store is configured.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error          { return nil }
func (Nop) Recent(context.Context, int) ([]Entry, error) { return []Entry{}, nil }
func (Nop) Close() error                                 { return nil }

// Open returns the store selected by cfg.ActivityStore.
func Open(cfg config.Config) (Store, error) {
	switch cfg.ActivityStore {
	case "sqlite":
		store, err := NewSQLiteStore(cfg.ActivitySQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "mysql":
		store, err := NewMySQLStore(cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return Nop{}, nil
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
