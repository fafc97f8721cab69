package activity

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"go-template-trends-ui/internal/config"
)

// MySQLStore keeps the activity log in a shared MySQL database.
type MySQLStore struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewMySQLStore connects using the APP_DB_* settings and creates the table
// when missing.
func NewMySQLStore(cfg config.Config) (*MySQLStore, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS activity_log (
  seq BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  id CHAR(36) NOT NULL,
  kind VARCHAR(32) NOT NULL,
  outcome VARCHAR(16) NOT NULL,
  message TEXT NOT NULL,
  duration_ms BIGINT NOT NULL DEFAULT 0,
  created_at DATETIME(3) NOT NULL,
  UNIQUE KEY uq_activity_id (id),
  KEY idx_activity_kind (kind)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`); err != nil {
		_ = db.Close()
		return nil, err
	}

	timeout := cfg.DBQueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MySQLStore{db: db, queryTimeout: timeout}, nil
}

func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *MySQLStore) Record(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	e = e.normalized()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO activity_log (id, kind, outcome, message, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?);
`, e.ID, e.Kind, e.Outcome, e.Message, e.DurationMS, e.CreatedAt)
	return err
}

func (s *MySQLStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
SELECT id, kind, outcome, message, duration_ms, created_at
FROM activity_log
ORDER BY seq DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows, limit)
}
