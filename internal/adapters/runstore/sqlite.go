package runstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/tovenja/quench/pkg/metrics"
)

// maxListLimit caps how many runs one List call returns.
const maxListLimit = 500

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	model       TEXT NOT NULL,
	mode        TEXT NOT NULL,
	device      TEXT NOT NULL,
	epochs      INTEGER NOT NULL,
	final_loss  REAL NOT NULL,
	final_top1  REAL NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`

const insertRun = `
INSERT INTO runs (id, model, mode, device, epochs, final_loss, final_top1, started_at, duration_ms)
VALUES (:id, :model, :mode, :device, :epochs, :final_loss, :final_top1, :started_at, :duration_ms)`

const selectRuns = `
SELECT id, model, mode, device, epochs, final_loss, final_top1, started_at, duration_ms
FROM runs ORDER BY started_at DESC, id ASC LIMIT ?`

// SQLite stores runs in a SQLite database file, or in memory with the
// ":memory:" path.
type SQLite struct {
	db           *sqlx.DB
	maxOpenConns int
}

// NewSQLite opens (and if needed initializes) the run database at path.
func NewSQLite(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	s := &SQLite{maxOpenConns: 1}
	for _, opt := range opts {
		opt(s)
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps writers serialized; it is also what makes
	// ":memory:" behave as one database rather than one per connection.
	db.SetMaxOpenConns(s.maxOpenConns)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.db = db
	return s, nil
}

// Record persists one run.
func (s *SQLite) Record(ctx context.Context, run Run) error {
	if err := validate(run); err != nil {
		metrics.RecordRunstoreError()
		return err
	}
	run.StartedAt = run.StartedAt.UTC()
	start := time.Now()
	if _, err := s.db.NamedExecContext(ctx, insertRun, run); err != nil {
		metrics.RecordRunstoreError()
		return err
	}
	metrics.RecordRunstoreWriteLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordRunRecorded()
	return nil
}

// List returns up to limit runs, newest first.
func (s *SQLite) List(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	start := time.Now()
	var runs []Run
	if err := s.db.SelectContext(ctx, &runs, selectRuns, limit); err != nil {
		metrics.RecordRunstoreError()
		return nil, err
	}
	metrics.RecordRunstoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return runs, nil
}

// Count returns the number of recorded runs.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM runs`); err != nil {
		metrics.RecordRunstoreError()
		return 0, err
	}
	return count, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
