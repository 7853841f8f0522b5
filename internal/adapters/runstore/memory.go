package runstore

import (
	"context"
	"sort"
	"sync"

	"github.com/tovenja/quench/pkg/metrics"
)

// Memory keeps runs in process memory. It backs db-less deployments and
// tests and honors the same semantics as the SQLite store.
type Memory struct {
	mu   sync.RWMutex
	runs []Run
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Record persists one run.
func (m *Memory) Record(_ context.Context, run Run) error {
	if err := validate(run); err != nil {
		metrics.RecordRunstoreError()
		return err
	}
	run.StartedAt = run.StartedAt.UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.runs {
		if existing.ID == run.ID {
			metrics.RecordRunstoreError()
			return ErrDuplicateRun
		}
	}
	m.runs = append(m.runs, run)
	metrics.RecordRunRecorded()
	return nil
}

// List returns up to limit runs, newest first.
func (m *Memory) List(_ context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	m.mu.RLock()
	runs := make([]Run, len(m.runs))
	copy(runs, m.runs)
	m.mu.RUnlock()

	sort.Slice(runs, func(a, b int) bool {
		if !runs[a].StartedAt.Equal(runs[b].StartedAt) {
			return runs[a].StartedAt.After(runs[b].StartedAt)
		}
		return runs[a].ID < runs[b].ID
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Count returns the number of recorded runs.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs), nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
