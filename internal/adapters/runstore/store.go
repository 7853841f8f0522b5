// Package runstore records completed training and evaluation runs.
package runstore

import (
	"context"
	"time"
)

// Run is one recorded pass of the harness.
type Run struct {
	ID         string    `db:"id" json:"id"`
	Model      string    `db:"model" json:"model"`
	Mode       string    `db:"mode" json:"mode"`
	Device     string    `db:"device" json:"device"`
	Epochs     int       `db:"epochs" json:"epochs"`
	FinalLoss  float64   `db:"final_loss" json:"final_loss"`
	FinalTop1  float64   `db:"final_top1" json:"final_top1"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	DurationMS int64     `db:"duration_ms" json:"duration_ms"`
}

// Store provides access to run history.
type Store interface {
	// Record persists one run. The caller supplies the ID.
	Record(ctx context.Context, run Run) error
	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]Run, error)
	// Count returns the number of recorded runs.
	Count(ctx context.Context) (int, error)
	// Close releases the underlying storage.
	Close() error
}

// validate checks the fields every implementation requires.
func validate(run Run) error {
	if run.ID == "" || run.Model == "" || run.Mode == "" {
		return ErrInvalidRun
	}
	return nil
}
