// Package source provides batch-producing dataset adapters for the epoch
// driver.
package source

import (
	"context"

	model "github.com/tovenja/quench/internal/domain/model"
)

// Source yields one pass over a dataset as an ordered stream of batches.
type Source interface {
	// Batches returns a channel that yields the pass's batches in order and
	// closes when the pass ends or ctx is canceled.
	Batches(ctx context.Context) <-chan model.Batch
	// Len returns the number of batches a full pass yields.
	Len() int
	// Err reports the first failure encountered while producing batches.
	// It is only meaningful after the channel from Batches has closed.
	Err() error
}
