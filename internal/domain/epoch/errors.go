package epoch

import "errors"

var (
	// ErrNoBatches indicates a source that yielded nothing.
	ErrNoBatches = errors.New("source yielded no batches")
	// ErrNilSource indicates a missing source.
	ErrNilSource = errors.New("source is nil")
	// ErrNilModel indicates a missing model.
	ErrNilModel = errors.New("model is nil")
	// ErrNilOptimizer indicates a training call without an optimizer.
	ErrNilOptimizer = errors.New("optimizer is nil")
)
