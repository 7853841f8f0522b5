package source

import "errors"

// Sentinel errors for dataset loading and batching.
var (
	ErrNoExamples       = errors.New("dataset has no examples")
	ErrSizeMismatch     = errors.New("inputs and labels differ in length")
	ErrInvalidBatchSize = errors.New("batch size must be at least one")
	ErrBadMagic         = errors.New("not an idx dataset file")
)
