package eval

import "errors"

// Sentinel errors for invalid evaluator input.
var (
	ErrEmptyBatch     = errors.New("score matrix has no examples")
	ErrLengthMismatch = errors.New("labels and score rows differ in length")
	ErrRaggedScores   = errors.New("score rows differ in width")
	ErrInvalidTopK    = errors.New("top-k cutoff out of range")
	ErrLabelRange     = errors.New("label outside class range")
)
