package encode

import "errors"

var (
	// ErrBadDims indicates a non-positive feature width.
	ErrBadDims = errors.New("feature width must be positive")
	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrNilTable indicates a missing table.
	ErrNilTable = errors.New("table is nil")
)
