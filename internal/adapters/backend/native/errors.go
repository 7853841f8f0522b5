package native

import "errors"

var (
	// ErrBadShape indicates a dimension that does not match the model.
	ErrBadShape = errors.New("input shape does not match model")
	// ErrBadParameters indicates parameter slices of the wrong length.
	ErrBadParameters = errors.New("parameter lengths do not match model shape")
	// ErrBadScores indicates a score matrix that does not match the batch.
	ErrBadScores = errors.New("scores do not match batch")
	// ErrBadLabel indicates a label outside the model's class range.
	ErrBadLabel = errors.New("label outside class range")
	// ErrNilModel indicates a missing model.
	ErrNilModel = errors.New("model is nil")
)
