package runstore

import "errors"

var (
	// ErrInvalidRun indicates a run missing its required fields.
	ErrInvalidRun = errors.New("run is missing id, model or mode")
	// ErrInvalidLimit indicates a non-positive list limit.
	ErrInvalidLimit = errors.New("invalid list limit")
	// ErrDuplicateRun indicates a run ID that is already recorded.
	ErrDuplicateRun = errors.New("run already recorded")
)
