package table

import "errors"

var (
	// ErrEmptyTable indicates input with no header or no data rows.
	ErrEmptyTable = errors.New("table is empty")
	// ErrBadTable indicates input that does not parse as a uniform table.
	ErrBadTable = errors.New("malformed table")
	// ErrTooLarge indicates a table beyond the accepted size limits.
	ErrTooLarge = errors.New("table too large")
	// ErrNilTable indicates a missing table.
	ErrNilTable = errors.New("table is nil")
	// ErrBadScores indicates scores that do not match the table's cells.
	ErrBadScores = errors.New("scores do not match table")
	// ErrBadThreshold indicates a threshold outside [0,1].
	ErrBadThreshold = errors.New("threshold outside [0,1]")
)
