package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrNotStarted is returned when a request arrives before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrNoModel is returned when neither a local artifact nor a hub
	// manifest is configured.
	ErrNoModel = errors.New("no model available")
)
