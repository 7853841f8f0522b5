package engine

import "errors"

var (
	// ErrNilArtifact indicates a missing artifact.
	ErrNilArtifact = errors.New("artifact is nil")
	// ErrUnsupportedDevice indicates a device this build cannot target.
	ErrUnsupportedDevice = errors.New("unsupported device")
	// ErrBadShape indicates an input width that does not match the engine.
	ErrBadShape = errors.New("input shape does not match engine")
)
