package ir

import "errors"

var (
	// ErrNilModel indicates a missing model.
	ErrNilModel = errors.New("model is nil")
	// ErrNoExample indicates conversion without an example input.
	ErrNoExample = errors.New("example input is empty")
	// ErrShapeMismatch indicates a model whose parameters disagree with its
	// declared topology.
	ErrShapeMismatch = errors.New("model shape mismatch")
	// ErrBadArtifact indicates a file that is not a readable artifact.
	ErrBadArtifact = errors.New("bad artifact")
)
