package model

import "errors"

// Sentinel errors for batch validation.
var (
	ErrEmptyBatch    = errors.New("batch has no examples")
	ErrShapeMismatch = errors.New("inputs and labels differ in length")
	ErrRaggedInputs  = errors.New("input rows differ in width")
)
