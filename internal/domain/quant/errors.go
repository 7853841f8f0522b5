package quant

import "errors"

// Sentinel errors for quantization configuration.
var (
	ErrUnknownPrecision = errors.New("unknown precision")
)
