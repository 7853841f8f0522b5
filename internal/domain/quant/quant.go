// Package quant implements range calibration and affine int8 quantization
// for model weights and activations.
package quant

import "strings"

// Precision identifies the numeric precision an artifact is stored in.
type Precision string

// Supported precisions.
const (
	FP32 Precision = "FP32"
	INT8 Precision = "INT8"
)

// Valid reports whether the precision is one the harness supports.
func (p Precision) Valid() bool {
	return p == FP32 || p == INT8
}

// String returns the canonical name of the precision.
func (p Precision) String() string { return string(p) }

// ParsePrecision normalizes a precision name. It accepts any casing.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FP32", "FLOAT32", "":
		return FP32, nil
	case "INT8":
		return INT8, nil
	default:
		return "", ErrUnknownPrecision
	}
}
