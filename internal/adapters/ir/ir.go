// Package ir defines the portable artifact format trained models are
// exported to. An artifact carries a versioned header describing the
// topology plus the parameter payload, optionally quantized to int8, and
// is what the inference engine compiles from.
package ir

import (
	"context"
	"fmt"

	"github.com/tovenja/quench/internal/domain/model"
	"github.com/tovenja/quench/internal/domain/quant"
	"github.com/tovenja/quench/pkg/metrics"
)

// ArchLinear names the only topology the format currently carries.
const ArchLinear = "linear"

// artifactVersion is bumped on incompatible format changes.
const artifactVersion = 1

// Exportable is a trained model that can be captured into an artifact.
type Exportable interface {
	model.Model
	Shape() (features, classes int)
	Snapshot() (weights, bias []float32)
}

// Header describes an artifact's topology and storage precision. Scale and
// Zero are the affine quantization parameters and are only set for INT8.
type Header struct {
	Arch      string          `json:"arch"`
	Version   int             `json:"version"`
	Features  int             `json:"features"`
	Classes   int             `json:"classes"`
	Precision quant.Precision `json:"precision"`
	Scale     float64         `json:"scale,omitempty"`
	Zero      int             `json:"zero,omitempty"`
}

// Artifact is a model captured for serialization. Exactly one of Weights
// (FP32) or Codes (INT8) holds the weight matrix; Bias is always float32.
type Artifact struct {
	Header  Header
	Weights []float32
	Codes   []int8
	Bias    []float32
}

// Convert captures an exportable model into an artifact. One forward pass
// over the example input verifies that the model's topology matches what it
// actually computes before the parameters are trusted.
func Convert(ctx context.Context, m Exportable, example [][]float32, opts ...Option) (*Artifact, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	if len(example) == 0 {
		return nil, ErrNoExample
	}
	cfg := config{precision: quant.FP32}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.precision.Valid() {
		return nil, fmt.Errorf("%w: %q", quant.ErrUnknownPrecision, cfg.precision)
	}

	features, classes := m.Shape()
	scores, err := m.Forward(ctx, example)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(example) {
		return nil, fmt.Errorf("%w: %d example rows produced %d score rows", ErrShapeMismatch, len(example), len(scores))
	}
	for _, row := range scores {
		if len(row) != classes {
			return nil, fmt.Errorf("%w: topology says %d classes, forward produced %d", ErrShapeMismatch, classes, len(row))
		}
	}
	weights, bias := m.Snapshot()
	if len(weights) != classes*features || len(bias) != classes {
		return nil, fmt.Errorf("%w: parameter lengths do not match topology", ErrShapeMismatch)
	}

	art := &Artifact{
		Header: Header{
			Arch:      ArchLinear,
			Version:   artifactVersion,
			Features:  features,
			Classes:   classes,
			Precision: cfg.precision,
		},
		Bias: bias,
	}
	switch cfg.precision {
	case quant.INT8:
		obs := quant.NewObserver()
		obs.Observe(weights)
		params := quant.CalibrateObserver(obs)
		codes := make([]int8, len(weights))
		params.QuantizeSlice(codes, weights)
		art.Codes = codes
		art.Header.Scale = params.Scale
		art.Header.Zero = params.Zero
	default:
		art.Weights = weights
	}

	metrics.RecordArtifactConverted()
	return art, nil
}

// Parameters returns the dense float32 weights and bias. INT8 artifacts are
// dequantized through their stored scale and zero point; the returned slices
// are copies the caller may keep.
func (a *Artifact) Parameters() (weights, bias []float32) {
	if a.Header.Precision == quant.INT8 {
		params := quant.Params{Scale: a.Header.Scale, Zero: a.Header.Zero}
		weights = make([]float32, len(a.Codes))
		params.DequantizeSlice(weights, a.Codes)
	} else {
		weights = make([]float32, len(a.Weights))
		copy(weights, a.Weights)
	}
	bias = make([]float32, len(a.Bias))
	copy(bias, a.Bias)
	return weights, bias
}
