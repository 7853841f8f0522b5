// Package native implements the in-process float32 classifier backend.
package native

import (
	"context"
	"math/rand"
)

// Default initialization constants.
const (
	defaultSeed     = 1
	initWeightScale = 0.01
)

// Linear is a single-layer softmax classifier: scores = W*x + b. It is the
// trainable counterpart of a compiled engine and satisfies model.Model.
type Linear struct {
	features int
	classes  int
	weights  []float32 // row-major [classes][features]
	bias     []float32
}

// NewLinear creates a classifier with small random weights and zero bias.
func NewLinear(features, classes int, opts ...Option) (*Linear, error) {
	if features < 1 || classes < 1 {
		return nil, ErrBadShape
	}
	cfg := config{seed: defaultSeed}
	for _, opt := range opts {
		opt(&cfg)
	}
	rng := rand.New(rand.NewSource(cfg.seed)) //nolint:gosec // deterministic init, not security sensitive
	weights := make([]float32, classes*features)
	for i := range weights {
		weights[i] = float32((rng.Float64()*2 - 1) * initWeightScale)
	}
	return &Linear{
		features: features,
		classes:  classes,
		weights:  weights,
		bias:     make([]float32, classes),
	}, nil
}

// Features returns the input width the model expects.
func (l *Linear) Features() int { return l.features }

// Classes returns the number of score columns the model produces.
func (l *Linear) Classes() int { return l.classes }

// Forward computes one score row per input row.
func (l *Linear) Forward(ctx context.Context, inputs [][]float32) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return apply(l.weights, l.bias, l.features, l.classes, inputs)
}

// Snapshot returns deep copies of the weight matrix and bias vector.
func (l *Linear) Snapshot() (weights, bias []float32) {
	weights = make([]float32, len(l.weights))
	copy(weights, l.weights)
	bias = make([]float32, len(l.bias))
	copy(bias, l.bias)
	return weights, bias
}

// Shape returns the model's input and output widths.
func (l *Linear) Shape() (features, classes int) {
	return l.features, l.classes
}

// Clone returns an independent model with identical parameters.
func (l *Linear) Clone() *Linear {
	weights, bias := l.Snapshot()
	return &Linear{
		features: l.features,
		classes:  l.classes,
		weights:  weights,
		bias:     bias,
	}
}

// SetParameters replaces the model's weights and bias with copies of the
// given slices.
func (l *Linear) SetParameters(weights, bias []float32) error {
	if len(weights) != l.classes*l.features || len(bias) != l.classes {
		return ErrBadParameters
	}
	copy(l.weights, weights)
	copy(l.bias, bias)
	return nil
}

// apply runs the affine transform for every input row.
func apply(weights, bias []float32, features, classes int, inputs [][]float32) ([][]float32, error) {
	scores := make([][]float32, len(inputs))
	for i, input := range inputs {
		if len(input) != features {
			return nil, ErrBadShape
		}
		row := make([]float32, classes)
		for c := 0; c < classes; c++ {
			sum := bias[c]
			wStart := c * features
			for j, v := range input {
				sum += weights[wStart+j] * v
			}
			row[c] = sum
		}
		scores[i] = row
	}
	return scores, nil
}
