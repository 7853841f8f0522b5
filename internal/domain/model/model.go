// Package model contains the core contracts shared between training and inference layers.
package model

import "context"

// Batch is one slice of a dataset as consumed by the epoch driver.
type Batch struct {
	Inputs [][]float32 // one feature row per example
	Labels []int       // ground-truth class index per row
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int { return len(b.Inputs) }

// Validate reports whether the batch is usable by a forward pass.
func (b Batch) Validate() error {
	if len(b.Inputs) == 0 {
		return ErrEmptyBatch
	}
	if len(b.Inputs) != len(b.Labels) {
		return ErrShapeMismatch
	}
	width := len(b.Inputs[0])
	for _, row := range b.Inputs {
		if len(row) != width {
			return ErrRaggedInputs
		}
	}
	return nil
}

// Model produces one row of class scores per input row. Native models and
// compiled engines both satisfy it; callers never need to know which one
// they hold.
type Model interface {
	// Forward must not retain or mutate inputs. Higher scores mean more
	// likely classes; rows are not required to be normalized.
	Forward(ctx context.Context, inputs [][]float32) ([][]float32, error)
}

// Optimizer advances a trainable model one step per batch.
type Optimizer interface {
	// ZeroGrad clears gradients accumulated by the previous Backward.
	ZeroGrad()
	// Backward accumulates gradients for the batch given the scores the
	// model produced for it.
	Backward(ctx context.Context, batch Batch, scores [][]float32) error
	// Step applies accumulated gradients to the model parameters.
	Step(ctx context.Context) error
}
