package native

import (
	"context"

	"github.com/tovenja/quench/internal/domain/quant"
)

// FakeQuant wraps a Linear model for quantization-aware training. Each
// forward pass rounds a scratch copy of the weights through the int8 code
// grid before scoring, so the loss reflects the precision a quantized
// engine will have, while the optimizer keeps updating the full-precision
// weights underneath. Activation ranges are tracked across passes for
// calibrating the compiled engine.
type FakeQuant struct {
	inner   *Linear
	scratch []float32
	weights *quant.Observer
	acts    *quant.Observer
}

// NewFakeQuant wraps the given model.
func NewFakeQuant(inner *Linear) (*FakeQuant, error) {
	if inner == nil {
		return nil, ErrNilModel
	}
	return &FakeQuant{
		inner:   inner,
		scratch: make([]float32, len(inner.weights)),
		weights: quant.NewObserver(),
		acts:    quant.NewObserver(),
	}, nil
}

// Forward scores the inputs through a quantize-dequantize view of the
// current weights.
func (f *FakeQuant) Forward(ctx context.Context, inputs [][]float32) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.weights.Reset()
	f.weights.Observe(f.inner.weights)
	params := quant.CalibrateObserver(f.weights)
	copy(f.scratch, f.inner.weights)
	quant.FakeQuantize(f.scratch, params)
	scores, err := apply(f.scratch, f.inner.bias, f.inner.features, f.inner.classes, inputs)
	if err != nil {
		return nil, err
	}
	for _, row := range scores {
		f.acts.Observe(row)
	}
	return scores, nil
}

// Inner returns the wrapped full-precision model.
func (f *FakeQuant) Inner() *Linear { return f.inner }

// Shape returns the wrapped model's dimensions.
func (f *FakeQuant) Shape() (features, classes int) { return f.inner.Shape() }

// Snapshot returns deep copies of the wrapped model's parameters.
func (f *FakeQuant) Snapshot() (weights, bias []float32) { return f.inner.Snapshot() }

// WeightParams returns quantization parameters calibrated on the current
// weights.
func (f *FakeQuant) WeightParams() quant.Params {
	obs := quant.NewObserver()
	obs.Observe(f.inner.weights)
	return quant.CalibrateObserver(obs)
}

// ActivationParams returns quantization parameters calibrated on every
// activation seen so far.
func (f *FakeQuant) ActivationParams() quant.Params {
	return quant.CalibrateObserver(f.acts)
}
