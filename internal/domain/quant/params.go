package quant

import "math"

// Quantized code range for signed 8-bit values.
const (
	codeMin = -128
	codeMax = 127
	// codeSpan is the number of steps between the lowest and highest code.
	codeSpan = 255
)

// Params holds the affine mapping between float values and int8 codes:
// code = round(value/Scale) + Zero, value = Scale * (code - Zero).
type Params struct {
	Scale float64
	Zero  int
}

// Calibrate derives quantization parameters from an observed value range.
// The range is widened to include zero so that zero always quantizes
// exactly; a degenerate range maps everything to code zero.
func Calibrate(min, max float64) Params {
	if min > 0 {
		min = 0
	}
	if max < 0 {
		max = 0
	}
	if max == min {
		return Params{Scale: 1, Zero: 0}
	}
	scale := (max - min) / codeSpan
	zero := int(math.Round(codeMin - min/scale))
	if zero < codeMin {
		zero = codeMin
	}
	if zero > codeMax {
		zero = codeMax
	}
	return Params{Scale: scale, Zero: zero}
}

// CalibrateObserver derives parameters from an observer's recorded range.
func CalibrateObserver(o *Observer) Params {
	min, max := o.Range()
	return Calibrate(min, max)
}

// Quantize maps one value onto the int8 code grid.
func (p Params) Quantize(v float32) int8 {
	code := int(math.Round(float64(v)/p.Scale)) + p.Zero
	if code < codeMin {
		code = codeMin
	}
	if code > codeMax {
		code = codeMax
	}
	return int8(code)
}

// Dequantize maps one code back to its float value.
func (p Params) Dequantize(q int8) float32 {
	return float32(p.Scale * float64(int(q)-p.Zero))
}

// QuantizeSlice fills dst with the quantized codes of src. Both slices must
// have the same length.
func (p Params) QuantizeSlice(dst []int8, src []float32) {
	for i, v := range src {
		dst[i] = p.Quantize(v)
	}
}

// DequantizeSlice fills dst with the float values of the codes in src. Both
// slices must have the same length.
func (p Params) DequantizeSlice(dst []float32, src []int8) {
	for i, q := range src {
		dst[i] = p.Dequantize(q)
	}
}

// FakeQuantize rounds values through the code grid in place, so training
// sees the precision loss quantized inference will have.
func FakeQuantize(values []float32, p Params) {
	for i, v := range values {
		values[i] = p.Dequantize(p.Quantize(v))
	}
}
