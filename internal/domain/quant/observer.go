package quant

// Observer tracks the running minimum and maximum of observed values.
// One observer per tensor; feed it batches during calibration and derive
// quantization parameters from the final range.
type Observer struct {
	min  float64
	max  float64
	seen bool
}

// NewObserver creates an observer with an empty range.
func NewObserver() *Observer {
	return &Observer{}
}

// Observe widens the range to cover every value in the slice.
func (o *Observer) Observe(values []float32) {
	for _, v := range values {
		o.ObserveValue(float64(v))
	}
}

// ObserveValue widens the range to cover a single value.
func (o *Observer) ObserveValue(v float64) {
	if !o.seen {
		o.min = v
		o.max = v
		o.seen = true
		return
	}
	if v < o.min {
		o.min = v
	}
	if v > o.max {
		o.max = v
	}
}

// Range returns the observed minimum and maximum, or zeros if nothing has
// been observed yet.
func (o *Observer) Range() (min, max float64) {
	if !o.seen {
		return 0, 0
	}
	return o.min, o.max
}

// Seen reports whether any value has been observed.
func (o *Observer) Seen() bool { return o.seen }

// Reset clears the observed range.
func (o *Observer) Reset() {
	o.min = 0
	o.max = 0
	o.seen = false
}
