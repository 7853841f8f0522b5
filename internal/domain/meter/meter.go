// Package meter tracks running scalar metrics over a stream of batches and
// renders them as progress lines.
package meter

import "fmt"

// Default display format for meter values.
const defaultFormat = "%.4f"

// Meter keeps the current value and running average of a scalar metric.
// A fresh or reset meter reports an average of zero.
type Meter struct {
	name   string
	format string
	tmpl   string
	val    float64
	avg    float64
	sum    float64
	count  int
}

// New creates a meter. The format is a fmt verb applied to both the current
// value and the running average, e.g. "%.3f"; empty selects "%.4f".
func New(name, format string) *Meter {
	if format == "" {
		format = defaultFormat
	}
	return &Meter{
		name:   name,
		format: format,
		tmpl:   "%s " + format + " (" + format + ")",
	}
}

// Reset zeroes the value, sum, count and average.
func (m *Meter) Reset() {
	m.val = 0
	m.avg = 0
	m.sum = 0
	m.count = 0
}

// Update records a value observed over n examples. The value becomes the
// meter's current value and contributes value*n to the running sum; n below
// one counts as one.
func (m *Meter) Update(v float64, n int) {
	if n < 1 {
		n = 1
	}
	m.val = v
	m.sum += v * float64(n)
	m.count += n
	if m.count == n {
		// A lone observation averages to exactly itself.
		m.avg = v
		return
	}
	m.avg = m.sum / float64(m.count)
}

// Add records a value with weight one.
func (m *Meter) Add(v float64) { m.Update(v, 1) }

// Name returns the meter's display name.
func (m *Meter) Name() string { return m.name }

// Value returns the most recently recorded value.
func (m *Meter) Value() float64 { return m.val }

// Sum returns the weighted sum of all recorded values.
func (m *Meter) Sum() float64 { return m.sum }

// Count returns the total weight recorded.
func (m *Meter) Count() int { return m.count }

// Average returns the running average, or zero before the first update.
func (m *Meter) Average() float64 { return m.avg }

// String renders the meter as "<name> <value> (<average>)" using the
// configured format.
func (m *Meter) String() string {
	return fmt.Sprintf(m.tmpl, m.name, m.val, m.avg)
}
