package ir

import "github.com/tovenja/quench/internal/domain/quant"

type config struct {
	precision quant.Precision
}

// Option configures conversion.
type Option func(*config)

// WithPrecision selects the storage precision of the converted artifact.
// The default is FP32.
func WithPrecision(p quant.Precision) Option {
	return func(c *config) {
		c.precision = p
	}
}
