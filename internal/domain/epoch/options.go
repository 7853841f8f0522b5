package epoch

import "github.com/tovenja/quench/pkg/logger"

type config struct {
	ks          []int
	reportEvery int
	prefix      string
	log         logger.Logger
}

// Option configures a driver.
type Option func(*config)

// WithTopK sets the accuracy cutoffs evaluated per batch. Every cutoff must
// be valid for the model's class count; an empty call keeps the default.
func WithTopK(ks ...int) Option {
	return func(c *config) {
		if len(ks) > 0 {
			c.ks = ks
		}
	}
}

// WithReportEvery sets how many batches pass between progress lines.
// Zero or negative disables periodic reporting.
func WithReportEvery(n int) Option {
	return func(c *config) {
		c.reportEvery = n
	}
}

// WithPrefix sets the leading text of every progress line.
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithLogger overrides the process logger.
func WithLogger(log logger.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}
