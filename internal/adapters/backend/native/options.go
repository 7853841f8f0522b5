package native

type config struct {
	seed int64
}

// Option configures model construction.
type Option func(*config)

// WithSeed sets the seed for weight initialization. Models built with the
// same shape and seed start from identical parameters.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = seed
	}
}
