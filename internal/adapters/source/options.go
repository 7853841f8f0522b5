package source

// Option applies a configuration option to a Memory source.
type Option func(*Memory)

// WithShuffle enables per-pass shuffling with a deterministic seed.
func WithShuffle(seed int64) Option {
	return func(m *Memory) {
		m.shuffle = true
		m.seed = seed
	}
}

// WithDropLast drops the final partial batch of each pass so every batch
// has exactly the configured size.
func WithDropLast() Option {
	return func(m *Memory) {
		m.dropLast = true
	}
}
