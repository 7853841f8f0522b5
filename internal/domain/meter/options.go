package meter

// Option applies a configuration option to a Progress reporter.
type Option func(*Progress)

// WithPrefix sets a string printed before the batch counter, e.g. "Test: ".
func WithPrefix(prefix string) Option {
	return func(p *Progress) {
		p.prefix = prefix
	}
}

// WithSeparator sets the string joining the counter and meter entries.
func WithSeparator(sep string) Option {
	return func(p *Progress) {
		if sep != "" {
			p.separator = sep
		}
	}
}
