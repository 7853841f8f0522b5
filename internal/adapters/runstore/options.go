package runstore

// Option applies a configuration option to the SQLite store.
type Option func(*SQLite)

// WithMaxOpenConns sets the connection pool size for file-backed databases.
// The default of one serializes writers.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLite) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}
