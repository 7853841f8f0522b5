package hub

import (
	"net/http"
	"time"

	"github.com/tovenja/quench/pkg/logger"
)

// Option applies a configuration option to the provider.
type Option func(*Provider)

// WithBaseURL sets the URL relative manifest entries resolve against.
func WithBaseURL(base string) Option {
	return func(p *Provider) {
		p.baseURL = base
	}
}

// WithCacheDir sets where downloaded files live.
func WithCacheDir(dir string) Option {
	return func(p *Provider) {
		p.cacheDir = dir
	}
}

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithManifest sets the model registry.
func WithManifest(m Manifest) Option {
	return func(p *Provider) {
		if m != nil {
			p.manifest = m
		}
	}
}

// WithBackoffBase sets the first Fibonacci backoff interval between download
// attempts.
func WithBackoffBase(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.backoffBase = d
		}
	}
}

// WithLogger overrides the process logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Provider) {
		p.log = log
	}
}
