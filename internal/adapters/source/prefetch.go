package source

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	model "github.com/tovenja/quench/internal/domain/model"
	"github.com/tovenja/quench/pkg/metrics"
)

// Default number of batches buffered ahead of the consumer.
const defaultPrefetchDepth = 2

// Prefetch wraps a source and keeps up to depth batches decoded ahead of
// the consumer. Batch order is preserved; the driver still sees a strictly
// sequential stream.
type Prefetch struct {
	inner Source
	depth int

	mu  sync.Mutex
	err error
}

// NewPrefetch wraps inner with a prefetch buffer. Depth below one falls
// back to the default.
func NewPrefetch(inner Source, depth int) *Prefetch {
	if depth < 1 {
		depth = defaultPrefetchDepth
	}
	return &Prefetch{inner: inner, depth: depth}
}

// Len returns the wrapped source's batch count.
func (p *Prefetch) Len() int { return p.inner.Len() }

// Batches starts the wrapped pass and buffers ahead of the consumer.
func (p *Prefetch) Batches(ctx context.Context) <-chan model.Batch {
	p.mu.Lock()
	p.err = nil
	p.mu.Unlock()
	println("DIAG: Batches() reset p.err")

	out := make(chan model.Batch, p.depth)
	g, gctx := errgroup.WithContext(ctx)
	in := p.inner.Batches(gctx)

	g.Go(func() error {
		for batch := range in {
			select {
			case out <- batch:
				metrics.UpdatePrefetchDepth(len(out))
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := p.inner.Err(); err != nil {
			return err
		}
		// The inner source may exit silently on cancellation.
		return gctx.Err()
	})

	go func() {
		defer close(out)
		if err := g.Wait(); err != nil {
			println("DIAG: waiter writes p.err =", err.Error())
			p.mu.Lock()
			p.err = err
			p.mu.Unlock()
		}
	}()
	return out
}

// Err reports the first failure of the wrapped pass, including cancellation.
func (p *Prefetch) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
