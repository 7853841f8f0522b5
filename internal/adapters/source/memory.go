package source

import (
	"context"
	"math/rand"
	"sync"

	"github.com/tovenja/quench/internal/domain/model"
)

// Memory serves batches from an in-memory dataset. Batches reference the
// dataset's rows directly; consumers must treat them as read-only.
type Memory struct {
	inputs    [][]float32
	labels    []int
	batchSize int
	shuffle   bool
	seed      int64
	dropLast  bool

	mu     sync.Mutex
	passes int64
}

// NewMemory creates a source over the given examples. Inputs and labels
// must have the same length and the dataset must not be empty.
func NewMemory(inputs [][]float32, labels []int, batchSize int, opts ...Option) (*Memory, error) {
	if len(inputs) == 0 {
		return nil, ErrNoExamples
	}
	if len(inputs) != len(labels) {
		return nil, ErrSizeMismatch
	}
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}
	m := &Memory{
		inputs:    inputs,
		labels:    labels,
		batchSize: batchSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Examples returns the number of examples in the dataset.
func (m *Memory) Examples() int { return len(m.inputs) }

// Len returns the number of batches one pass yields.
func (m *Memory) Len() int {
	n := len(m.inputs) / m.batchSize
	if !m.dropLast && len(m.inputs)%m.batchSize != 0 {
		n++
	}
	return n
}

// Batches starts one pass over the dataset. With shuffling enabled each
// pass uses a fresh deterministic order derived from the seed and the pass
// number.
func (m *Memory) Batches(ctx context.Context) <-chan model.Batch {
	order := m.passOrder()
	out := make(chan model.Batch)
	go func() {
		defer close(out)
		for start := 0; start < len(order); start += m.batchSize {
			end := start + m.batchSize
			if end > len(order) {
				if m.dropLast {
					return
				}
				end = len(order)
			}
			batch := model.Batch{
				Inputs: make([][]float32, 0, end-start),
				Labels: make([]int, 0, end-start),
			}
			for _, idx := range order[start:end] {
				batch.Inputs = append(batch.Inputs, m.inputs[idx])
				batch.Labels = append(batch.Labels, m.labels[idx])
			}
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Err always returns nil; an in-memory pass cannot fail after construction.
func (m *Memory) Err() error { return nil }

// passOrder returns the example order for the next pass.
func (m *Memory) passOrder() []int {
	order := make([]int, len(m.inputs))
	for i := range order {
		order[i] = i
	}
	if !m.shuffle {
		return order
	}
	m.mu.Lock()
	pass := m.passes
	m.passes++
	m.mu.Unlock()
	rng := rand.New(rand.NewSource(m.seed + pass)) //nolint:gosec // deterministic order, not security sensitive
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}
