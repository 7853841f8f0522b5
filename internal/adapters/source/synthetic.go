package source

import "math/rand"

// Synthetic dataset generation constants.
const (
	centroidSpread = 2.0
	noiseScale     = 0.35
)

// NewSynthetic builds a deterministic, linearly separable classification
// dataset: one Gaussian-ish cloud per class around a random centroid. Useful
// for smoke training runs and benchmarks without external files.
func NewSynthetic(examples, features, classes int, seed int64, batchSize int, opts ...Option) (*Memory, error) {
	if examples < 1 || features < 1 || classes < 1 {
		return nil, ErrNoExamples
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic data, not security sensitive

	centroids := make([][]float32, classes)
	for c := range centroids {
		row := make([]float32, features)
		for j := range row {
			row[j] = float32((rng.Float64()*2 - 1) * centroidSpread)
		}
		centroids[c] = row
	}

	inputs := make([][]float32, examples)
	labels := make([]int, examples)
	for i := range inputs {
		class := i % classes
		row := make([]float32, features)
		for j := range row {
			row[j] = centroids[class][j] + float32((rng.Float64()*2-1)*noiseScale)
		}
		inputs[i] = row
		labels[i] = class
	}
	return NewMemory(inputs, labels, batchSize, opts...)
}
