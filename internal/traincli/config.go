package traincli

import "fmt"

// Dataset kinds accepted by the pipeline.
const (
	DatasetSynthetic = "synthetic"
	DatasetIDX       = "idx"
)

// Config holds configuration for one pipeline run.
type Config struct {
	Dataset   string // dataset kind: synthetic or idx
	Images    string // IDX training images path (idx only, gzip accepted)
	Labels    string // IDX training labels path (idx only)
	ValImages string // IDX validation images path (idx only)
	ValLabels string // IDX validation labels path (idx only)

	Examples int   // synthetic training examples (synthetic only)
	Features int   // feature width (synthetic only; probed from idx files)
	Classes  int   // number of classes
	Seed     int64 // dataset and parameter init seed

	Epochs       int
	BatchSize    int
	LearningRate float64
	Prefetch     int // batches decoded ahead of the driver

	Quantize bool   // train through the int8 grid and export an INT8 artifact
	Device   string // engine device for the post-compile check
	Out      string // artifact output path

	Model  string // model name recorded in run history
	RunsDB string // sqlite path for run history; empty records in memory only
}

// Validate reports the first reason this configuration cannot run.
func (c *Config) Validate() error {
	switch {
	case c.Dataset != DatasetSynthetic && c.Dataset != DatasetIDX:
		return fmt.Errorf("%w: unknown dataset %q", ErrBadConfig, c.Dataset)
	case c.Epochs < 1:
		return fmt.Errorf("%w: epochs must be at least one", ErrBadConfig)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch size must be at least one", ErrBadConfig)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive", ErrBadConfig)
	case c.Classes < 2:
		return fmt.Errorf("%w: need at least two classes", ErrBadConfig)
	case c.Out == "":
		return fmt.Errorf("%w: artifact output path must not be empty", ErrBadConfig)
	case c.Model == "":
		return fmt.Errorf("%w: model name must not be empty", ErrBadConfig)
	}
	if c.Dataset == DatasetSynthetic && (c.Examples < c.Classes || c.Features < 1) {
		return fmt.Errorf("%w: synthetic dataset needs at least one example per class and one feature", ErrBadConfig)
	}
	if c.Dataset == DatasetIDX {
		if c.Images == "" || c.Labels == "" || c.ValImages == "" || c.ValLabels == "" {
			return fmt.Errorf("%w: idx dataset needs train and validation image and label paths", ErrBadConfig)
		}
	}
	return nil
}
