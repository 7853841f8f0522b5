package traincli

import (
	"context"

	"github.com/tovenja/quench/internal/adapters/source"
	"github.com/tovenja/quench/internal/domain/epoch"
	"github.com/tovenja/quench/internal/domain/model"
	"github.com/tovenja/quench/pkg/metrics"
)

// validationFraction is the share of synthetic examples generated for the
// validation pass.
const validationFraction = 5

// buildSources constructs prefetched train and validation sources and
// reports the feature width the model must accept.
func buildSources(ctx context.Context, cfg *Config) (train, val *source.Prefetch, features int, err error) {
	var trainMem, valMem *source.Memory
	switch cfg.Dataset {
	case DatasetSynthetic:
		trainMem, err = source.NewSynthetic(cfg.Examples, cfg.Features, cfg.Classes, cfg.Seed, cfg.BatchSize, source.WithShuffle(cfg.Seed))
		if err != nil {
			return nil, nil, 0, err
		}
		valExamples := cfg.Examples / validationFraction
		if valExamples < cfg.Classes {
			valExamples = cfg.Classes
		}
		// Same seed keeps the class centroids shared with the training set.
		valMem, err = source.NewSynthetic(valExamples, cfg.Features, cfg.Classes, cfg.Seed, cfg.BatchSize)
		if err != nil {
			return nil, nil, 0, err
		}
		features = cfg.Features
	case DatasetIDX:
		trainMem, err = source.LoadIDX(cfg.Images, cfg.Labels, cfg.BatchSize, source.WithShuffle(cfg.Seed))
		if err != nil {
			return nil, nil, 0, err
		}
		valMem, err = source.LoadIDX(cfg.ValImages, cfg.ValLabels, cfg.BatchSize)
		if err != nil {
			return nil, nil, 0, err
		}
		probe, err := firstBatch(ctx, trainMem)
		if err != nil {
			return nil, nil, 0, err
		}
		features = len(probe.Inputs[0])
	}

	metrics.UpdateDatasetExamples(trainMem.Examples())
	return source.NewPrefetch(trainMem, cfg.Prefetch), source.NewPrefetch(valMem, cfg.Prefetch), features, nil
}

// firstBatch pulls a single batch and abandons the pass, leaving the source
// reusable for full passes.
func firstBatch(ctx context.Context, src epoch.Source) (model.Batch, error) {
	bctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for batch := range src.Batches(bctx) {
		if batch.Size() > 0 {
			return batch, nil
		}
	}
	if err := src.Err(); err != nil {
		return model.Batch{}, err
	}
	return model.Batch{}, source.ErrNoExamples
}
