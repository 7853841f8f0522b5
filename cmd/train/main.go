package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/tovenja/quench/internal/traincli"
	"github.com/tovenja/quench/pkg/logger"
)

// Default pipeline settings.
const (
	defaultExamples     = 2048
	defaultFeatures     = 64
	defaultClasses      = 10
	defaultEpochs       = 5
	defaultBatchSize    = 32
	defaultLearningRate = 0.1
	defaultPrefetch     = 2
	defaultSeed         = 42
	defaultTimeout      = 30 * time.Minute
)

func main() {
	var (
		dataset   = flag.String("dataset", traincli.DatasetSynthetic, "Dataset kind: synthetic or idx")
		images    = flag.String("images", "", "IDX training images path (idx dataset, gzip accepted)")
		labels    = flag.String("labels", "", "IDX training labels path (idx dataset)")
		valImages = flag.String("val-images", "", "IDX validation images path (idx dataset)")
		valLabels = flag.String("val-labels", "", "IDX validation labels path (idx dataset)")
		examples  = flag.Int("examples", defaultExamples, "Synthetic training examples")
		features  = flag.Int("features", defaultFeatures, "Synthetic feature width")
		classes   = flag.Int("classes", defaultClasses, "Number of classes")
		seed      = flag.Int64("seed", defaultSeed, "Dataset and parameter init seed")
		epochs    = flag.Int("epochs", defaultEpochs, "Training epochs")
		batchSize = flag.Int("batch", defaultBatchSize, "Batch size")
		lr        = flag.Float64("lr", defaultLearningRate, "SGD learning rate")
		prefetch  = flag.Int("prefetch", defaultPrefetch, "Batches decoded ahead of the driver")
		quantize  = flag.Bool("int8", false, "Train through the int8 grid and export an INT8 artifact")
		device    = flag.String("device", "cpu", "Engine device for the post-compile check")
		out       = flag.String("out", "quench.qir", "Artifact output path")
		model     = flag.String("model", "quench-mini", "Model name recorded in run history")
		runsDB    = flag.String("runs-db", "quench.db", "SQLite run history path (empty keeps history in memory)")
		timeout   = flag.Duration("timeout", defaultTimeout, "Abort the pipeline after this long")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg := &traincli.Config{
		Dataset:      *dataset,
		Images:       *images,
		Labels:       *labels,
		ValImages:    *valImages,
		ValLabels:    *valLabels,
		Examples:     *examples,
		Features:     *features,
		Classes:      *classes,
		Seed:         *seed,
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LearningRate: *lr,
		Prefetch:     *prefetch,
		Quantize:     *quantize,
		Device:       *device,
		Out:          *out,
		Model:        *model,
		RunsDB:       *runsDB,
	}

	if err := traincli.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("pipeline failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
