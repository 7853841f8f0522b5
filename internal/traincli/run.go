// Package traincli implements the train/eval/convert pipeline behind
// cmd/train. One Run call trains a native model, exports it as an artifact,
// compiles the artifact into an engine and verifies that the compiled
// engine reproduces the native accuracy.
package traincli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tovenja/quench/internal/adapters/backend/engine"
	"github.com/tovenja/quench/internal/adapters/backend/native"
	"github.com/tovenja/quench/internal/adapters/ir"
	"github.com/tovenja/quench/internal/adapters/runstore"
	"github.com/tovenja/quench/internal/domain/epoch"
	"github.com/tovenja/quench/internal/domain/quant"
	"github.com/tovenja/quench/pkg/logger"
)

// deviceNative names the pure-Go backend in recorded train runs.
const deviceNative = "native"

// Run executes the complete pipeline.
func Run(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.Get()
	pipelineStart := time.Now()

	log.Info(ctx, "starting training pipeline",
		logger.String("dataset", cfg.Dataset),
		logger.String("model", cfg.Model),
		logger.Int("epochs", cfg.Epochs),
		logger.Int("batchSize", cfg.BatchSize),
		logger.Float64("learningRate", cfg.LearningRate),
		logger.Any("quantize", cfg.Quantize),
		logger.String("out", cfg.Out))

	// Step 1: Build the batch sources
	train, val, features, err := buildSources(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dataset setup failed: %w", err)
	}

	// Step 2: Build the model and optimizer
	lin, err := native.NewLinear(features, cfg.Classes, native.WithSeed(cfg.Seed))
	if err != nil {
		return fmt.Errorf("model setup failed: %w", err)
	}
	var mdl ir.Exportable = lin
	if cfg.Quantize {
		fq, err := native.NewFakeQuant(lin)
		if err != nil {
			return fmt.Errorf("model setup failed: %w", err)
		}
		mdl = fq
	}
	sgd, err := native.NewSGD(lin, cfg.LearningRate)
	if err != nil {
		return fmt.Errorf("optimizer setup failed: %w", err)
	}

	// Step 3: Run the epochs
	ks := []int{1}
	if cfg.Classes >= 5 {
		ks = append(ks, 5)
	}
	trainDriver := epoch.New(epoch.WithTopK(ks...), epoch.WithPrefix("train"), epoch.WithLogger(log))
	valDriver := epoch.New(epoch.WithTopK(ks...), epoch.WithPrefix("val"), epoch.WithLogger(log))

	trainStart := time.Now()
	var lastTrain, lastVal epoch.Summary
	for e := 1; e <= cfg.Epochs; e++ {
		lastTrain, err = trainDriver.Train(ctx, train, mdl, sgd)
		if err != nil {
			return fmt.Errorf("epoch %d train pass failed: %w", e, err)
		}
		lastVal, err = valDriver.Validate(ctx, val, mdl)
		if err != nil {
			return fmt.Errorf("epoch %d validation pass failed: %w", e, err)
		}
		log.Info(ctx, "epoch complete",
			logger.Int("epoch", e),
			logger.Int("epochs", cfg.Epochs),
			logger.Float64("trainLoss", lastTrain.Loss),
			logger.Float64("trainTop1", lastTrain.Top1),
			logger.Float64("valTop1", lastVal.Top1))
	}
	trainDuration := time.Since(trainStart)

	// Step 4: Export the artifact
	example, err := firstBatch(ctx, val)
	if err != nil {
		return fmt.Errorf("artifact export failed: %w", err)
	}
	var irOpts []ir.Option
	if cfg.Quantize {
		irOpts = append(irOpts, ir.WithPrecision(quant.INT8))
	}
	art, err := ir.Convert(ctx, mdl, example.Inputs, irOpts...)
	if err != nil {
		return fmt.Errorf("artifact export failed: %w", err)
	}
	if err := art.Save(cfg.Out); err != nil {
		return fmt.Errorf("artifact export failed: %w", err)
	}
	log.Info(ctx, "artifact saved",
		logger.String("path", cfg.Out),
		logger.String("precision", string(art.Header.Precision)))

	// Step 5: Compile the engine and verify it against the native model
	eng, err := engine.Compile(art, cfg.Device)
	if err != nil {
		return fmt.Errorf("engine compilation failed: %w", err)
	}
	evalStart := time.Now()
	engSum, err := valDriver.Validate(ctx, val, eng)
	if err != nil {
		return fmt.Errorf("engine validation failed: %w", err)
	}
	desc := eng.Describe()

	// Step 6: Record the runs
	if err := recordRuns(ctx, cfg, desc.Device, trainStart, trainDuration, lastTrain, evalStart, engSum); err != nil {
		return fmt.Errorf("run recording failed: %w", err)
	}

	log.Info(ctx, "pipeline complete",
		logger.String("engine", desc.String()),
		logger.Float64("nativeTop1", lastVal.Top1),
		logger.Float64("engineTop1", engSum.Top1),
		logger.Float64("top1Delta", engSum.Top1-lastVal.Top1),
		logger.Duration("duration", time.Since(pipelineStart)))
	return nil
}

// recordRuns persists one train and one eval run into the history store.
func recordRuns(ctx context.Context, cfg *Config, device string, trainStart time.Time, trainDuration time.Duration, trainSum epoch.Summary, evalStart time.Time, evalSum epoch.Summary) error {
	store, err := openRuns(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Get().Warn(ctx, "closing run history failed", logger.Error(err))
		}
	}()

	runs := []runstore.Run{
		{
			ID:         uuid.NewString(),
			Model:      cfg.Model,
			Mode:       "train",
			Device:     deviceNative,
			Epochs:     cfg.Epochs,
			FinalLoss:  trainSum.Loss,
			FinalTop1:  trainSum.Top1,
			StartedAt:  trainStart,
			DurationMS: trainDuration.Milliseconds(),
		},
		{
			ID:         uuid.NewString(),
			Model:      cfg.Model,
			Mode:       "eval",
			Device:     device,
			Epochs:     cfg.Epochs,
			FinalLoss:  evalSum.Loss,
			FinalTop1:  evalSum.Top1,
			StartedAt:  evalStart,
			DurationMS: evalSum.Duration.Milliseconds(),
		},
	}
	for _, run := range runs {
		if err := store.Record(ctx, run); err != nil {
			return err
		}
	}
	return nil
}

// openRuns picks the history backend from the configuration.
func openRuns(ctx context.Context, cfg *Config) (runstore.Store, error) {
	if cfg.RunsDB == "" {
		return runstore.NewMemory(), nil
	}
	return runstore.NewSQLite(ctx, cfg.RunsDB)
}
