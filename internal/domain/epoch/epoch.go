// Package epoch drives training and validation passes over a batch source.
// The driver is strictly sequential: one batch at a time, meters owned by
// the running pass, any parallelism hidden behind the source.
package epoch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tovenja/quench/internal/domain/eval"
	"github.com/tovenja/quench/internal/domain/meter"
	"github.com/tovenja/quench/internal/domain/model"
	"github.com/tovenja/quench/pkg/logger"
	"github.com/tovenja/quench/pkg/metrics"
)

// Source yields batches for one pass. Implementations close the channel
// when the pass ends or the context is canceled; Err reports what, if
// anything, cut the pass short.
type Source interface {
	Batches(ctx context.Context) <-chan model.Batch
	Len() int
	Err() error
}

// Summary aggregates one completed pass.
type Summary struct {
	Loss     float64
	Top1     float64
	Top5     float64
	Accuracy map[int]float64
	Batches  int
	Examples int
	Duration time.Duration
}

// Driver runs epochs with a fixed reporting and evaluation configuration.
type Driver struct {
	ks          []int
	reportEvery int
	prefix      string
	log         logger.Logger
}

// New creates a driver. Without options it evaluates top-1 and top-5
// accuracy and reports every ten batches.
func New(opts ...Option) *Driver {
	cfg := config{
		ks:          []int{1, 5},
		reportEvery: 10,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.Get()
	}
	return &Driver{
		ks:          cfg.ks,
		reportEvery: cfg.reportEvery,
		prefix:      cfg.prefix,
		log:         cfg.log,
	}
}

// Train runs one optimization pass: forward, backward and step per batch,
// running averages accumulated over the whole pass. The first error from
// the source, model, optimizer or evaluation aborts the pass and is
// returned as-is.
func (d *Driver) Train(ctx context.Context, src Source, mdl model.Model, opt model.Optimizer) (Summary, error) {
	if opt == nil {
		return Summary{}, ErrNilOptimizer
	}
	return d.run(ctx, src, mdl, opt)
}

// Validate runs one forward-only pass. Model parameters are never touched.
func (d *Driver) Validate(ctx context.Context, src Source, mdl model.Model) (Summary, error) {
	return d.run(ctx, src, mdl, nil)
}

func (d *Driver) run(ctx context.Context, src Source, mdl model.Model, opt model.Optimizer) (Summary, error) {
	if src == nil {
		return Summary{}, ErrNilSource
	}
	if mdl == nil {
		return Summary{}, ErrNilModel
	}
	// Own the source's producer: an early return must not strand it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	training := opt != nil
	start := time.Now()

	timeMeter := meter.New("time", "%.3f")
	lossMeter := meter.New("loss", "%.4e")
	accMeters := make([]*meter.Meter, len(d.ks))
	for i, k := range d.ks {
		accMeters[i] = meter.New(fmt.Sprintf("acc@%d", k), "%6.2f")
	}
	tracked := append([]*meter.Meter{timeMeter, lossMeter}, accMeters...)
	progress := meter.NewProgress(src.Len(), tracked, meter.WithPrefix(d.prefix))

	batches, examples := 0, 0
	batchStart := time.Now()
	for batch := range src.Batches(ctx) {
		scores, err := mdl.Forward(ctx, batch.Inputs)
		if err != nil {
			return Summary{}, err
		}
		loss, err := eval.CrossEntropy(scores, batch.Labels)
		if err != nil {
			return Summary{}, err
		}
		accs, err := eval.TopK(scores, batch.Labels, d.ks)
		if err != nil {
			return Summary{}, err
		}

		if training {
			opt.ZeroGrad()
			if err := opt.Backward(ctx, batch, scores); err != nil {
				return Summary{}, err
			}
			if err := opt.Step(ctx); err != nil {
				return Summary{}, err
			}
		}

		n := batch.Size()
		lossMeter.Update(loss, n)
		for i := range accMeters {
			accMeters[i].Update(accs[i], n)
		}
		elapsed := time.Since(batchStart)
		timeMeter.Update(elapsed.Seconds(), 1)
		batches++
		examples += n

		if training {
			metrics.RecordBatchProcessed(n)
			metrics.RecordStepLatency(float64(elapsed.Milliseconds()))
		}
		if d.reportEvery > 0 && batches%d.reportEvery == 0 {
			d.log.Info(ctx, progress.Line(batches))
		}
		batchStart = time.Now()
	}
	if err := src.Err(); err != nil {
		return Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	if batches == 0 {
		return Summary{}, ErrNoBatches
	}

	summary := Summary{
		Loss:     lossMeter.Average(),
		Accuracy: make(map[int]float64, len(d.ks)),
		Batches:  batches,
		Examples: examples,
		Duration: time.Since(start),
	}
	for i, k := range d.ks {
		avg := accMeters[i].Average()
		summary.Accuracy[k] = avg
		switch k {
		case 1:
			summary.Top1 = avg
		case 5:
			summary.Top5 = avg
		}
	}
	d.report(ctx, training, summary)
	return summary, nil
}

// report publishes pass-level metrics and a completion log line.
func (d *Driver) report(ctx context.Context, training bool, s Summary) {
	mode := "validate"
	if training {
		mode = "train"
		metrics.RecordEpochDuration(float64(s.Duration.Milliseconds()))
		metrics.UpdateTrainLoss(s.Loss)
		metrics.UpdateTrainTop1(s.Top1)
	} else {
		metrics.UpdateEvalLoss("val", s.Loss)
		for k, acc := range s.Accuracy {
			metrics.UpdateEvalAccuracy("val", strconv.Itoa(k), acc)
		}
	}
	d.log.Info(ctx, "pass complete",
		logger.String("mode", mode),
		logger.Int("batches", s.Batches),
		logger.Int("examples", s.Examples),
		logger.Float64("loss", s.Loss),
		logger.Float64("top1", s.Top1),
		logger.Duration("duration", s.Duration),
	)
}
