// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/tovenja/quench/internal/adapters/backend/engine"
	"github.com/tovenja/quench/internal/adapters/hub"
	"github.com/tovenja/quench/internal/adapters/ir"
	"github.com/tovenja/quench/internal/adapters/runstore"
	"github.com/tovenja/quench/internal/domain/encode"
	"github.com/tovenja/quench/internal/domain/table"
	"github.com/tovenja/quench/pkg/logger"
	"github.com/tovenja/quench/pkg/metrics"
)

// Service implements the API dependencies for the table answering system.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine  *engine.Engine
	encoder *encode.Hashing
	runs    runstore.Store

	// Configuration
	artifactPath string
	modelID      string
	manifestPath string
	hubBaseURL   string
	cacheDir     string
	device       string
	threshold    float64
	runsDB       string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithArtifact points the service at a local artifact file.
func WithArtifact(path string) Option {
	return func(s *Service) {
		s.artifactPath = path
	}
}

// WithModel names the manifest entry fetched when no local artifact exists.
func WithModel(id string) Option {
	return func(s *Service) {
		s.modelID = id
	}
}

// WithManifest sets the hub manifest file describing downloadable models.
func WithManifest(path string) Option {
	return func(s *Service) {
		s.manifestPath = path
	}
}

// WithHubBaseURL sets the base URL for relative manifest entries.
func WithHubBaseURL(base string) Option {
	return func(s *Service) {
		s.hubBaseURL = base
	}
}

// WithCacheDir overrides the hub download cache location.
func WithCacheDir(dir string) Option {
	return func(s *Service) {
		s.cacheDir = dir
	}
}

// WithDevice selects the execution device for the compiled engine.
func WithDevice(device string) Option {
	return func(s *Service) {
		if device != "" {
			s.device = device
		}
	}
}

// WithThreshold sets the relevance probability a cell needs to join an answer.
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold >= 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithRunsDB sets the SQLite file backing run history. Empty keeps history
// in memory.
func WithRunsDB(path string) Option {
	return func(s *Service) {
		s.runsDB = path
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		device:    engine.DeviceCPU,
		threshold: 0.5,
		logger:    nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the model artifact, compiles it, and opens the run history.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting answer service...")

	art, err := s.resolveArtifact(ctx)
	if err != nil {
		return err
	}

	eng, err := engine.Compile(art, s.device)
	if err != nil {
		return err
	}

	enc, err := encode.NewHashing(art.Header.Features)
	if err != nil {
		return err
	}

	runs, err := s.openRuns(ctx)
	if err != nil {
		return err
	}

	s.engine = eng
	s.encoder = enc
	s.runs = runs
	s.started = true

	desc := eng.Describe()
	s.logger.Info(ctx, "answer service started",
		logger.String("model", desc.String()),
		logger.Int("features", desc.Features),
		logger.Int("classes", desc.Classes),
		logger.Float64("threshold", s.threshold),
	)

	return nil
}

// resolveArtifact prefers a local artifact file and falls back to the hub.
func (s *Service) resolveArtifact(ctx context.Context) (*ir.Artifact, error) {
	if s.artifactPath != "" {
		if _, err := os.Stat(s.artifactPath); err == nil {
			s.logger.Info(ctx, "loading local artifact",
				logger.String("path", s.artifactPath),
			)
			return ir.Load(s.artifactPath)
		}
	}

	if s.manifestPath == "" {
		return nil, fmt.Errorf("%w: no local artifact and no manifest configured", ErrNoModel)
	}

	manifest, err := hub.LoadManifest(s.manifestPath)
	if err != nil {
		return nil, err
	}

	provider, err := hub.New(
		hub.WithManifest(manifest),
		hub.WithBaseURL(s.hubBaseURL),
		hub.WithCacheDir(s.cacheDir),
		hub.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "fetching model from hub",
		logger.String("model", s.modelID),
	)
	return provider.LoadArtifact(ctx, s.modelID)
}

func (s *Service) openRuns(ctx context.Context) (runstore.Store, error) {
	if s.runsDB == "" {
		s.logger.Info(ctx, "keeping run history in memory")
		return runstore.NewMemory(), nil
	}

	s.logger.Info(ctx, "using sqlite run history",
		logger.String("path", s.runsDB),
	)
	return runstore.NewSQLite(ctx, s.runsDB)
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping answer service...")

	if s.runs != nil {
		if err := s.runs.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing run history", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "answer service stopped")
}

// Answer runs one question and table through the compiled engine and
// assembles the predicted answer.
func (s *Service) Answer(ctx context.Context, question string, tableData io.Reader) (table.Answer, error) {
	start := time.Now()

	ans, err := s.answer(ctx, question, tableData)
	if err != nil {
		metrics.RecordAnswerError()
		return table.Answer{}, err
	}

	metrics.RecordAnswerServed()
	metrics.RecordAnswerLatency(float64(time.Since(start).Milliseconds()))
	return ans, nil
}

func (s *Service) answer(ctx context.Context, question string, tableData io.Reader) (table.Answer, error) {
	s.mu.RLock()
	eng, enc, threshold, started := s.engine, s.encoder, s.threshold, s.started
	s.mu.RUnlock()

	if !started {
		return table.Answer{}, ErrNotStarted
	}

	tbl, err := table.Parse(tableData)
	if err != nil {
		return table.Answer{}, err
	}

	inputs, _, err := enc.Encode(question, tbl)
	if err != nil {
		return table.Answer{}, err
	}

	scores, err := eng.Forward(ctx, inputs)
	if err != nil {
		return table.Answer{}, err
	}

	probs, err := table.Relevance(scores)
	if err != nil {
		return table.Answer{}, err
	}

	ans, err := table.Assemble(tbl, probs, threshold)
	if err != nil {
		return table.Answer{}, err
	}

	s.logger.Debug(ctx, "answered question",
		logger.Int("cells", tbl.CellCount()),
		logger.Int("selected", len(ans.Cells)),
	)
	return ans, nil
}

// Runs returns up to limit recorded runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]runstore.Run, error) {
	s.mu.RLock()
	runs, started := s.runs, s.started
	s.mu.RUnlock()

	if !started {
		return nil, ErrNotStarted
	}
	return runs.List(ctx, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"threshold": s.threshold,
	}

	if s.started {
		desc := s.engine.Describe()
		stats["model"] = desc.String()
		stats["device"] = desc.Device
		stats["precision"] = string(desc.Precision)
		stats["features"] = desc.Features
		stats["classes"] = desc.Classes

		if count, err := s.runs.Count(context.Background()); err == nil {
			stats["runs"] = count
			metrics.UpdateRunsTotal(count)
		}
	}

	return stats
}
