// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tovenja/quench/internal/adapters/runstore"
	service "github.com/tovenja/quench/internal/app"
	"github.com/tovenja/quench/internal/domain/encode"
	"github.com/tovenja/quench/internal/domain/table"
)

// Request limits applied when the caller does not override them.
const (
	defaultMaxTableBytes = 1 << 20
	defaultRunsLimit     = 20
	defaultMaxRunsLimit  = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Answer scores a table against a question and assembles the answer.
	Answer(ctx context.Context, question string, tableData io.Reader) (table.Answer, error)

	// Runs returns up to limit recorded runs, newest first.
	Runs(ctx context.Context, limit int) ([]runstore.Run, error)
}

type serverConfig struct {
	maxTableBytes int64
	maxRunsLimit  int
}

// Option configures the API server.
type Option func(*serverConfig)

// WithMaxTableBytes caps the accepted request body size for answer calls.
func WithMaxTableBytes(n int64) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxTableBytes = n
		}
	}
}

// WithMaxRunsLimit caps the limit query parameter for run listings.
func WithMaxRunsLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxRunsLimit = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	metricsHandler *MetricsHandler
	statsHandler   *StatsHandler
	answerHandler  *AnswerHandler
	runsHandler    *RunsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{
		maxTableBytes: defaultMaxTableBytes,
		maxRunsLimit:  defaultMaxRunsLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		healthHandler:  NewHealthHandler(),
		metricsHandler: NewMetricsHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		answerHandler:  NewAnswerHandler(deps, cfg.maxTableBytes),
		runsHandler:    NewRunsHandler(deps, cfg.maxRunsLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.metricsHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/answer", MetricsMiddleware(s.answerHandler.HandleAnswer, "answer"))
	mux.HandleFunc("/v1/runs", MetricsMiddleware(s.runsHandler.HandleGetRuns, "runs"))
}

// answerRequest mirrors the OpenAPI schema for POST /v1/answer.
type answerRequest struct {
	Question string `json:"question"`
	Table    string `json:"table"`
}

func (a answerRequest) validate() error {
	switch {
	case strings.TrimSpace(a.Question) == "":
		return fmt.Errorf("%w: missing question", ErrBadRequest)
	case strings.TrimSpace(a.Table) == "":
		return fmt.Errorf("%w: missing table", ErrBadRequest)
	}
	return nil
}

// answerResponse mirrors the OpenAPI schema returned by POST /v1/answer.
type answerResponse struct {
	Answer string             `json:"answer"`
	Cells  []table.Coordinate `json:"cells"`
	Scores []float64          `json:"scores"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isBadInput reports whether an answer error was caused by the caller's
// payload rather than by the service.
func isBadInput(err error) bool {
	return errors.Is(err, table.ErrEmptyTable) ||
		errors.Is(err, table.ErrBadTable) ||
		errors.Is(err, table.ErrTooLarge) ||
		errors.Is(err, encode.ErrEmptyQuestion)
}

// isUnavailable reports whether the service cannot take requests yet.
func isUnavailable(err error) bool {
	return errors.Is(err, service.ErrNotStarted)
}
