package vigilhome

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/aamsilva/vigilhome/internal/config"
	"github.com/aamsilva/vigilhome/internal/history"
	"github.com/aamsilva/vigilhome/internal/history/factory"
	"github.com/aamsilva/vigilhome/internal/logtail"
	"github.com/aamsilva/vigilhome/internal/metrics"
	"github.com/aamsilva/vigilhome/internal/process"
	iapi "github.com/aamsilva/vigilhome/internal/server"
	"github.com/aamsilva/vigilhome/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type Spec = process.Spec

type Status = supervisor.Status

type StopResult = supervisor.StopResult

type StopOutcome = supervisor.StopOutcome

const (
	StopNotRunning = supervisor.StopNotRunning
	StopStale      = supervisor.StopStale
	StopSignalled  = supervisor.StopSignalled
)

type Summary = logtail.Summary

type HistorySink = history.Sink

// ErrAlreadyRunning is returned by Start when the monitor already runs.
var ErrAlreadyRunning = supervisor.ErrAlreadyRunning

// Supervisor is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.
type Supervisor struct{ inner *supervisor.Supervisor }

func New(c Config, log *slog.Logger) *Supervisor {
	return &Supervisor{inner: supervisor.New(c, log)}
}

func (s *Supervisor) SetHistorySink(sink HistorySink) { s.inner.SetHistorySink(sink) }
func (s *Supervisor) Start(ctx context.Context) (int, error) { return s.inner.Start(ctx) }
func (s *Supervisor) Stop(ctx context.Context) (StopResult, error) {
	return s.inner.Stop(ctx)
}
func (s *Supervisor) Restart(ctx context.Context) (int, error) { return s.inner.Restart(ctx) }
func (s *Supervisor) Status() (Status, error)                  { return s.inner.Status() }
func (s *Supervisor) Stats() (Summary, error)                  { return s.inner.Stats() }
func (s *Supervisor) Follow(ctx context.Context, w io.Writer) error {
	return s.inner.Follow(ctx, w)
}

// DefaultConfig returns the fixed-layout configuration used when no config
// file is given.
func DefaultConfig() Config { return cfg.Default() }

// LoadConfig reads a TOML config file, merging it over the defaults.
func LoadConfig(path string) (Config, error) { return cfg.Load(path) }

// NewHistorySink builds a lifecycle event sink from a DSN
// (sqlite://, postgres://, clickhouse://).
func NewHistorySink(dsn string) (HistorySink, error) { return factory.NewSinkFromDSN(dsn) }

// NewHTTPServer starts an HTTP server exposing the supervisor API.
func NewHTTPServer(addr, basePath string, s *Supervisor) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, s.inner)
}

// NewHTTPHandler returns the supervisor API as a mountable http.Handler.
func NewHTTPHandler(basePath string, s *Supervisor) http.Handler {
	return iapi.NewRouter(s.inner, basePath).Handler()
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
