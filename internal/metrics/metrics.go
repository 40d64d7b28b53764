package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	monitorStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vigilhome",
			Subsystem: "supervisor",
			Name:      "starts_total",
			Help:      "Number of successful monitor starts.",
		},
	)
	monitorStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vigilhome",
			Subsystem: "supervisor",
			Name:      "stops_total",
			Help:      "Number of monitor stops (signal delivered).",
		},
	)
	monitorRestarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vigilhome",
			Subsystem: "supervisor",
			Name:      "restarts_total",
			Help:      "Number of restart operations.",
		},
	)
	staleLocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vigilhome",
			Subsystem: "supervisor",
			Name:      "stale_locks_total",
			Help:      "Number of stale lock records cleaned up.",
		},
	)
	monitorUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vigilhome",
			Subsystem: "supervisor",
			Name:      "monitor_up",
			Help:      "Whether the monitor process is running (1) or not (0).",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{monitorStarts, monitorStops, monitorRestarts, staleLocks, monitorUp}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStart() {
	if regOK.Load() {
		monitorStarts.Inc()
	}
}
func IncStop() {
	if regOK.Load() {
		monitorStops.Inc()
	}
}
func IncRestart() {
	if regOK.Load() {
		monitorRestarts.Inc()
	}
}
func IncStaleLock() {
	if regOK.Load() {
		staleLocks.Inc()
	}
}
func SetMonitorUp(up bool) {
	if regOK.Load() {
		if up {
			monitorUp.Set(1)
		} else {
			monitorUp.Set(0)
		}
	}
}
