// Package metrics exports scheduler statistics to Prometheus.
//
// Values are pulled from the scheduler at scrape time, so the exported
// series always agree with what the dashboard shows.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/red-hand/midenclaim/internal/logging"
	"github.com/red-hand/midenclaim/internal/stats"
)

const namespace = "midenclaim"

// StatsSource supplies the counters to export; *scheduler.Scheduler satisfies it.
type StatsSource interface {
	Stats() stats.Snapshot
}

// NewRegistry returns a registry exporting every stats field of src along
// with the Go runtime and process collectors.
func NewRegistry(src StatsSource) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pick := func(f func(stats.Snapshot) float64) func() float64 {
		return func() float64 { return f(src.Stats()) }
	}
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Accounts loaded for this run.",
		}, pick(func(s stats.Snapshot) float64 { return float64(s.Total) })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "proxies",
			Help:      "Proxies loaded for this run.",
		}, pick(func(s stats.Snapshot) float64 { return float64(s.Proxies) })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "active",
			Help:      "Claims currently executing.",
		}, pick(func(s stats.Snapshot) float64 { return float64(s.Active) })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "max_concurrent",
			Help:      "Maximum number of claims allowed to execute at once.",
		}, pick(func(s stats.Snapshot) float64 { return float64(s.MaxConcurrent) })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "queue_depth",
			Help:      "Workers waiting for admission.",
		}, pick(func(s stats.Snapshot) float64 { return float64(s.QueueDepth) })),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claims",
			Name:      "success_total",
			Help:      "Claims that completed successfully.",
		}, pick(func(s stats.Snapshot) float64 { return float64(s.Success) })),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claims",
			Name:      "errors_total",
			Help:      "Claim attempts that failed.",
		}, pick(func(s stats.Snapshot) float64 { return float64(s.Errors) })),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Serve exposes reg on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.NopLogger()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown error", "error", err)
		}
	}()

	logger.Info("metrics server started", "addr", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
