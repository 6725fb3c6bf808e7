// Package metrics exposes live run counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/studiowebux/jobbench/internal/types"
	"go.uber.org/zap"
)

// Collector records per-request outcomes into its own registry. A nil
// *Collector is valid and ignores every call.
type Collector struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	statusTotal     *prometheus.CounterVec
}

// NewCollector creates a collector with a private registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobbench_requests_total",
				Help: "Total number of dispatched requests by outcome",
			},
			[]string{"outcome"},
		),
		requestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jobbench_request_duration_seconds",
				Help:    "Request duration in seconds for requests that received a response",
				Buckets: prometheus.DefBuckets,
			},
		),
		statusTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobbench_responses_total",
				Help: "Total number of responses by status class",
			},
			[]string{"status"},
		),
	}

	// Pre-create every outcome so they are exported at zero
	for _, o := range types.Outcomes() {
		c.requestsTotal.WithLabelValues(o.String())
	}
	return c
}

// Observe records one result
func (c *Collector) Observe(result *types.TaskResult) {
	if c == nil || result == nil {
		return
	}

	c.requestsTotal.WithLabelValues(result.Outcome.String()).Inc()
	if !result.Outcome.Responded() {
		return
	}
	c.requestDuration.Observe(result.Elapsed.Seconds())
	c.statusTotal.WithLabelValues(statusClass(result.StatusCode)).Inc()
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns the /metrics handler for this collector
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is done. The listener
// is bound before Serve returns, so bind errors surface immediately.
func (c *Collector) Serve(ctx context.Context, addr string, logger *zap.Logger) (func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown error", zap.Error(err))
		}
	}
	return stop, nil
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
