package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/claims-validator/constants"
)

// Collector records validation pipeline events on a private registry.
type Collector struct {
	registry         *prometheus.Registry
	runsStarted      *prometheus.CounterVec
	runsFinished     *prometheus.CounterVec
	runsInProgress   *prometheus.GaugeVec
	runDuration      *prometheus.HistogramVec
	claimsClassified *prometheus.CounterVec
	aiReviews        *prometheus.CounterVec
	logger           *slog.Logger
}

func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		runsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_validation_runs_started_total",
			Help: "Validation runs started",
		}, []string{"tenant"}),
		runsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_validation_runs_finished_total",
			Help: "Validation runs that reached a terminal status",
		}, []string{"tenant", "status"}),
		runsInProgress: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "claims_validation_runs_in_progress",
			Help: "Validation runs currently executing",
		}, []string{"tenant"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claims_validation_run_duration_seconds",
			Help:    "Wall time of a validation run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"tenant", "status"}),
		claimsClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_classified_total",
			Help: "Claims classified, by error type",
		}, []string{"tenant", "error_type"}),
		aiReviews: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "claims_ai_reviews_total",
			Help: "AI review outcomes per claim",
		}, []string{"tenant", "outcome"}),
		logger: logger,
	}
}

func (c *Collector) RunStarted(tenant string) {
	c.runsStarted.WithLabelValues(tenant).Inc()
	c.runsInProgress.WithLabelValues(tenant).Inc()
}

func (c *Collector) RunFinished(tenant string, status constants.JobStatus, elapsed time.Duration) {
	c.runsInProgress.WithLabelValues(tenant).Dec()
	c.runsFinished.WithLabelValues(tenant, string(status)).Inc()
	c.runDuration.WithLabelValues(tenant, string(status)).Observe(elapsed.Seconds())
}

func (c *Collector) ClaimClassified(tenant string, errorType constants.ErrorType) {
	c.claimsClassified.WithLabelValues(tenant, string(errorType)).Inc()
}

func (c *Collector) AIReviewed(tenant string, outcome string) {
	c.aiReviews.WithLabelValues(tenant, outcome).Inc()
}

// Registry exposes the registry for extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr until Shutdown is called on the returned server.
func (c *Collector) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		c.logger.Info("metrics.server.start", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("metrics.server.failed", "error", err)
		}
	}()
	return server
}

// Shutdown stops a server returned by StartServer.
func (c *Collector) Shutdown(ctx context.Context, server *http.Server) error {
	if server == nil {
		return nil
	}
	err := server.Shutdown(ctx)
	c.logger.Info("metrics.server.stop", "error", err)
	return err
}
