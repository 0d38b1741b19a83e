package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the API and the engine
// operations behind it. A private registry keeps tests from tripping over
// duplicate registration.
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	LatencyHistogram *prometheus.HistogramVec
	Predictions      *prometheus.CounterVec
	TrainingRuns     *prometheus.CounterVec
	TrainingSamples  prometheus.Gauge
	registry         *prometheus.Registry
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capsule_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		LatencyHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "capsule_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capsule_predictions_total",
				Help: "Risk predictions served, by tier",
			},
			[]string{"tier"},
		),
		TrainingRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capsule_training_runs_total",
				Help: "Model training runs, by outcome",
			},
			[]string{"outcome"},
		),
		TrainingSamples: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "capsule_training_samples",
				Help: "Sample count used by the active model snapshot",
			},
		),
		registry: registry,
	}

	registry.MustRegister(m.RequestCounter)
	registry.MustRegister(m.LatencyHistogram)
	registry.MustRegister(m.Predictions)
	registry.MustRegister(m.TrainingRuns)
	registry.MustRegister(m.TrainingSamples)

	return m
}

func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.RequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.LatencyHistogram.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the registry in the standard exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
