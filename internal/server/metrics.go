package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	predictions     *prometheus.CounterVec
	probability     prometheus.Histogram
	defaulted       prometheus.Histogram
	inferenceErrors prometheus.Counter
	recordErrors    prometheus.Counter
}

// NewMetrics registers the collectors on a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "readmit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "readmit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route"}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "readmit",
			Subsystem: "predict",
			Name:      "predictions_total",
			Help:      "Predictions served by risk band",
		}, []string{"risk"}),
		probability: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "readmit",
			Subsystem: "predict",
			Name:      "probability",
			Help:      "Distribution of predicted readmission probability",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		defaulted: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "readmit",
			Subsystem: "predict",
			Name:      "defaulted_columns",
			Help:      "Number of columns filled by defaults per prediction",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		inferenceErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "readmit",
			Subsystem: "predict",
			Name:      "inference_errors_total",
			Help:      "Records the model could not accept",
		}),
		recordErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "readmit",
			Subsystem: "predict",
			Name:      "record_errors_total",
			Help:      "Predictions that could not be written to the prediction log",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
