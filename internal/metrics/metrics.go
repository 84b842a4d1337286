// Package metrics exposes print job counters and queue gauges for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pdfprint"

// Job outcomes used as the status label
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Exporter owns a private registry so tests and multiple instances never
// collide on the default one.
type Exporter struct {
	registry    *prometheus.Registry
	jobsTotal   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	rejected    *prometheus.CounterVec
}

// NewExporter creates the job metrics
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Print jobs handed to the platform backend.",
			},
			[]string{"source", "status", "kind"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Time from dequeue to backend submission.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_rejected_total",
				Help:      "Print requests refused before reaching the queue.",
			},
			[]string{"reason"},
		),
	}
	e.registry.MustRegister(e.jobsTotal, e.jobDuration, e.rejected)
	return e
}

// ObserveJob records one finished job. kind is the error kind, empty on success.
func (e *Exporter) ObserveJob(source, status, kind string, d time.Duration) {
	e.jobsTotal.WithLabelValues(source, status, kind).Inc()
	e.jobDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveRejection records a request refused by validation, rate limit or a full queue
func (e *Exporter) ObserveRejection(reason string) {
	e.rejected.WithLabelValues(reason).Inc()
}

// RegisterGauge exposes a value sampled at scrape time
func (e *Exporter) RegisterGauge(name, help string, fn func() float64) {
	e.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help},
		fn,
	))
}

// Handler serves the registry in the Prometheus text format
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
