// Package metrics exposes Prometheus collectors for the detection service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application collectors on a private registry so tests
// can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal           prometheus.Counter
	DetectionsTotal      prometheus.Counter
	DetectionsBySeverity *prometheus.CounterVec
	ScanErrors           *prometheus.CounterVec
	ModelLoadsTotal      prometheus.Counter
	InferenceDuration    prometheus.Histogram
}

// New creates and registers all collectors. sessionCount, when non-nil,
// backs the active-sessions gauge.
func New(sessionCount func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "infrasentinel_scans_total",
			Help: "Total images analyzed",
		}),
		DetectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "infrasentinel_detections_total",
			Help: "Total defects detected across all scans",
		}),
		DetectionsBySeverity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "infrasentinel_detections_by_severity_total",
			Help: "Defects detected, partitioned by severity bucket",
		}, []string{"severity"}),
		ScanErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "infrasentinel_scan_errors_total",
			Help: "Failed detect requests, partitioned by error kind",
		}, []string{"kind"}),
		ModelLoadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "infrasentinel_model_loads_total",
			Help: "Weights artifacts loaded from storage",
		}),
		InferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "infrasentinel_inference_duration_seconds",
			Help:    "Model inference latency",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.ScansTotal,
		m.DetectionsTotal,
		m.DetectionsBySeverity,
		m.ScanErrors,
		m.ModelLoadsTotal,
		m.InferenceDuration,
	)

	if sessionCount != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "infrasentinel_active_sessions",
			Help: "Operator sessions currently held in memory",
		}, sessionCount))
	}

	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
