// Package metrics defines the Prometheus instruments shared by the header
// components and the dev server.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Metrics holds Prometheus metrics for uigen.
//
// A nil *Metrics is valid; every recording method is a no-op on nil.
type Metrics struct {
	// Directory fetches by outcome ("ok", "error")
	DirectoryFetches *prometheus.CounterVec
	// Fetch results dropped because a newer fetch was issued
	StaleDiscards prometheus.Counter

	// Exports by outcome ("saved", "empty", "error")
	Exports     *prometheus.CounterVec
	ExportBytes prometheus.Histogram

	// Clear-all phases ("requested", "confirmed", "cancelled")
	Clears *prometheus.CounterVec

	PaletteOpens prometheus.Counter
	ProjectsNew  *prometheus.CounterVec

	// Dev server
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers uigen metrics with reg.
//
// Metrics:
//   - uigen_directory_fetches_total{outcome}
//   - uigen_directory_stale_discards_total
//   - uigen_exports_total{outcome}
//   - uigen_export_bytes
//   - uigen_clears_total{phase}
//   - uigen_palette_opens_total
//   - uigen_projects_created_total{outcome}
//   - uigen_http_requests_total{method,route,status}
//   - uigen_http_request_duration_seconds{method,route}
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DirectoryFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "uigen_directory_fetches_total",
			Help: "Total number of project directory fetches",
		}, []string{"outcome"}),
		StaleDiscards: f.NewCounter(prometheus.CounterOpts{
			Name: "uigen_directory_stale_discards_total",
			Help: "Directory fetch results discarded because a newer fetch was issued",
		}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "uigen_exports_total",
			Help: "Total number of archive exports",
		}, []string{"outcome"}),
		ExportBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "uigen_export_bytes",
			Help:    "Size of exported archives in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		Clears: f.NewCounterVec(prometheus.CounterOpts{
			Name: "uigen_clears_total",
			Help: "Clear-all confirmation phases",
		}, []string{"phase"}),
		PaletteOpens: f.NewCounter(prometheus.CounterOpts{
			Name: "uigen_palette_opens_total",
			Help: "Total number of command palette opens",
		}),
		ProjectsNew: f.NewCounterVec(prometheus.CounterOpts{
			Name: "uigen_projects_created_total",
			Help: "Project creation attempts by outcome",
		}, []string{"outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "uigen_http_requests_total",
			Help: "Dev server HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uigen_http_request_duration_seconds",
			Help:    "Dev server HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Default returns metrics registered once with the default registerer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func (m *Metrics) FetchSettled(err error) {
	if m == nil {
		return
	}
	m.DirectoryFetches.WithLabelValues(outcome(err, "ok")).Inc()
}

func (m *Metrics) FetchDiscarded() {
	if m == nil {
		return
	}
	m.StaleDiscards.Inc()
}

// ExportDone records an export. size < 0 marks an empty snapshot.
func (m *Metrics) ExportDone(size int, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.Exports.WithLabelValues("error").Inc()
	case size < 0:
		m.Exports.WithLabelValues("empty").Inc()
	default:
		m.Exports.WithLabelValues("saved").Inc()
		m.ExportBytes.Observe(float64(size))
	}
}

func (m *Metrics) ClearPhase(phase string) {
	if m == nil {
		return
	}
	m.Clears.WithLabelValues(phase).Inc()
}

func (m *Metrics) PaletteOpened() {
	if m == nil {
		return
	}
	m.PaletteOpens.Inc()
}

func (m *Metrics) ProjectCreated(err error) {
	if m == nil {
		return
	}
	m.ProjectsNew.WithLabelValues(outcome(err, "ok")).Inc()
}

func outcome(err error, ok string) string {
	if err != nil {
		return "error"
	}
	return ok
}
