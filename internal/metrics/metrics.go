// Package metrics exposes prometheus collectors for ingestion and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "partprice"

const (
	subsystemIngest = "ingest"
	subsystemHTTP   = "http"
)

// Metrics holds all collectors.
type Metrics struct {
	registry *prometheus.Registry

	PassesTotal            prometheus.Counter
	PassDuration           prometheus.Histogram
	FetchesTotal           *prometheus.CounterVec
	ListingsTotal          *prometheus.CounterVec
	ReconciledTotal        *prometheus.CounterVec
	CombinationErrorsTotal prometheus.Counter
	Running                prometheus.Gauge

	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}
	m.initIngest(factory)
	m.initHTTP(factory)
	return m
}

func (m *Metrics) initIngest(factory promauto.Factory) {
	m.PassesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemIngest,
		Name:      "passes_total",
		Help:      "Completed passes over all brands and part names",
	})
	m.PassDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: subsystemIngest,
		Name:      "pass_duration_seconds",
		Help:      "Wall time of completed passes",
		Buckets:   prometheus.ExponentialBuckets(60, 2, 10),
	})
	m.FetchesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemIngest,
		Name:      "fetches_total",
		Help:      "Retailer searches by outcome",
	}, []string{"retailer", "outcome"})
	m.ListingsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemIngest,
		Name:      "listings_total",
		Help:      "Listings extracted per retailer",
	}, []string{"retailer"})
	m.ReconciledTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemIngest,
		Name:      "reconciled_total",
		Help:      "Parts written by reconciliation",
	}, []string{"result"})
	m.CombinationErrorsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemIngest,
		Name:      "combination_errors_total",
		Help:      "Brand and part combinations that failed",
	})
	m.Running = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: subsystemIngest,
		Name:      "running",
		Help:      "1 while the scheduler is running",
	})
}

func (m *Metrics) initHTTP(factory promauto.Factory) {
	m.HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: subsystemHTTP,
		Name:      "requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	m.HTTPDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: subsystemHTTP,
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFetch records one retailer search.
func (m *Metrics) ObserveFetch(retailer, outcome string, listings int) {
	m.FetchesTotal.WithLabelValues(retailer, outcome).Inc()
	m.ListingsTotal.WithLabelValues(retailer).Add(float64(listings))
}

// ObserveReconciled records one committed batch.
func (m *Metrics) ObserveReconciled(created, updated int) {
	m.ReconciledTotal.WithLabelValues("created").Add(float64(created))
	m.ReconciledTotal.WithLabelValues("updated").Add(float64(updated))
}

// PassCompleted records a finished pass.
func (m *Metrics) PassCompleted(d time.Duration) {
	m.PassesTotal.Inc()
	m.PassDuration.Observe(d.Seconds())
}

// CombinationFailed records a failed brand and part combination.
func (m *Metrics) CombinationFailed() {
	m.CombinationErrorsTotal.Inc()
}

// SetRunning flips the running gauge.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.Running.Set(1)
		return
	}
	m.Running.Set(0)
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
