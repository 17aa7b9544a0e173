// Package metrics exposes Prometheus collectors for curation runs and the
// upstream response cache.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/therocksalt/curator/internal/curator"
)

const namespace = "rocksalt_curator"

// Metrics holds the collectors and the registry they are registered with
type Metrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Summary
	lastSuccessTS prometheus.Gauge
	eventsTotal   *prometheus.CounterVec
	fetchedTotal  *prometheus.CounterVec
	skippedTotal  prometheus.Counter
	errorsTotal   prometheus.Counter
	venuesCreated prometheus.Counter
	cacheRequests *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, along with the Go runtime
// and process collectors
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Curation runs by outcome",
	}, []string{"status"})
	m.runDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of curation runs",
	})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful curation run",
	})
	m.eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Events written by source and outcome",
	}, []string{"source", "outcome"})
	m.fetchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_fetched_total",
		Help:      "Raw events returned by each source",
	}, []string{"source"})
	m.skippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_skipped_total",
		Help:      "Scraped events dropped by the music filter",
	})
	m.errorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Per-event and fatal errors recorded in run reports",
	})
	m.venuesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "venues_created_total",
		Help:      "Venues created during curation",
	})
	m.cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_cache_requests_total",
		Help:      "Upstream GET requests by response cache result",
	}, []string{"result"})

	m.registry.MustRegister(
		m.runsTotal, m.runDuration, m.lastSuccessTS,
		m.eventsTotal, m.fetchedTotal, m.skippedTotal, m.errorsTotal,
		m.venuesCreated, m.cacheRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records a finished run
func (m *Metrics) ObserveRun(r *curator.Report) {
	status := "success"
	if !r.Success {
		status = "failure"
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(r.Duration().Seconds())
	if r.Success {
		m.lastSuccessTS.Set(float64(r.FinishedAt.Unix()))
	}

	for src, s := range r.Sources {
		m.fetchedTotal.WithLabelValues(string(src)).Add(float64(s.Fetched))
		m.eventsTotal.WithLabelValues(string(src), curator.Created.String()).Add(float64(s.Created))
		m.eventsTotal.WithLabelValues(string(src), curator.Updated.String()).Add(float64(s.Updated))
	}
	m.skippedTotal.Add(float64(r.Skipped))
	m.errorsTotal.Add(float64(r.ErrorCount))
	m.venuesCreated.Add(float64(r.VenuesCreated))
}

// ObserveCache counts one response cache lookup; it matches the
// cache.Transport Observe hook
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
