// Package metrics collects and exposes Prometheus counters for the
// recommendation pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records pipeline events. A nil *Collector is a no-op, so wiring
// metrics stays optional in tests.
type Collector struct {
	registry       *prometheus.Registry
	lookups        *prometheus.CounterVec
	generations    *prometheus.CounterVec
	assetFallbacks prometheus.Counter
	ratingsStored  prometheus.Counter
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "movierecs_lookups_total",
			Help: "Metadata lookups by resolved source (cache, local, remote, miss).",
		}, []string{"source"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "movierecs_generations_total",
			Help: "Generative service calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		assetFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "movierecs_asset_fallbacks_total",
			Help: "Recommendation items that fell back to the error placeholder.",
		}),
		ratingsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "movierecs_ratings_stored_total",
			Help: "Rated movies appended to storage.",
		}),
	}

	registry.MustRegister(c.lookups, c.generations, c.assetFallbacks, c.ratingsStored)
	return c
}

// Handler exposes the registry for the /metrics route.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordLookup counts a metadata lookup against the source that answered it.
func (c *Collector) RecordLookup(source string) {
	if c == nil {
		return
	}
	c.lookups.WithLabelValues(source).Inc()
}

// RecordGeneration counts a generative call by kind (analyze, recommend,
// assets, poster) and outcome (ok, error).
func (c *Collector) RecordGeneration(kind, outcome string) {
	if c == nil {
		return
	}
	c.generations.WithLabelValues(kind, outcome).Inc()
}

// RecordAssetFallback counts a per-title error placeholder.
func (c *Collector) RecordAssetFallback() {
	if c == nil {
		return
	}
	c.assetFallbacks.Inc()
}

// RecordRatingStored counts a successful rated-movie append.
func (c *Collector) RecordRatingStored() {
	if c == nil {
		return
	}
	c.ratingsStored.Inc()
}
