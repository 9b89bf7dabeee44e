package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the pipeline's Prometheus collectors. A nil *Metrics is
// valid and disables collection, so tests and tools can skip wiring it.
type Metrics struct {
	cardsComputed    *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	coalescedFetches prometheus.Counter
	upstreamCalls    prometheus.Counter
	upstreamLatency  prometheus.Histogram
}

// New registers the pipeline collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cardsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whisperer",
			Name:      "cards_computed_total",
			Help:      "Card computations by type and outcome.",
		}, []string{"card_type", "outcome"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whisperer",
			Name:      "cache_hits_total",
			Help:      "Cache hits by layer (card, snapshot).",
		}, []string{"layer"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whisperer",
			Name:      "cache_misses_total",
			Help:      "Cache misses by layer (card, snapshot).",
		}, []string{"layer"}),
		coalescedFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "whisperer",
			Name:      "coalesced_fetches_total",
			Help:      "Snapshot fetches served by piggybacking on an in-flight call.",
		}),
		upstreamCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "whisperer",
			Name:      "upstream_calls_total",
			Help:      "Calls issued to the analytics upstream.",
		}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "whisperer",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of analytics upstream calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.cardsComputed,
		m.cacheHits,
		m.cacheMisses,
		m.coalescedFetches,
		m.upstreamCalls,
		m.upstreamLatency,
	)
	return m
}

func (m *Metrics) CardComputed(cardType, outcome string) {
	if m == nil {
		return
	}
	m.cardsComputed.WithLabelValues(cardType, outcome).Inc()
}

func (m *Metrics) CacheHit(layer string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(layer).Inc()
}

func (m *Metrics) CacheMiss(layer string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(layer).Inc()
}

func (m *Metrics) CoalescedFetch() {
	if m == nil {
		return
	}
	m.coalescedFetches.Inc()
}

func (m *Metrics) UpstreamCall(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamCalls.Inc()
	m.upstreamLatency.Observe(elapsed.Seconds())
}
