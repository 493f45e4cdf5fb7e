// Package cachemetrics wraps a cache.Cache with Prometheus instrumentation,
// generalizing the single-policy CacheMetrics/InstrumentedCache pair to the
// full FIFO/RR/LRU/LFU/TTL/VTTL/Plain policy set and its Insert/Remove
// operation names.
package cachemetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/GabrielNunesIT/cachekit/metrics"
)

// Cache is the slice of cache.Cache[K,V] that InstrumentedCache wraps.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Insert(key K, value V) (V, bool, error)
	Remove(key K) (V, bool)
	Len() int
	Clear(reuse bool)
}

// CacheMetrics holds the Prometheus metrics for one cache instance. It is
// embedded inside InstrumentedCache but can also be used standalone by a
// Janitor or a hand-rolled wrapper.
type CacheMetrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	inserts     prometheus.Counter
	removes     prometheus.Counter
	evictions   prometheus.Counter
	expirations prometheus.Counter
	size        prometheus.Gauge
	latency     prometheus.Histogram
}

// Option configures cache metrics.
type Option func(*config)

type config struct {
	buckets []float64
}

// cacheLatencyBuckets are sensible defaults for cache operation latency,
// skewed toward sub-millisecond ranges since in-process lookups are fast.
var cacheLatencyBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5,
}

// WithBuckets overrides the default histogram buckets for operation latency.
func WithBuckets(buckets []float64) Option {
	return func(cfg *config) {
		cfg.buckets = buckets
	}
}

func newCacheMetrics(reg *metrics.Registry, name string, cfg *config) *CacheMetrics {
	return &CacheMetrics{
		hits:        reg.NewCounter(name+"_hits_total", "Total number of cache hits."),
		misses:      reg.NewCounter(name+"_misses_total", "Total number of cache misses."),
		inserts:     reg.NewCounter(name+"_inserts_total", "Total number of cache insert operations."),
		removes:     reg.NewCounter(name+"_removes_total", "Total number of cache remove operations."),
		evictions:   reg.NewCounter(name+"_evictions_total", "Total number of capacity-driven evictions."),
		expirations: reg.NewCounter(name+"_expirations_total", "Total number of TTL/VTTL expirations."),
		size:        reg.NewGauge(name+"_size", "Current number of live entries in the cache."),
		latency: reg.NewHistogram(
			name+"_operation_duration_seconds",
			"Duration of cache operations in seconds.",
			cfg.buckets,
		),
	}
}

// RecordEviction records a capacity-driven eviction.
func (cm *CacheMetrics) RecordEviction() {
	cm.evictions.Inc()
}

// RecordExpiration records n TTL/VTTL lazy expirations at once, as returned
// by cache.Cache.Expire().
func (cm *CacheMetrics) RecordExpiration(n int) {
	if n <= 0 {
		return
	}

	cm.expirations.Add(float64(n))
}

// SetSize sets the current number of live entries.
func (cm *CacheMetrics) SetSize(size float64) {
	cm.size.Set(size)
}

// HitRatio computes hits / (hits + misses); 0 if no lookups were recorded.
func (cm *CacheMetrics) HitRatio() float64 {
	hits := readCounter(cm.hits)
	misses := readCounter(cm.misses)
	total := hits + misses

	if total == 0 {
		return 0
	}

	return hits / total
}

func readCounter(counter prometheus.Counter) float64 {
	var metric prometheus.Metric = counter
	dtoMetric := &dto.Metric{}

	if err := metric.Write(dtoMetric); err != nil {
		return 0
	}

	return dtoMetric.GetCounter().GetValue()
}

// InstrumentedCache wraps a Cache with automatic Prometheus instrumentation.
// Get/Insert/Remove/Clear are transparently measured; evictions surfacing
// through Insert's internal policy logic are not individually observable
// here, so RecordEviction/RecordExpiration remain manual hooks, same as the
// cache this is generalized from.
type InstrumentedCache[K comparable, V any] struct {
	inner   Cache[K, V]
	Metrics *CacheMetrics
}

// New wraps an existing Cache with Prometheus instrumentation. name
// prefixes every registered metric.
func New[K comparable, V any](
	reg *metrics.Registry,
	name string,
	inner Cache[K, V],
	opts ...Option,
) *InstrumentedCache[K, V] {
	cfg := &config{buckets: cacheLatencyBuckets}

	for _, opt := range opts {
		opt(cfg)
	}

	cm := newCacheMetrics(reg, name, cfg)
	cm.size.Set(float64(inner.Len()))

	return &InstrumentedCache[K, V]{inner: inner, Metrics: cm}
}

// Get retrieves a value, recording a hit or miss and the operation latency.
func (ic *InstrumentedCache[K, V]) Get(key K) (V, bool) {
	start := time.Now()
	value, found := ic.inner.Get(key)
	ic.Metrics.latency.Observe(time.Since(start).Seconds())

	if found {
		ic.Metrics.hits.Inc()
	} else {
		ic.Metrics.misses.Inc()
	}

	return value, found
}

// Insert stores a value, recording an insert operation, latency, and the
// updated size gauge.
func (ic *InstrumentedCache[K, V]) Insert(key K, value V) (V, bool, error) {
	start := time.Now()
	previous, had, err := ic.inner.Insert(key, value)
	ic.Metrics.latency.Observe(time.Since(start).Seconds())

	ic.Metrics.inserts.Inc()
	ic.Metrics.size.Set(float64(ic.inner.Len()))

	return previous, had, err
}

// Remove deletes a key, recording a remove operation and the updated size.
func (ic *InstrumentedCache[K, V]) Remove(key K) (V, bool) {
	value, ok := ic.inner.Remove(key)
	ic.Metrics.removes.Inc()
	ic.Metrics.size.Set(float64(ic.inner.Len()))

	return value, ok
}

// Len returns the current number of live entries.
func (ic *InstrumentedCache[K, V]) Len() int {
	return ic.inner.Len()
}

// Clear removes all entries and resets the size gauge to 0.
func (ic *InstrumentedCache[K, V]) Clear(reuse bool) {
	ic.inner.Clear(reuse)
	ic.Metrics.size.Set(0)
}
