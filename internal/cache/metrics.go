package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the week cache and the fetches that fill it.
//
// Metrics:
//   - nutrilog_week_cache_hits_total
//   - nutrilog_week_cache_misses_total
//   - nutrilog_week_cache_invalidations_total
//   - nutrilog_week_cache_stale_writes_total - fetch results dropped after an invalidation
//   - nutrilog_week_cache_size - loaded weeks
//   - nutrilog_week_fetch_duration_seconds{outcome}
type Metrics struct {
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	InvalidationsTotal prometheus.Counter
	StaleWritesTotal   prometheus.Counter
	CacheSize          prometheus.Gauge
	FetchDuration      *prometheus.HistogramVec
}

// NewMetrics registers the cache metrics on reg. Pass a fresh registry in tests to
// avoid duplicate registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHitsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "nutrilog_week_cache_hits_total",
			Help: "Week summary lookups served from memory",
		}),
		CacheMissesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "nutrilog_week_cache_misses_total",
			Help: "Week summary lookups for weeks not yet fetched",
		}),
		InvalidationsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "nutrilog_week_cache_invalidations_total",
			Help: "Weeks dropped after a meal was written",
		}),
		StaleWritesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "nutrilog_week_cache_stale_writes_total",
			Help: "Fetch results discarded because the week was invalidated while in flight",
		}),
		CacheSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "nutrilog_week_cache_size",
			Help: "Number of weeks currently loaded",
		}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nutrilog_week_fetch_duration_seconds",
			Help:    "Duration of week summary fetches",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
}
