package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusExporter exports metrics to Prometheus format.
type PrometheusExporter struct {
	collector *Collector

	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	cacheHitRate     prometheus.Gauge
	cacheKeys        prometheus.Gauge
	cacheMemoryBytes prometheus.Gauge
	cacheEvictions   prometheus.Counter
	decisions        *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec

	// Last cache totals seen by Update, so counters advance by deltas.
	lastHits      uint64
	lastMisses    uint64
	lastEvictions uint64
}

// NewPrometheusExporter creates a new Prometheus exporter.
func NewPrometheusExporter(collector *Collector) *PrometheusExporter {
	return &PrometheusExporter{
		collector: collector,
		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "torii_decision_cache_hits_total",
			Help: "Total number of decision cache hits",
		}),
		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "torii_decision_cache_misses_total",
			Help: "Total number of decision cache misses",
		}),
		cacheHitRate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "torii_decision_cache_hit_rate",
			Help: "Current decision cache hit rate (0.0 to 1.0)",
		}),
		cacheKeys: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "torii_decision_cache_keys_current",
			Help: "Current number of keys in the decision cache",
		}),
		cacheMemoryBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "torii_decision_cache_memory_bytes",
			Help: "Current memory usage of the decision cache in bytes",
		}),
		cacheEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "torii_decision_cache_evictions_total",
			Help: "Total number of decision cache evictions due to memory limits",
		}),
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torii_decisions_total",
				Help: "Total number of authorization decisions by outcome",
			},
			[]string{"outcome"},
		),
		httpRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torii_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route"},
		),
		httpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "torii_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
			[]string{"route"},
		),
		httpErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torii_http_errors_total",
				Help: "Total number of HTTP requests that failed server-side",
			},
			[]string{"route"},
		),
	}
}

// Update refreshes cache metrics from the collector. The cache tracks its
// own totals internally, so counters advance by the delta since the last
// update. This should be called periodically (e.g., every 10 seconds).
func (e *PrometheusExporter) Update() {
	cacheMetrics := e.collector.GetCacheMetrics()
	e.cacheHitRate.Set(cacheMetrics.HitRate)
	e.cacheKeys.Set(float64(cacheMetrics.KeysCurrent))
	e.cacheMemoryBytes.Set(float64(cacheMetrics.MemoryBytes))

	if cacheMetrics.Hits > e.lastHits {
		e.cacheHits.Add(float64(cacheMetrics.Hits - e.lastHits))
		e.lastHits = cacheMetrics.Hits
	}
	if cacheMetrics.Misses > e.lastMisses {
		e.cacheMisses.Add(float64(cacheMetrics.Misses - e.lastMisses))
		e.lastMisses = cacheMetrics.Misses
	}
	if cacheMetrics.Evictions > e.lastEvictions {
		e.cacheEvictions.Add(float64(cacheMetrics.Evictions - e.lastEvictions))
		e.lastEvictions = cacheMetrics.Evictions
	}
}

// RecordRequest records an HTTP request in Prometheus.
func (e *PrometheusExporter) RecordRequest(route string) {
	e.httpRequests.WithLabelValues(route).Inc()
}

// RecordDuration records a request duration in Prometheus.
func (e *PrometheusExporter) RecordDuration(route string, durationSeconds float64) {
	e.httpDuration.WithLabelValues(route).Observe(durationSeconds)
}

// RecordError records a server-side failure in Prometheus.
func (e *PrometheusExporter) RecordError(route string) {
	e.httpErrors.WithLabelValues(route).Inc()
}

// RecordDecision records a decision outcome in Prometheus and the collector.
func (e *PrometheusExporter) RecordDecision(allowed bool) {
	e.collector.RecordDecision(allowed)
	if allowed {
		e.decisions.WithLabelValues("allow").Inc()
	} else {
		e.decisions.WithLabelValues("deny").Inc()
	}
}
