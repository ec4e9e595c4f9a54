package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Automation engine metrics (spec.md §4.1, §4.5, §4.6)
	RulesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_rules_processed_total",
			Help: "Total number of reorder rules evaluated per scheduled tick",
		},
		[]string{"tenant"},
	)

	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_executions_total",
			Help: "Total number of purchase executor runs, by result",
		},
		[]string{"result"}, // success | failed
	)

	PlanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "automation_plan_duration_seconds",
			Help:    "Wall-clock duration of one rule engine tick per tenant",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tenant"},
	)

	QuarantinedRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "automation_quarantined_rules",
			Help: "Number of reorder rules currently quarantined after repeated failures",
		},
	)

	OrderValueGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_order_value_generated_total",
			Help: "Total purchase order value generated by automated reorders",
		},
		[]string{"tenant"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_operation_duration_seconds",
			Help:    "Cache operation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
		[]string{"operation", "cache_type"},
	)

)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordRuleProcessed increments the per-tenant rules-evaluated counter for
// one scheduled tick.
func RecordRuleProcessed(tenantID string, count int) {
	RulesProcessedTotal.WithLabelValues(tenantID).Add(float64(count))
}

// RecordExecution records the terminal result of one purchase executor run.
func RecordExecution(success bool) {
	result := "success"
	if !success {
		result = "failed"
	}
	ExecutionsTotal.WithLabelValues(result).Inc()
}

// RecordPlanDuration observes how long one tenant's rule engine tick took.
func RecordPlanDuration(tenantID string, seconds float64) {
	PlanDuration.WithLabelValues(tenantID).Observe(seconds)
}

// SetQuarantinedRules sets the current count of quarantined rules.
func SetQuarantinedRules(count int) {
	QuarantinedRules.Set(float64(count))
}

// RecordOrderValue adds the value of a generated purchase order to the
// running per-tenant total.
func RecordOrderValue(tenantID string, value float64) {
	OrderValueGenerated.WithLabelValues(tenantID).Add(value)
}
