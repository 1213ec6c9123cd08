package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus collectors
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	LatencyHistogram *prometheus.HistogramVec

	UnitsInputTotal  *prometheus.CounterVec
	UnitsOutputTotal *prometheus.CounterVec

	CostTotal *prometheus.CounterVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	RetriesTotal   *prometheus.CounterVec
	FallbacksTotal *prometheus.CounterVec

	AdmissionDeniedTotal *prometheus.CounterVec
}

// New creates and registers the gateway metrics
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Total number of gateway invocations",
			},
			[]string{"model", "operation", "status"},
		),

		LatencyHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_latency_seconds",
				Help:    "Invocation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "operation"},
		),

		UnitsInputTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_input_units_total",
				Help: "Total metered input units",
			},
			[]string{"model", "operation"},
		),

		UnitsOutputTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_output_units_total",
				Help: "Total metered output units",
			},
			[]string{"model", "operation"},
		),

		CostTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_cost_total",
				Help: "Total estimated cost of invocations",
			},
			[]string{"model", "operation"},
		),

		CacheHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_cache_hits_total",
				Help: "Total number of response cache hits",
			},
		),

		CacheMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_cache_misses_total",
				Help: "Total number of response cache misses",
			},
		),

		RetriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_retries_total",
				Help: "Total number of retried attempts",
			},
			[]string{"model"},
		),

		FallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_fallbacks_total",
				Help: "Total number of fallback model substitutions",
			},
			[]string{"primary", "fallback"},
		),

		AdmissionDeniedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_admission_denied_total",
				Help: "Total number of invocations rejected by budget admission control",
			},
			[]string{"model"},
		),
	}
}

// ObserveRequest records the outcome of one invocation
func (m *Metrics) ObserveRequest(model, operation, status string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(model, operation, status).Inc()
	m.LatencyHistogram.WithLabelValues(model, operation).Observe(elapsed.Seconds())
}

// ObserveUsage records metered units and cost for a successful invocation
func (m *Metrics) ObserveUsage(model, operation string, inputUnits, outputUnits int, cost float64) {
	m.UnitsInputTotal.WithLabelValues(model, operation).Add(float64(inputUnits))
	m.UnitsOutputTotal.WithLabelValues(model, operation).Add(float64(outputUnits))
	m.CostTotal.WithLabelValues(model, operation).Add(cost)
}
