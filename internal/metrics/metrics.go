// Package metrics exposes Prometheus instrumentation for the aggregation
// core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector bundles the counters tracked by the aggregation core.
type Collector struct {
	ProviderRequestsTotal *prometheus.CounterVec
	CacheEventsTotal      *prometheus.CounterVec
	FallbacksTotal        prometheus.Counter
	RateLimitRejections   prometheus.Counter
	AlertsEmittedTotal    *prometheus.CounterVec
}

// NewCollector registers the core metrics on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Outbound provider requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		CacheEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_events_total",
				Help:      "Cache lookups by event (hit, miss)",
			},
			[]string{"event"},
		),

		FallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_fallbacks_total",
				Help:      "Times the primary provider failed and the fallback was used",
			},
		),

		RateLimitRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_rejections_total",
				Help:      "Requests rejected by the local throttle",
			},
		),

		AlertsEmittedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_emitted_total",
				Help:      "Alerts emitted by source",
			},
			[]string{"source"},
		),
	}
}

// ProviderOutcome reports one provider call.
func (c *Collector) ProviderOutcome(provider string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
}
