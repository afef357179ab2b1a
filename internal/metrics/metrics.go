// Package metrics exposes the Prometheus instrumentation for the caching
// layer and the webhook surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts read-through lookups served from Redis, by resource.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deskboard",
		Name:      "cache_hits_total",
		Help:      "Read-through fetches served from cache.",
	}, []string{"resource"})

	// CacheMisses counts lookups that fell through to the Zendesk API.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deskboard",
		Name:      "cache_misses_total",
		Help:      "Read-through fetches that called the upstream API.",
	}, []string{"resource"})

	// UpstreamErrors counts failed Zendesk calls, by resource.
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deskboard",
		Name:      "upstream_errors_total",
		Help:      "Zendesk API calls that returned an error.",
	}, []string{"resource"})

	// WebhookRejected counts webhook events dropped by the rate limiter.
	WebhookRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "deskboard",
		Name:      "webhook_rejected_total",
		Help:      "Webhook events rejected by the rate limiter.",
	})

	// Invalidations counts cache keys deleted on webhook events.
	Invalidations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "deskboard",
		Name:      "cache_invalidations_total",
		Help:      "Cache entries proactively invalidated.",
	})
)
