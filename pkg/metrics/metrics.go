package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "armory", Name: "store_cache_hits_total", Help: "Number of catalog reads served from the in-process cache."},
	)
	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "armory", Name: "store_cache_misses_total", Help: "Number of catalog reads that required a remote fetch."},
	)
	RemoteRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "armory", Name: "remote_store_requests_total", Help: "Number of document store requests by operation."},
		[]string{"op"},
	)
	RemoteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "armory", Name: "remote_store_failures_total", Help: "Number of failed document store requests by operation."},
		[]string{"op"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "armory", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "armory", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(CacheHits)
	reg.MustRegister(CacheMisses)
	reg.MustRegister(RemoteRequests)
	reg.MustRegister(RemoteFailures)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
