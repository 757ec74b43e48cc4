package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	LedgerWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energy_ledger_writes_total",
		Help: "Ledger increments by kind and result",
	}, []string{"kind", "result"})

	UsersRegisteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energy_users_registered_total",
		Help: "User registrations by result",
	}, []string{"result"})

	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energy_upstream_requests_total",
		Help: "Outbound data-source requests by provider and result",
	}, []string{"provider", "result"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "energy_upstream_latency_seconds",
		Help:    "Outbound data-source latency including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	PriceCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energy_price_cache_total",
		Help: "Day-ahead price cache lookups by result",
	}, []string{"result"})
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
