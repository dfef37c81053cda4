package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// One counter covers both caches. cache: permissions|menu_rows|menu_result;
// tier: local|shared|database; result: hit|miss|fallback.
var cacheRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "identity_cache_requests_total",
		Help: "Cache lookups by cache, tier and result",
	},
	[]string{"cache", "tier", "result"},
)

func observeHit(cache, tier string) {
	cacheRequests.WithLabelValues(cache, tier, "hit").Inc()
}

func observeMiss(cache, tier string) {
	cacheRequests.WithLabelValues(cache, tier, "miss").Inc()
}

// observeFallback counts reads answered by the database because a cache tier
// was unavailable, as opposed to a clean miss.
func observeFallback(cache string) {
	cacheRequests.WithLabelValues(cache, "database", "fallback").Inc()
}

// breakerState mirrors gobreaker's numeric states: 0 closed, 1 half-open,
// 2 open.
var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "identity_cache_breaker_state",
		Help: "Tier-2 cache circuit breaker state (0 closed, 1 half-open, 2 open)",
	},
	[]string{"breaker"},
)
