package kv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	txCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_tx_cache_miss",
		Help: "The number of bridge transaction requests that aren't present in the cache.",
	})
	txCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_tx_cache_hit",
		Help: "The number of bridge transaction requests that are present in the cache.",
	})
)
