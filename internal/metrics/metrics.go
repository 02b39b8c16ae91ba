// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tastesync"

var (
	// CacheLookups counts cache reads by result: hit, miss, expired, corrupt
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Cache store reads by result.",
	}, []string{"result"})

	// CacheWrites counts checkpoint writes by partition
	CacheWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_writes_total",
		Help:      "Cache store writes by partition.",
	}, []string{"partition"})

	// PagesFetched counts catalog pages fetched over the network
	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_fetched_total",
		Help:      "Catalog pages fetched over the network.",
	})

	// Resolutions counts identity resolutions by outcome: resolved, not_found, error, sticky, memo
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Identity resolutions by outcome.",
	}, []string{"outcome"})

	// SearchRequests counts identity service searches by category
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_requests_total",
		Help:      "Identity service search requests by category.",
	}, []string{"category"})

	// Runs counts backup runs by result: success, partial, failed
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Backup runs by result.",
	}, []string{"result"})

	// HTTPRequests counts served requests by route and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by path and status code.",
	}, []string{"path", "code"})
)
