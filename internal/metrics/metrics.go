// Package metrics exposes the Prometheus instruments used across the
// scraping and caching layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SourceRequests counts outbound requests per source.
	SourceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fundscan",
		Subsystem: "source",
		Name:      "requests_total",
		Help:      "Outbound requests issued to each data source.",
	}, []string{"source"})

	// SourceFailures counts failed requests per source.
	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fundscan",
		Subsystem: "source",
		Name:      "failures_total",
		Help:      "Requests to each data source that ended in an error.",
	}, []string{"source"})

	// SourceRecords counts raw records returned per source.
	SourceRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fundscan",
		Subsystem: "source",
		Name:      "records_total",
		Help:      "Raw records delivered by each data source.",
	}, []string{"source"})

	// CacheHits counts benchmark cache hits.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fundscan",
		Subsystem: "benchmark_cache",
		Name:      "hits_total",
		Help:      "Benchmark lookups served from the cache.",
	})

	// CacheMisses counts benchmark cache misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fundscan",
		Subsystem: "benchmark_cache",
		Name:      "misses_total",
		Help:      "Benchmark lookups that fell through the cache.",
	})
)
