package aggregate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the aggregation fetcher.
var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yieldwatch_pages_fetched_total",
		Help: "Total page fetch outcomes by result",
	}, []string{"result"}) // success, failure, cache_hit

	pageFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "yieldwatch_page_fetch_duration_seconds",
		Help:    "Single page fetch+decode duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20},
	})

	pageRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yieldwatch_page_retries_total",
		Help: "Total per-page retry attempts",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yieldwatch_aggregate_runs_total",
		Help: "Total aggregation runs by result",
	}, []string{"result"}) // ok, discovery_error, high_failure_rate, aborted
)
