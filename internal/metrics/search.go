// Package metrics exposes Prometheus instrumentation for searches and the HTTP API.
package metrics

import (
	"github.com/lox/loan-record-search/internal/types"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "loan_search"

var (
	searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of searches by entry point",
		},
		[]string{"kind"},
	)

	searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search execution time in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	)

	searchMatches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_matches",
			Help:      "Number of records matched per search, before the limit",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	recordsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Number of loan records in the current store snapshot",
		},
	)
)

func init() {
	prometheus.MustRegister(searchesTotal, searchDuration, searchMatches, recordsLoaded)
}

// Search kinds
const (
	KindStructured = "structured"
	KindNatural    = "natural"
	KindSimilar    = "similar"
)

// ObserveSearch records one completed search
func ObserveSearch(kind string, result types.SearchResult) {
	searchesTotal.WithLabelValues(kind).Inc()
	searchDuration.WithLabelValues(kind).Observe(result.QueryTime.Seconds())
	searchMatches.Observe(float64(result.TotalMatches))
}

// CountSearch records a search that produced no SearchResult, such as a similarity lookup
func CountSearch(kind string) {
	searchesTotal.WithLabelValues(kind).Inc()
}

// SetRecordsLoaded records the size of the current store snapshot
func SetRecordsLoaded(n int) {
	recordsLoaded.Set(float64(n))
}
