package search

import "github.com/prometheus/client_golang/prometheus"

var (
	// queries counts Search calls that reached the matcher.
	queries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "search_queries_total",
		Help: "Total number of search queries answered.",
	})

	// indexItems reports the size of the currently loaded index.
	indexItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "search_index_items",
		Help: "Number of items in the loaded search index.",
	})
)

func init() {
	prometheus.MustRegister(queries, indexItems)
}
