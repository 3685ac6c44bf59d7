package indexer

import "github.com/prometheus/client_golang/prometheus"

// builds counts index builds by outcome ("ok" or "error").
var builds = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "search_index_builds_total",
		Help: "Total number of search index builds by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(builds)
}
