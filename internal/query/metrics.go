package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// shardQueries counts backend round-trips issued by the page walks, split
// by the query kind that drove them.
var shardQueries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "explorer",
	Name:      "shard_queries_total",
	Help:      "Backend shard and index queries issued, by query kind.",
}, []string{"kind"})
