package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// batchSize tracks how many ids each deferred resolution batch carried,
// split by entity kind.
var batchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "explorer",
	Name:      "resolver_batch_size",
	Help:      "Ids registered per deferred resolution batch, by entity kind.",
	Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
}, []string{"kind"})
