package octree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pcindex_octree_build_duration_seconds",
			Help:    "Duration of octree builds in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
	)

	builtPoints = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pcindex_octree_built_points_total",
			Help: "Total number of point indices partitioned by octree builds",
		},
	)

	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcindex_octree_queries_total",
			Help: "Total number of octree queries, labeled by query kind",
		},
		[]string{"query"},
	)
)

const (
	queryRay        = "ray"
	queryClosestBox = "closest_box"
	queryFarthest   = "farthest_box"
	queryNeighbours = "neighbours"
	queryPoint      = "point"
	queryKNN        = "knn"
)

func countQuery(kind string) {
	queriesTotal.WithLabelValues(kind).Inc()
}
