package pathfinding

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("waypoint-planner.pathfinding")

var (
	// searchTotal counts path requests by algorithm and result.
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathfinding_search_total",
		Help: "Total path requests by algorithm and result",
	}, []string{"algorithm", "result"})

	// searchDuration tracks path request latency.
	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pathfinding_search_duration_seconds",
		Help:    "Path request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs to ~330ms
	}, []string{"algorithm"})

	// searchExpanded tracks nodes expanded per successful request.
	searchExpanded = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathfinding_nodes_expanded",
		Help:    "Nodes moved to the closed list per path request",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	tableBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathfinding_cluster_table_build_duration_seconds",
		Help:    "Cluster table build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

// resultLabel maps a search error to a metric label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrUnreachableGoal):
		return "unreachable"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrInconsistentClusterTable):
		return "inconsistent"
	default:
		return "error"
	}
}
