// Package pathfinding computes shortest paths over a visibility graph of
// waypoints embedded in 3D space.
//
// # Model
//
// A Graph holds nodes (immutable positions) and directed adjacency computed
// once at level load. A ClusterSet groups nodes into a coarse graph used by
// hierarchical search; its inter-cluster route table is filled by a
// ClusterTableBuilder before any hierarchical request is served.
//
// # Search
//
// Engine exposes three interchangeable strategies: uniform-cost, heuristic
// (Euclidean distance to the goal) and hierarchical (cluster routing). All
// three run through one search loop. Working state (cost so far, heuristic,
// total estimate, predecessor) is allocated per request, so an Engine may be
// queried from several goroutines at once.
//
// # Thread Safety
//
// Graph and ClusterSet are single-writer during setup. After Graph.Freeze and
// a successful table build they are read-only and safe for concurrent use.
package pathfinding

import "errors"

// Sentinel errors for search requests.
var (
	// ErrUnreachableGoal is returned when the frontier empties before the goal
	// is reached, when predecessor reconstruction breaks, or when no cluster
	// route connects the start and goal clusters. No partial path is returned.
	ErrUnreachableGoal = errors.New("goal is unreachable")

	// ErrInvalidRequest is returned when the goal is unknown or the graph has
	// no nodes to resolve a start position from. No search is attempted.
	ErrInvalidRequest = errors.New("invalid path request")

	// ErrInconsistentClusterTable is returned when hierarchical search finds
	// missing exit nodes or cluster routes, which means the table builder did
	// not complete. It is a setup error, not a runtime condition.
	ErrInconsistentClusterTable = errors.New("inconsistent cluster table")
)

// Sentinel errors for graph and cluster construction.
var (
	// ErrGraphFrozen is returned when mutating a graph after Freeze.
	ErrGraphFrozen = errors.New("graph is frozen and cannot be modified")

	// ErrNodeNotFound is returned when an id does not name a node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrSelfLoop is returned when connecting a node to itself.
	ErrSelfLoop = errors.New("node cannot neighbor itself")

	// ErrClusterNotFound is returned when an id does not name a cluster.
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrNodeAlreadyBound is returned when binding a node that already
	// belongs to a cluster.
	ErrNodeAlreadyBound = errors.New("node already belongs to a cluster")

	// ErrTableBuilt is returned when changing cluster membership or adjacency
	// after the route table was built.
	ErrTableBuilt = errors.New("cluster table already built")

	// ErrBadRadius is returned for a non-positive visibility radius.
	ErrBadRadius = errors.New("visibility radius must be positive")
)
