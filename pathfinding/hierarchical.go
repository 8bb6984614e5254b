package pathfinding

import (
	"fmt"
	"slices"
)

// searchHierarchical routes start -> goal through the cluster table.
//
// Inside one cluster it is a plain heuristic search. Across clusters it runs
// an entry leg from start to the first node of the precomputed cluster route
// and an exit leg from the last route node to goal. In HierarchyFullRoute
// mode the returned path is entry + route + exit; in HierarchyExitLegOnly
// mode it is the exit leg alone.
func (e *Engine) searchHierarchical(start, goal NodeID) (*Result, error) {
	cs := e.options.Clusters
	if cs == nil || !cs.Built() {
		return nil, fmt.Errorf("%w: cluster table not built", ErrInconsistentClusterTable)
	}
	startCluster, ok := cs.ClusterOf(start)
	if !ok {
		return nil, fmt.Errorf("%w: start node %d belongs to no cluster", ErrInconsistentClusterTable, start)
	}
	goalCluster, ok := cs.ClusterOf(goal)
	if !ok {
		return nil, fmt.Errorf("%w: goal node %d belongs to no cluster", ErrInconsistentClusterTable, goal)
	}

	legStrategy := heuristicStrategy(e.options.Ordering)
	if startCluster == goalCluster {
		return searchNodes(e.graph, e.options.Oracle, start, goal, legStrategy)
	}

	if c := cs.clusters[startCluster]; len(c.exitNodes) < len(c.neighbors) {
		return nil, fmt.Errorf("%w: cluster %d has no exit nodes", ErrInconsistentClusterTable, startCluster)
	}
	route, ok := cs.clusters[startCluster].pathToOther[goalCluster]
	if !ok || len(route) == 0 {
		return nil, fmt.Errorf("%w: no route from cluster %d to cluster %d",
			ErrUnreachableGoal, startCluster, goalCluster)
	}

	entry, err := searchNodes(e.graph, e.options.Oracle, start, route.First().ID, legStrategy)
	if err != nil {
		return nil, fmt.Errorf("entry leg to node %d: %w", route.First().ID, err)
	}
	exit, err := searchNodes(e.graph, e.options.Oracle, route.Last().ID, goal, legStrategy)
	if err != nil {
		return nil, fmt.Errorf("exit leg from node %d: %w", route.Last().ID, err)
	}

	res := &Result{
		Start:    start,
		Goal:     goal,
		Expanded: entry.Expanded + exit.Expanded,
		Open:     mergeIDs(entry.Open, exit.Open),
		Closed:   mergeIDs(entry.Closed, exit.Closed),
		Legs:     []Path{entry.Path, slices.Clone(route), exit.Path},
	}
	switch e.options.Hierarchy {
	case HierarchyExitLegOnly:
		res.Path = slices.Clone(exit.Path)
	default:
		res.Path = joinPaths(entry.Path, route, exit.Path)
	}
	res.Cost = res.Path.TotalCost()
	return res, nil
}

// mergeIDs returns the union of a and b, keeping first-seen order.
func mergeIDs(a, b []NodeID) []NodeID {
	out := make([]NodeID, 0, len(a)+len(b))
	seen := make(map[NodeID]bool, len(a)+len(b))
	for _, ids := range [][]NodeID{a, b} {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
