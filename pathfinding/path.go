package pathfinding

import (
	"fmt"
	"slices"
)

// Path is an ordered node sequence from start to goal inclusive. The slice
// belongs to the caller; the nodes are shared, read-only graph nodes.
type Path []*Node

// TotalCost returns the sum of consecutive Euclidean distances.
func (p Path) TotalCost() float64 {
	return TotalCost(p)
}

// IDs returns the node ids of the path in order.
func (p Path) IDs() []NodeID {
	ids := make([]NodeID, len(p))
	for i, n := range p {
		ids[i] = n.ID
	}
	return ids
}

// Positions returns the node positions of the path in order.
func (p Path) Positions() []Vec3 {
	out := make([]Vec3, len(p))
	for i, n := range p {
		out[i] = n.Position
	}
	return out
}

// First returns the first node, or nil for an empty path.
func (p Path) First() *Node {
	if len(p) == 0 {
		return nil
	}
	return p[0]
}

// Last returns the last node, or nil for an empty path.
func (p Path) Last() *Node {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// TotalCost returns the sum of consecutive Euclidean distances along path.
// Paths with fewer than two nodes cost 0.
func TotalCost(path Path) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		total += path[i].Position.Distance(path[i+1].Position)
	}
	return total
}

// joinPaths concatenates legs whose ends meet, dropping the repeated joint
// node. Empty legs are skipped.
func joinPaths(legs ...Path) Path {
	var out Path
	for _, leg := range legs {
		if len(leg) == 0 {
			continue
		}
		if len(out) > 0 && out.Last() == leg.First() {
			leg = leg[1:]
		}
		out = append(out, leg...)
	}
	return out
}

// reconstructPath walks predecessor links from goal back to start. The walk
// is bounded by the number of touched nodes, so a corrupted cyclic chain
// fails instead of looping.
func reconstructPath(g *Graph, state *SearchState, start, goal NodeID) (Path, error) {
	limit := state.Len()
	ids := []NodeID{goal}
	for cur := goal; cur != start; {
		if len(ids) > limit {
			return nil, fmt.Errorf("%w: predecessor chain from %d exceeds %d nodes", ErrUnreachableGoal, goal, limit)
		}
		rec := state.get(cur)
		if rec == nil || rec.Predecessor == NoNode {
			return nil, fmt.Errorf("%w: node %d has no predecessor", ErrUnreachableGoal, cur)
		}
		cur = rec.Predecessor
		ids = append(ids, cur)
	}
	slices.Reverse(ids)

	path := make(Path, len(ids))
	for i, id := range ids {
		path[i] = g.nodes[id]
	}
	return path, nil
}
