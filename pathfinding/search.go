package pathfinding

import "fmt"

// Result is the outcome of a successful search.
type Result struct {
	Algorithm Algorithm
	Start     NodeID
	Goal      NodeID
	Path      Path
	Cost      float64

	// Expanded counts nodes moved from open to closed, over all sub-searches.
	Expanded int
	// Open and Closed are diagnostic snapshots of the working sets when the
	// search stopped. Hierarchical searches merge those of their legs.
	Open   []NodeID
	Closed []NodeID
	// Legs holds the entry leg, cluster route and exit leg of a cross-cluster
	// hierarchical search, in that order. Nil otherwise.
	Legs []Path
}

// searchNodes runs the shared open/closed search loop from start to goal.
//
// The loop pops the best open node into closed until the best open node is
// the goal or the open list is empty. A neighbour is relaxed only if both
// ends see each other. A closed neighbour reached with a lower total
// estimate moves back to open.
func searchNodes(g *Graph, oracle VisibilityOracle, start, goal NodeID, s strategy) (*Result, error) {
	if !g.has(start) {
		return nil, fmt.Errorf("%w: start node %d not found", ErrInvalidRequest, start)
	}
	if !g.has(goal) {
		return nil, fmt.Errorf("%w: goal node %d not found", ErrInvalidRequest, goal)
	}

	goalPos := g.nodes[goal].Position
	state := NewSearchState(64)
	open := newFrontier()
	closed := make(map[NodeID]bool)
	var closedOrder []NodeID
	expanded := 0

	state.update(start, 0, s.heuristic(g.nodes[start].Position, goalPos), NoNode)
	open.Push(start, s.key(state.get(start)))

	for open.Len() > 0 && open.Peek() != goal {
		n := open.Pop()
		closed[n] = true
		closedOrder = append(closedOrder, n)
		expanded++

		current := g.nodes[n]
		currentRec := state.get(n)
		for _, m := range current.neighbors {
			neighbor := g.nodes[m]
			if !mutuallyVisible(oracle, current.Position, neighbor.Position) {
				continue
			}

			costSoFar := currentRec.CostSoFar + current.Position.Distance(neighbor.Position)
			heuristic := s.heuristic(neighbor.Position, goalPos)
			estimate := costSoFar + heuristic

			inClosed := closed[m]
			inOpen := open.Contains(m)
			better := state.Touched(m) && estimate < state.get(m).TotalEstimate

			switch {
			case inClosed && better:
				state.update(m, costSoFar, heuristic, n)
				delete(closed, m)
				open.Push(m, s.key(state.get(m)))
			case inOpen && better:
				state.update(m, costSoFar, heuristic, n)
				open.Push(m, s.key(state.get(m)))
			case !inClosed && !inOpen:
				state.update(m, costSoFar, heuristic, n)
				open.Push(m, s.key(state.get(m)))
			}
		}
	}

	if open.Len() == 0 {
		return nil, fmt.Errorf("%w: %d from %d after expanding %d nodes", ErrUnreachableGoal, goal, start, expanded)
	}

	// A reopened node may be closed more than once; keep its first slot.
	closedSnapshot := make([]NodeID, 0, len(closed))
	seen := make(map[NodeID]bool, len(closed))
	for _, id := range closedOrder {
		if closed[id] && !seen[id] {
			seen[id] = true
			closedSnapshot = append(closedSnapshot, id)
		}
	}

	path, err := reconstructPath(g, state, start, goal)
	if err != nil {
		return nil, err
	}

	return &Result{
		Start:    start,
		Goal:     goal,
		Path:     path,
		Cost:     path.TotalCost(),
		Expanded: expanded,
		Open:     open.Snapshot(),
		Closed:   closedSnapshot,
	}, nil
}
