package pathfinding

import (
	"fmt"
	"strings"
)

// Algorithm selects the search strategy of a request.
type Algorithm int

const (
	// UniformCost is Dijkstra's algorithm: zero heuristic.
	UniformCost Algorithm = iota
	// Heuristic is A* with the Euclidean distance to the goal as heuristic.
	Heuristic
	// Hierarchical routes through the precomputed cluster table.
	Hierarchical
)

// String returns the canonical algorithm name.
func (a Algorithm) String() string {
	switch a {
	case UniformCost:
		return "uniform-cost"
	case Heuristic:
		return "heuristic"
	case Hierarchical:
		return "hierarchical"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps a name (canonical or common alias) to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "uniform-cost", "uniform", "dijkstra":
		return UniformCost, nil
	case "heuristic", "astar", "a*":
		return Heuristic, nil
	case "hierarchical", "cluster":
		return Hierarchical, nil
	default:
		return 0, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidRequest, name)
	}
}

// Ordering selects the open-list key.
type Ordering int

const (
	// OrderByCostSoFar sorts the open list by g for every strategy. With a
	// heuristic it acts as uniform-cost search with heuristic-biased
	// relaxation.
	OrderByCostSoFar Ordering = iota
	// OrderByTotalEstimate sorts by f = g + h, which is textbook A*.
	OrderByTotalEstimate
)

func (o Ordering) String() string {
	switch o {
	case OrderByCostSoFar:
		return "cost-so-far"
	case OrderByTotalEstimate:
		return "total-estimate"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// ParseOrdering maps a config name to an Ordering.
func ParseOrdering(name string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cost-so-far", "g":
		return OrderByCostSoFar, nil
	case "total-estimate", "f":
		return OrderByTotalEstimate, nil
	default:
		return 0, fmt.Errorf("unknown ordering %q", name)
	}
}

// HierarchyMode selects what a cross-cluster hierarchical search returns.
type HierarchyMode int

const (
	// HierarchyFullRoute joins entry leg, cluster route and exit leg.
	HierarchyFullRoute HierarchyMode = iota
	// HierarchyExitLegOnly returns only the leg from the goal cluster's
	// entry node to the goal.
	HierarchyExitLegOnly
)

func (m HierarchyMode) String() string {
	switch m {
	case HierarchyFullRoute:
		return "full-route"
	case HierarchyExitLegOnly:
		return "exit-leg-only"
	default:
		return fmt.Sprintf("HierarchyMode(%d)", int(m))
	}
}

// ParseHierarchyMode maps a config name to a HierarchyMode.
func ParseHierarchyMode(name string) (HierarchyMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "full-route", "full":
		return HierarchyFullRoute, nil
	case "exit-leg-only", "exit-leg":
		return HierarchyExitLegOnly, nil
	default:
		return 0, fmt.Errorf("unknown hierarchy mode %q", name)
	}
}

// strategy parameterises the shared search loop.
type strategy struct {
	name      string
	heuristic func(candidate, goal Vec3) float64
	key       func(rec *SearchRecord) float64
}

func zeroHeuristic(Vec3, Vec3) float64 { return 0 }

func euclideanHeuristic(candidate, goal Vec3) float64 {
	return candidate.Distance(goal)
}

func keyFor(o Ordering) func(rec *SearchRecord) float64 {
	if o == OrderByTotalEstimate {
		return func(rec *SearchRecord) float64 { return rec.TotalEstimate }
	}
	return func(rec *SearchRecord) float64 { return rec.CostSoFar }
}

func uniformCostStrategy(o Ordering) strategy {
	return strategy{name: UniformCost.String(), heuristic: zeroHeuristic, key: keyFor(o)}
}

func heuristicStrategy(o Ordering) strategy {
	return strategy{name: Heuristic.String(), heuristic: euclideanHeuristic, key: keyFor(o)}
}
