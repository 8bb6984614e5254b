package pathfinding

import (
	"fmt"

	"go.uber.org/zap"
)

// ConnectWithinRadius adds a directed edge a -> b for every source node a and
// every other node b at most radius away when a and b see each other in both
// directions. With no sources every node is a source. It returns the number
// of edges added. A nil oracle is open space.
func ConnectWithinRadius(g *Graph, oracle VisibilityOracle, radius float64, logger *zap.Logger, sources ...NodeID) (int, error) {
	if radius <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrBadRadius, radius)
	}
	if g.frozen {
		return 0, ErrGraphFrozen
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sources) == 0 {
		sources = make([]NodeID, len(g.nodes))
		for i := range g.nodes {
			sources[i] = NodeID(i)
		}
	}
	for _, id := range sources {
		if !g.has(id) {
			return 0, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
		}
	}

	ix := NewNodeIndex(g)
	checked, added := 0, 0
	for _, id := range sources {
		a := g.nodes[id]
		for _, b := range ix.Within(a.Position, radius) {
			if b == a.ID {
				continue
			}
			checked++
			if !mutuallyVisible(oracle, a.Position, g.nodes[b].Position) {
				continue
			}
			before := len(a.neighbors)
			if err := g.Connect(a.ID, b); err != nil {
				return added, err
			}
			if len(a.neighbors) > before {
				added++
			}
		}
	}

	logger.Debug("visibility edges built",
		zap.Int("sources", len(sources)),
		zap.Float64("radius", radius),
		zap.Int("checked", checked),
		zap.Int("added", added))
	return added, nil
}
