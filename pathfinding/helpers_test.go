package pathfinding_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"waypoint-planner/pathfinding"
)

// newSquare builds the unit square 0-1-2-3 on the ground plane with
// bidirectional edges along its sides only.
//
//	3 --- 2
//	|     |
//	0 --- 1
func newSquare(t *testing.T) *pathfinding.Graph {
	t.Helper()
	g := pathfinding.NewGraph()
	addNodes(t, g,
		pathfinding.Vec3{X: 0, Y: 0, Z: 0},
		pathfinding.Vec3{X: 1, Y: 0, Z: 0},
		pathfinding.Vec3{X: 1, Y: 0, Z: 1},
		pathfinding.Vec3{X: 0, Y: 0, Z: 1},
	)
	connectBoth(t, g, [][2]pathfinding.NodeID{{0, 1}, {1, 2}, {2, 3}, {3, 0}})
	return g
}

func addNodes(t *testing.T, g *pathfinding.Graph, positions ...pathfinding.Vec3) []pathfinding.NodeID {
	t.Helper()
	ids := make([]pathfinding.NodeID, len(positions))
	for i, p := range positions {
		id, err := g.AddNode(p)
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func connectBoth(t *testing.T, g *pathfinding.Graph, pairs [][2]pathfinding.NodeID) {
	t.Helper()
	for _, p := range pairs {
		require.NoError(t, g.ConnectBoth(p[0], p[1]))
	}
}

// randomGraph places n nodes in a 10x10x10 box and connects each pair with
// probability p. Edges are bidirectional.
func randomGraph(t *testing.T, seed int64, n int, p float64) *pathfinding.Graph {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	g := pathfinding.NewGraph()
	for i := 0; i < n; i++ {
		_, err := g.AddNode(pathfinding.Vec3{X: rng.Float64() * 10, Y: rng.Float64() * 10, Z: rng.Float64() * 10})
		require.NoError(t, err)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				require.NoError(t, g.ConnectBoth(pathfinding.NodeID(i), pathfinding.NodeID(j)))
			}
		}
	}
	return g
}

// bruteForceCost enumerates every simple path from start to goal and returns
// the cheapest cost, or +Inf if none exists.
func bruteForceCost(g *pathfinding.Graph, start, goal pathfinding.NodeID) float64 {
	best := math.Inf(1)
	visited := make(map[pathfinding.NodeID]bool)
	var walk func(cur pathfinding.NodeID, cost float64)
	walk = func(cur pathfinding.NodeID, cost float64) {
		if cost >= best {
			return
		}
		if cur == goal {
			best = cost
			return
		}
		visited[cur] = true
		from, _ := g.Node(cur)
		for _, next := range g.Neighbors(cur) {
			if visited[next] {
				continue
			}
			to, _ := g.Node(next)
			walk(next, cost+from.Position.Distance(to.Position))
		}
		visited[cur] = false
	}
	walk(start, 0)
	return best
}

// requireConnectedWalk asserts that consecutive path nodes are adjacent.
func requireConnectedWalk(t *testing.T, g *pathfinding.Graph, path pathfinding.Path) {
	t.Helper()
	for i := 0; i+1 < len(path); i++ {
		require.Truef(t, g.HasEdge(path[i].ID, path[i+1].ID),
			"path step %d -> %d is not an edge", path[i].ID, path[i+1].ID)
	}
}
