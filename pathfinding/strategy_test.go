package pathfinding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waypoint-planner/pathfinding"
)

func TestParseAlgorithm(t *testing.T) {
	cases := []struct {
		in   string
		want pathfinding.Algorithm
	}{
		{"uniform-cost", pathfinding.UniformCost},
		{"Dijkstra", pathfinding.UniformCost},
		{"heuristic", pathfinding.Heuristic},
		{" astar ", pathfinding.Heuristic},
		{"A*", pathfinding.Heuristic},
		{"hierarchical", pathfinding.Hierarchical},
		{"cluster", pathfinding.Hierarchical},
	}
	for _, tc := range cases {
		got, err := pathfinding.ParseAlgorithm(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := pathfinding.ParseAlgorithm("bfs")
	require.ErrorIs(t, err, pathfinding.ErrInvalidRequest)
}

func TestAlgorithmString_RoundTrips(t *testing.T) {
	for _, a := range []pathfinding.Algorithm{pathfinding.UniformCost, pathfinding.Heuristic, pathfinding.Hierarchical} {
		got, err := pathfinding.ParseAlgorithm(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	assert.Equal(t, "Algorithm(9)", pathfinding.Algorithm(9).String())
}

func TestParseOrderingAndHierarchyMode(t *testing.T) {
	o, err := pathfinding.ParseOrdering("")
	require.NoError(t, err)
	assert.Equal(t, pathfinding.OrderByCostSoFar, o)
	o, err = pathfinding.ParseOrdering("total-estimate")
	require.NoError(t, err)
	assert.Equal(t, pathfinding.OrderByTotalEstimate, o)
	_, err = pathfinding.ParseOrdering("h")
	require.Error(t, err)

	m, err := pathfinding.ParseHierarchyMode("exit-leg-only")
	require.NoError(t, err)
	assert.Equal(t, pathfinding.HierarchyExitLegOnly, m)
	m, err = pathfinding.ParseHierarchyMode("")
	require.NoError(t, err)
	assert.Equal(t, pathfinding.HierarchyFullRoute, m)
	_, err = pathfinding.ParseHierarchyMode("bridge")
	require.Error(t, err)
}
