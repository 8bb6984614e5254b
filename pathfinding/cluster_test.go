package pathfinding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"waypoint-planner/pathfinding"
)

// corridorLevel builds six nodes on the X axis chained 0-1-2-3-4-5, an
// unclustered node 6 attached to 5 and an isolated node 7.
// Clusters: west {0,1,2}, east {3,4,5} (linked), island {7}.
func corridorLevel(t *testing.T) (*pathfinding.Graph, *pathfinding.ClusterSet) {
	t.Helper()
	g := pathfinding.NewGraph()
	for x := 0; x <= 6; x++ {
		addNodes(t, g, pathfinding.Vec3{X: float64(x)})
	}
	addNodes(t, g, pathfinding.Vec3{X: 20})
	connectBoth(t, g, [][2]pathfinding.NodeID{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}})

	cs := pathfinding.NewClusterSet(g)
	west := addCluster(t, cs, "west", 0, 1, 2)
	east := addCluster(t, cs, "east", 3, 4, 5)
	addCluster(t, cs, "island", 7)
	require.NoError(t, cs.Link(west, east))
	return g, cs
}

func addCluster(t *testing.T, cs *pathfinding.ClusterSet, name string, nodes ...pathfinding.NodeID) pathfinding.ClusterID {
	t.Helper()
	id, err := cs.AddCluster(name)
	require.NoError(t, err)
	for _, n := range nodes {
		require.NoError(t, cs.Bind(id, n))
	}
	return id
}

func buildTable(t *testing.T, cs *pathfinding.ClusterSet, opts ...pathfinding.BuilderOption) {
	t.Helper()
	opts = append([]pathfinding.BuilderOption{pathfinding.WithTableLogger(zaptest.NewLogger(t))}, opts...)
	require.NoError(t, pathfinding.NewClusterTableBuilder(opts...).Build(context.Background(), cs))
}

func TestClusterSet_Membership(t *testing.T) {
	_, cs := corridorLevel(t)

	c, ok := cs.ClusterOf(4)
	require.True(t, ok)
	assert.Equal(t, pathfinding.ClusterID(1), c)
	_, ok = cs.ClusterOf(6)
	assert.False(t, ok)

	require.ErrorIs(t, cs.Bind(0, 4), pathfinding.ErrNodeAlreadyBound)
	require.ErrorIs(t, cs.Bind(9, 6), pathfinding.ErrClusterNotFound)
	require.ErrorIs(t, cs.Bind(0, 99), pathfinding.ErrNodeNotFound)
	require.Error(t, cs.Link(0, 0))

	west, _ := cs.Cluster(0)
	east, _ := cs.Cluster(1)
	assert.Equal(t, []pathfinding.ClusterID{1}, west.Neighbors())
	assert.Equal(t, []pathfinding.ClusterID{0}, east.Neighbors())

	assert.True(t, cs.Reachable(0, 1))
	assert.False(t, cs.Reachable(0, 2))
	assert.False(t, cs.Built())
}

func TestClusterTableBuilder_BridgesAndRoutes(t *testing.T) {
	g, cs := corridorLevel(t)
	buildTable(t, cs, pathfinding.WithTableWorkers(2))

	require.True(t, cs.Built())
	assert.True(t, g.Frozen())

	west, _ := cs.Cluster(0)
	east, _ := cs.Cluster(1)
	island, _ := cs.Cluster(2)

	exit, ok := west.ExitNode(1)
	require.True(t, ok)
	assert.Equal(t, pathfinding.NodeID(2), exit)
	exit, ok = east.ExitNode(0)
	require.True(t, ok)
	assert.Equal(t, pathfinding.NodeID(3), exit)
	assert.Zero(t, island.ExitNodeCount())

	route, ok := west.PathTo(1)
	require.True(t, ok)
	assert.Equal(t, []pathfinding.NodeID{2, 3}, route.IDs())
	route, ok = east.PathTo(0)
	require.True(t, ok)
	assert.Equal(t, []pathfinding.NodeID{3, 2}, route.IDs())

	_, ok = west.PathTo(2)
	assert.False(t, ok)
	assert.Zero(t, island.RouteCount())

	_, err := cs.AddCluster("late")
	require.ErrorIs(t, err, pathfinding.ErrTableBuilt)
	require.ErrorIs(t, cs.Link(0, 2), pathfinding.ErrTableBuilt)
	require.ErrorIs(t,
		pathfinding.NewClusterTableBuilder().Build(context.Background(), cs),
		pathfinding.ErrTableBuilt)
}

func TestClusterTableBuilder_MissingBridge(t *testing.T) {
	_, cs := corridorLevel(t)
	// Nothing on the west side of x=2.5 sees anything on the east side.
	wall := pathfinding.VisibilityFunc(func(a, b pathfinding.Vec3) bool {
		return (a.X < 2.5) == (b.X < 2.5)
	})
	err := pathfinding.NewClusterTableBuilder(pathfinding.WithTableOracle(wall)).Build(context.Background(), cs)
	require.ErrorIs(t, err, pathfinding.ErrInconsistentClusterTable)
	assert.False(t, cs.Built())
	west, _ := cs.Cluster(0)
	assert.Zero(t, west.ExitNodeCount())
}

func TestClusterTableBuilder_AdjacentButDisconnected(t *testing.T) {
	g := pathfinding.NewGraph()
	addNodes(t, g, pathfinding.Vec3{}, pathfinding.Vec3{X: 1}, pathfinding.Vec3{X: 2}, pathfinding.Vec3{X: 3})
	connectBoth(t, g, [][2]pathfinding.NodeID{{0, 1}, {2, 3}})

	cs := pathfinding.NewClusterSet(g)
	a := addCluster(t, cs, "a", 0, 1)
	b := addCluster(t, cs, "b", 2, 3)
	require.NoError(t, cs.Link(a, b))
	buildTable(t, cs)

	// Bridges exist (the pair sees each other) but no edge crosses.
	ca, _ := cs.Cluster(a)
	exit, ok := ca.ExitNode(b)
	require.True(t, ok)
	assert.Equal(t, pathfinding.NodeID(1), exit)
	assert.Zero(t, ca.RouteCount())

	e := newEngine(t, g, pathfinding.WithClusters(cs))
	_, err := e.SearchBetween(context.Background(), 0, 3, pathfinding.Hierarchical)
	require.ErrorIs(t, err, pathfinding.ErrUnreachableGoal)
}

func TestClusterTableBuilder_OneWayCrossing(t *testing.T) {
	g := pathfinding.NewGraph()
	addNodes(t, g, pathfinding.Vec3{}, pathfinding.Vec3{X: 1}, pathfinding.Vec3{X: 2}, pathfinding.Vec3{X: 3})
	connectBoth(t, g, [][2]pathfinding.NodeID{{0, 1}, {2, 3}})
	require.NoError(t, g.Connect(1, 2))

	cs := pathfinding.NewClusterSet(g)
	west := addCluster(t, cs, "west", 0, 1)
	east := addCluster(t, cs, "east", 2, 3)
	require.NoError(t, cs.Link(west, east))
	buildTable(t, cs)
	require.True(t, cs.Built())

	cw, _ := cs.Cluster(west)
	ce, _ := cs.Cluster(east)
	route, ok := cw.PathTo(east)
	require.True(t, ok)
	assert.Equal(t, []pathfinding.NodeID{1, 2}, route.IDs())
	_, ok = ce.PathTo(west)
	assert.False(t, ok)

	e := newEngine(t, g, pathfinding.WithClusters(cs))
	ctx := context.Background()
	res, err := e.SearchBetween(ctx, 0, 3, pathfinding.Hierarchical)
	require.NoError(t, err)
	assert.Equal(t, []pathfinding.NodeID{0, 1, 2, 3}, res.Path.IDs())

	_, err = e.SearchBetween(ctx, 3, 0, pathfinding.Hierarchical)
	require.ErrorIs(t, err, pathfinding.ErrUnreachableGoal)
}

func TestClusterTableBuilder_CancelledContext(t *testing.T) {
	_, cs := corridorLevel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pathfinding.NewClusterTableBuilder(pathfinding.WithTableWorkers(1)).Build(ctx, cs)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, cs.Built())
	west, _ := cs.Cluster(0)
	assert.Zero(t, west.RouteCount())
	assert.Zero(t, west.ExitNodeCount())
}

func TestClusterTableBuilder_Completeness(t *testing.T) {
	// 3x3 lattice, one cluster per column, columns linked in a chain.
	g := pathfinding.NewGraph()
	for x := 0; x < 3; x++ {
		for z := 0; z < 3; z++ {
			addNodes(t, g, pathfinding.Vec3{X: float64(x), Z: float64(z)})
		}
	}
	id := func(x, z int) pathfinding.NodeID { return pathfinding.NodeID(x*3 + z) }
	for x := 0; x < 3; x++ {
		for z := 0; z < 3; z++ {
			if x+1 < 3 {
				require.NoError(t, g.ConnectBoth(id(x, z), id(x+1, z)))
			}
			if z+1 < 3 {
				require.NoError(t, g.ConnectBoth(id(x, z), id(x, z+1)))
			}
		}
	}
	cs := pathfinding.NewClusterSet(g)
	var cols []pathfinding.ClusterID
	for x := 0; x < 3; x++ {
		cols = append(cols, addCluster(t, cs, "col", id(x, 0), id(x, 1), id(x, 2)))
	}
	require.NoError(t, cs.Link(cols[0], cols[1]))
	require.NoError(t, cs.Link(cols[1], cols[2]))
	buildTable(t, cs)

	for _, from := range cs.Clusters() {
		for _, to := range cs.Clusters() {
			if from.ID == to.ID {
				continue
			}
			route, ok := from.PathTo(to.ID)
			require.Truef(t, ok, "no route %d -> %d", from.ID, to.ID)
			assert.Contains(t, from.ExitNodes(), route.First().ID)
			assert.Contains(t, to.ExitNodes(), route.Last().ID)
			requireConnectedWalk(t, g, route)
		}
	}

	e := newEngine(t, g, pathfinding.WithClusters(cs))
	ctx := context.Background()
	for start := pathfinding.NodeID(0); start < 9; start++ {
		for goal := pathfinding.NodeID(0); goal < 9; goal++ {
			res, err := e.SearchBetween(ctx, start, goal, pathfinding.Hierarchical)
			require.NoErrorf(t, err, "%d -> %d", start, goal)
			assert.Equal(t, start, res.Path.First().ID)
			assert.Equal(t, goal, res.Path.Last().ID)
			requireConnectedWalk(t, g, res.Path)

			optimal, err := e.SearchBetween(ctx, start, goal, pathfinding.UniformCost)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Cost+costTolerance, optimal.Cost)
		}
	}
}
