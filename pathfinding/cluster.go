package pathfinding

import (
	"fmt"
	"slices"
)

// ClusterID identifies a cluster within its ClusterSet.
type ClusterID int

// Cluster is a named group of nodes forming one vertex of the coarse graph.
type Cluster struct {
	ID   ClusterID
	Name string

	nodes     []NodeID
	neighbors []ClusterID

	// Filled by ClusterTableBuilder.
	exitNodes   map[ClusterID]NodeID
	pathToOther map[ClusterID]Path
}

// Nodes returns the member node ids in binding order.
func (c *Cluster) Nodes() []NodeID {
	return slices.Clone(c.nodes)
}

// Neighbors returns the adjacent clusters in linking order.
func (c *Cluster) Neighbors() []ClusterID {
	return slices.Clone(c.neighbors)
}

// ExitNode returns the node of c that forms the cheapest crossing to neighbor.
func (c *Cluster) ExitNode(neighbor ClusterID) (NodeID, bool) {
	id, ok := c.exitNodes[neighbor]
	return id, ok
}

// ExitNodeCount returns the number of recorded exit nodes.
func (c *Cluster) ExitNodeCount() int {
	return len(c.exitNodes)
}

// PathTo returns the precomputed cheapest node route from c to other.
// The returned slice is a copy.
func (c *Cluster) PathTo(other ClusterID) (Path, bool) {
	p, ok := c.pathToOther[other]
	if !ok {
		return nil, false
	}
	return slices.Clone(p), true
}

// RouteCount returns the number of clusters c has a precomputed route to.
func (c *Cluster) RouteCount() int {
	return len(c.pathToOther)
}

// ExitNodes lists the distinct exit nodes of c in neighbor order.
func (c *Cluster) ExitNodes() []NodeID {
	return orderedExits(c.neighbors, c.exitNodes)
}

func orderedExits(neighbors []ClusterID, exitNodes map[ClusterID]NodeID) []NodeID {
	var out []NodeID
	for _, n := range neighbors {
		if id, ok := exitNodes[n]; ok && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// ClusterSet holds every cluster of a level and the node -> cluster lookup.
type ClusterSet struct {
	graph    *Graph
	clusters []*Cluster
	byNode   map[NodeID]ClusterID
	built    bool
}

// NewClusterSet creates an empty cluster set over g.
func NewClusterSet(g *Graph) *ClusterSet {
	return &ClusterSet{
		graph:  g,
		byNode: make(map[NodeID]ClusterID),
	}
}

// AddCluster creates a cluster and returns its id.
func (cs *ClusterSet) AddCluster(name string) (ClusterID, error) {
	if cs.built {
		return -1, ErrTableBuilt
	}
	id := ClusterID(len(cs.clusters))
	cs.clusters = append(cs.clusters, &Cluster{ID: id, Name: name})
	return id, nil
}

// Bind adds node to cluster. A node belongs to at most one cluster.
func (cs *ClusterSet) Bind(cluster ClusterID, node NodeID) error {
	if cs.built {
		return ErrTableBuilt
	}
	c, ok := cs.Cluster(cluster)
	if !ok {
		return fmt.Errorf("%w: %d", ErrClusterNotFound, cluster)
	}
	if !cs.graph.has(node) {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, node)
	}
	if owner, bound := cs.byNode[node]; bound {
		return fmt.Errorf("%w: node %d in cluster %d", ErrNodeAlreadyBound, node, owner)
	}
	c.nodes = append(c.nodes, node)
	cs.byNode[node] = cluster
	return nil
}

// Link declares a and b adjacent. Adjacency is symmetric.
func (cs *ClusterSet) Link(a, b ClusterID) error {
	if cs.built {
		return ErrTableBuilt
	}
	ca, ok := cs.Cluster(a)
	if !ok {
		return fmt.Errorf("%w: %d", ErrClusterNotFound, a)
	}
	cb, ok := cs.Cluster(b)
	if !ok {
		return fmt.Errorf("%w: %d", ErrClusterNotFound, b)
	}
	if a == b {
		return fmt.Errorf("cluster %d cannot neighbor itself", a)
	}
	if !slices.Contains(ca.neighbors, b) {
		ca.neighbors = append(ca.neighbors, b)
	}
	if !slices.Contains(cb.neighbors, a) {
		cb.neighbors = append(cb.neighbors, a)
	}
	return nil
}

// Graph returns the graph the clusters partition.
func (cs *ClusterSet) Graph() *Graph {
	return cs.graph
}

// Cluster returns the cluster with the given id.
func (cs *ClusterSet) Cluster(id ClusterID) (*Cluster, bool) {
	if id < 0 || int(id) >= len(cs.clusters) {
		return nil, false
	}
	return cs.clusters[id], true
}

// Clusters returns all clusters in id order.
func (cs *ClusterSet) Clusters() []*Cluster {
	return slices.Clone(cs.clusters)
}

// Len returns the number of clusters.
func (cs *ClusterSet) Len() int {
	return len(cs.clusters)
}

// ClusterOf returns the cluster node belongs to.
func (cs *ClusterSet) ClusterOf(node NodeID) (ClusterID, bool) {
	id, ok := cs.byNode[node]
	return id, ok
}

// Built reports whether the route table has been published.
func (cs *ClusterSet) Built() bool {
	return cs.built
}

// Reachable reports whether to can be reached from from through declared
// cluster adjacency.
func (cs *ClusterSet) Reachable(from, to ClusterID) bool {
	if _, ok := cs.Cluster(from); !ok {
		return false
	}
	if _, ok := cs.Cluster(to); !ok {
		return false
	}
	visited := map[ClusterID]bool{from: true}
	queue := []ClusterID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return true
		}
		for _, n := range cs.clusters[cur].neighbors {
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}

// publish installs a completed table. Called once by the builder.
func (cs *ClusterSet) publish(exits []map[ClusterID]NodeID, routes []map[ClusterID]Path) {
	for i, c := range cs.clusters {
		c.exitNodes = exits[i]
		c.pathToOther = routes[i]
	}
	cs.built = true
}
