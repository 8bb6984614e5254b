package pathfinding

import (
	"fmt"
	"math"
	"slices"
)

// NodeID identifies a node within its Graph. Ids are dense, starting at 0.
type NodeID int

// NoNode is the zero predecessor: no node.
const NoNode NodeID = -1

// Node is a waypoint in the visibility graph.
type Node struct {
	ID       NodeID
	Position Vec3

	neighbors []NodeID // directed: nodes visible from this one
}

// Degree returns the number of outgoing edges.
func (n *Node) Degree() int {
	return len(n.neighbors)
}

// Graph represents the visibility graph searched by the engine.
type Graph struct {
	nodes  []*Node
	frozen bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode places a new node at pos and returns its id.
func (g *Graph) AddNode(pos Vec3) (NodeID, error) {
	if g.frozen {
		return NoNode, ErrGraphFrozen
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node{ID: id, Position: pos})
	return id, nil
}

// Connect adds a directed edge from -> to. Duplicate edges are ignored.
func (g *Graph) Connect(from, to NodeID) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if !g.has(from) {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, from)
	}
	if !g.has(to) {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, to)
	}
	if from == to {
		return fmt.Errorf("%w: %d", ErrSelfLoop, from)
	}
	n := g.nodes[from]
	if slices.Contains(n.neighbors, to) {
		return nil
	}
	n.neighbors = append(n.neighbors, to)
	return nil
}

// ConnectBoth adds edges a -> b and b -> a.
func (g *Graph) ConnectBoth(a, b NodeID) error {
	if err := g.Connect(a, b); err != nil {
		return err
	}
	return g.Connect(b, a)
}

// Freeze makes the topology read-only. Safe to call more than once.
func (g *Graph) Freeze() {
	g.frozen = true
}

// Frozen reports whether Freeze has been called.
func (g *Graph) Frozen() bool {
	return g.frozen
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, n := range g.nodes {
		total += len(n.neighbors)
	}
	return total
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	if !g.has(id) {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns all nodes in id order. The slice is a copy; the nodes are not.
func (g *Graph) Nodes() []*Node {
	return slices.Clone(g.nodes)
}

// Neighbors returns the precomputed adjacency of id, or nil for an unknown id.
func (g *Graph) Neighbors(id NodeID) []NodeID {
	if !g.has(id) {
		return nil
	}
	return slices.Clone(g.nodes[id].neighbors)
}

// HasEdge reports whether to is in the adjacency of from.
func (g *Graph) HasEdge(from, to NodeID) bool {
	if !g.has(from) {
		return false
	}
	return slices.Contains(g.nodes[from].neighbors, to)
}

// NearestTo returns the candidate closest to pos. Ties go to the candidate
// seen first. Unknown ids are skipped; ok is false if nothing was left.
func (g *Graph) NearestTo(pos Vec3, candidates []NodeID) (NodeID, bool) {
	nearest := NoNode
	minDist := math.Inf(1)
	for _, id := range candidates {
		if !g.has(id) {
			continue
		}
		if dist := pos.Distance(g.nodes[id].Position); nearest == NoNode || dist < minDist {
			minDist = dist
			nearest = id
		}
	}
	return nearest, nearest != NoNode
}

// Nearest returns the node closest to pos over the whole graph.
func (g *Graph) Nearest(pos Vec3) (NodeID, bool) {
	nearest := NoNode
	minDist := math.Inf(1)
	for _, n := range g.nodes {
		if dist := pos.Distance(n.Position); nearest == NoNode || dist < minDist {
			minDist = dist
			nearest = n.ID
		}
	}
	return nearest, nearest != NoNode
}

func (g *Graph) has(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}
