package pathfinding

import (
	"slices"

	"github.com/dhconnelly/rtreego"
)

// pointTolerance is the half-width of the box each node occupies in the tree.
const pointTolerance = 1e-9

// nodeEntry wraps a node for R-tree storage
type nodeEntry struct {
	id   NodeID
	pos  Vec3
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *nodeEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// NodeIndex answers radius queries over node positions.
type NodeIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewNodeIndex indexes every node of g.
func NewNodeIndex(g *Graph) *NodeIndex {
	tree := rtreego.NewTree(3, 25, 50) // 3D, min 25, max 50 entries per node
	for _, n := range g.nodes {
		p := n.Position
		tree.Insert(&nodeEntry{
			id:   n.ID,
			pos:  p,
			bbox: rtreego.Point{p.X, p.Y, p.Z}.ToRect(pointTolerance),
		})
	}
	return &NodeIndex{tree: tree, size: len(g.nodes)}
}

// Len returns the number of indexed nodes.
func (ix *NodeIndex) Len() int {
	return ix.size
}

// Within returns the ids of nodes at most radius away from pos, in id order.
func (ix *NodeIndex) Within(pos Vec3, radius float64) []NodeID {
	if radius <= 0 || ix.size == 0 {
		return nil
	}
	// Widen by the point box so nodes exactly on the radius still intersect.
	r := radius + 2*pointTolerance
	bbox, err := rtreego.NewRect(
		rtreego.Point{pos.X - r, pos.Y - r, pos.Z - r},
		[]float64{2 * r, 2 * r, 2 * r},
	)
	if err != nil {
		return nil
	}

	results := ix.tree.SearchIntersect(bbox)
	ids := make([]NodeID, 0, len(results))
	for _, item := range results {
		entry := item.(*nodeEntry)
		if entry.pos.Distance(pos) <= radius {
			ids = append(ids, entry.id)
		}
	}
	slices.Sort(ids)
	return ids
}
