// Package level reads and writes level files: the waypoint nodes of a scene,
// their adjacency and their grouping into clusters.
package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"waypoint-planner/pathfinding"
)

// DefaultVisibilityRadius is used when a document sets no radius.
const DefaultVisibilityRadius = 2.0

// ErrBadDocument is returned for structurally invalid level documents.
var ErrBadDocument = errors.New("invalid level document")

// Node is one waypoint. A nil Neighbors list means the adjacency is computed
// from the visibility radius at build time; an empty list means none.
type Node struct {
	ID        int              `json:"id"`
	Position  pathfinding.Vec3 `json:"position"`
	Neighbors []int            `json:"neighbors"`
}

// Cluster groups nodes for hierarchical search.
type Cluster struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Nodes     []int  `json:"nodes"`
	Neighbors []int  `json:"neighbors"`
}

// Document is the on-disk level format. Node and cluster ids must equal
// their position in the list.
type Document struct {
	VisibilityRadius float64   `json:"visibilityRadius"`
	Nodes            []Node    `json:"nodes"`
	Clusters         []Cluster `json:"clusters,omitempty"`
}

// Load reads a level document from a JSON file
func Load(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a level document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal level: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save serializes the document to a JSON file
func Save(doc *Document, filename string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Validate checks ids and references.
func (d *Document) Validate() error {
	if d.VisibilityRadius < 0 {
		return fmt.Errorf("%w: negative visibility radius %v", ErrBadDocument, d.VisibilityRadius)
	}
	for i, n := range d.Nodes {
		if n.ID != i {
			return fmt.Errorf("%w: node at index %d has id %d", ErrBadDocument, i, n.ID)
		}
		for _, m := range n.Neighbors {
			if m < 0 || m >= len(d.Nodes) {
				return fmt.Errorf("%w: node %d lists unknown neighbor %d", ErrBadDocument, n.ID, m)
			}
		}
	}
	for i, c := range d.Clusters {
		if c.ID != i {
			return fmt.Errorf("%w: cluster at index %d has id %d", ErrBadDocument, i, c.ID)
		}
		for _, n := range c.Nodes {
			if n < 0 || n >= len(d.Nodes) {
				return fmt.Errorf("%w: cluster %d lists unknown node %d", ErrBadDocument, c.ID, n)
			}
		}
		for _, o := range c.Neighbors {
			if o < 0 || o >= len(d.Clusters) {
				return fmt.Errorf("%w: cluster %d lists unknown neighbor %d", ErrBadDocument, c.ID, o)
			}
		}
	}
	return nil
}

// Radius returns the visibility radius, or the default if unset.
func (d *Document) Radius() float64 {
	if d.VisibilityRadius > 0 {
		return d.VisibilityRadius
	}
	return DefaultVisibilityRadius
}

// Build creates the graph and cluster set described by d. Nodes without a
// neighbor list are connected to every mutually visible node within the
// visibility radius. The returned graph is not frozen and the cluster table
// is not built.
func Build(d *Document, oracle pathfinding.VisibilityOracle, logger *zap.Logger) (*pathfinding.Graph, *pathfinding.ClusterSet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}

	g := pathfinding.NewGraph()
	for _, n := range d.Nodes {
		if _, err := g.AddNode(n.Position); err != nil {
			return nil, nil, err
		}
	}

	var auto []pathfinding.NodeID
	for _, n := range d.Nodes {
		if n.Neighbors == nil {
			auto = append(auto, pathfinding.NodeID(n.ID))
			continue
		}
		for _, m := range n.Neighbors {
			if err := g.Connect(pathfinding.NodeID(n.ID), pathfinding.NodeID(m)); err != nil {
				return nil, nil, fmt.Errorf("node %d: %w", n.ID, err)
			}
		}
	}
	if len(auto) > 0 {
		if _, err := pathfinding.ConnectWithinRadius(g, oracle, d.Radius(), logger, auto...); err != nil {
			return nil, nil, err
		}
	}

	cs := pathfinding.NewClusterSet(g)
	for _, c := range d.Clusters {
		id, err := cs.AddCluster(c.Name)
		if err != nil {
			return nil, nil, err
		}
		for _, n := range c.Nodes {
			if err := cs.Bind(id, pathfinding.NodeID(n)); err != nil {
				return nil, nil, fmt.Errorf("cluster %d: %w", c.ID, err)
			}
		}
	}
	for _, c := range d.Clusters {
		for _, o := range c.Neighbors {
			if err := cs.Link(pathfinding.ClusterID(c.ID), pathfinding.ClusterID(o)); err != nil {
				return nil, nil, fmt.Errorf("cluster %d: %w", c.ID, err)
			}
		}
	}

	logger.Info("level built",
		zap.Int("nodes", g.Len()),
		zap.Int("edges", g.EdgeCount()),
		zap.Int("auto_connected", len(auto)),
		zap.Int("clusters", cs.Len()))
	return g, cs, nil
}

// FromGraph captures g and cs as a document with explicit adjacency. cs may
// be nil.
func FromGraph(g *pathfinding.Graph, cs *pathfinding.ClusterSet, radius float64) *Document {
	doc := &Document{VisibilityRadius: radius, Nodes: make([]Node, 0, g.Len())}
	for _, n := range g.Nodes() {
		neighbors := make([]int, 0, n.Degree())
		for _, m := range g.Neighbors(n.ID) {
			neighbors = append(neighbors, int(m))
		}
		doc.Nodes = append(doc.Nodes, Node{ID: int(n.ID), Position: n.Position, Neighbors: neighbors})
	}
	if cs == nil {
		return doc
	}
	for _, c := range cs.Clusters() {
		spec := Cluster{ID: int(c.ID), Name: c.Name, Nodes: []int{}, Neighbors: []int{}}
		for _, n := range c.Nodes() {
			spec.Nodes = append(spec.Nodes, int(n))
		}
		for _, o := range c.Neighbors() {
			spec.Neighbors = append(spec.Neighbors, int(o))
		}
		doc.Clusters = append(doc.Clusters, spec)
	}
	return doc
}

// Segment is one undirected edge, for visualization.
type Segment [2]pathfinding.Vec3

// Segments returns each edge of g once, pairs of opposite directed edges
// included only once.
func Segments(g *pathfinding.Graph) []Segment {
	type key struct{ a, b pathfinding.NodeID }
	seen := make(map[key]bool)
	var out []Segment
	for _, n := range g.Nodes() {
		for _, m := range g.Neighbors(n.ID) {
			k := key{min(n.ID, m), max(n.ID, m)}
			if seen[k] {
				continue
			}
			seen[k] = true
			other, _ := g.Node(m)
			out = append(out, Segment{n.Position, other.Position})
		}
	}
	return out
}
