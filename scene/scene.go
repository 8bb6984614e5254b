package scene

import (
	"math"
	"slices"

	"github.com/dhconnelly/rtreego"
	"go.uber.org/zap"

	"waypoint-planner/pathfinding"
)

// boundsTolerance pads every box in the tree so flat and point-like bounds
// still have positive extent.
const boundsTolerance = 1e-9

// obstacleEntry wraps an obstacle for R-tree storage
type obstacleEntry struct {
	index int
	bbox  rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *obstacleEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// Scene is an immutable set of obstacles with a 3D spatial index. It
// implements pathfinding.VisibilityOracle and is safe for concurrent use.
type Scene struct {
	obstacles []Obstacle
	tree      *rtreego.Rtree
}

var _ pathfinding.VisibilityOracle = (*Scene)(nil)

// New indexes obstacles. Invalid obstacles are skipped and logged.
func New(obstacles []Obstacle, logger *zap.Logger) *Scene {
	if logger == nil {
		logger = zap.NewNop()
	}
	tree := rtreego.NewTree(3, 25, 50) // 3D, min 25, max 50 entries per node
	kept := make([]Obstacle, 0, len(obstacles))
	for _, o := range obstacles {
		if !o.Valid() {
			logger.Warn("skipping invalid obstacle",
				zap.String("name", o.Name),
				zap.Float64("floor", o.Floor),
				zap.Float64("ceiling", o.Ceiling))
			continue
		}
		bbox, err := obstacleBounds(o)
		if err != nil {
			logger.Warn("skipping obstacle without bounds", zap.String("name", o.Name), zap.Error(err))
			continue
		}
		tree.Insert(&obstacleEntry{index: len(kept), bbox: bbox})
		kept = append(kept, o)
	}
	logger.Debug("scene indexed", zap.Int("obstacles", len(kept)), zap.Int("skipped", len(obstacles)-len(kept)))
	return &Scene{obstacles: kept, tree: tree}
}

// Len returns the number of indexed obstacles.
func (s *Scene) Len() int {
	return len(s.obstacles)
}

// Obstacles returns the indexed obstacles.
func (s *Scene) Obstacles() []Obstacle {
	return slices.Clone(s.obstacles)
}

// IsVisible reports whether the straight segment a-b passes through no
// obstacle. Segments with a non-finite end are never visible.
func (s *Scene) IsVisible(a, b pathfinding.Vec3) bool {
	if !a.IsFinite() || !b.IsFinite() {
		return false
	}
	if len(s.obstacles) == 0 {
		return true
	}
	query, err := boxRect(
		math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z),
		math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z),
	)
	if err != nil {
		return false
	}
	for _, item := range s.tree.SearchIntersect(query) {
		if s.obstacles[item.(*obstacleEntry).index].Blocks(a, b) {
			return false
		}
	}
	return true
}

// Inside reports whether p lies inside any obstacle.
func (s *Scene) Inside(p pathfinding.Vec3) bool {
	query, err := boxRect(p.X, p.Y, p.Z, p.X, p.Y, p.Z)
	if err != nil {
		return false
	}
	for _, item := range s.tree.SearchIntersect(query) {
		if s.obstacles[item.(*obstacleEntry).index].Contains(p) {
			return true
		}
	}
	return false
}

// obstacleBounds computes the 3D bounding box of an obstacle
func obstacleBounds(o Obstacle) (rtreego.Rect, error) {
	b := o.Bound()
	return boxRect(b.Min[0], o.Floor, b.Min[1], b.Max[0], o.Ceiling, b.Max[1])
}

func boxRect(minX, minY, minZ, maxX, maxY, maxZ float64) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{minX - boundsTolerance, minY - boundsTolerance, minZ - boundsTolerance},
		[]float64{
			maxX - minX + 2*boundsTolerance,
			maxY - minY + 2*boundsTolerance,
			maxZ - minZ + 2*boundsTolerance,
		},
	)
}
