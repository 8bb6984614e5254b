package scene

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"go.uber.org/zap"
)

// Simplify reduces footprint complexity with the Douglas-Peucker algorithm.
// A footprint whose outer ring would collapse below a triangle is kept as is.
// Non-positive epsilon returns the input unchanged.
func Simplify(obstacles []Obstacle, epsilon float64, logger *zap.Logger) []Obstacle {
	if epsilon <= 0 {
		return obstacles
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := simplify.DouglasPeucker(epsilon)
	before, after := 0, 0
	out := make([]Obstacle, len(obstacles))
	for i, o := range obstacles {
		out[i] = o
		before += vertexCount(o.Footprint)

		simplified, ok := s.Simplify(o.Footprint.Clone()).(orb.Polygon)
		if ok && len(simplified) > 0 && len(simplified[0]) >= 4 {
			out[i].Footprint = simplified
		}
		after += vertexCount(out[i].Footprint)
	}

	logger.Debug("footprints simplified",
		zap.Float64("epsilon", epsilon),
		zap.Int("vertices_before", before),
		zap.Int("vertices_after", after))
	return out
}

func vertexCount(p orb.Polygon) int {
	n := 0
	for _, r := range p {
		n += len(r)
	}
	return n
}
