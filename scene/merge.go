package scene

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

// MergeContained drops obstacles that lie entirely inside another obstacle.
// Of two identical obstacles the first is kept.
func MergeContained(obstacles []Obstacle, logger *zap.Logger) []Obstacle {
	if len(obstacles) <= 1 {
		return obstacles
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	contained := make([]bool, len(obstacles))
	for i := range obstacles {
		if contained[i] {
			continue
		}
		for j := range obstacles {
			if i == j || contained[j] {
				continue
			}
			if isContainedIn(obstacles[j], obstacles[i]) {
				contained[j] = true
				continue
			}
			if isContainedIn(obstacles[i], obstacles[j]) {
				contained[i] = true
				break
			}
		}
	}

	result := make([]Obstacle, 0, len(obstacles))
	for i, o := range obstacles {
		if !contained[i] {
			result = append(result, o)
		}
	}

	logger.Debug("contained obstacles removed",
		zap.Int("kept", len(result)),
		zap.Int("removed", len(obstacles)-len(result)))
	return result
}

// isContainedIn checks if obstacle a is fully contained within obstacle b
func isContainedIn(a, b Obstacle) bool {
	if len(a.Footprint) == 0 || len(b.Footprint) == 0 {
		return false
	}
	if a.Floor < b.Floor || a.Ceiling > b.Ceiling {
		return false
	}

	// Quick bounding box check first
	if !boundContains(b.Bound(), a.Bound()) {
		return false
	}

	for _, vertex := range a.Footprint[0] {
		if !planar.PolygonContains(b.Footprint, vertex) {
			return false
		}
	}
	return true
}

// boundContains checks if inner lies within outer
func boundContains(outer, inner orb.Bound) bool {
	return outer.Contains(inner.Min) && outer.Contains(inner.Max)
}
