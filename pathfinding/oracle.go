package pathfinding

// VisibilityOracle answers unobstructed line-of-sight queries against static
// scene geometry. Implementations used with a parallel table build must be
// safe for concurrent use.
type VisibilityOracle interface {
	IsVisible(a, b Vec3) bool
}

// VisibilityFunc adapts an ordinary function to VisibilityOracle.
type VisibilityFunc func(a, b Vec3) bool

// IsVisible calls f(a, b).
func (f VisibilityFunc) IsVisible(a, b Vec3) bool {
	return f(a, b)
}

// OpenSpace is an oracle with no obstacles.
var OpenSpace VisibilityOracle = VisibilityFunc(func(Vec3, Vec3) bool { return true })

// mutuallyVisible reports whether a and b see each other in both directions.
// A nil oracle means open space.
func mutuallyVisible(oracle VisibilityOracle, a, b Vec3) bool {
	if oracle == nil {
		return true
	}
	return oracle.IsVisible(a, b) && oracle.IsVisible(b, a)
}
