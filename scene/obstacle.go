// Package scene provides the static obstacle geometry of a level and answers
// line-of-sight queries against it.
//
// Obstacles are prisms: a footprint polygon in the X/Z plane extruded between
// a floor and a ceiling height on the Y axis (Y is up).
package scene

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"waypoint-planner/pathfinding"
)

// Obstacle is a solid prism that blocks line of sight.
type Obstacle struct {
	Name string
	// Footprint in the X/Z plane; orb X is world X, orb Y is world Z.
	Footprint orb.Polygon
	Floor     float64
	Ceiling   float64
}

// Box returns an axis-aligned box obstacle spanning min to max.
func Box(name string, min, max pathfinding.Vec3) Obstacle {
	ring := orb.Ring{
		{min.X, min.Z},
		{max.X, min.Z},
		{max.X, max.Z},
		{min.X, max.Z},
		{min.X, min.Z},
	}
	return Obstacle{
		Name:      name,
		Footprint: orb.Polygon{ring},
		Floor:     math.Min(min.Y, max.Y),
		Ceiling:   math.Max(min.Y, max.Y),
	}
}

// Bound returns the footprint bounding box.
func (o Obstacle) Bound() orb.Bound {
	return o.Footprint.Bound()
}

// Valid reports whether the obstacle has a closed outer ring and a positive
// height.
func (o Obstacle) Valid() bool {
	return len(o.Footprint) > 0 && len(o.Footprint[0]) >= 4 && o.Ceiling > o.Floor
}

// Contains reports whether p lies strictly between floor and ceiling and
// inside the footprint.
func (o Obstacle) Contains(p pathfinding.Vec3) bool {
	if p.Y <= o.Floor || p.Y >= o.Ceiling {
		return false
	}
	return planar.PolygonContains(o.Footprint, orb.Point{p.X, p.Z})
}

// Blocks reports whether the segment a-b passes through the obstacle.
//
// The segment is clipped to the open height slab of the obstacle and the
// clipped part is projected onto the X/Z plane. It is blocked if it crosses a
// footprint edge or its midpoint lies inside the footprint. Touching the
// boundary counts as blocked; sharing a footprint vertex does not.
func (o Obstacle) Blocks(a, b pathfinding.Vec3) bool {
	t0, t1, ok := o.clip(a, b)
	if !ok {
		return false
	}
	p := a.Lerp(b, t0)
	q := a.Lerp(b, t1)
	seg := segment{orb.Point{p.X, p.Z}, orb.Point{q.X, q.Z}}

	for _, ring := range o.Footprint {
		if segmentCrossesRing(seg, ring) {
			return true
		}
	}
	// Handles the case where the clipped segment is entirely inside.
	mid := orb.Point{(seg.p1[0] + seg.p2[0]) / 2, (seg.p1[1] + seg.p2[1]) / 2}
	return planar.PolygonContains(o.Footprint, mid)
}

// clip returns the parameter range of a-b that lies strictly between floor
// and ceiling.
func (o Obstacle) clip(a, b pathfinding.Vec3) (float64, float64, bool) {
	dy := b.Y - a.Y
	if dy == 0 {
		if a.Y <= o.Floor || a.Y >= o.Ceiling {
			return 0, 0, false
		}
		return 0, 1, true
	}
	t0 := (o.Floor - a.Y) / dy
	t1 := (o.Ceiling - a.Y) / dy
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	t0 = math.Max(t0, 0)
	t1 = math.Min(t1, 1)
	if t0 >= t1 {
		return 0, 0, false
	}
	return t0, t1, true
}

// segment is a 2D line segment in the footprint plane.
type segment struct {
	p1, p2 orb.Point
}

// segmentCrossesRing checks if seg intersects any edge of ring.
func segmentCrossesRing(seg segment, ring orb.Ring) bool {
	n := len(ring)
	for i := 0; i+1 < n; i++ {
		if segmentsIntersect(seg, segment{ring[i], ring[i+1]}) {
			return true
		}
	}
	if n > 1 && !ring.Closed() {
		return segmentsIntersect(seg, segment{ring[n-1], ring[0]})
	}
	return false
}

// segmentsIntersect checks if two segments intersect. Segments that only
// share an endpoint do not count.
func segmentsIntersect(s1, s2 segment) bool {
	p1, p2 := s1.p1, s1.p2
	p3, p4 := s2.p1, s2.p2

	if p1 == p3 || p1 == p4 || p2 == p3 || p2 == p4 {
		return false
	}

	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}
	return false
}

// direction is the cross product of p3-p1 and p2-p1.
func direction(p1, p2, p3 orb.Point) float64 {
	return (p3[0]-p1[0])*(p2[1]-p1[1]) - (p2[0]-p1[0])*(p3[1]-p1[1])
}

// onSegment checks if q lies within the bounding box of pr.
func onSegment(p, r, q orb.Point) bool {
	return q[0] <= math.Max(p[0], r[0]) && q[0] >= math.Min(p[0], r[0]) &&
		q[1] <= math.Max(p[1], r[1]) && q[1] >= math.Min(p[1], r[1])
}
