package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

func ccw(a, b, c r2.Point) bool {
	return (c.Y-a.Y)*(b.X-a.X) > (b.Y-a.Y)*(c.X-a.X)
}

// SegmentsCross reports whether segment a1-a2 properly intersects segment
// b1-b2. Collinear overlap and shared endpoints do not count as a crossing,
// which is what the obstacle-boundary queries rely on: a path grazing a wall
// endpoint is not a collision.
func SegmentsCross(a1, a2, b1, b2 r2.Point) bool {
	return ccw(a1, b1, b2) != ccw(a2, b1, b2) && ccw(a1, a2, b1) != ccw(a1, a2, b2)
}

// PointLineDistance returns the perpendicular distance from p to the infinite
// line through s1 and s2. A zero-length segment degenerates to the distance
// between the points instead of dividing by zero.
func PointLineDistance(p, s1, s2 r2.Point) float64 {
	length := math.Hypot(s2.Y-s1.Y, s2.X-s1.X)
	if length == 0 {
		return math.Hypot(p.X-s1.X, p.Y-s1.Y)
	}
	return math.Abs((s2.Y-s1.Y)*p.X-(s2.X-s1.X)*p.Y+s2.X*s1.Y-s2.Y*s1.X) / length
}
