package motionplan

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"github.com/parclab/driveplan/geometry"
	"github.com/parclab/driveplan/gridmap"
)

// defaultSampleAttempts caps one sample draw so a degenerate or fully
// blocked corridor errors out instead of spinning.
const defaultSampleAttempts = 10000

// corridor is the sampling region around the seed polyline. A point belongs
// when its perpendicular distance to the infinite line through any seed
// segment is within the margin; the seed path is a guide, not a fence, so
// the loose infinite-line test is intentional.
type corridor struct {
	segments [][2]r2.Point
	margin   float64
}

func newCorridor(seedPath []r2.Point, margin float64) *corridor {
	c := &corridor{margin: margin}
	for i := 1; i < len(seedPath); i++ {
		c.segments = append(c.segments, [2]r2.Point{seedPath[i-1], seedPath[i]})
	}
	return c
}

func (c *corridor) contains(p r2.Point) bool {
	// A single-point seed path has no segments; leave sampling unconstrained
	// rather than rejecting everything.
	if len(c.segments) == 0 {
		return true
	}
	for _, seg := range c.segments {
		if geometry.PointLineDistance(p, seg[0], seg[1]) <= c.margin {
			return true
		}
	}
	return false
}

// informedSampler draws tree growth targets. While no route cost is known it
// samples the map uniformly, filtered to the corridor; once a best cost
// exists it samples the ellipse with foci at start and goal whose major axis
// is that cost, shrinking the search as routes improve.
type informedSampler struct {
	randseed *rand.Rand
	width    float64
	height   float64
	center   r2.Point
	cMin     float64
	rotation *mat.Dense
	corridor *corridor
}

func newInformedSampler(m gridmap.Map, start, goal r2.Point, corridor *corridor, randseed *rand.Rand) *informedSampler {
	phi := geometry.Heading(start, goal)
	return &informedSampler{
		randseed: randseed,
		width:    float64(m.Width()),
		height:   float64(m.Height()),
		center:   start.Add(goal).Mul(0.5),
		cMin:     goal.Sub(start).Norm(),
		rotation: mat.NewDense(2, 2, []float64{
			math.Cos(phi), -math.Sin(phi),
			math.Sin(phi), math.Cos(phi),
		}),
		corridor: corridor,
	}
}

// sample returns the next growth target for the given best route cost, or
// ErrSamplingExhausted when the attempt budget runs out.
func (s *informedSampler) sample(cBest float64) (r2.Point, error) {
	for i := 0; i < defaultSampleAttempts; i++ {
		var p r2.Point
		if math.IsInf(cBest, 1) {
			p = r2.Point{X: s.randseed.Float64() * s.width, Y: s.randseed.Float64() * s.height}
		} else {
			p = s.ellipseSample(cBest)
			if p.X < 0 || p.X > s.width || p.Y < 0 || p.Y > s.height {
				continue
			}
		}
		if s.corridor.contains(p) {
			return p, nil
		}
	}
	return r2.Point{}, ErrSamplingExhausted
}

// ellipseSample maps a uniform unit-ball sample through the axis scaling and
// the rotation-to-world transform.
func (s *informedSampler) ellipseSample(cBest float64) r2.Point {
	if cBest < s.cMin {
		cBest = s.cMin
	}
	major := cBest / 2
	minor := math.Sqrt(cBest*cBest-s.cMin*s.cMin) / 2

	angle := 2 * math.Pi * s.randseed.Float64()
	radius := math.Sqrt(s.randseed.Float64())
	local := mat.NewVecDense(2, []float64{
		radius * math.Cos(angle) * major,
		radius * math.Sin(angle) * minor,
	})
	var world mat.VecDense
	world.MulVec(s.rotation, local)
	return r2.Point{X: world.AtVec(0) + s.center.X, Y: world.AtVec(1) + s.center.Y}
}
