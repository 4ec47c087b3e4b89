// Package geometry provides the planar pose and segment primitives shared by
// the route planners and the trajectory-following controller.
package geometry

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Pose is a planar position with a heading in radians.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPose creates a Pose with the heading normalized to (-pi, pi].
func NewPose(x, y, theta float64) Pose {
	return Pose{X: x, Y: y, Theta: NormalizeAngle(theta)}
}

// Point returns the position component of the pose.
func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// DistanceTo returns the Euclidean distance between the positions of two poses.
func (p Pose) DistanceTo(other Pose) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Theta)
}

// NormalizeAngle maps an angle in radians into (-pi, pi]. It is idempotent.
func NormalizeAngle(theta float64) float64 {
	return math.Atan2(math.Sin(theta), math.Cos(theta))
}

// Heading returns the direction of travel from one point to another.
// Coincident points have no direction; zero is returned rather than an error
// so that callers re-annotating degenerate paths keep a finite heading.
func Heading(from, to r2.Point) float64 {
	if from.X == to.X && from.Y == to.Y {
		return 0
	}
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}
