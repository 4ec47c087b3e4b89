package motionplan

import (
	"github.com/golang/geo/r2"

	"github.com/parclab/driveplan/geometry"
)

// PathLength returns the accumulated Euclidean length of a polyline.
func PathLength(path []r2.Point) float64 {
	length := 0.
	for i := 1; i < len(path); i++ {
		length += path[i].Sub(path[i-1]).Norm()
	}
	return length
}

// AnnotateHeadings lifts a polyline into poses, pointing each pose at its
// successor. The final pose keeps the heading of the segment arriving at it,
// and a single point keeps heading zero, so the result is always usable as a
// tracking reference.
func AnnotateHeadings(path []r2.Point) []geometry.Pose {
	poses := make([]geometry.Pose, 0, len(path))
	for i, pt := range path {
		var theta float64
		switch {
		case i+1 < len(path):
			theta = geometry.Heading(pt, path[i+1])
		case i > 0:
			theta = geometry.Heading(path[i-1], pt)
		}
		poses = append(poses, geometry.NewPose(pt.X, pt.Y, theta))
	}
	return poses
}
