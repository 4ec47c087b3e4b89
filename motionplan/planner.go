// Package motionplan plans drivable routes for a car-like vehicle across a
// planar obstacle grid. Two planners are provided: a hybrid grid search that
// expands kinematic arc primitives over a discretized index, and an informed
// sampling tree planner whose sampling is confined to a corridor around a
// coarse seed path. Both run their search on a panic-captured goroutine and
// honor context cancellation, and both return routes ready for the
// receding-horizon tracker in the mpc package.
package motionplan

import (
	"context"

	"github.com/golang/geo/r2"

	"github.com/parclab/driveplan/geometry"
)

// SeedPlanner supplies the coarse guide polyline that shapes the sampling
// tree planner's corridor. The grid planner also satisfies this, so either a
// cheap any-angle search or a full kinematic search can seed the tree.
type SeedPlanner interface {
	// FindPath returns an ordered polyline from start to goal.
	FindPath(ctx context.Context, start, goal geometry.Pose) ([]r2.Point, error)
}

// Route is a drivable plan: ordered poses and the accumulated path length.
type Route struct {
	Poses  []geometry.Pose
	Length float64
}

// TreeRoute is the sampling tree planner's product: the smoothed path plus
// the seed polyline that shaped its sampling corridor.
type TreeRoute struct {
	Path     []r2.Point
	SeedPath []r2.Point
	Length   float64
}

type gridPlanReturn struct {
	route *Route
	err   error
}

type treePlanReturn struct {
	route *TreeRoute
	err   error
}
