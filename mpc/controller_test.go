package mpc

import (
	"context"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/parclab/driveplan/geometry"
	"github.com/parclab/driveplan/gridmap"
)

func makeController(t *testing.T, m gridmap.Map, nCPU int) *Controller {
	t.Helper()
	c, err := NewController(m, nCPU, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return c
}

func flatReference(x, y float64, n int) []State {
	ref := make([]State, n)
	for i := range ref {
		ref[i] = State{X: x, Y: y}
	}
	return ref
}

func TestOptimizeControlPrefersProgress(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(30, 30, nil)
	test.That(t, err, test.ShouldBeNil)
	c := makeController(t, m, 2)

	// reference sits ahead on +x: the winner accelerates without turning
	ctrl, rollout, ok := c.OptimizeControl(
		context.Background(), State{X: 5, Y: 5}, flatReference(8, 5, 10), nil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, ctrl.Accel, test.ShouldBeGreaterThan, 0)
	test.That(t, ctrl.Steer, test.ShouldAlmostEqual, 0)
	test.That(t, rollout, test.ShouldHaveLength, defaultHorizon)
	test.That(t, rollout[len(rollout)-1].X, test.ShouldBeGreaterThan, 5)
}

func TestOptimizeControlParallelMatchesSerial(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(30, 30, nil)
	test.That(t, err, test.ShouldBeNil)

	state := State{X: 5, Y: 5, Theta: 0.3, V: 1}
	ref := flatReference(20, 12, 10)

	serialCtrl, serialRollout, serialOK := makeController(t, m, 1).
		OptimizeControl(context.Background(), state, ref, nil)
	parallelCtrl, parallelRollout, parallelOK := makeController(t, m, 8).
		OptimizeControl(context.Background(), state, ref, nil)

	test.That(t, serialOK, test.ShouldBeTrue)
	test.That(t, parallelOK, test.ShouldBeTrue)
	test.That(t, parallelCtrl, test.ShouldResemble, serialCtrl)
	test.That(t, parallelRollout, test.ShouldResemble, serialRollout)
}

func TestOptimizeControlFallback(t *testing.T) {
	// a wall dead ahead and too much speed: every first hop collides
	m, err := gridmap.NewFixedGridMap(30, 30, []gridmap.Rect{{MinX: 12, MinY: 5, MaxX: 12, MaxY: 15}})
	test.That(t, err, test.ShouldBeNil)
	c := makeController(t, m, 2)

	ctrl, rollout, ok := c.OptimizeControl(
		context.Background(), State{X: 10, Y: 10, Theta: 0, V: 20}, flatReference(20, 10, 10), nil)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, ctrl, test.ShouldResemble, Control{Accel: fallbackAccel, Steer: 0})

	// the fallback rollout is reported unchecked, straight through the wall
	test.That(t, rollout, test.ShouldHaveLength, defaultHorizon)
	test.That(t, rollout[len(rollout)-1].X, test.ShouldBeGreaterThan, 12)
}

func TestFollowTrajectoryStraight(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(30, 30, nil)
	test.That(t, err, test.ShouldBeNil)
	c := makeController(t, m, 2)

	ref := ToReference([]geometry.Pose{geometry.NewPose(5, 5, 0), geometry.NewPose(8, 5, 0)})
	result, err := c.FollowTrajectory(
		context.Background(), geometry.NewPose(5, 5, 1.2), ref, geometry.NewPose(8, 5, 0), nil)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, result.Reached, test.ShouldBeTrue)
	test.That(t, result.Distance, test.ShouldBeLessThanOrEqualTo, defaultGoalTolerance)

	// the start state was re-oriented toward the second reference point
	test.That(t, result.Trajectory[0].Theta, test.ShouldAlmostEqual, 0)

	// reached naturally, well under the step cap, with matched histories
	test.That(t, len(result.Steering), test.ShouldBeLessThan, minFollowSteps)
	test.That(t, len(result.Throttle), test.ShouldEqual, len(result.Steering))
	test.That(t, len(result.Trajectory), test.ShouldEqual, len(result.Steering)+1)
}

func TestFollowTrajectorySnapsAtCap(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(40, 30, nil)
	test.That(t, err, test.ShouldBeNil)
	c := makeController(t, m, 2)

	opts := NewBasicOptions()
	opts.MaxSteps = 3
	ref := ToReference([]geometry.Pose{geometry.NewPose(5, 5, 0), geometry.NewPose(25, 5, 0)})
	goal := geometry.NewPose(25, 5, 0)
	result, err := c.FollowTrajectory(context.Background(), geometry.NewPose(5, 5, 0), ref, goal, opts)
	test.That(t, err, test.ShouldBeNil)

	// three ticks cannot cover twenty units, so the follower snapped
	test.That(t, result.Reached, test.ShouldBeTrue)
	test.That(t, result.Distance, test.ShouldBeGreaterThan, defaultGoalTolerance)
	test.That(t, len(result.Steering), test.ShouldEqual, 3)
	test.That(t, result.Trajectory, test.ShouldHaveLength, 5)

	last := result.Trajectory[len(result.Trajectory)-1]
	test.That(t, last.X, test.ShouldEqual, goal.X)
	test.That(t, last.Y, test.ShouldEqual, goal.Y)

	// snap heading points from the pre-snap position toward the goal
	preSnap := result.Trajectory[len(result.Trajectory)-2]
	test.That(t, last.Theta, test.ShouldAlmostEqual,
		geometry.Heading(r2.Point{X: preSnap.X, Y: preSnap.Y}, r2.Point{X: last.X, Y: last.Y}))
}

func TestFollowTrajectoryStartInsideTolerance(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(30, 30, nil)
	test.That(t, err, test.ShouldBeNil)
	c := makeController(t, m, 2)

	ref := ToReference([]geometry.Pose{geometry.NewPose(5, 5, 0), geometry.NewPose(6, 5, 0)})
	result, err := c.FollowTrajectory(
		context.Background(), geometry.NewPose(5, 5, 0), ref, geometry.NewPose(6, 5, 0), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Reached, test.ShouldBeTrue)
	test.That(t, result.Steering, test.ShouldBeEmpty)
	test.That(t, result.Trajectory, test.ShouldHaveLength, 1)
}

func TestFollowTrajectoryEmptyReference(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(30, 30, nil)
	test.That(t, err, test.ShouldBeNil)
	c := makeController(t, m, 2)

	_, err = c.FollowTrajectory(
		context.Background(), geometry.NewPose(5, 5, 0), nil, geometry.NewPose(8, 5, 0), nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFollowTrajectoryCancellation(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(30, 30, nil)
	test.That(t, err, test.ShouldBeNil)
	c := makeController(t, m, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ref := ToReference([]geometry.Pose{geometry.NewPose(5, 5, 0), geometry.NewPose(25, 5, 0)})
	_, err = c.FollowTrajectory(ctx, geometry.NewPose(5, 5, 0), ref, geometry.NewPose(25, 5, 0), nil)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestNearestRefIndexWindow(t *testing.T) {
	ref := make([]State, 21)
	for i := range ref {
		ref[i] = State{X: float64(i)}
	}

	// the anchor cannot jump past the window in either direction
	test.That(t, nearestRefIndex(ref, State{X: 10}, 5, 3), test.ShouldEqual, 8)
	test.That(t, nearestRefIndex(ref, State{X: 0}, 5, 3), test.ShouldEqual, 2)

	// inside the window it lands on the true nearest
	test.That(t, nearestRefIndex(ref, State{X: 6.2}, 5, 3), test.ShouldEqual, 6)

	// bounds clamp at both ends of the reference
	test.That(t, nearestRefIndex(ref, State{X: 30}, 19, 5), test.ShouldEqual, 20)
	test.That(t, nearestRefIndex(ref, State{X: -5}, 1, 5), test.ShouldEqual, 0)
}

func TestReferenceWindowPadding(t *testing.T) {
	ref := []State{{X: 1}, {X: 2}, {X: 3}}
	window := referenceWindow(ref, 1, 5)
	test.That(t, window, test.ShouldResemble, []State{{X: 2}, {X: 3}, {X: 3}, {X: 3}, {X: 3}})

	window = referenceWindow(ref, 0, 2)
	test.That(t, window, test.ShouldResemble, []State{{X: 1}, {X: 2}})
}
