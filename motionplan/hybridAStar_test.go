package motionplan

import (
	"context"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/parclab/driveplan/geometry"
	"github.com/parclab/driveplan/gridmap"
)

func TestHybridAStarOpenGrid(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(50, 50, nil)
	test.That(t, err, test.ShouldBeNil)
	mp, err := NewHybridAStarPlanner(m, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	start := geometry.NewPose(5, 5, 0)
	goal := geometry.NewPose(45, 35, 0)
	route, err := mp.Plan(context.Background(), start, goal, nil)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, route.Poses[0], test.ShouldResemble, start)
	last := route.Poses[len(route.Poses)-1]
	test.That(t, last.DistanceTo(goal), test.ShouldBeLessThanOrEqualTo, defaultGoalTolerance)

	// The straight line is 50 long; arcs and the arrival tolerance leave a
	// window around it.
	test.That(t, route.Length, test.ShouldBeGreaterThan, 48)
	test.That(t, route.Length, test.ShouldBeLessThan, 80)

	// Every hop is one chord long and drivable.
	sum := 0.
	for i := 1; i < len(route.Poses); i++ {
		prev, next := route.Poses[i-1], route.Poses[i]
		sum += prev.DistanceTo(next)
		prevCell := gridmap.CellAt(prev.X, prev.Y)
		nextCell := gridmap.CellAt(next.X, next.Y)
		test.That(t, m.IsNotCrossedObstacle(prevCell, nextCell), test.ShouldBeTrue)
	}
	test.That(t, sum, test.ShouldAlmostEqual, route.Length)
}

func TestHybridAStarAroundWall(t *testing.T) {
	// Wall splitting the map, gap at the top.
	m, err := gridmap.NewFixedGridMap(40, 40, []gridmap.Rect{{MinX: 20, MinY: 1, MaxX: 20, MaxY: 30}})
	test.That(t, err, test.ShouldBeNil)
	mp, err := NewHybridAStarPlanner(m, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	route, err := mp.Plan(context.Background(), geometry.NewPose(10, 10, 0), geometry.NewPose(30, 10, 0), nil)
	test.That(t, err, test.ShouldBeNil)

	// The route must clear the wall through the gap above y=30.
	maxY := 0.
	for _, pose := range route.Poses {
		if pose.Y > maxY {
			maxY = pose.Y
		}
	}
	test.That(t, maxY, test.ShouldBeGreaterThan, 29)
	test.That(t, route.Length, test.ShouldBeGreaterThan, 40)
}

func TestHybridAStarUnreachable(t *testing.T) {
	// Goal sealed inside a box.
	m, err := gridmap.NewFixedGridMap(30, 30, []gridmap.Rect{{MinX: 18, MinY: 8, MaxX: 26, MaxY: 16}})
	test.That(t, err, test.ShouldBeNil)
	mp, err := NewHybridAStarPlanner(m, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	_, err = mp.Plan(context.Background(), geometry.NewPose(5, 5, 0), geometry.NewPose(22, 12, 0), nil)
	test.That(t, err, test.ShouldBeError, ErrFrontierExhausted)
}

func TestHybridAStarStartAtGoal(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(30, 30, nil)
	test.That(t, err, test.ShouldBeNil)
	mp, err := NewHybridAStarPlanner(m, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	route, err := mp.Plan(context.Background(), geometry.NewPose(10, 10, 0), geometry.NewPose(10.5, 10, 0), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, route.Poses, test.ShouldHaveLength, 1)
	test.That(t, route.Length, test.ShouldEqual, 0)
}

func TestHybridAStarCancellation(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(50, 50, nil)
	test.That(t, err, test.ShouldBeNil)
	mp, err := NewHybridAStarPlanner(m, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = mp.Plan(ctx, geometry.NewPose(5, 5, 0), geometry.NewPose(45, 35, 0), nil)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestHybridAStarProgressHook(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(50, 50, nil)
	test.That(t, err, test.ShouldBeNil)
	mp, err := NewHybridAStarPlanner(m, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	expansions := 0
	opts := NewBasicPlannerOptions()
	opts.Progress = func(iteration, nodes int) {
		expansions = iteration
		test.That(t, nodes, test.ShouldBeGreaterThan, 0)
	}
	_, err = mp.Plan(context.Background(), geometry.NewPose(5, 5, 0), geometry.NewPose(45, 35, 0), opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, expansions, test.ShouldBeGreaterThan, 0)
}

func TestHybridAStarFindPath(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(50, 50, nil)
	test.That(t, err, test.ShouldBeNil)
	mp, err := NewHybridAStarPlanner(m, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	// the grid planner doubles as a seed planner
	var _ SeedPlanner = mp

	path, err := mp.FindPath(context.Background(), geometry.NewPose(5, 5, 0), geometry.NewPose(45, 35, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(path), test.ShouldBeGreaterThan, 1)
	test.That(t, path[0].X, test.ShouldEqual, 5)
	test.That(t, path[0].Y, test.ShouldEqual, 5)
}
