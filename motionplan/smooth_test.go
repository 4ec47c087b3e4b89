package motionplan

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/parclab/driveplan/gridmap"
)

func TestSmoothCollapsesZigzag(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(30, 30, nil)
	test.That(t, err, test.ShouldBeNil)

	zigzag := []r2.Point{{X: 2, Y: 2}, {X: 5, Y: 9}, {X: 8, Y: 2}, {X: 12, Y: 9}, {X: 16, Y: 2}}
	smoothed, err := smoothPath(m, zigzag)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, smoothed, test.ShouldResemble, []r2.Point{{X: 2, Y: 2}, {X: 16, Y: 2}})
}

func TestSmoothKeepsNecessaryWaypoints(t *testing.T) {
	// wall at x=10 with a gap at the top; the corner point must survive
	m, err := gridmap.NewFixedGridMap(20, 20, []gridmap.Rect{{MinX: 10, MinY: 1, MaxX: 10, MaxY: 15}})
	test.That(t, err, test.ShouldBeNil)

	path := []r2.Point{{X: 5, Y: 5}, {X: 7, Y: 10}, {X: 9, Y: 16}, {X: 10, Y: 17}, {X: 12, Y: 16}, {X: 15, Y: 5}}
	smoothed, err := smoothPath(m, path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(smoothed), test.ShouldBeLessThan, len(path))
	test.That(t, len(smoothed), test.ShouldBeGreaterThanOrEqualTo, 3)
	test.That(t, smoothed[0], test.ShouldResemble, path[0])
	test.That(t, smoothed[len(smoothed)-1], test.ShouldResemble, path[len(path)-1])
	for i := 1; i < len(smoothed); i++ {
		test.That(t, segmentClear(m, smoothed[i-1], smoothed[i]), test.ShouldBeTrue)
	}
}

func TestSmoothIdempotent(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(20, 20, []gridmap.Rect{{MinX: 10, MinY: 1, MaxX: 10, MaxY: 15}})
	test.That(t, err, test.ShouldBeNil)

	path := []r2.Point{{X: 5, Y: 5}, {X: 7, Y: 10}, {X: 9, Y: 16}, {X: 10, Y: 17}, {X: 12, Y: 16}, {X: 15, Y: 5}}
	once, err := smoothPath(m, path)
	test.That(t, err, test.ShouldBeNil)
	twice, err := smoothPath(m, once)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, twice, test.ShouldResemble, once)
}

func TestSmoothShortPathsUntouched(t *testing.T) {
	m, err := gridmap.NewFixedGridMap(20, 20, nil)
	test.That(t, err, test.ShouldBeNil)

	short := []r2.Point{{X: 2, Y: 2}, {X: 5, Y: 5}}
	smoothed, err := smoothPath(m, short)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, smoothed, test.ShouldResemble, short)
}

func TestSmoothStalls(t *testing.T) {
	// two full walls make even adjacent waypoints mutually unreachable
	m, err := gridmap.NewFixedGridMap(30, 30, []gridmap.Rect{
		{MinX: 10, MinY: 1, MaxX: 10, MaxY: 29},
		{MinX: 20, MinY: 1, MaxX: 20, MaxY: 29},
	})
	test.That(t, err, test.ShouldBeNil)

	blocked := []r2.Point{{X: 5, Y: 15}, {X: 15, Y: 15}, {X: 25, Y: 15}}
	_, err = smoothPath(m, blocked)
	test.That(t, err, test.ShouldBeError, ErrSmoothingStalled)
}
