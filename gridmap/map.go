// Package gridmap provides the obstacle-map capability consumed by the route
// planners and the controller, along with a few concrete lot layouts. A map
// holds integer occupied cells plus hard boundary segments and answers
// segment-crossing queries; it is never mutated after construction.
package gridmap

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/parclab/driveplan/geometry"
)

// Cell is an integer grid coordinate.
type Cell struct {
	X int
	Y int
}

// CellAt rounds a continuous position to the cell containing it.
func CellAt(x, y float64) Cell {
	return Cell{X: int(math.Round(x)), Y: int(math.Round(y))}
}

// Point returns the cell center as a continuous point.
func (c Cell) Point() r2.Point {
	return r2.Point{X: float64(c.X), Y: float64(c.Y)}
}

// Map is the read-only obstacle query capability. Planners key their open and
// closed sets by GridIndex and validate motion with IsNotCrossedObstacle; no
// other obstacle knowledge leaks into the search code.
type Map interface {
	// IsNotCrossedObstacle reports whether moving straight between two cells
	// stays clear: the destination is unoccupied and strictly inside the
	// bounds, and the segment between the cells crosses no boundary line.
	IsNotCrossedObstacle(prev, next Cell) bool

	// GridIndex returns a unique key for an in-bounds cell.
	GridIndex(x, y int) int

	// Width and Height are the inclusive map bounds, used both for the
	// strict interior test and for rejection sampling.
	Width() int
	Height() int
}

type segment struct {
	a r2.Point
	b r2.Point
}

// layout is the cell-and-segment storage shared by every map provider.
type layout struct {
	width    int
	height   int
	occupied map[Cell]struct{}
	lines    []segment
}

func newLayout(width, height int) layout {
	return layout{
		width:    width,
		height:   height,
		occupied: make(map[Cell]struct{}),
	}
}

func (l *layout) Width() int { return l.width }

func (l *layout) Height() int { return l.height }

func (l *layout) GridIndex(x, y int) int { return x + y*l.width }

func (l *layout) IsNotCrossedObstacle(prev, next Cell) bool {
	if _, occupied := l.occupied[next]; occupied {
		return false
	}
	if next.X <= 0 || next.X >= l.width || next.Y <= 0 || next.Y >= l.height {
		return false
	}
	from, to := prev.Point(), next.Point()
	for _, line := range l.lines {
		if geometry.SegmentsCross(from, to, line.a, line.b) {
			return false
		}
	}
	return true
}

func (l *layout) isOccupied(c Cell) bool {
	_, occupied := l.occupied[c]
	return occupied
}

func (l *layout) addCell(x, y int) {
	l.occupied[Cell{X: x, Y: y}] = struct{}{}
}

func (l *layout) addLine(x1, y1, x2, y2 float64) {
	l.lines = append(l.lines, segment{
		a: r2.Point{X: x1, Y: y1},
		b: r2.Point{X: x2, Y: y2},
	})
}

// addOuterWalls closes the lot with occupied border cells and the four
// boundary segments.
func (l *layout) addOuterWalls() {
	for x := 0; x <= l.width; x++ {
		l.addCell(x, 0)
		l.addCell(x, l.height)
	}
	for y := 1; y < l.height; y++ {
		l.addCell(0, y)
		l.addCell(l.width, y)
	}
	w, h := float64(l.width), float64(l.height)
	l.addLine(0, 0, 0, h)
	l.addLine(0, 0, w, 0)
	l.addLine(w, 0, w, h)
	l.addLine(0, h, w, h)
}
