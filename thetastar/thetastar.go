// Package thetastar implements an any-angle grid planner used to seed the
// sampling tree planner. It runs A* over the 8-connected grid and, whenever a
// successor has a clear straight segment back to its grandparent, links it
// there directly, so the returned polyline hugs obstacle corners instead of
// staircasing along grid edges.
package thetastar

import (
	"container/heap"
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/parclab/driveplan/geometry"
	"github.com/parclab/driveplan/gridmap"
)

// ErrNoPath is returned when the search frontier empties before the goal
// cell is reached.
var ErrNoPath = errors.New("no seed path between start and goal")

var neighborSteps = []gridmap.Cell{
	{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1},
	{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1},
}

// Planner finds any-angle grid paths on a single map.
type Planner struct {
	m      gridmap.Map
	logger golog.Logger
}

// NewPlanner creates a seed path planner over the given map.
func NewPlanner(m gridmap.Map, logger golog.Logger) *Planner {
	return &Planner{m: m, logger: logger}
}

type pathNode struct {
	cell   gridmap.Cell
	key    int
	g      float64
	f      float64
	parent int
}

// openHeap orders by total estimated cost, breaking ties on the grid key so
// pops are reproducible run to run.
type openHeap []*pathNode

func (h openHeap) Len() int { return len(h) }

func (h openHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].key < h[j].key
}

func (h openHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *openHeap) Push(x interface{}) { *h = append(*h, x.(*pathNode)) }

func (h *openHeap) Pop() interface{} {
	old := *h
	n := len(old)
	popped := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return popped
}

// FindPath returns an ordered polyline of cell centers from the start cell to
// the goal cell. Pose headings are ignored; only positions matter here.
func (p *Planner) FindPath(ctx context.Context, start, goal geometry.Pose) ([]r2.Point, error) {
	startCell := gridmap.CellAt(start.X, start.Y)
	goalCell := gridmap.CellAt(goal.X, goal.Y)
	if startCell == goalCell {
		return []r2.Point{startCell.Point()}, nil
	}

	// arena holds every node ever opened; parent links are arena indices so
	// reconstruction never chases pointers.
	arena := []*pathNode{{
		cell:   startCell,
		key:    p.m.GridIndex(startCell.X, startCell.Y),
		f:      cellDist(startCell, goalCell),
		parent: -1,
	}}
	open := openHeap{arena[0]}
	heap.Init(&open)
	best := map[int]*pathNode{arena[0].key: arena[0]}
	closed := map[int]int{}

	for open.Len() > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		current := heap.Pop(&open).(*pathNode)
		if cur, ok := best[current.key]; !ok || cur != current {
			// stale heap entry superseded by a cheaper reopening
			continue
		}
		currentIdx := len(arena)
		arena = append(arena, current)
		closed[current.key] = currentIdx

		if current.cell == goalCell {
			path := p.extract(arena, currentIdx)
			p.logger.Debugf("seed path found with %d waypoints", len(path))
			return path, nil
		}

		for _, step := range neighborSteps {
			next := gridmap.Cell{X: current.cell.X + step.X, Y: current.cell.Y + step.Y}
			key := p.m.GridIndex(next.X, next.Y)
			if _, done := closed[key]; done {
				continue
			}
			if !p.m.IsNotCrossedObstacle(current.cell, next) {
				continue
			}

			// Link back to the grandparent when the straight segment is
			// clear; that is the any-angle shortcut.
			parentIdx, parentNode := currentIdx, current
			if current.parent >= 0 {
				grand := arena[current.parent]
				if p.m.IsNotCrossedObstacle(grand.cell, next) {
					parentIdx, parentNode = current.parent, grand
				}
			}
			g := parentNode.g + cellDist(parentNode.cell, next)
			if existing, ok := best[key]; ok && existing.g <= g {
				continue
			}
			opened := &pathNode{
				cell:   next,
				key:    key,
				g:      g,
				f:      g + cellDist(next, goalCell),
				parent: parentIdx,
			}
			best[key] = opened
			heap.Push(&open, opened)
		}
	}
	return nil, ErrNoPath
}

func (p *Planner) extract(arena []*pathNode, idx int) []r2.Point {
	path := []r2.Point{}
	for idx >= 0 {
		path = append(path, arena[idx].cell.Point())
		idx = arena[idx].parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func cellDist(a, b gridmap.Cell) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
