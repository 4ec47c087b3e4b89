package motionplan

import (
	"github.com/golang/geo/r2"

	"github.com/parclab/driveplan/geometry"
	"github.com/parclab/driveplan/gridmap"
)

// gridNode records one expansion of the grid search. parent is the closed
// set key of the node it was reached from, -1 at the root, so reconstruction
// walks grid keys instead of chasing pointers.
type gridNode struct {
	pose   geometry.Pose
	cell   gridmap.Cell
	cost   float64
	h      float64
	parent int
}

// treeNode is one vertex of the sampling tree. parent is an index into the
// planner's append-only arena, -1 at the root. children mirrors the parent
// links so a rewire can repair the costs of the whole moved subtree.
type treeNode struct {
	pos      r2.Point
	cost     float64
	parent   int
	children []int
}

// nearestNode returns the arena index closest to the target, preferring the
// lowest index on ties so results do not depend on arena growth history.
func nearestNode(arena []*treeNode, target r2.Point) int {
	best := 0
	bestDist := arena[0].pos.Sub(target).Norm()
	for i := 1; i < len(arena); i++ {
		if d := arena[i].pos.Sub(target).Norm(); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// nearIndices returns every arena index within radius of the position, in
// arena order.
func nearIndices(arena []*treeNode, pos r2.Point, radius float64) []int {
	near := make([]int, 0, len(arena))
	for i, n := range arena {
		if n.pos.Sub(pos).Norm() <= radius {
			near = append(near, i)
		}
	}
	return near
}

// steer moves from a point toward a target, traveling at most radius.
func steer(from, to r2.Point, radius float64) r2.Point {
	delta := to.Sub(from)
	dist := delta.Norm()
	if dist <= radius || dist == 0 {
		return to
	}
	return from.Add(delta.Mul(radius / dist))
}

// applyCostDelta shifts a node's cost and every descendant's cost by the
// same amount after its parent edge changed length.
func applyCostDelta(arena []*treeNode, idx int, delta float64) {
	stack := []int{idx}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		arena[n].cost += delta
		stack = append(stack, arena[n].children...)
	}
}

// reparent moves a node under a new parent, keeping both children lists and
// the subtree costs consistent.
func reparent(arena []*treeNode, idx, newParent int, newCost float64) {
	node := arena[idx]
	if node.parent >= 0 {
		siblings := arena[node.parent].children
		for i, child := range siblings {
			if child == idx {
				arena[node.parent].children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	delta := newCost - node.cost
	node.parent = newParent
	arena[newParent].children = append(arena[newParent].children, idx)
	applyCostDelta(arena, idx, delta)
}
