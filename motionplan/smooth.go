package motionplan

import (
	"github.com/golang/geo/r2"

	"github.com/parclab/driveplan/gridmap"
)

// smoothPath greedily shortcuts a polyline: from each kept point it jumps to
// the furthest later point reachable by a clear straight segment. Running it
// on its own output changes nothing. An input whose points are not even
// pairwise-adjacent reachable cannot make forward progress and errors out
// instead of looping.
func smoothPath(m gridmap.Map, path []r2.Point) ([]r2.Point, error) {
	if len(path) <= 2 {
		return path, nil
	}
	smoothed := []r2.Point{path[0]}
	for i := 0; i < len(path)-1; {
		next := -1
		for j := len(path) - 1; j > i; j-- {
			if segmentClear(m, path[i], path[j]) {
				next = j
				break
			}
		}
		if next < 0 {
			return nil, ErrSmoothingStalled
		}
		smoothed = append(smoothed, path[next])
		i = next
	}
	return smoothed, nil
}

// segmentClear discretizes both endpoints and asks the map about the
// straight segment between them.
func segmentClear(m gridmap.Map, a, b r2.Point) bool {
	return m.IsNotCrossedObstacle(gridmap.CellAt(a.X, a.Y), gridmap.CellAt(b.X, b.Y))
}
