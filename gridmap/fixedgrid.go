package gridmap

import "github.com/pkg/errors"

// Rect is an axis-aligned inclusive cell range used to describe a block
// obstacle.
type Rect struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// FixedGridMap is a walled grid with caller-supplied rectangular obstacles.
type FixedGridMap struct {
	layout
}

// NewFixedGridMap builds a map of the given bounds containing the given
// obstacles. Each obstacle contributes its filled cells plus its four edge
// segments, so paths can neither enter nor cut a corner of a block.
func NewFixedGridMap(width, height int, obstacles []Rect) (*FixedGridMap, error) {
	if width < 2 || height < 2 {
		return nil, errors.Errorf("grid map needs bounds of at least 2x2, got %dx%d", width, height)
	}
	m := &FixedGridMap{layout: newLayout(width, height)}
	m.addOuterWalls()
	for _, rect := range obstacles {
		if err := m.addRect(rect); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *FixedGridMap) addRect(rect Rect) error {
	if rect.MinX > rect.MaxX || rect.MinY > rect.MaxY {
		return errors.Errorf("obstacle has inverted bounds: %+v", rect)
	}
	if rect.MinX < 0 || rect.MinY < 0 || rect.MaxX > m.width || rect.MaxY > m.height {
		return errors.Errorf("obstacle %+v outside %dx%d map", rect, m.width, m.height)
	}
	for x := rect.MinX; x <= rect.MaxX; x++ {
		for y := rect.MinY; y <= rect.MaxY; y++ {
			m.addCell(x, y)
		}
	}
	minX, minY := float64(rect.MinX), float64(rect.MinY)
	maxX, maxY := float64(rect.MaxX), float64(rect.MaxY)
	m.addLine(minX, minY, maxX, minY)
	m.addLine(minX, maxY, maxX, maxY)
	m.addLine(minX, minY, minX, maxY)
	m.addLine(maxX, minY, maxX, maxY)
	return nil
}
