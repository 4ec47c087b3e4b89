package gridmap

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/parclab/driveplan/geometry"
)

const (
	defaultObstacleDensity = 120
	maxSampleTries         = 1000
)

// RandomGridMap is a walled grid scattered with randomly placed block
// obstacles. All randomness flows through the seed passed at construction, so
// a fixed seed reproduces the exact same map and sampled poses.
type RandomGridMap struct {
	layout
	randseed *rand.Rand
}

// NewRandomGridMap builds a random map. An obstacleCount of zero or less
// picks a count proportional to the map area, and a nil seed falls back to a
// fixed source.
func NewRandomGridMap(width, height, obstacleCount int, seed *rand.Rand) (*RandomGridMap, error) {
	if width < 8 || height < 8 {
		return nil, errors.Errorf("random map needs bounds of at least 8x8, got %dx%d", width, height)
	}
	if seed == nil {
		//nolint:gosec
		seed = rand.New(rand.NewSource(1))
	}
	if obstacleCount <= 0 {
		obstacleCount = width * height / defaultObstacleDensity
	}
	m := &RandomGridMap{layout: newLayout(width, height), randseed: seed}
	m.addOuterWalls()
	maxSide := width / 4
	if height/4 < maxSide {
		maxSide = height / 4
	}
	if maxSide > 8 {
		maxSide = 8
	}
	for i := 0; i < obstacleCount; i++ {
		w := 2 + seed.Intn(maxSide-1)
		h := 2 + seed.Intn(maxSide-1)
		x := 1 + seed.Intn(width-w-1)
		y := 1 + seed.Intn(height-h-1)
		rect := Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
		for cx := rect.MinX; cx <= rect.MaxX; cx++ {
			for cy := rect.MinY; cy <= rect.MaxY; cy++ {
				m.addCell(cx, cy)
			}
		}
		m.addLine(float64(rect.MinX), float64(rect.MinY), float64(rect.MaxX), float64(rect.MinY))
		m.addLine(float64(rect.MinX), float64(rect.MaxY), float64(rect.MaxX), float64(rect.MaxY))
		m.addLine(float64(rect.MinX), float64(rect.MinY), float64(rect.MinX), float64(rect.MaxY))
		m.addLine(float64(rect.MaxX), float64(rect.MinY), float64(rect.MaxX), float64(rect.MaxY))
	}
	return m, nil
}

// RandomValidStart samples a free interior cell with a random heading.
func (m *RandomGridMap) RandomValidStart() (geometry.Pose, error) {
	return m.samplePose()
}

// RandomValidGoal samples a free interior cell with a random heading. The
// goal is sampled independently of any start, so callers wanting a minimum
// separation should resample.
func (m *RandomGridMap) RandomValidGoal() (geometry.Pose, error) {
	return m.samplePose()
}

func (m *RandomGridMap) samplePose() (geometry.Pose, error) {
	for i := 0; i < maxSampleTries; i++ {
		c := Cell{X: 1 + m.randseed.Intn(m.width-1), Y: 1 + m.randseed.Intn(m.height-1)}
		if m.isOccupied(c) {
			continue
		}
		theta := m.randseed.Float64()*2*math.Pi - math.Pi
		return geometry.NewPose(float64(c.X), float64(c.Y), theta), nil
	}
	return geometry.Pose{}, errors.Errorf("no free cell found in %d samples", maxSampleTries)
}
