package gridmap

const (
	lotWidth  = 82
	lotHeight = 63

	stallColumns      = 16
	stallColumnPitch  = 4
	firstStallColumnX = 11
)

// ParkingLot is the fixed two-aisle lot layout: sixteen columns of parking
// stalls in three vertical bands, separated by horizontal drive aisles at
// y=17 and y=40.
type ParkingLot struct {
	layout
}

// NewParkingLot builds the lot. The layout is deterministic, so two lots are
// always identical.
func NewParkingLot() *ParkingLot {
	lot := &ParkingLot{layout: newLayout(lotWidth, lotHeight)}
	lot.addOuterWalls()
	lot.addAisles()
	lot.addStalls()
	return lot
}

// addAisles places the two horizontal aisle walls. They stop short of the
// outer walls so the ends stay drivable.
func (p *ParkingLot) addAisles() {
	for x := firstStallColumnX; x <= p.width-firstStallColumnX; x++ {
		p.addCell(x, 17)
		p.addCell(x, 40)
	}
	right := float64(p.width - 10)
	p.addLine(firstStallColumnX, 17, right, 17)
	p.addLine(firstStallColumnX, 40, right, 40)
}

// addStalls places the vertical stall dividers: three bands per column, the
// top band running into the upper outer wall.
func (p *ParkingLot) addStalls() {
	for col := 0; col < stallColumns; col++ {
		x := firstStallColumnX + stallColumnPitch*col
		for dy := 0; dy < 6; dy++ {
			p.addCell(x, 11+dy)
			p.addCell(x, 18+dy)
			p.addCell(x, 34+dy)
			p.addCell(x, 41+dy)
			p.addCell(x, 57+dy)
		}
		fx := float64(x)
		p.addLine(fx, 11, fx, 24)
		p.addLine(fx, 34, fx, 47)
		p.addLine(fx, 57, fx, float64(p.height))
	}
}
