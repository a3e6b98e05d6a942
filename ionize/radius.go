package ionize

import (
	"math"

	"github.com/cosmicgrid/reionheat/cosmo"
)

// DeltaRFactor is the geometric step ratio between successive smoothing
// radii in the excursion-set R-loop.
const DeltaRFactor = 1.1

// rBubbleMinDefault and rBubbleMaxDefault bound the smoothing-radius
// schedule at the cell scale and the largest bubble size this literature
// resolves, respectively (comoving Mpc/h).
const (
	rBubbleMinDefault = 0.620350491
	rBubbleMaxDefault = 50.0
)

// RadiusRecord is one step of the R-loop: the smoothing radius, the mass
// enclosed by a sphere of that radius at mean density, and the
// corresponding variance, plus its ordinal index within the schedule.
// Index 0 is always the cell-scale step used to assign the final,
// partially-ionized residual.
type RadiusRecord struct {
	R, MMax, Sigma float64
	Index          int
}

// RadiusSchedule is the ordered (increasing R) list of smoothing steps the
// R-loop walks from its last entry down to its first.
type RadiusSchedule struct {
	Radii []RadiusRecord
}

// BuildRadiusSchedule constructs the geometric radius schedule
// R_i = R_min * DeltaRFactor^i, starting from R_min = max(cellSize,
// rBubbleMinDefault) and continuing while R_i <= min(rBubbleMaxDefault,
// boxSize).
func BuildRadiusSchedule(c cosmo.Params, boxSize, cellSize float64) *RadiusSchedule {
	rMin := cellSize
	if rBubbleMinDefault > rMin {
		rMin = rBubbleMinDefault
	}
	rMax := rBubbleMaxDefault
	if boxSize < rMax {
		rMax = boxSize
	}

	var radii []RadiusRecord
	r := rMin
	for i := 0; r <= rMax; i++ {
		mMax := c.RtoM(r)
		radii = append(radii, RadiusRecord{R: r, MMax: mMax, Sigma: c.Sigma(mMax), Index: i})
		r *= DeltaRFactor
	}
	if len(radii) == 0 {
		mMax := c.RtoM(rMin)
		radii = append(radii, RadiusRecord{R: rMin, MMax: mMax, Sigma: c.Sigma(mMax), Index: 0})
	}
	return &RadiusSchedule{Radii: radii}
}

// CellRadiusInUnits converts a comoving radius to a cell-unit radius given
// the lattice's N and box side length, rounding up so that painting a
// sphere of this radius never misses a partially covered boundary cell.
func CellRadiusInUnits(r, boxSize float64, n int) int {
	cells := r / (boxSize / float64(n))
	return int(math.Ceil(cells))
}
