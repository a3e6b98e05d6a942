package grid

import (
	"github.com/cosmicgrid/reionheat/errs"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Planner owns the reusable gonum FFT plans for one lattice shape. FFT plan
// construction in gonum is itself a real, if small, allocation, so a
// Planner is built once per lattice shape and shared by every component
// that needs to filter a grid; the orchestrator keeps one Planner for all
// the snapshots it runs.
type Planner struct {
	shape   Shape
	realFFT *fourier.FFT      // along the z axis (real <-> complex)
	cFFTx   *fourier.CmplxFFT // along the x axis
	cFFTy   *fourier.CmplxFFT // along the y axis
}

// NewPlanner builds the FFT plans for shape s. Plan construction failure
// (only possible here if N or Nz is non-positive) is fatal to the
// snapshot.
func NewPlanner(s Shape) (*Planner, error) {
	if s.N <= 0 || s.Nz <= 0 {
		return nil, errs.New(errs.Value, "grid", "invalid shape (%d, %d, %d)", s.N, s.N, s.Nz)
	}
	return &Planner{
		shape:   s,
		realFFT: fourier.NewFFT(s.Nz),
		cFFTx:   fourier.NewCmplxFFT(s.N),
		cFFTy:   fourier.NewCmplxFFT(s.N),
	}, nil
}

// Forward transforms a real-space grid into its canonical k-space
// representation. The forward pass divides by the total cell count so
// that Inverse(Forward(x)) == x to floating precision.
func (p *Planner) Forward(r *RealGrid) (*KGrid, error) {
	if r.Shape != p.shape {
		return nil, errs.New(errs.Value, "grid", "grid/planner shape mismatch")
	}
	n, nz := p.shape.N, p.shape.Nz
	k := NewKGrid(p.shape)

	// Pass 1: real FFT along z for every (x, y) pencil.
	pencil := make([]float64, nz)
	coeff := make([]complex128, k.NzHalf)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < nz; z++ {
				pencil[z] = r.At(x, y, z)
			}
			p.realFFT.Coefficients(coeff, pencil)
			for iz := 0; iz < k.NzHalf; iz++ {
				k.Set(x, y, iz, coeff[iz])
			}
		}
	}

	// Pass 2: complex FFT along y for every (x, iz) line.
	lineY := make([]complex128, n)
	outY := make([]complex128, n)
	for x := 0; x < n; x++ {
		for iz := 0; iz < k.NzHalf; iz++ {
			for y := 0; y < n; y++ {
				lineY[y] = k.At(x, y, iz)
			}
			p.cFFTy.Coefficients(outY, lineY)
			for y := 0; y < n; y++ {
				k.Set(x, y, iz, outY[y])
			}
		}
	}

	// Pass 3: complex FFT along x for every (y, iz) line, with the total
	// 1/(N*N*Nz) normalization folded in here.
	lineX := make([]complex128, n)
	outX := make([]complex128, n)
	norm := complex(1.0/float64(p.shape.Cells()), 0)
	for y := 0; y < n; y++ {
		for iz := 0; iz < k.NzHalf; iz++ {
			for x := 0; x < n; x++ {
				lineX[x] = k.At(x, y, iz)
			}
			p.cFFTx.Coefficients(outX, lineX)
			for x := 0; x < n; x++ {
				k.Set(x, y, iz, outX[x]*norm)
			}
		}
	}

	return k, nil
}

// Inverse transforms a k-space grid back into real space.
func (p *Planner) Inverse(k *KGrid) (*RealGrid, error) {
	if k.Shape != p.shape {
		return nil, errs.New(errs.Value, "grid", "grid/planner shape mismatch")
	}
	n, nz := p.shape.N, p.shape.Nz
	work := k.Clone()

	// Pass 1: inverse complex FFT along x.
	lineX := make([]complex128, n)
	outX := make([]complex128, n)
	for y := 0; y < n; y++ {
		for iz := 0; iz < work.NzHalf; iz++ {
			for x := 0; x < n; x++ {
				lineX[x] = work.At(x, y, iz)
			}
			p.cFFTx.Sequence(outX, lineX)
			for x := 0; x < n; x++ {
				work.Set(x, y, iz, outX[x])
			}
		}
	}

	// Pass 2: inverse complex FFT along y.
	lineY := make([]complex128, n)
	outY := make([]complex128, n)
	for x := 0; x < n; x++ {
		for iz := 0; iz < work.NzHalf; iz++ {
			for y := 0; y < n; y++ {
				lineY[y] = work.At(x, y, iz)
			}
			p.cFFTy.Sequence(outY, lineY)
			for y := 0; y < n; y++ {
				work.Set(x, y, iz, outY[y])
			}
		}
	}

	// Pass 3: inverse real FFT along z.
	r := NewRealGrid(p.shape)
	coeff := make([]complex128, work.NzHalf)
	pencil := make([]float64, nz)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for iz := 0; iz < work.NzHalf; iz++ {
				coeff[iz] = work.At(x, y, iz)
			}
			p.realFFT.Sequence(pencil, coeff)
			for z := 0; z < nz; z++ {
				r.Set(x, y, z, pencil[z])
			}
		}
	}

	return r, nil
}
