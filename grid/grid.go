// Package grid implements the real<->complex grid and FFT substrate:
// 3D transforms and the filter kernels (tophat, Gaussian, annulus,
// exponential) used by the shell-integrated spin-temperature engine and the
// excursion-set ionization solver to smooth source/absorber fields in
// k-space.
package grid

import (
	"math"

	"github.com/cosmicgrid/reionheat/errs"
)

// Shape is the lattice shape (N, N, Nz), where Nz = ceil(f*N)
// for a non-cubic factor f >= 1.
type Shape struct {
	N, Nz int
}

// NewShape builds a Shape for a non-cubic factor f (f=1 for a cubic box).
func NewShape(n int, f float64) Shape {
	nz := int(math.Ceil(f * float64(n)))
	return Shape{N: n, Nz: nz}
}

// Cells returns the total real-space cell count N*N*Nz.
func (s Shape) Cells() int { return s.N * s.N * s.Nz }

// KShape returns the canonical real-to-complex k-space layout (N, N,
// Nz/2+1).
func (s Shape) KShape() (nx, ny, nzHalf int) {
	return s.N, s.N, s.Nz/2 + 1
}

// RealGrid is a real-space lattice of the given shape, flattened in
// row-major (x fastest, then y, then z) order.
type RealGrid struct {
	Shape Shape
	Data  []float64
}

// NewRealGrid allocates a zeroed RealGrid of the given shape.
func NewRealGrid(s Shape) *RealGrid {
	return &RealGrid{Shape: s, Data: make([]float64, s.Cells())}
}

// Idx returns the flat index of cell (x, y, z).
func (g *RealGrid) Idx(x, y, z int) int {
	return x + y*g.Shape.N + z*g.Shape.N*g.Shape.N
}

// At returns the value at cell (x, y, z).
func (g *RealGrid) At(x, y, z int) float64 { return g.Data[g.Idx(x, y, z)] }

// Set assigns the value at cell (x, y, z).
func (g *RealGrid) Set(x, y, z int, v float64) { g.Data[g.Idx(x, y, z)] = v }

// Clone returns a deep copy of the grid.
func (g *RealGrid) Clone() *RealGrid {
	out := NewRealGrid(g.Shape)
	copy(out.Data, g.Data)
	return out
}

// KGrid owns the canonical real-to-complex k-space representation of a
// RealGrid: Nx * Ny * (Nz/2+1) complex128 entries. Real and complex views
// are never punned: KGrid never aliases a RealGrid's backing array, and
// converting between the two always copies through an explicit
// forward/inverse transform (see Planner).
type KGrid struct {
	Shape          Shape
	Nx, Ny, NzHalf int
	Data           []complex128
}

// NewKGrid allocates a zeroed KGrid sized for shape s.
func NewKGrid(s Shape) *KGrid {
	nx, ny, nzh := s.KShape()
	return &KGrid{Shape: s, Nx: nx, Ny: ny, NzHalf: nzh, Data: make([]complex128, nx*ny*nzh)}
}

// Idx returns the flat index of k-space mode (ix, iy, iz).
func (k *KGrid) Idx(ix, iy, iz int) int {
	return ix + iy*k.Nx + iz*k.Nx*k.Ny
}

// At returns the complex amplitude of mode (ix, iy, iz).
func (k *KGrid) At(ix, iy, iz int) complex128 { return k.Data[k.Idx(ix, iy, iz)] }

// Set assigns the complex amplitude of mode (ix, iy, iz).
func (k *KGrid) Set(ix, iy, iz int, v complex128) { k.Data[k.Idx(ix, iy, iz)] = v }

// Clone returns a deep copy of the k-space grid.
func (k *KGrid) Clone() *KGrid {
	out := NewKGrid(k.Shape)
	copy(out.Data, k.Data)
	return out
}

// KPhysical returns the physical wavenumber magnitude (in h/Mpc, assuming
// boxSize is in Mpc/h) of mode (ix, iy, iz), accounting for the Hermitian
// wraparound convention of the real-to-complex layout along each axis.
func (k *KGrid) KPhysical(ix, iy, iz int, boxSize float64) (kx, ky, kz, kMag float64) {
	fund := 2 * math.Pi / boxSize
	kx = fund * foldFreq(ix, k.Nx)
	ky = fund * foldFreq(iy, k.Ny)
	kz = fund * float64(iz) // last axis is never folded: iz in [0, Nz/2]
	kMag = math.Sqrt(kx*kx + ky*ky + kz*kz)
	return
}

func foldFreq(i, n int) float64 {
	if i <= n/2 {
		return float64(i)
	}
	return float64(i - n)
}

// checkFinite validates that a slice of float64s contains no NaN/Inf
// values, raising the TableGeneration error used for
// table/grid construction failures.
func checkFinite(component string, vals []float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.New(errs.TableGeneration, component, "non-finite value encountered")
		}
	}
	return nil
}
