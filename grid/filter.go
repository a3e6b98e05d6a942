package grid

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// FilterKind selects one of the smoothing kernels applied in k-space.
type FilterKind int

const (
	TophatReal FilterKind = iota
	TophatK
	Gaussian
	Annulus
	Exponential
)

// Filter multiplies every mode of k in place by the kind-specific kernel
// evaluated at radius R (and, for Annulus, the inner radius given by arg;
// for Exponential, the decay scale given by arg). boxSize is the comoving
// box side length in the same units as R. A radius at or below the cell
// size is a no-op.
func Filter(k *KGrid, boxSize float64, kind FilterKind, R, arg float64) {
	cellSize := boxSize / float64(k.Nx)
	if R <= cellSize {
		return
	}
	for ix := 0; ix < k.Nx; ix++ {
		for iy := 0; iy < k.Ny; iy++ {
			for iz := 0; iz < k.NzHalf; iz++ {
				_, _, _, kMag := k.KPhysical(ix, iy, iz, boxSize)
				w := kernel(kind, kMag, R, arg)
				idx := k.Idx(ix, iy, iz)
				k.Data[idx] *= complex(w, 0)
			}
		}
	}
}

func kernel(kind FilterKind, kMag, R, arg float64) float64 {
	switch kind {
	case TophatReal:
		return tophatKernel(kMag * R)
	case TophatK:
		return tophatKSharpKernel(kMag * R)
	case Gaussian:
		return gaussianKernel(kMag, R)
	case Annulus:
		// arg is the inner radius R_in; R is the outer radius R_out. The
		// annulus kernel is the difference of two tophats, used by the
		// spin-temperature engine to isolate a single shell's
		// contribution.
		return tophatKernel(kMag*R) - tophatKernel(kMag*arg)
	case Exponential:
		return exponentialKernel(kMag, arg)
	default:
		return 1
	}
}

// tophatKernel is the Fourier transform of a real-space spherical tophat
// window of radius R: applying it in k-space and inverting back to real
// space reproduces that uniform sphere, which is what the TophatReal
// filter is defined to do.
func tophatKernel(kR float64) float64 {
	if kR < 1e-4 {
		return 1 - kR*kR/10.0
	}
	return 3.0 * (math.Sin(kR) - kR*math.Cos(kR)) / (kR * kR * kR)
}

// tophatKSharpKernel is a sharp cutoff in k-space itself: 1 for modes
// inside the cutoff, 0 outside. Unlike tophatKernel, this is not meant to
// invert back to a flat real-space sphere; inverting a hard cutoff in k
// produces the characteristic sinc ringing of a band-limited field, which
// is the defining behavior of the TophatK filter.
func tophatKSharpKernel(kR float64) float64 {
	if kR <= 1 {
		return 1
	}
	return 0
}

func gaussianKernel(kMag, R float64) float64 {
	// R_gauss is conventionally R_tophat / 1.3523 in this literature so
	// that the two filters enclose the same mass at R=0.
	rg := R / 1.3523
	return math.Exp(-0.5 * kMag * kMag * rg * rg)
}

func exponentialKernel(kMag, scale float64) float64 {
	// Real-space exponential profile exp(-r/scale) has Fourier transform
	// 1/(1+(k*scale)^2)^2 up to normalization; used by the ionization
	// solver under the USE_EXP_FILTER flag.
	ks := kMag * scale
	denom := 1 + ks*ks
	return 1.0 / (denom * denom)
}

// ClipAndExtrema clips a real-space grid in place to [lo, hi] and returns
// the post-clip (min, max) via gonum/floats, used to establish
// interpolation-table bounds after each filtering pass.
func ClipAndExtrema(g *RealGrid, lo, hi float64) (min, max float64) {
	for i, v := range g.Data {
		if v < lo {
			v = lo
		} else if v > hi {
			v = hi
		}
		g.Data[i] = v
	}
	return floats.Min(g.Data), floats.Max(g.Data)
}
