// Package shell builds the per-snapshot shell schedule and spectral
// prefactors consumed by the spin-temperature engine: the ordered list of
// comoving shell radii and their corresponding emission redshifts, and the
// Lyman-series recycling / X-ray spectral weights evaluated on that
// schedule.
package shell

import (
	"math"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/errs"
	"github.com/cosmicgrid/reionheat/physics"
)

// cLightMpcPerSec is the speed of light in comoving Mpc/s, used to invert
// the light-travel-distance integral R(z) = integral_z'^z'' c/H(z) dz.
const cLightMpcPerSec = 2.998e8 / cosmo.MpcMks

// Record holds the per-shell geometric and mass-function bookkeeping
// built once per snapshot: radius R_k, emission redshift z''_k and its
// outer edge, the redshift step and dt/dz across the shell, the growth
// factor at z''_k, and the [Mmin, Mmax] mass-function integration bounds
// with their sigma values.
type Record struct {
	R, ZPP, ZPPEdge, DZPP, DtDzPP float64
	Growth                       float64
	MMin, MMax                   float64
	SigmaMin, SigmaMax           float64
}

// Schedule is the ordered shell list for one current redshift z'. R_k is
// strictly increasing with k, from one cell's comoving size up to
// R_XLyMax, while z''_k strictly decreases with k: each successive
// shell's comoving separation from z' grows, so the redshift solved for
// at that separation moves further below z' itself.
type Schedule struct {
	ZPrime float64
	Shells []Record
}

// atomicThresholdMin is the floor applied to every shell's Mmin, below
// which no realistic star-forming halo exists regardless of turnover
// feedback.
const atomicThresholdMin = 1e6

// mMaxUnconditional matches the integration ceiling used throughout the
// hmf package's unconditional integrals.
const mMaxUnconditional = 1e16

// BuildSchedule constructs the shell schedule for current redshift
// zPrime. boxSize is the comoving box side length (Mpc/h), n the lattice
// size along one side, nShell the number of shells (NSHELL), and
// rXLyMax the comoving distance out to which Lyman-series recycling is
// tracked (R_XLYMAX), in the same units as boxSize.
func BuildSchedule(c cosmo.Params, zPrime, boxSize float64, n, nShell int, rXLyMax float64) (*Schedule, error) {
	if nShell < 2 {
		return nil, errs.New(errs.Value, "shell", "nShell must be >= 2, got %d", nShell)
	}
	r0 := boxSize / float64(n)
	if rXLyMax <= r0 {
		return nil, errs.New(errs.Value, "shell", "rXLyMax %g must exceed the cell size %g", rXLyMax, r0)
	}
	ratio := math.Pow(rXLyMax/r0, 1.0/float64(nShell-1))

	shells := make([]Record, nShell)
	zHi := zPrime
	for k := 0; k < nShell; k++ {
		R := r0 * math.Pow(ratio, float64(k))
		zLo, err := zBelowComovingDistance(c, zPrime, R)
		if err != nil {
			return nil, err
		}
		var zEdge float64
		if k+1 < nShell {
			REdge := r0 * math.Pow(ratio, float64(k+1))
			zEdge, err = zBelowComovingDistance(c, zPrime, REdge)
			if err != nil {
				return nil, err
			}
		} else {
			zEdge = zLo
		}
		growth := c.Growth(zLo)
		mMin := math.Max(physics.AtomicCoolingThreshold(zLo), atomicThresholdMin)
		mMax := mMaxUnconditional
		shells[k] = Record{
			R: R, ZPP: zLo, ZPPEdge: zEdge,
			DZPP: zLo - zHi, DtDzPP: c.DtDz(zLo),
			Growth: growth, MMin: mMin, MMax: mMax,
			SigmaMin: c.Sigma(mMin), SigmaMax: c.Sigma(mMax),
		}
		zHi = zLo
	}
	return &Schedule{ZPrime: zPrime, Shells: shells}, nil
}

// zBelowComovingDistance solves for z'' < zPrime such that the comoving
// light-travel distance from z'' to zPrime equals R, via bisection over a
// monotonically decreasing integral (distance to zPrime shrinks as the
// lower bound is pulled up toward zPrime).
func zBelowComovingDistance(c cosmo.Params, zPrime, R float64) (float64, error) {
	dist := func(zLo float64) float64 { return comovingDistance(c, zLo, zPrime) }
	lo, hi := 0.0, zPrime
	if dist(lo) < R {
		return 0, errs.New(errs.Value, "shell", "could not bracket comoving distance %g Mpc/h below z=%g", R, zPrime)
	}
	for i := 0; i < 80; i++ {
		mid := 0.5 * (lo + hi)
		if dist(mid) > R {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi), nil
}

// comovingDistance integrates c/H(z) dz from zLow to zHigh by Simpson's
// rule over a fixed number of sub-intervals.
func comovingDistance(c cosmo.Params, zLow, zHigh float64) float64 {
	if zHigh <= zLow {
		return 0
	}
	const n = 64
	h := (zHigh - zLow) / n
	sum := 0.0
	for i := 0; i <= n; i++ {
		z := zLow + float64(i)*h
		integrand := cLightMpcPerSec / c.H(z)
		weight := 2.0
		if i == 0 || i == n {
			weight = 1
		} else if i%2 == 1 {
			weight = 4
		}
		sum += weight * integrand
	}
	return sum * h / 3.0
}
