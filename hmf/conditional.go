// Package hmf implements the conditional and unconditional mass-function
// integrals: tabulated Nion/SFRD/Fcoll kernels exposed as regular-grid
// lookups (linear in 1D, bilinear in 2D) over the interpolate package's
// Table1D/Table2D.
package hmf

import (
	"math"

	"github.com/cosmicgrid/reionheat/cosmo"
)

// deltaCrit is the critical linear-theory overdensity for spherical
// collapse (Einstein-de Sitter value, used throughout this literature).
const deltaCrit = 1.686

// fcollConditional returns the extended-Press-Schechter conditional
// collapsed fraction for mass >= Mmin, given the local overdensity delta
// smoothed on a scale whose variance is sigmaCond^2, the growth factor at
// the current redshift, and sigmaMin = sigma(Mmin, z=0). This is the
// closed-form erfc solution of the conditional mass function integral
// (Lacey & Cole 1993), used by the non-mass-dependent-zeta path
// (FcollDelta, DFcollDzDelta). The Nion/SFRD conditional integrals below
// do not call it; they integrate dndlnMConditional instead.
func fcollConditional(delta, growth, sigmaMin, sigmaCond float64) float64 {
	variance := sigmaMin*sigmaMin - sigmaCond*sigmaCond
	if variance <= 0 {
		return 0
	}
	arg := (deltaCrit/growth - delta) / math.Sqrt(2*variance)
	if arg < -8 {
		return 1
	}
	if arg > 8 {
		return 0
	}
	return erfc(arg)
}

func erfc(x float64) float64 { return math.Erfc(x) }

// dutyCycle returns the sharp-turnover feedback suppression exp(-Mturn/M)
// applied to a halo of mass M, the star-formation duty-cycle model used
// throughout this literature for both the ACG (Mturn ~ atomic-cooling
// threshold) and MCG/minihalo (Mturn ~ Lyman-Werner-suppressed threshold)
// channels.
func dutyCycle(mTurn, m float64) float64 {
	if mTurn <= 0 {
		return 1
	}
	return math.Exp(-mTurn / m)
}

// dndlnMConditional returns the extended Press-Schechter conditional
// differential mass function dn/dlnM (Bond et al. 1991; Lacey & Cole
// 1993): the progenitor-mass crossing rate within a region already at
// overdensity delta (at the current growth factor) and conditioning
// variance sigmaCond^2. Integrating this over [Mmin, Mmax] recovers
// fcollConditional(delta, growth, sigma(Mmin), sigmaCond) in the limit
// Mmax -> infinity (sigma(Mmax) -> 0).
func dndlnMConditional(c cosmo.Params, M, growth, delta, sigmaCond float64) float64 {
	sigma := c.Sigma(M)
	variance := sigma*sigma - sigmaCond*sigmaCond
	if variance <= 0 {
		return 0
	}
	w0 := deltaCrit/growth - delta
	if w0 <= 0 {
		return 0
	}
	dlnSigmaDlnM := c.DLnSigmaDLnM(M)
	return math.Sqrt(2/math.Pi) * w0 * sigma * sigma * math.Abs(dlnSigmaDlnM) /
		math.Pow(variance, 1.5) * math.Exp(-w0*w0/(2*variance))
}

// conditionalIntegrationPoints is the log-grid resolution used for the
// conditional Nion/SFRD integrals: coarser than the unconditional tables'
// 400 points since these are evaluated at every (delta, log10 Mturn) grid
// node of a per-shell table rather than once per snapshot.
const conditionalIntegrationPoints = 64

// NionConditional evaluates the ACG ionizing-photon conditional integral
// at a single (delta, log10 Mturn) point: f_star(M)*f_esc(M) weighted by
// the conditional mass function, integrated over [Mmin, Mmax]. growth is
// the linear growth factor at the snapshot's redshift; sigmaMax =
// sigma(Mmax, z=0) is the conditioning region's variance.
func NionConditional(
	c cosmo.Params, delta, log10MTurn, growth, mMin, mMax, sigmaMax float64,
	fStar10, alphaStar, fEsc10, alphaEsc, mLimStar, mLimEsc float64,
) float64 {
	mTurn := math.Pow(10, log10MTurn)
	return integrateLogGrid(mMin, mMax, conditionalIntegrationPoints, func(M float64) float64 {
		duty := dutyCycle(mTurn, M)
		mStarEff := clampMassToLimit(M, mLimStar, alphaStar)
		mEscEff := clampMassToLimit(M, mLimEsc, alphaEsc)
		fStar := clampUnit(fStar10 * math.Pow(mStarEff/1e10, alphaStar))
		fEsc := clampUnit(fEsc10 * math.Pow(mEscEff/1e10, alphaEsc))
		return dndlnMConditional(c, M, growth, delta, sigmaMax) * duty * fStar * fEsc
	})
}

// NionConditionalMini is the minihalo analog of NionConditional, used when
// minihalo star formation is enabled. It applies a single turnover, the
// exp(-MturnMini/M) suppression; there is no upper cutoff at the ACG
// turnover, and the f_star/f_esc power laws are clamped to [0, 1] without
// mass limits.
func NionConditionalMini(
	c cosmo.Params, delta, log10MTurnMini, growth, mMin, mMax, sigmaMax float64,
	fStar7, alphaStarMini, fEsc7, alphaEscMini float64,
) float64 {
	mTurnMini := math.Pow(10, log10MTurnMini)
	return integrateLogGrid(mMin, mMax, conditionalIntegrationPoints, func(M float64) float64 {
		duty := dutyCycle(mTurnMini, M)
		fStar := clampUnit(fStar7 * math.Pow(M/1e7, alphaStarMini))
		fEsc := clampUnit(fEsc7 * math.Pow(M/1e7, alphaEscMini))
		return dndlnMConditional(c, M, growth, delta, sigmaMax) * duty * fStar * fEsc
	})
}

// SFRDConditional evaluates the conditional star-formation-rate-density
// integral at (delta, log10 Mturn).
func SFRDConditional(
	c cosmo.Params, delta, log10MTurn, growth, mMin, mMax, sigmaMax, tStar, tHubble float64,
	fStar10, alphaStar float64,
) float64 {
	mTurn := math.Pow(10, log10MTurn)
	integral := integrateLogGrid(mMin, mMax, conditionalIntegrationPoints, func(M float64) float64 {
		duty := dutyCycle(mTurn, M)
		fStar := clampUnit(fStar10 * math.Pow(M/1e10, alphaStar))
		return dndlnMConditional(c, M, growth, delta, sigmaMax) * duty * fStar
	})
	return integral / (tStar * tHubble)
}

// FcollDelta returns the non-mass-dependent-zeta collapsed fraction
// f_coll(delta), the simpler path used when zeta doesn't depend on halo
// mass.
func FcollDelta(c cosmo.Params, delta, growth, mMin float64) float64 {
	sigmaMin := c.Sigma(mMin)
	return fcollConditional(delta, growth, sigmaMin, 0)
}

// DFcollDzDelta returns d(f_coll)/dz at fixed delta via a centered finite
// difference in growth factor space (the only z-dependence of
// fcollConditional beyond delta itself).
func DFcollDzDelta(c cosmo.Params, delta, z, mMin float64) float64 {
	const dz = 1e-3
	g1 := c.Growth(z - dz)
	g2 := c.Growth(z + dz)
	sigmaMin := c.Sigma(mMin)
	f1 := fcollConditional(delta, g1, sigmaMin, 0)
	f2 := fcollConditional(delta, g2, sigmaMin, 0)
	return (f2 - f1) / (2 * dz)
}

func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
