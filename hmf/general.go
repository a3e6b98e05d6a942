package hmf

import (
	"math"

	"github.com/cosmicgrid/reionheat/cosmo"
)

// Sheth-Tormen multiplicity function parameters.
const (
	stA = 0.3222
	sta = 0.707
	stp = 0.3
)

func shethTormenF(sigma float64) float64 {
	nu := deltaCrit / sigma
	return stA * math.Sqrt(2*sta/math.Pi) * (1 + math.Pow(nu*nu/sta, -stp)) *
		nu * math.Exp(-sta*nu*nu/2)
}

// dndlnM returns M^2/rho_bar * dn/dM, the standard dimensionless mass
// function used as the integration measure d(ln M) for unconditional
// integrals over the halo mass function.
func dndlnM(c cosmo.Params, M, growth float64) float64 {
	sigma := c.Sigma(M) * growth
	if sigma <= 0 {
		return 0
	}
	dlnSigmaDlnM := c.DLnSigmaDLnM(M)
	return shethTormenF(sigma) * math.Abs(dlnSigmaDlnM)
}

func integrateLogGrid(mMin, mMax float64, n int, f func(M float64) float64) float64 {
	if mMax <= mMin {
		return 0
	}
	h := (math.Log(mMax) - math.Log(mMin)) / float64(n)
	sum := 0.0
	for i := 0; i <= n; i++ {
		lnM := math.Log(mMin) + float64(i)*h
		M := math.Exp(lnM)
		weight := 2.0
		if i == 0 || i == n {
			weight = 1
		} else if i%2 == 1 {
			weight = 4
		}
		sum += weight * f(M)
	}
	return sum * h / 3.0
}

// FcollGeneral returns the global (unconditional) collapsed fraction above
// mMin at redshift z.
func FcollGeneral(c cosmo.Params, z, mMin float64) float64 {
	growth := c.Growth(z)
	const mMax = 1e16
	return integrateLogGrid(mMin, mMax, 400, func(M float64) float64 {
		return dndlnM(c, M, growth)
	})
}

// SFRDGeneral returns the global star-formation-rate density above mMin at
// redshift z, in Msun/yr per comoving Mpc^3/h^3.
func SFRDGeneral(c cosmo.Params, z, mMin, tStar, tHubbleSeconds float64, fStar10, alphaStar float64) float64 {
	growth := c.Growth(z)
	rhoM := cosmo.RhoAverage(c.H0, c.OmegaM, c.OmegaL, 0)
	const mMax = 1e16
	const yearSeconds = 3.15576e7
	tHubbleYears := tHubbleSeconds / yearSeconds
	return rhoM * integrateLogGrid(mMin, mMax, 400, func(M float64) float64 {
		fStar := clampUnit(fStar10 * math.Pow(M/1e10, alphaStar))
		return dndlnM(c, M, growth) * fStar / (tStar * tHubbleYears)
	})
}

// NionGeneral returns the global ionizing-photon production rate density
// above mMin at redshift z (ACG channel).
func NionGeneral(
	c cosmo.Params, z, mMin float64,
	fStar10, alphaStar, fEsc10, alphaEsc float64,
) float64 {
	growth := c.Growth(z)
	const mMax = 1e16
	return integrateLogGrid(mMin, mMax, 400, func(M float64) float64 {
		fStar := clampUnit(fStar10 * math.Pow(M/1e10, alphaStar))
		fEsc := clampUnit(fEsc10 * math.Pow(M/1e10, alphaEsc))
		return dndlnM(c, M, growth) * fStar * fEsc
	})
}

// NionGeneralMini is the MCG/minihalo analog of NionGeneral, integrated
// between mMin and the atomic-cooling threshold mAtomic.
func NionGeneralMini(
	c cosmo.Params, z, mMin, mAtomic float64,
	fStar7, alphaStarMini, fEsc7, alphaEscMini float64,
) float64 {
	if mAtomic <= mMin {
		return 0
	}
	growth := c.Growth(z)
	return integrateLogGrid(mMin, mAtomic, 200, func(M float64) float64 {
		fStar := clampUnit(fStar7 * math.Pow(M/1e7, alphaStarMini))
		fEsc := clampUnit(fEsc7 * math.Pow(M/1e7, alphaEscMini))
		return dndlnM(c, M, growth) * fStar * fEsc
	})
}
