package spintemp

import (
	"math"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/physics"
)

// saAlphaNorm is the Wouthuysen-Field coupling normalization relating a
// continuum+injected Lyman-alpha flux term to its dimensionless coupling
// coefficient x_alpha (Hirata 2006-style fit, order-of-magnitude
// normalization retained; S_alpha taken as unity).
const saAlphaNorm = 1.81e11

// collisionalCoupling returns x_coll, the dimensionless collisional
// coupling coefficient of the 21 cm hyperfine transition, from the H-H,
// e-H, and p-H collision rates at gas temperature tk, free-electron
// fraction xe, and baryon number density nb (cm^-3).
func collisionalCoupling(tk, xe, nb float64) float64 {
	nHI := (1 - xe) * nb * physics.HydrogenFraction
	ne := xe * nb * physics.HydrogenFraction
	np := ne
	rate := nHI*physics.Kappa10HH(tk) + ne*physics.Kappa10EH(tk) + np*physics.Kappa10PH(tk)
	return (physics.T21 / tk) * rate / physics.A10Hyperfine
}

// lyaFluxFloor is the Lyman-alpha flux below which the Wouthuysen-Field
// term is treated as absent and Ts falls back to collisional-only
// coupling, rather than a vanishingly small but nonzero x_alpha.
const lyaFluxFloor = 1e-20

// wouthuysenFieldCoupling returns x_alpha from the combined continuum and
// injected Lyman-alpha flux terms accumulated over the shell loop. This is
// always evaluated regardless of whether Lyman-alpha heating of Tk is
// enabled: the WF coupling into Ts and the Lyman-alpha heating term in the
// Tk update are independent channels fed by the same flux.
func wouthuysenFieldCoupling(dLyaDt, z float64) float64 {
	if dLyaDt < lyaFluxFloor {
		return 0
	}
	return saAlphaNorm * dLyaDt / (1 + z)
}

// SpinTemperature returns the gas spin temperature via the Field (1958)
// three-level formula, combining CMB, collisional, and (when xAlpha > 0)
// Wouthuysen-Field coupling. Passing xAlpha == 0 reduces this to the
// collisional-only fallback.
func SpinTemperature(z, tk, xe, nb, xAlpha float64) float64 {
	tCMB := cosmo.T_CMB(z)
	xColl := collisionalCoupling(tk, xe, nb)
	xTotal := xColl + xAlpha
	invTs := (1/tCMB + xTotal/tk) / (1 + xTotal)
	if invTs <= 0 {
		return tk
	}
	ts := 1 / invTs
	return math.Abs(ts)
}
