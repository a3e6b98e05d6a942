package cosmo

import "math"

// Growth returns the linear growth factor D(z), normalized so that
// D(0) = 1, using the Carroll, Press & Turner (1992) fitting formula.
func (p Params) Growth(z float64) float64 {
	return p.growthUnnormalized(z) / p.growthUnnormalized(0)
}

func (p Params) growthUnnormalized(z float64) float64 {
	a := 1.0 / (1.0 + z)
	omegaMa := p.OmegaM / (p.OmegaM + p.OmegaL*a*a*a)
	omegaLa := 1.0 - omegaMa

	g := 2.5 * omegaMa / (math.Pow(omegaMa, 4.0/7.0) -
		omegaLa + (1+omegaMa/2.0)*(1+omegaLa/70.0))
	return a * g
}

// DGrowthDz returns the derivative of Growth with respect to z, evaluated
// by a centered finite difference; the fitting formula has no convenient
// closed-form derivative and this is only ever evaluated at a handful of
// shell/radius schedule points per snapshot.
func (p Params) DGrowthDz(z float64) float64 {
	const h = 1e-4
	return (p.Growth(z+h) - p.Growth(z-h)) / (2 * h)
}

// CTApprox returns the adiabatic index c_T(z) used in the gas-temperature
// evolution term, approximated as the standard single-fluid baryon
// temperature-density relation exponent (2/3 at all z in the regimes this
// core operates in).
func CTApprox(z float64) float64 {
	return 2.0 / 3.0
}
