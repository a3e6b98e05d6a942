package cosmo

import "math"

// TRecfast returns the standard-thermal-history gas kinetic temperature at
// redshift z, following the standard recombination-era thermal history:
// above the Compton-coupling redshift Tk tracks T_CMB; below it Tk
// decouples and falls adiabatically as (1+z)^2.
func TRecfast(z float64) float64 {
	const zDecouple = 150.0
	if z >= zDecouple {
		return T_CMB(z)
	}
	tDecouple := T_CMB(zDecouple)
	return tDecouple * (1 + z) * (1 + z) / ((1 + zDecouple) * (1 + zDecouple))
}

// XionRecfast returns the residual free-electron fraction at redshift z
// from the standard recombination history. Uses a smooth fit that
// saturates near unity at high z and decays to the ~2e-4 relic ionization
// fraction at low z.
func XionRecfast(z float64) float64 {
	const (
		xRelic = 2.1e-4
		zTrans = 1100.0
		zWidth = 80.0
	)
	frac := 0.5 * (1 + math.Tanh((z-zTrans)/zWidth))
	return xRelic + (1-xRelic)*frac
}
