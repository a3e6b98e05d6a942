package physics

import "math"

// AtomicCoolingThreshold returns the virial-temperature-derived halo mass
// (Msun/h) above which atomic hydrogen line cooling is efficient, as a
// function of redshift (Barkana & Loeb 2001 fit, Tvir = 1e4 K).
func AtomicCoolingThreshold(z float64) float64 {
	return virialMass(1e4, z)
}

// MolecularCoolingThreshold returns the analogous halo mass for molecular
// hydrogen (H2) line cooling, Tvir ~ 500 K.
func MolecularCoolingThreshold(z float64) float64 {
	return virialMass(500, z)
}

func virialMass(tvir, z float64) float64 {
	return 1e8 / 0.6 * math.Pow(tvir/1.98e4, 1.5) *
		math.Pow(0.31*math.Pow(1+z, 3)+0.69, -0.5) / (1 + z) * 10
}

// LymanWernerThreshold returns the Lyman-Werner-feedback turnover mass
// M_turn_LW(z, J_LW, v_cb), combining the molecular-cooling
// baseline with suppression from the LW background intensity J_LW
// (units 1e-21 erg/s/cm^2/Hz/sr) and the baryon-dark-matter streaming
// velocity v_cb (km/s), following the three-effect fitting form of
// Kulkarni/Visbal-style models: J_LW suppresses the threshold mass upward,
// and v_cb raises it further through delayed baryon collapse.
func LymanWernerThreshold(z, jLW, vcb float64) float64 {
	mMol := MolecularCoolingThreshold(z)
	if jLW < 0 {
		jLW = 0
	}
	jFactor := math.Pow(1+jLW, 0.47)
	vFactor := 1 + 0.1*vcb/30.0
	return mMol * jFactor * vFactor
}

// ReionizationFeedback returns the reionization-feedback turnover mass
// M_turn_reion(z, Gamma12, z_re): zero before the cell's own
// ionization time, rising toward the photo-suppression mass once ionized,
// following the Sobacchi & Mesinger (2013) filtering-mass fit.
func ReionizationFeedback(z, gamma12, zRe float64) float64 {
	if zRe < 0 || z >= zRe {
		return 0
	}
	mFilter := 2.8e9 * math.Pow(gamma12, 0.17) * math.Pow((1+z)/10.0, -2.1)
	return mFilter
}

// ComputePartiallyIonizedTemperature returns the kinetic-temperature floor
// applied to a cell that is only partially ionized at the residual level
// xH_res, following the density- and ionization-weighted blend used
// between the fully-neutral Tk and the fully-ionized temperature.
func ComputePartiallyIonizedTemperature(xHRes, tkNeutral, tkIonized float64) float64 {
	if xHRes < 0 {
		xHRes = 0
	}
	if xHRes > 1 {
		xHRes = 1
	}
	return xHRes*tkNeutral + (1-xHRes)*tkIonized
}

// ComputeFullyIonizedTemperature returns the "fully ionized temperature"
// applied after the ionization-excursion loop, a function of the cell's
// ionization redshift zRe, the current redshift z, and the local
// overdensity delta: gas reheated to ~2e4 K at ionization, adiabatically
// cooling/heating with the expansion and local density since.
func ComputeFullyIonizedTemperature(zRe, z, delta float64) float64 {
	const tReheat = 2e4
	if zRe < 0 {
		return tReheat
	}
	adiabatic := math.Pow((1+z)/(1+zRe), 2)
	densityBoost := math.Pow(1+delta, 2.0/3.0)
	return tReheat * adiabatic * densityBoost
}
