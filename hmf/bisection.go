package hmf

import "math"

// massLimitBisection finds the halo mass M at which norm*(M/scale)^power
// equals 1, the saturation point beyond which the power-law stellar-mass
// or escape-fraction fit would otherwise exceed unity. Returns 0 (no
// limit) for a flat power law, since a zero exponent never crosses 1
// except in the degenerate norm==1 case.
func massLimitBisection(norm, power, scale float64) float64 {
	if power == 0 || norm <= 0 {
		return 0
	}
	f := func(lnM float64) float64 {
		return norm*math.Pow(math.Exp(lnM)/scale, power) - 1
	}
	lo, hi := math.Log(1e3), math.Log(1e20)
	flo, fhi := f(lo), f(hi)
	if flo*fhi > 0 {
		// Power law never crosses 1 across the representable mass range:
		// it's either always sub-unity (no limit needed) or always
		// super-unity (the caller's clamp handles it uniformly).
		return 0
	}
	for i := 0; i < 100; i++ {
		mid := 0.5 * (lo + hi)
		fmid := f(mid)
		if fmid == 0 {
			return math.Exp(mid)
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	return math.Exp(0.5 * (lo + hi))
}

// MassLimitStar returns the mass-limit-bisection result for the ACG
// stellar-mass power law fStar10*(M/1e10)^alphaStar.
func MassLimitStar(fStar10, alphaStar float64) float64 {
	return massLimitBisection(fStar10, alphaStar, 1e10)
}

// MassLimitEsc returns the mass-limit-bisection result for the ACG
// escape-fraction power law fEsc10*(M/1e10)^alphaEsc.
func MassLimitEsc(fEsc10, alphaEsc float64) float64 {
	return massLimitBisection(fEsc10, alphaEsc, 1e10)
}

// clampMassToLimit returns the effective mass used to evaluate a
// saturating power law: when the exponent is negative the power law grows
// without bound as M shrinks, so mLim (where it first reaches 1) floors
// the mass used for the evaluation; when the exponent is positive the
// growth is with increasing M and clampUnit on the resulting value
// already saturates it, so mLim is a no-op.
func clampMassToLimit(m, mLim, power float64) float64 {
	if power >= 0 || mLim <= 0 {
		return m
	}
	if m < mLim {
		return mLim
	}
	return m
}
