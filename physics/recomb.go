package physics

import "math"

// AlphaA returns the case-A hydrogen recombination coefficient at gas
// temperature Tk (Kelvin), in cm^3/s, using the standard power-law fit
// (Hui & Gnedin 1997 form).
func AlphaA(Tk float64) float64 {
	lambda := 315614.0 / Tk
	return 1.269e-13 * math.Pow(lambda, 1.503) /
		math.Pow(1+math.Pow(lambda/0.522, 0.47), 1.923)
}

// AlphaB returns the case-B hydrogen recombination coefficient at gas
// temperature Tk (Kelvin), in cm^3/s.
func AlphaB(Tk float64) float64 {
	lambda := 315614.0 / Tk
	return 2.753e-14 * math.Pow(lambda, 1.5) /
		math.Pow(1+math.Pow(lambda/2.74, 0.407), 2.242)
}

// SplinedRecombinationRate returns the volume-averaged recombination rate
// R_rec(z, Gamma12) used to update the per-cell recombination budget under
// the inhomogeneous-recombination path, standing in for a clumping-
// factor-calibrated spline. Gamma12 is the photo-ionization rate in units
// of 1e-12 s^-1.
func SplinedRecombinationRate(z, gamma12 float64) float64 {
	clumping := 1 + 2.2*math.Pow((1+z)/10.0, -1.1)
	base := 2.9e-13 * clumping // cm^3/s, case-B at ~1e4 K
	return base * (1 + 0.1*gamma12)
}

// Kappa10HH returns the H-H collisional de-excitation rate coefficient of
// the hyperfine transition, in cm^3/s, at gas temperature Tk (Kelvin)
// (Zygelman 2005 fit, valid 1-1000 K; clamped outside that range).
func Kappa10HH(Tk float64) float64 {
	t := clamp(Tk, 1, 1000)
	logT := math.Log10(t)
	return math.Pow(10, -9.607+0.5*logT*math.Exp(-math.Pow(logT, 4.5)/1800.0)) * 1.0
}

// Kappa10EH returns the electron-H collisional de-excitation rate
// coefficient, in cm^3/s, at gas temperature Tk (Kelvin). Electron
// collisions dominate over H-H collisions by several orders of magnitude
// at fixed temperature (Furlanetto & Furlanetto 2007 fit).
func Kappa10EH(Tk float64) float64 {
	t := clamp(Tk, 1, 2e4)
	logT := math.Log10(t)
	return math.Pow(10, -9.607+0.53*logT) * math.Exp(-logT*logT/1e3)
}

// Kappa10PH returns the proton-H collisional de-excitation rate
// coefficient, in cm^3/s, at gas temperature Tk (Kelvin).
func Kappa10PH(Tk float64) float64 {
	return 1.5 * Kappa10HH(Tk)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
