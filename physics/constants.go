// Package physics implements the thermochemistry and frequency-integrand
// building blocks of the spin-temperature engine: recombination
// coefficients, collisional coupling, the hyperfine transition constants,
// cooling thresholds, Lyman-Werner feedback, and the X-ray/Lyman-series
// frequency integrals.
package physics

const (
	// A10Hyperfine is the spontaneous emission coefficient of the 21 cm
	// hyperfine transition, in s^-1.
	A10Hyperfine = 2.85e-15

	// T21 is the 21 cm transition temperature (hnu/k_B), in Kelvin.
	T21 = 0.0628

	// NuLW is the Lyman-Werner threshold frequency, in Hz.
	NuLW = 2.71e15
	// NuIon is the hydrogen ionization threshold frequency, in Hz.
	NuIon = 3.28e15
	// NuXThresh is the minimum frequency the X-ray SED is integrated
	// from, in Hz (soft X-rays below this are assumed fully absorbed by
	// the Galactic ISM and never escape into the IGM).
	NuXThresh = 500.0 / 13.6 * 3.28e15 // 500 eV (3.28e15 Hz is 13.6 eV)

	// NSpecMax is the highest Lyman-series line recycled into the Lyman
	// alpha background.
	NSpecMax = 23

	// HydrogenFraction is the primordial hydrogen mass fraction (1 -
	// Y_He), used to convert baryon number density into hydrogen number
	// density for the recombination term.
	HydrogenFraction = 0.76
)

// nuN returns the rest-frame frequency of the Lyman-n transition, in Hz,
// using the hydrogen Rydberg series nu_n = nu_Ly-limit * (1 - 1/n^2).
func NuN(n int) float64 {
	return NuIon * (1 - 1.0/float64(n*n))
}
