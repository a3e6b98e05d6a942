package shell

import (
	"math"

	"github.com/cosmicgrid/reionheat/physics"
)

// SpectralFactors holds the per-shell Lyman-series/Lyman-Werner weights
// derived from the recycling fractions and the stellar continuum,
// already multiplied by the (1+z')^2 * (1+z'') integrand prefactor used
// directly as dstar_lya/dt (and its mini/LW/continuum/injected variants).
type SpectralFactors struct {
	// Continuum is the direct n=2 (Lyman-alpha) contribution.
	Continuum float64
	// Injected is the sum over n=3..NSpecMax of recycled higher-series
	// photons, weighted by their recycling fraction.
	Injected float64
	// ContinuumMini and InjectedMini are the n=2/n=3+ analogs for the
	// minihalo (Pop III) population.
	ContinuumMini, InjectedMini float64
	// LymanWerner is the Lyman-Werner band contribution.
	LymanWerner float64
}

// zMax returns the redshift above which a photon emitted at the Lyman-n
// resonance would have already redshifted past the Lyman-(n+1) resonance
// before reaching a source at zPrime, and so cannot contribute to this
// shell's Lyman-n recycling sum.
func zMax(zPrime float64, n int) float64 {
	if n+1 > physics.NSpecMax {
		return math.Inf(1)
	}
	nuN := physics.NuN(n)
	nuN1 := physics.NuN(n + 1)
	return (1+zPrime)*nuN1/nuN - 1
}

const nPtsPartialVolume = 1000

// BuildSpectralFactors computes the per-shell SpectralFactors for every
// shell in s, given the stellar population split between ACG (always
// Pop II for the recycling sum) and MCG (Pop III, only when
// useMinihalos).
func BuildSpectralFactors(s *Schedule, useMinihalos bool) []SpectralFactors {
	out := make([]SpectralFactors, len(s.Shells))
	prevSum, prevSumMini := 0.0, 0.0
	for k, rec := range s.Shells {
		prefactor := (1 + s.ZPrime) * (1 + s.ZPrime) * (1 + rec.ZPP)

		cont, inj, lw := lymanSum(s.ZPrime, rec.ZPP, physics.PopII)
		sum := cont + inj
		if sum == 0 && prevSum > 0 {
			frac := partialVolumeFraction(s.ZPrime, s.Shells, k, physics.PopII)
			cont, inj = cont*frac, inj*frac
			sum = cont + inj
		}
		prevSum = sum

		var contMini, injMini float64
		if useMinihalos {
			contMini, injMini, _ = lymanSum(s.ZPrime, rec.ZPP, physics.PopIII)
			sumMini := contMini + injMini
			if sumMini == 0 && prevSumMini > 0 {
				frac := partialVolumeFraction(s.ZPrime, s.Shells, k, physics.PopIII)
				contMini, injMini = contMini*frac, injMini*frac
				sumMini = contMini + injMini
			}
			prevSumMini = sumMini
		}

		out[k] = SpectralFactors{
			Continuum:     cont * prefactor,
			Injected:      inj * prefactor,
			ContinuumMini: contMini * prefactor,
			InjectedMini:  injMini * prefactor,
			LymanWerner:   lw * prefactor,
		}
	}
	return out
}

// lymanSum accumulates the n=2 continuum term, the n>2 injected sum, and
// the Lyman-Werner band term for a single shell at emission redshift zPP
// as seen from current redshift zPrime.
func lymanSum(zPrime, zPP float64, pop physics.Pop) (continuum, injected, lw float64) {
	lwThreshold := physics.NuLW / physics.NuIon
	for n := 2; n <= physics.NSpecMax; n++ {
		if zPP > zMax(zPrime, n) {
			continue
		}
		nuPrime := physics.NuN(n) * (1 + zPP) / (1 + zPrime)
		nuRatio := nuPrime / physics.NuIon
		if nuRatio < lwThreshold {
			lw += physics.Frecycle(n) * physics.SpectralEmissivity(physics.NuLW, pop)
			continue
		}
		contrib := physics.Frecycle(n) * physics.SpectralEmissivity(nuPrime, pop)
		if n == 2 {
			continuum += contrib
		} else {
			injected += contrib
		}
	}
	return continuum, injected, lw
}

// partialVolumeFraction handles the shell-edge edge case: when a shell's
// recycling sum drops to zero while the previous shell's was positive,
// scan nPtsPartialVolume sub-intervals in z'' between the two shells'
// midpoints and return the fraction of that span over which at least one
// n still contributes.
func partialVolumeFraction(zPrime float64, shells []Record, k int, pop physics.Pop) float64 {
	if k == 0 {
		return 0
	}
	zLo, zHi := shells[k-1].ZPP, shells[k].ZPP
	if zHi <= zLo {
		return 0
	}
	dz := (zHi - zLo) / nPtsPartialVolume
	for i := 0; i < nPtsPartialVolume; i++ {
		zPP := zLo + float64(i)*dz
		cont, inj, _ := lymanSum(zPrime, zPP, pop)
		if cont+inj == 0 {
			return float64(i) / float64(nPtsPartialVolume)
		}
	}
	return 1.0
}
