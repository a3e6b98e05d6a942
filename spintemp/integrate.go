package spintemp

import (
	"math"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/params"
	"github.com/cosmicgrid/reionheat/physics"
)

// maxSubsteps bounds the internal dt sub-stepping loop the
// backward-difference integrator falls back to when a single dz step
// would overshoot a stability bound on dTk. Kept as an internal safety
// valve: the caller still sees one redshift step in, one set of outputs
// out.
const maxSubsteps = 8

// CellRadiative bundles the per-cell accumulated radiative rates from the
// shell loop: heating, ionization, and the continuum/injected Lyman-alpha
// terms (already integrated over all shells).
type CellRadiative struct {
	DHeatDt, DIonDt, DLyaContDt, DLyaInjDt, DLyLWDt float64
}

// integrateCell advances one cell's (Tk, x_e) from zPrev to z via a
// backward-difference step, refining the step into sub-steps (up to
// maxSubsteps) whenever a single step's temperature change would exceed
// half the current Tk, then returns the updated (Tk, x_e, Ts).
func integrateCell(
	c cosmo.Params, flags params.Flags, zPrev, z, delta, tkOld, xeOld float64, rad CellRadiative,
) (tkNew, xeNew, tsNew float64) {
	dzTotal := zPrev - z
	if dzTotal <= 0 {
		dzTotal = 1e-8
	}

	n := 1
	var tk, xe float64
	for {
		tk, xe = tkOld, xeOld
		dz := dzTotal / float64(n)
		zc := zPrev
		stable := true
		for s := 0; s < n; s++ {
			dtdz := math.Abs(c.DtDz(zc))
			nb := c.NBaryon(zc)
			alphaA := physics.AlphaA(tk)
			xeClamped := clampUnit(xe)

			dxedz := dtdz * (rad.DIonDt - alphaA*xeClamped*xeClamped*physics.HydrogenFraction*nb*(1+delta))

			adiabatic := tk * math.Pow((zc-dz+1)/(zc+1), 2)
			compton := comptonHeating(c, zc, xeClamped, tk) * dtdz
			xray := rad.DHeatDt * dtdz
			var lya float64
			if flags.UseLyaHeating {
				lya = physics.EnergyLyaHeating(rad.DLyaContDt+rad.DLyaInjDt, tk, SpinTemperature(zc, tk, xeClamped, nb, 0)) * dtdz
			}
			var cmb float64
			if flags.UseCmbHeating {
				cmb = cmbHeating(zc, tk) * dtdz
			}

			tkNext := adiabatic + (xray+compton+cmb+lya)*dz
			if math.Abs(tkNext-tk) > 0.5*tk && n < maxSubsteps {
				stable = false
				break
			}
			xeNext := clampUnit(xe + dxedz*dz)
			tk, xe = tkNext, xeNext
			zc -= dz
		}
		if stable || n >= maxSubsteps {
			break
		}
		n *= 2
	}

	if tk < 0 {
		tk = cosmo.T_CMB(z)
	}
	nb := c.NBaryon(z)
	xAlpha := wouthuysenFieldCoupling(rad.DLyaContDt+rad.DLyaInjDt, z)
	ts := SpinTemperature(z, tk, xe, nb, xAlpha)
	return tk, xe, ts
}

// comptonHeating returns the Compton-scattering heating rate per baryon
// (erg/s equivalent, expressed directly as a dTk/dz-ready rate) coupling
// Tk toward T_CMB, scaled by the residual free-electron fraction.
func comptonHeating(c cosmo.Params, z, xe, tk float64) float64 {
	tCMB := cosmo.T_CMB(z)
	const comptonRate = 1.017e-37 // erg cm^3 s^-1 K^-1, Compton coupling normalization
	nb := c.NBaryon(z)
	return comptonRate * xe * nb * (1 + z) * (1 + z) * (1 + z) * (1 + z) * (tCMB - tk) / (1 + xe)
}

// cmbHeating returns the Meiksin (2021)-style CMB heating term, a small
// residual coupling that persists even at low x_e.
func cmbHeating(z, tk float64) float64 {
	tCMB := cosmo.T_CMB(z)
	const rate = 1e-4
	return rate * (tCMB - tk) / (1 + z)
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
