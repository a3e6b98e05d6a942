// Package spintemp implements the Spin-Temperature Engine: per-shell
// source filtering and frequency integrals over the X-ray SED attenuated
// by x_e, followed by a per-cell backward-difference integrator that
// advances (Tk, x_e, Ts) across a redshift step.
package spintemp

import (
	"math"

	"github.com/cosmicgrid/reionheat/errs"
	"github.com/cosmicgrid/reionheat/math/interpolate"
	"github.com/cosmicgrid/reionheat/physics"
	"github.com/cosmicgrid/reionheat/shell"
)

// nXHII is the resolution of the tabulated x_e axis each frequency
// integral is interpolated over.
const nXHII = 11

// FreqTables holds, for every shell in a schedule, the x_e-indexed
// heating/ionization/Lyman-alpha frequency integrals.
type FreqTables struct {
	Heat, Ion, Lya []*interpolate.Table1D
}

// BuildFreqTables tabulates the frequency integrals for every shell in
// sched, using xeMeanPrev (the previous snapshot's mean free-electron
// fraction) and qHI (the previous mean neutral-but-ionized-region
// fraction) to fix each shell's lower integration limit via
// physics.NuTauOne, and the X-ray SED parameters (alphaX, lxOverSFR) for
// the integrand itself. Entries are validated finite; any non-finite
// value fails the whole table with errs.TableGeneration.
func BuildFreqTables(sched *shell.Schedule, zPrime, xeMeanPrev, qHI, alphaX, lxOverSFR float64) (*FreqTables, error) {
	n := len(sched.Shells)
	tables := &FreqTables{
		Heat: make([]*interpolate.Table1D, n),
		Ion:  make([]*interpolate.Table1D, n),
		Lya:  make([]*interpolate.Table1D, n),
	}
	const dxe = 1.0 / float64(nXHII-1)
	for k, rec := range sched.Shells {
		nuLow := math.Max(physics.NuTauOne(zPrime, rec.ZPP, xeMeanPrev, qHI), physics.NuXThresh)

		heat := make([]float64, nXHII)
		ion := make([]float64, nXHII)
		lya := make([]float64, nXHII)
		for i := 0; i < nXHII; i++ {
			xe := float64(i) * dxe
			heat[i] = physics.IntegrateOverNu(rec.ZPP, xe, nuLow, alphaX, lxOverSFR, physics.ModeHeat)
			ion[i] = physics.IntegrateOverNu(rec.ZPP, xe, nuLow, alphaX, lxOverSFR, physics.ModeIon)
			lya[i] = physics.IntegrateOverNu(rec.ZPP, xe, nuLow, alphaX, lxOverSFR, physics.ModeLya)
		}
		if err := checkFinite("heat", k, heat); err != nil {
			return nil, err
		}
		if err := checkFinite("ion", k, ion); err != nil {
			return nil, err
		}
		if err := checkFinite("lya", k, lya); err != nil {
			return nil, err
		}
		tables.Heat[k] = interpolate.NewTable1D(0, dxe, heat)
		tables.Ion[k] = interpolate.NewTable1D(0, dxe, ion)
		tables.Lya[k] = interpolate.NewTable1D(0, dxe, lya)
	}
	return tables, nil
}

func checkFinite(name string, shellIdx int, vals []float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.New(errs.TableGeneration, "spintemp", "%s table at shell %d contains a non-finite value", name, shellIdx)
		}
	}
	return nil
}

// eval clamps x into the table's domain before looking it up: per-cell
// x_e can drift infinitesimally outside [0,1] between steps, and this
// table's domain is exactly [0,1] by construction.
func eval(t *interpolate.Table1D, x float64) float64 {
	if x < 0 {
		x = 0
	} else if x > 1 {
		x = 1
	}
	v, err := t.Eval(x)
	if err != nil {
		return 0
	}
	return v
}
