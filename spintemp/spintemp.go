package spintemp

import (
	"math"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/errs"
	"github.com/cosmicgrid/reionheat/grid"
	"github.com/cosmicgrid/reionheat/halobox"
	"github.com/cosmicgrid/reionheat/hmf"
	"github.com/cosmicgrid/reionheat/logging"
	"github.com/cosmicgrid/reionheat/parallel"
	"github.com/cosmicgrid/reionheat/params"
	"github.com/cosmicgrid/reionheat/shell"
)

// Box is the Spin-Temperature Engine's per-cell output: spin temperature,
// kinetic temperature, free-electron fraction, and the accumulated
// Lyman-Werner flux used by the next snapshot's halo turnover feedback.
type Box struct {
	Ts, Tk, Xe, JLW *grid.RealGrid
}

func newBox(s grid.Shape) *Box {
	return &Box{Ts: grid.NewRealGrid(s), Tk: grid.NewRealGrid(s), Xe: grid.NewRealGrid(s), JLW: grid.NewRealGrid(s)}
}

// SourceInputs bundles everything ComputeSpinTemperature needs from the
// rest of the snapshot: the shell schedule and its spectral factors, the
// Eulerian density field, and either a halo-mode SFR grid or nothing
// (triggering the density-based fallback, which requires Delta).
type SourceInputs struct {
	Schedule *shell.Schedule
	Spectral []shell.SpectralFactors
	Delta    *grid.RealGrid
	HaloBox  *halobox.Box // nil when snap.Flags.UseHaloField is false

	// PrevTs is the previous snapshot's spin-temperature Box, the actual
	// per-cell (Tk, x_e) state the integrator steps forward from; its mean
	// x_e also sets the ionisation state of the frequency tables. Nil on
	// the first snapshot, in which case every cell falls back to the
	// Recfast closed form. Not read at or above cosmo.Z_HEAT_MAX.
	PrevTs *Box
}

// ComputeSpinTemperature is the public entry point for 2.5: given the
// current snapshot's parameters and the per-snapshot source inputs
// (including the previous snapshot's Box in src.PrevTs, unused at or
// above cosmo.Z_HEAT_MAX), it returns the advanced (Ts, Tk, x_e, J_LW) box.
func ComputeSpinTemperature(snap params.Snapshot, planner *grid.Planner, src SourceInputs) (*Box, error) {
	log := logging.Snapshot("spintemp", snap.Z)
	shape := grid.NewShape(snap.N, snap.NonCubicFactor)

	if snap.Z >= cosmo.Z_HEAT_MAX {
		log.Debug("using closed-form Recfast initializer above Z_HEAT_MAX")
		return closedFormInit(snap, shape)
	}

	box := newBox(shape)
	n := shape.Cells()
	rad := make([]CellRadiative, n)

	xeMeanPrev := cosmo.XionRecfast(snap.ZPrev)
	if src.PrevTs != nil && len(src.PrevTs.Xe.Data) > 0 {
		sum := 0.0
		for _, v := range src.PrevTs.Xe.Data {
			sum += v
		}
		xeMeanPrev = sum / float64(len(src.PrevTs.Xe.Data))
	}
	qHI := 1 - xeMeanPrev

	alphaX := snap.Astro.AlphaX
	lxOverSFR := math.Pow(10, snap.Astro.LXSFRNorm)

	tables, err := BuildFreqTables(src.Schedule, snap.Z, xeMeanPrev, qHI, alphaX, lxOverSFR)
	if err != nil {
		return nil, err
	}

	useHalo := snap.Flags.UseHaloField && src.HaloBox != nil
	var sourceGrid *grid.RealGrid
	if useHalo {
		sourceGrid = src.HaloBox.SFR
	} else {
		sourceGrid = src.Delta
	}
	if sourceGrid == nil {
		return nil, errs.New(errs.Value, "spintemp", "no source grid available (halo field requested but absent, and no density field supplied)")
	}
	kSource, err := planner.Forward(sourceGrid)
	if err != nil {
		return nil, err
	}

	rPrev := 0.0
	for k, rec := range src.Schedule.Shells {
		filtered := kSource.Clone()
		grid.Filter(filtered, snap.Cosmo.BoxSize, grid.Annulus, rec.R, rPrev)
		rPrev = rec.R
		filteredReal, err := planner.Inverse(filtered)
		if err != nil {
			return nil, err
		}

		xrayRFactor := math.Pow(1+rec.ZPP, -snap.Astro.AlphaX)
		var zEdgeFactor float64
		if useHalo {
			zEdgeFactor = math.Abs(rec.DZPP * rec.DtDzPP)
		} else {
			zEdgeFactor = math.Abs(rec.DZPP*rec.DtDzPP) * snap.Cosmo.H(rec.ZPP) / snap.Astro.TStar
		}

		spec := src.Spectral[k]
		heatTable, ionTable, lyaTable := tables.Heat[k], tables.Ion[k], tables.Lya[k]

		err = parallel.ForEach(n, func(idx int) error {
			var sfrd float64
			if useHalo {
				sfrd = filteredReal.Data[idx]
			} else {
				delta := filteredReal.Data[idx]
				sfrd = hmf.SFRDGeneral(snap.Cosmo, rec.ZPP, rec.MMin, snap.Astro.TStar, 1.0/snap.Cosmo.H(rec.ZPP),
					snap.Astro.FStar10, snap.Astro.AlphaStar) * delta
			}
			sfrTerm := sfrd * zEdgeFactor
			xe := box.Xe.Data[idx]
			if xe == 0 {
				xe = xeMeanPrev
			}

			rad[idx].DHeatDt += sfrTerm * xrayRFactor * eval(heatTable, xe)
			rad[idx].DIonDt += sfrTerm * xrayRFactor * eval(ionTable, xe)
			rad[idx].DLyaContDt += sfrTerm * eval(lyaTable, xe) * spec.Continuum
			rad[idx].DLyaInjDt += sfrTerm * eval(lyaTable, xe) * spec.Injected
			rad[idx].DLyLWDt += sfrTerm * spec.LymanWerner
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	err = parallel.ForEach(n, func(idx int) error {
		tkOld, xeOld := cosmo.TRecfast(snap.ZPrev), cosmo.XionRecfast(snap.ZPrev)
		if src.PrevTs != nil {
			tkOld = src.PrevTs.Tk.Data[idx]
			xeOld = src.PrevTs.Xe.Data[idx]
		}
		delta := 0.0
		if src.Delta != nil {
			delta = src.Delta.Data[idx]
		}
		tk, xe, ts := integrateCell(snap.Cosmo, snap.Flags, snap.ZPrev, snap.Z, delta, tkOld, xeOld, rad[idx])
		box.Tk.Data[idx] = tk
		box.Xe.Data[idx] = xe
		box.Ts.Data[idx] = ts
		box.JLW.Data[idx] = rad[idx].DLyLWDt
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := checkFiniteBox(box); err != nil {
		return nil, err
	}
	return box, nil
}

// closedFormInit implements the Z_HEAT_MAX path: every cell is
// initialized to the standard-thermal-history Recfast values,
// independent of whether a previous Box exists, with Ts computed from
// the collisional-only coupling formula.
func closedFormInit(snap params.Snapshot, shape grid.Shape) (*Box, error) {
	box := newBox(shape)
	tk := cosmo.TRecfast(snap.Z)
	xe := cosmo.XionRecfast(snap.Z)
	nb := snap.Cosmo.NBaryon(snap.Z)
	ts := SpinTemperature(snap.Z, tk, xe, nb, 0)
	for i := range box.Tk.Data {
		box.Tk.Data[i] = tk
		box.Xe.Data[i] = xe
		box.Ts.Data[i] = ts
	}
	return box, nil
}

func checkFiniteBox(b *Box) error {
	for _, g := range []*grid.RealGrid{b.Ts, b.Tk, b.Xe, b.JLW} {
		for _, v := range g.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errs.New(errs.InfinityOrNaN, "spintemp", "output grid contains a non-finite value")
			}
		}
	}
	return nil
}
