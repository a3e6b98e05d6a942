// Package ionize implements the Ionisation Excursion-Set Solver: the
// decreasing-radius filtering loop that paints the ionized-hydrogen
// fraction field, the first-crossing photo-ionization rate / mean-free-
// path / ionization-redshift maps, and the recombination/temperature
// bookkeeping that feeds the next snapshot's spin-temperature engine.
package ionize

import (
	"math"

	"github.com/cosmicgrid/reionheat/errs"
	"github.com/cosmicgrid/reionheat/grid"
	"github.com/cosmicgrid/reionheat/halobox"
	"github.com/cosmicgrid/reionheat/hmf"
	"github.com/cosmicgrid/reionheat/logging"
	"github.com/cosmicgrid/reionheat/math/rand"
	"github.com/cosmicgrid/reionheat/parallel"
	"github.com/cosmicgrid/reionheat/params"
	"github.com/cosmicgrid/reionheat/physics"
)

// hiiRoundErr is the mean-collapsed-fraction floor below which the R-loop
// is skipped entirely: a box this far from ionizing would round every
// cell back to fully neutral anyway.
const hiiRoundErr = 1e-5

// nPoissonThreshold is the expected-ionizing-photon-count below which the
// cell-scale residual is Poisson-rounded rather than used as a smooth
// fraction, unless params.Flags.NoRNG forces the deterministic path.
const nPoissonThreshold = 20.0

// Box is the solver's per-cell output.
type Box struct {
	XH, ZRe, Gamma12, MFP, DNRec, TkAllGas *grid.RealGrid

	// MeanFcoll and MeanFcollMini are the global collapsed-fraction
	// diagnostics (ACG and MCG channels) evaluated once per snapshot.
	MeanFcoll, MeanFcollMini float64
}

func newBox(s grid.Shape) *Box {
	b := &Box{
		XH: grid.NewRealGrid(s), ZRe: grid.NewRealGrid(s), Gamma12: grid.NewRealGrid(s),
		MFP: grid.NewRealGrid(s), DNRec: grid.NewRealGrid(s), TkAllGas: grid.NewRealGrid(s),
	}
	for i := range b.XH.Data {
		b.XH.Data[i] = 1
		b.ZRe.Data[i] = -1
	}
	return b
}

// Inputs bundles everything ComputeIonisedBox needs beyond the snapshot
// parameters: the Eulerian density fields (current and previous), the
// halo-mode emissivity box (nil outside halo mode), the per-cell turnover
// grids from halobox.ComputeTurnoverGrids (nil in halo mode), and the
// previous snapshot's ionized box (nil on the first snapshot).
type Inputs struct {
	Delta, DeltaPrev *grid.RealGrid
	HaloBox          *halobox.Box
	TurnACG, TurnMCG *grid.RealGrid
	TkNeutral        *grid.RealGrid // this snapshot's spintemp.Box.Tk, the un-ionized kinetic temperature
	Xe               *grid.RealGrid // this snapshot's spintemp.Box.Xe, read only when Flags.UseTsFluct is set
	Prev             *Box
}

// ComputeIonisedBox is the public entry point for 4.6: it walks the
// decreasing-radius excursion-set loop and returns the advanced ionized
// box.
func ComputeIonisedBox(snap params.Snapshot, planner *grid.Planner, in Inputs) (*Box, error) {
	log := logging.Snapshot("ionize", snap.Z)
	shape := grid.NewShape(snap.N, snap.NonCubicFactor)
	n := shape.Cells()
	box := newBox(shape)

	mMin := physics.AtomicCoolingThreshold(snap.Z)
	if snap.Flags.UseMinihalos {
		mMin = physics.MolecularCoolingThreshold(snap.Z)
	}
	box.MeanFcoll = hmf.FcollGeneral(snap.Cosmo, snap.Z, mMin)
	if snap.Flags.UseMinihalos {
		box.MeanFcollMini = hmf.FcollGeneral(snap.Cosmo, snap.Z, physics.MolecularCoolingThreshold(snap.Z)) - box.MeanFcoll
	}

	if box.MeanFcoll < hiiRoundErr {
		log.Debug("mean collapsed fraction below round-off floor, skipping R-loop")
		if in.Prev != nil {
			copy(box.XH.Data, in.Prev.XH.Data)
		}
		if err := finalize(snap, in, box); err != nil {
			return nil, err
		}
		return box, nil
	}

	cellSize := snap.Cosmo.BoxSize / float64(snap.N)
	schedule := BuildRadiusSchedule(snap.Cosmo, snap.Cosmo.BoxSize, cellSize)
	useHalo := snap.Flags.UseHaloField && in.HaloBox != nil

	var kSource, kDelta, kTurnACG, kTurnMCG *grid.KGrid
	var err error
	if useHalo {
		kSource, err = planner.Forward(in.HaloBox.NIon)
	} else {
		kDelta, err = planner.Forward(in.Delta)
		if err == nil {
			kTurnACG, err = planner.Forward(in.TurnACG)
		}
		if err == nil && snap.Flags.UseMinihalos {
			kTurnMCG, err = planner.Forward(in.TurnMCG)
		}
	}
	if err != nil {
		return nil, err
	}

	ionized := make([]bool, n)
	zetaACG := snap.Astro.Pop2Ion * snap.Astro.BaryonFraction
	zetaMCG := snap.Astro.Pop3Ion * snap.Astro.BaryonFraction
	growth := snap.Cosmo.Growth(snap.Z)
	poisson := rand.NewPoissonStream()

	filterKind := toGridFilterKind(snap.Flags.Filter)

	for s := len(schedule.Radii) - 1; s >= 0; s-- {
		rec := schedule.Radii[s]
		isLastStep := s == 0

		var sourceReal, deltaReal, turnACGReal, turnMCGReal *grid.RealGrid
		if useHalo {
			kf := kSource.Clone()
			grid.Filter(kf, snap.Cosmo.BoxSize, filterKind, rec.R, 0)
			if sourceReal, err = planner.Inverse(kf); err != nil {
				return nil, err
			}
		} else {
			kf := kDelta.Clone()
			grid.Filter(kf, snap.Cosmo.BoxSize, filterKind, rec.R, 0)
			if deltaReal, err = planner.Inverse(kf); err != nil {
				return nil, err
			}
			grid.ClipAndExtrema(deltaReal, -1, 1.5)

			tableCfg := hmf.DefaultConditionalTableConfig()
			ka := kTurnACG.Clone()
			grid.Filter(ka, snap.Cosmo.BoxSize, filterKind, rec.R, 0)
			if turnACGReal, err = planner.Inverse(ka); err != nil {
				return nil, err
			}
			grid.ClipAndExtrema(turnACGReal, tableCfg.Log10MTurnMin, tableCfg.Log10MTurnMax)
			if snap.Flags.UseMinihalos {
				km := kTurnMCG.Clone()
				grid.Filter(km, snap.Cosmo.BoxSize, filterKind, rec.R, 0)
				if turnMCGReal, err = planner.Inverse(km); err != nil {
					return nil, err
				}
				grid.ClipAndExtrema(turnMCGReal, tableCfg.Log10MTurnMin, tableCfg.Log10MTurnMax)
			}
		}

		var table *hmf.NionConditionalTable
		if !useHalo {
			table, err = hmf.BuildNionConditionalTable(snap.Cosmo, snap.Astro, hmf.DefaultConditionalTableConfig(),
				growth, mMin, rec.MMax, snap.Flags.UseMinihalos)
			if err != nil {
				return nil, err
			}
		}

		crossed := make([]bool, n)
		residual := make([]float64, n)
		err = parallel.ForEach(n, func(idx int) error {
			if ionized[idx] {
				return nil
			}
			var nIonEff float64
			if useHalo {
				nIonEff = sourceReal.Data[idx] * zetaACG
			} else {
				acg, e := table.EvalACG(deltaReal.Data[idx], turnACGReal.Data[idx])
				if e != nil {
					return e
				}
				nIonEff = acg * zetaACG
				if snap.Flags.UseMinihalos {
					mcg, e := table.EvalMCG(deltaReal.Data[idx], turnMCGReal.Data[idx])
					if e != nil {
						return e
					}
					nIonEff += mcg * zetaMCG
				}
			}
			threshold := crossingThreshold(snap, in, idx)
			if nIonEff >= threshold {
				crossed[idx] = true
			} else if isLastStep {
				residual[idx] = clampUnit(1 - nIonEff/threshold)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		cellRadius := CellRadiusInUnits(rec.R, snap.Cosmo.BoxSize, snap.N)
		for idx := 0; idx < n; idx++ {
			if !crossed[idx] || ionized[idx] {
				continue
			}
			gamma12 := nionToGamma12(nIonAt(idx, useHalo, sourceReal, table, deltaReal, turnACGReal, turnMCGReal,
				zetaACG, zetaMCG, snap.Flags.UseMinihalos), snap.Cosmo.THubble(snap.Z))
			paintRegion(snap.Flags.BubbleAlgorithm, ionized, box, shape, idx, cellRadius, snap.Z, gamma12, rec.R)
		}

		if isLastStep {
			for idx := 0; idx < n; idx++ {
				if ionized[idx] {
					continue
				}
				r := residual[idx]
				if !snap.Flags.NoRNG && r > 0 && r < 1 {
					// Expected ionizing-equivalent count implied by the
					// residual, rounded by Poisson draw when it falls
					// below nPoissonThreshold rather than used smoothly.
					expected := (1 - r) * nPoissonThreshold
					draws := poisson.Next(expected)
					r = clampUnit(1 - draws/nPoissonThreshold)
				}
				box.XH.Data[idx] = r
			}
		}
	}

	if err := finalize(snap, in, box); err != nil {
		return nil, err
	}
	return box, nil
}

// crossingThreshold returns the right-hand side of the excursion-set
// crossing criterion, f_coll*zeta + f_coll_MINI*zeta_MINI >= (1 -
// x_HII,xrays)*(1 + N_rec/n_bar): the ionizing budget a cell must clear,
// discounted by any ionization the X-ray background has already produced
// (Flags.UseTsFluct, this snapshot's spintemp.Box.Xe) and inflated by the
// recombinations already paid for out of the cumulative budget
// (Flags.InhomoReco or Flags.CellRecomb, the previous snapshot's
// dN_rec/n_bar running total in Box.DNRec).
func crossingThreshold(snap params.Snapshot, in Inputs, idx int) float64 {
	xHIIXrays := 0.0
	if snap.Flags.UseTsFluct && in.Xe != nil {
		xHIIXrays = clampUnit(in.Xe.Data[idx])
	}
	nRecOverNb := 0.0
	if (snap.Flags.InhomoReco || snap.Flags.CellRecomb) && in.Prev != nil {
		nRecOverNb = in.Prev.DNRec.Data[idx]
	}
	return (1 - xHIIXrays) * (1 + nRecOverNb)
}

// nIonAt re-evaluates the effective ionizing-photon count at idx from the
// already-filtered per-shell fields, used only to derive the Gamma12
// estimate for a cell at the instant it first crosses the ionization
// criterion.
func nIonAt(
	idx int, useHalo bool, sourceReal *grid.RealGrid, table *hmf.NionConditionalTable,
	deltaReal, turnACGReal, turnMCGReal *grid.RealGrid, zetaACG, zetaMCG float64, useMinihalos bool,
) float64 {
	if useHalo {
		return sourceReal.Data[idx] * zetaACG
	}
	acg, _ := table.EvalACG(deltaReal.Data[idx], turnACGReal.Data[idx])
	total := acg * zetaACG
	if useMinihalos {
		mcg, _ := table.EvalMCG(deltaReal.Data[idx], turnMCGReal.Data[idx])
		total += mcg * zetaMCG
	}
	return total
}

// nionToGamma12 converts an effective ionizing-photon-per-baryon count
// into a photo-ionization rate in units of 1e-12 s^-1, treating the
// photon budget as produced uniformly over one Hubble time.
func nionToGamma12(nIonEff, tHubble float64) float64 {
	if tHubble <= 0 {
		return 0
	}
	return nIonEff / tHubble / 1e-12
}

// paintRegion marks idx (Center mode) or the full periodic sphere of
// radius cellRadius around idx (Sphere mode) as ionized, assigning the
// first-crossing z_re/Gamma12/MFP to every newly-covered cell.
func paintRegion(
	algo params.BubbleAlgorithm, ionized []bool, box *Box, shape grid.Shape,
	idx, cellRadius int, z, gamma12, mfp float64,
) {
	mark := func(j int) {
		if ionized[j] {
			return
		}
		ionized[j] = true
		box.XH.Data[j] = 0
		box.ZRe.Data[j] = z
		box.Gamma12.Data[j] = gamma12
		box.MFP.Data[j] = mfp
	}

	if algo == params.Center || cellRadius <= 0 {
		mark(idx)
		return
	}

	cx := idx % shape.N
	cy := (idx / shape.N) % shape.N
	cz := idx / (shape.N * shape.N)
	r2 := cellRadius * cellRadius
	for dz := -cellRadius; dz <= cellRadius; dz++ {
		for dy := -cellRadius; dy <= cellRadius; dy++ {
			for dx := -cellRadius; dx <= cellRadius; dx++ {
				if dx*dx+dy*dy+dz*dz > r2 {
					continue
				}
				x := wrap(cx+dx, shape.N)
				y := wrap(cy+dy, shape.N)
				zz := wrap(cz+dz, shape.Nz)
				mark(x + y*shape.N + zz*shape.N*shape.N)
			}
		}
	}
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// finalize applies the post-loop temperature and recombination updates to
// every cell, using the previous box's z_re/Gamma12 for cells that
// ionized in an earlier snapshot and this snapshot's freshly assigned
// values for cells that just crossed.
func finalize(snap params.Snapshot, in Inputs, box *Box) error {
	n := len(box.XH.Data)
	for idx := 0; idx < n; idx++ {
		zRe := box.ZRe.Data[idx]
		if zRe < 0 && in.Prev != nil {
			zRe = in.Prev.ZRe.Data[idx]
			box.ZRe.Data[idx] = zRe
			box.Gamma12.Data[idx] = in.Prev.Gamma12.Data[idx]
			box.MFP.Data[idx] = in.Prev.MFP.Data[idx]
		}
		delta := 0.0
		if in.Delta != nil {
			delta = in.Delta.Data[idx]
		}
		xHRes := box.XH.Data[idx]
		if xHRes <= 0 {
			box.TkAllGas.Data[idx] = physics.ComputeFullyIonizedTemperature(zRe, snap.Z, delta)
		} else if xHRes < 1 {
			tkIonized := physics.ComputeFullyIonizedTemperature(zRe, snap.Z, delta)
			box.TkAllGas.Data[idx] = physics.ComputePartiallyIonizedTemperature(xHRes, tkNeutralAt(in, idx), tkIonized)
		} else {
			box.TkAllGas.Data[idx] = tkNeutralAt(in, idx)
		}

		if snap.Flags.InhomoReco || snap.Flags.CellRecomb {
			prevDNRec := 0.0
			if in.Prev != nil {
				prevDNRec = in.Prev.DNRec.Data[idx]
			}
			rate := physics.SplinedRecombinationRate(snap.Z, box.Gamma12.Data[idx])
			dz := snap.ZPrev - snap.Z
			if dz < 0 {
				dz = 0
			}
			box.DNRec.Data[idx] = prevDNRec + rate*math.Abs(snap.Cosmo.DtDz(snap.Z))*dz*snap.Cosmo.NBaryon(snap.Z)
		}
	}
	return checkFinite(box)
}

func tkNeutralAt(in Inputs, idx int) float64 {
	if in.TkNeutral != nil {
		return in.TkNeutral.Data[idx]
	}
	return 0
}

// toGridFilterKind maps the params-layer filter enum (which mirrors
// grid.FilterKind's names but not necessarily its ordinal values) onto the
// concrete kernel the grid package implements.
func toGridFilterKind(f params.FilterKind) grid.FilterKind {
	switch f {
	case params.TophatReal:
		return grid.TophatReal
	case params.TophatK:
		return grid.TophatK
	case params.GaussianFilter:
		return grid.Gaussian
	case params.ExponentialFilter:
		return grid.Exponential
	default:
		return grid.TophatReal
	}
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

func checkFinite(b *Box) error {
	fields := map[string]*grid.RealGrid{
		"xH": b.XH, "z_re": b.ZRe, "gamma12": b.Gamma12, "mfp": b.MFP, "dN_rec": b.DNRec, "tk_all_gas": b.TkAllGas,
	}
	for name, g := range fields {
		for _, v := range g.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errs.New(errs.InfinityOrNaN, "ionize", "%s grid contains a non-finite value", name)
			}
		}
	}
	return nil
}
