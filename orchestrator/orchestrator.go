// Package orchestrator drives one redshift step at a time: it applies the
// photon-conservation redshift remap, runs the Halo-Box Gridder, the
// Spin-Temperature Engine, and the Ionisation Excursion-Set Solver in
// sequence, double-buffers the previous snapshot's feedback fields, and
// accumulates the mean-neutral-fraction history across the run.
package orchestrator

import (
	"github.com/cosmicgrid/reionheat/grid"
	"github.com/cosmicgrid/reionheat/halobox"
	"github.com/cosmicgrid/reionheat/ionize"
	"github.com/cosmicgrid/reionheat/logging"
	"github.com/cosmicgrid/reionheat/params"
	"github.com/cosmicgrid/reionheat/photoncons"
	"github.com/cosmicgrid/reionheat/shell"
	"github.com/cosmicgrid/reionheat/spintemp"
)

// MassBounds bounds a snapshot's mass-function integrals: the resolved
// minimum halo mass, the unconditional-integral ceiling, and (when
// Flags.AvgBelowSampler is set) the sampler mass splitting fixed-grid
// from halo-catalogue gridding.
type MassBounds struct {
	MMin, MMax, MSampler float64
}

// ShellConfig bounds the per-snapshot shell schedule built for the
// spin-temperature engine.
type ShellConfig struct {
	NShell  int
	RXLyMax float64
}

// State is one snapshot's complete set of output boxes, carried forward
// as the next snapshot's previous-state input.
type State struct {
	Z        float64
	HaloBox  *halobox.Box
	SpinTemp *spintemp.Box
	Ionized  *ionize.Box
	Delta    *grid.RealGrid
	Vcb      *grid.RealGrid
}

// History accumulates the mean neutral fraction across every snapshot
// processed by one Orchestrator, a diagnostic series this core tracks in
// addition to the per-cell output boxes.
type History struct {
	Z       []float64
	MeanXHI []float64
}

// Orchestrator owns the FFT planner (built once per lattice shape and
// shared across every snapshot) and the previous snapshot's State.
type Orchestrator struct {
	Planner *grid.Planner
	Shape   grid.Shape
	History History
	prev    *State
}

// New builds an Orchestrator for the given lattice shape.
func New(shape grid.Shape) (*Orchestrator, error) {
	planner, err := grid.NewPlanner(shape)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{Planner: planner, Shape: shape}, nil
}

// Previous returns the last completed snapshot's State, or nil before the
// first snapshot.
func (o *Orchestrator) Previous() *State { return o.prev }

func (o *Orchestrator) previousHaloState(vcb *grid.RealGrid) halobox.PreviousState {
	var ps halobox.PreviousState
	if o.prev != nil {
		if o.prev.Ionized != nil {
			ps.ZRe = o.prev.Ionized.ZRe
			ps.Gamma12 = o.prev.Ionized.Gamma12
		}
		if o.prev.SpinTemp != nil {
			ps.JLW = o.prev.SpinTemp.JLW
		}
	}
	ps.Vcb = vcb
	return ps
}

// ComputeHaloBox is the public entry point matching compute_halobox: it
// selects among halo-mode, fixed-grid, and AVG_BELOW_SAMPLER gridding
// according to snap.Flags and returns the resulting emissivity Box.
func (o *Orchestrator) ComputeHaloBox(
	snap params.Snapshot, halos []halobox.Halo, delta *grid.RealGrid, vcb *grid.RealGrid,
	boxSize, tHubbleSeconds float64, bounds MassBounds,
) (*halobox.Box, error) {
	log := logging.Snapshot("orchestrator", snap.Z)
	prevState := o.previousHaloState(vcb)

	switch {
	case snap.Flags.UseHaloField && snap.Flags.AvgBelowSampler && halos != nil:
		log.Debug("gridding halo box in AVG_BELOW_SAMPLER mode")
		return halobox.GridAvgBelowSampler(snap.Cosmo, o.Shape, snap.Z, boxSize, tHubbleSeconds,
			delta, halos, prevState, snap.Astro, snap.Flags.UseMinihalos, true, bounds.MMin, bounds.MSampler, bounds.MMax)
	case snap.Flags.UseHaloField && halos != nil:
		log.Debug("gridding halo box in halo mode")
		return halobox.GridHalos(snap.Cosmo, o.Shape, snap.Z, boxSize, tHubbleSeconds, halos, prevState, snap.Astro, snap.Flags.UseMinihalos)
	default:
		log.Debug("gridding halo box in fixed-grid mode")
		return halobox.GridFixed(snap.Cosmo, o.Shape, snap.Z, boxSize, tHubbleSeconds, delta, prevState,
			snap.Astro, snap.Flags.UseMinihalos, true, bounds.MMin, bounds.MMax)
	}
}

// ComputeSpinTemperature is the public entry point matching
// compute_spin_temperature: it builds this snapshot's shell schedule and
// spectral factors, threads the previous snapshot's actual per-cell
// (Ts, Tk, x_e) state forward, and delegates to
// spintemp.ComputeSpinTemperature.
func (o *Orchestrator) ComputeSpinTemperature(
	snap params.Snapshot, hbox *halobox.Box, delta *grid.RealGrid, boxSize float64, shellCfg ShellConfig,
) (*spintemp.Box, error) {
	schedule, err := shell.BuildSchedule(snap.Cosmo, snap.Z, boxSize, snap.N, shellCfg.NShell, shellCfg.RXLyMax)
	if err != nil {
		return nil, err
	}
	spectral := shell.BuildSpectralFactors(schedule, snap.Flags.UseMinihalos)
	var prevTs *spintemp.Box
	if o.prev != nil {
		prevTs = o.prev.SpinTemp
	}
	return spintemp.ComputeSpinTemperature(snap, o.Planner, spintemp.SourceInputs{
		Schedule: schedule, Spectral: spectral, Delta: delta, HaloBox: hbox, PrevTs: prevTs,
	})
}

// ComputeIonisedBox is the public entry point matching
// compute_ionised_box: it builds the per-cell turnover grids from the
// previous snapshot's feedback fields and delegates to
// ionize.ComputeIonisedBox.
func (o *Orchestrator) ComputeIonisedBox(
	snap params.Snapshot, hbox *halobox.Box, spin *spintemp.Box, delta, deltaPrev, vcb *grid.RealGrid,
) (*ionize.Box, error) {
	prevState := o.previousHaloState(vcb)
	turnACG, turnMCG, _ := halobox.ComputeTurnoverGrids(snap.Z, o.Shape, prevState, snap.Astro)

	var prevIon *ionize.Box
	if o.prev != nil {
		prevIon = o.prev.Ionized
	}
	var tkNeutral, xe *grid.RealGrid
	if spin != nil {
		tkNeutral = spin.Tk
		xe = spin.Xe
	}
	return ionize.ComputeIonisedBox(snap, o.Planner, ionize.Inputs{
		Delta: delta, DeltaPrev: deltaPrev, HaloBox: hbox,
		TurnACG: turnACG, TurnMCG: turnMCG, TkNeutral: tkNeutral, Xe: xe, Prev: prevIon,
	})
}

// RunSnapshot is the full per-redshift-step lifecycle (2.7): it validates
// the snapshot, applies the photon-conservation remap, runs the three
// components in sequence, records the mean-neutral-fraction diagnostic,
// and advances the double-buffered previous state.
func (o *Orchestrator) RunSnapshot(
	snap params.Snapshot, halos []halobox.Halo, delta, deltaPrev, vcb *grid.RealGrid,
	boxSize, tHubbleSeconds float64, bounds MassBounds, shellCfg ShellConfig,
) (*State, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	remap, err := photoncons.Adjust(snap.Flags.PhotonConsType, snap.Z)
	if err != nil {
		return nil, err
	}
	used := snap
	used.Z = remap.ZUsed

	log := logging.Snapshot("orchestrator", used.Z)
	log.Debug("running halo box")
	hbox, err := o.ComputeHaloBox(used, halos, delta, vcb, boxSize, tHubbleSeconds, bounds)
	if err != nil {
		return nil, err
	}

	log.Debug("running spin temperature")
	spin, err := o.ComputeSpinTemperature(used, hbox, delta, boxSize, shellCfg)
	if err != nil {
		return nil, err
	}

	log.Debug("running ionised box")
	ionBox, err := o.ComputeIonisedBox(used, hbox, spin, delta, deltaPrev, vcb)
	if err != nil {
		return nil, err
	}

	meanXHI := meanOf(ionBox.XH.Data)
	o.History.Z = append(o.History.Z, remap.ZStored)
	o.History.MeanXHI = append(o.History.MeanXHI, meanXHI)

	state := &State{Z: remap.ZStored, HaloBox: hbox, SpinTemp: spin, Ionized: ionBox, Delta: delta, Vcb: vcb}
	o.prev = state
	return state, nil
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
