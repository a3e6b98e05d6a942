// Package params holds the closed configuration surface: the
// astrophysical parameters driving the stochastic halo model and the
// mass-function integrals, the flag set selecting among the closed set of
// algorithm variants, and the cosmology. Validation happens once per
// snapshot at the orchestrator boundary.
package params

import (
	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/errs"
)

// BubbleAlgorithm selects how an ionized cell's neighborhood is painted
// once it crosses the ionization criterion.
type BubbleAlgorithm int

const (
	Sphere BubbleAlgorithm = iota
	Center
)

// FilterKind mirrors grid.FilterKind at the params layer so that Flags
// doesn't need to import the grid package merely to name a kernel.
type FilterKind int

const (
	TophatReal FilterKind = iota
	TophatK
	GaussianFilter
	ExponentialFilter
)

// PhotonConsType selects which photon-conservation remap is
// applied to the redshift/density inputs before each component runs.
type PhotonConsType int

const (
	PhotonConsNone PhotonConsType = iota
	PhotonConsZShift
	PhotonConsAlphaEscFit
	PhotonConsFEscFit
)

// Flags is the closed set of boolean and enum configuration switches
// controlling which algorithm variants a snapshot runs.
type Flags struct {
	UseHaloField         bool
	UseMinihalos         bool
	UseMassDependentZeta bool
	UseTsFluct           bool
	UseLyaHeating        bool
	UseCmbHeating        bool
	InhomoReco           bool
	CellRecomb           bool
	UseExpFilter         bool
	MinimizeMemory       bool
	FixVcbAvg            bool
	AvgBelowSampler      bool
	NoRNG                bool
	PhotonConsType       PhotonConsType
	BubbleAlgorithm      BubbleAlgorithm
	Filter               FilterKind
}

// Validate checks for the inconsistent flag combinations calls
// out as a Value error at snapshot entry (e.g. an unknown bubble algorithm,
// or requesting the exponential filter without opting into it explicitly).
func (f Flags) Validate() error {
	switch f.BubbleAlgorithm {
	case Sphere, Center:
	default:
		return errs.New(errs.Value, "params", "unknown bubble algorithm %d", f.BubbleAlgorithm)
	}
	switch f.Filter {
	case TophatReal, TophatK, GaussianFilter, ExponentialFilter:
	default:
		return errs.New(errs.Value, "params", "unknown filter kind %d", f.Filter)
	}
	if f.Filter == ExponentialFilter && !f.UseExpFilter {
		return errs.New(errs.Value, "params", "exponential filter selected without UseExpFilter")
	}
	switch f.PhotonConsType {
	case PhotonConsNone, PhotonConsZShift, PhotonConsAlphaEscFit, PhotonConsFEscFit:
	default:
		return errs.New(errs.Value, "params", "unknown photon-conservation type %d", f.PhotonConsType)
	}
	return nil
}

// AstroParams drives the stochastic halo-property model and the
// conditional/unconditional mass-function integrals.
type AstroParams struct {
	// Atomic-cooling-galaxy (ACG) stellar-mass/escape-fraction power laws.
	FStar10  float64
	AlphaStar float64
	FEsc10   float64
	AlphaEsc float64
	MLimStar float64
	MLimEsc  float64
	// Optional upper-mass stellar-fraction turnover.
	AlphaStarUpper  float64
	MStarUpperScale float64

	// Molecular-cooling-galaxy (MCG/minihalo) analogs.
	FStar7        float64
	AlphaStarMini float64
	FEsc7         float64
	AlphaEscMini  float64

	// Star-formation timescale and its lognormal scatter.
	TStar       float64
	SigmaStar   float64
	SigmaSFR    float64
	SigmaSFRLim float64
	SigmaSFRIdx float64
	SigmaXRay   float64

	// X-ray SED and efficiency.
	LXSFRNorm float64 // L_X/SFR normalization at solar metallicity
	AlphaX    float64 // spectral index

	// Turnover-mass floors and Lyman-Werner feedback parameters.
	MTurnFloorACG float64
	MTurnFloorMCG float64

	// Population synthesis numbers of ionizing photons per baryon.
	Pop2Ion float64
	Pop3Ion float64

	// Mean molecular weight / baryon fraction helpers.
	BaryonFraction float64
}

// DefaultAstroParams returns representative values drawn from the
// semi-numerical 21-cm literature this core targets.
func DefaultAstroParams() AstroParams {
	return AstroParams{
		FStar10: 0.0501, // 10^-1.3
		AlphaStar: 0.5,
		FEsc10: 0.1, // 10^-1.0
		AlphaEsc: -0.3,
		MLimStar: 1e10,
		MLimEsc: 1e10,
		AlphaStarUpper: -0.61,
		MStarUpperScale: 2.8e11,

		FStar7: 0.00316, // 10^-2.5
		AlphaStarMini: 0,
		FEsc7: 0.0447, // 10^-1.35
		AlphaEscMini: -0.3,

		TStar: 0.5,
		SigmaStar: 0.25,
		SigmaSFR: 0.19,
		SigmaSFRLim: 0.19,
		SigmaSFRIdx: -0.12,
		SigmaXRay: 0.2,

		LXSFRNorm: 40.5,
		AlphaX: 1.0,

		MTurnFloorACG: 5e8,
		MTurnFloorMCG: 1e5,

		Pop2Ion: 5000,
		Pop3Ion: 44000,

		BaryonFraction: 0.16,
	}
}

// Snapshot bundles everything a single redshift step needs: the validated
// flags, astrophysical parameters, cosmology, and the lattice shape.
type Snapshot struct {
	Z, ZPrev float64
	Flags Flags
	Astro AstroParams
	Cosmo cosmo.Params
	N int
	NonCubicFactor float64
}

// Validate checks the full snapshot-entry parameter set for internal
// consistency before any component runs.
func (s Snapshot) Validate() error {
	if err := s.Flags.Validate(); err != nil {
		return err
	}
	if s.N <= 0 {
		return errs.New(errs.Value, "params", "non-positive lattice size %d", s.N)
	}
	if s.NonCubicFactor < 1 {
		return errs.New(errs.Value, "params", "non-cubic factor %g must be >= 1", s.NonCubicFactor)
	}
	if s.Z <= 0 {
		return errs.New(errs.Value, "params", "non-positive redshift %g", s.Z)
	}
	return nil
}
