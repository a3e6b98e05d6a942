package hmf

import (
	"math"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/errs"
	"github.com/cosmicgrid/reionheat/math/interpolate"
	"github.com/cosmicgrid/reionheat/params"
)

// ConditionalTableConfig bounds and resolution for a conditional
// Nion/SFRD/Fcoll table indexed by (delta, log10 Mturn).
type ConditionalTableConfig struct {
	DeltaMin, DeltaMax           float64
	NDelta                       int
	Log10MTurnMin, Log10MTurnMax float64
	NMTurn                       int
}

// DefaultConditionalTableConfig returns the resolution used throughout
// this literature for the per-R, per-shell conditional tables: fine
// enough in delta to resolve the excursion-set criterion near its
// threshold, coarse in log10 Mturn since turnover masses vary slowly
// across a snapshot.
func DefaultConditionalTableConfig() ConditionalTableConfig {
	return ConditionalTableConfig{
		DeltaMin: -1.0, DeltaMax: 1.5, NDelta: 150,
		Log10MTurnMin: 5.0, Log10MTurnMax: 10.0, NMTurn: 50,
	}
}

func validateFinite(component, name string, vals []float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.New(errs.TableGeneration, component, "%s table contains non-finite value %g", name, v)
		}
	}
	return nil
}

// NionConditionalTable is the bounds-checked (delta, log10 Mturn) ->
// Nion_ConditionalM lookup table built once per snapshot/shell/R and used
// read-only thereafter.
type NionConditionalTable struct {
	acg *interpolate.Table2D
	mcg *interpolate.Table2D // nil unless minihalos are enabled
}

// BuildNionConditionalTable tabulates NionConditional (and, when
// useMinihalos is set, NionConditionalMini) over cfg's (delta, log10 Mturn)
// grid at the given growth factor and mass bounds. The ACG mass limits
// come from MassLimitStar/MassLimitEsc; astro.MLimStar/MLimEsc are not
// read.
func BuildNionConditionalTable(
	c cosmo.Params, astro params.AstroParams, cfg ConditionalTableConfig,
	growth, mMin, mMax float64, useMinihalos bool,
) (*NionConditionalTable, error) {
	sigmaMax := c.Sigma(mMax)
	mLimStar := MassLimitStar(astro.FStar10, astro.AlphaStar)
	mLimEsc := MassLimitEsc(astro.FEsc10, astro.AlphaEsc)

	ddelta := (cfg.DeltaMax - cfg.DeltaMin) / float64(cfg.NDelta-1)
	dmturn := (cfg.Log10MTurnMax - cfg.Log10MTurnMin) / float64(cfg.NMTurn-1)

	acgVals := make([]float64, cfg.NDelta*cfg.NMTurn)
	var mcgVals []float64
	if useMinihalos {
		mcgVals = make([]float64, cfg.NDelta*cfg.NMTurn)
	}

	for iy := 0; iy < cfg.NMTurn; iy++ {
		log10MTurn := cfg.Log10MTurnMin + float64(iy)*dmturn
		for ix := 0; ix < cfg.NDelta; ix++ {
			delta := cfg.DeltaMin + float64(ix)*ddelta
			idx := ix + cfg.NDelta*iy
			acgVals[idx] = NionConditional(c, delta, log10MTurn, growth, mMin, mMax, sigmaMax,
				astro.FStar10, astro.AlphaStar, astro.FEsc10, astro.AlphaEsc, mLimStar, mLimEsc)
			if useMinihalos {
				mcgVals[idx] = NionConditionalMini(c, delta, log10MTurn, growth, mMin, mMax, sigmaMax,
					astro.FStar7, astro.AlphaStarMini, astro.FEsc7, astro.AlphaEscMini)
			}
		}
	}
	if err := validateFinite("hmf", "Nion_ConditionalM", acgVals); err != nil {
		return nil, err
	}
	t := &NionConditionalTable{
		acg: interpolate.NewTable2D(cfg.DeltaMin, ddelta, cfg.NDelta, cfg.Log10MTurnMin, dmturn, cfg.NMTurn, acgVals),
	}
	if useMinihalos {
		if err := validateFinite("hmf", "Nion_ConditionalM_MINI", mcgVals); err != nil {
			return nil, err
		}
		t.mcg = interpolate.NewTable2D(cfg.DeltaMin, ddelta, cfg.NDelta, cfg.Log10MTurnMin, dmturn, cfg.NMTurn, mcgVals)
	}
	return t, nil
}

// EvalACG looks up the ACG channel at (delta, log10 Mturn).
func (t *NionConditionalTable) EvalACG(delta, log10MTurn float64) (float64, error) {
	return t.acg.Eval(delta, log10MTurn)
}

// EvalMCG looks up the MCG/minihalo channel. Returns 0, nil if the table
// was built without minihalos enabled.
func (t *NionConditionalTable) EvalMCG(delta, log10MTurn float64) (float64, error) {
	if t.mcg == nil {
		return 0, nil
	}
	return t.mcg.Eval(delta, log10MTurn)
}

// SFRDConditionalTable is the (delta, log10 Mturn) -> SFRDConditional
// lookup table.
type SFRDConditionalTable struct {
	tbl *interpolate.Table2D
}

// BuildSFRDConditionalTable tabulates SFRDConditional over cfg's grid.
func BuildSFRDConditionalTable(
	c cosmo.Params, astro params.AstroParams, cfg ConditionalTableConfig,
	growth, mMin, mMax, tHubbleSeconds float64,
) (*SFRDConditionalTable, error) {
	sigmaMax := c.Sigma(mMax)
	ddelta := (cfg.DeltaMax - cfg.DeltaMin) / float64(cfg.NDelta-1)
	dmturn := (cfg.Log10MTurnMax - cfg.Log10MTurnMin) / float64(cfg.NMTurn-1)
	vals := make([]float64, cfg.NDelta*cfg.NMTurn)
	for iy := 0; iy < cfg.NMTurn; iy++ {
		log10MTurn := cfg.Log10MTurnMin + float64(iy)*dmturn
		for ix := 0; ix < cfg.NDelta; ix++ {
			delta := cfg.DeltaMin + float64(ix)*ddelta
			vals[ix+cfg.NDelta*iy] = SFRDConditional(c, delta, log10MTurn, growth, mMin, mMax, sigmaMax,
				astro.TStar, tHubbleSeconds, astro.FStar10, astro.AlphaStar)
		}
	}
	if err := validateFinite("hmf", "SFRD_Conditional", vals); err != nil {
		return nil, err
	}
	return &SFRDConditionalTable{
		tbl: interpolate.NewTable2D(cfg.DeltaMin, ddelta, cfg.NDelta, cfg.Log10MTurnMin, dmturn, cfg.NMTurn, vals),
	}, nil
}

// Eval looks up the table at (delta, log10 Mturn).
func (t *SFRDConditionalTable) Eval(delta, log10MTurn float64) (float64, error) {
	return t.tbl.Eval(delta, log10MTurn)
}

// FcollDeltaTable is the 1D delta -> Fcoll_delta lookup table used by the
// non-mass-dependent-zeta path, along with its z-derivative sibling.
type FcollDeltaTable struct {
	fcoll *interpolate.Table1D
	dfdz  *interpolate.Table1D
}

// BuildFcollDeltaTable tabulates FcollDelta and DFcollDzDelta over
// [deltaMin, deltaMax] at redshift z.
func BuildFcollDeltaTable(c cosmo.Params, z, mMin, deltaMin, deltaMax float64, n int) (*FcollDeltaTable, error) {
	growth := c.Growth(z)
	dd := (deltaMax - deltaMin) / float64(n-1)
	fvals := make([]float64, n)
	dvals := make([]float64, n)
	for i := 0; i < n; i++ {
		delta := deltaMin + float64(i)*dd
		fvals[i] = FcollDelta(c, delta, growth, mMin)
		dvals[i] = DFcollDzDelta(c, delta, z, mMin)
	}
	if err := validateFinite("hmf", "Fcoll_delta", fvals); err != nil {
		return nil, err
	}
	if err := validateFinite("hmf", "dFcoll_dz_delta", dvals); err != nil {
		return nil, err
	}
	return &FcollDeltaTable{
		fcoll: interpolate.NewTable1D(deltaMin, dd, fvals),
		dfdz:  interpolate.NewTable1D(deltaMin, dd, dvals),
	}, nil
}

// Eval returns (Fcoll_delta, dFcoll_dz_delta) at delta.
func (t *FcollDeltaTable) Eval(delta float64) (fcoll, dfdz float64, err error) {
	fcoll, err = t.fcoll.Eval(delta)
	if err != nil {
		return 0, 0, err
	}
	dfdz, err = t.dfdz.Eval(delta)
	if err != nil {
		return 0, 0, err
	}
	return fcoll, dfdz, nil
}
