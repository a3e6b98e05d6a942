// Package halobox implements the Halo-Box Gridder: it maps a halo
// catalogue (or, absent one, a CMF-integrated mean field) into per-cell
// emissivity grids, applying the stochastic halo-property model,
// reionization/Lyman-Werner feedback on turnover masses, and optional
// mean-fixing against the global unconditional mass function.
package halobox

import (
	"math"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/errs"
	"github.com/cosmicgrid/reionheat/grid"
	"github.com/cosmicgrid/reionheat/hmf"
	"github.com/cosmicgrid/reionheat/math/rand"
	"github.com/cosmicgrid/reionheat/params"
	"github.com/cosmicgrid/reionheat/parallel"
	"github.com/cosmicgrid/reionheat/physics"
)

// Halo is one catalogue record: position in cell units, mass in Msun/h,
// and the correlated rng triple drawn for its stochastic properties.
// A zero Mass excludes the halo from gridding.
type Halo struct {
	X, Y, Z float64
	Mass    float64
	Triple  rand.HaloTriple
}

// PreviousState bundles the per-cell feedback inputs the gridder reads
// from the prior snapshot: ionization redshift, photo-ionization rate,
// Lyman-Werner intensity, and the baryon-dark-matter streaming velocity.
type PreviousState struct {
	ZRe, Gamma12, JLW, Vcb *grid.RealGrid
}

// Box is the gridder's output: per-cell emissivity fields plus the
// diagnostic average turnover masses across all gridded halos.
type Box struct {
	Mass, Stars, StarsMini       *grid.RealGrid
	SFR, SFRMini, WeightedSFR    *grid.RealGrid
	NIon, LX                     *grid.RealGrid
	Count                        *grid.RealGrid

	// AvgTurnoverACG, AvgTurnoverMCG, and AvgTurnoverReion are the mean
	// log10 turnover masses across all gridded halos, a per-snapshot
	// diagnostic carried alongside the emissivity fields themselves.
	AvgTurnoverACG, AvgTurnoverMCG, AvgTurnoverReion float64
}

func newBox(s grid.Shape) *Box {
	return &Box{
		Mass: grid.NewRealGrid(s), Stars: grid.NewRealGrid(s), StarsMini: grid.NewRealGrid(s),
		SFR: grid.NewRealGrid(s), SFRMini: grid.NewRealGrid(s), WeightedSFR: grid.NewRealGrid(s),
		NIon: grid.NewRealGrid(s), LX: grid.NewRealGrid(s), Count: grid.NewRealGrid(s),
	}
}

// Turnovers are the four per-cell turnover masses: the reionization and
// Lyman-Werner feedback thresholds, and the atomic/molecular-cooling
// turnover masses they feed into.
type Turnovers struct {
	Reion, LW, ACG, MCG float64
}

// ComputeTurnovers returns the per-cell turnover masses given the
// previous snapshot's z_re/Gamma12/J_LW/v_cb at this cell and the current
// redshift z.
func ComputeTurnovers(z, gamma12, zRe, jLW, vcb float64, astro params.AstroParams) Turnovers {
	reion := physics.ReionizationFeedback(z, gamma12, zRe)
	lw := physics.LymanWernerThreshold(z, jLW, vcb)
	acg := math.Max(reion, math.Max(physics.AtomicCoolingThreshold(z), astro.MTurnFloorACG))
	mcg := math.Max(reion, math.Max(lw, math.Max(physics.MolecularCoolingThreshold(z), astro.MTurnFloorMCG)))
	return Turnovers{Reion: reion, LW: lw, ACG: acg, MCG: mcg}
}

// HaloProperties are the stochastic per-halo outputs of §4.4's property
// model, evaluated at a fixed correlated rng triple.
type HaloProperties struct {
	Stars, StarsMini, SFR, SFRMini, Metallicity, LX, NIon float64
}

// EvaluateHaloProperties runs the full stochastic halo-property model for
// one halo of mass M at redshift z, given its turnovers, its correlated
// rng triple, and the astrophysical parameters.
func EvaluateHaloProperties(c cosmo.Params, z, mass float64, t Turnovers, rng rand.HaloTriple, astro params.AstroParams, useMinihalos bool, tHubbleSeconds float64) HaloProperties {
	fStarACG := stellarFractionACG(mass, t.ACG, rng.Star, astro)
	starsACG := fStarACG * mass * astro.BaryonFraction

	var starsMCG float64
	if useMinihalos {
		fStarMCG := stellarFractionMCG(mass, t.MCG, t.ACG, rng.Star, astro)
		starsMCG = fStarMCG * mass * astro.BaryonFraction
	}

	totalStars := starsACG + starsMCG
	sfr := starFormationRate(totalStars, rng.SFR, astro, tHubbleSeconds)
	sfrMini := 0.0
	if useMinihalos && totalStars > 0 {
		sfrMini = sfr * starsMCG / totalStars
	}

	metallicity := gasMetallicity(totalStars, sfr, z)
	lx := xrayLuminosity(metallicity, sfr, rng.XRay, astro)
	nIon := ionizingOutput(starsACG, starsMCG, astro)

	return HaloProperties{
		Stars: starsACG, StarsMini: starsMCG, SFR: sfr, SFRMini: sfrMini,
		Metallicity: metallicity, LX: lx, NIon: nIon,
	}
}

func stellarFractionACG(mass, mTurnACG, rStar float64, astro params.AstroParams) float64 {
	fStar := astro.FStar10 * math.Pow(mass/1e10, astro.AlphaStar)
	if astro.MStarUpperScale > 0 {
		lower := math.Pow(mass/astro.MStarUpperScale, -astro.AlphaStar)
		upper := math.Pow(mass/astro.MStarUpperScale, -astro.AlphaStarUpper)
		fStar = 1.0 / (lower + upper) * astro.FStar10 * math.Pow(1e10/astro.MStarUpperScale, -astro.AlphaStar)
	}
	scatter := math.Exp(rStar*astro.SigmaStar - 0.5*astro.SigmaStar*astro.SigmaStar)
	suppression := math.Exp(-mTurnACG / mass)
	return clampUnit(fStar * suppression * scatter)
}

func stellarFractionMCG(mass, mTurnMCG, mTurnACG, rStar float64, astro params.AstroParams) float64 {
	fStar := astro.FStar7 * math.Pow(mass/1e7, astro.AlphaStarMini)
	scatter := math.Exp(rStar*astro.SigmaStar - 0.5*astro.SigmaStar*astro.SigmaStar)
	suppression := math.Exp(-mTurnMCG/mass - mass/mTurnACG)
	return clampUnit(fStar * suppression * scatter)
}

const yearSeconds = 3.15576e7

func starFormationRate(stellarMass, rSFR float64, astro params.AstroParams, tHubbleSeconds float64) float64 {
	if stellarMass <= 0 {
		return 0
	}
	tHubbleYears := tHubbleSeconds / yearSeconds
	mean := stellarMass / (astro.TStar * tHubbleYears)
	log10MStar10 := math.Log10(stellarMass / 1e10)
	sigmaSFR := astro.SigmaSFRLim
	if v := astro.SigmaSFRIdx*log10MStar10 + astro.SigmaSFRLim; v > sigmaSFR {
		sigmaSFR = v
	}
	scatter := math.Exp(rSFR*sigmaSFR - 0.5*sigmaSFR*sigmaSFR)
	return mean * scatter
}

func gasMetallicity(stellarMass, sfr, z float64) float64 {
	if stellarMass <= 0 || sfr <= 0 {
		return 0
	}
	sfrPerYear := sfr // already in Msun/yr
	base := 1 + math.Pow(stellarMass/(1.28e10*math.Pow(sfrPerYear, 0.56)), -2.1)
	return 0.296 * math.Pow(base, -0.148) * math.Pow(10, -0.056*z+0.064)
}

func xrayLuminosity(metallicity, sfr, rX float64, astro params.AstroParams) float64 {
	if sfr <= 0 {
		return 0
	}
	lxOverSFR := math.Pow(10, astro.LXSFRNorm)
	scatter := math.Exp(rX*astro.SigmaXRay - 0.5*astro.SigmaXRay*astro.SigmaXRay)
	return lxOverSFR * sfr * scatter
}

func ionizingOutput(starsACG, starsMCG float64, astro params.AstroParams) float64 {
	fEscACG := clampUnit(astro.FEsc10)
	fEscMCG := clampUnit(astro.FEsc7)
	return starsACG*astro.Pop2Ion*fEscACG + starsMCG*astro.Pop3Ion*fEscMCG
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

// ComputeTurnoverGrids evaluates ComputeTurnovers at every cell of shape
// s from the previous snapshot's feedback fields, independent of which
// gridding mode is in use (the turnover masses depend only on the cell's
// own redshift/feedback history, never on a halo's mass). The ionisation
// solver uses these directly as the per-cell log10 M_turn axis of its
// conditional-Nion lookup.
func ComputeTurnoverGrids(z float64, s grid.Shape, prev PreviousState, astro params.AstroParams) (acg, mcg, reion *grid.RealGrid) {
	acg, mcg, reion = grid.NewRealGrid(s), grid.NewRealGrid(s), grid.NewRealGrid(s)
	for idx := range acg.Data {
		zRe, gamma12, jLW, vcb := -1.0, 0.0, 0.0, 0.0
		if prev.ZRe != nil {
			zRe = prev.ZRe.Data[idx]
		}
		if prev.Gamma12 != nil {
			gamma12 = prev.Gamma12.Data[idx]
		}
		if prev.JLW != nil {
			jLW = prev.JLW.Data[idx]
		}
		if prev.Vcb != nil {
			vcb = prev.Vcb.Data[idx]
		}
		t := ComputeTurnovers(z, gamma12, zRe, jLW, vcb, astro)
		acg.Data[idx] = math.Log10(t.ACG)
		mcg.Data[idx] = math.Log10(t.MCG)
		reion.Data[idx] = t.Reion
	}
	return acg, mcg, reion
}

// GridHalos implements halo-mode gridding: the halo catalogue is sharded
// across workers the same way parallel.SumReduce shards a reduction, each
// worker accumulates its shard of halos into a private per-cell buffer (so
// no two goroutines ever touch the same cell), and the per-worker buffers
// are summed cell by cell once every shard has finished. Every emissivity
// field is then converted to a density by dividing by cell volume; Count
// keeps the raw number of halos per cell. Turnover averages are
// accumulated over gridded halos only.
func GridHalos(
	c cosmo.Params, shape grid.Shape, z, boxSize, tHubbleSeconds float64,
	halos []Halo, prev PreviousState, astro params.AstroParams, useMinihalos bool,
) (*Box, error) {
	box := newBox(shape)
	cellVolume := math.Pow(boxSize/float64(shape.N), 3)
	nCells := shape.Cells()

	type cellAccum struct {
		mass, stars, starsMini, sfr, sfrMini, wsfr, nIon, lx, count float64
	}
	type shardResult struct {
		accum                       []cellAccum
		turnACG, turnMCG, turnReion float64
		gridded                     int
	}

	gridOne := func(h Halo) (int, cellAccum, Turnovers, bool) {
		if h.Mass <= 0 {
			return 0, cellAccum{}, Turnovers{}, false
		}
		ix, iy, iz := int(h.X), int(h.Y), int(h.Z)
		if ix < 0 || ix >= shape.N || iy < 0 || iy >= shape.N || iz < 0 || iz >= shape.Nz {
			return 0, cellAccum{}, Turnovers{}, false
		}
		idx := ix + iy*shape.N + iz*shape.N*shape.N

		zRe, gamma12, jLW, vcb := -1.0, 0.0, 0.0, 0.0
		if prev.ZRe != nil {
			zRe = prev.ZRe.Data[idx]
		}
		if prev.Gamma12 != nil {
			gamma12 = prev.Gamma12.Data[idx]
		}
		if prev.JLW != nil {
			jLW = prev.JLW.Data[idx]
		}
		if prev.Vcb != nil {
			vcb = prev.Vcb.Data[idx]
		}
		turn := ComputeTurnovers(z, gamma12, zRe, jLW, vcb, astro)
		props := EvaluateHaloProperties(c, z, h.Mass, turn, h.Triple, astro, useMinihalos, tHubbleSeconds)

		return idx, cellAccum{
			mass: h.Mass, stars: props.Stars, starsMini: props.StarsMini,
			sfr: props.SFR, sfrMini: props.SFRMini, wsfr: props.SFR * props.SFR,
			nIon: props.NIon, lx: props.LX, count: 1,
		}, turn, true
	}

	workers := parallel.Workers
	if workers > len(halos) {
		workers = len(halos)
	}
	if workers <= 0 {
		workers = 1
	}
	chunk := (len(halos) + workers - 1) / workers
	results := make([]shardResult, workers)

	err := parallel.For(workers, func(lo, hi int) error {
		for w := lo; w < hi; w++ {
			start := w * chunk
			end := start + chunk
			if end > len(halos) {
				end = len(halos)
			}
			if start >= end {
				continue
			}
			res := shardResult{accum: make([]cellAccum, nCells)}
			for _, h := range halos[start:end] {
				idx, a, turn, ok := gridOne(h)
				if !ok {
					continue
				}
				cell := &res.accum[idx]
				cell.mass += a.mass
				cell.stars += a.stars
				cell.starsMini += a.starsMini
				cell.sfr += a.sfr
				cell.sfrMini += a.sfrMini
				cell.wsfr += a.wsfr
				cell.nIon += a.nIon
				cell.lx += a.lx
				cell.count += a.count
				res.turnACG += math.Log10(turn.ACG)
				res.turnMCG += math.Log10(turn.MCG)
				res.turnReion += turn.Reion
				res.gridded++
			}
			results[w] = res
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	accum := make([]cellAccum, nCells)
	var sumTurnACG, sumTurnMCG, sumTurnReion float64
	var nGridded int
	for _, res := range results {
		if res.accum == nil {
			continue
		}
		for idx, a := range res.accum {
			accum[idx].mass += a.mass
			accum[idx].stars += a.stars
			accum[idx].starsMini += a.starsMini
			accum[idx].sfr += a.sfr
			accum[idx].sfrMini += a.sfrMini
			accum[idx].wsfr += a.wsfr
			accum[idx].nIon += a.nIon
			accum[idx].lx += a.lx
			accum[idx].count += a.count
		}
		sumTurnACG += res.turnACG
		sumTurnMCG += res.turnMCG
		sumTurnReion += res.turnReion
		nGridded += res.gridded
	}

	for idx, a := range accum {
		box.Mass.Data[idx] = a.mass / cellVolume
		box.Stars.Data[idx] = a.stars / cellVolume
		box.StarsMini.Data[idx] = a.starsMini / cellVolume
		box.SFR.Data[idx] = a.sfr / cellVolume
		box.SFRMini.Data[idx] = a.sfrMini / cellVolume
		box.WeightedSFR.Data[idx] = a.wsfr / cellVolume
		box.NIon.Data[idx] = a.nIon / cellVolume
		box.LX.Data[idx] = a.lx / cellVolume
		box.Count.Data[idx] = a.count
	}

	if nGridded > 0 {
		box.AvgTurnoverACG = sumTurnACG / float64(nGridded)
		box.AvgTurnoverMCG = sumTurnMCG / float64(nGridded)
		box.AvgTurnoverReion = sumTurnReion / float64(nGridded)
	}

	if err := checkFinite(box); err != nil {
		return nil, err
	}
	return box, nil
}

// GridFixed implements fixed-grid mode: for each cell of the Eulerian
// density lattice, evaluate the CMF integrals with that cell's turnovers
// at mass bounds [mMin, mMax] and multiply by (1 + delta); this fills
// NIon, SFR and, with minihalos, SFRMini. When fixMean is set, the NIon
// and SFR grids are then rescaled by the ratio of the expected
// unconditional mean to the realized box mean; the other grids are not
// mean-fixed.
func GridFixed(
	c cosmo.Params, shape grid.Shape, z, boxSize, tHubbleSeconds float64,
	delta *grid.RealGrid, prev PreviousState, astro params.AstroParams,
	useMinihalos, fixMean bool, mMin, mMax float64,
) (*Box, error) {
	box := newBox(shape)
	growth := c.Growth(z)
	sigmaMax := c.Sigma(mMax)
	n := shape.Cells()

	mLimStar := hmf.MassLimitStar(astro.FStar10, astro.AlphaStar)
	mLimEsc := hmf.MassLimitEsc(astro.FEsc10, astro.AlphaEsc)

	var sumTurnACG, sumTurnMCG, sumTurnReion float64
	err := parallel.ForEach(n, func(idx int) error {
		d := 0.0
		if delta != nil {
			d = delta.Data[idx]
		}
		zRe, gamma12, jLW, vcb := -1.0, 0.0, 0.0, 0.0
		if prev.ZRe != nil {
			zRe = prev.ZRe.Data[idx]
		}
		if prev.Gamma12 != nil {
			gamma12 = prev.Gamma12.Data[idx]
		}
		if prev.JLW != nil {
			jLW = prev.JLW.Data[idx]
		}
		if prev.Vcb != nil {
			vcb = prev.Vcb.Data[idx]
		}
		turn := ComputeTurnovers(z, gamma12, zRe, jLW, vcb, astro)

		nIonACG := hmf.NionConditional(c, d, math.Log10(turn.ACG), growth, mMin, mMax, sigmaMax,
			astro.FStar10, astro.AlphaStar, astro.FEsc10, astro.AlphaEsc, mLimStar, mLimEsc)
		sfrd := hmf.SFRDConditional(c, d, math.Log10(turn.ACG), growth, mMin, mMax, sigmaMax,
			astro.TStar, tHubbleSeconds, astro.FStar10, astro.AlphaStar)

		onePlusDelta := 1 + d
		box.NIon.Data[idx] = nIonACG * onePlusDelta
		box.SFR.Data[idx] = sfrd * onePlusDelta

		if useMinihalos {
			nIonMCG := hmf.NionConditionalMini(c, d, math.Log10(turn.MCG), growth, mMin, mMax, sigmaMax,
				astro.FStar7, astro.AlphaStarMini, astro.FEsc7, astro.AlphaEscMini)
			box.SFRMini.Data[idx] = nIonMCG * onePlusDelta
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for idx := 0; idx < n; idx++ {
		zRe, gamma12, jLW, vcb := -1.0, 0.0, 0.0, 0.0
		if prev.ZRe != nil {
			zRe = prev.ZRe.Data[idx]
		}
		if prev.Gamma12 != nil {
			gamma12 = prev.Gamma12.Data[idx]
		}
		if prev.JLW != nil {
			jLW = prev.JLW.Data[idx]
		}
		if prev.Vcb != nil {
			vcb = prev.Vcb.Data[idx]
		}
		turn := ComputeTurnovers(z, gamma12, zRe, jLW, vcb, astro)
		sumTurnACG += math.Log10(turn.ACG)
		sumTurnMCG += math.Log10(turn.MCG)
		sumTurnReion += turn.Reion
	}
	if n > 0 {
		box.AvgTurnoverACG = sumTurnACG / float64(n)
		box.AvgTurnoverMCG = sumTurnMCG / float64(n)
		box.AvgTurnoverReion = sumTurnReion / float64(n)
	}

	if fixMean {
		mTurnACGGlobal := math.Pow(10, box.AvgTurnoverACG)
		expectedNion := hmf.NionGeneral(c, z, mMin, astro.FStar10, astro.AlphaStar, astro.FEsc10, astro.AlphaEsc)
		_ = mTurnACGGlobal
		meanFixGrid(box.NIon, expectedNion)
		expectedSFRD := hmf.SFRDGeneral(c, z, mMin, astro.TStar, tHubbleSeconds, astro.FStar10, astro.AlphaStar)
		meanFixGrid(box.SFR, expectedSFRD)
	}

	if err := checkFinite(box); err != nil {
		return nil, err
	}
	return box, nil
}

func meanFixGrid(g *grid.RealGrid, expectedMean float64) {
	if expectedMean <= 0 || len(g.Data) == 0 {
		return
	}
	sum := parallel.SumReduce(len(g.Data), func(i int) float64 { return g.Data[i] })
	boxMean := sum / float64(len(g.Data))
	if boxMean <= 0 {
		return
	}
	ratio := expectedMean / boxMean
	for i := range g.Data {
		g.Data[i] *= ratio
	}
}

// GridAvgBelowSampler implements the AVG_BELOW_SAMPLER mode: fixed-grid
// mode is run over [mMin, mSampler], then the halo catalogue is gridded
// for masses >= mSampler and the two sets of fields are summed cell by
// cell.
func GridAvgBelowSampler(
	c cosmo.Params, shape grid.Shape, z, boxSize, tHubbleSeconds float64,
	delta *grid.RealGrid, halos []Halo, prev PreviousState, astro params.AstroParams,
	useMinihalos, fixMean bool, mMin, mSampler, mMax float64,
) (*Box, error) {
	below, err := GridFixed(c, shape, z, boxSize, tHubbleSeconds, delta, prev, astro, useMinihalos, fixMean, mMin, mSampler)
	if err != nil {
		return nil, err
	}
	var sampled []Halo
	for _, h := range halos {
		if h.Mass >= mSampler {
			sampled = append(sampled, h)
		}
	}
	above, err := GridHalos(c, shape, z, boxSize, tHubbleSeconds, sampled, prev, astro, useMinihalos)
	if err != nil {
		return nil, err
	}
	sumGrids(below.Mass, above.Mass)
	sumGrids(below.Stars, above.Stars)
	sumGrids(below.StarsMini, above.StarsMini)
	sumGrids(below.SFR, above.SFR)
	sumGrids(below.SFRMini, above.SFRMini)
	sumGrids(below.WeightedSFR, above.WeightedSFR)
	sumGrids(below.NIon, above.NIon)
	sumGrids(below.LX, above.LX)
	sumGrids(below.Count, above.Count)
	return below, nil
}

func sumGrids(dst, src *grid.RealGrid) {
	for i := range dst.Data {
		dst.Data[i] += src.Data[i]
	}
}

func checkFinite(b *Box) error {
	fields := map[string]*grid.RealGrid{
		"mass": b.Mass, "stars": b.Stars, "stars_mini": b.StarsMini,
		"sfr": b.SFR, "sfr_mini": b.SFRMini, "weighted_sfr": b.WeightedSFR,
		"nion": b.NIon, "lx": b.LX,
	}
	for name, g := range fields {
		for _, v := range g.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errs.New(errs.InfinityOrNaN, "halobox", "%s grid contains a non-finite value", name)
			}
		}
	}
	return nil
}
