package spintemp

import (
	"testing"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/grid"
	"github.com/cosmicgrid/reionheat/params"
	"github.com/cosmicgrid/reionheat/shell"
	"github.com/stretchr/testify/require"
)

func TestComputeSpinTemperatureClosedFormAboveZHeatMax(t *testing.T) {
	snap := params.Snapshot{
		Z: 40.0, ZPrev: 45.0, N: 8, NonCubicFactor: 1,
		Cosmo: cosmo.Default(), Astro: params.DefaultAstroParams(),
	}
	planner, err := grid.NewPlanner(grid.NewShape(8, 1))
	require.NoError(t, err)

	box, err := ComputeSpinTemperature(snap, planner, SourceInputs{})
	require.NoError(t, err)

	wantTk := cosmo.TRecfast(40.0)
	wantXe := cosmo.XionRecfast(40.0)
	for i := range box.Tk.Data {
		require.InDelta(t, wantTk, box.Tk.Data[i], 1e-9)
		require.InDelta(t, wantXe, box.Xe.Data[i], 1e-9)
		require.Greater(t, box.Ts.Data[i], 0.0)
	}
}

func TestComputeSpinTemperatureSeedsFromPreviousBox(t *testing.T) {
	shape := grid.NewShape(8, 1)
	prev := newBox(shape)
	for i := range prev.Tk.Data {
		prev.Tk.Data[i] = 500.0
		prev.Xe.Data[i] = 0.8
	}

	snap := params.Snapshot{
		Z: 15.0, ZPrev: 16.0, N: 8, NonCubicFactor: 1,
		Cosmo: cosmo.Default(), Astro: params.DefaultAstroParams(),
	}
	snap.Cosmo.BoxSize = 50
	planner, err := grid.NewPlanner(shape)
	require.NoError(t, err)

	schedule, err := shell.BuildSchedule(snap.Cosmo, snap.Z, snap.Cosmo.BoxSize, snap.N, 4, 20)
	require.NoError(t, err)
	spectral := shell.BuildSpectralFactors(schedule, false)

	box, err := ComputeSpinTemperature(snap, planner, SourceInputs{
		Schedule: schedule, Spectral: spectral, PrevTs: prev,
		Delta: grid.NewRealGrid(shape),
	})
	require.NoError(t, err)

	recfastTk := cosmo.TRecfast(snap.ZPrev)
	for _, tk := range box.Tk.Data {
		require.NotEqual(t, recfastTk, tk)
	}
}

func TestCollisionalCouplingPositive(t *testing.T) {
	x := collisionalCoupling(100, 1e-3, 1e-4)
	require.Greater(t, x, 0.0)
}

func TestSpinTemperatureNeverNegative(t *testing.T) {
	ts := SpinTemperature(20, 50, 0.5, 1e-4, 10)
	require.Greater(t, ts, 0.0)
}
