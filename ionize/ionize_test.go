package ionize

import (
	"testing"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/grid"
	"github.com/cosmicgrid/reionheat/params"
	"github.com/stretchr/testify/require"
)

func TestBuildRadiusScheduleMonotonicAndBounded(t *testing.T) {
	c := cosmo.Default()
	c.BoxSize = 100
	sched := BuildRadiusSchedule(c, 100, 100.0/32)
	require.NotEmpty(t, sched.Radii)
	for i := 1; i < len(sched.Radii); i++ {
		require.Greater(t, sched.Radii[i].R, sched.Radii[i-1].R)
		require.Equal(t, i, sched.Radii[i].Index)
	}
	require.LessOrEqual(t, sched.Radii[len(sched.Radii)-1].R, 100.0)
}

func TestComputeIonisedBoxHighRedshiftStaysNeutral(t *testing.T) {
	c := cosmo.Default()
	c.BoxSize = 50
	snap := params.Snapshot{
		Z: 30, ZPrev: 31, N: 8, NonCubicFactor: 1,
		Cosmo: c, Astro: params.DefaultAstroParams(),
		Flags: params.Flags{BubbleAlgorithm: params.Sphere, Filter: params.TophatReal},
	}
	planner, err := grid.NewPlanner(grid.NewShape(8, 1))
	require.NoError(t, err)

	box, err := ComputeIonisedBox(snap, planner, Inputs{})
	require.NoError(t, err)
	for _, v := range box.XH.Data {
		require.Equal(t, 1.0, v)
	}
	for _, v := range box.ZRe.Data {
		require.Equal(t, -1.0, v)
	}
}

func TestComputeIonisedBoxCarriesForwardPreviousZRe(t *testing.T) {
	shape := grid.NewShape(4, 1)
	prev := newBox(shape)
	for i := range prev.ZRe.Data {
		prev.ZRe.Data[i] = 12.0
		prev.Gamma12.Data[i] = 0.5
		prev.XH.Data[i] = 0
	}

	c := cosmo.Default()
	c.BoxSize = 20
	snap := params.Snapshot{
		Z: 30, ZPrev: 31, N: 4, NonCubicFactor: 1,
		Cosmo: c, Astro: params.DefaultAstroParams(),
		Flags: params.Flags{BubbleAlgorithm: params.Sphere, Filter: params.TophatReal},
	}
	planner, err := grid.NewPlanner(shape)
	require.NoError(t, err)

	box, err := ComputeIonisedBox(snap, planner, Inputs{Prev: prev})
	require.NoError(t, err)
	for _, v := range box.ZRe.Data {
		require.Equal(t, 12.0, v)
	}
}

func TestToGridFilterKindMapsExponential(t *testing.T) {
	require.Equal(t, grid.Exponential, toGridFilterKind(params.ExponentialFilter))
	require.Equal(t, grid.Gaussian, toGridFilterKind(params.GaussianFilter))
}
