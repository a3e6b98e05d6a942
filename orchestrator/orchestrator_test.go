package orchestrator

import (
	"testing"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/grid"
	"github.com/cosmicgrid/reionheat/params"
	"github.com/cosmicgrid/reionheat/physics"
	"github.com/stretchr/testify/require"
)

func testSnapshot(z, zPrev float64, c cosmo.Params) params.Snapshot {
	return params.Snapshot{
		Z: z, ZPrev: zPrev, N: 8, NonCubicFactor: 1,
		Cosmo: c, Astro: params.DefaultAstroParams(),
		Flags: params.Flags{BubbleAlgorithm: params.Sphere, Filter: params.TophatReal},
	}
}

func TestRunSnapshotAccumulatesHistory(t *testing.T) {
	c := cosmo.Default()
	c.BoxSize = 50
	shape := grid.NewShape(8, 1)
	o, err := New(shape)
	require.NoError(t, err)

	bounds := MassBounds{MMin: physics.AtomicCoolingThreshold(35), MMax: 1e16}
	shellCfg := ShellConfig{NShell: 4, RXLyMax: 20}
	delta := grid.NewRealGrid(shape)

	snap1 := testSnapshot(40, 45, c)
	state1, err := o.RunSnapshot(snap1, nil, delta, nil, nil, 50, snap1.Cosmo.THubble(40), bounds, shellCfg)
	require.NoError(t, err)
	require.NotNil(t, state1.Ionized)
	require.Len(t, o.History.Z, 1)
	require.Len(t, o.History.MeanXHI, 1)

	snap2 := testSnapshot(35, 40, c)
	state2, err := o.RunSnapshot(snap2, nil, delta, delta, nil, 50, snap2.Cosmo.THubble(35), bounds, shellCfg)
	require.NoError(t, err)
	require.NotNil(t, state2.Ionized)
	require.Len(t, o.History.Z, 2)
	require.Same(t, state2, o.Previous())
}

func TestRunSnapshotRejectsInvalidSnapshot(t *testing.T) {
	c := cosmo.Default()
	shape := grid.NewShape(8, 1)
	o, err := New(shape)
	require.NoError(t, err)

	bad := testSnapshot(40, 45, c)
	bad.N = 0
	_, err = o.RunSnapshot(bad, nil, nil, nil, nil, 50, 1, MassBounds{}, ShellConfig{NShell: 4, RXLyMax: 20})
	require.Error(t, err)
}
