package halobox

import (
	"testing"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/cosmicgrid/reionheat/grid"
	"github.com/cosmicgrid/reionheat/math/rand"
	"github.com/cosmicgrid/reionheat/params"
	"github.com/stretchr/testify/require"
)

func TestGridHalosZeroHalosIsAllZero(t *testing.T) {
	c := cosmo.Default()
	shape := grid.NewShape(8, 1)
	box, err := GridHalos(c, shape, 7.0, 100.0, c.THubble(7.0), nil, PreviousState{}, params.DefaultAstroParams(), false)
	require.NoError(t, err)
	for _, v := range box.Mass.Data {
		require.Zero(t, v)
	}
	require.Zero(t, box.AvgTurnoverACG)
}

func TestGridHalosSingleHaloDeterministic(t *testing.T) {
	c := cosmo.Default()
	shape := grid.NewShape(8, 1)
	halos := []Halo{{X: 0, Y: 0, Z: 0, Mass: 1e10, Triple: rand.HaloTriple{}}}
	astro := params.DefaultAstroParams()
	box, err := GridHalos(c, shape, 7.0, 100.0, c.THubble(7.0), halos, PreviousState{}, astro, false)
	require.NoError(t, err)
	idx := box.Mass.Idx(0, 0, 0)
	require.Greater(t, box.Mass.Data[idx], 0.0)
	for i, v := range box.Mass.Data {
		if i != idx {
			require.Zero(t, v)
		}
	}
}

func TestComputeTurnoversRespectsFloors(t *testing.T) {
	astro := params.DefaultAstroParams()
	turn := ComputeTurnovers(20.0, 0, -1, 0, 0, astro)
	require.GreaterOrEqual(t, turn.ACG, astro.MTurnFloorACG)
	require.GreaterOrEqual(t, turn.MCG, astro.MTurnFloorMCG)
	require.Zero(t, turn.Reion)
}
