package shell

import (
	"testing"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/stretchr/testify/require"
)

func TestBuildScheduleMonotonic(t *testing.T) {
	c := cosmo.Default()
	s, err := BuildSchedule(c, 10.0, 200.0, 64, 40, 50.0)
	require.NoError(t, err)
	require.Len(t, s.Shells, 40)
	for k := 1; k < len(s.Shells); k++ {
		require.Greater(t, s.Shells[k].R, s.Shells[k-1].R)
		require.Less(t, s.Shells[k].ZPP, s.Shells[k-1].ZPP)
	}
}

func TestBuildScheduleRejectsTinyLyMax(t *testing.T) {
	c := cosmo.Default()
	_, err := BuildSchedule(c, 10.0, 200.0, 64, 10, 1e-6)
	require.Error(t, err)
}

func TestBuildSpectralFactorsFinite(t *testing.T) {
	c := cosmo.Default()
	s, err := BuildSchedule(c, 15.0, 200.0, 32, 20, 50.0)
	require.NoError(t, err)
	factors := BuildSpectralFactors(s, true)
	require.Len(t, factors, 20)
	for _, f := range factors {
		require.GreaterOrEqual(t, f.Continuum, 0.0)
		require.GreaterOrEqual(t, f.Injected, 0.0)
	}
}
