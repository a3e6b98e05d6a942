package hmf

import (
	"testing"

	"github.com/cosmicgrid/reionheat/cosmo"
	"github.com/stretchr/testify/require"
)

func TestNionConditionalIncreasesWithMassWindow(t *testing.T) {
	c := cosmo.Default()
	growth := c.Growth(10.0)
	mMin := 1e8
	mLimStar := MassLimitStar(0.05, 0.5)
	mLimEsc := MassLimitEsc(0.1, -0.5)

	narrow := NionConditional(c, 0.0, 8.0, growth, mMin, 2*mMin, c.Sigma(2*mMin),
		0.05, 0.5, 0.1, -0.5, mLimStar, mLimEsc)
	wide := NionConditional(c, 0.0, 8.0, growth, mMin, 1e12, c.Sigma(1e12),
		0.05, 0.5, 0.1, -0.5, mLimStar, mLimEsc)

	require.GreaterOrEqual(t, narrow, 0.0)
	require.Greater(t, wide, narrow)
}

func TestNionConditionalZeroAboveCollapseThreshold(t *testing.T) {
	c := cosmo.Default()
	growth := c.Growth(6.0)
	mMin := 1e8
	mMax := 1e12
	mLimStar := MassLimitStar(0.05, 0.5)
	mLimEsc := MassLimitEsc(0.1, -0.5)

	// A delta already at (or above) deltaCrit/growth leaves nothing left
	// to collapse within the conditioning region: the integral is zero.
	v := NionConditional(c, deltaCrit/growth+0.1, 8.0, growth, mMin, mMax, c.Sigma(mMax),
		0.05, 0.5, 0.1, -0.5, mLimStar, mLimEsc)
	require.Equal(t, 0.0, v)
}

func TestSFRDConditionalNonNegative(t *testing.T) {
	c := cosmo.Default()
	growth := c.Growth(12.0)
	v := SFRDConditional(c, 0.3, 8.0, growth, 1e8, 1e12, c.Sigma(1e12), 0.5, 3.1557e16, 0.05, 0.5)
	require.GreaterOrEqual(t, v, 0.0)
}

func TestDutyCycleSuppressesLowMassHalos(t *testing.T) {
	require.Less(t, dutyCycle(1e9, 1e8), dutyCycle(1e9, 1e10))
	require.Equal(t, 1.0, dutyCycle(0, 1e8))
}
