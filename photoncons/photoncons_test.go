package photoncons

import (
	"testing"

	"github.com/cosmicgrid/reionheat/params"
	"github.com/stretchr/testify/require"
)

func TestAdjustIdentityForNone(t *testing.T) {
	r, err := Adjust(params.PhotonConsNone, 8.5)
	require.NoError(t, err)
	require.Equal(t, 8.5, r.ZUsed)
	require.Equal(t, 8.5, r.ZStored)
	require.Zero(t, r.Delta)
}

func TestAdjustRejectsUnknownType(t *testing.T) {
	_, err := Adjust(params.PhotonConsType(99), 8.5)
	require.Error(t, err)
}

func TestAdjustZShiftIsFinite(t *testing.T) {
	r, err := Adjust(params.PhotonConsZShift, 12.0)
	require.NoError(t, err)
	require.Less(t, r.ZUsed, 12.0)
}
