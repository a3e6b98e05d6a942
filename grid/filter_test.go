package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTophatRealAndTophatKDiffer(t *testing.T) {
	shape := NewShape(16, 1)
	boxSize := 16.0

	real := NewRealGrid(shape)
	real.Set(shape.N/2, shape.N/2, shape.N/2, 1.0)

	planner, err := NewPlanner(shape)
	require.NoError(t, err)

	kReal, err := planner.Forward(real)
	require.NoError(t, err)
	kK := kReal.Clone()

	R := 3.0
	Filter(kReal, boxSize, TophatReal, R, 0)
	Filter(kK, boxSize, TophatK, R, 0)

	outReal, err := planner.Inverse(kReal)
	require.NoError(t, err)
	outK, err := planner.Inverse(kK)
	require.NoError(t, err)

	var maxDiff float64
	for i := range outReal.Data {
		d := math.Abs(outReal.Data[i] - outK.Data[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	require.Greater(t, maxDiff, 1e-6, "TophatReal and TophatK must produce different filtered fields")
}

func TestTophatKernelsAgreeAtOrigin(t *testing.T) {
	require.InDelta(t, 1.0, tophatKernel(0), 1e-9)
	require.Equal(t, 1.0, tophatKSharpKernel(0))
}

func TestTophatKSharpKernelIsStepFunction(t *testing.T) {
	require.Equal(t, 1.0, tophatKSharpKernel(0.999))
	require.Equal(t, 0.0, tophatKSharpKernel(1.001))
}
