package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/koopid/internal/dynamo"
	"github.com/san-kum/koopid/internal/plant"
)

func TestSpectrumDiagonal(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{0.5, 0, 0, -0.9})
	spec, err := Spectrum(A, 0.1)
	require.NoError(t, err)

	require.Len(t, spec.Modes, 2)
	assert.InDelta(t, 0.9, spec.Modes[0].Magnitude, 1e-12)
	assert.InDelta(t, 0.5, spec.Modes[1].Magnitude, 1e-12)
	assert.InDelta(t, 0.9, spec.Radius, 1e-12)
	assert.True(t, spec.Stable())

	assert.InDelta(t, math.Log(0.5)/0.1, spec.Modes[1].Growth, 1e-9)
	assert.InDelta(t, math.Pi/0.1, spec.Modes[0].Frequency, 1e-9)
}

func TestSpectrumRotation(t *testing.T) {
	theta, r, dt := 0.3, 0.95, 0.05
	A := mat.NewDense(2, 2, []float64{
		r * math.Cos(theta), -r * math.Sin(theta),
		r * math.Sin(theta), r * math.Cos(theta),
	})
	spec, err := Spectrum(A, dt)
	require.NoError(t, err)

	for _, m := range spec.Modes {
		assert.InDelta(t, r, m.Magnitude, 1e-12)
		assert.InDelta(t, theta/dt, m.Frequency, 1e-9)
		assert.InDelta(t, math.Log(r)/dt, m.Growth, 1e-9)
	}
}

func TestSpectrumErrors(t *testing.T) {
	_, err := Spectrum(mat.NewDense(2, 3, nil), 1)
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)

	_, err = Spectrum(mat.NewDense(2, 2, nil), 0)
	assert.Error(t, err)
}

func TestSpectralRadiusMarginal(t *testing.T) {
	A, _ := plant.NewLinear().Matrices()
	rho, err := SpectralRadius(A)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rho, 1e-9)
}

type scaling struct{ k float64 }

func (s scaling) Next(x dynamo.State, u dynamo.Control) dynamo.State {
	return x.Scale(s.k)
}
func (scaling) StateDim() int   { return 1 }
func (scaling) ControlDim() int { return 0 }

func TestLyapunovExponentScaling(t *testing.T) {
	for _, k := range []float64{2, 0.5} {
		got := LyapunovExponent(scaling{k}, dynamo.State{0}, 50, 0.1, 1e-6)
		assert.InDelta(t, math.Log(k)/0.1, got, 1e-6, "k=%g", k)
	}
}

func TestLyapunovExponentDegenerate(t *testing.T) {
	assert.Zero(t, LyapunovExponent(scaling{2}, nil, 10, 0.1, 1e-6))
	assert.Zero(t, LyapunovExponent(scaling{2}, dynamo.State{1}, 0, 0.1, 1e-6))
	assert.Zero(t, LyapunovExponent(scaling{0}, dynamo.State{1}, 10, 0.1, 1e-6))
}
