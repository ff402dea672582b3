package basis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/koopid/internal/config"
	"github.com/san-kum/koopid/internal/fit"
)

func opts(poly, trig bool, degree, freq int, products bool) config.Options {
	return config.Options{
		Method:       fit.LeastSquares,
		PolyBasis:    poly,
		PolyDegree:   degree,
		TrigBasis:    trig,
		TrigFreq:     freq,
		ProductTerms: products,
	}
}

func TestIdentityOnly(t *testing.T) {
	s := NewSet(config.DefaultOptions())
	obs := []float64{1.5, -2, 0}

	require.Equal(t, 3, s.Dim(3))
	assert.Equal(t, obs, s.Expand(obs))
}

func TestDim(t *testing.T) {
	tests := []struct {
		name string
		o    config.Options
		nObs int
		want int
	}{
		{"identity", opts(false, false, 0, 0, false), 2, 2},
		{"poly2", opts(true, false, 2, 0, false), 2, 4},
		{"poly3", opts(true, false, 3, 0, false), 3, 9},
		{"trig1", opts(false, true, 0, 1, false), 2, 6},
		{"poly3 trig2", opts(true, true, 3, 2, false), 2, 2 * (1 + 2 + 4)},
		{"products", opts(true, false, 2, 0, true), 2, 4 + 6},
		{"ignored degree when poly off", opts(false, false, 8, 0, false), 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet(tt.o)
			assert.Equal(t, tt.want, s.Dim(tt.nObs))

			assert.Len(t, s.Expand(make([]float64, tt.nObs)), tt.want)
			obs := make([]float64, tt.nObs)
			for i := range obs {
				obs[i] = float64(i) * 1e6
			}
			assert.Len(t, s.Expand(obs), tt.want)
			assert.Len(t, s.Names(make([]string, tt.nObs)), tt.want)
		})
	}
}

func TestOrdering(t *testing.T) {
	s := NewSet(opts(true, true, 3, 2, false))
	x := []float64{0.3, -1.2}

	want := []float64{
		x[0], x[1],
		x[0] * x[0], x[1] * x[1],
		math.Pow(x[0], 3), math.Pow(x[1], 3),
		math.Sin(x[0]), math.Sin(x[1]),
		math.Cos(x[0]), math.Cos(x[1]),
		math.Sin(2 * x[0]), math.Sin(2 * x[1]),
		math.Cos(2 * x[0]), math.Cos(2 * x[1]),
	}
	got := s.Expand(x)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-15, "feature %d", i)
	}

	names := s.Names([]string{"a", "b"})
	assert.Equal(t, []string{
		"a", "b", "a^2", "b^2", "a^3", "b^3",
		"sin(a)", "sin(b)", "cos(a)", "cos(b)",
		"sin(2*a)", "sin(2*b)", "cos(2*a)", "cos(2*b)",
	}, names)
}

func TestProducts(t *testing.T) {
	s := NewSet(opts(true, false, 2, 0, true))
	x := []float64{2, 3}

	// base: [2, 3, 4, 9]
	want := []float64{2, 3, 4, 9, 2 * 3, 2 * 4, 2 * 9, 3 * 4, 3 * 9, 4 * 9}
	assert.Equal(t, want, s.Expand(x))

	names := s.Names([]string{"a", "b"})
	assert.Equal(t, "a*b", names[4])
	assert.Equal(t, "a^2*b^2", names[9])
}

func TestExpandDeterministic(t *testing.T) {
	s := NewSet(opts(true, true, 4, 3, true))
	x := []float64{0.1234567, -9.87654321, 3.3}

	a := s.Expand(x)
	b := s.Expand(x)
	require.Equal(t, len(a), len(b))
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Fatalf("feature %d differs between calls", i)
		}
	}

	dst := make([]float64, len(a))
	s.ExpandTo(dst, x)
	assert.Equal(t, a, dst)
}

func TestExpandPropagatesNaN(t *testing.T) {
	s := NewSet(opts(true, true, 2, 1, false))
	out := s.Expand([]float64{math.NaN()})
	for i, v := range out {
		assert.True(t, math.IsNaN(v), "feature %d should be NaN", i)
	}
}

func TestExpandToPanicsOnShortBuffer(t *testing.T) {
	s := NewSet(opts(true, false, 2, 0, false))
	assert.Panics(t, func() { s.ExpandTo(make([]float64, 1), []float64{1, 2}) })
}
