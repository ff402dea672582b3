package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/koopid/internal/dynamo"
)

// ErrNoConvergence is returned when the eigen-decomposition fails.
var ErrNoConvergence = errors.New("analysis: eigen-decomposition did not converge")

// Mode is one eigenvalue of a discrete-time transition matrix.
type Mode struct {
	Eigenvalue complex128
	Magnitude  float64
	// Growth is the continuous-time exponential rate, log|λ|/dt.
	Growth float64
	// Frequency is the continuous-time angular frequency, |arg λ|/dt.
	Frequency float64
}

type ModeSpectrum struct {
	Modes  []Mode
	Radius float64
}

// Stable reports whether every mode lies strictly inside the unit circle.
func (s *ModeSpectrum) Stable() bool { return s.Radius < 1 }

// Spectrum decomposes the square matrix A sampled every dt. Modes are
// sorted by decreasing magnitude, ties broken by frequency.
func Spectrum(A mat.Matrix, dt float64) (*ModeSpectrum, error) {
	r, c := A.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: A is %dx%d, want square", dynamo.ErrDimensionMismatch, r, c)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("analysis: dt must be positive, got %g", dt)
	}

	var eig mat.Eigen
	if !eig.Factorize(A, mat.EigenNone) {
		return nil, ErrNoConvergence
	}

	vals := eig.Values(nil)
	spec := &ModeSpectrum{Modes: make([]Mode, len(vals))}
	for i, v := range vals {
		mag := cmplx.Abs(v)
		spec.Modes[i] = Mode{
			Eigenvalue: v,
			Magnitude:  mag,
			Growth:     math.Log(mag) / dt,
			Frequency:  math.Abs(cmplx.Phase(v)) / dt,
		}
		spec.Radius = math.Max(spec.Radius, mag)
	}
	sort.SliceStable(spec.Modes, func(i, j int) bool {
		if spec.Modes[i].Magnitude != spec.Modes[j].Magnitude {
			return spec.Modes[i].Magnitude > spec.Modes[j].Magnitude
		}
		return spec.Modes[i].Frequency < spec.Modes[j].Frequency
	})
	return spec, nil
}

// SpectralRadius returns max |λ| over the eigenvalues of A.
func SpectralRadius(A mat.Matrix) (float64, error) {
	spec, err := Spectrum(A, 1)
	if err != nil {
		return 0, err
	}
	return spec.Radius, nil
}
