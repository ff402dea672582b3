// Package basis lifts raw observation vectors into a feature space.
//
// A [Set] is plain data: an ordered list of scalar [Function] values plus a
// flag for pairwise products. [Set.Expand] interprets it, applying each
// function to every observation component before moving to the next
// function:
//
//	[f0(x0) .. f0(xn-1), f1(x0) .. f1(xn-1), ...]
//
// With products enabled, every f_i*f_j for i<j over that vector is appended
// in row-major order.
package basis

import (
	"fmt"
	"math"

	"github.com/san-kum/koopid/internal/config"
)

type Kind int

const (
	Identity Kind = iota
	Power
	Sin
	Cos
)

func (k Kind) String() string {
	switch k {
	case Identity:
		return "identity"
	case Power:
		return "pow"
	case Sin:
		return "sin"
	case Cos:
		return "cos"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Function is one unary scalar transform. Param is the exponent for Power
// and the harmonic for Sin and Cos.
type Function struct {
	Kind  Kind
	Param int
}

func (f Function) Apply(x float64) float64 {
	switch f.Kind {
	case Power:
		return math.Pow(x, float64(f.Param))
	case Sin:
		return math.Sin(float64(f.Param) * x)
	case Cos:
		return math.Cos(float64(f.Param) * x)
	}
	return x
}

// Label renders f applied to the named variable.
func (f Function) Label(name string) string {
	switch f.Kind {
	case Power:
		return fmt.Sprintf("%s^%d", name, f.Param)
	case Sin, Cos:
		if f.Param == 1 {
			return fmt.Sprintf("%s(%s)", f.Kind, name)
		}
		return fmt.Sprintf("%s(%d*%s)", f.Kind, f.Param, name)
	}
	return name
}

// Set is the ordered basis used to lift observations.
type Set struct {
	Funcs    []Function
	Products bool
}

// NewSet builds the basis selected by opts: identity, then powers
// 2..PolyDegree, then sin/cos pairs for harmonics 1..TrigFreq.
func NewSet(opts config.Options) Set {
	funcs := []Function{{Kind: Identity}}
	if opts.PolyBasis {
		for d := 2; d <= opts.PolyDegree; d++ {
			funcs = append(funcs, Function{Kind: Power, Param: d})
		}
	}
	if opts.TrigBasis {
		for k := 1; k <= opts.TrigFreq; k++ {
			funcs = append(funcs, Function{Kind: Sin, Param: k}, Function{Kind: Cos, Param: k})
		}
	}
	return Set{Funcs: funcs, Products: opts.ProductTerms}
}

// base is the lifted length before products.
func (s Set) base(nObs int) int {
	return nObs * len(s.Funcs)
}

// Dim is the lifted dimension for nObs observation components.
func (s Set) Dim(nObs int) int {
	l := s.base(nObs)
	if s.Products {
		l += l * (l - 1) / 2
	}
	return l
}

// Expand lifts obs into a newly allocated feature vector.
func (s Set) Expand(obs []float64) []float64 {
	dst := make([]float64, s.Dim(len(obs)))
	s.ExpandTo(dst, obs)
	return dst
}

// ExpandTo writes the lifted features of obs into dst, which must have
// length Dim(len(obs)).
func (s Set) ExpandTo(dst, obs []float64) {
	n := len(obs)
	if len(dst) != s.Dim(n) {
		panic(fmt.Sprintf("basis: destination length %d, want %d", len(dst), s.Dim(n)))
	}
	idx := 0
	for _, f := range s.Funcs {
		for _, x := range obs {
			dst[idx] = f.Apply(x)
			idx++
		}
	}
	if !s.Products {
		return
	}
	l := s.base(n)
	for i := 0; i < l; i++ {
		for j := i + 1; j < l; j++ {
			dst[idx] = dst[i] * dst[j]
			idx++
		}
	}
}

// Names labels every lifted feature in Expand order.
func (s Set) Names(obsNames []string) []string {
	names := make([]string, 0, s.Dim(len(obsNames)))
	for _, f := range s.Funcs {
		for _, n := range obsNames {
			names = append(names, f.Label(n))
		}
	}
	if s.Products {
		l := len(names)
		for i := 0; i < l; i++ {
			for j := i + 1; j < l; j++ {
				names = append(names, names[i]+"*"+names[j])
			}
		}
	}
	return names
}
