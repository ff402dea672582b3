package plant

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/koopid/internal/dynamo"
)

// Linear is the discrete plant x' = A·x + B·u.
type Linear struct {
	a, b *mat.Dense
	sys  *dynamo.System
}

// NewLinear returns the double-integrator-like reference
// A = [[1,-1],[0,1]], B = [[0],[1]].
func NewLinear() *Linear {
	l, err := NewLinearFrom(
		mat.NewDense(2, 2, []float64{1, -1, 0, 1}),
		mat.NewDense(2, 1, []float64{0, 1}),
	)
	if err != nil {
		panic(err)
	}
	return l
}

// NewLinearFrom copies A and B. Variables are named x1..xn and u1..um, or
// u when there is a single control.
func NewLinearFrom(A, B *mat.Dense) (*Linear, error) {
	n, k := A.Dims()
	if n != k {
		return nil, fmt.Errorf("%w: A is %dx%d", dynamo.ErrDimensionMismatch, n, k)
	}
	r, m := B.Dims()
	if r != n {
		return nil, fmt.Errorf("%w: B has %d rows, want %d", dynamo.ErrDimensionMismatch, r, n)
	}

	obs := make([]string, n)
	for i := range obs {
		obs[i] = fmt.Sprintf("x%d", i+1)
	}
	ctrl := make([]string, m)
	for i := range ctrl {
		ctrl[i] = fmt.Sprintf("u%d", i+1)
	}
	if m == 1 {
		ctrl[0] = "u"
	}
	sys, err := dynamo.NewSystem(obs, ctrl)
	if err != nil {
		return nil, err
	}
	return &Linear{a: mat.DenseCopyOf(A), b: mat.DenseCopyOf(B), sys: sys}, nil
}

func (l *Linear) StateDim() int {
	r, _ := l.a.Dims()
	return r
}

func (l *Linear) ControlDim() int {
	_, c := l.b.Dims()
	return c
}

func (l *Linear) System() *dynamo.System { return l.sys }

// Matrices returns copies of the generating A and B.
func (l *Linear) Matrices() (A, B *mat.Dense) {
	return mat.DenseCopyOf(l.a), mat.DenseCopyOf(l.b)
}

func (l *Linear) DefaultState() dynamo.State {
	x := make(dynamo.State, l.StateDim())
	x[0] = 1
	return x
}

func (l *Linear) Next(x dynamo.State, u dynamo.Control) dynamo.State {
	var ax, bu mat.VecDense
	ax.MulVec(l.a, mat.NewVecDense(len(x), x.Clone()))
	bu.MulVec(l.b, mat.NewVecDense(len(u), u.Clone()))
	ax.AddVec(&ax, &bu)
	return dynamo.State(ax.RawVector().Data)
}
