// Package fit regresses the lifted linear map Y ≈ A·X + B·U.
//
// Both implemented backends are deterministic: least squares goes through a
// thin SVD pseudoinverse, lasso through cyclic coordinate descent with a
// fixed sweep order.
package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/koopid/internal/dynamo"
)

// ErrFactorization indicates the SVD of the regressor could not be computed,
// typically because the data contains NaN or Inf.
var ErrFactorization = errors.New("fit: SVD factorization failed")

const (
	DefaultMaxIter = 1000
	DefaultTol     = 1e-4
)

// Params carries method-specific settings. Alpha is only read by Lasso.
type Params struct {
	Alpha   float64
	MaxIter int
	Tol     float64
}

func DefaultParams() Params {
	return Params{Alpha: 1.0, MaxIter: DefaultMaxIter, Tol: DefaultTol}
}

// Result holds the fitted matrices and solver diagnostics.
type Result struct {
	A *mat.Dense
	B *mat.Dense

	// Rank is the effective rank of the stacked regressor (least squares).
	Rank int
	// Iterations is the largest number of sweeps any output row needed (lasso).
	Iterations int
	// Converged is false when some lasso row hit MaxIter.
	Converged bool
}

// Fit estimates A (l×l) and B (l×m) from X, Y (l×N) and U (m×N).
func Fit(X, Y, U *mat.Dense, method Method, p Params) (*Result, error) {
	l, n, m, err := checkShapes(X, Y, U)
	if err != nil {
		return nil, err
	}

	switch method {
	case LeastSquares:
		return leastSquares(X, Y, U, l, n, m)
	case Lasso:
		return lasso(X, Y, U, l, n, m, p)
	case Stable:
		return nil, fmt.Errorf("%w: %s fit is not implemented", ErrUnsupportedMethod, method)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, string(method))
}

func checkShapes(X, Y, U *mat.Dense) (l, n, m int, err error) {
	if X == nil || Y == nil || U == nil {
		return 0, 0, 0, fmt.Errorf("%w: nil regression matrix", dynamo.ErrDimensionMismatch)
	}
	if X.IsEmpty() || Y.IsEmpty() || U.IsEmpty() {
		return 0, 0, 0, fmt.Errorf("%w: empty regression matrix", dynamo.ErrDimensionMismatch)
	}
	l, n = X.Dims()
	yr, yc := Y.Dims()
	m, uc := U.Dims()
	if yr != l {
		return 0, 0, 0, fmt.Errorf("%w: X has %d rows, Y has %d", dynamo.ErrDimensionMismatch, l, yr)
	}
	if yc != n || uc != n {
		return 0, 0, 0, fmt.Errorf("%w: sample counts X=%d Y=%d U=%d", dynamo.ErrDimensionMismatch, n, yc, uc)
	}
	return l, n, m, nil
}

func stack(X, U *mat.Dense) *mat.Dense {
	var z mat.Dense
	z.Stack(X, U)
	return &z
}

// split copies AB = [A | B] into independent matrices.
func split(ab *mat.Dense, l, m int) (A, B *mat.Dense) {
	A = mat.DenseCopyOf(ab.Slice(0, l, 0, l))
	B = mat.DenseCopyOf(ab.Slice(0, l, l, l+m))
	return A, B
}

// leastSquares computes AB = Y·pinv(Z) with Z = [X; U]. Singular values at
// or below max(rows, cols)·eps·s_max are treated as zero, so rank-deficient
// and underdetermined regressors yield the minimum-norm solution.
func leastSquares(X, Y, U *mat.Dense, l, n, m int) (*Result, error) {
	z := stack(X, U)
	p := l + m

	var svd mat.SVD
	if ok := svd.Factorize(z, mat.SVDThin); !ok {
		return nil, ErrFactorization
	}

	eps := math.Nextafter(1, 2) - 1
	rank := svd.Rank(float64(max(p, n)) * eps)

	ab := mat.NewDense(l, p, nil)
	if rank > 0 {
		var u, v mat.Dense
		svd.UTo(&u)
		svd.VTo(&v)
		s := svd.Values(nil)

		var yv mat.Dense
		yv.Mul(Y, v.Slice(0, n, 0, rank))
		for j := 0; j < rank; j++ {
			inv := 1 / s[j]
			for i := 0; i < l; i++ {
				yv.Set(i, j, yv.At(i, j)*inv)
			}
		}
		ab.Mul(&yv, u.Slice(0, p, 0, rank).T())
	}

	A, B := split(ab, l, m)
	return &Result{A: A, B: B, Rank: rank, Converged: true}, nil
}

// lasso solves, independently for each lifted output row y,
//
//	min_w (1/2N)·‖y − Zᵀw‖² + α·‖w‖₁
//
// without an intercept.
func lasso(X, Y, U *mat.Dense, l, n, m int, p Params) (*Result, error) {
	if p.Alpha < 0 || math.IsNaN(p.Alpha) {
		return nil, fmt.Errorf("fit: lasso alpha must be non-negative, got %v", p.Alpha)
	}
	if p.MaxIter <= 0 {
		p.MaxIter = DefaultMaxIter
	}
	if p.Tol <= 0 {
		p.Tol = DefaultTol
	}

	z := stack(X, U)
	width := l + m

	norms := make([]float64, width)
	for j := 0; j < width; j++ {
		row := z.RawRowView(j)
		for _, v := range row {
			norms[j] += v * v
		}
	}

	ab := mat.NewDense(l, width, nil)
	iters := make([]int, l)
	converged := make([]bool, l)
	threshold := p.Alpha * float64(n)

	dynamo.ParallelFor(l, 1, func(start, end int) {
		resid := make([]float64, n)
		w := make([]float64, width)
		for r := start; r < end; r++ {
			mat.Row(resid, r, Y)
			for j := range w {
				w[j] = 0
			}
			iters[r], converged[r] = descend(z, norms, resid, w, threshold, p.MaxIter, p.Tol)
			ab.SetRow(r, w)
		}
	})

	res := &Result{Converged: true}
	for r := 0; r < l; r++ {
		if iters[r] > res.Iterations {
			res.Iterations = iters[r]
		}
		res.Converged = res.Converged && converged[r]
	}
	res.A, res.B = split(ab, l, m)
	return res, nil
}

// descend runs cyclic coordinate descent in place on w with residual
// resid = y − Zᵀw. It stops once the largest coordinate change is below
// tol times the largest coefficient.
func descend(z *mat.Dense, norms, resid, w []float64, threshold float64, maxIter int, tol float64) (int, bool) {
	for iter := 1; iter <= maxIter; iter++ {
		wMax, dMax := 0.0, 0.0
		for j := range w {
			if norms[j] == 0 {
				continue
			}
			row := z.RawRowView(j)
			old := w[j]

			rho := norms[j] * old
			for k, v := range row {
				rho += v * resid[k]
			}
			next := softThreshold(rho, threshold) / norms[j]

			if next != old {
				delta := next - old
				for k, v := range row {
					resid[k] -= v * delta
				}
				w[j] = next
			}
			dMax = math.Max(dMax, math.Abs(next-old))
			wMax = math.Max(wMax, math.Abs(next))
		}
		if wMax == 0 || dMax/wMax < tol {
			return iter, true
		}
	}
	return maxIter, false
}

func softThreshold(x, t float64) float64 {
	switch {
	case x > t:
		return x - t
	case x < -t:
		return x + t
	}
	return 0
}
