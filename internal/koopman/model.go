// Package koopman fits and serves a linear model in a lifted feature space.
//
// A [Model] is built from a system descriptor and a configuration, trained
// once on trajectories, and then behaves as a pure function of its two
// matrices:
//
//	z' = A·z + B·u
//
// where z is the lifted observation. Every matrix handed out (Jacobians,
// linear-system hand-off, parameters) is a copy.
//
// # Thread Safety
//
// A Model has no internal locking. Prediction may run concurrently, but
// Train and SetParameters must not overlap with any other call on the same
// Model. Distinct models are independent.
package koopman

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/koopid/internal/basis"
	"github.com/san-kum/koopid/internal/config"
	"github.com/san-kum/koopid/internal/dynamo"
	"github.com/san-kum/koopid/internal/fit"
	"github.com/san-kum/koopid/internal/lift"
	"github.com/san-kum/koopid/internal/logging"
)

var (
	// ErrNotTrained is returned by every prediction or hand-off call made
	// before Train or SetParameters succeeded.
	ErrNotTrained = errors.New("koopman: model not trained")

	// ErrInvalidParameters indicates a parameter set whose keys differ from
	// {"A", "B"} or that holds nil matrices.
	ErrInvalidParameters = errors.New("koopman: invalid parameters")
)

// Parameter keys.
const (
	ParamA = "A"
	ParamB = "B"
)

// Parameters is the serialisable state of a trained model.
type Parameters map[string]*mat.Dense

type Option func(*Model)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l logr.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithFitParams overrides solver settings. Alpha is always taken from the
// configuration.
func WithFitParams(p fit.Params) Option {
	return func(m *Model) { m.params = p }
}

type Model struct {
	system  *dynamo.System
	opts    config.Options
	adapter *lift.Adapter
	params  fit.Params
	logger  logr.Logger

	a *mat.Dense
	b *mat.Dense
}

// New validates opts and returns an untrained model.
func New(sys *dynamo.System, opts config.Options, options ...Option) (*Model, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	adapter, err := lift.New(sys, basis.NewSet(opts))
	if err != nil {
		return nil, err
	}
	m := &Model{
		system:  sys,
		opts:    opts,
		adapter: adapter,
		params:  fit.DefaultParams(),
		logger:  logr.Discard(),
	}
	for _, o := range options {
		o(m)
	}
	return m, nil
}

// NewFromMap is New with options given as a name/value mapping.
func NewFromMap(sys *dynamo.System, values map[string]any, options ...Option) (*Model, error) {
	opts, err := config.FromMap(values)
	if err != nil {
		return nil, err
	}
	return New(sys, opts, options...)
}

func (m *Model) System() *dynamo.System  { return m.system }
func (m *Model) Options() config.Options { return m.opts }
func (m *Model) Trained() bool           { return m.a != nil }

// Dims returns the lifted dimension and the control dimension.
func (m *Model) Dims() (lifted, ctrl int) {
	return m.adapter.Dim(), m.system.CtrlDim()
}

// FeatureNames labels the lifted coordinates.
func (m *Model) FeatureNames() []string { return m.adapter.Names() }

// Train lifts trajs, fits A and B with the configured method and stores
// them. On error the model keeps whatever state it had before the call.
func (m *Model) Train(trajs []*dynamo.Trajectory) error {
	X, Y, U, err := m.adapter.Trajectories(trajs)
	if err != nil {
		return err
	}
	_, samples := X.Dims()

	p := m.params
	p.Alpha = m.opts.Alpha()

	m.logger.V(logging.DEBUG).Info("fitting lifted model",
		"method", m.opts.Method, "liftedDim", m.adapter.Dim(), "samples", samples)

	res, err := fit.Fit(X, Y, U, m.opts.Method, p)
	if err != nil {
		return fmt.Errorf("koopman: train: %w", err)
	}
	if !res.Converged {
		m.logger.Info("lasso did not converge; using last iterate",
			"iterations", res.Iterations, "tol", p.Tol)
	}

	m.a, m.b = res.A, res.B
	m.logger.V(logging.DEBUG).Info("model trained",
		"trajectories", len(trajs), "rank", res.Rank, "iterations", res.Iterations)
	return nil
}

// Lift maps a raw observation into the model's lifted coordinates.
func (m *Model) Lift(obs []float64) ([]float64, error) {
	return m.adapter.Single(obs)
}

func (m *Model) checkInputs(x, u []float64) error {
	if !m.Trained() {
		return ErrNotTrained
	}
	l, c := m.Dims()
	if len(x) != l {
		return fmt.Errorf("%w: lifted state has %d components, want %d", dynamo.ErrDimensionMismatch, len(x), l)
	}
	if len(u) != c {
		return fmt.Errorf("%w: control has %d components, want %d", dynamo.ErrDimensionMismatch, len(u), c)
	}
	return nil
}

// Predict returns A·x + B·u for a lifted state x.
func (m *Model) Predict(x, u []float64) ([]float64, error) {
	if err := m.checkInputs(x, u); err != nil {
		return nil, err
	}
	return m.step(x, u), nil
}

func (m *Model) step(x, u []float64) []float64 {
	var ax, bu mat.VecDense
	ax.MulVec(m.a, mat.NewVecDense(len(x), x))
	bu.MulVec(m.b, mat.NewVecDense(len(u), u))
	ax.AddVec(&ax, &bu)
	return ax.RawVector().Data
}

// PredictWithJacobian returns the prediction together with its derivatives
// with respect to state and control. The map is linear, so these are copies
// of A and B for every input.
func (m *Model) PredictWithJacobian(x, u []float64) (next []float64, dx, du *mat.Dense, err error) {
	if err := m.checkInputs(x, u); err != nil {
		return nil, nil, nil, err
	}
	return m.step(x, u), mat.DenseCopyOf(m.a), mat.DenseCopyOf(m.b), nil
}

// ToLinearSystem hands copies of A and B to a linear controller.
func (m *Model) ToLinearSystem() (A, B *mat.Dense, err error) {
	if !m.Trained() {
		return nil, nil, ErrNotTrained
	}
	return mat.DenseCopyOf(m.a), mat.DenseCopyOf(m.b), nil
}

// Parameters returns copies of A and B keyed "A" and "B".
func (m *Model) Parameters() (Parameters, error) {
	if !m.Trained() {
		return nil, ErrNotTrained
	}
	return Parameters{
		ParamA: mat.DenseCopyOf(m.a),
		ParamB: mat.DenseCopyOf(m.b),
	}, nil
}

// SetParameters replaces A and B with copies from p. p must hold exactly
// the keys produced by Parameters, with matching shapes.
func (m *Model) SetParameters(p Parameters) error {
	if len(p) != 2 {
		return fmt.Errorf("%w: want keys {%s, %s}, got %d keys", ErrInvalidParameters, ParamA, ParamB, len(p))
	}
	a, okA := p[ParamA]
	b, okB := p[ParamB]
	if !okA || !okB {
		return fmt.Errorf("%w: want keys {%s, %s}, got %v", ErrInvalidParameters, ParamA, ParamB, keys(p))
	}
	if a == nil || b == nil || a.IsEmpty() || b.IsEmpty() {
		return fmt.Errorf("%w: nil or empty matrix", ErrInvalidParameters)
	}

	l, c := m.Dims()
	if r, k := a.Dims(); r != l || k != l {
		return fmt.Errorf("%w: A is %dx%d, want %dx%d", dynamo.ErrDimensionMismatch, r, k, l, l)
	}
	if r, k := b.Dims(); r != l || k != c {
		return fmt.Errorf("%w: B is %dx%d, want %dx%d", dynamo.ErrDimensionMismatch, r, k, l, c)
	}

	m.a, m.b = mat.DenseCopyOf(a), mat.DenseCopyOf(b)
	return nil
}

func keys(p Parameters) []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	return out
}
