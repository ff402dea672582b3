package koopman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/koopid/internal/dynamo"
	"github.com/san-kum/koopid/internal/lift"
)

// PredictObservation lifts the last observation of traj, advances it with
// the last control and projects back onto the raw observation block. The
// identity features occupy the first ObsDim lifted coordinates.
func (m *Model) PredictObservation(traj *dynamo.Trajectory) (dynamo.State, error) {
	if !m.Trained() {
		return nil, ErrNotTrained
	}
	if err := traj.Validate(m.system, 1); err != nil {
		return nil, err
	}
	last := traj.Len() - 1
	z, err := m.Lift(traj.Obs[last])
	if err != nil {
		return nil, err
	}
	next, err := m.Predict(z, traj.Ctrls[last])
	if err != nil {
		return nil, err
	}
	return dynamo.State(next[:m.system.ObsDim()]).Clone(), nil
}

// Rollout predicts len(ctrls) steps from obs0 entirely in lifted space and
// returns the projected observations, excluding obs0.
func (m *Model) Rollout(obs0 dynamo.State, ctrls []dynamo.Control) ([]dynamo.State, error) {
	if !m.Trained() {
		return nil, ErrNotTrained
	}
	z, err := m.Lift(obs0)
	if err != nil {
		return nil, err
	}
	n := m.system.ObsDim()
	out := make([]dynamo.State, 0, len(ctrls))
	for i, u := range ctrls {
		if z, err = m.Predict(z, u); err != nil {
			return nil, fmt.Errorf("rollout step %d: %w", i, err)
		}
		out = append(out, dynamo.State(z[:n]).Clone())
	}
	return out, nil
}

// LinearSystem is the controller-facing view of a trained model: the lifted
// matrices plus the maps that move observations and observation-space costs
// into lifted coordinates.
type LinearSystem struct {
	A *mat.Dense
	B *mat.Dense

	adapter *lift.Adapter
}

// Linearization returns a LinearSystem holding copies of A and B.
func (m *Model) Linearization() (*LinearSystem, error) {
	A, B, err := m.ToLinearSystem()
	if err != nil {
		return nil, err
	}
	return &LinearSystem{A: A, B: B, adapter: m.adapter}, nil
}

// Lift projects a raw observation into the frame of A and B.
func (ls *LinearSystem) Lift(obs []float64) ([]float64, error) {
	return ls.adapter.Single(obs)
}

// LiftCost embeds an observation-space state weight Q (n_obs×n_obs) into
// the top-left block of a lifted weight; all other lifted coordinates get
// zero weight. R is returned as a copy.
func (ls *LinearSystem) LiftCost(Q, R mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	n := ls.adapter.System().ObsDim()
	c := ls.adapter.System().CtrlDim()
	if r, k := Q.Dims(); r != n || k != n {
		return nil, nil, fmt.Errorf("%w: Q is %dx%d, want %dx%d", dynamo.ErrDimensionMismatch, r, k, n, n)
	}
	if r, k := R.Dims(); r != c || k != c {
		return nil, nil, fmt.Errorf("%w: R is %dx%d, want %dx%d", dynamo.ErrDimensionMismatch, r, k, c, c)
	}

	l := ls.adapter.Dim()
	ql := mat.NewDense(l, l, nil)
	ql.Slice(0, n, 0, n).(*mat.Dense).Copy(Q)
	return ql, mat.DenseCopyOf(R), nil
}
