// Package lift assembles lifted regression matrices from trajectories.
package lift

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/koopid/internal/basis"
	"github.com/san-kum/koopid/internal/dynamo"
)

// minChunk is the smallest number of samples handed to one worker.
const minChunk = 256

// Adapter lifts raw observations of one system through one basis.
type Adapter struct {
	system *dynamo.System
	basis  basis.Set
}

func New(sys *dynamo.System, set basis.Set) (*Adapter, error) {
	if sys == nil {
		return nil, fmt.Errorf("%w: nil system", dynamo.ErrInvalidSystem)
	}
	if sys.CtrlDim() == 0 {
		return nil, fmt.Errorf("%w: at least one control variable is required", dynamo.ErrDimensionMismatch)
	}
	return &Adapter{system: sys, basis: set}, nil
}

func (a *Adapter) System() *dynamo.System { return a.system }
func (a *Adapter) Basis() basis.Set       { return a.basis }

// Dim is the lifted dimension.
func (a *Adapter) Dim() int { return a.basis.Dim(a.system.ObsDim()) }

// Names labels the lifted features.
func (a *Adapter) Names() []string { return a.basis.Names(a.system.Observations()) }

// Single lifts one raw observation. The result equals the matching column of
// X from Trajectories.
func (a *Adapter) Single(obs []float64) ([]float64, error) {
	if len(obs) != a.system.ObsDim() {
		return nil, fmt.Errorf("%w: observation has %d components, want %d",
			dynamo.ErrDimensionMismatch, len(obs), a.system.ObsDim())
	}
	return a.basis.Expand(obs), nil
}

type sample struct {
	traj int
	step int
}

// Trajectories builds the column-per-sample matrices
//
//	X = [lift(obs_0) .. lift(obs_{T-2})]
//	Y = [lift(obs_1) .. lift(obs_{T-1})]
//	U = [ctrl_0 .. ctrl_{T-2}]
//
// concatenated over trajs in order.
func (a *Adapter) Trajectories(trajs []*dynamo.Trajectory) (X, Y, U *mat.Dense, err error) {
	if len(trajs) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no trajectories", dynamo.ErrDimensionMismatch)
	}

	samples := make([]sample, 0)
	for i, t := range trajs {
		if err := t.Validate(a.system, 2); err != nil {
			return nil, nil, nil, &dynamo.TrajectoryError{Index: i, Wrapped: err}
		}
		for s := 0; s < t.Len()-1; s++ {
			samples = append(samples, sample{traj: i, step: s})
		}
	}

	n := len(samples)
	dim := a.Dim()
	m := a.system.CtrlDim()

	X = mat.NewDense(dim, n, nil)
	Y = mat.NewDense(dim, n, nil)
	U = mat.NewDense(m, n, nil)

	dynamo.ParallelFor(n, minChunk, func(start, end int) {
		buf := make([]float64, dim)
		for k := start; k < end; k++ {
			sm := samples[k]
			t := trajs[sm.traj]

			a.basis.ExpandTo(buf, t.Obs[sm.step])
			X.SetCol(k, buf)

			a.basis.ExpandTo(buf, t.Obs[sm.step+1])
			Y.SetCol(k, buf)

			U.SetCol(k, t.Ctrls[sm.step])
		}
	})

	return X, Y, U, nil
}
