// Package sim rolls discrete plants forward under a controller and records
// the result as trajectories.
package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/koopid/internal/dynamo"
)

type Simulator struct {
	plant      dynamo.DiscretePlant
	system     *dynamo.System
	controller dynamo.Controller
}

func New(plant dynamo.DiscretePlant, sys *dynamo.System, controller dynamo.Controller) *Simulator {
	return &Simulator{
		plant:      plant,
		system:     sys,
		controller: controller,
	}
}

// Run records cfg.Length observations starting at x0. Ctrls[t] is the
// control applied at Obs[t]; the final control is computed but has no
// recorded successor.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*dynamo.Trajectory, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	traj := &dynamo.Trajectory{
		System: s.system,
		Obs:    make([]dynamo.State, 0, cfg.Length),
		Ctrls:  make([]dynamo.Control, 0, cfg.Length),
	}

	x := x0.Clone()
	for i := 0; i < cfg.Length; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		u := s.controller.Compute(x, float64(i))
		if len(u) != s.system.CtrlDim() {
			return nil, fmt.Errorf("%w: controller returned %d components, want %d",
				dynamo.ErrDimensionMismatch, len(u), s.system.CtrlDim())
		}
		traj.Obs = append(traj.Obs, x.Clone())
		traj.Ctrls = append(traj.Ctrls, u.Clone())

		if i+1 == cfg.Length {
			break
		}
		x = s.plant.Next(x, u)
		if cfg.ValidateState && !x.IsValid() {
			return nil, fmt.Errorf("%w: %w", dynamo.ErrInvalidState, SimError{Step: i + 1, Message: "state diverged"})
		}
	}
	return traj, nil
}

func (s *Simulator) validate(x0 dynamo.State, cfg Config) error {
	if cfg.Length < 1 {
		return fmt.Errorf("length must be positive, got %d", cfg.Length)
	}
	if len(x0) != s.system.ObsDim() || s.plant.StateDim() != s.system.ObsDim() {
		return fmt.Errorf("%w: initial state has %d components, plant %d, system %d",
			dynamo.ErrDimensionMismatch, len(x0), s.plant.StateDim(), s.system.ObsDim())
	}
	if s.plant.ControlDim() != s.system.CtrlDim() {
		return fmt.Errorf("%w: plant takes %d controls, system names %d",
			dynamo.ErrDimensionMismatch, s.plant.ControlDim(), s.system.CtrlDim())
	}
	return nil
}
