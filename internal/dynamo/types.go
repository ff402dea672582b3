package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

type Control []float64

func (u Control) Clone() Control {
	c := make(Control, len(u))
	copy(c, u)
	return c
}

// System describes the ordered observation and control variables of a plant.
// It is immutable once created.
type System struct {
	observations []string
	controls     []string
}

// NewSystem builds a descriptor. Names must be non-empty and unique across
// both lists; at least one observation is required.
func NewSystem(observations, controls []string) (*System, error) {
	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: no observation variables", ErrInvalidSystem)
	}
	seen := make(map[string]struct{}, len(observations)+len(controls))
	for _, names := range [][]string{observations, controls} {
		for _, n := range names {
			if n == "" {
				return nil, fmt.Errorf("%w: empty variable name", ErrInvalidSystem)
			}
			if _, dup := seen[n]; dup {
				return nil, fmt.Errorf("%w: duplicate variable %q", ErrInvalidSystem, n)
			}
			seen[n] = struct{}{}
		}
	}
	s := &System{
		observations: append([]string(nil), observations...),
		controls:     append([]string(nil), controls...),
	}
	return s, nil
}

// MustSystem is NewSystem for static descriptors; it panics on error.
func MustSystem(observations, controls []string) *System {
	s, err := NewSystem(observations, controls)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *System) ObsDim() int  { return len(s.observations) }
func (s *System) CtrlDim() int { return len(s.controls) }

func (s *System) Observations() []string { return append([]string(nil), s.observations...) }
func (s *System) Controls() []string     { return append([]string(nil), s.controls...) }

func (s *System) String() string {
	return fmt.Sprintf("System(obs=%v, ctrl=%v)", s.observations, s.controls)
}

// Trajectory is a fixed-length sequence of observation/control pairs.
// Ctrls[t] is the control applied at Obs[t].
type Trajectory struct {
	System *System
	Obs    []State
	Ctrls  []Control
}

// NewTrajectory allocates a zero trajectory of the given length.
func NewTrajectory(sys *System, length int) *Trajectory {
	t := &Trajectory{
		System: sys,
		Obs:    make([]State, length),
		Ctrls:  make([]Control, length),
	}
	for i := 0; i < length; i++ {
		t.Obs[i] = make(State, sys.ObsDim())
		t.Ctrls[i] = make(Control, sys.CtrlDim())
	}
	return t
}

func (t *Trajectory) Len() int { return len(t.Obs) }

// Slice returns a view of steps [from, to). Rows are shared with t.
func (t *Trajectory) Slice(from, to int) *Trajectory {
	return &Trajectory{System: t.System, Obs: t.Obs[from:to], Ctrls: t.Ctrls[from:to]}
}

// Validate checks the trajectory against sys and requires at least minLen
// steps.
func (t *Trajectory) Validate(sys *System, minLen int) error {
	if t == nil {
		return fmt.Errorf("%w: nil trajectory", ErrDimensionMismatch)
	}
	if len(t.Obs) != len(t.Ctrls) {
		return fmt.Errorf("%w: %d observations but %d controls", ErrDimensionMismatch, len(t.Obs), len(t.Ctrls))
	}
	if len(t.Obs) < minLen {
		return fmt.Errorf("%w: length %d, need at least %d", ErrDimensionMismatch, len(t.Obs), minLen)
	}
	for i := range t.Obs {
		if len(t.Obs[i]) != sys.ObsDim() {
			return fmt.Errorf("%w: step %d: observation has %d components, want %d",
				ErrDimensionMismatch, i, len(t.Obs[i]), sys.ObsDim())
		}
		if len(t.Ctrls[i]) != sys.CtrlDim() {
			return fmt.Errorf("%w: step %d: control has %d components, want %d",
				ErrDimensionMismatch, i, len(t.Ctrls[i]), sys.CtrlDim())
		}
	}
	return nil
}

// Plant is a continuous-time reference system dX/dt = f(X, u, t).
type Plant interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// DiscretePlant advances its state by one sample directly.
type DiscretePlant interface {
	Next(x State, u Control) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn Plant, x State, u Control, t float64, dt float64) State
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
