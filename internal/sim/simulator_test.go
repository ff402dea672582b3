package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/koopid/internal/dynamo"
)

var decaySystem = dynamo.MustSystem([]string{"x"}, []string{"u"})

// decay is dx/dt = -x + u.
type decay struct{}

func (d *decay) Derive(x dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	return dynamo.State{-x[0] + u[0]}
}
func (d *decay) StateDim() int   { return 1 }
func (d *decay) ControlDim() int { return 1 }

type euler struct{}

func (euler) Step(dyn dynamo.Plant, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	return dynamo.State{x[0] + dt*dx[0]}
}

type constController float64

func (c constController) Compute(dynamo.State, float64) dynamo.Control {
	return dynamo.Control{float64(c)}
}

// doubling is the discrete plant x' = 2x + u.
type doubling struct{}

func (doubling) Next(x dynamo.State, u dynamo.Control) dynamo.State {
	return dynamo.State{2*x[0] + u[0]}
}
func (doubling) StateDim() int   { return 1 }
func (doubling) ControlDim() int { return 1 }

func TestSimulatorRun(t *testing.T) {
	s := New(Discretize(&decay{}, euler{}, 0.1), decaySystem, constController(0))

	traj, err := s.Run(context.Background(), dynamo.State{1.0}, Config{Length: 11})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if traj.Len() != 11 || len(traj.Ctrls) != 11 {
		t.Fatalf("expected 11 steps, got %d obs and %d ctrls", traj.Len(), len(traj.Ctrls))
	}
	if err := traj.Validate(decaySystem, 2); err != nil {
		t.Errorf("trajectory invalid: %v", err)
	}

	final := traj.Obs[10][0]
	expected := math.Exp(-1.0)
	if math.Abs(final-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, final)
	}
	if traj.Obs[0][0] != 1.0 {
		t.Errorf("first observation should be x0, got %v", traj.Obs[0])
	}
}

func TestSimulatorRecordsControlAtEachObservation(t *testing.T) {
	s := New(doubling{}, decaySystem, constController(1))
	traj, err := s.Run(context.Background(), dynamo.State{0}, Config{Length: 4})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, 3, 7}
	for i, w := range want {
		if traj.Obs[i][0] != w {
			t.Errorf("obs[%d] = %v, want %v", i, traj.Obs[i][0], w)
		}
		if traj.Ctrls[i][0] != 1 {
			t.Errorf("ctrl[%d] = %v, want 1", i, traj.Ctrls[i][0])
		}
	}
}

func TestSimulatorInvalidInput(t *testing.T) {
	s := New(doubling{}, decaySystem, constController(0))

	tests := []struct {
		name string
		x0   dynamo.State
		cfg  Config
	}{
		{"zero length", dynamo.State{1}, Config{Length: 0}},
		{"negative length", dynamo.State{1}, Config{Length: -3}},
		{"wrong state size", dynamo.State{1, 2}, Config{Length: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Run(context.Background(), tt.x0, tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorDetectsDivergence(t *testing.T) {
	s := New(doubling{}, decaySystem, constController(math.Inf(1)))
	_, err := s.Run(context.Background(), dynamo.State{1}, Config{Length: 5, ValidateState: true})
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	var simErr SimError
	if !errors.As(err, &simErr) || simErr.Step != 1 {
		t.Errorf("expected SimError at step 1, got %v", err)
	}
}

func TestSimulatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(doubling{}, decaySystem, constController(0))
	if _, err := s.Run(ctx, dynamo.State{1}, Config{Length: 3}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEnsembleOrderedAndDeterministic(t *testing.T) {
	setup := func(idx int, seed int64) (*Simulator, dynamo.State, error) {
		return New(doubling{}, decaySystem, constController(float64(seed))), dynamo.State{float64(idx)}, nil
	}
	e := NewEnsemble(setup, 8, 100)

	first, err := e.Run(context.Background(), Config{Length: 3})
	if err != nil {
		t.Fatal(err)
	}
	second, _ := e.Run(context.Background(), Config{Length: 3})

	for i, traj := range first {
		if traj.Obs[0][0] != float64(i) {
			t.Errorf("run %d started at %v", i, traj.Obs[0][0])
		}
		if traj.Ctrls[0][0] != float64(100+i) {
			t.Errorf("run %d used seed %v", i, traj.Ctrls[0][0])
		}
		if second[i].Obs[2][0] != traj.Obs[2][0] {
			t.Errorf("run %d not deterministic", i)
		}
	}
}

func TestEnsembleReportsFailingRun(t *testing.T) {
	boom := errors.New("boom")
	setup := func(idx int, seed int64) (*Simulator, dynamo.State, error) {
		if idx == 3 {
			return nil, nil, boom
		}
		return New(doubling{}, decaySystem, constController(0)), dynamo.State{0}, nil
	}
	_, err := NewEnsemble(setup, 5, 0).Run(context.Background(), Config{Length: 2})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped setup error, got %v", err)
	}
	var te *dynamo.TrajectoryError
	if !errors.As(err, &te) || te.Index != 3 {
		t.Errorf("expected trajectory 3, got %v", err)
	}
}
