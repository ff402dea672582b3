package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	if n := (State{3, 4}).Norm(); math.Abs(n-5) > 1e-12 {
		t.Errorf("Norm = %v, want 5", n)
	}
}

func TestNewSystem(t *testing.T) {
	tests := []struct {
		name  string
		obs   []string
		ctrls []string
		ok    bool
	}{
		{"valid", []string{"x1", "x2"}, []string{"u"}, true},
		{"no controls", []string{"x"}, nil, true},
		{"no observations", nil, []string{"u"}, false},
		{"duplicate", []string{"x", "x"}, nil, false},
		{"shared name", []string{"x"}, []string{"x"}, false},
		{"empty name", []string{""}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, err := NewSystem(tt.obs, tt.ctrls)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if sys.ObsDim() != len(tt.obs) || sys.CtrlDim() != len(tt.ctrls) {
					t.Errorf("dims = (%d, %d), want (%d, %d)", sys.ObsDim(), sys.CtrlDim(), len(tt.obs), len(tt.ctrls))
				}
				return
			}
			if !errors.Is(err, ErrInvalidSystem) {
				t.Errorf("expected ErrInvalidSystem, got %v", err)
			}
		})
	}
}

func TestSystemIsImmutable(t *testing.T) {
	names := []string{"x1", "x2"}
	sys := MustSystem(names, []string{"u"})
	names[0] = "changed"

	obs := sys.Observations()
	if obs[0] != "x1" {
		t.Errorf("descriptor aliased caller slice: %v", obs)
	}
	obs[1] = "changed"
	if sys.Observations()[1] != "x2" {
		t.Error("Observations() exposed internal slice")
	}
}

func TestTrajectoryValidate(t *testing.T) {
	sys := MustSystem([]string{"x1", "x2"}, []string{"u"})

	traj := NewTrajectory(sys, 3)
	if err := traj.Validate(sys, 2); err != nil {
		t.Fatalf("valid trajectory rejected: %v", err)
	}

	if err := traj.Slice(0, 1).Validate(sys, 2); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short trajectory: expected ErrDimensionMismatch, got %v", err)
	}

	traj.Obs[1] = State{1}
	if err := traj.Validate(sys, 2); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("bad observation: expected ErrDimensionMismatch, got %v", err)
	}

	var nilTraj *Trajectory
	if err := nilTraj.Validate(sys, 2); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("nil trajectory: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestTrajectoryErrorUnwrap(t *testing.T) {
	err := &TrajectoryError{Index: 3, Wrapped: ErrDimensionMismatch}
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Error("TrajectoryError does not unwrap")
	}
	if err.Error() != "trajectory 3: dynamo: dimension mismatch" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, n)
		var calls int32
		ParallelFor(n, 8, func(start, end int) {
			atomic.AddInt32(&calls, 1)
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
		if n == 0 && calls != 0 {
			t.Errorf("n=0 should not call fn")
		}
	}
}
