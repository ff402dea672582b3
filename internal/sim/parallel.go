package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/koopid/internal/dynamo"
)

// Setup builds the simulator and initial state for run idx. It is called
// from the run's own goroutine, so stateful integrators and seeded
// controllers must be created inside it.
type Setup func(idx int, seed int64) (*Simulator, dynamo.State, error)

type Ensemble struct {
	setup     Setup
	numRuns   int
	seedStart int64
}

func NewEnsemble(setup Setup, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{setup: setup, numRuns: numRuns, seedStart: seedStart}
}

// Run executes every rollout concurrently. Results are ordered by run index
// and, for a deterministic Setup, identical between calls.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*dynamo.Trajectory, error) {
	results := make([]*dynamo.Trajectory, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		i := i
		g.Go(func() error {
			s, x0, err := e.setup(i, e.seedStart+int64(i))
			if err != nil {
				return &dynamo.TrajectoryError{Index: i, Wrapped: err}
			}
			traj, err := s.Run(ctx, x0, cfg)
			if err != nil {
				return &dynamo.TrajectoryError{Index: i, Wrapped: err}
			}
			results[i] = traj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
