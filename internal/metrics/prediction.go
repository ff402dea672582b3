package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/koopid/internal/dynamo"
)

// Predictor is the slice of a trained model the error metrics need.
type Predictor interface {
	PredictObservation(traj *dynamo.Trajectory) (dynamo.State, error)
	Rollout(obs0 dynamo.State, ctrls []dynamo.Control) ([]dynamo.State, error)
}

// OneStepRMSE predicts Obs[t+1] from the prefix ending at t for every t of
// every trajectory and returns the root-mean-square Euclidean error.
func OneStepRMSE(p Predictor, trajs []*dynamo.Trajectory) (float64, error) {
	sum, n := 0.0, 0
	for i, traj := range trajs {
		for t := 0; t+1 < traj.Len(); t++ {
			pred, err := p.PredictObservation(traj.Slice(0, t+1))
			if err != nil {
				return 0, &dynamo.TrajectoryError{Index: i, Wrapped: err}
			}
			d := floats.Distance(pred, traj.Obs[t+1], 2)
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no transitions to score", dynamo.ErrDimensionMismatch)
	}
	return math.Sqrt(sum / float64(n)), nil
}

// RolloutRMSE propagates each trajectory's first observation horizon steps
// in lifted space under the recorded controls and returns the RMSE against
// the recorded observations. Trajectories shorter than horizon+1 are scored
// over their full length.
func RolloutRMSE(p Predictor, trajs []*dynamo.Trajectory, horizon int) (float64, error) {
	if horizon < 1 {
		return 0, fmt.Errorf("horizon must be positive, got %d", horizon)
	}
	sum, n := 0.0, 0
	for i, traj := range trajs {
		h := horizon
		if traj.Len()-1 < h {
			h = traj.Len() - 1
		}
		if h < 1 {
			continue
		}
		states, err := p.Rollout(traj.Obs[0], traj.Ctrls[:h])
		if err != nil {
			return 0, &dynamo.TrajectoryError{Index: i, Wrapped: err}
		}
		for k, s := range states {
			d := floats.Distance(s, traj.Obs[k+1], 2)
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no transitions to score", dynamo.ErrDimensionMismatch)
	}
	return math.Sqrt(sum / float64(n)), nil
}
