// Package metrics scores trained models and closed-loop rollouts.
package metrics

import "github.com/san-kum/koopid/internal/dynamo"

// Metric accumulates a scalar over the steps of a rollout.
type Metric interface {
	Name() string
	Observe(x dynamo.State, u dynamo.Control, t float64)
	Value() float64
	Reset()
}

// Evaluate resets each metric, feeds it every step of traj and returns the
// values keyed by name.
func Evaluate(traj *dynamo.Trajectory, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i := range traj.Obs {
			m.Observe(traj.Obs[i], traj.Ctrls[i], float64(i))
		}
		out[m.Name()] = m.Value()
	}
	return out
}
