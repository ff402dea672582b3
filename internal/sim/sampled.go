package sim

import "github.com/san-kum/koopid/internal/dynamo"

// Sampled turns a continuous plant into a discrete one by integrating over
// a fixed interval with the control held constant (zero-order hold).
type Sampled struct {
	plant      dynamo.Plant
	integrator dynamo.Integrator
	dt         float64
	t          float64
}

// Discretize samples p every dt seconds with integ. The returned plant
// tracks time internally and inherits integ's goroutine restrictions.
func Discretize(p dynamo.Plant, integ dynamo.Integrator, dt float64) *Sampled {
	return &Sampled{plant: p, integrator: integ, dt: dt}
}

func (s *Sampled) StateDim() int   { return s.plant.StateDim() }
func (s *Sampled) ControlDim() int { return s.plant.ControlDim() }
func (s *Sampled) Dt() float64     { return s.dt }

func (s *Sampled) Next(x dynamo.State, u dynamo.Control) dynamo.State {
	next := s.integrator.Step(s.plant, x, u, s.t, s.dt)
	s.t += s.dt
	return next
}
