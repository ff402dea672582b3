package plant

import (
	"math"

	"github.com/san-kum/koopid/internal/dynamo"
)

var pendulumSystem = dynamo.MustSystem([]string{"theta", "omega"}, []string{"torque"})

// Pendulum is a damped pendulum driven by a torque at the pivot.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.1,
		Gravity: 9.81,
	}
}

func (p *Pendulum) StateDim() int              { return 2 }
func (p *Pendulum) ControlDim() int            { return 1 }
func (p *Pendulum) System() *dynamo.System     { return pendulumSystem }
func (p *Pendulum) DefaultState() dynamo.State { return dynamo.State{0.5, 0} }

func (p *Pendulum) Derive(x dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	theta, omega := x[0], x[1]
	torque := 0.0
	if len(u) > 0 {
		torque = u[0]
	}
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + torque) / (p.Mass * p.Length * p.Length)
	return dynamo.State{omega, alpha}
}

func (p *Pendulum) Energy(x dynamo.State) float64 {
	v := p.Length * x[1]
	ke := 0.5 * p.Mass * v * v
	pe := p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(x[0]))
	return ke + pe
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    p.Mass,
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		p.Mass = value
	case "length":
		p.Length = value
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	default:
		return unknownParam("pendulum", name)
	}
	return nil
}
