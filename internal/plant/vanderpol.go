package plant

import "github.com/san-kum/koopid/internal/dynamo"

var vanDerPolSystem = dynamo.MustSystem([]string{"x", "y"}, []string{"u"})

// VanDerPol is the forced Van der Pol oscillator.
// State: [x, y] where y = dx/dt
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x + u
type VanDerPol struct {
	Mu float64
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{Mu: 1.0}
}

func (v *VanDerPol) StateDim() int              { return 2 }
func (v *VanDerPol) ControlDim() int            { return 1 }
func (v *VanDerPol) System() *dynamo.System     { return vanDerPolSystem }
func (v *VanDerPol) DefaultState() dynamo.State { return dynamo.State{2.0, 0.0} }

func (v *VanDerPol) Derive(state dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	x, y := state[0], state[1]
	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}
	return dynamo.State{y, v.Mu*(1-x*x)*y - x + force}
}

func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{"mu": v.Mu}
}

func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return unknownParam("vanderpol", name)
	}
	v.Mu = value
	return nil
}
