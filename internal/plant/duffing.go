package plant

import "github.com/san-kum/koopid/internal/dynamo"

var duffingSystem = dynamo.MustSystem([]string{"x", "v"}, []string{"force"})

// Duffing is the cubic oscillator
//
//	x'' = -δ·x' - α·x - β·x³ + u
//
// with the periodic drive replaced by the control input.
type Duffing struct {
	Alpha, Beta, Delta float64
}

func NewDuffing() *Duffing {
	return &Duffing{Alpha: -1.0, Beta: 1.0, Delta: 0.3}
}

func (d *Duffing) StateDim() int              { return 2 }
func (d *Duffing) ControlDim() int            { return 1 }
func (d *Duffing) System() *dynamo.System     { return duffingSystem }
func (d *Duffing) DefaultState() dynamo.State { return dynamo.State{1.0, 0.0} }

func (d *Duffing) Derive(s dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	x, v := s[0], s[1]
	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}
	return dynamo.State{v, -d.Delta*v - d.Alpha*x - d.Beta*x*x*x + force}
}

func (d *Duffing) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	return 0.5*v*v + 0.5*d.Alpha*x*x + 0.25*d.Beta*x*x*x*x
}

func (d *Duffing) GetParams() map[string]float64 {
	return map[string]float64{"alpha": d.Alpha, "beta": d.Beta, "delta": d.Delta}
}

func (d *Duffing) SetParam(n string, v float64) error {
	switch n {
	case "alpha":
		d.Alpha = v
	case "beta":
		d.Beta = v
	case "delta":
		d.Delta = v
	default:
		return unknownParam("duffing", n)
	}
	return nil
}
