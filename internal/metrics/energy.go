package metrics

import (
	"math"

	"github.com/san-kum/koopid/internal/dynamo"
)

// EnergyComputer is implemented by plants with a conserved quantity.
type EnergyComputer interface {
	Energy(x dynamo.State) float64
}

// Energy tracks the drift of a plant's energy relative to the first
// observed step.
type Energy struct {
	name    string
	plant   EnergyComputer
	initial float64
	last    float64
	samples int
}

func NewEnergy(p EnergyComputer) *Energy {
	return &Energy{name: "energy_drift", plant: p}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	v := e.plant.Energy(x)
	if e.samples == 0 {
		e.initial = v
	}
	e.last = v
	e.samples++
}

// Value is |E_last - E_0|, relative to |E_0| when that is non-zero.
func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	d := math.Abs(e.last - e.initial)
	if e.initial != 0 {
		return d / math.Abs(e.initial)
	}
	return d
}

func (e *Energy) Reset() {
	e.initial, e.last = 0, 0
	e.samples = 0
}
