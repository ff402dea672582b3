package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/koopid/internal/dynamo"
	"github.com/san-kum/koopid/internal/integrators"
	"github.com/san-kum/koopid/internal/metrics"
	"github.com/san-kum/koopid/internal/plant"
	"github.com/san-kum/koopid/internal/sim"
)

// Registry maps plant names to constructors.
type Registry struct {
	plants map[string]func() plant.Reference
}

func NewRegistry() *Registry {
	r := &Registry{
		plants: make(map[string]func() plant.Reference),
	}

	r.plants["linear"] = func() plant.Reference { return plant.NewLinear() }
	r.plants["pendulum"] = func() plant.Reference { return plant.NewPendulum() }
	r.plants["duffing"] = func() plant.Reference { return plant.NewDuffing() }
	r.plants["vanderpol"] = func() plant.Reference { return plant.NewVanDerPol() }

	return r
}

// Register adds or replaces a plant constructor.
func (r *Registry) Register(name string, fn func() plant.Reference) {
	r.plants[name] = fn
}

// GetPlant builds a fresh plant and applies params to it.
func (r *Registry) GetPlant(name string, params map[string]float64) (plant.Reference, error) {
	fn, ok := r.plants[name]
	if !ok {
		return nil, fmt.Errorf("unknown plant: %s", name)
	}
	p := fn()
	if len(params) == 0 {
		return p, nil
	}
	c, ok := p.(dynamo.Configurable)
	if !ok {
		return nil, fmt.Errorf("plant %s has no tunable parameters", name)
	}
	if err := plant.SetParams(c, params); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Registry) ListPlants() []string {
	names := make([]string, 0, len(r.plants))
	for name := range r.plants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Discrete returns p as a discrete plant, sampling continuous plants every
// dt with a fresh integrator.
func Discrete(p plant.Reference, integrator string, dt float64) (dynamo.DiscretePlant, error) {
	switch v := p.(type) {
	case dynamo.DiscretePlant:
		return v, nil
	case dynamo.Plant:
		integ, err := integrators.New(integrator)
		if err != nil {
			return nil, err
		}
		return sim.Discretize(v, integ, dt), nil
	default:
		return nil, fmt.Errorf("plant %T is neither discrete nor continuous", p)
	}
}

// DefaultMetrics returns the closed-loop metrics that apply to p.
func DefaultMetrics(p plant.Reference) []metrics.Metric {
	ms := []metrics.Metric{
		metrics.NewStability(1e3),
		metrics.NewControlEffort(),
	}
	if ec, ok := p.(metrics.EnergyComputer); ok {
		ms = append(ms, metrics.NewEnergy(ec))
	}
	return ms
}
