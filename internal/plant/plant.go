// Package plant provides reference systems used to synthesise training
// trajectories. Continuous plants implement dynamo.Plant and are sampled
// through an integrator; discrete plants implement dynamo.DiscretePlant.
package plant

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/koopid/internal/dynamo"
)

// ErrUnknownParam is returned by SetParam for names a plant does not expose.
var ErrUnknownParam = errors.New("plant: unknown parameter")

// Reference is the part every plant shares: a descriptor naming its
// variables and a nominal initial state.
type Reference interface {
	System() *dynamo.System
	DefaultState() dynamo.State
}

// SetParams applies every entry of values to p in name order and stops at
// the first failure.
func SetParams(p dynamo.Configurable, values map[string]float64) error {
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := p.SetParam(n, values[n]); err != nil {
			return err
		}
	}
	return nil
}

func unknownParam(plant, name string) error {
	return fmt.Errorf("%w: %s has no parameter %q", ErrUnknownParam, plant, name)
}
