// Package integrators advances continuous plants by one sample interval.
//
// Integrators may keep scratch buffers between calls, so an instance must
// not be shared between goroutines; use New to obtain one per rollout.
package integrators

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/koopid/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler":  func() dynamo.Integrator { return NewEuler() },
	"rk4":    func() dynamo.Integrator { return NewRK4() },
	"rk45":   func() dynamo.Integrator { return NewRK45() },
	"verlet": func() dynamo.Integrator { return NewVerlet() },
}

// New returns a fresh integrator by name.
func New(name string) (dynamo.Integrator, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown integrator %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return f(), nil
}

// Names lists the registered integrators in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
