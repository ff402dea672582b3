package integrators

import (
	"testing"

	"github.com/san-kum/koopid/internal/dynamo"
)

func benchmarkStep(b *testing.B, integ dynamo.Integrator) {
	dyn := &forcedOscillator{}
	x := dynamo.State{1.0, 0.0}
	u := dynamo.Control{0.1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(dyn, x, u, 0, 0.01)
	}
}

func BenchmarkEuler(b *testing.B)  { benchmarkStep(b, NewEuler()) }
func BenchmarkRK4(b *testing.B)    { benchmarkStep(b, NewRK4()) }
func BenchmarkRK45(b *testing.B)   { benchmarkStep(b, NewRK45()) }
func BenchmarkVerlet(b *testing.B) { benchmarkStep(b, NewVerlet()) }
