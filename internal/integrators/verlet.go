package integrators

import "github.com/san-kum/koopid/internal/dynamo"

// Verlet is velocity Verlet for states laid out as [positions..., velocities...].
// Plants with an odd state dimension are stepped with Euler instead.
type Verlet struct {
	scratch dynamo.State
	euler   Euler
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(dyn dynamo.Plant, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	if n%2 != 0 {
		return v.euler.Step(dyn, x, u, t, dt)
	}
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}

	result := make(dynamo.State, n)
	dx := dyn.Derive(x, u, t)
	dt2 := dt * dt

	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + 0.5*dx[half+i]*dt2
		v.scratch[i] = result[i]
		v.scratch[half+i] = x[half+i]
	}

	dxNew := dyn.Derive(v.scratch, u, t+dt)

	halfDt := 0.5 * dt
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + (dx[half+i]+dxNew[half+i])*halfDt
	}
	return result
}
