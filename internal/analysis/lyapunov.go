package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/koopid/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent of an unforced
// sampled plant by following x0 and a copy displaced by d0 along the first
// coordinate. The separation is renormalised to d0 after every sample, so
// the estimate is the mean log stretch per unit time. A positive value
// indicates chaos.
func LyapunovExponent(p dynamo.DiscretePlant, x0 dynamo.State, steps int, dt, d0 float64) float64 {
	if len(x0) == 0 || steps <= 0 || dt <= 0 || d0 <= 0 {
		return 0
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += d0
	u := make(dynamo.Control, p.ControlDim())

	sumLog := 0.0
	count := 0
	for i := 0; i < steps; i++ {
		x = p.Next(x, u)
		xp = p.Next(xp, u)
		if !x.IsValid() || !xp.IsValid() {
			break
		}

		sep := floats.Distance(xp, x, 2)
		if sep == 0 {
			// trajectories merged; restart the perturbation
			xp = x.Clone()
			xp[0] += d0
			continue
		}
		sumLog += math.Log(sep / d0)
		count++

		scale := d0 / sep
		for j := range xp {
			xp[j] = x[j] + (xp[j]-x[j])*scale
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}
