package control

import (
	"math/rand"

	"github.com/san-kum/koopid/internal/dynamo"
)

// Random draws every control component uniformly from [-Amplitude, Amplitude].
// The sequence depends only on the seed.
type Random struct {
	Amplitude float64
	dim       int
	rng       *rand.Rand
}

func NewRandom(dim int, amplitude float64, seed int64) *Random {
	return &Random{
		Amplitude: amplitude,
		dim:       dim,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (r *Random) Compute(_ dynamo.State, _ float64) dynamo.Control {
	u := make(dynamo.Control, r.dim)
	for i := range u {
		u[i] = (2*r.rng.Float64() - 1) * r.Amplitude
	}
	return u
}
