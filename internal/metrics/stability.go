package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/koopid/internal/dynamo"
)

// Stability is the fraction of steps whose state stays within threshold in
// every component.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	if len(x) > 0 && (floats.Norm(x, math.Inf(1)) > s.threshold || !x.IsValid()) {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
