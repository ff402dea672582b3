package config

import (
	"sort"

	"github.com/san-kum/koopid/internal/fit"
)

// Presets are named model configurations.
var Presets = map[string]Options{
	"linear": {
		Method: fit.LeastSquares, PolyDegree: DefaultPolyDegree, TrigFreq: DefaultTrigFreq,
	},
	"poly2": {
		Method: fit.LeastSquares, PolyBasis: true, PolyDegree: 2, TrigFreq: DefaultTrigFreq,
	},
	"poly3": {
		Method: fit.LeastSquares, PolyBasis: true, PolyDegree: 3, TrigFreq: DefaultTrigFreq,
	},
	"trig": {
		Method: fit.LeastSquares, PolyDegree: DefaultPolyDegree, TrigBasis: true, TrigFreq: 2,
	},
	"poly-trig": {
		Method: fit.LeastSquares, PolyBasis: true, PolyDegree: 2, TrigBasis: true, TrigFreq: 1,
	},
	"sparse": {
		Method: fit.Lasso, LassoAlphaLog10: -3, PolyBasis: true, PolyDegree: 3, TrigBasis: true, TrigFreq: 1,
	},
}

func GetPreset(name string) (Options, bool) {
	o, ok := Presets[name]
	return o, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
