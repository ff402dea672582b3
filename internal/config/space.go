package config

import (
	"strconv"

	"github.com/san-kum/koopid/internal/fit"
)

type Kind int

const (
	Categorical Kind = iota
	Integer
	Float
	Constant
)

func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Integer:
		return "int"
	case Float:
		return "float"
	case Constant:
		return "constant"
	}
	return "unknown"
}

// Hyperparameter describes one tunable option. A conditional hyperparameter
// names its Parent and the ParentValue that activates it.
type Hyperparameter struct {
	Name        string
	Kind        Kind
	Choices     []string
	Lower       float64
	Upper       float64
	Default     string
	Parent      string
	ParentValue string
}

// Conditional reports whether h is only active under its parent.
func (h Hyperparameter) Conditional() bool { return h.Parent != "" }

// Space returns the configuration space exposed for tuning. The
// stability-constrained method is declared in fit but not offered here, and
// product terms are pinned to false.
func Space() []Hyperparameter {
	return []Hyperparameter{
		{
			Name:    KeyMethod,
			Kind:    Categorical,
			Choices: []string{string(fit.LeastSquares), string(fit.Lasso)},
			Default: string(fit.LeastSquares),
		},
		{
			Name:        KeyLassoAlphaLog10,
			Kind:        Float,
			Lower:       MinAlphaLog10,
			Upper:       MaxAlphaLog10,
			Default:     strconv.FormatFloat(DefaultAlphaLog10, 'g', -1, 64),
			Parent:      KeyMethod,
			ParentValue: string(fit.Lasso),
		},
		{
			Name:    KeyPolyBasis,
			Kind:    Categorical,
			Choices: []string{"true", "false"},
			Default: "false",
		},
		{
			Name:        KeyPolyDegree,
			Kind:        Integer,
			Lower:       MinPolyDegree,
			Upper:       MaxPolyDegree,
			Default:     strconv.Itoa(DefaultPolyDegree),
			Parent:      KeyPolyBasis,
			ParentValue: "true",
		},
		{
			Name:    KeyTrigBasis,
			Kind:    Categorical,
			Choices: []string{"true", "false"},
			Default: "false",
		},
		{
			Name:        KeyTrigFreq,
			Kind:        Integer,
			Lower:       MinTrigFreq,
			Upper:       MaxTrigFreq,
			Default:     strconv.Itoa(DefaultTrigFreq),
			Parent:      KeyTrigBasis,
			ParentValue: "true",
		},
		{
			Name:    KeyProductTerms,
			Kind:    Constant,
			Default: "false",
		},
	}
}

// ActiveIn filters space down to the hyperparameters active for o.
func ActiveIn(space []Hyperparameter, o Options) []Hyperparameter {
	active := make(map[string]bool)
	for _, k := range o.Active() {
		active[k] = true
	}
	out := make([]Hyperparameter, 0, len(space))
	for _, h := range space {
		if active[h.Name] {
			out = append(out, h)
		}
	}
	return out
}
