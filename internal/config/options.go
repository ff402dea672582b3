package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/koopid/internal/fit"
)

// ErrInvalidConfig indicates an option value outside its recognised domain.
var ErrInvalidConfig = errors.New("config: invalid option")

// Option names as exchanged with a hyperparameter-search collaborator.
const (
	KeyMethod          = "method"
	KeyLassoAlphaLog10 = "lasso_alpha_log10"
	KeyPolyBasis       = "poly_basis"
	KeyPolyDegree      = "poly_degree"
	KeyTrigBasis       = "trig_basis"
	KeyTrigFreq        = "trig_freq"
	KeyProductTerms    = "product_terms"
)

const (
	MinPolyDegree = 2
	MaxPolyDegree = 8
	MinTrigFreq   = 1
	MaxTrigFreq   = 8
	MinAlphaLog10 = -10.0
	MaxAlphaLog10 = 2.0

	DefaultPolyDegree = 3
	DefaultTrigFreq   = 1
	DefaultAlphaLog10 = 0.0
)

// Options is the model configuration. Dependent fields are only meaningful
// when their parent enables them: LassoAlphaLog10 when Method is lasso,
// PolyDegree when PolyBasis, TrigFreq when TrigBasis.
type Options struct {
	Method          fit.Method `yaml:"method" json:"method"`
	LassoAlphaLog10 float64    `yaml:"lasso_alpha_log10" json:"lasso_alpha_log10"`
	PolyBasis       bool       `yaml:"poly_basis" json:"poly_basis"`
	PolyDegree      int        `yaml:"poly_degree" json:"poly_degree"`
	TrigBasis       bool       `yaml:"trig_basis" json:"trig_basis"`
	TrigFreq        int        `yaml:"trig_freq" json:"trig_freq"`
	ProductTerms    bool       `yaml:"product_terms" json:"product_terms"`
}

func DefaultOptions() Options {
	return Options{
		Method:          fit.LeastSquares,
		LassoAlphaLog10: DefaultAlphaLog10,
		PolyDegree:      DefaultPolyDegree,
		TrigFreq:        DefaultTrigFreq,
	}
}

// Validate checks every active option. Inactive dependent values are not
// inspected.
func (o Options) Validate() error {
	m, err := fit.ParseMethod(string(o.Method))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, KeyMethod, err)
	}
	if m == fit.Lasso {
		a := o.LassoAlphaLog10
		if math.IsNaN(a) || a < MinAlphaLog10 || a > MaxAlphaLog10 {
			return fmt.Errorf("%w: %s=%v outside [%v, %v]", ErrInvalidConfig, KeyLassoAlphaLog10, a, MinAlphaLog10, MaxAlphaLog10)
		}
	}
	if o.PolyBasis && (o.PolyDegree < MinPolyDegree || o.PolyDegree > MaxPolyDegree) {
		return fmt.Errorf("%w: %s=%d outside [%d, %d]", ErrInvalidConfig, KeyPolyDegree, o.PolyDegree, MinPolyDegree, MaxPolyDegree)
	}
	if o.TrigBasis && (o.TrigFreq < MinTrigFreq || o.TrigFreq > MaxTrigFreq) {
		return fmt.Errorf("%w: %s=%d outside [%d, %d]", ErrInvalidConfig, KeyTrigFreq, o.TrigFreq, MinTrigFreq, MaxTrigFreq)
	}
	return nil
}

// Normalize returns a copy with the method in canonical form.
func (o Options) Normalize() (Options, error) {
	if err := o.Validate(); err != nil {
		return o, err
	}
	m, _ := fit.ParseMethod(string(o.Method))
	o.Method = m
	return o, nil
}

// Alpha is the lasso penalty strength 10^LassoAlphaLog10.
func (o Options) Alpha() float64 {
	return math.Pow(10, o.LassoAlphaLog10)
}

// Active lists the option names that are meaningful for o, in declaration
// order.
func (o Options) Active() []string {
	names := []string{KeyMethod}
	if m, err := fit.ParseMethod(string(o.Method)); err == nil && m == fit.Lasso {
		names = append(names, KeyLassoAlphaLog10)
	}
	names = append(names, KeyPolyBasis)
	if o.PolyBasis {
		names = append(names, KeyPolyDegree)
	}
	names = append(names, KeyTrigBasis)
	if o.TrigBasis {
		names = append(names, KeyTrigFreq)
	}
	return append(names, KeyProductTerms)
}

// ToMap renders the active options, booleans as "true"/"false" strings the
// way categorical hyperparameters are exchanged.
func (o Options) ToMap() map[string]any {
	out := make(map[string]any)
	for _, k := range o.Active() {
		switch k {
		case KeyMethod:
			out[k] = string(o.Method)
		case KeyLassoAlphaLog10:
			out[k] = o.LassoAlphaLog10
		case KeyPolyBasis:
			out[k] = strconv.FormatBool(o.PolyBasis)
		case KeyPolyDegree:
			out[k] = o.PolyDegree
		case KeyTrigBasis:
			out[k] = strconv.FormatBool(o.TrigBasis)
		case KeyTrigFreq:
			out[k] = o.TrigFreq
		case KeyProductTerms:
			out[k] = strconv.FormatBool(o.ProductTerms)
		}
	}
	return out
}

// FromMap builds Options from a name/value mapping on top of the defaults.
// Unknown keys and keys whose parent is inactive are ignored; present active
// values of the wrong type or out of range are rejected.
func FromMap(values map[string]any) (Options, error) {
	o := DefaultOptions()

	if v, ok := values[KeyMethod]; ok {
		s, ok := v.(string)
		if !ok {
			return o, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidConfig, KeyMethod, v)
		}
		o.Method = fit.Method(s)
	}
	var err error
	if o.PolyBasis, err = lookupBool(values, KeyPolyBasis, o.PolyBasis); err != nil {
		return o, err
	}
	if o.TrigBasis, err = lookupBool(values, KeyTrigBasis, o.TrigBasis); err != nil {
		return o, err
	}
	if o.ProductTerms, err = lookupBool(values, KeyProductTerms, o.ProductTerms); err != nil {
		return o, err
	}

	if m, perr := fit.ParseMethod(string(o.Method)); perr == nil && m == fit.Lasso {
		if o.LassoAlphaLog10, err = lookupFloat(values, KeyLassoAlphaLog10, o.LassoAlphaLog10); err != nil {
			return o, err
		}
	}
	if o.PolyBasis {
		if o.PolyDegree, err = lookupInt(values, KeyPolyDegree, o.PolyDegree); err != nil {
			return o, err
		}
	}
	if o.TrigBasis {
		if o.TrigFreq, err = lookupInt(values, KeyTrigFreq, o.TrigFreq); err != nil {
			return o, err
		}
	}

	return o.Normalize()
}

func lookupBool(values map[string]any, key string, def bool) (bool, error) {
	v, ok := values[key]
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return def, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, b)
		}
		return parsed, nil
	}
	return def, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidConfig, key, v)
}

func lookupInt(values map[string]any, key string, def int) (int, error) {
	v, ok := values[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return def, fmt.Errorf("%w: %s=%v is not an integer", ErrInvalidConfig, key, n)
		}
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return def, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, n)
		}
		return parsed, nil
	}
	return def, fmt.Errorf("%w: %s must be an integer, got %T", ErrInvalidConfig, key, v)
}

func lookupFloat(values map[string]any, key string, def float64) (float64, error) {
	v, ok := values[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return def, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, n)
		}
		return parsed, nil
	}
	return def, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidConfig, key, v)
}
