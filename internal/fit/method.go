package fit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedMethod is returned for declared-but-unimplemented or
// unrecognised fit methods.
var ErrUnsupportedMethod = errors.New("fit: unsupported method")

// Method selects the regression backend.
type Method string

const (
	LeastSquares Method = "lstsq"
	Lasso        Method = "lasso"
	// Stable is the stability-constrained fit. It is declared so that
	// configurations naming it parse, but fitting with it always fails.
	Stable Method = "stable"
)

// Methods lists every declared method in a stable order.
func Methods() []Method {
	return []Method{LeastSquares, Lasso, Stable}
}

// ParseMethod maps a configuration value onto a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lstsq", "least-squares", "least_squares":
		return LeastSquares, nil
	case "lasso":
		return Lasso, nil
	case "stable", "stableab", "stability-constrained":
		return Stable, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
}

// Implemented reports whether Fit has a working body for m.
func (m Method) Implemented() bool {
	return m == LeastSquares || m == Lasso
}

func (m Method) String() string { return string(m) }
