// Package analysis characterises identified models and the plants they
// were fitted to.
//
//   - [Spectrum]: eigen-decomposition of a lifted A into discrete modes
//   - [SpectralRadius]: the largest mode magnitude
//   - [LyapunovExponent]: largest exponent of a sampled plant via
//     trajectory separation
//
// # Stability
//
// A discrete-time lifted model is asymptotically stable when every mode
// lies strictly inside the unit circle:
//
//	spec, err := analysis.Spectrum(A, dt)
//	if err == nil && spec.Stable() {
//	    // rollouts decay
//	}
package analysis
