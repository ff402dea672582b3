// Package logging wires logr loggers for the CLI and tests.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// Verbosity levels passed to logger.V.
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// New returns a logger writing one line per entry to w. Entries above
// verbosity are dropped.
func New(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{
		LogTimestamp: true,
		Verbosity:    verbosity,
	})
}

// NewStderr is New on os.Stderr.
func NewStderr(verbosity int) logr.Logger {
	return New(os.Stderr, verbosity)
}

// NewTestLogger returns a logger that writes to w at TRACE verbosity
// without timestamps, so test output is stable.
func NewTestLogger(w io.Writer) logr.Logger {
	return funcr.New(func(prefix, args string) {
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: TRACE})
}
