// Package hamlet is the public facade for embedding the transpiler as a
// library: a thin re-export of the internal/transform contract plus the
// option and diagnostic types callers need, so nothing outside this
// module ever imports internal/... directly.
package hamlet

import (
	"github.com/cwbudde/hamlet/internal/diagnostics"
	"github.com/cwbudde/hamlet/internal/transform"
)

// Direction selects which of the two dialects source is read as.
type Direction = transform.Direction

const (
	// XUnitToFixture rewrites unittest.TestCase classes into free
	// functions and fixtures.
	XUnitToFixture Direction = transform.XUnitToFixture
	// FixtureToXUnit rewrites free test functions and fixtures into
	// unittest.TestCase classes.
	FixtureToXUnit Direction = transform.FixtureToXUnit
)

// Options controls the tunable parts of the transform.
type Options = transform.Options

// DefaultOptions returns Hamlet's documented option defaults.
func DefaultOptions() Options { return transform.DefaultOptions() }

// Diagnostic is one soft annotation or hard failure the engine reported.
type Diagnostic = diagnostics.Diagnostic

// Result is the output of a successful Convert call: the rewritten
// source plus every soft diagnostic the engine emitted along the way.
type Result struct {
	Output      []byte
	Diagnostics []*Diagnostic
}

// Convert transforms source from one dialect to the other. file is a
// display name used only for diagnostic formatting; pass "" if none is
// available. A non-nil error is always a hard failure (PARSE-ERROR or
// FIXTURE-CYCLE) and carries no output; err itself is a *Diagnostic
// and can be formatted with its own Error()/Format methods.
func Convert(source []byte, dir Direction, opts Options, file string) (Result, error) {
	res, err := transform.Transform(source, dir, opts, file)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: res.Output, Diagnostics: res.Diagnostics}, nil
}
