// Package rules is the rule registry: named, directional rewrite
// rules, each a guard plus a rewrite, applied by the transformation driver
// (internal/transform) in registry order until no recognized node fires
// one.
package rules

import (
	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/imports"
	"github.com/cwbudde/hamlet/internal/testir"
)

// Direction is one of the two transform directions.
type Direction int

const (
	XUnitToFixture Direction = iota
	FixtureToXUnit
)

// Options carries the tunable behavior every guard and rewrite sees.
type Options struct {
	ClassNameStrategy      string // default "per-function"; not read: generated classes are always named per function
	AutouseInlineThreshold int    // default 3
	PreserveUnknownMarkers bool   // default true
}

// DefaultOptions returns the defaults every entry point starts from.
func DefaultOptions() Options {
	return Options{
		ClassNameStrategy:      "per-function",
		AutouseInlineThreshold: 3,
		PreserveUnknownMarkers: true,
	}
}

// FixtureUsage counts, across every generated xUnit class, how many times
// a named fixture was successfully inlined into a lifecycle method
// (Consumed) versus how many times it had to stay a plain method
// parameter because some consumer could not inline it (Retained). The
// transform driver uses this after ConvertFreeFunctionToXUnitClass has
// run over every recognized test function to
// decide whether the fixture's own top-level definition is now dead code
// (Consumed > 0, Retained == 0) or must be kept verbatim.
type FixtureUsage struct {
	Consumed int
	Retained int
}

// Context is the shared state threaded through every guard and rewrite:
// the module being transformed, its Test-IR side table, the import
// reconciler accumulating requirements, and the active options.
type Context struct {
	Module       *ast.Module
	Table        *testir.Table
	Imports      *imports.Reconciler
	Options      Options
	Dir          Direction
	FixtureUsage map[string]*FixtureUsage
}

// NoteFixtureConsumed records that a fixture named name was inlined into
// a generated lifecycle method.
func (c *Context) NoteFixtureConsumed(name string) {
	if c.FixtureUsage == nil {
		c.FixtureUsage = map[string]*FixtureUsage{}
	}
	u, ok := c.FixtureUsage[name]
	if !ok {
		u = &FixtureUsage{}
		c.FixtureUsage[name] = u
	}
	u.Consumed++
}

// NoteFixtureRetained records that a fixture named name had to stay a
// plain method parameter on at least one generated test method.
func (c *Context) NoteFixtureRetained(name string) {
	if c.FixtureUsage == nil {
		c.FixtureUsage = map[string]*FixtureUsage{}
	}
	u, ok := c.FixtureUsage[name]
	if !ok {
		u = &FixtureUsage{}
		c.FixtureUsage[name] = u
	}
	u.Retained++
}

// Reject is returned by a rewrite that declines to handle a node it
// matched the guard for; the driver then consults internal/annotate.
// Category/Summary/Guidance let a rejecting rule hand the driver the exact
// category and annotation text for the node it recognized, since a
// single generic fallback category can't cover every shape a rejected
// construct might take (a malformed assertRaises call is UNCONVERTIBLE-
// ASSERTION; a nose2 plugin decorator is UNCONVERTIBLE-NOSE-PLUGIN). A
// zero-value Category leaves the driver to apply its per-callsite default.
type Reject struct {
	Reason   string
	Category testir.UnconvertibleCategory
	Summary  string
	Guidance string
}

// StmtRule rewrites one statement into a replacement statement (or
// rejects). This is the shape assertion rewrites use ("Assertion
// rewrites").
type StmtRule struct {
	Name      string
	Direction Direction
	Guard     func(s ast.Stmt, ctx *Context) bool
	Rewrite   func(s ast.Stmt, ctx *Context) (ast.Stmt, *Reject)
}

// DecoratorRule rewrites one decorator into a replacement decorator (or
// rejects). This is the shape skip-marker rewrites use ("Skip
// markers").
type DecoratorRule struct {
	Name      string
	Direction Direction
	Guard     func(d *ast.Decorator, ctx *Context) bool
	Rewrite   func(d *ast.Decorator, ctx *Context) (*ast.Decorator, *Reject)
}

// StmtRegistry is the fixed, ordered list of statement-level rules for a
// direction. Order matters: it is the dispatch priority of "apply the
// first rule whose guard accepts.
func StmtRegistry(dir Direction) []StmtRule {
	all := append(append([]StmtRule{}, assertionRules...), raisesRules...)
	out := make([]StmtRule, 0, len(all))
	for _, r := range all {
		if r.Direction == dir {
			out = append(out, r)
		}
	}
	return out
}

// DecoratorRegistry is the fixed, ordered list of decorator-level rules
// for a direction.
func DecoratorRegistry(dir Direction) []DecoratorRule {
	out := make([]DecoratorRule, 0, len(markerRules))
	for _, r := range markerRules {
		if r.Direction == dir {
			out = append(out, r)
		}
	}
	return out
}

// ApplyStmt runs the first matching rule in registry order against s. ok
// is false if no rule's guard accepted s (the caller then annotates).
func ApplyStmt(s ast.Stmt, ctx *Context) (ast.Stmt, *Reject, bool) {
	for _, r := range StmtRegistry(ctx.Dir) {
		if r.Guard(s, ctx) {
			repl, rej := r.Rewrite(s, ctx)
			return repl, rej, true
		}
	}
	return nil, nil, false
}

// ApplyDecorator runs the first matching decorator rule in registry
// order against d.
func ApplyDecorator(d *ast.Decorator, ctx *Context) (*ast.Decorator, *Reject, bool) {
	for _, r := range DecoratorRegistry(ctx.Dir) {
		if r.Guard(d, ctx) {
			repl, rej := r.Rewrite(d, ctx)
			return repl, rej, true
		}
	}
	return nil, nil, false
}

// RewriteStmtsInPlace applies ApplyStmt to every top-level statement in
// stmts (not descending into nested blocks; callers recurse themselves
// so nested for/with/if bodies are visited in document order too),
// returning the rewritten list. Statements with no matching rule, or
// whose matching rule rejected, are left unchanged; a rejection is
// reported via onReject for the caller to annotate.
func RewriteStmtsInPlace(stmts []ast.Stmt, ctx *Context, onReject func(ast.Stmt, *Reject)) []ast.Stmt {
	out := make([]ast.Stmt, len(stmts))
	for i, s := range stmts {
		repl, rej, matched := ApplyStmt(s, ctx)
		var result ast.Stmt
		switch {
		case !matched:
			result = s
		case rej != nil:
			onReject(s, rej)
			result = s
		default:
			result = repl
		}

		// Recurse into whatever nested block the (possibly rewritten)
		// statement carries, so a header-level rewrite (e.g. the raises
		// context-manager rename) still gets its body visited.
		switch n := result.(type) {
		case *ast.ForStmt:
			n.Body = RewriteStmtsInPlace(n.Body, ctx, onReject)
		case *ast.WithStmt:
			n.Body = RewriteStmtsInPlace(n.Body, ctx, onReject)
		case *ast.IfStmt:
			n.Body = RewriteStmtsInPlace(n.Body, ctx, onReject)
			for j := range n.ElifBranches {
				n.ElifBranches[j].Body = RewriteStmtsInPlace(n.ElifBranches[j].Body, ctx, onReject)
			}
			n.ElseBody = RewriteStmtsInPlace(n.ElseBody, ctx, onReject)
		}
		out[i] = result
	}
	return out
}
