package rules

import (
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/exprutil"
	"github.com/cwbudde/hamlet/internal/testir"
)

// xunitRaisesCall and fixtureRaisesCall are the call targets a
// context-manager form renders under, per target dialect.
const (
	xunitRaisesCall   = "self.assertRaises"
	fixtureRaisesCall = "pytest.raises"
)

func isRaisesCall(name string) bool {
	bare := strings.TrimPrefix(name, "self.")
	return bare == "assertRaises" || bare == "raises" || bare == "pytest.raises"
}

// guardRaisesCallForm matches the xUnit call form `self.assertRaises(E,
// fn, *args)` (and, symmetrically, a stray `raises(E, fn, *args)` call
// form reaching the fixture dialect), always rewritten to the
// context-manager form regardless of direction ("rewritten to the
// context-manager form in both directions").
func guardRaisesCallForm(s ast.Stmt, ctx *Context) bool {
	e, ok := s.(*ast.ExprStmt)
	if !ok {
		return false
	}
	name, args, ok := exprutil.StripOuterCall(e.Raw)
	if !ok || !isRaisesCall(name) {
		return false
	}
	return len(args) >= 2
}

func rewriteRaisesCallForm(targetCall string) func(ast.Stmt, *Context) (ast.Stmt, *Reject) {
	return func(s ast.Stmt, ctx *Context) (ast.Stmt, *Reject) {
		e := s.(*ast.ExprStmt)
		_, args, ok := exprutil.StripOuterCall(e.Raw)
		if !ok || len(args) < 2 {
			return nil, &Reject{Reason: "malformed assertRaises call form"}
		}
		exc := args[0]
		fn := args[1]
		rest := args[2:]
		callExpr := fn + "(" + strings.Join(rest, ", ") + ")"

		inner := &ast.ExprStmt{
			BaseNode: ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true},
			Raw:      callExpr,
		}
		return &ast.WithStmt{
			BaseNode:   newSyntheticStmt(ctx, s),
			ContextRaw: targetCall + "(" + exc + ")",
			Body:       []ast.Stmt{inner},
		}, nil
	}
}

// guardRaisesContextManager matches a `with self.assertRaises(E) as ctx:`
// or `with raises(E) as ctx:` block already recognized as an
// AssertRaises/AssertRaisesMatch construct.
func guardRaisesContextManager(s ast.Stmt, ctx *Context) bool {
	w, ok := s.(*ast.WithStmt)
	if !ok {
		return false
	}
	a, ok := ctx.Table.Assertions[w.ID()]
	return ok && (a.Kind == testir.AssertRaises || a.Kind == testir.AssertRaisesMatch)
}

func rewriteRaisesContextManager(targetCall string) func(ast.Stmt, *Context) (ast.Stmt, *Reject) {
	return func(s ast.Stmt, ctx *Context) (ast.Stmt, *Reject) {
		w := s.(*ast.WithStmt)
		_, args, ok := exprutil.StripOuterCall(w.ContextRaw)
		if !ok {
			return nil, &Reject{Reason: "unparseable raises context-manager call"}
		}
		out := newSyntheticStmt(ctx, s)
		return &ast.WithStmt{
			BaseNode:   out,
			ContextRaw: targetCall + "(" + strings.Join(args, ", ") + ")",
			AsRaw:      w.AsRaw,
			Body:       w.Body,
		}, nil
	}
}

// raisesRules covers both the call-form and context-manager-form
// assertRaises/raises rewrites.
var raisesRules = []StmtRule{
	{
		Name:      "raises-call-form-to-fixture",
		Direction: XUnitToFixture,
		Guard:     guardRaisesCallForm,
		Rewrite:   rewriteRaisesCallForm(fixtureRaisesCall),
	},
	{
		Name:      "raises-call-form-to-xunit",
		Direction: FixtureToXUnit,
		Guard:     guardRaisesCallForm,
		Rewrite:   rewriteRaisesCallForm(xunitRaisesCall),
	},
	{
		Name:      "raises-context-manager-to-fixture",
		Direction: XUnitToFixture,
		Guard:     guardRaisesContextManager,
		Rewrite:   rewriteRaisesContextManager(fixtureRaisesCall),
	},
	{
		Name:      "raises-context-manager-to-xunit",
		Direction: FixtureToXUnit,
		Guard:     guardRaisesContextManager,
		Rewrite:   rewriteRaisesContextManager(xunitRaisesCall),
	},
}
