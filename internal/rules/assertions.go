package rules

import (
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/testir"
)

// assertForm describes one closed AssertionKind's rendering on each side of
// the dialect boundary: the xUnit method name and, for binary kinds, the
// operator; unary kinds set form instead.
type assertForm struct {
	kind   testir.AssertionKind
	method string // "assertEqual", "assertTrue", ...
	op     string // "==", ">", "in", ... ("" for unary forms)
	form   string // "truthy" | "falsy" | "is_none" | "is_not_none" ("" for binary forms)
}

var assertForms = []assertForm{
	{testir.AssertEqual, "assertEqual", "==", ""},
	{testir.AssertNotEqual, "assertNotEqual", "!=", ""},
	{testir.AssertGreater, "assertGreater", ">", ""},
	{testir.AssertGreaterEqual, "assertGreaterEqual", ">=", ""},
	{testir.AssertLess, "assertLess", "<", ""},
	{testir.AssertLessEqual, "assertLessEqual", "<=", ""},
	{testir.AssertIn, "assertIn", "in", ""},
	{testir.AssertNotIn, "assertNotIn", "not in", ""},
	{testir.AssertTrue, "assertTrue", "", "truthy"},
	{testir.AssertFalse, "assertFalse", "", "falsy"},
	{testir.AssertIsNone, "assertIsNone", "", "is_none"},
	{testir.AssertIsNotNone, "assertIsNotNone", "", "is_not_none"},
}

// exprRaw renders the `assert <expr>` form of a recognized assertion.
func (f assertForm) exprRaw(a *testir.Assertion) string {
	switch f.form {
	case "truthy":
		return a.Left
	case "falsy":
		return "not " + a.Left
	case "is_none":
		return a.Left + " is None"
	case "is_not_none":
		return a.Left + " is not None"
	default:
		return a.Left + " " + f.op + " " + a.Right
	}
}

// callRaw renders the `self.assertX(...)` form of a recognized assertion.
func (f assertForm) callRaw(a *testir.Assertion) string {
	args := []string{a.Left}
	if f.op != "" {
		args = append(args, a.Right)
	}
	if a.Message != "" {
		args = append(args, a.Message)
	}
	return "self." + f.method + "(" + strings.Join(args, ", ") + ")"
}

func newSyntheticStmt(ctx *Context, original ast.Stmt) ast.BaseNode {
	return ast.BaseNode{
		Id:        ctx.Module.NextID(),
		StartPos:  original.Start(),
		EndPos:    original.End(),
		Trivia:    original.GetTrivia(),
		Synthetic: true,
	}
}

func (f assertForm) guardToFixture(s ast.Stmt, ctx *Context) bool {
	e, ok := s.(*ast.ExprStmt)
	if !ok {
		return false
	}
	a, ok := ctx.Table.Assertions[e.ID()]
	return ok && a.Kind == f.kind
}

func (f assertForm) rewriteToFixture(s ast.Stmt, ctx *Context) (ast.Stmt, *Reject) {
	a := ctx.Table.Assertions[s.ID()]
	return &ast.AssertStmt{
		BaseNode:   newSyntheticStmt(ctx, s),
		ExprRaw:    f.exprRaw(a),
		MessageRaw: a.Message,
	}, nil
}

func (f assertForm) guardToXUnit(s ast.Stmt, ctx *Context) bool {
	a2, ok := s.(*ast.AssertStmt)
	if !ok {
		return false
	}
	a, ok := ctx.Table.Assertions[a2.ID()]
	return ok && a.Kind == f.kind
}

func (f assertForm) rewriteToXUnit(s ast.Stmt, ctx *Context) (ast.Stmt, *Reject) {
	a := ctx.Table.Assertions[s.ID()]
	return &ast.ExprStmt{
		BaseNode: newSyntheticStmt(ctx, s),
		Raw:      f.callRaw(a),
	}, nil
}

func buildAssertionRules() []StmtRule {
	var out []StmtRule
	for _, f := range assertForms {
		f := f
		out = append(out,
			StmtRule{
				Name:      "assert-" + f.method + "-to-fixture",
				Direction: XUnitToFixture,
				Guard:     f.guardToFixture,
				Rewrite:   f.rewriteToFixture,
			},
			StmtRule{
				Name:      "assert-" + f.method + "-to-xunit",
				Direction: FixtureToXUnit,
				Guard:     f.guardToXUnit,
				Rewrite:   f.rewriteToXUnit,
			},
		)
	}
	return out
}

// assertionRules covers the twelve closed, symmetric AssertionKind forms.
// assertRaises is handled separately in raises.go since its
// context-manager form spans a Stmt-shape change (ExprStmt <-> WithStmt).
var assertionRules = buildAssertionRules()
