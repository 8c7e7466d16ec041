package rules

import (
	"testing"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/imports"
	"github.com/cwbudde/hamlet/internal/parser"
	"github.com/cwbudde/hamlet/internal/recognizer"
)

func parseAndRecognize(t *testing.T, src string) (*ast.Module, *Context) {
	t.Helper()
	p := parser.New(src)
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	table := recognizer.Recognize(mod)
	ctx := &Context{Module: mod, Table: table, Imports: imports.New(), Options: DefaultOptions()}
	return mod, ctx
}

func TestAssertEqualRewriteToFixture(t *testing.T) {
	src := "def test_x(self):\n    self.assertEqual(a, b)\n"
	mod, ctx := parseAndRecognize(t, src)
	ctx.Dir = XUnitToFixture
	stmt := mod.Items[0].(*ast.FunctionDef).Body[0]

	repl, rej, ok := ApplyStmt(stmt, ctx)
	if !ok {
		t.Fatal("no rule matched")
	}
	if rej != nil {
		t.Fatalf("rule rejected: %+v", rej)
	}
	as, ok := repl.(*ast.AssertStmt)
	if !ok {
		t.Fatalf("repl = %T, want *ast.AssertStmt", repl)
	}
	if as.ExprRaw != "a == b" {
		t.Fatalf("ExprRaw = %q, want %q", as.ExprRaw, "a == b")
	}
	if !as.IsSynthetic() {
		t.Fatal("rewritten node should be synthetic")
	}
}

func TestAssertRewriteToXUnit(t *testing.T) {
	src := "def test_x():\n    assert a == b\n"
	mod, ctx := parseAndRecognize(t, src)
	ctx.Dir = FixtureToXUnit
	stmt := mod.Items[0].(*ast.FunctionDef).Body[0]

	repl, rej, ok := ApplyStmt(stmt, ctx)
	if !ok {
		t.Fatal("no rule matched")
	}
	if rej != nil {
		t.Fatalf("rule rejected: %+v", rej)
	}
	e, ok := repl.(*ast.ExprStmt)
	if !ok {
		t.Fatalf("repl = %T, want *ast.ExprStmt", repl)
	}
	if e.Raw != "self.assertEqual(a, b)" {
		t.Fatalf("Raw = %q, want %q", e.Raw, "self.assertEqual(a, b)")
	}
}

func TestAssertIsNotNoneRewriteToFixture(t *testing.T) {
	src := "def test_x(self):\n    self.assertIsNotNone(db)\n"
	mod, ctx := parseAndRecognize(t, src)
	ctx.Dir = XUnitToFixture
	stmt := mod.Items[0].(*ast.FunctionDef).Body[0]

	repl, _, ok := ApplyStmt(stmt, ctx)
	if !ok {
		t.Fatal("no rule matched")
	}
	as := repl.(*ast.AssertStmt)
	if as.ExprRaw != "db is not None" {
		t.Fatalf("ExprRaw = %q, want %q", as.ExprRaw, "db is not None")
	}
}

func TestRaisesContextManagerRewriteToFixture(t *testing.T) {
	src := "" +
		"def test_x(self):\n" +
		"    with self.assertRaises(ValueError) as ctx:\n" +
		"        do_thing()\n"
	mod, ctx := parseAndRecognize(t, src)
	ctx.Dir = XUnitToFixture
	stmt := mod.Items[0].(*ast.FunctionDef).Body[0]

	repl, rej, ok := ApplyStmt(stmt, ctx)
	if !ok {
		t.Fatal("no rule matched")
	}
	if rej != nil {
		t.Fatalf("rule rejected: %+v", rej)
	}
	w, ok := repl.(*ast.WithStmt)
	if !ok {
		t.Fatalf("repl = %T, want *ast.WithStmt", repl)
	}
	if w.ContextRaw != "pytest.raises(ValueError)" {
		t.Fatalf("ContextRaw = %q, want %q", w.ContextRaw, "pytest.raises(ValueError)")
	}
	if w.AsRaw != "ctx" {
		t.Fatalf("AsRaw = %q, want %q", w.AsRaw, "ctx")
	}
	if len(w.Body) != 1 {
		t.Fatalf("len(Body) = %d, want 1", len(w.Body))
	}
}

func TestRaisesCallFormRewriteToFixture(t *testing.T) {
	src := "def test_x(self):\n    self.assertRaises(ValueError, do_thing, 1, 2)\n"
	mod, ctx := parseAndRecognize(t, src)
	ctx.Dir = XUnitToFixture
	stmt := mod.Items[0].(*ast.FunctionDef).Body[0]

	repl, rej, ok := ApplyStmt(stmt, ctx)
	if !ok {
		t.Fatal("no rule matched")
	}
	if rej != nil {
		t.Fatalf("rule rejected: %+v", rej)
	}
	w, ok := repl.(*ast.WithStmt)
	if !ok {
		t.Fatalf("repl = %T, want *ast.WithStmt", repl)
	}
	if w.ContextRaw != "pytest.raises(ValueError)" {
		t.Fatalf("ContextRaw = %q, want %q", w.ContextRaw, "pytest.raises(ValueError)")
	}
	inner, ok := w.Body[0].(*ast.ExprStmt)
	if !ok || inner.Raw != "do_thing(1, 2)" {
		t.Fatalf("Body[0] = %+v", w.Body[0])
	}
}

func TestSkipMarkerRewriteToFixture(t *testing.T) {
	src := "@skip(\"slow\")\ndef test_x():\n    pass\n"
	mod, ctx := parseAndRecognize(t, src)
	ctx.Dir = XUnitToFixture
	dec := mod.Items[0].(*ast.FunctionDef).Decorators[0]

	repl, rej, ok := ApplyDecorator(dec, ctx)
	if !ok {
		t.Fatal("no rule matched")
	}
	if rej != nil {
		t.Fatalf("rule rejected: %+v", rej)
	}
	if repl.Name != "pytest.mark.skip" {
		t.Fatalf("Name = %q, want pytest.mark.skip", repl.Name)
	}
	if len(repl.Args) != 1 || repl.Args[0] != `reason="slow"` {
		t.Fatalf("Args = %v, want [reason=\"slow\"]", repl.Args)
	}
}

func TestSkipIfMarkerRewriteToXUnit(t *testing.T) {
	src := "@mark.skipif(True, reason=\"flaky\")\ndef test_x():\n    pass\n"
	mod, ctx := parseAndRecognize(t, src)
	ctx.Dir = FixtureToXUnit
	dec := mod.Items[0].(*ast.FunctionDef).Decorators[0]

	repl, rej, ok := ApplyDecorator(dec, ctx)
	if !ok {
		t.Fatal("no rule matched")
	}
	if rej != nil {
		t.Fatalf("rule rejected: %+v", rej)
	}
	if repl.Name != "skipIf" {
		t.Fatalf("Name = %q, want skipIf", repl.Name)
	}
	wantArgs := []string{"True", `"flaky"`}
	if len(repl.Args) != len(wantArgs) {
		t.Fatalf("Args = %v, want %v", repl.Args, wantArgs)
	}
	for i, a := range wantArgs {
		if repl.Args[i] != a {
			t.Fatalf("Args[%d] = %q, want %q", i, repl.Args[i], a)
		}
	}
}
