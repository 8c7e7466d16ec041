package parser

import (
	"testing"

	"github.com/cwbudde/hamlet/internal/ast"
)

func parseOne(t *testing.T, src string) *ast.Module {
	t.Helper()
	p := New(src)
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return mod
}

func TestParseImports(t *testing.T) {
	mod := parseOne(t, "import unittest\nfrom pytest import fixture, mark\n")
	if len(mod.Imports) != 2 {
		t.Fatalf("len(Imports) = %d, want 2", len(mod.Imports))
	}
	if mod.Imports[0].Kind != ast.ImportPlain || mod.Imports[0].Module != "unittest" {
		t.Fatalf("Imports[0] = %+v", mod.Imports[0])
	}
	if mod.Imports[1].Kind != ast.ImportFrom || mod.Imports[1].Module != "pytest" {
		t.Fatalf("Imports[1] = %+v", mod.Imports[1])
	}
	if len(mod.Imports[1].Names) != 2 || mod.Imports[1].Names[0] != "fixture" || mod.Imports[1].Names[1] != "mark" {
		t.Fatalf("Imports[1].Names = %v", mod.Imports[1].Names)
	}
}

func TestParseFixtureFunctionWithDecoratorArgs(t *testing.T) {
	src := "@pytest.fixture(scope=\"class\", autouse=True)\ndef db():\n    yield 1\n"
	mod := parseOne(t, src)
	if len(mod.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(mod.Items))
	}
	f, ok := mod.Items[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("Items[0] = %T, want *ast.FunctionDef", mod.Items[0])
	}
	if f.Name != "db" {
		t.Fatalf("Name = %q, want db", f.Name)
	}
	if len(f.Decorators) != 1 || f.Decorators[0].Name != "pytest.fixture" {
		t.Fatalf("Decorators = %+v", f.Decorators)
	}
	wantArgs := []string{`scope="class"`, "autouse=True"}
	if len(f.Decorators[0].Args) != len(wantArgs) {
		t.Fatalf("Args = %v, want %v", f.Decorators[0].Args, wantArgs)
	}
	for i, a := range wantArgs {
		if f.Decorators[0].Args[i] != a {
			t.Fatalf("Args[%d] = %q, want %q", i, f.Decorators[0].Args[i], a)
		}
	}
	if len(f.Body) != 1 {
		t.Fatalf("len(Body) = %d, want 1", len(f.Body))
	}
	y, ok := f.Body[0].(*ast.YieldStmt)
	if !ok {
		t.Fatalf("Body[0] = %T, want *ast.YieldStmt", f.Body[0])
	}
	if y.ValueRaw != "1" {
		t.Fatalf("ValueRaw = %q, want %q", y.ValueRaw, "1")
	}
}

func TestParseTestClassWithSetUpAndAssertEqual(t *testing.T) {
	src := "" +
		"class TestThing(unittest.TestCase):\n" +
		"    def setUp(self):\n" +
		"        self.x = 1\n" +
		"\n" +
		"    def test_value(self):\n" +
		"        self.assertEqual(self.x, 1)\n"
	mod := parseOne(t, src)
	if len(mod.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(mod.Items))
	}
	c, ok := mod.Items[0].(*ast.ClassDef)
	if !ok {
		t.Fatalf("Items[0] = %T, want *ast.ClassDef", mod.Items[0])
	}
	if c.Name != "TestThing" || len(c.Bases) != 1 || c.Bases[0] != "unittest.TestCase" {
		t.Fatalf("ClassDef = %+v", c)
	}
	if len(c.Body) != 2 {
		t.Fatalf("len(Body) = %d, want 2", len(c.Body))
	}
	setUp, ok := c.Body[0].(*ast.FunctionDef)
	if !ok || setUp.Name != "setUp" || !setUp.IsMethod {
		t.Fatalf("Body[0] = %+v", c.Body[0])
	}
	assign, ok := setUp.Body[0].(*ast.AssignStmt)
	if !ok || !assign.IsSelfAttr || assign.AttrName != "x" || assign.ValueRaw != "1" {
		t.Fatalf("setUp body[0] = %+v", setUp.Body[0])
	}
	testFn, ok := c.Body[1].(*ast.FunctionDef)
	if !ok || testFn.Name != "test_value" {
		t.Fatalf("Body[1] = %+v", c.Body[1])
	}
	expr, ok := testFn.Body[0].(*ast.ExprStmt)
	if !ok || expr.Raw != "self.assertEqual(self.x, 1)" {
		t.Fatalf("test_value body[0] = %+v", testFn.Body[0])
	}
}

func TestParseForWithSubTest(t *testing.T) {
	src := "" +
		"def test_values():\n" +
		"    for v in [1, 2, 3]:\n" +
		"        with self.subTest(v=v):\n" +
		"            assert v > 0\n"
	mod := parseOne(t, src)
	f := mod.Items[0].(*ast.FunctionDef)
	forStmt, ok := f.Body[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("Body[0] = %T, want *ast.ForStmt", f.Body[0])
	}
	if forStmt.VarRaw != "v" || forStmt.IterRaw != "[1, 2, 3]" {
		t.Fatalf("ForStmt = %+v", forStmt)
	}
	withStmt, ok := forStmt.Body[0].(*ast.WithStmt)
	if !ok || withStmt.ContextRaw != "self.subTest(v=v)" {
		t.Fatalf("ForStmt.Body[0] = %+v", forStmt.Body[0])
	}
	assertStmt, ok := withStmt.Body[0].(*ast.AssertStmt)
	if !ok || assertStmt.ExprRaw != "v > 0" {
		t.Fatalf("WithStmt.Body[0] = %+v", withStmt.Body[0])
	}
}

func TestParsePreservesCommentsAsTrivia(t *testing.T) {
	src := "" +
		"# module docstring replacement\n" +
		"import unittest\n" +
		"\n" +
		"\n" +
		"class TestThing(unittest.TestCase):\n" +
		"    def test_ok(self):\n" +
		"        x = 1  # trailing note\n"
	mod := parseOne(t, src)
	if len(mod.Imports[0].GetTrivia().LeadingComments) != 1 {
		t.Fatalf("import leading comments = %v", mod.Imports[0].GetTrivia().LeadingComments)
	}
	c := mod.Items[0].(*ast.ClassDef)
	if c.GetTrivia().BlankLinesBefore != 2 {
		t.Fatalf("BlankLinesBefore = %d, want 2", c.GetTrivia().BlankLinesBefore)
	}
	testFn := c.Body[0].(*ast.FunctionDef)
	assign := testFn.Body[0].(*ast.AssignStmt)
	if assign.GetTrivia().TrailingComment != "# trailing note" {
		t.Fatalf("TrailingComment = %q", assign.GetTrivia().TrailingComment)
	}
}

func TestParseOpaqueStatementTransportedVerbatim(t *testing.T) {
	src := "" +
		"def test_weird():\n" +
		"    while True:\n" +
		"        break\n"
	mod := parseOne(t, src)
	f := mod.Items[0].(*ast.FunctionDef)
	if len(f.Body) != 1 {
		t.Fatalf("len(Body) = %d, want 1", len(f.Body))
	}
	if _, ok := f.Body[0].(*ast.Opaque); !ok {
		t.Fatalf("Body[0] = %T, want *ast.Opaque (while has no dedicated node type)", f.Body[0])
	}
}
