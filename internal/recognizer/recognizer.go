// Package recognizer walks a parsed internal/ast.Module in document
// order and populates a fresh internal/testir.Table purely from
// syntactic shape and a small closed set of known names.
// Recognition never fails: anything it does not match is simply left
// unannotated, to be transported verbatim by the driver.
package recognizer

import (
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/testir"
)

// Recognize walks mod's CST and returns a freshly populated Table.
func Recognize(mod *ast.Module) *testir.Table {
	t := testir.New()
	for _, item := range mod.Items {
		recognizeTopLevel(item, t)
	}
	return t
}

func recognizeTopLevel(item ast.TopLevel, t *testir.Table) {
	switch n := item.(type) {
	case *ast.FunctionDef:
		recognizeFunction(n, t)
	case *ast.ClassDef:
		recognizeClass(n, t)
	}
}

func recognizeClass(c *ast.ClassDef, t *testir.Table) {
	var baseHint string
	for _, b := range c.Bases {
		if looksLikeTestCaseBase(b) {
			baseHint = strings.TrimSpace(b)
			break
		}
	}
	isTestClass := strings.HasPrefix(c.Name, "Test") || baseHint != ""

	var memberIDs []ast.NodeID
	for _, m := range c.Body {
		switch mm := m.(type) {
		case *ast.FunctionDef:
			recognizeFunction(mm, t)
			memberIDs = append(memberIDs, mm.ID())
		case *ast.ClassDef:
			recognizeClass(mm, t)
			memberIDs = append(memberIDs, mm.ID())
		}
	}

	if isTestClass {
		t.Classes[c.ID()] = &testir.TestClass{
			NodeID:   c.ID(),
			Name:     c.Name,
			BaseHint: baseHint,
			Members:  memberIDs,
		}
	}
}

func looksLikeTestCaseBase(b string) bool {
	b = strings.TrimSpace(b)
	return b == "TestCase" || strings.HasSuffix(b, ".TestCase")
}

var lifecycleKinds = map[string]testir.LifecycleKind{
	"setUp":         testir.LifecyclePerTestSetup,
	"tearDown":      testir.LifecyclePerTestTeardown,
	"setUpClass":    testir.LifecyclePerClassSetup,
	"tearDownClass": testir.LifecyclePerClassTeardown,
}

// recognizeFunction classifies one function/method in priority order
// (fixture declaration, then lifecycle method, then marker/test-function),
// and recursively recognizes assertions in its body regardless of
// classification.
func recognizeFunction(f *ast.FunctionDef, t *testir.Table) {
	recognizeAssertions(f.Body, t)

	if fx, ok := recognizeFixtureDecl(f); ok {
		t.Fixtures[f.ID()] = fx
		return
	}

	if f.IsMethod {
		if kind, ok := lifecycleKinds[f.Name]; ok {
			t.Lifecycles[f.ID()] = &testir.LifecycleMethod{NodeID: f.ID(), Kind: kind}
			return
		}
	}

	markerIDs, paramVars := recognizeMarkers(f, t)

	if !strings.HasPrefix(f.Name, "test_") {
		return
	}

	params := make([]testir.ParamBinding, 0, len(f.Params))
	for _, p := range f.Params {
		if p.Name == "self" {
			continue
		}
		kind := testir.BindFixture
		if paramVars[p.Name] {
			kind = testir.BindParametrizeVar
		}
		params = append(params, testir.ParamBinding{Name: p.Name, Kind: kind})
	}

	t.Functions[f.ID()] = &testir.TestFunction{
		NodeID:   f.ID(),
		Name:     f.Name,
		Params:   params,
		Markers:  markerIDs,
		IsMethod: f.IsMethod,
	}
}

// recognizeAssertions walks a statement list and any nested block (for,
// with, if/elif/else), recognizing Assertion shapes; a subTest scope is
// recorded as an Assertion of kind AssertSubtestScope.
// It does not descend into nested function/class definitions; those are
// handled as their own top-level/member recognition.
func recognizeAssertions(stmts []ast.Stmt, t *testir.Table) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.AssertStmt:
			recognizeAssertStmt(n, t)
		case *ast.ExprStmt:
			recognizeAssertCall(n, t)
		case *ast.ForStmt:
			recognizeAssertions(n.Body, t)
		case *ast.WithStmt:
			recognizeWithAssertion(n, t)
			recognizeAssertions(n.Body, t)
		case *ast.IfStmt:
			recognizeAssertions(n.Body, t)
			for _, elif := range n.ElifBranches {
				recognizeAssertions(elif.Body, t)
			}
			recognizeAssertions(n.ElseBody, t)
		}
	}
}
