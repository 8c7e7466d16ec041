package recognizer

import (
	"strconv"
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/exprutil"
	"github.com/cwbudde/hamlet/internal/testir"
)

// recognizeFixtureDecl recognizes a function decorated with `fixture`,
// `fixture(scope=...)`, or `fixture(params=...)` (bare or dotted, e.g.
// `pytest.fixture`).
func recognizeFixtureDecl(f *ast.FunctionDef) (*testir.Fixture, bool) {
	var dec *ast.Decorator
	for _, d := range f.Decorators {
		if d.Name == "fixture" || strings.HasSuffix(d.Name, ".fixture") {
			dec = d
			break
		}
	}
	if dec == nil {
		return nil, false
	}

	fx := &testir.Fixture{Name: f.Name}
	scope := "function"
	autouse := false
	for _, arg := range dec.Args {
		key, value, ok := exprutil.KeywordArg(arg)
		if !ok {
			continue
		}
		switch key {
		case "scope":
			scope = strings.Trim(value, "'\"")
		case "autouse":
			if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
				autouse = b
			}
		case "params":
			fx.Params = splitParamsValue(value)
		}
	}
	fx.Scope = scopeFromName(scope)
	fx.Autouse = autouse

	if containsYield(f.Body) {
		fx.Shape = testir.ShapeYield
	} else {
		fx.Shape = testir.ShapeReturn
	}

	for _, p := range f.Params {
		if p.Name == "" || p.Name == "request" {
			continue
		}
		fx.DependsOn = append(fx.DependsOn, p.Name)
	}

	return fx, true
}

func scopeFromName(name string) testir.Scope {
	switch name {
	case "class":
		return testir.ScopePerClass
	case "session":
		return testir.ScopePerSession
	default:
		return testir.ScopePerTest
	}
}

// splitParamsValue parses a `params=[...]` keyword argument's raw value
// into individual opaque row fragments.
func splitParamsValue(raw string) []string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		raw = raw[1 : len(raw)-1]
	}
	return exprutil.SplitTopLevel(raw, ',')
}

func containsYield(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.YieldStmt:
			return true
		case *ast.ForStmt:
			if containsYield(n.Body) {
				return true
			}
		case *ast.WithStmt:
			if containsYield(n.Body) {
				return true
			}
		case *ast.IfStmt:
			if containsYield(n.Body) {
				return true
			}
			for _, elif := range n.ElifBranches {
				if containsYield(elif.Body) {
					return true
				}
			}
			if containsYield(n.ElseBody) {
				return true
			}
		}
	}
	return false
}
