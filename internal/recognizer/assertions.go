package recognizer

import (
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/exprutil"
	"github.com/cwbudde/hamlet/internal/testir"
)

// recognizeAssertStmt handles half of assertion recognition: a top-level `assert <expr>`
// whose shape matches one of the closed set of templates. Anything else
// becomes AssertUnrecognized and is transported verbatim by the driver.
func recognizeAssertStmt(n *ast.AssertStmt, t *testir.Table) {
	kind, left, right := classifyAssertExpr(n.ExprRaw)
	t.Assertions[n.ID()] = &testir.Assertion{
		NodeID:  n.ID(),
		Kind:    kind,
		Left:    left,
		Right:   right,
		Message: n.MessageRaw,
	}
}

func classifyAssertExpr(expr string) (testir.AssertionKind, string, string) {
	e := strings.TrimSpace(expr)

	if lhs, rhs, ok := exprutil.SplitBinaryOp(e, "=="); ok {
		return testir.AssertEqual, lhs, rhs
	}
	if lhs, rhs, ok := exprutil.SplitBinaryOp(e, "!="); ok {
		return testir.AssertNotEqual, lhs, rhs
	}
	if lhs, rhs, ok := exprutil.SplitBinaryOp(e, ">="); ok {
		return testir.AssertGreaterEqual, lhs, rhs
	}
	if lhs, rhs, ok := exprutil.SplitBinaryOp(e, "<="); ok {
		return testir.AssertLessEqual, lhs, rhs
	}
	if lhs, rhs, ok := exprutil.SplitBinaryOp(e, ">"); ok {
		return testir.AssertGreater, lhs, rhs
	}
	if lhs, rhs, ok := exprutil.SplitBinaryOp(e, "<"); ok {
		return testir.AssertLess, lhs, rhs
	}
	if lhs, rhs, ok := exprutil.SplitBinaryOp(e, "is not"); ok && rhs == "None" {
		return testir.AssertIsNotNone, lhs, ""
	}
	if lhs, rhs, ok := exprutil.SplitBinaryOp(e, "is"); ok && rhs == "None" {
		return testir.AssertIsNone, lhs, ""
	}
	if lhs, rhs, ok := exprutil.SplitBinaryOp(e, "not in"); ok {
		return testir.AssertNotIn, lhs, rhs
	}
	if lhs, rhs, ok := exprutil.SplitBinaryOp(e, "in"); ok {
		return testir.AssertIn, lhs, rhs
	}
	if strings.HasPrefix(e, "not ") {
		return testir.AssertFalse, strings.TrimSpace(strings.TrimPrefix(e, "not ")), ""
	}
	if e != "" {
		return testir.AssertTrue, e, ""
	}
	return testir.AssertUnrecognized, e, ""
}

var assertMethodKinds = map[string]testir.AssertionKind{
	"assertEqual":        testir.AssertEqual,
	"assertNotEqual":     testir.AssertNotEqual,
	"assertTrue":         testir.AssertTrue,
	"assertFalse":        testir.AssertFalse,
	"assertGreater":      testir.AssertGreater,
	"assertGreaterEqual": testir.AssertGreaterEqual,
	"assertLess":         testir.AssertLess,
	"assertLessEqual":    testir.AssertLessEqual,
	"assertIn":           testir.AssertIn,
	"assertNotIn":        testir.AssertNotIn,
	"assertIsNone":       testir.AssertIsNone,
	"assertIsNotNone":    testir.AssertIsNotNone,
	"assertRaises":       testir.AssertRaises,
	"assertRaisesRegex":  testir.AssertRaisesMatch,
}

// recognizeAssertCall handles the other half: `self.assertX(...)`
// where X is in the closed set.
func recognizeAssertCall(n *ast.ExprStmt, t *testir.Table) {
	name, args, ok := exprutil.StripOuterCall(n.Raw)
	if !ok || !strings.HasPrefix(name, "self.") {
		return
	}
	kind, ok := assertMethodKinds[strings.TrimPrefix(name, "self.")]
	if !ok {
		return
	}
	a := &testir.Assertion{NodeID: n.ID(), Kind: kind}
	if len(args) > 0 {
		a.Left = args[0]
	}
	if len(args) > 1 {
		a.Right = args[1]
	}
	if len(args) > 2 {
		a.Message = args[2]
	}
	t.Assertions[n.ID()] = a
}

// recognizeWithAssertion handles the context-manager assertion forms that
// only appear as the header of a `with` block: `self.assertRaises(E) as
// ctx`, `pytest.raises(E) as ctx` (bare `raises` included), and
// `self.subTest(...)`/`subTest(...)`.
func recognizeWithAssertion(n *ast.WithStmt, t *testir.Table) {
	name, args, ok := exprutil.StripOuterCall(n.ContextRaw)
	if !ok {
		return
	}
	bare := strings.TrimPrefix(name, "self.")

	switch bare {
	case "assertRaises", "raises", "pytest.raises":
		kind := testir.AssertRaises
		left := ""
		if len(args) > 0 {
			left = args[0]
		}
		for _, arg := range args[1:] {
			if key, value, ok := exprutil.KeywordArg(arg); ok && key == "match" {
				kind = testir.AssertRaisesMatch
				left = left + ", match=" + value
			}
		}
		t.Assertions[n.ID()] = &testir.Assertion{
			NodeID: n.ID(),
			Kind:   kind,
			Left:   left,
			AsVar:  n.AsRaw,
		}
	case "subTest":
		t.Assertions[n.ID()] = &testir.Assertion{
			NodeID: n.ID(),
			Kind:   testir.AssertSubtestScope,
			Left:   strings.Join(args, ", "),
		}
	}
}
