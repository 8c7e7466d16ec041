package rules

import (
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/testir"
)

func newSyntheticDecorator(ctx *Context, original *ast.Decorator, name string, args []string) *ast.Decorator {
	return &ast.Decorator{
		BaseNode: ast.BaseNode{
			Id:        ctx.Module.NextID(),
			StartPos:  original.Start(),
			EndPos:    original.End(),
			Trivia:    original.GetTrivia(),
			Synthetic: true,
		},
		Name: name,
		Args: args,
	}
}

func markerOf(d *ast.Decorator, ctx *Context, kind testir.MarkerKind) (*testir.Marker, bool) {
	m, ok := ctx.Table.Markers[d.ID()]
	if !ok || m.Kind != kind {
		return nil, false
	}
	return m, true
}

// --- skip(reason) <-> pytest.mark.skip(reason=...) ---

func guardSkip(dir Direction) func(*ast.Decorator, *Context) bool {
	return func(d *ast.Decorator, ctx *Context) bool {
		if ctx.Dir != dir {
			return false
		}
		_, ok := markerOf(d, ctx, testir.MarkerSkip)
		return ok
	}
}

func rewriteSkipToFixture(d *ast.Decorator, ctx *Context) (*ast.Decorator, *Reject) {
	m, _ := markerOf(d, ctx, testir.MarkerSkip)
	var args []string
	if m.Reason != "" {
		args = []string{"reason=" + m.Reason}
	}
	return newSyntheticDecorator(ctx, d, "pytest.mark.skip", args), nil
}

func rewriteSkipToXUnit(d *ast.Decorator, ctx *Context) (*ast.Decorator, *Reject) {
	m, _ := markerOf(d, ctx, testir.MarkerSkip)
	var args []string
	if m.Reason != "" {
		args = []string{m.Reason}
	}
	return newSyntheticDecorator(ctx, d, "skip", args), nil
}

// --- skipIf(cond, reason) <-> pytest.mark.skipif(cond, reason=...) ---

func guardSkipIf(dir Direction) func(*ast.Decorator, *Context) bool {
	return func(d *ast.Decorator, ctx *Context) bool {
		if ctx.Dir != dir {
			return false
		}
		_, ok := markerOf(d, ctx, testir.MarkerSkipIf)
		return ok
	}
}

func rewriteSkipIfToFixture(d *ast.Decorator, ctx *Context) (*ast.Decorator, *Reject) {
	m, _ := markerOf(d, ctx, testir.MarkerSkipIf)
	args := []string{m.Condition}
	if m.Reason != "" {
		args = append(args, "reason="+m.Reason)
	}
	return newSyntheticDecorator(ctx, d, "pytest.mark.skipif", args), nil
}

func rewriteSkipIfToXUnit(d *ast.Decorator, ctx *Context) (*ast.Decorator, *Reject) {
	m, _ := markerOf(d, ctx, testir.MarkerSkipIf)
	args := []string{m.Condition}
	if m.Reason != "" {
		args = append(args, m.Reason)
	}
	return newSyntheticDecorator(ctx, d, "skipIf", args), nil
}

// --- skipUnless(cond, reason) -> pytest.mark.skipif(not cond,
// reason=...) ---
// One-directional: the inverse of a round-tripped skipUnless is
// a plain skipIf(not cond, ...), which the skipIf rule above already
// covers on the way back; there is no distinct "this was a skipUnless"
// marker left on the fixture side to recover from.

func guardSkipUnlessToFixture(d *ast.Decorator, ctx *Context) bool {
	if ctx.Dir != XUnitToFixture {
		return false
	}
	_, ok := markerOf(d, ctx, testir.MarkerSkipUnless)
	return ok
}

func negate(cond string) string {
	cond = strings.TrimSpace(cond)
	if strings.HasPrefix(cond, "not ") {
		return strings.TrimSpace(strings.TrimPrefix(cond, "not "))
	}
	return "not " + cond
}

func rewriteSkipUnlessToFixture(d *ast.Decorator, ctx *Context) (*ast.Decorator, *Reject) {
	m, _ := markerOf(d, ctx, testir.MarkerSkipUnless)
	args := []string{negate(m.Condition)}
	if m.Reason != "" {
		args = append(args, "reason="+m.Reason)
	}
	return newSyntheticDecorator(ctx, d, "pytest.mark.skipif", args), nil
}

// --- parametrize: never rewritten toward xUnit, always a soft
// annotation ---

func guardParametrizeToXUnit(d *ast.Decorator, ctx *Context) bool {
	if ctx.Dir != FixtureToXUnit {
		return false
	}
	_, ok := markerOf(d, ctx, testir.MarkerParametrize)
	return ok
}

func rewriteParametrizeToXUnit(d *ast.Decorator, ctx *Context) (*ast.Decorator, *Reject) {
	return nil, &Reject{
		Category: testir.CategoryUnconvertibleParametrize,
		Summary:  "pytest.mark.parametrize has no xUnit equivalent",
		Guidance: "use subTest or individual methods",
	}
}

// --- nose2-style with_setup: always a soft annotation, xUnit source
// only ---

func guardNoseWithSetup(d *ast.Decorator, ctx *Context) bool {
	if ctx.Dir != XUnitToFixture {
		return false
	}
	m, ok := ctx.Table.Markers[d.ID()]
	return ok && m.Kind == testir.MarkerCustom && lastSegmentPublic(m.Name) == "with_setup"
}

func rewriteNoseWithSetup(d *ast.Decorator, ctx *Context) (*ast.Decorator, *Reject) {
	return nil, &Reject{
		Category: testir.CategoryUnconvertibleNosePlugin,
		Summary:  "nose2 with_setup decorator has no fixture-dialect equivalent",
		Guidance: "rewrite using a fixture or manual setup/teardown call",
	}
}

// lastSegmentPublic mirrors recognizer.lastSegment (unexported there) for
// use from this package.
func lastSegmentPublic(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

var markerRules = []DecoratorRule{
	{Name: "skip-to-fixture", Direction: XUnitToFixture, Guard: guardSkip(XUnitToFixture), Rewrite: rewriteSkipToFixture},
	{Name: "skip-to-xunit", Direction: FixtureToXUnit, Guard: guardSkip(FixtureToXUnit), Rewrite: rewriteSkipToXUnit},
	{Name: "skipif-to-fixture", Direction: XUnitToFixture, Guard: guardSkipIf(XUnitToFixture), Rewrite: rewriteSkipIfToFixture},
	{Name: "skipif-to-xunit", Direction: FixtureToXUnit, Guard: guardSkipIf(FixtureToXUnit), Rewrite: rewriteSkipIfToXUnit},
	{Name: "skipunless-to-fixture", Direction: XUnitToFixture, Guard: guardSkipUnlessToFixture, Rewrite: rewriteSkipUnlessToFixture},
	{Name: "parametrize-to-xunit", Direction: FixtureToXUnit, Guard: guardParametrizeToXUnit, Rewrite: rewriteParametrizeToXUnit},
	{Name: "nose-with-setup", Direction: XUnitToFixture, Guard: guardNoseWithSetup, Rewrite: rewriteNoseWithSetup},
}

// SplitParamNames is exported for internal/rules/classfn.go's subTest ->
// parametrize rewrite, which needs to build a parametrize decorator's
// "names" argument the same way the recognizer parses one apart
// (internal/recognizer.splitParamNames, unexported there).
func SplitParamNames(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), "'\"")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
