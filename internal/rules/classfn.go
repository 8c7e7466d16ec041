package rules

import (
	"strings"

	"github.com/cwbudde/hamlet/internal/annotate"
	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/fixturegraph"
	"github.com/cwbudde/hamlet/internal/testir"
)

// --- xUnit -> Fixture: class flattening ---

// XUnitClassConversion is the flattened module-level replacement for one
// recognized xUnit TestClass. table must already reflect the assertion and
// marker rewrites applied to c's members; assertion rewrites run before
// class flattening so inlined bodies carry target-dialect assertions.
type XUnitClassConversion struct {
	Items []ast.TopLevel
}

// ConvertXUnitClassToFixture flattens c into free functions plus whatever
// autouse fixture(s) its setUp/tearDown collapse into.
func ConvertXUnitClassToFixture(c *ast.ClassDef, table *testir.Table, ctx *Context) *XUnitClassConversion {
	var setUp, tearDown *ast.FunctionDef
	var testMethods, helperMethods []*ast.FunctionDef
	var passthrough []ast.TopLevel

	for _, m := range c.Body {
		f, ok := m.(*ast.FunctionDef)
		if !ok {
			// Nested class or other unhandled member shape: no flat
			// fixture-dialect equivalent.
			if node, ok := m.(ast.Node); ok {
				annotate.Apply(node, table, testir.CategoryUnconvertibleFixture,
					"class member has no fixture-dialect equivalent",
					"manually relocate this member out of the generated module section")
			}
			if tl, ok := m.(ast.TopLevel); ok {
				passthrough = append(passthrough, tl)
			}
			continue
		}
		switch lc := table.Lifecycles[f.ID()]; {
		case lc != nil && lc.Kind == testir.LifecyclePerTestSetup:
			setUp = f
		case lc != nil && lc.Kind == testir.LifecyclePerTestTeardown:
			tearDown = f
		case table.Functions[f.ID()] != nil:
			testMethods = append(testMethods, f)
		default:
			helperMethods = append(helperMethods, f)
		}
	}

	fixtureDefs, bindings := buildAutouseFixtures(c, setUp, tearDown, ctx)

	var items []ast.TopLevel
	for _, fx := range fixtureDefs {
		items = append(items, fx)
	}
	for _, h := range helperMethods {
		items = append(items, convertMethodToFreeFunction(h, bindings, ctx))
	}
	for _, t := range testMethods {
		applySubtestToParametrize(t, table, ctx)
		items = append(items, convertMethodToFreeFunction(t, bindings, ctx))
	}
	items = append(items, passthrough...)

	// The class header line disappears, but its leading comments and blank
	// lines must not: they move onto the first item emitted in its place.
	if ct := c.GetTrivia(); len(items) > 0 && (len(ct.LeadingComments) > 0 || ct.BlankLinesBefore > 0) {
		var first ast.Node
		if fd, ok := items[0].(*ast.FunctionDef); ok && len(fd.Decorators) > 0 {
			// Decorators render above the def line, so the carried trivia
			// has to land on the first decorator to stay on top.
			first = fd.Decorators[0]
		} else if n, ok := items[0].(ast.Node); ok {
			first = n
		}
		if first != nil {
			ft := first.GetTrivia()
			ft.BlankLinesBefore += ct.BlankLinesBefore
			ft.LeadingComments = append(append([]string{}, ct.LeadingComments...), ft.LeadingComments...)
			first.SetTrivia(ft)
		}
	}

	return &XUnitClassConversion{Items: items}
}

type setupAttr struct {
	Name     string
	ValueRaw string
}

// attrBinding records, for one self.<attr> reference, what text replaces
// it in a converted function body and which fixture-injected parameter
// name (if any) that use implies.
type attrBinding struct {
	Replacement string
	Param       string
}

func extractSetupAttrs(body []ast.Stmt) (attrs []setupAttr, pureAssignments bool) {
	pureAssignments = true
	for _, s := range body {
		if a, ok := s.(*ast.AssignStmt); ok && a.IsSelfAttr {
			attrs = append(attrs, setupAttr{Name: a.AttrName, ValueRaw: a.ValueRaw})
			continue
		}
		pureAssignments = false
	}
	return
}

// buildAutouseFixtures performs the setUp/tearDown collapse: one
// per-test autouse fixture per setUp attribute when setUp is a short,
// pure sequence of self.* assignments (at most
// Options.AutouseInlineThreshold of them, the default 3); otherwise a
// single fixture returning a types.SimpleNamespace bundle, keeping test
// signatures small.
func buildAutouseFixtures(c *ast.ClassDef, setUp, tearDown *ast.FunctionDef, ctx *Context) ([]*ast.FunctionDef, map[string]attrBinding) {
	bindings := map[string]attrBinding{}
	if setUp == nil && tearDown == nil {
		return nil, bindings
	}

	var attrs []setupAttr
	pureAssignments := true
	if setUp != nil {
		attrs, pureAssignments = extractSetupAttrs(setUp.Body)
	}
	hasTeardown := tearDown != nil && len(tearDown.Body) > 0

	if pureAssignments && len(attrs) >= 1 && len(attrs) <= ctx.Options.AutouseInlineThreshold {
		for _, a := range attrs {
			bindings[a.Name] = attrBinding{Replacement: a.Name, Param: a.Name}
		}
		var out []*ast.FunctionDef
		for i, a := range attrs {
			var teardownBody []ast.Stmt
			if hasTeardown && i == len(attrs)-1 {
				teardownBody = rewriteStmtsText(tearDown.Body, func(raw string) string {
					return substituteSelfAttrs(raw, bindings, nil)
				})
			}
			out = append(out, buildFixtureFunction(a.Name, a.ValueRaw, teardownBody, testir.ScopePerTest, ctx))
		}
		return out, bindings
	}

	bundleName := bundleFixtureName(c.Name)
	var body []ast.Stmt
	var ctorArgs []string
	if setUp != nil {
		for _, s := range setUp.Body {
			if a, ok := s.(*ast.AssignStmt); ok && a.IsSelfAttr {
				bindings[a.AttrName] = attrBinding{Replacement: bundleName + "." + a.AttrName, Param: bundleName}
				ctorArgs = append(ctorArgs, a.AttrName+"="+a.ValueRaw)
				continue
			}
			body = append(body, s)
		}
	}
	body = append(body, &ast.AssignStmt{
		BaseNode:  ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true},
		TargetRaw: bundleName,
		ValueRaw:  "types.SimpleNamespace(" + strings.Join(ctorArgs, ", ") + ")",
	})
	ctx.Imports.Require("types")

	// Always yield-shape (see buildFixtureFunction).
	body = append(body, &ast.YieldStmt{BaseNode: ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true}, ValueRaw: bundleName})
	if hasTeardown {
		body = append(body, rewriteStmtsText(tearDown.Body, func(raw string) string {
			return substituteSelfAttrs(raw, bindings, nil)
		})...)
	}

	fx := &ast.FunctionDef{
		BaseNode:   ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true},
		Name:       bundleName,
		Body:       body,
		Decorators: []*ast.Decorator{fixtureDecorator(ctx, "function", true)},
	}
	return []*ast.FunctionDef{fx}, bindings
}

func bundleFixtureName(className string) string {
	name := strings.TrimPrefix(className, "Test")
	if name == "" {
		return "fixture_bundle"
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func buildFixtureFunction(name, returnValueRaw string, teardownBody []ast.Stmt, scope testir.Scope, ctx *Context) *ast.FunctionDef {
	// The setUp/tearDown collapse is always yield-shape (body of setUp,
	// then yield, then body of tearDown), even when there is no tearDown
	// to contribute a post-yield half.
	body := []ast.Stmt{&ast.YieldStmt{BaseNode: ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true}, ValueRaw: returnValueRaw}}
	body = append(body, teardownBody...)
	scopeName := scopeKeyword(scope)
	return &ast.FunctionDef{
		BaseNode:   ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true},
		Name:       name,
		Body:       body,
		Decorators: []*ast.Decorator{fixtureDecorator(ctx, scopeName, true)},
	}
}

func scopeKeyword(scope testir.Scope) string {
	switch scope {
	case testir.ScopePerClass:
		return "class"
	case testir.ScopePerSession:
		return "session"
	default:
		return "function"
	}
}

func fixtureDecorator(ctx *Context, scope string, autouse bool) *ast.Decorator {
	var args []string
	if scope != "function" {
		args = append(args, `scope="`+scope+`"`)
	}
	if autouse {
		args = append(args, "autouse=True")
	}
	return &ast.Decorator{
		BaseNode: ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true},
		Name:     "pytest.fixture",
		Args:     args,
	}
}

// convertMethodToFreeFunction drops `self`, applies bindings to every
// self.<attr> reference in the body (renaming to a bare identifier or a
// bundle attribute access), and appends exactly the fixture parameters
// actually referenced.
func convertMethodToFreeFunction(f *ast.FunctionDef, bindings map[string]attrBinding, ctx *Context) *ast.FunctionDef {
	params := make([]*ast.Param, 0, len(f.Params))
	for _, p := range f.Params {
		if p.Name == "self" {
			continue
		}
		params = append(params, p)
	}

	usedParams := map[string]bool{}
	var order []string
	replace := func(raw string) string {
		return substituteSelfAttrs(raw, bindings, func(param string) {
			if param != "" && !usedParams[param] {
				usedParams[param] = true
				order = append(order, param)
			}
		})
	}

	body := rewriteStmtsText(f.Body, replace)
	for _, p := range order {
		params = append(params, &ast.Param{Name: p})
	}

	return &ast.FunctionDef{
		BaseNode:         ast.BaseNode{Id: ctx.Module.NextID(), StartPos: f.Start(), EndPos: f.End(), Trivia: f.GetTrivia(), Synthetic: true},
		Decorators:       f.Decorators,
		Name:             f.Name,
		Params:           params,
		ReturnAnnotation: f.ReturnAnnotation,
		Body:             body,
		IsMethod:         false,
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func substituteSelfAttrs(raw string, bindings map[string]attrBinding, onUse func(param string)) string {
	const prefix = "self."
	var sb strings.Builder
	i := 0
	for i < len(raw) {
		if strings.HasPrefix(raw[i:], prefix) && (i == 0 || !isIdentByte(raw[i-1])) {
			j := i + len(prefix)
			start := j
			for j < len(raw) && isIdentByte(raw[j]) {
				j++
			}
			name := raw[start:j]
			if b, ok := bindings[name]; ok {
				sb.WriteString(b.Replacement)
				if onUse != nil {
					onUse(b.Param)
				}
				i = j
				continue
			}
		}
		sb.WriteByte(raw[i])
		i++
	}
	return sb.String()
}

func identReplacer(name, replacement string) func(string) string {
	return func(raw string) string {
		var sb strings.Builder
		i := 0
		for i < len(raw) {
			if strings.HasPrefix(raw[i:], name) &&
				(i == 0 || !isIdentByte(raw[i-1])) &&
				(i+len(name) >= len(raw) || !isIdentByte(raw[i+len(name)])) {
				sb.WriteString(replacement)
				i += len(name)
				continue
			}
			sb.WriteByte(raw[i])
			i++
		}
		return sb.String()
	}
}

// rewriteStmtsText applies replace to every raw text field of stmts,
// recursing into nested blocks, and returns the rewritten copies. Opaque
// statements are rewritten in place on their Original text, since a
// construct this parser never structured (while/try/nested def) may
// still reference a renamed self.<attr>.
func rewriteStmtsText(stmts []ast.Stmt, replace func(string) string) []ast.Stmt {
	out := make([]ast.Stmt, len(stmts))
	for i, s := range stmts {
		switch n := s.(type) {
		case *ast.AssignStmt:
			nn := *n
			nn.TargetRaw = replace(n.TargetRaw)
			nn.ValueRaw = replace(n.ValueRaw)
			out[i] = &nn
		case *ast.ExprStmt:
			nn := *n
			nn.Raw = replace(n.Raw)
			out[i] = &nn
		case *ast.AssertStmt:
			nn := *n
			nn.ExprRaw = replace(n.ExprRaw)
			nn.MessageRaw = replace(n.MessageRaw)
			out[i] = &nn
		case *ast.ReturnStmt:
			nn := *n
			nn.ValueRaw = replace(n.ValueRaw)
			out[i] = &nn
		case *ast.YieldStmt:
			nn := *n
			nn.ValueRaw = replace(n.ValueRaw)
			out[i] = &nn
		case *ast.RaiseStmt:
			nn := *n
			nn.Raw = replace(n.Raw)
			out[i] = &nn
		case *ast.ForStmt:
			nn := *n
			nn.IterRaw = replace(n.IterRaw)
			nn.Body = rewriteStmtsText(n.Body, replace)
			out[i] = &nn
		case *ast.WithStmt:
			nn := *n
			nn.ContextRaw = replace(n.ContextRaw)
			nn.Body = rewriteStmtsText(n.Body, replace)
			out[i] = &nn
		case *ast.IfStmt:
			nn := *n
			nn.CondRaw = replace(n.CondRaw)
			nn.Body = rewriteStmtsText(n.Body, replace)
			if len(n.ElifBranches) > 0 {
				nn.ElifBranches = make([]ast.ElifBranch, len(n.ElifBranches))
				for j, e := range n.ElifBranches {
					nn.ElifBranches[j] = ast.ElifBranch{CondRaw: replace(e.CondRaw), Body: rewriteStmtsText(e.Body, replace)}
				}
			}
			if n.ElseBody != nil {
				nn.ElseBody = rewriteStmtsText(n.ElseBody, replace)
			}
			out[i] = &nn
		case *ast.Opaque:
			nn := *n
			nn.Original = replace(n.Original)
			out[i] = &nn
		default:
			out[i] = s
		}
	}
	return out
}

// applySubtestToParametrize rewrites a subTest loop to parametrize: a
// test whose body is exactly a for-loop over an iterable with a
// single-assertion subTest scope becomes a parametrize decorator over
// the same iterable. Any other shape is left untouched with no
// annotation, since the original is still a valid test as written.
func applySubtestToParametrize(f *ast.FunctionDef, table *testir.Table, ctx *Context) {
	if len(f.Body) != 1 {
		return
	}
	forStmt, ok := f.Body[0].(*ast.ForStmt)
	if !ok || len(forStmt.Body) != 1 {
		return
	}
	withStmt, ok := forStmt.Body[0].(*ast.WithStmt)
	if !ok {
		return
	}
	a, ok := table.Assertions[withStmt.ID()]
	if !ok || a.Kind != testir.AssertSubtestScope {
		return
	}
	if len(withStmt.Body) != 1 {
		return
	}
	assertStmt, ok := withStmt.Body[0].(*ast.AssertStmt)
	if !ok {
		return
	}

	names := SplitParamNames(forStmt.VarRaw)
	nameArg := forStmt.VarRaw
	if !strings.ContainsAny(nameArg, `"'`) {
		nameArg = `"` + forStmt.VarRaw + `"`
	}
	dec := &ast.Decorator{
		BaseNode: ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true},
		Name:     "pytest.mark.parametrize",
		Args:     []string{nameArg, forStmt.IterRaw},
	}
	f.Decorators = append(f.Decorators, dec)
	f.Body = []ast.Stmt{assertStmt}
	for _, n := range names {
		f.Params = append(f.Params, &ast.Param{Name: n})
	}
}

// --- Fixture -> xUnit ---

// FrameworkHoleCategory maps a well-known fixture-framework name with no
// free-standing declaration in the module to its specific annotation
// category.
func FrameworkHoleCategory(name string) (testir.UnconvertibleCategory, bool) {
	switch name {
	case "monkeypatch":
		return testir.CategoryUnconvertibleMonkeypatch, true
	case "capsys", "capfd":
		return testir.CategoryUnconvertibleCapture, true
	case "tmp_path", "tmpdir":
		return testir.CategoryUnconvertibleTmpPath, true
	}
	return "", false
}

// fixtureIndex collects a module's recognized fixtures by name.
type fixtureIndex struct {
	defs  map[string]*ast.FunctionDef
	specs map[string]*testir.Fixture
}

// BuildFixtureIndex is exported so the transform driver can build it once
// per module and share it across every generated class.
func BuildFixtureIndex(mod *ast.Module, table *testir.Table) *fixtureIndex {
	idx := &fixtureIndex{defs: map[string]*ast.FunctionDef{}, specs: map[string]*testir.Fixture{}}
	for _, item := range mod.Items {
		f, ok := item.(*ast.FunctionDef)
		if !ok {
			continue
		}
		if fx, ok := table.Fixtures[f.ID()]; ok {
			idx.defs[fx.Name] = f
			idx.specs[fx.Name] = fx
		}
	}
	return idx
}

// foldFixtureIntoMethod converts a non-autouse or parametrized fixture
// definition into a method of the generated class that consumes it: the
// definition is not left behind as a bare top-level
// function, it is relocated into the class with `self` added to its
// parameter list, its `@pytest.fixture(...)` decorator and annotation
// retained immediately above it.
func foldFixtureIntoMethod(def *ast.FunctionDef, table *testir.Table) *ast.FunctionDef {
	for _, d := range def.Decorators {
		if d.Name == "fixture" || strings.HasSuffix(d.Name, ".fixture") {
			annotate.Apply(d, table, testir.CategoryUnconvertibleFixture,
				"pytest fixture without autouse=True has no direct unittest equivalent",
				"Manually convert this fixture to setUp/tearDown or pass the value directly")
			break
		}
	}

	params := make([]*ast.Param, 0, len(def.Params)+1)
	params = append(params, &ast.Param{Name: "self"})
	params = append(params, def.Params...)

	method := *def
	method.Params = params
	method.IsMethod = true
	return &method
}

func bindingFor(tf *testir.TestFunction, name string) testir.ParamBinding {
	if tf != nil {
		for _, p := range tf.Params {
			if p.Name == name {
				return p
			}
		}
	}
	return testir.ParamBinding{Name: name, Kind: testir.BindFixture}
}

func isFrameworkHoleName(name string) bool {
	_, ok := FrameworkHoleCategory(name)
	return ok
}

func rawTextOf(s ast.Stmt) string {
	switch n := s.(type) {
	case *ast.AssignStmt:
		return n.TargetRaw + " " + n.ValueRaw
	case *ast.ExprStmt:
		return n.Raw
	case *ast.AssertStmt:
		return n.ExprRaw + " " + n.MessageRaw
	case *ast.ReturnStmt:
		return n.ValueRaw
	case *ast.YieldStmt:
		return n.ValueRaw
	case *ast.RaiseStmt:
		return n.Raw
	case *ast.ForStmt:
		return n.IterRaw
	case *ast.WithStmt:
		return n.ContextRaw
	case *ast.IfStmt:
		return n.CondRaw
	case *ast.Opaque:
		return n.Text()
	}
	return ""
}

func referencesIdent(raw, name string) bool {
	i := 0
	for {
		idx := strings.Index(raw[i:], name)
		if idx < 0 {
			return false
		}
		pos := i + idx
		before := pos == 0 || !isIdentByte(raw[pos-1])
		after := pos+len(name) >= len(raw) || !isIdentByte(raw[pos+len(name)])
		if before && after {
			return true
		}
		i = pos + 1
	}
}

// annotateFixtureHole attaches category's TODO block to f's signature
// and to every statement in its body that textually references
// paramName, so both the signature line and each usage line carry their
// own block.
func annotateFixtureHole(f *ast.FunctionDef, category testir.UnconvertibleCategory, paramName string, table *testir.Table) {
	annotate.Apply(f, table, category,
		`parameter "`+paramName+`" has no xUnit fixture-dialect equivalent`,
		"rewrite this test manually for the target fixture's xUnit idiom")
	annotateUsagesOf(f.Body, paramName, category, table)
}

func annotateUsagesOf(stmts []ast.Stmt, name string, category testir.UnconvertibleCategory, table *testir.Table) {
	for _, s := range stmts {
		if referencesIdent(rawTextOf(s), name) {
			annotate.Apply(s, table, category,
				`uses "`+name+`"`,
				"rewrite this line manually for the target fixture's xUnit idiom")
		}
		switch n := s.(type) {
		case *ast.ForStmt:
			annotateUsagesOf(n.Body, name, category, table)
		case *ast.WithStmt:
			annotateUsagesOf(n.Body, name, category, table)
		case *ast.IfStmt:
			annotateUsagesOf(n.Body, name, category, table)
			for _, e := range n.ElifBranches {
				annotateUsagesOf(e.Body, name, category, table)
			}
			annotateUsagesOf(n.ElseBody, name, category, table)
		}
	}
}

type lifecycleHalves struct {
	pre  []ast.Stmt
	post []ast.Stmt
}

// buildLifecycleBody inlines each resolved autouse fixture's body into the
// generated setUp/setUpClass (pre) and tearDown/tearDownClass (post)
// halves, in the order given (already topologically sorted by the
// caller), binding its value to `receiver.<name>`.
func buildLifecycleBody(defs []*ast.FunctionDef, specs []*testir.Fixture, receiver string, ctx *Context) lifecycleHalves {
	var out lifecycleHalves
	for i, def := range defs {
		if def == nil {
			continue
		}
		fx := specs[i]
		seenYield := false
		for _, s := range def.Body {
			if y, ok := s.(*ast.YieldStmt); ok {
				out.pre = append(out.pre, bindAttrAssign(receiver, fx.Name, y.ValueRaw, ctx))
				seenYield = true
				continue
			}
			if r, ok := s.(*ast.ReturnStmt); ok {
				out.pre = append(out.pre, bindAttrAssign(receiver, fx.Name, r.ValueRaw, ctx))
				continue
			}
			if seenYield {
				out.post = append(out.post, s)
			} else {
				out.pre = append(out.pre, s)
			}
		}
	}
	return out
}

func bindAttrAssign(receiver, name, valueRaw string, ctx *Context) *ast.AssignStmt {
	return &ast.AssignStmt{
		BaseNode:   ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true},
		TargetRaw:  receiver + "." + name,
		ValueRaw:   valueRaw,
		IsSelfAttr: receiver == "self",
		AttrName:   name,
	}
}

// reorderByDependency topologically sorts a test function's directly
// resolved autouse fixtures relative to one another, restricted to
// dependency edges that stay within the set. A deeper, non-requested
// transitive dependency is not pulled in and materialized: only fixtures
// a test function actually names are inlined; a deeper chain falls
// through to the unconvertible default.
func reorderByDependency(fxs []*testir.Fixture, defs []*ast.FunctionDef) ([]*testir.Fixture, []*ast.FunctionDef) {
	if len(fxs) < 2 {
		return fxs, defs
	}
	byName := map[string]int{}
	for i, fx := range fxs {
		byName[fx.Name] = i
	}
	nodes := make([]fixturegraph.Node, 0, len(fxs))
	for _, fx := range fxs {
		var deps []string
		for _, d := range fx.DependsOn {
			if _, ok := byName[d]; ok {
				deps = append(deps, d)
			}
		}
		nodes = append(nodes, fixturegraph.Node{Name: fx.Name, DependsOn: deps})
	}
	order, err := fixturegraph.Resolve(nodes)
	if err != nil {
		return fxs, defs
	}
	outFx := make([]*testir.Fixture, 0, len(order))
	outDef := make([]*ast.FunctionDef, 0, len(order))
	for _, name := range order {
		i := byName[name]
		outFx = append(outFx, fxs[i])
		outDef = append(outDef, defs[i])
	}
	return outFx, outDef
}

func classMethod(name string, params []*ast.Param, body []ast.Stmt, isClassmethod bool, ctx *Context) *ast.FunctionDef {
	var decs []*ast.Decorator
	if isClassmethod {
		decs = []*ast.Decorator{{
			BaseNode: ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true},
			Name:     "classmethod",
		}}
	}
	return &ast.FunctionDef{
		BaseNode:   ast.BaseNode{Id: ctx.Module.NextID(), Synthetic: true},
		Decorators: decs,
		Name:       name,
		Params:     params,
		Body:       body,
		IsMethod:   true,
	}
}

func titleCaseTestName(name string) string {
	parts := strings.Split(name, "_")
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		sb.WriteString(strings.ToUpper(string(r[0])))
		if len(r) > 1 {
			sb.WriteString(string(r[1:]))
		}
	}
	if sb.Len() == 0 {
		return "TestGenerated"
	}
	return sb.String()
}

// ConvertFreeFunctionToXUnitClass builds the generated TestCase class
// for one recognized free test function, inlining autouse fixtures into
// lifecycle methods and annotating what cannot be expressed.
func ConvertFreeFunctionToXUnitClass(f *ast.FunctionDef, table *testir.Table, idx *fixtureIndex, ctx *Context) *ast.ClassDef {
	tf := table.Functions[f.ID()]

	var setupAutouse, setupClassAutouse []*testir.Fixture
	var setupNodes, setupClassNodes []*ast.FunctionDef
	var foldedFixtures []*ast.FunctionDef

	methodParams := []*ast.Param{{Name: "self"}}
	var bodyReplacements []func(string) string

	for _, p := range f.Params {
		binding := bindingFor(tf, p.Name)
		switch {
		case binding.Kind == testir.BindParametrizeVar:
			methodParams = append(methodParams, &ast.Param{Name: p.Name})
		case isFrameworkHoleName(p.Name):
			methodParams = append(methodParams, p)
			cat, _ := FrameworkHoleCategory(p.Name)
			annotateFixtureHole(f, cat, p.Name, table)
		default:
			fx, ok := idx.specs[p.Name]
			if !ok {
				methodParams = append(methodParams, p)
				annotateFixtureHole(f, testir.CategoryUnconvertibleFixture, p.Name, table)
				continue
			}
			if fx.Parametrized() || !fx.Autouse {
				methodParams = append(methodParams, p)
				ctx.NoteFixtureRetained(p.Name)
				foldedFixtures = append(foldedFixtures, foldFixtureIntoMethod(idx.defs[p.Name], table))
				continue
			}
			def := idx.defs[p.Name]
			switch {
			case fx.Shape == testir.ShapeReturn && fx.Scope == testir.ScopePerTest,
				fx.Shape == testir.ShapeYield && fx.Scope == testir.ScopePerTest:
				setupAutouse = append(setupAutouse, fx)
				setupNodes = append(setupNodes, def)
				bodyReplacements = append(bodyReplacements, identReplacer(p.Name, "self."+p.Name))
				ctx.NoteFixtureConsumed(p.Name)
			case fx.Shape == testir.ShapeReturn && fx.Scope == testir.ScopePerClass:
				setupClassAutouse = append(setupClassAutouse, fx)
				setupClassNodes = append(setupClassNodes, def)
				bodyReplacements = append(bodyReplacements, identReplacer(p.Name, "self."+p.Name))
				ctx.NoteFixtureConsumed(p.Name)
			default:
				methodParams = append(methodParams, p)
				ctx.NoteFixtureRetained(p.Name)
				annotate.Apply(f, table, testir.CategoryUnconvertibleFixture,
					`fixture "`+p.Name+`" shape/scope has no xUnit equivalent`,
					"dependency injection by name has no xUnit equivalent")
			}
		}
	}

	setupAutouse, setupNodes = reorderByDependency(setupAutouse, setupNodes)
	setupClassAutouse, setupClassNodes = reorderByDependency(setupClassAutouse, setupClassNodes)

	body := f.Body
	for _, r := range bodyReplacements {
		body = rewriteStmtsText(body, r)
	}

	// The original function's own comments move up to the generated class
	// (which replaces it at top level); TODO blocks attached by the loop
	// above stay on the method they describe, so neither renders twice.
	classTrivia, methodTrivia := splitAnnotationTrivia(f.GetTrivia())

	method := &ast.FunctionDef{
		BaseNode:   ast.BaseNode{Id: ctx.Module.NextID(), StartPos: f.Start(), EndPos: f.End(), Trivia: methodTrivia, Synthetic: true},
		Decorators: f.Decorators,
		Name:       f.Name,
		Params:     methodParams,
		Body:       body,
		IsMethod:   true,
	}

	setUpHalves := buildLifecycleBody(setupNodes, setupAutouse, "self", ctx)
	setUpClassHalves := buildLifecycleBody(setupClassNodes, setupClassAutouse, "cls", ctx)

	var members []ast.ClassMember
	if len(setUpClassHalves.pre) > 0 {
		members = append(members, classMethod("setUpClass", []*ast.Param{{Name: "cls"}}, setUpClassHalves.pre, true, ctx))
	}
	if len(setUpHalves.pre) > 0 {
		members = append(members, classMethod("setUp", []*ast.Param{{Name: "self"}}, setUpHalves.pre, false, ctx))
	}
	for _, fx := range foldedFixtures {
		members = append(members, fx)
	}
	members = append(members, method)
	if len(setUpHalves.post) > 0 {
		members = append(members, classMethod("tearDown", []*ast.Param{{Name: "self"}}, setUpHalves.post, false, ctx))
	}
	if len(setUpClassHalves.post) > 0 {
		members = append(members, classMethod("tearDownClass", []*ast.Param{{Name: "cls"}}, setUpClassHalves.post, true, ctx))
	}

	ctx.Imports.Require("unittest")

	return &ast.ClassDef{
		BaseNode: ast.BaseNode{Id: ctx.Module.NextID(), StartPos: f.Start(), EndPos: f.End(), Trivia: classTrivia, Synthetic: true},
		Name:     titleCaseTestName(f.Name),
		Bases:    []string{"unittest.TestCase"},
		Body:     members,
	}
}

// splitAnnotationTrivia partitions a converted function's leading trivia:
// everything up to the first HAMLET-TODO header (the function's own
// comments and blank lines) goes to the enclosing class, the header and
// everything after it (the annotation blocks) stay with the method.
func splitAnnotationTrivia(t ast.Trivia) (class, method ast.Trivia) {
	split := len(t.LeadingComments)
	for i, c := range t.LeadingComments {
		if strings.HasPrefix(c, "# HAMLET-TODO [") {
			split = i
			break
		}
	}
	class = t
	class.LeadingComments = t.LeadingComments[:split]
	method.LeadingComments = t.LeadingComments[split:]
	method.TrailingComment = t.TrailingComment
	class.TrailingComment = ""
	return class, method
}
