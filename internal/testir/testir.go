// Package testir is the dialect-neutral in-memory model of test constructs
// layered over internal/ast's CST. It never stores annotations on CST
// nodes directly: a Table keyed by ast.NodeID is the single owner of
// recognized structure, so a rewrite that replaces a CST subtree can
// invalidate exactly the Test-IR entries that pointed into it without
// touching the rest of the tree.
package testir

import (
	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/token"
)

// Scope is a fixture's lifetime relative to the tests that use it.
type Scope int

const (
	ScopePerTest Scope = iota
	ScopePerClass
	ScopePerSession
)

func (s Scope) String() string {
	switch s {
	case ScopePerTest:
		return "function"
	case ScopePerClass:
		return "class"
	case ScopePerSession:
		return "session"
	default:
		return "unknown"
	}
}

// ScopeRank gives a total order over scopes so fixture-scope
// monotonicity can be checked with a plain integer comparison.
func ScopeRank(s Scope) int { return int(s) }

// Shape distinguishes a fixture that only returns a value from one that
// yields and therefore has a teardown half.
type Shape int

const (
	ShapeReturn Shape = iota
	ShapeYield
)

// Fixture is a recognized `@fixture`-decorated function.
type Fixture struct {
	NodeID     ast.NodeID
	Name       string
	Scope      Scope
	Shape      Shape
	Autouse    bool
	Params     []string // request.param values, if parametrised; empty otherwise
	DependsOn  []string // names of other fixtures referenced as parameters
}

// Parametrized reports whether this fixture carries its own params=.
func (f *Fixture) Parametrized() bool { return len(f.Params) > 0 }

// MarkerKind tags the closed set of recognized decorator-based markers.
type MarkerKind int

const (
	MarkerSkip MarkerKind = iota
	MarkerSkipIf
	MarkerSkipUnless
	MarkerParametrize
	MarkerCustom
)

// Marker is one recognized (or explicitly unrecognized-but-tagged) marker
// decorator attached to a TestFunction or TestClass.
type Marker struct {
	NodeID    ast.NodeID // the decorator node this marker was recognized from
	Kind      MarkerKind
	Reason    string   // Skip / SkipIf / SkipUnless
	Condition string   // SkipIf / SkipUnless
	ParamNames string  // Parametrize: the raw "names" argument
	Rows       string  // Parametrize: the raw rows argument
	Name       string  // Custom: decorator name
	Args       []string // Custom: raw args
}

// LifecycleKind is one of the four recognized lifecycle method roles.
type LifecycleKind int

const (
	LifecyclePerTestSetup LifecycleKind = iota
	LifecyclePerTestTeardown
	LifecyclePerClassSetup
	LifecyclePerClassTeardown
)

// LifecycleMethod is a recognized setUp/tearDown/setUpClass/tearDownClass
// method.
type LifecycleMethod struct {
	NodeID ast.NodeID
	Kind   LifecycleKind
}

// AssertionKind is the closed, exhaustive set of recognized assertion
// shapes. Dispatch over this set is always an exhaustive switch, never
// polymorphism.
type AssertionKind int

const (
	AssertEqual AssertionKind = iota
	AssertNotEqual
	AssertTrue
	AssertFalse
	AssertGreater
	AssertGreaterEqual
	AssertLess
	AssertLessEqual
	AssertIn
	AssertNotIn
	AssertIsNone
	AssertIsNotNone
	AssertRaises
	AssertRaisesMatch
	AssertSubtestScope
	AssertUnrecognized // assert <expr> matching no known template; transported verbatim
)

// Assertion is a recognized assertion statement or `self.assertX(...)`
// call.
type Assertion struct {
	NodeID  ast.NodeID
	Kind    AssertionKind
	Left    string // opaque expression fragment
	Right   string // opaque expression fragment; empty for unary kinds
	Message string // optional message/second positional arg
	AsVar   string // AssertRaises context-manager form: "as ctx" binding, if any
}

// ParamBindingKind distinguishes a TestFunction parameter that is a
// fixture reference from one that is a parametrisation variable.
type ParamBindingKind int

const (
	BindFixture ParamBindingKind = iota
	BindParametrizeVar
)

// ParamBinding is one parameter of a TestFunction.
type ParamBinding struct {
	Name string
	Kind ParamBindingKind
}

// TestFunction is a recognized free test function or xUnit test method;
// a method's implicit receiver is not a ParamBinding, IsMethod marks it.
type TestFunction struct {
	NodeID   ast.NodeID
	Name     string
	Params   []ParamBinding
	Markers  []ast.NodeID // NodeIDs of Marker entries attached to this function
	IsMethod bool
}

// TestClass is a recognized xUnit test class.
type TestClass struct {
	NodeID    ast.NodeID
	Name      string
	BaseHint  string // e.g. "unittest.TestCase"
	Members   []ast.NodeID // document-order NodeIDs of this class's recognized members
}

// UnconvertibleCategory is the closed set of error categories that can
// attach as a soft annotation (hard-failure categories PARSE-ERROR and
// FIXTURE-CYCLE never become Unconvertible values; they abort the
// transform instead).
type UnconvertibleCategory string

const (
	CategoryUnconvertibleFixture     UnconvertibleCategory = "UNCONVERTIBLE-FIXTURE"
	CategoryUnconvertibleParametrize UnconvertibleCategory = "UNCONVERTIBLE-PARAMETRIZE"
	CategoryUnconvertibleMonkeypatch UnconvertibleCategory = "UNCONVERTIBLE-MONKEYPATCH"
	CategoryUnconvertibleCapture     UnconvertibleCategory = "UNCONVERTIBLE-CAPTURE"
	CategoryUnconvertibleTmpPath     UnconvertibleCategory = "UNCONVERTIBLE-TMPPATH"
	CategoryUnconvertibleNosePlugin  UnconvertibleCategory = "UNCONVERTIBLE-NOSE-PLUGIN"
	CategoryUnconvertibleAssertion   UnconvertibleCategory = "UNCONVERTIBLE-ASSERTION"
)

// Unconvertible is attached to any node the engine refused to rewrite.
type Unconvertible struct {
	NodeID   ast.NodeID
	Category UnconvertibleCategory
	Original string // verbatim source slice, first line trimmed for the TODO block
	Guidance string // one-line manual action
	Start    token.Position
	End      token.Position
}

// Table is the side-table mapping stable CST node-ids to their recognized
// Test-IR annotation. The recognizer records any given NodeID in at most
// one of the recognition maps (Classes through Markers); nothing enforces
// that as a type invariant. Unconvertibles is written afterwards by
// internal/annotate and can share a NodeID with a recognition entry.
type Table struct {
	Classes        map[ast.NodeID]*TestClass
	Functions      map[ast.NodeID]*TestFunction
	Fixtures       map[ast.NodeID]*Fixture
	Lifecycles     map[ast.NodeID]*LifecycleMethod
	Assertions     map[ast.NodeID]*Assertion
	Markers        map[ast.NodeID]*Marker
	Unconvertibles map[ast.NodeID]*Unconvertible
}

// New returns an empty Table ready for the recognizer to populate.
func New() *Table {
	return &Table{
		Classes:        make(map[ast.NodeID]*TestClass),
		Functions:      make(map[ast.NodeID]*TestFunction),
		Fixtures:       make(map[ast.NodeID]*Fixture),
		Lifecycles:     make(map[ast.NodeID]*LifecycleMethod),
		Assertions:     make(map[ast.NodeID]*Assertion),
		Markers:        make(map[ast.NodeID]*Marker),
		Unconvertibles: make(map[ast.NodeID]*Unconvertible),
	}
}

// Invalidate drops every annotation keyed by id, across all of the
// per-kind maps. Called by the transformation driver whenever a CST
// subtree rooted at id is replaced; only the affected entries are
// invalidated, and they are re-recognized afterwards.
func (t *Table) Invalidate(id ast.NodeID) {
	delete(t.Classes, id)
	delete(t.Functions, id)
	delete(t.Fixtures, id)
	delete(t.Lifecycles, id)
	delete(t.Assertions, id)
	delete(t.Markers, id)
	delete(t.Unconvertibles, id)
}

// IsRecognized reports whether id carries any Test-IR annotation at all.
func (t *Table) IsRecognized(id ast.NodeID) bool {
	if _, ok := t.Classes[id]; ok {
		return true
	}
	if _, ok := t.Functions[id]; ok {
		return true
	}
	if _, ok := t.Fixtures[id]; ok {
		return true
	}
	if _, ok := t.Lifecycles[id]; ok {
		return true
	}
	if _, ok := t.Assertions[id]; ok {
		return true
	}
	if _, ok := t.Markers[id]; ok {
		return true
	}
	if _, ok := t.Unconvertibles[id]; ok {
		return true
	}
	return false
}
