package recognizer

import (
	"testing"

	"github.com/kr/pretty"

	"github.com/cwbudde/hamlet/internal/parser"
	"github.com/cwbudde/hamlet/internal/testir"
)

func recognizeSrc(t *testing.T, src string) *testir.Table {
	t.Helper()
	p := parser.New(src)
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	table := Recognize(mod)
	t.Logf("recognized table: %# v", pretty.Formatter(table))
	return table
}

func TestRecognizeFixtureDecl(t *testing.T) {
	src := "@pytest.fixture(scope=\"class\", autouse=True)\ndef db(conn):\n    yield conn\n"
	table := recognizeSrc(t, src)
	if len(table.Fixtures) != 1 {
		t.Fatalf("len(Fixtures) = %d, want 1", len(table.Fixtures))
	}
	for _, fx := range table.Fixtures {
		if fx.Name != "db" {
			t.Fatalf("Name = %q, want db", fx.Name)
		}
		if fx.Scope != testir.ScopePerClass {
			t.Fatalf("Scope = %v, want ScopePerClass", fx.Scope)
		}
		if !fx.Autouse {
			t.Fatal("Autouse = false, want true")
		}
		if fx.Shape != testir.ShapeYield {
			t.Fatalf("Shape = %v, want ShapeYield", fx.Shape)
		}
		if len(fx.DependsOn) != 1 || fx.DependsOn[0] != "conn" {
			t.Fatalf("DependsOn = %v, want [conn]", fx.DependsOn)
		}
	}
}

func TestRecognizeTestClassWithLifecycle(t *testing.T) {
	src := "" +
		"class TestThing(unittest.TestCase):\n" +
		"    def setUp(self):\n" +
		"        self.x = 1\n" +
		"\n" +
		"    def test_value(self):\n" +
		"        self.assertEqual(self.x, 1)\n"
	table := recognizeSrc(t, src)
	if len(table.Classes) != 1 {
		t.Fatalf("len(Classes) = %d, want 1", len(table.Classes))
	}
	if len(table.Lifecycles) != 1 {
		t.Fatalf("len(Lifecycles) = %d, want 1", len(table.Lifecycles))
	}
	for _, lc := range table.Lifecycles {
		if lc.Kind != testir.LifecyclePerTestSetup {
			t.Fatalf("Kind = %v, want LifecyclePerTestSetup", lc.Kind)
		}
	}
	if len(table.Functions) != 1 {
		t.Fatalf("len(Functions) = %d, want 1", len(table.Functions))
	}
	for _, fn := range table.Functions {
		if fn.Name != "test_value" || !fn.IsMethod {
			t.Fatalf("TestFunction = %+v", fn)
		}
	}
	if len(table.Assertions) != 1 {
		t.Fatalf("len(Assertions) = %d, want 1", len(table.Assertions))
	}
	for _, a := range table.Assertions {
		if a.Kind != testir.AssertEqual || a.Left != "self.x" || a.Right != "1" {
			t.Fatalf("Assertion = %+v", a)
		}
	}
}

func TestRecognizeParametrizeMarker(t *testing.T) {
	src := "@pytest.mark.parametrize(\"x,expected\", [(1, 2), (3, 4)])\ndef test_double(x, expected):\n    assert x + 1 == expected\n"
	table := recognizeSrc(t, src)
	if len(table.Markers) != 1 {
		t.Fatalf("len(Markers) = %d, want 1", len(table.Markers))
	}
	for _, m := range table.Markers {
		if m.Kind != testir.MarkerParametrize {
			t.Fatalf("Kind = %v, want MarkerParametrize", m.Kind)
		}
		if m.ParamNames != `"x,expected"` {
			t.Fatalf("ParamNames = %q", m.ParamNames)
		}
	}
	if len(table.Functions) != 1 {
		t.Fatalf("len(Functions) = %d, want 1", len(table.Functions))
	}
	for _, fn := range table.Functions {
		if len(fn.Params) != 2 {
			t.Fatalf("Params = %+v", fn.Params)
		}
		for _, p := range fn.Params {
			if p.Kind != testir.BindParametrizeVar {
				t.Fatalf("Param %q Kind = %v, want BindParametrizeVar", p.Name, p.Kind)
			}
		}
	}
}

func TestRecognizeFixtureParamBindingNotParametrize(t *testing.T) {
	src := "def test_uses_db(db):\n    assert db is not None\n"
	table := recognizeSrc(t, src)
	for _, fn := range table.Functions {
		if len(fn.Params) != 1 || fn.Params[0].Kind != testir.BindFixture {
			t.Fatalf("Params = %+v, want single BindFixture", fn.Params)
		}
	}
	for _, a := range table.Assertions {
		if a.Kind != testir.AssertIsNotNone || a.Left != "db" {
			t.Fatalf("Assertion = %+v", a)
		}
	}
}

func TestRecognizeSkipMarkers(t *testing.T) {
	src := "@skipIf(True, reason=\"flaky\")\ndef test_skipped():\n    pass\n"
	table := recognizeSrc(t, src)
	if len(table.Markers) != 1 {
		t.Fatalf("len(Markers) = %d, want 1", len(table.Markers))
	}
	for _, m := range table.Markers {
		if m.Kind != testir.MarkerSkipIf || m.Condition != "True" || m.Reason != `"flaky"` {
			t.Fatalf("Marker = %+v", m)
		}
	}
}

func TestRecognizeAssertRaisesWithBlock(t *testing.T) {
	src := "" +
		"def test_raises():\n" +
		"    with self.assertRaises(ValueError) as ctx:\n" +
		"        do_thing()\n"
	table := recognizeSrc(t, src)
	if len(table.Assertions) != 1 {
		t.Fatalf("len(Assertions) = %d, want 1", len(table.Assertions))
	}
	for _, a := range table.Assertions {
		if a.Kind != testir.AssertRaises || a.Left != "ValueError" || a.AsVar != "ctx" {
			t.Fatalf("Assertion = %+v", a)
		}
	}
}

func TestRecognizeNonTestFunctionIgnored(t *testing.T) {
	src := "def helper():\n    return 1\n"
	table := recognizeSrc(t, src)
	if len(table.Functions) != 0 {
		t.Fatalf("len(Functions) = %d, want 0 (helper() is not a test_ function)", len(table.Functions))
	}
}
