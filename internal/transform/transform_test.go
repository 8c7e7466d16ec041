package transform

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// A single parametrize decorator transformed
// FIXTURE_TO_XUNIT yields a generated TestCase class annotated
// UNCONVERTIBLE-PARAMETRIZE, the method signature retaining its
// parametrisation variables.
func TestParametrizeToXUnit(t *testing.T) {
	src := "@pytest.mark.parametrize(\"x,expected\", [(1, 2), (2, 3)])\n" +
		"def test_increment(x, expected):\n" +
		"    assert x + 1 == expected\n"
	res, err := Transform([]byte(src), FixtureToXUnit, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	out := string(res.Output)
	if !strings.Contains(out, "class TestIncrement(unittest.TestCase)") {
		t.Fatalf("expected generated TestIncrement class, got:\n%s", out)
	}
	if !strings.Contains(out, "def test_increment(self, x, expected)") {
		t.Fatalf("expected method signature with self, x, expected, got:\n%s", out)
	}
	if !strings.Contains(out, "HAMLET-TODO [UNCONVERTIBLE-PARAMETRIZE]") {
		t.Fatalf("expected UNCONVERTIBLE-PARAMETRIZE annotation, got:\n%s", out)
	}
	if !strings.Contains(out, `Original: @pytest.mark.parametrize("x,expected", [(1, 2), (2, 3)])`) {
		t.Fatalf("expected Original line to echo the decorator verbatim, got:\n%s", out)
	}
	var foundHard bool
	for _, d := range res.Diagnostics {
		if string(d.Category) == "UNCONVERTIBLE-PARAMETRIZE" {
			foundHard = true
		}
	}
	if !foundHard {
		t.Fatalf("expected a diagnostic record for the parametrize annotation")
	}
}

// Two stacked parametrize decorators produce two
// separate TODO blocks in stacked order, decorators retained in order.
func TestStackedParametrizeToXUnit(t *testing.T) {
	src := "@pytest.mark.parametrize(\"a\", [1, 2])\n" +
		"@pytest.mark.parametrize(\"b\", [3, 4])\n" +
		"def test_combo(a, b):\n" +
		"    assert a != b\n"
	res, err := Transform([]byte(src), FixtureToXUnit, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	out := string(res.Output)
	firstIdx := strings.Index(out, `Original: @pytest.mark.parametrize("a", [1, 2])`)
	secondIdx := strings.Index(out, `Original: @pytest.mark.parametrize("b", [3, 4])`)
	if firstIdx < 0 || secondIdx < 0 {
		t.Fatalf("expected both decorators' TODO blocks, got:\n%s", out)
	}
	if firstIdx > secondIdx {
		t.Fatalf("expected stacked TODO blocks in original stack order, got:\n%s", out)
	}
	if !strings.Contains(out, `@pytest.mark.parametrize("a", [1, 2])`) ||
		!strings.Contains(out, `@pytest.mark.parametrize("b", [3, 4])`) {
		t.Fatalf("expected both decorators retained verbatim, got:\n%s", out)
	}
}

// A non-autouse pytest fixture a test function consumes by name folds into
// the generated class as a method (self added to its parameter list,
// its own @pytest.fixture decorator and annotation retained), rather
// than being left behind as a bare module-level function.
func TestNonAutouseFixtureFoldsIntoGeneratedClass(t *testing.T) {
	src := "@pytest.fixture\n" +
		"def my_data():\n" +
		"    return 42\n" +
		"\n" +
		"def test_example(my_data):\n" +
		"    assert my_data == 42\n"
	res, err := Transform([]byte(src), FixtureToXUnit, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	out := string(res.Output)
	if !strings.Contains(out, "class TestExample(unittest.TestCase)") {
		t.Fatalf("expected generated TestExample class, got:\n%s", out)
	}
	if !strings.Contains(out, "    @pytest.fixture\n    def my_data(self):") {
		t.Fatalf("expected my_data folded in as a method with self added, got:\n%s", out)
	}
	if !strings.Contains(out, "HAMLET-TODO [UNCONVERTIBLE-FIXTURE]") ||
		!strings.Contains(out, "Original: @pytest.fixture") {
		t.Fatalf("expected the fixture's own decorator annotated, got:\n%s", out)
	}
	if !strings.Contains(out, "def test_example(self, my_data):") {
		t.Fatalf("expected test_example to keep my_data as a plain parameter, got:\n%s", out)
	}
	if strings.Count(out, "def my_data(") != 1 {
		t.Fatalf("expected exactly one my_data definition (folded, not left at module level), got:\n%s", out)
	}
}

// A tmp_path fixture parameter transforms into a
// generated method with both its signature and its usage line annotated
// UNCONVERTIBLE-TMPPATH, the parameter list preserved.
func TestTmpPathFrameworkHole(t *testing.T) {
	src := "def test_writes_file(tmp_path):\n" +
		"    f = tmp_path / \"test.txt\"\n"
	res, err := Transform([]byte(src), FixtureToXUnit, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	out := string(res.Output)
	if !strings.Contains(out, "def test_writes_file(self, tmp_path)") {
		t.Fatalf("expected tmp_path retained in the method signature, got:\n%s", out)
	}
	count := strings.Count(out, "HAMLET-TODO [UNCONVERTIBLE-TMPPATH]")
	if count < 2 {
		t.Fatalf("expected at least two UNCONVERTIBLE-TMPPATH blocks (signature + usage), got %d in:\n%s", count, out)
	}
	if !strings.Contains(out, `f = tmp_path / "test.txt"`) {
		t.Fatalf("expected the tmp_path usage line preserved verbatim, got:\n%s", out)
	}
}

// A setUp assigning one attribute collapses into a
// single autouse per-test fixture; self.processor becomes a plain
// parameter, self.assertEqual becomes a plain assert.
func TestSetUpCollapsesToAutouseFixture(t *testing.T) {
	src := "class TestThing(unittest.TestCase):\n" +
		"    def setUp(self):\n" +
		"        self.processor = TextProcessor()\n" +
		"\n" +
		"    def test_process(self):\n" +
		"        self.assertEqual(self.processor.run(), 1)\n"
	res, err := Transform([]byte(src), XUnitToFixture, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	out := string(res.Output)
	if !strings.Contains(out, "@pytest.fixture(autouse=True)") {
		t.Fatalf("expected a qualified autouse fixture decorator, got:\n%s", out)
	}
	if !strings.Contains(out, "def processor():") {
		t.Fatalf("expected a fixture named processor, got:\n%s", out)
	}
	if !strings.Contains(out, "yield TextProcessor()") {
		t.Fatalf("expected the fixture to yield TextProcessor(), got:\n%s", out)
	}
	if !strings.Contains(out, "def test_process(processor):") {
		t.Fatalf("expected test_process to take a processor parameter, got:\n%s", out)
	}
	if !strings.Contains(out, "assert processor.run() == 1") {
		t.Fatalf("expected a plain assert rewriting self.processor and assertEqual, got:\n%s", out)
	}
	if strings.Contains(out, "class TestThing") {
		t.Fatalf("expected the TestClass to be fully flattened away, got:\n%s", out)
	}
}

// A nose2 with_setup decorator triggers
// UNCONVERTIBLE-NOSE-PLUGIN; the decorator, setup function, and test
// function all appear verbatim beneath the annotation.
func TestNosePluginDecorator(t *testing.T) {
	src := "def setup_func():\n" +
		"    pass\n" +
		"\n" +
		"def teardown_func():\n" +
		"    pass\n" +
		"\n" +
		"@with_setup(setup_func, teardown_func)\n" +
		"def test_legacy():\n" +
		"    assert True\n"
	res, err := Transform([]byte(src), XUnitToFixture, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	out := string(res.Output)
	if !strings.Contains(out, "HAMLET-TODO [UNCONVERTIBLE-NOSE-PLUGIN]") {
		t.Fatalf("expected UNCONVERTIBLE-NOSE-PLUGIN annotation, got:\n%s", out)
	}
	if !strings.Contains(out, "@with_setup(setup_func, teardown_func)") {
		t.Fatalf("expected the with_setup decorator preserved verbatim, got:\n%s", out)
	}
	if !strings.Contains(out, "def setup_func()") || !strings.Contains(out, "def teardown_func()") ||
		!strings.Contains(out, "def test_legacy()") {
		t.Fatalf("expected setup/teardown/test functions preserved verbatim, got:\n%s", out)
	}
}

// Output is identical across repeated runs of the same input.
func TestDeterminism(t *testing.T) {
	src := "class TestThing(unittest.TestCase):\n" +
		"    def setUp(self):\n" +
		"        self.x = 1\n" +
		"        self.y = 2\n" +
		"\n" +
		"    def test_both(self):\n" +
		"        self.assertEqual(self.x, 1)\n" +
		"        self.assertEqual(self.y, 2)\n"
	r1, err1 := Transform([]byte(src), XUnitToFixture, DefaultOptions(), "t.py")
	r2, err2 := Transform([]byte(src), XUnitToFixture, DefaultOptions(), "t.py")
	if err1 != nil || err2 != nil {
		t.Fatalf("Transform errors: %v / %v", err1, err2)
	}
	if string(r1.Output) != string(r2.Output) {
		t.Fatalf("non-deterministic output:\n--- run1 ---\n%s\n--- run2 ---\n%s", r1.Output, r2.Output)
	}
}

// Annotation idempotence: re-running the engine on its
// own output never re-emits a duplicate HAMLET-TODO block.
func TestAnnotationIdempotence(t *testing.T) {
	src := "def test_uses_monkeypatch(monkeypatch):\n" +
		"    monkeypatch.setattr(\"os.getcwd\", lambda: \"/tmp\")\n"
	first, err := Transform([]byte(src), FixtureToXUnit, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	second, err := Transform(first.Output, FixtureToXUnit, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("second Transform error: %v", err)
	}
	if string(first.Output) != string(second.Output) {
		t.Fatalf("annotation not idempotent:\n--- pass1 ---\n%s\n--- pass2 ---\n%s", first.Output, second.Output)
	}
}

// Identity on target-dialect input: source already in the target
// dialect, with no cross-dialect constructs, survives untouched
// byte-for-byte (including its import block, which the reconciler must
// leave alone when the required import is already present).
func TestIdentityOnTarget(t *testing.T) {
	src := "import unittest\n" +
		"\n" +
		"\n" +
		"class TestThing(unittest.TestCase):\n" +
		"    def test_plain(self):\n" +
		"        self.assertEqual(1 + 1, 2)\n"
	res, err := Transform([]byte(src), FixtureToXUnit, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if string(res.Output) != src {
		t.Fatalf("expected identity output, got:\n%s", res.Output)
	}
}

// A cyclic fixture dependency graph is a hard
// failure with no output bytes.
func TestFixtureCycleIsHardFailure(t *testing.T) {
	src := "@pytest.fixture\n" +
		"def a(b):\n" +
		"    return b\n" +
		"\n" +
		"@pytest.fixture\n" +
		"def b(a):\n" +
		"    return a\n"
	res, err := Transform([]byte(src), FixtureToXUnit, DefaultOptions(), "t.py")
	if err == nil {
		t.Fatalf("expected a FIXTURE-CYCLE error, got output:\n%s", res.Output)
	}
	if res.Output != nil {
		t.Fatalf("expected zero Result on hard failure, got %q", res.Output)
	}
}

// A file the parser cannot recover from is a hard
// failure.
func TestParseErrorIsHardFailure(t *testing.T) {
	src := "def test_unterminated(:\n"
	_, err := Transform([]byte(src), FixtureToXUnit, DefaultOptions(), "t.py")
	if err == nil {
		t.Fatalf("expected a parse error")
	}
}

// A setUp assigning more than AutouseInlineThreshold
// attributes collapses to a single object-like bundle fixture instead of
// one fixture per attribute. The generated bundle construction, yield, and
// attribute-rewrite are involved enough that a snapshot is clearer than a
// string of substring assertions.
func TestBundleFixtureOverThreshold(t *testing.T) {
	src := "class TestWidget(unittest.TestCase):\n" +
		"    def setUp(self):\n" +
		"        self.a = 1\n" +
		"        self.b = 2\n" +
		"        self.c = 3\n" +
		"        self.d = 4\n" +
		"\n" +
		"    def tearDown(self):\n" +
		"        self.a = None\n" +
		"\n" +
		"    def test_sum(self):\n" +
		"        self.assertEqual(self.a + self.b + self.c + self.d, 10)\n"
	res, err := Transform([]byte(src), XUnitToFixture, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	snaps.MatchSnapshot(t, string(res.Output))
}

// A purely fixture-style file whose only constructs are mutually
// convertible (an autouse return-only fixture and a plain assert)
// converts to a TestCase class with no annotations, and converting that
// output back reproduces the original semantics: same fixture name,
// autouse per-test lifecycle, same test body.
func TestRoundTripAutouseFixture(t *testing.T) {
	src := "@pytest.fixture(autouse=True)\n" +
		"def data():\n" +
		"    return 42\n" +
		"\n" +
		"def test_value(data):\n" +
		"    assert data == 42\n"
	toXUnit, err := Transform([]byte(src), FixtureToXUnit, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	mid := string(toXUnit.Output)
	if !strings.Contains(mid, "class TestValue(unittest.TestCase)") {
		t.Fatalf("expected generated TestValue class, got:\n%s", mid)
	}
	if !strings.Contains(mid, "self.data = 42") {
		t.Fatalf("expected the fixture body inlined into setUp, got:\n%s", mid)
	}
	if strings.Contains(mid, "HAMLET-TODO") {
		t.Fatalf("expected a clean conversion with no annotations, got:\n%s", mid)
	}

	back, err := Transform(toXUnit.Output, XUnitToFixture, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("reverse Transform error: %v", err)
	}
	out := string(back.Output)
	if !strings.Contains(out, "def data():") {
		t.Fatalf("expected the fixture restored under its original name, got:\n%s", out)
	}
	if !strings.Contains(out, "@pytest.fixture(autouse=True)") {
		t.Fatalf("expected the restored fixture decorator qualified and autouse, got:\n%s", out)
	}
	if !strings.Contains(out, "def test_value(data):") {
		t.Fatalf("expected test_value to take data by injection again, got:\n%s", out)
	}
	if !strings.Contains(out, "assert data == 42") {
		t.Fatalf("expected the plain assert restored, got:\n%s", out)
	}
	if strings.Contains(out, "class TestValue") {
		t.Fatalf("expected the generated class flattened away on the way back, got:\n%s", out)
	}
}

// A test method whose body is exactly a for-loop over an iterable with a
// single-assertion subTest scope becomes a parametrize decorator over the
// same iterable; the loop and the with-statement disappear.
func TestSubTestLoopBecomesParametrize(t *testing.T) {
	src := "class TestSquares(unittest.TestCase):\n" +
		"    def test_squares(self):\n" +
		"        for n, expected in [(2, 4), (3, 9)]:\n" +
		"            with self.subTest(n=n):\n" +
		"                self.assertEqual(n * n, expected)\n"
	res, err := Transform([]byte(src), XUnitToFixture, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	out := string(res.Output)
	if !strings.Contains(out, "@pytest.mark.parametrize(") {
		t.Fatalf("expected a qualified parametrize decorator, got:\n%s", out)
	}
	if !strings.Contains(out, "[(2, 4), (3, 9)]") {
		t.Fatalf("expected the loop iterable carried into the decorator, got:\n%s", out)
	}
	if !strings.Contains(out, "assert n * n == expected") {
		t.Fatalf("expected the bare assertion as the whole body, got:\n%s", out)
	}
	if strings.Contains(out, "subTest") || strings.Contains(out, "for n, expected in") {
		t.Fatalf("expected loop and subTest scope removed, got:\n%s", out)
	}
}

// A subTest loop with any extra statement alongside the scope is left as
// an ordinary loop: the original is still a valid test, so there is no
// annotation either.
func TestSubTestLoopWithExtraStatementLeftAlone(t *testing.T) {
	src := "class TestSquares(unittest.TestCase):\n" +
		"    def test_squares(self):\n" +
		"        values = [(2, 4), (3, 9)]\n" +
		"        for n, expected in values:\n" +
		"            with self.subTest(n=n):\n" +
		"                self.assertEqual(n * n, expected)\n"
	res, err := Transform([]byte(src), XUnitToFixture, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	out := string(res.Output)
	if strings.Contains(out, "parametrize(") {
		t.Fatalf("expected no parametrize rewrite for a multi-statement body, got:\n%s", out)
	}
	if !strings.Contains(out, "for n, expected in values:") {
		t.Fatalf("expected the loop transported, got:\n%s", out)
	}
	if strings.Contains(out, "HAMLET-TODO") {
		t.Fatalf("expected no annotation for a still-valid test, got:\n%s", out)
	}
}

// Comments survive the class flattening: a comment above the class moves
// onto the first item emitted in its place, and a comment inside a
// rewritten assertion's line stays with the rewritten statement.
func TestCommentsSurviveClassFlattening(t *testing.T) {
	src := "# suite covering the widget\n" +
		"class TestWidget(unittest.TestCase):\n" +
		"    def test_obvious(self):\n" +
		"        # the degenerate case first\n" +
		"        self.assertTrue(True)\n"
	res, err := Transform([]byte(src), XUnitToFixture, DefaultOptions(), "t.py")
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	out := string(res.Output)
	if !strings.Contains(out, "# suite covering the widget") {
		t.Fatalf("expected the class-level comment preserved, got:\n%s", out)
	}
	if !strings.Contains(out, "# the degenerate case first") {
		t.Fatalf("expected the in-body comment preserved, got:\n%s", out)
	}
	if !strings.Contains(out, "assert True") {
		t.Fatalf("expected the assertion rewritten, got:\n%s", out)
	}
	if strings.Contains(out, "class TestWidget") {
		t.Fatalf("expected the class flattened away, got:\n%s", out)
	}
}
