package annotate

import (
	"strings"
	"testing"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/testir"
)

func newDecorator(id ast.NodeID, original string) *ast.Decorator {
	return &ast.Decorator{
		BaseNode: ast.BaseNode{Id: id, Original: original},
		Name:     "mark.parametrize",
	}
}

func TestBlockRendersBitExactWireForm(t *testing.T) {
	lines := Block(testir.CategoryUnconvertibleParametrize, "summary text",
		"@pytest.mark.parametrize(\"x\", [1, 2])\nmore text", "do the thing manually")
	want := []string{
		"# HAMLET-TODO [UNCONVERTIBLE-PARAMETRIZE]: summary text",
		`# Original: @pytest.mark.parametrize("x", [1, 2])`,
		"# Manual action required: do the thing manually",
	}
	if len(lines) != len(want) {
		t.Fatalf("Block() = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("Block()[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestApplyAttachesLeadingTriviaAndRecordsUnconvertible(t *testing.T) {
	table := testir.New()
	d := newDecorator(1, `@pytest.mark.parametrize("x", [1, 2])`)

	Apply(d, table, testir.CategoryUnconvertibleParametrize, "pytest.mark.parametrize has no xUnit equivalent", "use subTest or individual methods")

	u, ok := table.Unconvertibles[d.ID()]
	if !ok {
		t.Fatal("expected an Unconvertible entry")
	}
	if u.Category != testir.CategoryUnconvertibleParametrize {
		t.Fatalf("Category = %s", u.Category)
	}

	trivia := d.GetTrivia()
	if len(trivia.LeadingComments) != 3 {
		t.Fatalf("LeadingComments = %v, want 3 lines", trivia.LeadingComments)
	}
	if !strings.HasPrefix(trivia.LeadingComments[0], "# HAMLET-TODO [UNCONVERTIBLE-PARAMETRIZE]") {
		t.Fatalf("LeadingComments[0] = %q", trivia.LeadingComments[0])
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	table := testir.New()
	d := newDecorator(2, `@pytest.mark.parametrize("x", [1, 2])`)

	Apply(d, table, testir.CategoryUnconvertibleParametrize, "pytest.mark.parametrize has no xUnit equivalent", "use subTest or individual methods")
	first := append([]string{}, d.GetTrivia().LeadingComments...)

	Apply(d, table, testir.CategoryUnconvertibleParametrize, "pytest.mark.parametrize has no xUnit equivalent", "use subTest or individual methods")
	second := d.GetTrivia().LeadingComments

	if len(first) != len(second) {
		t.Fatalf("second Apply changed comment count: %v -> %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("second Apply changed comments: %v -> %v", first, second)
		}
	}
}

func TestAppendBlockSeparatesStackedAnnotationsWithBlankLine(t *testing.T) {
	table := testir.New()
	d := newDecorator(3, `@pytest.mark.parametrize("a", [1])`)

	Apply(d, table, testir.CategoryUnconvertibleParametrize, "first summary", "guidance one")
	AppendBlock(d, testir.CategoryUnconvertibleParametrize, "second summary", "guidance two")

	trivia := d.GetTrivia()
	if len(trivia.LeadingComments) != 7 {
		t.Fatalf("LeadingComments = %v, want 7 lines (3 + blank + 3)", trivia.LeadingComments)
	}
	if trivia.LeadingComments[3] != "" {
		t.Fatalf("LeadingComments[3] = %q, want a blank separator", trivia.LeadingComments[3])
	}
	if !strings.Contains(trivia.LeadingComments[4], "second summary") {
		t.Fatalf("LeadingComments[4] = %q, want second block header", trivia.LeadingComments[4])
	}
}
