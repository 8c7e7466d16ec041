// Package annotate marks constructs the engine refuses to rewrite: when
// a rule guard rejects a construct and no alternate rule handles it, this
// package builds the structured HAMLET-TODO comment block and injects it
// as the target node's leading trivia.
package annotate

import (
	"fmt"
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/testir"
)

// firstLine returns the first line of original, trimmed, for the
// "Original:" line of the TODO block.
func firstLine(original string) string {
	line := original
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// Block renders the three-line HAMLET-TODO comment block, one string per
// line, each already carrying its "# " prefix
// so it can be appended directly to a node's LeadingComments.
func Block(category testir.UnconvertibleCategory, summary, original, guidance string) []string {
	return []string{
		fmt.Sprintf("# HAMLET-TODO [%s]: %s", category, summary),
		fmt.Sprintf("# Original: %s", firstLine(original)),
		fmt.Sprintf("# Manual action required: %s", guidance),
	}
}

// hasBlock reports whether comments already contains the header line of a
// HAMLET-TODO block for category/summary, so a second pass over already-
// annotated source does not stack a duplicate.
func hasBlock(comments []string, category testir.UnconvertibleCategory, summary string) bool {
	header := fmt.Sprintf("# HAMLET-TODO [%s]: %s", category, summary)
	for _, c := range comments {
		if c == header {
			return true
		}
	}
	return false
}

// Apply attaches an Unconvertible annotation to node: it records the
// Test-IR Unconvertible entry and appends the rendered TODO block to the
// node's leading trivia, after whatever leading comments it already
// carried, so the block sits directly above the node. Node text itself (BaseNode.Original) is left untouched, so
// the annotated construct survives verbatim. Re-applying the identical
// category/summary to a node that already carries that block is a no-op,
// so running the engine twice over its own output never re-emits a TODO.
func Apply(node ast.Node, t *testir.Table, category testir.UnconvertibleCategory, summary, guidance string) {
	original := node.Text()
	t.Unconvertibles[node.ID()] = &testir.Unconvertible{
		NodeID:   node.ID(),
		Category: category,
		Original: firstLine(original),
		Guidance: guidance,
		Start:    node.Start(),
		End:      node.End(),
	}

	trivia := node.GetTrivia()
	if hasBlock(trivia.LeadingComments, category, summary) {
		return
	}

	block := Block(category, summary, original, guidance)
	existing := trivia.LeadingComments
	if len(existing) > 0 {
		// A blank separator line between this block and whatever leading
		// comments the node already had (from a prior pass, or another
		// rule's annotation of the same node).
		trivia.LeadingComments = append(append(append([]string{}, existing...), ""), block...)
	} else {
		trivia.LeadingComments = block
	}
	node.SetTrivia(trivia)
}

// AppendBlock adds a second (or later) TODO block to a node already
// carrying one, separated by a single blank line, preserving
// rule-registration order.
func AppendBlock(node ast.Node, category testir.UnconvertibleCategory, summary, guidance string) {
	original := node.Text()
	block := Block(category, summary, original, guidance)
	trivia := node.GetTrivia()
	trivia.LeadingComments = append(append(trivia.LeadingComments, ""), block...)
	node.SetTrivia(trivia)
}
