// Package diagnostics defines the diagnostic record the transform
// returns: a category, a node span, and a message, formatted with a
// source line extract plus a caret pointing at the column.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/cwbudde/hamlet/internal/token"
)

// Category is the closed set of error categories.
type Category string

const (
	CategoryParseError               Category = "PARSE-ERROR"
	CategoryFixtureCycle             Category = "FIXTURE-CYCLE"
	CategoryUnconvertibleFixture     Category = "UNCONVERTIBLE-FIXTURE"
	CategoryUnconvertibleParametrize Category = "UNCONVERTIBLE-PARAMETRIZE"
	CategoryUnconvertibleMonkeypatch Category = "UNCONVERTIBLE-MONKEYPATCH"
	CategoryUnconvertibleCapture     Category = "UNCONVERTIBLE-CAPTURE"
	CategoryUnconvertibleTmpPath     Category = "UNCONVERTIBLE-TMPPATH"
	CategoryUnconvertibleNosePlugin  Category = "UNCONVERTIBLE-NOSE-PLUGIN"
	CategoryUnconvertibleAssertion   Category = "UNCONVERTIBLE-ASSERTION"
)

// IsHard reports whether a diagnostic of this category aborts the
// transform for its file. PARSE-ERROR and FIXTURE-CYCLE are hard; every
// other category is a soft annotation that never blocks transformation
// of unrelated nodes.
func (c Category) IsHard() bool {
	return c == CategoryParseError || c == CategoryFixtureCycle
}

// NodeSpan locates a diagnostic in the source CST.
type NodeSpan struct {
	Start token.Position
	End   token.Position
}

func (s NodeSpan) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// Diagnostic is one reported finding: a category, the span of the node
// it concerns, and a message.
type Diagnostic struct {
	Category Category
	Span     NodeSpan
	Message  string

	Source string // the file's full source, for source-line rendering
	File   string // display name, optional
}

// Error implements the error interface so a hard Diagnostic can be
// returned directly as Transform's error value.
func (d *Diagnostic) Error() string { return d.Format(false) }

// Format renders the diagnostic with a source-line extract and a caret
// under the offending column, the way CompilerError.Format does.
func (d *Diagnostic) Format(color bool) string {
	var sb strings.Builder

	if d.File != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d\n", d.Category, d.File, d.Span.Start.Line, d.Span.Start.Column)
	} else {
		fmt.Fprintf(&sb, "%s at %d:%d\n", d.Category, d.Span.Start.Line, d.Span.Start.Column)
	}

	if line := d.sourceLine(d.Span.Start.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", d.Span.Start.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+d.Span.Start.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func (d *Diagnostic) sourceLine(lineNum int) string {
	if d.Source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(d.Source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatAll formats a list of diagnostics, numbering them when there is
// more than one.
func FormatAll(diags []*Diagnostic, color bool) string {
	if len(diags) == 0 {
		return ""
	}
	if len(diags) == 1 {
		return diags[0].Format(color)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d diagnostic(s):\n\n", len(diags))
	for i, d := range diags {
		fmt.Fprintf(&sb, "[%d of %d]\n", i+1, len(diags))
		sb.WriteString(d.Format(color))
		if i < len(diags)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// HasHard reports whether any diagnostic in the list is a hard failure.
func HasHard(diags []*Diagnostic) bool {
	for _, d := range diags {
		if d.Category.IsHard() {
			return true
		}
	}
	return false
}
