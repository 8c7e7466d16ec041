package ast

// TopLevel is any node that can appear directly in a Module's item list.
type TopLevel interface {
	Node
	topLevelNode()
}

// ClassMember is any node that can appear in a TestClass body.
type ClassMember interface {
	Node
	classMemberNode()
}

// ImportKind distinguishes `import x` from `from x import a, b`.
type ImportKind int

const (
	ImportPlain ImportKind = iota
	ImportFrom
)

// ImportStmt models one import line. Hamlet does not need a full import
// grammar: it needs enough structure for import reconciliation while
// reproducing the line verbatim when untouched.
type ImportStmt struct {
	BaseNode
	Kind    ImportKind
	Module  string   // "unittest", "pytest", "os.path", ...
	Names   []string // for ImportFrom: the imported names (possibly aliased "x as y")
	Alias   string   // for ImportPlain: "import x as y"
}

func (*ImportStmt) topLevelNode() {}

// Module is the root CST node: an ordered list of imports and top-level
// items, plus any trivia trailing the last item (e.g. a final comment
// block with no following node).
type Module struct {
	BaseNode
	Source         []byte
	Imports        []*ImportStmt
	Items          []TopLevel
	TrailingTrivia Trivia
	idgen          IDGen
}

func (m *Module) NextID() NodeID { return m.idgen.Next() }

// Slice returns the exact source text between two offsets, for verbatim
// capture of nodes and for building Unconvertible.Original fields.
func (m *Module) Slice(startOffset, endOffset int) string {
	if startOffset < 0 {
		startOffset = 0
	}
	if endOffset > len(m.Source) {
		endOffset = len(m.Source)
	}
	if startOffset >= endOffset {
		return ""
	}
	return string(m.Source[startOffset:endOffset])
}
