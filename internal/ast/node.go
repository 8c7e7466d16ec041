// Package ast defines Hamlet's trivia-preserving concrete syntax tree:
// every node retains the exact source text it was parsed from plus any
// leading blank lines/comments and a trailing inline comment, so that a
// node the transformation driver never touches serializes back
// byte-for-byte. Rewrites build *synthetic* replacement nodes (structured
// fields only, no original text) that the printer renders from scratch.
//
// Test-IR annotations are not stored on these nodes directly; they
// live in a side table (internal/testir) keyed by NodeID, per the
// ownership rule that the CST owns text/trivia and the Test-IR only holds
// references into it.
package ast

import "github.com/cwbudde/hamlet/internal/token"

// NodeID stably identifies a CST node for the lifetime of one transform
// call. IDs are assigned by the parser in document order and never reused,
// even when a node is replaced, so a stale Test-IR entry can always be
// detected by checking whether its NodeID is still present in the tree.
type NodeID int64

// Trivia bundles the whitespace-significant material immediately
// surrounding a node: blank lines and full-line comments before it, and an
// inline comment trailing the logical line it ends.
type Trivia struct {
	BlankLinesBefore int
	LeadingComments  []string
	TrailingComment  string
}

// Node is the common interface implemented by every CST node.
type Node interface {
	ID() NodeID
	Start() token.Position
	End() token.Position
	GetTrivia() Trivia
	SetTrivia(Trivia)
	// Text returns the exact original source slice for this node (empty for
	// a synthetic/rewritten node).
	Text() string
	// IsSynthetic reports whether this node was constructed by a rewrite
	// rule rather than parsed from source.
	IsSynthetic() bool
}

// BaseNode implements the common bookkeeping fields of Node. Concrete node
// types embed it.
type BaseNode struct {
	Id        NodeID
	StartPos  token.Position
	EndPos    token.Position
	Trivia    Trivia
	Original  string
	Synthetic bool
}

func (b *BaseNode) ID() NodeID                { return b.Id }
func (b *BaseNode) Start() token.Position     { return b.StartPos }
func (b *BaseNode) End() token.Position       { return b.EndPos }
func (b *BaseNode) GetTrivia() Trivia         { return b.Trivia }
func (b *BaseNode) SetTrivia(t Trivia)        { b.Trivia = t }
func (b *BaseNode) Text() string              { return b.Original }
func (b *BaseNode) IsSynthetic() bool         { return b.Synthetic }

// IDGen hands out monotonically increasing NodeIDs during a single parse.
type IDGen struct{ next NodeID }

func (g *IDGen) Next() NodeID {
	g.next++
	return g.next
}
