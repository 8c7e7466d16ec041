// Package parser builds Hamlet's CST (internal/ast) from a token stream:
// a single *Parser holding a two-token lookahead window, per-construct
// parse methods split across a few files, and an Errors() slice of
// recoverable parse diagnostics rather than panics. Unrecognized
// constructs are captured verbatim as ast.Opaque nodes rather than
// rejected, so recognition never fails.
package parser

import (
	"fmt"
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/exprutil"
	"github.com/cwbudde/hamlet/internal/lexer"
	"github.com/cwbudde/hamlet/internal/token"
)

// Parser holds parsing state for a single module.
type Parser struct {
	lex *lexer.Lexer
	src []byte
	mod *ast.Module

	cur, peek token.Token
	errs      []string
}

// New creates a Parser over source.
func New(source string) *Parser {
	p := &Parser{
		lex: lexer.New(source),
		src: []byte(source),
		mod: &ast.Module{Source: []byte(source)},
	}
	p.next()
	p.next()
	return p
}

// Errors returns accumulated recoverable parse diagnostics.
func (p *Parser) Errors() []string { return p.errs }

func (p *Parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, fmt.Sprintf("%s: %s", p.cur.Pos, fmt.Sprintf(format, args...)))
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) nextID() ast.NodeID { return p.mod.NextID() }

// expect consumes the current token if it matches kind, else records an
// error and advances anyway (error-recovery, not a hard stop).
func (p *Parser) expect(kind token.Kind) token.Token {
	tok := p.cur
	if p.cur.Kind != kind {
		p.errorf("expected %s, got %s %q", kind, p.cur.Kind, p.cur.Literal)
	}
	p.next()
	return tok
}

func (p *Parser) takeTrivia() ast.Trivia {
	return ast.Trivia{
		BlankLinesBefore: p.cur.LeadingBlankLines,
		LeadingComments:  p.cur.LeadingComments,
	}
}

// ParseModule parses the entire token stream into an *ast.Module.
func (p *Parser) ParseModule() *ast.Module {
	for p.cur.Kind != token.EOF {
		switch p.cur.Kind {
		case token.NEWLINE:
			p.next()
		case token.IMPORT, token.FROM:
			p.mod.Imports = append(p.mod.Imports, p.parseImport())
		case token.AT:
			decs := p.parseDecoratorStack()
			switch p.cur.Kind {
			case token.DEF:
				p.mod.Items = append(p.mod.Items, p.parseFunctionDef(decs, false))
			case token.CLASS:
				p.mod.Items = append(p.mod.Items, p.parseClassDef(decs))
			default:
				p.mod.Items = append(p.mod.Items, p.parseOpaqueTop())
			}
		case token.DEF:
			p.mod.Items = append(p.mod.Items, p.parseFunctionDef(nil, false))
		case token.CLASS:
			p.mod.Items = append(p.mod.Items, p.parseClassDef(nil))
		default:
			p.mod.Items = append(p.mod.Items, p.parseOpaqueTop())
		}
	}
	p.mod.TrailingTrivia = ast.Trivia{
		BlankLinesBefore: p.cur.LeadingBlankLines,
		LeadingComments:  p.cur.LeadingComments,
	}
	return p.mod
}

func (p *Parser) parseDottedName() string {
	var sb strings.Builder
	sb.WriteString(p.cur.Literal)
	p.next()
	for p.cur.Kind == token.DOT {
		sb.WriteByte('.')
		p.next()
		sb.WriteString(p.cur.Literal)
		p.next()
	}
	return sb.String()
}

func (p *Parser) parseImport() *ast.ImportStmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()
	imp := &ast.ImportStmt{}
	imp.Id = id
	imp.StartPos = start
	imp.Trivia = trivia

	if p.cur.Kind == token.FROM {
		imp.Kind = ast.ImportFrom
		p.next()
		imp.Module = p.parseDottedName()
		p.expect(token.IMPORT)
		for p.cur.Kind != token.NEWLINE && p.cur.Kind != token.EOF {
			if p.cur.Kind == token.COMMA {
				p.next()
				continue
			}
			name := p.cur.Literal
			p.next()
			if p.cur.Kind == token.AS {
				p.next()
				name = name + " as " + p.cur.Literal
				p.next()
			}
			imp.Names = append(imp.Names, name)
		}
	} else {
		imp.Kind = ast.ImportPlain
		p.next() // consume 'import'
		imp.Module = p.parseDottedName()
		if p.cur.Kind == token.AS {
			p.next()
			imp.Alias = p.cur.Literal
			p.next()
		}
	}
	end := p.cur.Pos.Offset
	if p.cur.Kind == token.NEWLINE {
		imp.Trivia.TrailingComment = p.cur.TrailingComment
		p.next()
	}
	imp.EndPos = token.Position{Offset: end}
	imp.Original = string(p.src[startOffset:end])
	return imp
}

func (p *Parser) parseDecoratorStack() []*ast.Decorator {
	var decs []*ast.Decorator
	for p.cur.Kind == token.AT {
		decs = append(decs, p.parseDecorator())
	}
	return decs
}

func (p *Parser) parseDecorator() *ast.Decorator {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()
	p.next() // consume '@'
	name := p.parseDottedName()
	var args []string
	if p.cur.Kind == token.LPAREN {
		raw := p.consumeParenBlob()
		args = splitArgs(raw)
	}
	end := p.cur.Pos.Offset
	trailing := ""
	if p.cur.Kind == token.NEWLINE {
		trailing = p.cur.TrailingComment
		p.next()
	}
	dec := &ast.Decorator{Name: name, Args: args}
	dec.Id = id
	dec.StartPos = start
	dec.EndPos = token.Position{Offset: end}
	dec.Trivia = trivia
	dec.Trivia.TrailingComment = trailing
	dec.Original = string(p.src[startOffset:end])
	return dec
}

// consumeParenBlob assumes p.cur is LPAREN; it returns the raw text between
// the matching parens (not including the parens themselves) and leaves
// p.cur positioned just past the matching RPAREN.
func (p *Parser) consumeParenBlob() string {
	p.next() // skip '('
	start := p.cur.Pos.Offset
	depth := 1
	end := start
	for {
		if p.cur.Kind == token.EOF {
			end = p.cur.Pos.Offset
			break
		}
		switch p.cur.Kind {
		case token.LPAREN, token.LBRACKET, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACKET, token.RBRACE:
			depth--
			if depth == 0 {
				end = p.cur.Pos.Offset
				p.next()
				return strings.TrimSpace(string(p.src[start:end]))
			}
		}
		p.next()
	}
	return strings.TrimSpace(string(p.src[start:end]))
}

func splitArgs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return exprutil.SplitTopLevel(raw, ',')
}
