package parser

import (
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/exprutil"
	"github.com/cwbudde/hamlet/internal/token"
)

// parseBlock parses the indented statement list following a ':' + NEWLINE.
// It returns the parsed statements and the source offset the block ends at
// (the DEDENT token's own position, which sits right after the block's
// last line), so the caller can slice Original text for the whole
// enclosing construct.
func (p *Parser) parseBlock() ([]ast.Stmt, int) {
	if p.cur.Kind == token.NEWLINE {
		p.next()
	}
	if p.cur.Kind != token.INDENT {
		// Degenerate single-line body; nothing to recurse into.
		return nil, p.cur.Pos.Offset
	}
	p.next() // consume INDENT
	var stmts []ast.Stmt
	for p.cur.Kind != token.DEDENT && p.cur.Kind != token.EOF {
		stmts = append(stmts, p.parseStatement())
	}
	end := p.cur.Pos.Offset
	if p.cur.Kind == token.DEDENT {
		p.next()
	}
	return stmts, end
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur.Kind {
	case token.NEWLINE:
		p.next()
		return p.parseStatement()
	case token.ASSERT:
		return p.parseAssert()
	case token.RETURN:
		return p.parseReturn()
	case token.YIELD:
		return p.parseYield()
	case token.PASS:
		return p.parsePass()
	case token.RAISE:
		return p.parseRaise()
	case token.FOR:
		return p.parseFor()
	case token.WITH:
		return p.parseWith()
	case token.IF:
		return p.parseIf()
	case token.IDENT:
		return p.parseAssignOrExpr()
	default:
		return p.parseOpaqueStmt()
	}
}

// consumeSimpleLineRaw consumes tokens up to (and including) the next
// NEWLINE, returning the raw source text of the line (trimmed of trailing
// horizontal whitespace), the offset just past it, and any trailing inline
// comment carried by the NEWLINE token.
func (p *Parser) consumeSimpleLineRaw() (raw string, end int, trailing string) {
	start := p.cur.Pos.Offset
	for p.cur.Kind != token.NEWLINE && p.cur.Kind != token.EOF {
		p.next()
	}
	end = p.cur.Pos.Offset
	if p.cur.Kind == token.NEWLINE {
		trailing = p.cur.TrailingComment
		p.next()
	}
	raw = string(p.src[start:end])
	// The NEWLINE token's own offset sits just past any trailing inline
	// comment (the lexer consumes "  # comment" as trivia before emitting
	// NEWLINE), so the naive slice still contains it; strip it back off so
	// structured fields (ExprRaw, ValueRaw, ...) never carry comment text
	// that is also reproduced separately via Trivia.TrailingComment.
	if trailing != "" {
		if idx := strings.LastIndex(raw, trailing); idx >= 0 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimRight(raw, " \t\r")
	return raw, end, trailing
}

// consumeHeaderExprRaw consumes tokens up to (but not including) the next
// ':' or EOF, returning the trimmed raw text. Used for if/elif/for/with
// clause headers.
func (p *Parser) consumeHeaderExprRaw() string {
	start := p.cur.Pos.Offset
	for p.cur.Kind != token.COLON && p.cur.Kind != token.EOF {
		p.next()
	}
	return strings.TrimSpace(string(p.src[start:p.cur.Pos.Offset]))
}

func (p *Parser) parseAssert() ast.Stmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	raw, end, trailing := p.consumeSimpleLineRaw()
	rest := strings.TrimSpace(strings.TrimPrefix(raw, "assert"))
	exprRaw, msgRaw := rest, ""
	if idx := exprutil.FindTopLevel(rest, ","); idx >= 0 {
		exprRaw = strings.TrimSpace(rest[:idx])
		msgRaw = strings.TrimSpace(rest[idx+1:])
	}

	a := &ast.AssertStmt{ExprRaw: exprRaw, MessageRaw: msgRaw}
	a.Id = id
	a.StartPos = start
	a.EndPos = token.Position{Offset: end}
	a.Trivia = trivia
	a.Trivia.TrailingComment = trailing
	a.Original = string(p.src[startOffset:end])
	return a
}

func (p *Parser) parseReturn() ast.Stmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	raw, end, trailing := p.consumeSimpleLineRaw()
	value := strings.TrimSpace(strings.TrimPrefix(raw, "return"))

	r := &ast.ReturnStmt{ValueRaw: value}
	r.Id = id
	r.StartPos = start
	r.EndPos = token.Position{Offset: end}
	r.Trivia = trivia
	r.Trivia.TrailingComment = trailing
	r.Original = string(p.src[startOffset:end])
	return r
}

func (p *Parser) parseYield() ast.Stmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	raw, end, trailing := p.consumeSimpleLineRaw()
	value := strings.TrimSpace(strings.TrimPrefix(raw, "yield"))

	y := &ast.YieldStmt{ValueRaw: value}
	y.Id = id
	y.StartPos = start
	y.EndPos = token.Position{Offset: end}
	y.Trivia = trivia
	y.Trivia.TrailingComment = trailing
	y.Original = string(p.src[startOffset:end])
	return y
}

func (p *Parser) parsePass() ast.Stmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	_, end, trailing := p.consumeSimpleLineRaw()

	ps := &ast.PassStmt{}
	ps.Id = id
	ps.StartPos = start
	ps.EndPos = token.Position{Offset: end}
	ps.Trivia = trivia
	ps.Trivia.TrailingComment = trailing
	ps.Original = string(p.src[startOffset:end])
	return ps
}

func (p *Parser) parseRaise() ast.Stmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	raw, end, trailing := p.consumeSimpleLineRaw()
	value := strings.TrimSpace(strings.TrimPrefix(raw, "raise"))

	r := &ast.RaiseStmt{Raw: value}
	r.Id = id
	r.StartPos = start
	r.EndPos = token.Position{Offset: end}
	r.Trivia = trivia
	r.Trivia.TrailingComment = trailing
	r.Original = string(p.src[startOffset:end])
	return r
}

func (p *Parser) parseFor() ast.Stmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	p.next() // consume 'for'
	varStart := p.cur.Pos.Offset
	for p.cur.Kind != token.IN && p.cur.Kind != token.EOF {
		p.next()
	}
	varRaw := strings.TrimSpace(string(p.src[varStart:p.cur.Pos.Offset]))
	p.expect(token.IN)
	iterRaw := p.consumeHeaderExprRaw()
	p.expect(token.COLON)
	body, end := p.parseBlock()

	f := &ast.ForStmt{VarRaw: varRaw, IterRaw: iterRaw, Body: body}
	f.Id = id
	f.StartPos = start
	f.EndPos = token.Position{Offset: end}
	f.Trivia = trivia
	f.Original = string(p.src[startOffset:end])
	return f
}

func (p *Parser) parseWith() ast.Stmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	p.next() // consume 'with'
	ctxStart := p.cur.Pos.Offset
	for p.cur.Kind != token.COLON && p.cur.Kind != token.AS && p.cur.Kind != token.EOF {
		p.next()
	}
	ctxRaw := strings.TrimSpace(string(p.src[ctxStart:p.cur.Pos.Offset]))
	asRaw := ""
	if p.cur.Kind == token.AS {
		p.next()
		asStart := p.cur.Pos.Offset
		for p.cur.Kind != token.COLON && p.cur.Kind != token.EOF {
			p.next()
		}
		asRaw = strings.TrimSpace(string(p.src[asStart:p.cur.Pos.Offset]))
	}
	p.expect(token.COLON)
	body, end := p.parseBlock()

	w := &ast.WithStmt{ContextRaw: ctxRaw, AsRaw: asRaw, Body: body}
	w.Id = id
	w.StartPos = start
	w.EndPos = token.Position{Offset: end}
	w.Trivia = trivia
	w.Original = string(p.src[startOffset:end])
	return w
}

func (p *Parser) parseIf() ast.Stmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	p.next() // consume 'if'
	condRaw := p.consumeHeaderExprRaw()
	p.expect(token.COLON)
	body, end := p.parseBlock()

	ifs := &ast.IfStmt{CondRaw: condRaw, Body: body}
	for p.cur.Kind == token.ELIF {
		p.next()
		eCond := p.consumeHeaderExprRaw()
		p.expect(token.COLON)
		eBody, eEnd := p.parseBlock()
		ifs.ElifBranches = append(ifs.ElifBranches, ast.ElifBranch{CondRaw: eCond, Body: eBody})
		end = eEnd
	}
	if p.cur.Kind == token.ELSE {
		p.next()
		p.expect(token.COLON)
		eBody, eEnd := p.parseBlock()
		ifs.ElseBody = eBody
		end = eEnd
	}

	ifs.Id = id
	ifs.StartPos = start
	ifs.EndPos = token.Position{Offset: end}
	ifs.Trivia = trivia
	ifs.Original = string(p.src[startOffset:end])
	return ifs
}

// splitAssign splits raw at the first top-level '=' that is a plain
// assignment operator, not part of ==, !=, <=, >=, or an augmented
// assignment like +=. Augmented assignments and chained/tuple targets are
// left to the opaque fallback; Hamlet's rewrites only ever need to read
// simple `name = value` and `self.attr = value` forms.
func splitAssign(raw string) (key, value string, ok bool) {
	rest := raw
	offset := 0
	for {
		idx := exprutil.FindTopLevel(rest, "=")
		if idx < 0 {
			return "", "", false
		}
		bad := false
		if idx+1 < len(rest) && rest[idx+1] == '=' {
			bad = true
		}
		if idx > 0 && strings.ContainsRune("=!<>+-*/%&|^", rune(rest[idx-1])) {
			bad = true
		}
		if !bad {
			abs := offset + idx
			return strings.TrimSpace(raw[:abs]), strings.TrimSpace(raw[abs+1:]), true
		}
		offset += idx + 1
		rest = rest[idx+1:]
	}
}

func (p *Parser) parseAssignOrExpr() ast.Stmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	raw, end, trailing := p.consumeSimpleLineRaw()

	if key, value, ok := splitAssign(raw); ok {
		a := &ast.AssignStmt{TargetRaw: key, ValueRaw: value}
		if strings.HasPrefix(key, "self.") {
			a.IsSelfAttr = true
			a.AttrName = strings.TrimPrefix(key, "self.")
		}
		a.Id = id
		a.StartPos = start
		a.EndPos = token.Position{Offset: end}
		a.Trivia = trivia
		a.Trivia.TrailingComment = trailing
		a.Original = string(p.src[startOffset:end])
		return a
	}

	e := &ast.ExprStmt{Raw: raw}
	e.Id = id
	e.StartPos = start
	e.EndPos = token.Position{Offset: end}
	e.Trivia = trivia
	e.Trivia.TrailingComment = trailing
	e.Original = string(p.src[startOffset:end])
	return e
}

// parseOpaqueStmt captures a statement-position construct this parser
// gives no structure to (while/try/del/global/nonlocal, nested def/class,
// or anything else), verbatim, including its nested block if any.
func (p *Parser) parseOpaqueStmt() ast.Stmt {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()
	end := p.consumeOpaqueUnit()

	o := &ast.Opaque{}
	o.Id = id
	o.StartPos = start
	o.EndPos = token.Position{Offset: end}
	o.Trivia = trivia
	o.Original = string(p.src[startOffset:end])
	return o
}

func (p *Parser) parseOpaqueMember() ast.ClassMember {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()
	end := p.consumeOpaqueUnit()

	o := &ast.Opaque{}
	o.Id = id
	o.StartPos = start
	o.EndPos = token.Position{Offset: end}
	o.Trivia = trivia
	o.Original = string(p.src[startOffset:end])
	return o
}

func (p *Parser) parseOpaqueTop() ast.TopLevel {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()
	end := p.consumeOpaqueUnit()

	o := &ast.Opaque{}
	o.Id = id
	o.StartPos = start
	o.EndPos = token.Position{Offset: end}
	o.Trivia = trivia
	o.Original = string(p.src[startOffset:end])
	return o
}

// consumeOpaqueUnit advances past the current statement's header line and,
// if it opens a nested block (the line ends in a NEWLINE followed by an
// INDENT), past the whole indented block, tracking INDENT/DEDENT depth so
// nested blocks of the same construct don't close it early. It returns the
// source offset the unit ends at.
func (p *Parser) consumeOpaqueUnit() int {
	for {
		switch p.cur.Kind {
		case token.EOF:
			return p.cur.Pos.Offset
		case token.NEWLINE:
			end := p.cur.Pos.Offset
			p.next()
			if p.cur.Kind != token.INDENT {
				return end
			}
			p.next()
			depth := 1
			blockEnd := end
			for depth > 0 && p.cur.Kind != token.EOF {
				switch p.cur.Kind {
				case token.INDENT:
					depth++
					p.next()
				case token.DEDENT:
					depth--
					blockEnd = p.cur.Pos.Offset
					p.next()
				default:
					p.next()
				}
			}
			return blockEnd
		default:
			p.next()
		}
	}
}
