package parser

import (
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/exprutil"
	"github.com/cwbudde/hamlet/internal/token"
)

func (p *Parser) parseFunctionDef(decs []*ast.Decorator, isMethod bool) *ast.FunctionDef {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	p.expect(token.DEF)
	name := p.cur.Literal
	p.next()

	var paramsRaw string
	if p.cur.Kind == token.LPAREN {
		paramsRaw = p.consumeParenBlob()
	}
	params := parseParamList(paramsRaw)

	retAnno := ""
	if p.cur.Kind == token.ARROW {
		p.next()
		retAnno = p.consumeHeaderExprRaw()
	}
	p.expect(token.COLON)
	body, end := p.parseBlock()

	f := &ast.FunctionDef{
		Decorators:       decs,
		Name:             name,
		Params:           params,
		ReturnAnnotation: retAnno,
		Body:             body,
		IsMethod:         isMethod,
	}
	f.Id = id
	f.StartPos = start
	f.EndPos = token.Position{Offset: end}
	f.Trivia = trivia
	f.Original = string(p.src[startOffset:end])
	return f
}

func parseParamList(raw string) []*ast.Param {
	parts := exprutil.SplitTopLevel(raw, ',')
	var params []*ast.Param
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pm := &ast.Param{}
		for strings.HasPrefix(part, "*") {
			if strings.HasPrefix(part, "**") {
				pm.Star = "**"
				part = strings.TrimSpace(part[2:])
			} else {
				pm.Star = "*"
				part = strings.TrimSpace(part[1:])
			}
		}
		namePart := part
		if eq := exprutil.FindTopLevel(part, "="); eq >= 0 {
			namePart = strings.TrimSpace(part[:eq])
			pm.DefaultRaw = strings.TrimSpace(part[eq+1:])
		}
		if colon := exprutil.FindTopLevel(namePart, ":"); colon >= 0 {
			pm.Name = strings.TrimSpace(namePart[:colon])
			pm.AnnotationRaw = strings.TrimSpace(namePart[colon+1:])
		} else {
			pm.Name = namePart
		}
		params = append(params, pm)
	}
	return params
}

func (p *Parser) parseClassDef(decs []*ast.Decorator) *ast.ClassDef {
	trivia := p.takeTrivia()
	start := p.cur.Pos
	startOffset := p.cur.Pos.Offset
	id := p.nextID()

	p.expect(token.CLASS)
	name := p.cur.Literal
	p.next()

	var bases []string
	if p.cur.Kind == token.LPAREN {
		raw := p.consumeParenBlob()
		bases = exprutil.SplitTopLevel(raw, ',')
	}
	p.expect(token.COLON)
	body, end := p.parseClassBody()

	c := &ast.ClassDef{Decorators: decs, Name: name, Bases: bases, Body: body}
	c.Id = id
	c.StartPos = start
	c.EndPos = token.Position{Offset: end}
	c.Trivia = trivia
	c.Original = string(p.src[startOffset:end])
	return c
}

func (p *Parser) parseClassBody() ([]ast.ClassMember, int) {
	if p.cur.Kind == token.NEWLINE {
		p.next()
	}
	if p.cur.Kind != token.INDENT {
		return nil, p.cur.Pos.Offset
	}
	p.next()
	var members []ast.ClassMember
	for p.cur.Kind != token.DEDENT && p.cur.Kind != token.EOF {
		members = append(members, p.parseClassMember())
	}
	end := p.cur.Pos.Offset
	if p.cur.Kind == token.DEDENT {
		p.next()
	}
	return members, end
}

func (p *Parser) parseClassMember() ast.ClassMember {
	switch p.cur.Kind {
	case token.AT:
		decs := p.parseDecoratorStack()
		switch p.cur.Kind {
		case token.DEF:
			return p.parseFunctionDef(decs, true)
		case token.CLASS:
			return p.parseClassDef(decs)
		default:
			return p.parseOpaqueMember()
		}
	case token.DEF:
		return p.parseFunctionDef(nil, true)
	case token.CLASS:
		return p.parseClassDef(nil)
	default:
		return p.parseOpaqueMember()
	}
}
