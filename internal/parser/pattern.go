// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package parser

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/token"
)

// parsePattern parses a single pattern, used in destructuring
// declarations, nested array/object patterns, and match arms.
// Parameters are plain identifiers and do not go through it.
func (p *Parser) parsePattern() ast.Pattern {
	pat := p.parsePrimaryPattern()
	if p.at(token.Or) {
		variants := []ast.Pattern{pat}
		for p.at(token.Or) {
			p.advance()
			variants = append(variants, p.parsePrimaryPattern())
		}
		return ast.Pattern{Kind: ast.PatOr, Span: variants[0].Span, Or: variants}
	}
	return pat
}

func (p *Parser) parsePrimaryPattern() ast.Pattern {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.Identifier:
		t := p.advance()
		text := t.Text
		if text == "_" {
			return ast.Pattern{Kind: ast.PatWildcard, Span: start}
		}
		id := p.internName(t)
		return ast.Pattern{Kind: ast.PatIdentifier, Span: start, Ident: &id}
	case token.Nil, token.True, token.False, token.StringLiteral, token.NumberLiteral, token.IntegerLiteral:
		lit := p.parseLiteralToken()
		return ast.Pattern{Kind: ast.PatLiteral, Span: start, Literal: &lit}
	case token.LBracket:
		return p.parseArrayPattern()
	case token.LBrace:
		return p.parseObjectPattern()
	default:
		p.errorf(start, diag.Syntactic, "expected pattern, found %s", p.peek())
		p.advance()
		return ast.Pattern{Kind: ast.PatWildcard, Span: start}
	}
}

func (p *Parser) parseArrayPattern() ast.Pattern {
	start := p.expect(token.LBracket)
	var elems []ast.ArrayPatternElement
	sawRest := false
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		if p.at(token.Comma) {
			elems = append(elems, ast.ArrayPatternElement{Kind: ast.ArrayPatHole})
			p.advance()
			continue
		}
		if p.at(token.Ellipsis) {
			p.advance()
			if sawRest {
				p.errorf(p.peek().Span, diag.Syntactic, "at most one rest element is allowed in a pattern")
			}
			sawRest = true
			inner := p.parsePrimaryPattern()
			elems = append(elems, ast.ArrayPatternElement{Kind: ast.ArrayPatRest, Pattern: &inner})
		} else {
			inner := p.parsePattern()
			elems = append(elems, ast.ArrayPatternElement{Kind: ast.ArrayPatElem, Pattern: &inner})
		}
		if !p.accept2(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBracket)
	return ast.Pattern{Kind: ast.PatArray, Span: span2(start.Span, end.Span), Array: &ast.ArrayPattern{Elements: elems, Span: span2(start.Span, end.Span)}}
}

func (p *Parser) parseObjectPattern() ast.Pattern {
	start := p.expect(token.LBrace)
	var props []ast.ObjectPatternProperty
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		key := p.expectIdent()
		var value *ast.Pattern
		if p.at(token.Colon) {
			p.advance()
			v := p.parsePattern()
			value = &v
		}
		var def *ast.Expression
		if p.at(token.Assign) {
			p.advance()
			e := p.parseExpr()
			def = &e
		}
		props = append(props, ast.ObjectPatternProperty{Key: key, Value: value, Default: def, Span: key.Span})
		if !p.accept2(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBrace)
	return ast.Pattern{Kind: ast.PatObject, Span: span2(start.Span, end.Span), Object: &ast.ObjectPattern{Properties: props, Span: span2(start.Span, end.Span)}}
}
