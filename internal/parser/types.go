// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package parser

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/span"
	"typedlua.dev/tlc/internal/token"
)

// span2 returns the smallest span covering a and b, used throughout the
// parser to build a node's span from its first and last consumed token.
func span2(a, b span.Span) span.Span {
	return span.Join(a, b)
}

var primitiveNames = map[string]ast.Primitive{
	"nil": ast.PrimNil, "boolean": ast.PrimBoolean, "number": ast.PrimNumber,
	"integer": ast.PrimInteger, "string": ast.PrimString, "unknown": ast.PrimUnknown,
	"never": ast.PrimNever, "void": ast.PrimVoid, "table": ast.PrimTable,
	"coroutine": ast.PrimCoroutine,
}

// parseType parses a top-level type annotation, including the union `|`
// and intersection `&` binary forms and the trailing `?` nullable
// suffix.
func (p *Parser) parseType() ast.Type {
	t := p.parseUnionType()
	for p.at(token.Question) {
		q := p.advance()
		t = ast.Nullable(t, span2(t.Span, q.Span))
	}
	return t
}

func (p *Parser) parseUnionType() ast.Type {
	first := p.parseIntersectionType()
	if !p.at(token.Pipe) {
		return first
	}
	members := []ast.Type{first}
	for p.at(token.Pipe) {
		p.advance()
		members = append(members, p.parseIntersectionType())
	}
	return ast.Type{Kind: ast.TypeUnion, Span: members[0].Span, Union: members}
}

func (p *Parser) parseIntersectionType() ast.Type {
	first := p.parsePrimaryType()
	if !p.at(token.Ampersand) {
		return first
	}
	members := []ast.Type{first}
	for p.at(token.Ampersand) {
		p.advance()
		members = append(members, p.parsePrimaryType())
	}
	return ast.Type{Kind: ast.TypeIntersection, Span: members[0].Span, Intersection: members}
}

func (p *Parser) parsePrimaryType() ast.Type {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.LParen:
		p.advance()
		inner := p.parseType()
		end := p.expect(token.RParen)
		return ast.Type{Kind: ast.TypeParenthesized, Span: span2(start, end.Span), Element: &inner}
	case token.LBrace:
		return p.parseObjectType()
	case token.LBracket:
		return p.parseTupleType()
	case token.Function:
		return p.parseFunctionType()
	case token.Identifier:
		return p.parseReferenceOrKeyword()
	default:
		p.errorf(start, diag.Syntactic, "expected type, found %s", p.peek())
		p.advance()
		return ast.Type{Kind: ast.TypePrimitive, Primitive: ast.PrimUnknown, Span: start}
	}
}

func (p *Parser) parseReferenceOrKeyword() ast.Type {
	t := p.advance()
	text := t.Text
	if text == "" {
		text, _ = p.interner.Lookup(t.Ident)
	}
	if text == "keyof" {
		inner := p.parsePrimaryType()
		return ast.Type{Kind: ast.TypeKeyOf, Span: span2(t.Span, inner.Span), KeyOf: &inner}
	}
	if prim, ok := primitiveNames[text]; ok && !p.at(token.Less) {
		return ast.Type{Kind: ast.TypePrimitive, Primitive: prim, Span: t.Span}
	}
	name := p.internName(t)
	var typeArgs []ast.Type
	if p.at(token.Less) {
		typeArgs = p.parseTypeArgList()
	}
	ref := ast.Type{
		Kind: ast.TypeRef,
		Span: t.Span,
		Reference: &ast.TypeReference{Name: name, TypeArgs: typeArgs, Span: t.Span},
	}
	return p.parseTypePostfix(ref)
}

// parseTypePostfix handles indexed access T[K] following a primary type.
func (p *Parser) parseTypePostfix(t ast.Type) ast.Type {
	for p.at(token.LBracket) {
		p.advance()
		key := p.parseType()
		end := p.expect(token.RBracket)
		t = ast.Type{Kind: ast.TypeIndexAccess, Span: span2(t.Span, end.Span), IndexBase: &t, IndexKey: &key}
	}
	return t
}

func (p *Parser) parseTypeArgList() []ast.Type {
	p.expect(token.Less)
	var args []ast.Type
	if !p.at(token.Greater) {
		args = append(args, p.parseType())
		for p.at(token.Comma) {
			p.advance()
			args = append(args, p.parseType())
		}
	}
	p.expect(token.Greater)
	return args
}

func (p *Parser) parseObjectType() ast.Type {
	start := p.expect(token.LBrace)
	var members []ast.ObjectTypeMember
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		members = append(members, p.parseObjectTypeMember())
		p.accept(token.Comma)
		p.accept(token.Semicolon)
	}
	end := p.expect(token.RBrace)
	return ast.Type{Kind: ast.TypeObject, Span: span2(start.Span, end.Span), Object: &ast.ObjectType{Members: members, Span: span2(start.Span, end.Span)}}
}

func (p *Parser) parseObjectTypeMember() ast.ObjectTypeMember {
	readonly := false
	if p.at(token.Readonly) {
		p.advance()
		readonly = true
	}
	if p.at(token.LBracket) {
		p.advance()
		keyName := p.expectIdent()
		p.expect(token.Colon)
		keyType := p.parseType()
		end := p.expect(token.RBracket)
		p.expect(token.Colon)
		valueType := p.parseType()
		return ast.ObjectTypeMember{Kind: ast.MemberIndex, Index: &ast.IndexSignature{
			KeyName: keyName, KeyType: keyType, ValueType: valueType, Span: span2(keyName.Span, end.Span),
		}}
	}
	name := p.expectIdent()
	optional := false
	if p.at(token.Question) {
		p.advance()
		optional = true
	}
	if p.at(token.LParen) {
		params := p.parseParamList()
		var ret ast.Type = ast.Type{Kind: ast.TypePrimitive, Primitive: ast.PrimVoid, Span: name.Span}
		if p.at(token.Colon) {
			p.advance()
			ret = p.parseType()
		}
		return ast.ObjectTypeMember{Kind: ast.MemberMethod, Method: &ast.MethodSignature{
			Name: name, Params: params, ReturnType: ret, Optional: optional, Span: name.Span,
		}}
	}
	p.expect(token.Colon)
	typ := p.parseType()
	return ast.ObjectTypeMember{Kind: ast.MemberProperty, Property: &ast.PropertySignature{
		Name: name, Type: typ, Optional: optional, Readonly: readonly, Span: span2(name.Span, typ.Span),
	}}
}

func (p *Parser) parseTupleType() ast.Type {
	start := p.expect(token.LBracket)
	var elems []ast.Type
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		elems = append(elems, p.parseType())
		if !p.accept2(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBracket)
	return ast.Type{Kind: ast.TypeTuple, Span: span2(start.Span, end.Span), Tuple: elems}
}

func (p *Parser) accept2(k token.Kind) bool {
	_, ok := p.accept(k)
	return ok
}

func (p *Parser) parseFunctionType() ast.Type {
	start := p.expect(token.Function)
	var typeParams []ast.TypeParameter
	if p.at(token.Less) {
		typeParams = p.parseTypeParamList()
	}
	params := p.parseParamList()
	p.expect(token.Colon)
	ret := p.parseType()
	return ast.Type{Kind: ast.TypeFunction, Span: span2(start.Span, ret.Span), Function: &ast.FunctionType{
		TypeParams: typeParams, Params: params, ReturnType: ret, Span: span2(start.Span, ret.Span),
	}}
}

func (p *Parser) parseTypeParamList() []ast.TypeParameter {
	p.expect(token.Less)
	var params []ast.TypeParameter
	for !p.at(token.Greater) && !p.at(token.EOF) {
		name := p.expectIdent()
		var constraint, def *ast.Type
		if p.at(token.Extends) {
			p.advance()
			c := p.parseType()
			constraint = &c
		}
		if p.at(token.Assign) {
			p.advance()
			d := p.parseType()
			def = &d
		}
		params = append(params, ast.TypeParameter{Name: name, Constraint: constraint, Default: def, Span: name.Span})
		if !p.accept2(token.Comma) {
			break
		}
	}
	p.expect(token.Greater)
	return params
}

func (p *Parser) parseParamList() []ast.Parameter {
	p.expect(token.LParen)
	var params []ast.Parameter
	sawRest := false
	for !p.at(token.RParen) && !p.at(token.EOF) {
		rest := false
		if p.at(token.Ellipsis) {
			p.advance()
			rest = true
			if sawRest {
				p.errorf(p.peek().Span, diag.Syntactic, "at most one rest parameter is allowed")
			}
			sawRest = true
		}
		name := p.expectIdent()
		optional := false
		if p.at(token.Question) {
			p.advance()
			optional = true
		}
		var typ ast.Type = ast.Type{Kind: ast.TypePrimitive, Primitive: ast.PrimUnknown, Span: name.Span}
		if p.at(token.Colon) {
			p.advance()
			typ = p.parseType()
		}
		var def ast.Expression
		if p.at(token.Assign) {
			p.advance()
			def = p.parseExpr()
		}
		params = append(params, ast.Parameter{Name: name, Type: typ, Optional: optional, Rest: rest, Default: def, Span: name.Span})
		if !p.accept2(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return params
}
