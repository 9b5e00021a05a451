// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package parser

import (
	"strconv"

	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/span"
	"typedlua.dev/tlc/internal/token"
)

// precedence levels, low to high. `|>` and `??` are handled above this
// table since they sit outside the usual binary-operator ladder.
const (
	precNone = iota
	precOr
	precAnd
	precEquality
	precComparison
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precConcat
	precAdditive
	precMultiplicative
	precPow
)

func binPrec(k token.Kind) (int, ast.BinaryOp, bool) {
	switch k {
	case token.Or:
		return precOr, ast.BinOr, true
	case token.And:
		return precAnd, ast.BinAnd, true
	case token.Equal:
		return precEquality, ast.BinEq, true
	case token.NotEqual:
		return precEquality, ast.BinNotEq, true
	case token.Less:
		return precComparison, ast.BinLess, true
	case token.LessEqual:
		return precComparison, ast.BinLessEq, true
	case token.Greater:
		return precComparison, ast.BinGreater, true
	case token.GreaterEqual:
		return precComparison, ast.BinGreaterEq, true
	case token.Is:
		return precComparison, ast.BinInstanceOf, true
	case token.Pipe:
		return precBitOr, ast.BinBitOr, true
	case token.Tilde:
		return precBitXor, ast.BinBitXor, true
	case token.Ampersand:
		return precBitAnd, ast.BinBitAnd, true
	case token.ShiftLeft:
		return precShift, ast.BinShiftLeft, true
	case token.ShiftRight:
		return precShift, ast.BinShiftRight, true
	case token.DotDot:
		return precConcat, ast.BinConcat, true
	case token.Plus:
		return precAdditive, ast.BinAdd, true
	case token.Minus:
		return precAdditive, ast.BinSub, true
	case token.Star:
		return precMultiplicative, ast.BinMul, true
	case token.Slash:
		return precMultiplicative, ast.BinDiv, true
	case token.DoubleSlash:
		return precMultiplicative, ast.BinFloorDiv, true
	case token.Percent:
		return precMultiplicative, ast.BinMod, true
	case token.Caret:
		return precPow, ast.BinPow, true
	}
	return precNone, 0, false
}

// parseExpr parses a full expression: pipe, then null-coalesce, then the
// usual binary-operator ladder (spec §4.2).
func (p *Parser) parseExpr() ast.Expression {
	return p.parsePipeExpr()
}

func (p *Parser) parsePipeExpr() ast.Expression {
	left := p.parseCoalesceExpr()
	for p.at(token.PipeArrow) {
		p.advance()
		right := p.parseCoalesceExpr()
		left = ast.Expression{Kind: ast.ExprPipe, Span: span2(left.Span, right.Span), Pipe: &ast.PipeExpr{
			Value: left, Func: right, Span: span2(left.Span, right.Span),
		}}
	}
	return left
}

func (p *Parser) parseCoalesceExpr() ast.Expression {
	left := p.parseBinaryExpr(precOr)
	for p.at(token.QuestionQuestion) {
		p.advance()
		right := p.parseBinaryExpr(precOr)
		left = ast.Expression{Kind: ast.ExprNullCoalesce, Span: span2(left.Span, right.Span), Coalesce: &ast.BinaryLikeExpr{
			Left: left, Right: right, Span: span2(left.Span, right.Span),
		}}
	}
	return left
}

// parseBinaryExpr implements Pratt-style precedence climbing starting at
// minPrec; `^` is right-associative, every other operator left-associative.
func (p *Parser) parseBinaryExpr(minPrec int) ast.Expression {
	left := p.parseUnaryExpr()
	for {
		prec, op, ok := binPrec(p.peek().Kind)
		if !ok || prec < minPrec {
			return left
		}
		p.advance()
		nextMin := prec + 1
		if op == ast.BinPow {
			nextMin = prec
		}
		right := p.parseBinaryExpr(nextMin)
		left = ast.Expression{Kind: ast.ExprBinary, Span: span2(left.Span, right.Span), Binary: &ast.BinaryExpr{
			Op: op, Left: left, Right: right, Span: span2(left.Span, right.Span),
		}}
	}
}

func (p *Parser) parseUnaryExpr() ast.Expression {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.Not:
		p.advance()
		operand := p.parseUnaryExpr()
		return ast.Expression{Kind: ast.ExprUnary, Span: span2(start, operand.Span), Unary: &ast.UnaryExpr{Op: ast.UnaryNot, Operand: operand, Span: span2(start, operand.Span)}}
	case token.Minus:
		p.advance()
		operand := p.parseUnaryExpr()
		return ast.Expression{Kind: ast.ExprUnary, Span: span2(start, operand.Span), Unary: &ast.UnaryExpr{Op: ast.UnaryNeg, Operand: operand, Span: span2(start, operand.Span)}}
	case token.Hash:
		p.advance()
		operand := p.parseUnaryExpr()
		return ast.Expression{Kind: ast.ExprUnary, Span: span2(start, operand.Span), Unary: &ast.UnaryExpr{Op: ast.UnaryLen, Operand: operand, Span: span2(start, operand.Span)}}
	case token.Tilde:
		p.advance()
		operand := p.parseUnaryExpr()
		return ast.Expression{Kind: ast.ExprUnary, Span: span2(start, operand.Span), Unary: &ast.UnaryExpr{Op: ast.UnaryBitNot, Operand: operand, Span: span2(start, operand.Span)}}
	case token.Throw:
		p.advance()
		operand := p.parseExpr()
		return ast.Expression{Kind: ast.ExprThrow, Span: span2(start, operand.Span), Throw: &operand}
	default:
		return p.parseBangExpr()
	}
}

// parseBangExpr handles the postfix `expr !! fallback` form that
// supplements the original parser's bare try/catch with an inline
// fallback-value shorthand.
func (p *Parser) parseBangExpr() ast.Expression {
	e := p.parsePostfixExpr()
	for p.at(token.BangBang) {
		p.advance()
		fallback := p.parsePostfixExpr()
		e = ast.Expression{Kind: ast.ExprBang, Span: span2(e.Span, fallback.Span), Bang: &ast.BangExpr{
			Try: e, Fallback: fallback, Span: span2(e.Span, fallback.Span),
		}}
	}
	return e
}

func (p *Parser) parsePostfixExpr() ast.Expression {
	e := p.parsePrimaryExpr()
	for {
		switch p.peek().Kind {
		case token.Dot:
			p.advance()
			name := p.expectIdent()
			obj := e
			e = ast.Expression{Kind: ast.ExprMember, Span: span2(e.Span, name.Span), Member: &ast.MemberExpr{Object: &obj, Name: name, Span: span2(e.Span, name.Span)}}
		case token.QuestionDot:
			p.advance()
			name := p.expectIdent()
			obj := e
			e = ast.Expression{Kind: ast.ExprSafeNav, Span: span2(e.Span, name.Span), SafeNav: &ast.MemberExpr{Object: &obj, Name: name, Optional: true, Span: span2(e.Span, name.Span)}}
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			end := p.expect(token.RBracket)
			obj := e
			e = ast.Expression{Kind: ast.ExprIndex, Span: span2(e.Span, end.Span), Index: &ast.IndexExpr{Object: &obj, Index: &idx, Span: span2(e.Span, end.Span)}}
		case token.LParen:
			args, end := p.parseArgList()
			e = ast.Expression{Kind: ast.ExprCall, Span: span2(e.Span, end), Call: &ast.CallExpr{Callee: e, Args: args, Span: span2(e.Span, end)}}
		case token.Colon:
			p.advance()
			method := p.expectIdent()
			args, end := p.parseArgList()
			e = ast.Expression{Kind: ast.ExprMethodCall, Span: span2(e.Span, end), Method: &ast.MethodCallExpr{Object: e, Method: method, Args: args, Span: span2(e.Span, end)}}
		default:
			return e
		}
	}
}

// parseArgList parses a parenthesized, comma-separated call argument
// list, each argument optionally spread with `...`.
func (p *Parser) parseArgList() ([]ast.Argument, span.Span) {
	p.expect(token.LParen)
	var args []ast.Argument
	for !p.at(token.RParen) && !p.at(token.EOF) {
		spread := false
		if p.at(token.Ellipsis) {
			p.advance()
			spread = true
		}
		v := p.parseExpr()
		args = append(args, ast.Argument{Value: v, Spread: spread})
		if !p.accept2(token.Comma) {
			break
		}
	}
	end := p.expect(token.RParen)
	return args, end.Span
}

func (p *Parser) parseLiteralToken() ast.Literal {
	t := p.advance()
	switch t.Kind {
	case token.Nil:
		return ast.Literal{Kind: ast.LitNil, Span: t.Span}
	case token.True:
		return ast.Literal{Kind: ast.LitBoolean, Bool: true, Span: t.Span}
	case token.False:
		return ast.Literal{Kind: ast.LitBoolean, Bool: false, Span: t.Span}
	case token.StringLiteral:
		return ast.Literal{Kind: ast.LitString, Str: t.Text, Span: t.Span}
	case token.NumberLiteral:
		v, _ := strconv.ParseFloat(t.Text, 64)
		return ast.Literal{Kind: ast.LitNumber, Num: v, Span: t.Span}
	case token.IntegerLiteral:
		v, err := strconv.ParseInt(t.Text, 0, 64)
		if err != nil {
			f, _ := strconv.ParseFloat(t.Text, 64)
			return ast.Literal{Kind: ast.LitNumber, Num: f, Span: t.Span}
		}
		return ast.Literal{Kind: ast.LitInteger, Int: v, Span: t.Span}
	default:
		p.errorf(t.Span, diag.Syntactic, "expected literal, found %s", t)
		return ast.Literal{Kind: ast.LitNil, Span: t.Span}
	}
}

func (p *Parser) parsePrimaryExpr() ast.Expression {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.Nil, token.True, token.False, token.StringLiteral, token.NumberLiteral, token.IntegerLiteral:
		lit := p.parseLiteralToken()
		return ast.Expression{Kind: ast.ExprLiteral, Span: lit.Span, Literal: &lit}
	case token.Identifier:
		t := p.advance()
		id := p.internName(t)
		return ast.IdentRef(id)
	case token.Self:
		p.advance()
		id := ast.Ident{Name: p.common.Self, Span: start}
		return ast.IdentRef(id)
	case token.Super:
		p.advance()
		return ast.Expression{Kind: ast.ExprSuper, Span: start}
	case token.New:
		return p.parseNewExpr()
	case token.LParen:
		return p.parseParenOrArrow()
	case token.LBracket:
		return p.parseArrayExpr()
	case token.LBrace:
		return p.parseObjectExpr()
	case token.Backslash:
		return p.parseArrowShorthand()
	case token.Ellipsis:
		p.advance()
		inner := p.parseUnaryExpr()
		return ast.Expression{Kind: ast.ExprSpread, Span: span2(start, inner.Span), Spread: &inner}
	case token.Match:
		return p.parseMatchExpr()
	case token.Try:
		return p.parseTryExpr()
	case token.TemplateString:
		return p.parseTemplateLiteral()
	case token.Function:
		return p.parseFunctionExpr()
	default:
		p.errorf(start, diag.Syntactic, "unexpected token %s in expression", p.peek())
		p.advance()
		return ast.Expression{Kind: ast.ExprLiteral, Span: start, Literal: &ast.Literal{Kind: ast.LitNil, Span: start}}
	}
}

func (p *Parser) parseNewExpr() ast.Expression {
	start := p.expect(token.New)
	callee := p.parseNewCallee()
	args, end := p.parseArgList()
	return ast.Expression{Kind: ast.ExprNew, Span: span2(start.Span, end), New: &ast.NewExpr{Callee: callee, Args: args, Span: span2(start.Span, end)}}
}

// parseNewCallee parses a member-access chain without consuming a call,
// so `new a.b.C(...)` resolves the class reference before the
// constructor argument list.
func (p *Parser) parseNewCallee() ast.Expression {
	e := p.parsePrimaryExpr()
	for p.at(token.Dot) {
		p.advance()
		name := p.expectIdent()
		obj := e
		e = ast.Expression{Kind: ast.ExprMember, Span: span2(e.Span, name.Span), Member: &ast.MemberExpr{Object: &obj, Name: name, Span: span2(e.Span, name.Span)}}
	}
	return e
}

func (p *Parser) parseArrayExpr() ast.Expression {
	start := p.expect(token.LBracket)
	var elems []ast.ArrayElement
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		if p.at(token.Comma) {
			elems = append(elems, ast.ArrayElement{Kind: ast.ArrayElemHole})
			p.advance()
			continue
		}
		if p.at(token.Ellipsis) {
			p.advance()
			v := p.parseExpr()
			elems = append(elems, ast.ArrayElement{Kind: ast.ArrayElemSpread, Expr: v})
		} else {
			v := p.parseExpr()
			elems = append(elems, ast.ArrayElement{Kind: ast.ArrayElemExpr, Expr: v})
		}
		if !p.accept2(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBracket)
	return ast.Expression{Kind: ast.ExprArray, Span: span2(start.Span, end.Span), Array: &ast.ArrayExpr{Elements: elems, Span: span2(start.Span, end.Span)}}
}

func (p *Parser) parseObjectExpr() ast.Expression {
	start := p.expect(token.LBrace)
	var props []ast.ObjectProperty
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		props = append(props, p.parseObjectProperty())
		if !p.accept2(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBrace)
	return ast.Expression{Kind: ast.ExprObject, Span: span2(start.Span, end.Span), Object: &ast.ObjectExpr{Properties: props, Span: span2(start.Span, end.Span)}}
}

func (p *Parser) parseObjectProperty() ast.ObjectProperty {
	start := p.peek().Span
	if p.at(token.Ellipsis) {
		p.advance()
		v := p.parseExpr()
		return ast.ObjectProperty{Kind: ast.ObjPropSpread, Value: v, Span: span2(start, v.Span)}
	}
	if p.at(token.LBracket) {
		p.advance()
		key := p.parseExpr()
		p.expect(token.RBracket)
		p.expect(token.Colon)
		v := p.parseExpr()
		return ast.ObjectProperty{Kind: ast.ObjPropComputed, Computed: &key, Value: v, Span: span2(start, v.Span)}
	}
	name := p.expectIdent()
	if p.at(token.LParen) {
		params := p.parseParamList()
		body := p.parseBlockBody()
		return ast.ObjectProperty{Kind: ast.ObjPropMethod, Key: name, Params: params, Body: &body, Span: span2(start, body.Span)}
	}
	if p.at(token.Colon) {
		p.advance()
		v := p.parseExpr()
		return ast.ObjectProperty{Kind: ast.ObjPropKeyed, Key: name, Value: v, Span: span2(start, v.Span)}
	}
	return ast.ObjectProperty{Kind: ast.ObjPropKeyed, Key: name, Value: ast.IdentRef(name), Span: name.Span}
}

func (p *Parser) parseTemplateLiteral() ast.Expression {
	start := p.peek().Span
	first := p.advance() // TemplateString
	strs := []string{first.Text}
	var exprs []ast.Expression
	tail := first.IsTail
	last := first.Span
	for !tail {
		e := p.parseExpr()
		exprs = append(exprs, e)
		p.expect(token.RBrace)
		seg := p.resumeTemplate()
		strs = append(strs, seg.Text)
		tail = seg.IsTail
		last = seg.Span
	}
	return ast.Expression{Kind: ast.ExprTemplateLiteral, Span: span2(start, last), Template: &ast.TemplateLiteralExpr{
		Strings: strs, Exprs: exprs, Span: span2(start, last),
	}}
}

// resumeTemplate asks the lexer to resume scanning a template literal
// segment immediately after the parser has consumed the closing `}` of
// an interpolation. This relies on the parser never having looked ahead
// past that `}` into the raw tail text that follows it; grammar rules
// that speculate past an expression (e.g. [Parser.tryParseArrowHead])
// only ever peek up to the token that closes the surrounding
// construct, never beyond it.
func (p *Parser) resumeTemplate() token.Token {
	t := p.lex.NextTemplatePart()
	p.buf = append(p.buf, t)
	p.pos++
	return t
}

// parseParenOrArrow disambiguates `(expr)` from `(params) => body` /
// `(params): T => body` by speculatively parsing an arrow head and
// backtracking on failure.
func (p *Parser) parseParenOrArrow() ast.Expression {
	save := p.pos
	arrowStartTok := p.peek()
	if params, ret, ok := p.tryParseArrowHead(); ok {
		arrowStart := arrowStartTok.Span
		style, exprBody, blockBody, end := p.parseArrowBody()
		return ast.Expression{Kind: ast.ExprArrow, Span: span2(arrowStart, end), Arrow: &ast.ArrowExpr{
			Params: params, ReturnType: ret, BodyStyle: style, ExprBody: exprBody, BlockBody: blockBody,
			Span: span2(arrowStart, end),
		}}
	}
	p.pos = save
	start := p.expect(token.LParen)
	inner := p.parseExpr()
	end := p.expect(token.RParen)
	return ast.Expression{Kind: ast.ExprParenthesized, Span: span2(start.Span, end.Span), Inner: &inner}
}

// tryParseArrowHead attempts to consume `(params)` optionally followed
// by `: ReturnType`, then requires `=>`. On any mismatch it returns
// ok=false; the caller resets p.pos and reparses as a parenthesized
// expression.
func (p *Parser) tryParseArrowHead() (params []ast.Parameter, ret *ast.Type, ok bool) {
	if !p.at(token.LParen) {
		return nil, nil, false
	}
	params = p.parseParamListSoft()
	if p.at(token.Colon) {
		p.advance()
		t := p.parseType()
		ret = &t
	}
	if !p.at(token.FatArrow) {
		return nil, nil, false
	}
	p.advance()
	return params, ret, true
}

// parseParamListSoft parses a parameter list but discards any
// diagnostics it produces, since a failed parse here only means "not an
// arrow head" and the caller backtracks to reparse as a parenthesized
// expression.
func (p *Parser) parseParamListSoft() []ast.Parameter {
	saved := p.diags
	p.diags = diag.NewHandler()
	defer func() { p.diags = saved }()
	return p.parseParamList()
}

func (p *Parser) parseArrowBody() (ast.ArrowParamStyle, *ast.Expression, *ast.Block, span.Span) {
	if p.at(token.LBrace) || p.at(token.Do) {
		b := p.parseBlockBody()
		return ast.ArrowBlockBody, nil, &b, b.Span
	}
	e := p.parseExpr()
	return ast.ArrowExprBody, &e, nil, e.Span
}

// parseArrowShorthand parses the single-parameter, untyped arrow
// shorthand `\x => expr`, a concise form for common one-argument
// callbacks.
func (p *Parser) parseArrowShorthand() ast.Expression {
	start := p.expect(token.Backslash)
	name := p.expectIdent()
	param := ast.Parameter{Name: name, Type: ast.Type{Kind: ast.TypePrimitive, Primitive: ast.PrimUnknown, Span: name.Span}, Span: name.Span}
	p.expect(token.FatArrow)
	style, exprBody, blockBody, end := p.parseArrowBody()
	return ast.Expression{Kind: ast.ExprArrow, Span: span2(start.Span, end), Arrow: &ast.ArrowExpr{
		Params: []ast.Parameter{param}, BodyStyle: style, ExprBody: exprBody, BlockBody: blockBody, Span: span2(start.Span, end),
	}}
}

// parseFunctionExpr parses an anonymous function expression,
// `function (params): T { ... }` or with a `do ... end` body (see
// parseBlockBody), desugaring to the same ArrowExpr node
// used for `=>` arrows with a block body.
func (p *Parser) parseFunctionExpr() ast.Expression {
	start := p.expect(token.Function)
	var typeParams []ast.TypeParameter
	if p.at(token.Less) {
		typeParams = p.parseTypeParamList()
	}
	params := p.parseParamList()
	var ret *ast.Type
	if p.at(token.Colon) {
		p.advance()
		t := p.parseType()
		ret = &t
	}
	body := p.parseBlockBody()
	return ast.Expression{Kind: ast.ExprArrow, Span: span2(start.Span, body.Span), Arrow: &ast.ArrowExpr{
		TypeParams: typeParams, Params: params, ReturnType: ret, BodyStyle: ast.ArrowBlockBody, BlockBody: &body,
		Span: span2(start.Span, body.Span),
	}}
}

// parseMatchExpr parses `match (discriminant) { pattern [if guard] =>
// expr, ... }` (spec §4.2 pattern matching).
func (p *Parser) parseMatchExpr() ast.Expression {
	start := p.expect(token.Match)
	p.expect(token.LParen)
	disc := p.parseExpr()
	p.expect(token.RParen)
	p.expect(token.LBrace)
	var arms []ast.MatchArm
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		armStart := p.peek().Span
		pat := p.parsePattern()
		var guard *ast.Expression
		if p.at(token.If) {
			p.advance()
			g := p.parseExpr()
			guard = &g
		}
		p.expect(token.FatArrow)
		body := p.parseExpr()
		arms = append(arms, ast.MatchArm{Pattern: pat, Guard: guard, Body: body, Span: span2(armStart, body.Span)})
		if !p.accept2(token.Comma) {
			p.accept2(token.Semicolon)
		}
	}
	end := p.expect(token.RBrace)
	return ast.Expression{Kind: ast.ExprMatch, Span: span2(start.Span, end.Span), Match: &ast.MatchExpr{
		Discriminant: disc, Arms: arms, Span: span2(start.Span, end.Span),
	}}
}

// parseTryExpr parses the expression-position `try expr catch expr`
// form, used where a thrown error should be recovered inline (e.g.
// `const x = try parseNumber(s) catch 0`).
func (p *Parser) parseTryExpr() ast.Expression {
	start := p.expect(token.Try)
	body := p.parseUnaryExpr()
	var catch *ast.Expression
	end := body.Span
	if p.at(token.Catch) {
		p.advance()
		c := p.parseUnaryExpr()
		catch = &c
		end = c.Span
	}
	return ast.Expression{Kind: ast.ExprTry, Span: span2(start.Span, end), Try: &ast.TryExpr{Body: body, Catch: catch, Span: span2(start.Span, end)}}
}
