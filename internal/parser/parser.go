// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package parser implements a recursive-descent, Pratt-style parser that
// builds a TypedLua AST from a token stream (spec §4.2).
//
// The parser pulls tokens lazily from a [lexer.Lexer], buffering only as
// much lookahead as a given production needs, rather than tokenizing a
// file up front. This mirrors the teacher's own pull-model scanner and
// is what lets template literals work at all: a back-tick segment's
// tail text is only well-defined once the parser has told the lexer
// which `}` closed the interpolation (see [Parser.resumeTemplate]). It
// reports errors through a [diag.Handler] and resynchronizes at
// statement boundaries rather than aborting on the first syntax error,
// so one run surfaces as many issues as possible.
package parser

import (
	"typedlua.dev/tlc/internal/arena"
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/lexer"
	"typedlua.dev/tlc/internal/span"
	"typedlua.dev/tlc/internal/token"
)

// Parser consumes tokens pulled on demand from a Lexer and produces an
// *ast.Program.
type Parser struct {
	lex *lexer.Lexer
	buf []token.Token // tokens already pulled from lex, in order
	pos int           // index into buf of the next unconsumed token

	arena    *arena.Arena
	interner *interner.Interner
	common   interner.Common
	diags    *diag.Handler
	file     span.FileID
	fileInfo diag.File

	// classMemberNames de-duplicates members within the class currently
	// being parsed (spec §4.2: "no duplicate class members").
	classMemberNames map[interner.ID]bool
	sawConstructor   bool

	// declaredTypeParams tracks the set of type parameter names visible
	// at the current nesting level. typeParamDeclared answers membership,
	// but no production calls it, so a reference to an undeclared type
	// parameter is not rejected at parse time.
	declaredTypeParams []map[interner.ID]bool
}

// New returns a Parser reading from lex.
func New(lex *lexer.Lexer, file span.FileID, path string, a *arena.Arena, in *interner.Interner, common interner.Common, h *diag.Handler) *Parser {
	return &Parser{
		lex:      lex,
		arena:    a,
		interner: in,
		common:   common,
		diags:    h,
		file:     file,
		fileInfo: diag.File{ID: file, Path: path},
	}
}

// fill ensures buf holds at least n+1 tokens, pulling more from the
// lexer as needed. The lexer yields an endless stream of token.EOF once
// exhausted, so this never blocks.
func (p *Parser) fill(n int) {
	for len(p.buf) <= n {
		p.buf = append(p.buf, p.lex.Next())
	}
}

func (p *Parser) peek() token.Token {
	p.fill(p.pos)
	return p.buf[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	p.fill(p.pos + n)
	return p.buf[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) advance() token.Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

func (p *Parser) expect(k token.Kind) token.Token {
	if t, ok := p.accept(k); ok {
		return t
	}
	got := p.peek()
	p.errorf(got.Span, diag.Syntactic, "expected %s, found %s", k, got)
	return got
}

func (p *Parser) errorf(sp span.Span, kind diag.Kind, format string, args ...any) {
	p.diags.Reportf(diag.Error, kind, p.fileInfo, sp, format, args...)
}

// synchronize skips tokens until a likely statement boundary, so parsing
// can continue after a syntax error (spec §4.2).
func (p *Parser) synchronize() {
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.Semicolon:
			p.advance()
			return
		case token.Const, token.Local, token.If, token.While, token.For, token.Function,
			token.Class, token.Interface, token.Enum, token.Return, token.Import, token.Export,
			token.Type, token.Throw, token.Try, token.End, token.RBrace:
			return
		}
		p.advance()
	}
}

// Parse parses the entire token stream into a Program.
func (p *Parser) Parse() *ast.Program {
	start := p.peek().Span
	b := arena.NewBuilder[ast.Statement](p.arena, 16)
	for !p.at(token.EOF) {
		before := p.pos
		stmt := p.parseStatement()
		b.Push(stmt)
		if p.pos == before {
			// A statement parser that made no progress means the current
			// token couldn't start any statement; resynchronize instead of
			// looping forever on it.
			p.synchronize()
		}
	}
	stmts := b.Build()
	end := p.peek().Span
	return &ast.Program{File: p.file, Statements: stmts, Span: span.Join(start, end)}
}

func (p *Parser) internName(t token.Token) ast.Ident {
	if t.Kind == token.Identifier {
		return ast.Ident{Name: t.Ident, Span: t.Span}
	}
	return ast.Ident{Name: p.interner.Intern(t.Text), Span: t.Span}
}

func (p *Parser) expectIdent() ast.Ident {
	t := p.expect(token.Identifier)
	return p.internName(t)
}

func (p *Parser) pushTypeParamScope(params []ast.TypeParameter) {
	scope := make(map[interner.ID]bool, len(params))
	for _, tp := range params {
		scope[tp.Name.Name] = true
	}
	p.declaredTypeParams = append(p.declaredTypeParams, scope)
}

func (p *Parser) popTypeParamScope() {
	p.declaredTypeParams = p.declaredTypeParams[:len(p.declaredTypeParams)-1]
}

// typeParamDeclared reports whether name is declared in any enclosing
// type parameter scope.
func (p *Parser) typeParamDeclared(name interner.ID) bool {
	for i := len(p.declaredTypeParams) - 1; i >= 0; i-- {
		if p.declaredTypeParams[i][name] {
			return true
		}
	}
	return false
}
