// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package lexer

import (
	"testing"

	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/token"
)

func tokenize(t *testing.T, src string) ([]token.Token, *diag.Handler) {
	t.Helper()
	in := interner.New()
	h := diag.NewHandler()
	l := New(src, 0, "test.tl", in, h)
	return l.Tokenize(), h
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks, h := tokenize(t, "const x = self")
	if h.HasErrors() {
		t.Fatalf("unexpected errors: %v", h.Sorted())
	}
	wantKinds := []token.Kind{token.Const, token.Identifier, token.Assign, token.Self, token.EOF}
	if len(toks) != len(wantKinds) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(wantKinds), toks)
	}
	for i, k := range wantKinds {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestOperators(t *testing.T) {
	toks, h := tokenize(t, "?? ?. !! |> => ... .. // :: ~=")
	if h.HasErrors() {
		t.Fatalf("unexpected errors: %v", h.Sorted())
	}
	want := []token.Kind{
		token.QuestionQuestion, token.QuestionDot, token.BangBang, token.PipeArrow,
		token.FatArrow, token.Ellipsis, token.DotDot, token.DoubleSlash, token.DoubleColon,
		token.NotEqual, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestNumbers(t *testing.T) {
	toks, h := tokenize(t, "42 3.14 1e10 0xFF")
	if h.HasErrors() {
		t.Fatalf("unexpected errors: %v", h.Sorted())
	}
	wantKinds := []token.Kind{token.IntegerLiteral, token.NumberLiteral, token.NumberLiteral, token.IntegerLiteral, token.EOF}
	for i, k := range wantKinds {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v, want %v (%q)", i, toks[i].Kind, k, toks[i].Text)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	toks, h := tokenize(t, `"hello\nworld"`)
	if h.HasErrors() {
		t.Fatalf("unexpected errors: %v", h.Sorted())
	}
	if toks[0].Kind != token.StringLiteral || toks[0].Text != "hello\nworld" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestUnterminatedStringReported(t *testing.T) {
	_, h := tokenize(t, `"unterminated`)
	if !h.HasErrors() {
		t.Fatal("expected an error for unterminated string")
	}
}

func TestLexingIsTotalIgnoringWhitespace(t *testing.T) {
	src := "const x = 1 -- comment\nlocal y = 2"
	toks, h := tokenize(t, src)
	if h.HasErrors() {
		t.Fatalf("unexpected errors: %v", h.Sorted())
	}
	if toks[len(toks)-1].Kind != token.EOF {
		t.Fatal("expected trailing EOF token")
	}
}

func TestTemplateLiteralSegments(t *testing.T) {
	in := interner.New()
	h := diag.NewHandler()
	l := New("`hi ${name}!`", 0, "test.tl", in, h)
	first := l.Next()
	if first.Kind != token.TemplateString || first.Text != "hi " || first.IsTail {
		t.Fatalf("got %+v", first)
	}
	ident := l.Next()
	if ident.Kind != token.Identifier {
		t.Fatalf("expected identifier inside interpolation, got %+v", ident)
	}
	closeBrace := l.Next()
	if closeBrace.Kind != token.RBrace {
		t.Fatalf("expected closing brace, got %+v", closeBrace)
	}
	// The parser, having consumed the closing brace of the interpolation,
	// calls NextTemplatePart to resume scanning the tail segment.
	rest := l.NextTemplatePart()
	if rest.Kind != token.TemplateString || rest.Text != "!" || !rest.IsTail {
		t.Fatalf("got %+v", rest)
	}
}
