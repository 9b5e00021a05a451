// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package token defines the lexical tokens produced by the TypedLua
// lexer: keywords, operators, punctuation, and literal forms.
package token

import (
	"fmt"

	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/span"
)

// Kind is an enumeration of valid Token kinds. The zero value is Error.
type Kind int

//go:generate go tool stringer -type=Kind -linecomment
const (
	Error Kind = iota
	EOF

	Identifier
	StringLiteral
	NumberLiteral
	IntegerLiteral

	// Template literal sub-tokens: a back-tick literal is lexed as a
	// TemplateString segment, then for each ${...} the expression's
	// ordinary tokens and its closing RBrace, after which the parser calls
	// Lexer.NextTemplatePart for the next segment, repeating until a
	// final TemplateString segment marked IsTail. The lexer never
	// produces TemplateExprStart or TemplateExprEnd.
	TemplateString
	TemplateExprStart
	TemplateExprEnd

	// Keywords
	And      // and
	Break    // break
	Class    // class
	Const    // const
	Continue // continue
	Do       // do
	Else     // else
	Elseif   // elseif
	End      // end
	Enum     // enum
	Export   // export
	Extends  // extends
	False    // false
	Finally  // finally
	For      // for
	Function // function
	If       // if
	Implements // implements
	Import   // import
	In       // in
	Interface // interface
	Is       // is
	Local    // local
	Match    // match
	New      // new
	Nil      // nil
	Not      // not
	Or       // or
	Private  // private
	Protected // protected
	Public   // public
	Readonly // readonly
	Return   // return
	Self     // self
	Static   // static
	Super    // super
	Then     // then
	Throw    // throw
	True     // true
	Try      // try
	Type     // type
	Catch    // catch
	While    // while

	// Punctuation / operators
	Plus         // +
	Minus        // -
	Star         // *
	Slash        // /
	DoubleSlash  // //
	Percent      // %
	Caret        // ^
	Hash         // #
	Ampersand    // &
	Tilde        // ~
	Pipe         // |
	ShiftLeft    // <<
	ShiftRight   // >>
	Equal        // ==
	NotEqual     // ~=
	LessEqual    // <=
	GreaterEqual // >=
	Less         // <
	Greater      // >
	Assign       // =
	LParen       // (
	RParen       // )
	LBrace       // {
	RBrace       // }
	LBracket     // [
	RBracket     // ]
	DoubleColon  // ::
	Semicolon    // ;
	Colon        // :
	Comma        // ,
	Dot          // .
	DotDot       // ..
	Ellipsis     // ...
	Question     // ?
	QuestionQuestion // ??
	QuestionDot  // ?.
	Bang         // !
	BangBang     // !!
	PipeArrow    // |>
	FatArrow     // =>
	Backslash    // \
)

// Token is a single lexical element.
type Token struct {
	Kind Kind
	Span span.Span
	// Ident is set for Identifier tokens to the interned identifier ID.
	Ident interner.ID
	// Text holds the raw or decoded text for StringLiteral,
	// NumberLiteral, IntegerLiteral, and TemplateString tokens.
	Text string
	// IsTail marks the final segment of a template literal.
	IsTail bool
}

// String formats the token approximately as it appeared in source,
// for error messages.
func (t Token) String() string {
	switch t.Kind {
	case Identifier:
		return t.Text
	case StringLiteral:
		return fmt.Sprintf("%q", t.Text)
	case NumberLiteral, IntegerLiteral:
		return t.Text
	case EOF:
		return "<eof>"
	default:
		return t.Kind.String()
	}
}

// Keywords maps keyword spellings to their Kind.
var Keywords = map[string]Kind{
	"and": And, "break": Break, "class": Class, "const": Const,
	"continue": Continue, "do": Do, "else": Else, "elseif": Elseif,
	"end": End, "enum": Enum, "export": Export, "extends": Extends,
	"false": False, "finally": Finally, "for": For, "function": Function,
	"if": If, "implements": Implements, "import": Import, "in": In,
	"interface": Interface, "is": Is, "local": Local, "match": Match,
	"new": New, "nil": Nil, "not": Not, "or": Or, "private": Private,
	"protected": Protected, "public": Public, "readonly": Readonly,
	"return": Return, "self": Self, "static": Static, "super": Super,
	"then": Then, "throw": Throw, "true": True, "try": Try,
	"type": Type, "catch": Catch, "while": While,
}
