// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package ast defines the TypedLua abstract syntax tree.
//
// Every node carries a [span.Span]. Node families (Expression, Statement,
// Pattern, Type) are closed sums: each family is an interface satisfied
// only by the structs declared in this package, and visitors dispatch on
// a Kind tag rather than using open interface dispatch, per the
// "Visitor polymorphism" design note — this keeps the tree a plain data
// structure that the arena-allocated parser can build without virtual
// calls, and that the type checker and code generator can walk with a
// switch instead of double dispatch.
//
// All child slices are built via [arena.Builder] during parsing and are
// never mutated after [arena.Builder.Build] returns.
package ast

import (
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/span"
)

// Ident is a spanned, interned identifier.
type Ident struct {
	Name interner.ID
	Span span.Span
}

// Program is a single compilation unit's parsed source.
type Program struct {
	File       span.FileID
	Statements []Statement
	Span       span.Span
}

// Node is implemented by every AST node and exposes its source span.
type Node interface {
	NodeSpan() span.Span
}
