// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package check

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/symtab"
	"typedlua.dev/tlc/internal/types"
)

// NarrowingContext refines a symbol's apparent type along one branch of
// a conditional, without mutating the symbol table's declared type
// (spec §4.3 Narrowing: "typeof checks, null checks, instanceof checks,
// discriminant literal checks, and their and/or/not compositions narrow
// the type of a binding within the branch that tested it"). Of these,
// narrowBranches recognizes nil and literal equality on a bare
// identifier, instanceof, and and/or/not; `typeof x == "kind"` conditions
// and discriminants on a property (`x.kind == "a"`) narrow neither
// branch. A nil
// *NarrowingContext means "no narrowing in effect"; [Checker.inferIdent]
// falls back to the symbol's declared type in that case.
type NarrowingContext struct {
	parent *NarrowingContext
	narrow map[symtab.Ref]types.Type
}

// Lookup returns the narrowed type for ref, if any is recorded at this
// context or an enclosing one nearer the branch that narrowed it.
func (nc *NarrowingContext) Lookup(ref symtab.Ref) (types.Type, bool) {
	for n := nc; n != nil; n = n.parent {
		if t, ok := n.narrow[ref]; ok {
			return t, true
		}
	}
	return types.Type{}, false
}

// with returns a child context narrowing ref to t, layered atop nc.
func (nc *NarrowingContext) with(ref symtab.Ref, t types.Type) *NarrowingContext {
	return &NarrowingContext{parent: nc, narrow: map[symtab.Ref]types.Type{ref: t}}
}

// narrowBranches computes the narrowing contexts that hold on the true
// and false branches of cond, given the context nc already in effect
// (spec §4.3 Narrowing). Unrecognized conditions narrow neither branch.
func (c *Checker) narrowBranches(env *typeEnv, nc *NarrowingContext, cond *ast.Expression) (whenTrue, whenFalse *NarrowingContext) {
	switch cond.Kind {
	case ast.ExprUnary:
		if cond.Unary.Op == ast.UnaryNot {
			t, f := c.narrowBranches(env, nc, &cond.Unary.Operand)
			return f, t
		}
	case ast.ExprBinary:
		switch cond.Binary.Op {
		case ast.BinAnd:
			lt, lf := c.narrowBranches(env, nc, &cond.Binary.Left)
			rt, _ := c.narrowBranches(env, lt, &cond.Binary.Right)
			return rt, lf
		case ast.BinOr:
			lt, lf := c.narrowBranches(env, nc, &cond.Binary.Left)
			_, rf := c.narrowBranches(env, lf, &cond.Binary.Right)
			return lt, rf
		case ast.BinEq, ast.BinNotEq:
			t, f := c.narrowEquality(env, nc, cond.Binary)
			if cond.Binary.Op == ast.BinNotEq {
				return f, t
			}
			return t, f
		case ast.BinInstanceOf:
			return c.narrowInstanceOf(env, nc, cond.Binary)
		}
	}
	return nc, nc
}

// narrowEquality handles `x == nil` and `x == <literal>` discriminant
// checks (spec §4.3 Narrowing) where x is a bare identifier. A
// `typeof x == "kind"` comparison is not recognized and narrows nothing.
func (c *Checker) narrowEquality(env *typeEnv, nc *NarrowingContext, b *ast.BinaryExpr) (whenTrue, whenFalse *NarrowingContext) {
	ref, declared, ok := c.narrowTarget(&b.Left)
	other := &b.Right
	if !ok {
		ref, declared, ok = c.narrowTarget(&b.Right)
		other = &b.Left
	}
	if !ok {
		return nc, nc
	}
	if other.Kind != ast.ExprLiteral {
		return nc, nc
	}
	litType := inferLiteral(other.Literal)
	if other.Literal.Kind == ast.LitNil {
		return nc.with(ref, types.Nil), nc.with(ref, types.NonNilable(declared))
	}
	return nc.with(ref, litType), nc
}

// narrowTarget reports the symbol Ref a narrowable expression refers to
// directly. Only a bare identifier qualifies; a `typeof x` call is not
// unwrapped.
func (c *Checker) narrowTarget(e *ast.Expression) (symtab.Ref, types.Type, bool) {
	if e.Kind != ast.ExprIdentifier {
		return 0, types.Type{}, false
	}
	ref, ok := c.symbols.Lookup(e.Ident.Name)
	if !ok {
		return 0, types.Type{}, false
	}
	return ref, c.symbols.At(ref).DeclaredType, true
}

// narrowInstanceOf handles `x instanceof C`: narrows x to C on the true
// branch.
func (c *Checker) narrowInstanceOf(env *typeEnv, nc *NarrowingContext, b *ast.BinaryExpr) (whenTrue, whenFalse *NarrowingContext) {
	ref, _, ok := c.narrowTarget(&b.Left)
	if !ok || b.Right.Kind != ast.ExprIdentifier {
		return nc, nc
	}
	class, ok := c.classes[b.Right.Ident.Name]
	if !ok {
		return nc, nc
	}
	return nc.with(ref, types.Type{Kind: types.KindClass, Class: class}), nc
}
