// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/interner"
)

// Devirtualization marks a method call made directly on a freshly
// constructed, sealed (no-subclass) instance with the concrete class
// to call, so codegen can emit a direct function call instead of
// dispatching through the instance's metatable chain (spec §4.6
// devirtualization pass, gated at O3). It only recognizes the
// `new Class(...).method(...)` shape: telling whether a method call on
// an arbitrary variable is safe to devirtualize needs a points-to
// analysis this pass doesn't have, so a receiver stored in a local
// keeps going through the metatable even when, in practice, it could
// only ever hold one concrete class.
func Devirtualization(ctx *Context, prog *ast.Program) bool {
	changed := false
	rewriteStatements(prog.Statements, func(e *ast.Expression) bool {
		if e.Kind != ast.ExprMethodCall {
			return false
		}
		obj := &e.Method.Object
		if obj.Kind != ast.ExprNew || obj.New.Callee.Kind != ast.ExprIdentifier {
			return false
		}
		className := obj.New.Callee.Ident.Name
		if !ctx.Classes.IsSealed(className) {
			return false
		}
		if !classImplementsMethod(ctx.Classes, className, e.Method.Method.Name) {
			return false
		}
		if prev, ok := ctx.Devirtualized[e.Span]; ok && prev == className {
			return false
		}
		ctx.Devirtualized[e.Span] = className
		changed = true
		return false
	})
	return changed
}

// classImplementsMethod walks className's ancestor chain looking for
// methodName, so an inherited (not overridden) method still
// devirtualizes.
func classImplementsMethod(h *ClassHierarchy, className, methodName interner.ID) bool {
	seen := make(map[interner.ID]bool)
	for {
		info, ok := h.Lookup(className)
		if !ok || seen[className] {
			return false
		}
		seen[className] = true
		if info.Methods[methodName] {
			return true
		}
		if info.Parent == interner.Invalid {
			return false
		}
		className = info.Parent
	}
}
