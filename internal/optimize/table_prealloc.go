// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import "typedlua.dev/tlc/internal/ast"

// TablePreallocation records the statically known element count of an
// array or object literal that contains no spread, so codegen can size
// the Lua table constructor up front instead of growing it element by
// element (spec §4.6 table-preallocation pass).
func TablePreallocation(ctx *Context, prog *ast.Program) bool {
	changed := false
	rewriteStatements(prog.Statements, func(e *ast.Expression) bool {
		var n int
		switch e.Kind {
		case ast.ExprArray:
			for _, el := range e.Array.Elements {
				if el.Kind == ast.ArrayElemSpread {
					return false
				}
			}
			n = len(e.Array.Elements)
		case ast.ExprObject:
			for _, p := range e.Object.Properties {
				if p.Kind == ast.ObjPropSpread {
					return false
				}
			}
			n = len(e.Object.Properties)
		default:
			return false
		}
		if prev, ok := ctx.PreallocSizes[e.Span]; ok && prev == n {
			return false
		}
		ctx.PreallocSizes[e.Span] = n
		changed = true
		return false
	})
	return changed
}
