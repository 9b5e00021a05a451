// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import "typedlua.dev/tlc/internal/ast"

// concatChainThreshold is the minimum number of `..` operands before
// codegen prefers table.concat over nested Lua `..`, which otherwise
// reallocates and copies the whole accumulated string at every step.
const concatChainThreshold = 3

// StringConcatOptimization records, for every `..` chain of at least
// concatChainThreshold fragments, how many fragments it has. Codegen
// consults Context.ConcatChains when it reaches a BinConcat node and, if
// present, emits table.concat over the flattened fragment list instead
// of recursing into nested `..` (spec §4.6 string-concat pass).
//
// This pass only annotates; it never rewrites the AST, so an
// intermediate node along a chain's left spine also gets an entry for
// its own (shorter) sub-chain. Those entries are harmless: codegen only
// ever reaches the outermost node of a chain during a normal top-down
// walk, since consuming that node's annotation means it never recurses
// into the spine to reach the shorter ones.
func StringConcatOptimization(ctx *Context, prog *ast.Program) bool {
	changed := false
	rewriteStatements(prog.Statements, func(e *ast.Expression) bool {
		if e.Kind != ast.ExprBinary || e.Binary.Op != ast.BinConcat {
			return false
		}
		n := len(flattenConcat(e))
		if n < concatChainThreshold {
			return false
		}
		if prev, ok := ctx.ConcatChains[e.Span]; ok && prev == n {
			return false
		}
		ctx.ConcatChains[e.Span] = n
		changed = true
		return false
	})
	return changed
}

// flattenConcat returns the leaf operands of e's `..` chain in
// left-to-right order, descending e's left spine.
func flattenConcat(e *ast.Expression) []*ast.Expression {
	if e.Kind == ast.ExprBinary && e.Binary.Op == ast.BinConcat {
		return append(flattenConcat(&e.Binary.Left), &e.Binary.Right)
	}
	return []*ast.Expression{e}
}
