// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import "typedlua.dev/tlc/internal/ast"

// AlgebraicSimplification rewrites identities that constant folding can't
// reach because one operand isn't a literal (x+0, x*1, true and x, ...).
// For arithmetic and concatenation it only drops an operand outright when
// that operand is an identifier or literal, never a call or index
// expression, so it can't discard a side-effecting evaluation. For
// `and`/`or` it only rewrites a boolean literal left operand, keeping the
// operand Lua's short-circuit evaluation yields, so a dropped right
// operand is one that would never run (spec §4.6 second O1 pass).
func AlgebraicSimplification(ctx *Context, prog *ast.Program) bool {
	return rewriteStatements(prog.Statements, simplifyAlgebraic)
}

func simplifyAlgebraic(e *ast.Expression) bool {
	if e.Kind != ast.ExprBinary {
		return false
	}
	b := e.Binary
	lIsDroppable := droppable(&b.Left)
	rIsDroppable := droppable(&b.Right)

	switch b.Op {
	case ast.BinAdd:
		if rIsDroppable && isIntZero(&b.Right) {
			*e = b.Left
			return true
		}
		if lIsDroppable && isIntZero(&b.Left) {
			*e = b.Right
			return true
		}
	case ast.BinSub:
		if rIsDroppable && isIntZero(&b.Right) {
			*e = b.Left
			return true
		}
	case ast.BinMul:
		if rIsDroppable && isIntOne(&b.Right) {
			*e = b.Left
			return true
		}
		if lIsDroppable && isIntOne(&b.Left) {
			*e = b.Right
			return true
		}
	case ast.BinDiv, ast.BinFloorDiv:
		if rIsDroppable && isIntOne(&b.Right) {
			*e = b.Left
			return true
		}
	case ast.BinPow:
		if rIsDroppable && isIntOne(&b.Right) {
			*e = b.Left
			return true
		}
	case ast.BinConcat:
		if rIsDroppable && isEmptyString(&b.Right) {
			*e = b.Left
			return true
		}
		if lIsDroppable && isEmptyString(&b.Left) {
			*e = b.Right
			return true
		}
	case ast.BinAnd:
		if isLiteral(&b.Left) && b.Left.Literal.Kind == ast.LitBoolean {
			if b.Left.Literal.Bool {
				*e = b.Right
			} else {
				*e = b.Left
			}
			return true
		}
	case ast.BinOr:
		if isLiteral(&b.Left) && b.Left.Literal.Kind == ast.LitBoolean {
			if b.Left.Literal.Bool {
				*e = b.Left
			} else {
				*e = b.Right
			}
			return true
		}
	}
	return false
}

// droppable reports whether e can be discarded from a simplified
// expression without losing an observable side effect.
func droppable(e *ast.Expression) bool {
	return e.Kind == ast.ExprIdentifier || e.Kind == ast.ExprLiteral
}

func isIntZero(e *ast.Expression) bool {
	if !isLiteral(e) {
		return false
	}
	l := e.Literal
	return (l.Kind == ast.LitInteger && l.Int == 0) || (l.Kind == ast.LitNumber && l.Num == 0)
}

func isIntOne(e *ast.Expression) bool {
	if !isLiteral(e) {
		return false
	}
	l := e.Literal
	return (l.Kind == ast.LitInteger && l.Int == 1) || (l.Kind == ast.LitNumber && l.Num == 1)
}

func isEmptyString(e *ast.Expression) bool {
	return isLiteral(e) && e.Literal.Kind == ast.LitString && e.Literal.Str == ""
}
