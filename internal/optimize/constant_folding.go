// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"math"

	"typedlua.dev/tlc/internal/ast"
)

// ConstantFolding evaluates binary and unary operators whose operands are
// both literals, replacing the expression with its literal result (spec
// §4.6, first O1 pass). It never folds across a division by a literal
// zero, leaving that for the runtime to raise as Lua normally would.
func ConstantFolding(ctx *Context, prog *ast.Program) bool {
	return rewriteStatements(prog.Statements, foldConstant)
}

func foldConstant(e *ast.Expression) bool {
	switch e.Kind {
	case ast.ExprUnary:
		return foldUnary(e)
	case ast.ExprBinary:
		return foldBinary(e)
	}
	return false
}

func isLiteral(e *ast.Expression) bool { return e != nil && e.Kind == ast.ExprLiteral }

func literalReplace(e *ast.Expression, lit ast.Literal) {
	lit.Span = e.Span
	span := e.Span
	*e = ast.Expression{Kind: ast.ExprLiteral, Span: span, Literal: &lit}
}

func numberOf(l *ast.Literal) (float64, bool) {
	switch l.Kind {
	case ast.LitNumber:
		return l.Num, true
	case ast.LitInteger:
		return float64(l.Int), true
	}
	return 0, false
}

func foldUnary(e *ast.Expression) bool {
	u := e.Unary
	if !isLiteral(&u.Operand) {
		return false
	}
	lit := u.Operand.Literal
	switch u.Op {
	case ast.UnaryNeg:
		switch lit.Kind {
		case ast.LitInteger:
			literalReplace(e, ast.Literal{Kind: ast.LitInteger, Int: -lit.Int})
			return true
		case ast.LitNumber:
			literalReplace(e, ast.Literal{Kind: ast.LitNumber, Num: -lit.Num})
			return true
		}
	case ast.UnaryNot:
		if lit.Kind == ast.LitBoolean {
			literalReplace(e, ast.Literal{Kind: ast.LitBoolean, Bool: !lit.Bool})
			return true
		}
		if lit.Kind == ast.LitNil {
			literalReplace(e, ast.Literal{Kind: ast.LitBoolean, Bool: true})
			return true
		}
	case ast.UnaryLen:
		if lit.Kind == ast.LitString {
			literalReplace(e, ast.Literal{Kind: ast.LitInteger, Int: int64(len(lit.Str))})
			return true
		}
	case ast.UnaryBitNot:
		if lit.Kind == ast.LitInteger {
			literalReplace(e, ast.Literal{Kind: ast.LitInteger, Int: ^lit.Int})
			return true
		}
	}
	return false
}

func foldBinary(e *ast.Expression) bool {
	b := e.Binary
	if !isLiteral(&b.Left) || !isLiteral(&b.Right) {
		return false
	}
	l, r := b.Left.Literal, b.Right.Literal

	if b.Op == ast.BinConcat {
		if l.Kind == ast.LitString && r.Kind == ast.LitString {
			literalReplace(e, ast.Literal{Kind: ast.LitString, Str: l.Str + r.Str})
			return true
		}
		return false
	}
	if b.Op == ast.BinAnd {
		if l.Kind == ast.LitBoolean && r.Kind == ast.LitBoolean {
			literalReplace(e, ast.Literal{Kind: ast.LitBoolean, Bool: l.Bool && r.Bool})
			return true
		}
		return false
	}
	if b.Op == ast.BinOr {
		if l.Kind == ast.LitBoolean && r.Kind == ast.LitBoolean {
			literalReplace(e, ast.Literal{Kind: ast.LitBoolean, Bool: l.Bool || r.Bool})
			return true
		}
		return false
	}
	if b.Op == ast.BinEq || b.Op == ast.BinNotEq {
		eq, ok := literalEquals(l, r)
		if !ok {
			return false
		}
		if b.Op == ast.BinNotEq {
			eq = !eq
		}
		literalReplace(e, ast.Literal{Kind: ast.LitBoolean, Bool: eq})
		return true
	}

	lIsInt := l.Kind == ast.LitInteger
	rIsInt := r.Kind == ast.LitInteger
	switch b.Op {
	case ast.BinBitAnd, ast.BinBitOr, ast.BinBitXor, ast.BinShiftLeft, ast.BinShiftRight:
		if !lIsInt || !rIsInt {
			return false
		}
		var res int64
		switch b.Op {
		case ast.BinBitAnd:
			res = l.Int & r.Int
		case ast.BinBitOr:
			res = l.Int | r.Int
		case ast.BinBitXor:
			res = l.Int ^ r.Int
		case ast.BinShiftLeft:
			res = l.Int << uint64(r.Int)
		case ast.BinShiftRight:
			res = int64(uint64(l.Int) >> uint64(r.Int))
		}
		literalReplace(e, ast.Literal{Kind: ast.LitInteger, Int: res})
		return true
	}

	lf, lok := numberOf(l)
	rf, rok := numberOf(r)
	if !lok || !rok {
		return false
	}
	switch b.Op {
	case ast.BinLess, ast.BinLessEq, ast.BinGreater, ast.BinGreaterEq:
		var res bool
		switch b.Op {
		case ast.BinLess:
			res = lf < rf
		case ast.BinLessEq:
			res = lf <= rf
		case ast.BinGreater:
			res = lf > rf
		case ast.BinGreaterEq:
			res = lf >= rf
		}
		literalReplace(e, ast.Literal{Kind: ast.LitBoolean, Bool: res})
		return true
	case ast.BinDiv:
		if rf == 0 {
			return false
		}
		literalReplace(e, ast.Literal{Kind: ast.LitNumber, Num: lf / rf})
		return true
	case ast.BinPow:
		literalReplace(e, ast.Literal{Kind: ast.LitNumber, Num: math.Pow(lf, rf)})
		return true
	case ast.BinFloorDiv:
		if rf == 0 {
			return false
		}
		q := math.Floor(lf / rf)
		if l.Kind == ast.LitInteger && r.Kind == ast.LitInteger {
			literalReplace(e, ast.Literal{Kind: ast.LitInteger, Int: int64(q)})
		} else {
			literalReplace(e, ast.Literal{Kind: ast.LitNumber, Num: q})
		}
		return true
	case ast.BinMod:
		if rf == 0 {
			return false
		}
		m := lf - math.Floor(lf/rf)*rf
		if l.Kind == ast.LitInteger && r.Kind == ast.LitInteger {
			literalReplace(e, ast.Literal{Kind: ast.LitInteger, Int: int64(m)})
		} else {
			literalReplace(e, ast.Literal{Kind: ast.LitNumber, Num: m})
		}
		return true
	case ast.BinAdd, ast.BinSub, ast.BinMul:
		if l.Kind == ast.LitInteger && r.Kind == ast.LitInteger {
			var res int64
			switch b.Op {
			case ast.BinAdd:
				res = l.Int + r.Int
			case ast.BinSub:
				res = l.Int - r.Int
			case ast.BinMul:
				res = l.Int * r.Int
			}
			literalReplace(e, ast.Literal{Kind: ast.LitInteger, Int: res})
			return true
		}
		var res float64
		switch b.Op {
		case ast.BinAdd:
			res = lf + rf
		case ast.BinSub:
			res = lf - rf
		case ast.BinMul:
			res = lf * rf
		}
		literalReplace(e, ast.Literal{Kind: ast.LitNumber, Num: res})
		return true
	}
	return false
}

func literalEquals(l, r *ast.Literal) (bool, bool) {
	if l.Kind == ast.LitNil || r.Kind == ast.LitNil {
		return l.Kind == ast.LitNil && r.Kind == ast.LitNil, true
	}
	if l.Kind == ast.LitBoolean && r.Kind == ast.LitBoolean {
		return l.Bool == r.Bool, true
	}
	if l.Kind == ast.LitString && r.Kind == ast.LitString {
		return l.Str == r.Str, true
	}
	lf, lok := numberOf(l)
	rf, rok := numberOf(r)
	if lok && rok {
		return lf == rf, true
	}
	return false, false
}
