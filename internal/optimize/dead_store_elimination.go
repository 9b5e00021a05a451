// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/interner"
)

// DeadStoreElimination drops a plain `x = expr` assignment when x is
// written again later in the same straight-line statement list with no
// read of x in between, provided expr has no side effect worth
// preserving (spec §4.6 dead-store-elimination pass, gated at O2). It
// only reasons about one flat list of statements at a time: reaching a
// nested if/while/for/try resets the analysis for what comes after,
// since a store before a branch may still be read on a path the
// straight-line scan can't see.
func DeadStoreElimination(ctx *Context, prog *ast.Program) bool {
	stmts, changed := eliminateDeadStores(prog.Statements)
	prog.Statements = stmts
	return changed
}

func eliminateDeadStores(stmts []ast.Statement) ([]ast.Statement, bool) {
	changed := false
	for i := range stmts {
		s := &stmts[i]
		switch s.Kind {
		case ast.StmtBlock:
			var ch bool
			s.Block.Statements, ch = eliminateDeadStores(s.Block.Statements)
			changed = changed || ch
		case ast.StmtIf:
			var ch bool
			s.If.Then.Statements, ch = eliminateDeadStores(s.If.Then.Statements)
			changed = changed || ch
			for ei := range s.If.ElseIfs {
				s.If.ElseIfs[ei].Block.Statements, ch = eliminateDeadStores(s.If.ElseIfs[ei].Block.Statements)
				changed = changed || ch
			}
			if s.If.Else != nil {
				s.If.Else.Statements, ch = eliminateDeadStores(s.If.Else.Statements)
				changed = changed || ch
			}
		case ast.StmtWhile:
			var ch bool
			s.While.Body.Statements, ch = eliminateDeadStores(s.While.Body.Statements)
			changed = changed || ch
		case ast.StmtForNumeric:
			var ch bool
			s.ForNumeric.Body.Statements, ch = eliminateDeadStores(s.ForNumeric.Body.Statements)
			changed = changed || ch
		case ast.StmtForGeneric:
			var ch bool
			s.ForGeneric.Body.Statements, ch = eliminateDeadStores(s.ForGeneric.Body.Statements)
			changed = changed || ch
		case ast.StmtFunctionDecl:
			var ch bool
			s.Function.Body.Statements, ch = eliminateDeadStores(s.Function.Body.Statements)
			changed = changed || ch
		case ast.StmtClassDecl:
			for mi := range s.Class.Methods {
				var ch bool
				s.Class.Methods[mi].Body.Statements, ch = eliminateDeadStores(s.Class.Methods[mi].Body.Statements)
				changed = changed || ch
			}
		case ast.StmtTry:
			var ch bool
			s.Try.Body.Statements, ch = eliminateDeadStores(s.Try.Body.Statements)
			changed = changed || ch
			for ci := range s.Try.Catches {
				s.Try.Catches[ci].Body.Statements, ch = eliminateDeadStores(s.Try.Catches[ci].Body.Statements)
				changed = changed || ch
			}
			if s.Try.Finally != nil {
				s.Try.Finally.Statements, ch = eliminateDeadStores(s.Try.Finally.Statements)
				changed = changed || ch
			}
		case ast.StmtExport:
			if s.Export.Decl != nil {
				sub, ch := eliminateDeadStores([]ast.Statement{*s.Export.Decl})
				changed = changed || ch
				*s.Export.Decl = sub[0]
			}
		}
	}

	remove := make(map[int]bool)
	lastWrite := make(map[interner.ID]int)
	for i := range stmts {
		s := &stmts[i]
		switch s.Kind {
		case ast.StmtVarDecl, ast.StmtAssign, ast.StmtReturn, ast.StmtThrow, ast.StmtExpr:
		default:
			// A nested block, branch, loop, or declaration may read any
			// pending store on a path this scan can't see.
			clear(lastWrite)
			continue
		}
		for v := range readVarsOf(s) {
			delete(lastWrite, v)
		}
		if v, rhs, ok := plainAssignTarget(s); ok && isPureExpr(rhs) {
			if prevIdx, pending := lastWrite[v]; pending {
				remove[prevIdx] = true
			}
			lastWrite[v] = i
		} else if v, ok := plainAssignTargetAnyRHS(s); ok {
			// a store whose value isn't provably pure still kills any
			// earlier pending dead-store candidate for the same var,
			// since only the most recent write before the next read
			// is ever a removal candidate.
			delete(lastWrite, v)
			lastWrite[v] = -1
		}
	}
	if len(remove) == 0 {
		return stmts, changed
	}
	out := make([]ast.Statement, 0, len(stmts))
	for i, s := range stmts {
		if !remove[i] {
			out = append(out, s)
		}
	}
	return out, true
}

// plainAssignTarget reports the target variable and RHS expression of
// a single-target, AssignPlain statement.
func plainAssignTarget(s *ast.Statement) (interner.ID, *ast.Expression, bool) {
	if s.Kind != ast.StmtAssign || s.Assign.Op != ast.AssignPlain {
		return 0, nil, false
	}
	if len(s.Assign.Targets) != 1 || len(s.Assign.Values) != 1 {
		return 0, nil, false
	}
	t := &s.Assign.Targets[0]
	if t.Kind != ast.ExprIdentifier {
		return 0, nil, false
	}
	return t.Ident.Name, &s.Assign.Values[0], true
}

func plainAssignTargetAnyRHS(s *ast.Statement) (interner.ID, bool) {
	v, _, ok := plainAssignTarget(s)
	return v, ok
}

// readVarsOf returns the set of identifiers s reads, not counting a
// plain assignment's own target.
func readVarsOf(s *ast.Statement) map[interner.ID]bool {
	reads := make(map[interner.ID]bool)
	visit := func(e *ast.Expression) bool {
		if e.Kind == ast.ExprIdentifier {
			reads[e.Ident.Name] = true
		}
		return false
	}
	switch s.Kind {
	case ast.StmtVarDecl:
		if s.VarDecl.Value != nil {
			rewriteExpr(s.VarDecl.Value, visit)
		}
	case ast.StmtAssign:
		for i := range s.Assign.Values {
			rewriteExpr(&s.Assign.Values[i], visit)
		}
		for i := range s.Assign.Targets {
			t := &s.Assign.Targets[i]
			if t.Kind != ast.ExprIdentifier {
				rewriteExpr(t, visit)
			}
		}
	case ast.StmtReturn:
		for i := range s.Return.Values {
			rewriteExpr(&s.Return.Values[i], visit)
		}
	case ast.StmtThrow:
		rewriteExpr(s.Throw, visit)
	case ast.StmtExpr:
		rewriteExpr(s.Expr, visit)
	}
	return reads
}

// isPureExpr reports whether evaluating e can have no effect beyond
// producing its value: no call, construction, throw, or try.
func isPureExpr(e *ast.Expression) bool {
	if e == nil {
		return true
	}
	switch e.Kind {
	case ast.ExprCall, ast.ExprMethodCall, ast.ExprNew, ast.ExprThrow, ast.ExprTry,
		ast.ExprBang, ast.ExprMatch, ast.ExprArrow, ast.ExprPipe:
		return false
	case ast.ExprLiteral, ast.ExprIdentifier:
		return true
	case ast.ExprMember:
		return isPureExpr(e.Member.Object)
	case ast.ExprSafeNav:
		return isPureExpr(e.SafeNav.Object)
	case ast.ExprIndex:
		return isPureExpr(e.Index.Object) && isPureExpr(e.Index.Index)
	case ast.ExprUnary:
		return isPureExpr(&e.Unary.Operand)
	case ast.ExprBinary:
		return isPureExpr(&e.Binary.Left) && isPureExpr(&e.Binary.Right)
	case ast.ExprNullCoalesce:
		return isPureExpr(&e.Coalesce.Left) && isPureExpr(&e.Coalesce.Right)
	case ast.ExprParenthesized:
		return isPureExpr(e.Inner)
	case ast.ExprSpread:
		return isPureExpr(e.Spread)
	case ast.ExprTemplateLiteral:
		for i := range e.Template.Exprs {
			if !isPureExpr(&e.Template.Exprs[i]) {
				return false
			}
		}
		return true
	case ast.ExprArray:
		for _, el := range e.Array.Elements {
			if el.Kind != ast.ArrayElemHole && !isPureExpr(&el.Expr) {
				return false
			}
		}
		return true
	case ast.ExprObject:
		for _, p := range e.Object.Properties {
			if p.Kind == ast.ObjPropMethod {
				return false
			}
			if !isPureExpr(&p.Value) {
				return false
			}
		}
		return true
	}
	return false
}
