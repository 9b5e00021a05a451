// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import "typedlua.dev/tlc/internal/ast"

// rewriteExpr applies fn bottom-up to every expression reachable from e,
// replacing *e with fn's result. fn receives an already-rewritten
// expression and returns the (possibly identical) replacement; it
// reports via the bool whether it actually changed anything, which
// rewriteExpr ORs into its own return so a caller folding a whole
// program can tell whether any rewrite fired.
func rewriteExpr(e *ast.Expression, fn func(*ast.Expression) bool) bool {
	if e == nil {
		return false
	}
	changed := false
	switch e.Kind {
	case ast.ExprMember:
		changed = rewriteExpr(e.Member.Object, fn) || changed
	case ast.ExprSafeNav:
		changed = rewriteExpr(e.SafeNav.Object, fn) || changed
	case ast.ExprIndex:
		changed = rewriteExpr(e.Index.Object, fn) || changed
		changed = rewriteExpr(e.Index.Index, fn) || changed
	case ast.ExprCall:
		changed = rewriteExpr(&e.Call.Callee, fn) || changed
		for i := range e.Call.Args {
			changed = rewriteExpr(&e.Call.Args[i].Value, fn) || changed
		}
	case ast.ExprMethodCall:
		changed = rewriteExpr(&e.Method.Object, fn) || changed
		for i := range e.Method.Args {
			changed = rewriteExpr(&e.Method.Args[i].Value, fn) || changed
		}
	case ast.ExprNew:
		changed = rewriteExpr(&e.New.Callee, fn) || changed
		for i := range e.New.Args {
			changed = rewriteExpr(&e.New.Args[i].Value, fn) || changed
		}
	case ast.ExprTemplateLiteral:
		for i := range e.Template.Exprs {
			changed = rewriteExpr(&e.Template.Exprs[i], fn) || changed
		}
	case ast.ExprArray:
		for i := range e.Array.Elements {
			el := &e.Array.Elements[i]
			if el.Kind == ast.ArrayElemHole {
				continue
			}
			changed = rewriteExpr(&el.Expr, fn) || changed
		}
	case ast.ExprObject:
		for i := range e.Object.Properties {
			p := &e.Object.Properties[i]
			if p.Computed != nil {
				changed = rewriteExpr(p.Computed, fn) || changed
			}
			if p.Kind == ast.ObjPropMethod {
				if p.Body != nil {
					changed = rewriteStatements(p.Body.Statements, fn) || changed
				}
			} else {
				changed = rewriteExpr(&p.Value, fn) || changed
			}
		}
	case ast.ExprSpread:
		changed = rewriteExpr(e.Spread, fn) || changed
	case ast.ExprPipe:
		changed = rewriteExpr(&e.Pipe.Value, fn) || changed
		changed = rewriteExpr(&e.Pipe.Func, fn) || changed
	case ast.ExprNullCoalesce:
		changed = rewriteExpr(&e.Coalesce.Left, fn) || changed
		changed = rewriteExpr(&e.Coalesce.Right, fn) || changed
	case ast.ExprArrow:
		if e.Arrow.BodyStyle == ast.ArrowExprBody {
			changed = rewriteExpr(e.Arrow.ExprBody, fn) || changed
		} else {
			changed = rewriteStatements(e.Arrow.BlockBody.Statements, fn) || changed
		}
	case ast.ExprMatch:
		changed = rewriteExpr(&e.Match.Discriminant, fn) || changed
		for i := range e.Match.Arms {
			arm := &e.Match.Arms[i]
			if arm.Guard != nil {
				changed = rewriteExpr(arm.Guard, fn) || changed
			}
			changed = rewriteExpr(&arm.Body, fn) || changed
		}
	case ast.ExprThrow:
		changed = rewriteExpr(e.Throw, fn) || changed
	case ast.ExprTry:
		changed = rewriteExpr(&e.Try.Body, fn) || changed
		if e.Try.Catch != nil {
			changed = rewriteExpr(e.Try.Catch, fn) || changed
		}
	case ast.ExprUnary:
		changed = rewriteExpr(&e.Unary.Operand, fn) || changed
	case ast.ExprBinary:
		changed = rewriteExpr(&e.Binary.Left, fn) || changed
		changed = rewriteExpr(&e.Binary.Right, fn) || changed
	case ast.ExprBang:
		changed = rewriteExpr(&e.Bang.Try, fn) || changed
		changed = rewriteExpr(&e.Bang.Fallback, fn) || changed
	case ast.ExprParenthesized:
		changed = rewriteExpr(e.Inner, fn) || changed
	}
	if fn(e) {
		changed = true
	}
	return changed
}

// rewriteStatements applies rewriteExpr to every expression in stmts,
// recursing into every nested block (if/while/for bodies, try/catch,
// function and class method bodies), so a single call folds an entire
// function or program.
func rewriteStatements(stmts []ast.Statement, fn func(*ast.Expression) bool) bool {
	changed := false
	for i := range stmts {
		changed = rewriteStatement(&stmts[i], fn) || changed
	}
	return changed
}

func rewriteStatement(s *ast.Statement, fn func(*ast.Expression) bool) bool {
	changed := false
	switch s.Kind {
	case ast.StmtBlock:
		changed = rewriteStatements(s.Block.Statements, fn) || changed
	case ast.StmtVarDecl:
		if s.VarDecl.Value != nil {
			changed = rewriteExpr(s.VarDecl.Value, fn) || changed
		}
	case ast.StmtAssign:
		for i := range s.Assign.Targets {
			changed = rewriteExpr(&s.Assign.Targets[i], fn) || changed
		}
		for i := range s.Assign.Values {
			changed = rewriteExpr(&s.Assign.Values[i], fn) || changed
		}
	case ast.StmtIf:
		changed = rewriteExpr(&s.If.Condition, fn) || changed
		changed = rewriteStatements(s.If.Then.Statements, fn) || changed
		for i := range s.If.ElseIfs {
			changed = rewriteExpr(&s.If.ElseIfs[i].Condition, fn) || changed
			changed = rewriteStatements(s.If.ElseIfs[i].Block.Statements, fn) || changed
		}
		if s.If.Else != nil {
			changed = rewriteStatements(s.If.Else.Statements, fn) || changed
		}
	case ast.StmtWhile:
		changed = rewriteExpr(&s.While.Condition, fn) || changed
		changed = rewriteStatements(s.While.Body.Statements, fn) || changed
	case ast.StmtForNumeric:
		changed = rewriteExpr(&s.ForNumeric.Start, fn) || changed
		changed = rewriteExpr(&s.ForNumeric.Stop, fn) || changed
		if s.ForNumeric.Step != nil {
			changed = rewriteExpr(s.ForNumeric.Step, fn) || changed
		}
		changed = rewriteStatements(s.ForNumeric.Body.Statements, fn) || changed
	case ast.StmtForGeneric:
		for i := range s.ForGeneric.Iter {
			changed = rewriteExpr(&s.ForGeneric.Iter[i], fn) || changed
		}
		changed = rewriteStatements(s.ForGeneric.Body.Statements, fn) || changed
	case ast.StmtReturn:
		for i := range s.Return.Values {
			changed = rewriteExpr(&s.Return.Values[i], fn) || changed
		}
	case ast.StmtFunctionDecl:
		changed = rewriteStatements(s.Function.Body.Statements, fn) || changed
	case ast.StmtClassDecl:
		for i := range s.Class.Fields {
			if s.Class.Fields[i].Default != nil {
				changed = rewriteExpr(s.Class.Fields[i].Default, fn) || changed
			}
		}
		for i := range s.Class.Methods {
			changed = rewriteStatements(s.Class.Methods[i].Body.Statements, fn) || changed
		}
	case ast.StmtExport:
		if s.Export.Decl != nil {
			changed = rewriteStatement(s.Export.Decl, fn) || changed
		}
	case ast.StmtThrow:
		changed = rewriteExpr(s.Throw, fn) || changed
	case ast.StmtTry:
		changed = rewriteStatements(s.Try.Body.Statements, fn) || changed
		for i := range s.Try.Catches {
			changed = rewriteStatements(s.Try.Catches[i].Body.Statements, fn) || changed
		}
		if s.Try.Finally != nil {
			changed = rewriteStatements(s.Try.Finally.Statements, fn) || changed
		}
	case ast.StmtExpr:
		changed = rewriteExpr(s.Expr, fn) || changed
	}
	return changed
}

// forEachFunctionBody calls visit once per named function-shaped body in
// prog: top-level functions and class methods (arrow bodies are left to
// the passes that specifically walk expressions, since an arrow has no
// name to hang a hoisted-local or tail-call annotation off of in a way
// distinguishable from its enclosing statement). Passes that reason
// about a single function's locals (global localization, loop
// optimization, dead store elimination) use this instead of
// rewriteStatements so they see one body at a time.
func forEachFunctionBody(stmts []ast.Statement, visit func(body *ast.Block, params []ast.Parameter)) {
	for i := range stmts {
		forEachFunctionBodyStmt(&stmts[i], visit)
	}
}

func forEachFunctionBodyStmt(s *ast.Statement, visit func(body *ast.Block, params []ast.Parameter)) {
	switch s.Kind {
	case ast.StmtFunctionDecl:
		visit(&s.Function.Body, s.Function.Params)
		forEachFunctionBody(s.Function.Body.Statements, visit)
	case ast.StmtClassDecl:
		for i := range s.Class.Methods {
			visit(&s.Class.Methods[i].Body, s.Class.Methods[i].Params)
			forEachFunctionBody(s.Class.Methods[i].Body.Statements, visit)
		}
	case ast.StmtBlock:
		forEachFunctionBody(s.Block.Statements, visit)
	case ast.StmtIf:
		forEachFunctionBody(s.If.Then.Statements, visit)
		for i := range s.If.ElseIfs {
			forEachFunctionBody(s.If.ElseIfs[i].Block.Statements, visit)
		}
		if s.If.Else != nil {
			forEachFunctionBody(s.If.Else.Statements, visit)
		}
	case ast.StmtWhile:
		forEachFunctionBody(s.While.Body.Statements, visit)
	case ast.StmtForNumeric:
		forEachFunctionBody(s.ForNumeric.Body.Statements, visit)
	case ast.StmtForGeneric:
		forEachFunctionBody(s.ForGeneric.Body.Statements, visit)
	case ast.StmtExport:
		if s.Export.Decl != nil {
			forEachFunctionBodyStmt(s.Export.Decl, visit)
		}
	case ast.StmtTry:
		forEachFunctionBody(s.Try.Body.Statements, visit)
		for i := range s.Try.Catches {
			forEachFunctionBody(s.Try.Catches[i].Body.Statements, visit)
		}
		if s.Try.Finally != nil {
			forEachFunctionBody(s.Try.Finally.Statements, visit)
		}
	}
}
