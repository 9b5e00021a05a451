// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/interner"
)

// TailCallOptimization marks every `return f(...)` inside function f's
// own body as a direct tail-self-call (spec §4.6 tail-call pass, gated
// at O2). Codegen emits each marked return as an ordinary Lua
// `return f(...)` with a comment on every target; no loop rewrite is
// made. Only a bare identifier call matching the enclosing
// named function is recognized; a call through `self`/`this` on a
// class method is out of scope here, so codegen simply emits an
// ordinary method call for that case as it always did.
func TailCallOptimization(ctx *Context, prog *ast.Program) bool {
	changed := false
	tailWalkStatements(prog.Statements, func(s *ast.Statement) {
		if markTailCalls(ctx, s.Function.Body.Statements, s.Function.Name.Name) {
			changed = true
		}
	})
	return changed
}

// tailWalkStatements calls onFunc once per function declaration
// (top-level, exported, or nested) reachable from stmts, and recurses
// into every nested body including each function's own, so nested
// function declarations are found too. Class method bodies are searched
// for such declarations, but onFunc is not called for a method itself.
func tailWalkStatements(stmts []ast.Statement, onFunc func(*ast.Statement)) {
	for i := range stmts {
		s := &stmts[i]
		switch s.Kind {
		case ast.StmtFunctionDecl:
			onFunc(s)
			tailWalkStatements(s.Function.Body.Statements, onFunc)
		case ast.StmtClassDecl:
			for mi := range s.Class.Methods {
				tailWalkStatements(s.Class.Methods[mi].Body.Statements, onFunc)
			}
		case ast.StmtBlock:
			tailWalkStatements(s.Block.Statements, onFunc)
		case ast.StmtIf:
			tailWalkStatements(s.If.Then.Statements, onFunc)
			for ei := range s.If.ElseIfs {
				tailWalkStatements(s.If.ElseIfs[ei].Block.Statements, onFunc)
			}
			if s.If.Else != nil {
				tailWalkStatements(s.If.Else.Statements, onFunc)
			}
		case ast.StmtWhile:
			tailWalkStatements(s.While.Body.Statements, onFunc)
		case ast.StmtForNumeric:
			tailWalkStatements(s.ForNumeric.Body.Statements, onFunc)
		case ast.StmtForGeneric:
			tailWalkStatements(s.ForGeneric.Body.Statements, onFunc)
		case ast.StmtExport:
			if s.Export.Decl != nil {
				tailWalkStatements([]ast.Statement{*s.Export.Decl}, onFunc)
			}
		case ast.StmtTry:
			tailWalkStatements(s.Try.Body.Statements, onFunc)
			for ci := range s.Try.Catches {
				tailWalkStatements(s.Try.Catches[ci].Body.Statements, onFunc)
			}
			if s.Try.Finally != nil {
				tailWalkStatements(s.Try.Finally.Statements, onFunc)
			}
		}
	}
}

// markTailCalls finds every return statement within stmts (not
// descending into nested function or class declarations) whose value
// is a bare call to selfName, and marks its span in ctx.TailSelfCalls.
func markTailCalls(ctx *Context, stmts []ast.Statement, selfName interner.ID) bool {
	changed := false
	for i := range stmts {
		s := &stmts[i]
		switch s.Kind {
		case ast.StmtReturn:
			if len(s.Return.Values) == 1 && isSelfCall(&s.Return.Values[0], selfName) {
				if !ctx.TailSelfCalls[s.Span] {
					ctx.TailSelfCalls[s.Span] = true
					changed = true
				}
			}
		case ast.StmtBlock:
			changed = markTailCalls(ctx, s.Block.Statements, selfName) || changed
		case ast.StmtIf:
			changed = markTailCalls(ctx, s.If.Then.Statements, selfName) || changed
			for ei := range s.If.ElseIfs {
				changed = markTailCalls(ctx, s.If.ElseIfs[ei].Block.Statements, selfName) || changed
			}
			if s.If.Else != nil {
				changed = markTailCalls(ctx, s.If.Else.Statements, selfName) || changed
			}
		case ast.StmtWhile:
			changed = markTailCalls(ctx, s.While.Body.Statements, selfName) || changed
		case ast.StmtForNumeric:
			changed = markTailCalls(ctx, s.ForNumeric.Body.Statements, selfName) || changed
		case ast.StmtForGeneric:
			changed = markTailCalls(ctx, s.ForGeneric.Body.Statements, selfName) || changed
		case ast.StmtTry:
			changed = markTailCalls(ctx, s.Try.Body.Statements, selfName) || changed
			for ci := range s.Try.Catches {
				changed = markTailCalls(ctx, s.Try.Catches[ci].Body.Statements, selfName) || changed
			}
			if s.Try.Finally != nil {
				changed = markTailCalls(ctx, s.Try.Finally.Statements, selfName) || changed
			}
		}
	}
	return changed
}

func isSelfCall(e *ast.Expression, selfName interner.ID) bool {
	return e.Kind == ast.ExprCall && e.Call.Callee.Kind == ast.ExprIdentifier && e.Call.Callee.Ident.Name == selfName
}
