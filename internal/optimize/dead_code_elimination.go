// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import "typedlua.dev/tlc/internal/ast"

// DeadCodeElimination drops statements that can never execute: anything
// after an unconditional return/break/continue/throw in the same block,
// and `if` branches whose condition constant folding has already reduced
// to a literal boolean (spec §4.6 third O1 pass). It only collapses a
// literal-condition if when there are no else-if clauses, leaving the
// general case to later iterations once earlier else-ifs fold away on
// their own.
func DeadCodeElimination(ctx *Context, prog *ast.Program) bool {
	changed := false
	prog.Statements, changed = pruneBlock(prog.Statements)
	return visitBodiesForDCE(prog.Statements) || changed
}

// visitBodiesForDCE recurses into nested blocks (the pipeline already
// ran pruneBlock on prog.Statements itself; this reaches every body
// nested inside it).
func visitBodiesForDCE(stmts []ast.Statement) bool {
	changed := false
	for i := range stmts {
		s := &stmts[i]
		var pruned bool
		switch s.Kind {
		case ast.StmtBlock:
			s.Block.Statements, pruned = pruneBlock(s.Block.Statements)
			changed = visitBodiesForDCE(s.Block.Statements) || changed || pruned
		case ast.StmtIf:
			s.If.Then.Statements, _ = pruneBlock(s.If.Then.Statements)
			changed = visitBodiesForDCE(s.If.Then.Statements) || changed
			for ei := range s.If.ElseIfs {
				s.If.ElseIfs[ei].Block.Statements, _ = pruneBlock(s.If.ElseIfs[ei].Block.Statements)
				changed = visitBodiesForDCE(s.If.ElseIfs[ei].Block.Statements) || changed
			}
			if s.If.Else != nil {
				s.If.Else.Statements, _ = pruneBlock(s.If.Else.Statements)
				changed = visitBodiesForDCE(s.If.Else.Statements) || changed
			}
		case ast.StmtWhile:
			s.While.Body.Statements, _ = pruneBlock(s.While.Body.Statements)
			changed = visitBodiesForDCE(s.While.Body.Statements) || changed
		case ast.StmtForNumeric:
			s.ForNumeric.Body.Statements, _ = pruneBlock(s.ForNumeric.Body.Statements)
			changed = visitBodiesForDCE(s.ForNumeric.Body.Statements) || changed
		case ast.StmtForGeneric:
			s.ForGeneric.Body.Statements, _ = pruneBlock(s.ForGeneric.Body.Statements)
			changed = visitBodiesForDCE(s.ForGeneric.Body.Statements) || changed
		case ast.StmtFunctionDecl:
			s.Function.Body.Statements, _ = pruneBlock(s.Function.Body.Statements)
			changed = visitBodiesForDCE(s.Function.Body.Statements) || changed
		case ast.StmtClassDecl:
			for mi := range s.Class.Methods {
				s.Class.Methods[mi].Body.Statements, _ = pruneBlock(s.Class.Methods[mi].Body.Statements)
				changed = visitBodiesForDCE(s.Class.Methods[mi].Body.Statements) || changed
			}
		case ast.StmtExport:
			if s.Export.Decl != nil {
				changed = visitBodiesForDCE([]ast.Statement{*s.Export.Decl}) || changed
			}
		case ast.StmtTry:
			s.Try.Body.Statements, _ = pruneBlock(s.Try.Body.Statements)
			changed = visitBodiesForDCE(s.Try.Body.Statements) || changed
			for ci := range s.Try.Catches {
				s.Try.Catches[ci].Body.Statements, _ = pruneBlock(s.Try.Catches[ci].Body.Statements)
				changed = visitBodiesForDCE(s.Try.Catches[ci].Body.Statements) || changed
			}
			if s.Try.Finally != nil {
				s.Try.Finally.Statements, _ = pruneBlock(s.Try.Finally.Statements)
				changed = visitBodiesForDCE(s.Try.Finally.Statements) || changed
			}
		}
	}
	return changed
}

func isTerminator(s *ast.Statement) bool {
	switch s.Kind {
	case ast.StmtReturn, ast.StmtBreak, ast.StmtContinue, ast.StmtThrow:
		return true
	}
	return false
}

// pruneBlock collapses literal-condition ifs with no else-ifs and drops
// any statement following an unconditional terminator.
func pruneBlock(stmts []ast.Statement) ([]ast.Statement, bool) {
	changed := false
	out := make([]ast.Statement, 0, len(stmts))
	terminated := false
	for i := range stmts {
		s := stmts[i]
		if terminated {
			changed = true
			continue
		}
		if s.Kind == ast.StmtIf && len(s.If.ElseIfs) == 0 && isLiteral(&s.If.Condition) {
			lit := s.If.Condition.Literal
			if lit.Kind == ast.LitBoolean {
				changed = true
				before := len(out)
				if lit.Bool {
					out = append(out, s.If.Then.Statements...)
				} else if s.If.Else != nil {
					out = append(out, s.If.Else.Statements...)
				}
				for i := before; i < len(out); i++ {
					if isTerminator(&out[i]) {
						terminated = true
						out = out[:i+1]
						break
					}
				}
				continue
			}
		}
		out = append(out, s)
		if isTerminator(&s) {
			terminated = true
		}
	}
	return out, changed
}
