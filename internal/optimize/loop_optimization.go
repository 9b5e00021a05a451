// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"strconv"

	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/span"
)

// LoopOptimization finds pure member/index chains inside a numeric or
// generic for-loop body that don't mention the loop's own control
// variables and repeat at least twice, and records their spans as
// loop-invariant (spec §4.6 loop-optimization pass, gated at O2).
// Codegen reports how many there are in a comment above the loop; the
// chains themselves are not hoisted. While loops
// are excluded: without a bound control variable there is no cheap,
// syntactic way to tell which free names the loop body might mutate
// before the next iteration.
func LoopOptimization(ctx *Context, prog *ast.Program) bool {
	changed := false
	var walkStmts func(stmts []ast.Statement)
	walkStmts = func(stmts []ast.Statement) {
		for i := range stmts {
			s := &stmts[i]
			switch s.Kind {
			case ast.StmtForNumeric:
				if analyzeLoop(ctx, s.Span, s.ForNumeric.Body.Statements, map[interner.ID]bool{s.ForNumeric.Var.Name: true}) {
					changed = true
				}
				walkStmts(s.ForNumeric.Body.Statements)
			case ast.StmtForGeneric:
				loopVars := make(map[interner.ID]bool, len(s.ForGeneric.Vars))
				for _, v := range s.ForGeneric.Vars {
					loopVars[v.Name] = true
				}
				if analyzeLoop(ctx, s.Span, s.ForGeneric.Body.Statements, loopVars) {
					changed = true
				}
				walkStmts(s.ForGeneric.Body.Statements)
			case ast.StmtWhile:
				walkStmts(s.While.Body.Statements)
			case ast.StmtBlock:
				walkStmts(s.Block.Statements)
			case ast.StmtIf:
				walkStmts(s.If.Then.Statements)
				for _, ei := range s.If.ElseIfs {
					walkStmts(ei.Block.Statements)
				}
				if s.If.Else != nil {
					walkStmts(s.If.Else.Statements)
				}
			case ast.StmtFunctionDecl:
				walkStmts(s.Function.Body.Statements)
			case ast.StmtClassDecl:
				for mi := range s.Class.Methods {
					walkStmts(s.Class.Methods[mi].Body.Statements)
				}
			case ast.StmtTry:
				walkStmts(s.Try.Body.Statements)
				for _, c := range s.Try.Catches {
					walkStmts(c.Body.Statements)
				}
				if s.Try.Finally != nil {
					walkStmts(s.Try.Finally.Statements)
				}
			case ast.StmtExport:
				if s.Export.Decl != nil {
					walkStmts([]ast.Statement{*s.Export.Decl})
				}
			}
		}
	}
	walkStmts(prog.Statements)
	return changed
}

// analyzeLoop records loop-invariant chain spans for one loop body and
// reports whether it added anything new.
func analyzeLoop(ctx *Context, loopSpan span.Span, body []ast.Statement, loopVars map[interner.ID]bool) bool {
	occurrences := make(map[string][]*ast.Expression)
	assigned := make(map[interner.ID]bool)
	collectAssignedNames(body, assigned)

	rewriteStatements(body, func(e *ast.Expression) bool {
		key, ok := chainKey(e, loopVars, assigned)
		if !ok {
			return false
		}
		occurrences[key] = append(occurrences[key], e)
		return false
	})

	var spans []span.Span
	for _, occs := range occurrences {
		if len(occs) < 2 {
			continue
		}
		spans = append(spans, occs[0].Span)
	}
	if len(spans) == 0 {
		return false
	}
	prev, ok := ctx.LoopInvariants[loopSpan]
	if ok && sameSpanSet(prev, spans) {
		return false
	}
	ctx.LoopInvariants[loopSpan] = spans
	return true
}

// chainKey returns a structural key for a pure Member/Index chain
// rooted at an identifier, provided no name in the chain is a loop
// control variable or ever assigned within the loop body. Anything
// else (calls, literals alone, dynamic index by a non-literal) is not
// a candidate.
func chainKey(e *ast.Expression, loopVars, assigned map[interner.ID]bool) (string, bool) {
	switch e.Kind {
	case ast.ExprIdentifier:
		return "", false // a bare identifier isn't worth hoisting on its own
	case ast.ExprMember:
		base, ok := chainBase(e.Member.Object, loopVars, assigned)
		if !ok {
			return "", false
		}
		return base + "." + identKey(e.Member.Name.Name), true
	case ast.ExprIndex:
		if e.Index.Index.Kind != ast.ExprLiteral {
			return "", false
		}
		base, ok := chainBase(e.Index.Object, loopVars, assigned)
		if !ok {
			return "", false
		}
		return base + "[" + literalKey(e.Index.Index.Literal) + "]", true
	}
	return "", false
}

func chainBase(e *ast.Expression, loopVars, assigned map[interner.ID]bool) (string, bool) {
	switch e.Kind {
	case ast.ExprIdentifier:
		if loopVars[e.Ident.Name] || assigned[e.Ident.Name] {
			return "", false
		}
		return identKey(e.Ident.Name), true
	case ast.ExprMember:
		base, ok := chainBase(e.Member.Object, loopVars, assigned)
		if !ok {
			return "", false
		}
		return base + "." + identKey(e.Member.Name.Name), true
	case ast.ExprIndex:
		if e.Index.Index.Kind != ast.ExprLiteral {
			return "", false
		}
		base, ok := chainBase(e.Index.Object, loopVars, assigned)
		if !ok {
			return "", false
		}
		return base + "[" + literalKey(e.Index.Index.Literal) + "]", true
	}
	return "", false
}

func identKey(id interner.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func literalKey(l *ast.Literal) string {
	switch l.Kind {
	case ast.LitString:
		return "s:" + l.Str
	case ast.LitInteger:
		return "i:" + strconv.FormatInt(l.Int, 10)
	default:
		return "n"
	}
}

// collectAssignedNames records every identifier used as a plain
// assignment target anywhere in stmts, without descending into nested
// function/method bodies.
func collectAssignedNames(stmts []ast.Statement, assigned map[interner.ID]bool) {
	for i := range stmts {
		s := &stmts[i]
		switch s.Kind {
		case ast.StmtAssign:
			for _, t := range s.Assign.Targets {
				if t.Kind == ast.ExprIdentifier {
					assigned[t.Ident.Name] = true
				}
			}
		case ast.StmtBlock:
			collectAssignedNames(s.Block.Statements, assigned)
		case ast.StmtIf:
			collectAssignedNames(s.If.Then.Statements, assigned)
			for _, ei := range s.If.ElseIfs {
				collectAssignedNames(ei.Block.Statements, assigned)
			}
			if s.If.Else != nil {
				collectAssignedNames(s.If.Else.Statements, assigned)
			}
		case ast.StmtWhile:
			collectAssignedNames(s.While.Body.Statements, assigned)
		case ast.StmtForNumeric:
			collectAssignedNames(s.ForNumeric.Body.Statements, assigned)
		case ast.StmtForGeneric:
			collectAssignedNames(s.ForGeneric.Body.Statements, assigned)
		case ast.StmtTry:
			collectAssignedNames(s.Try.Body.Statements, assigned)
			for _, c := range s.Try.Catches {
				collectAssignedNames(c.Body.Statements, assigned)
			}
			if s.Try.Finally != nil {
				collectAssignedNames(s.Try.Finally.Statements, assigned)
			}
		}
	}
}

func sameSpanSet(a, b []span.Span) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[span.Span]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			return false
		}
	}
	return true
}
