// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/interner"
)

// localizationThreshold is the minimum number of read references a
// free identifier needs within one function body before codegen hoists
// it into a `local` alias at the top of that body, trading one extra
// local slot for avoiding a table lookup on every other reference.
const localizationThreshold = 3

// GlobalLocalization finds free identifiers (not bound by a parameter
// or local declaration anywhere in the body) referenced at least
// localizationThreshold times and never assigned to within the body,
// and records them so codegen emits `local name = name` once at the
// top of the function (spec §4.6 global-localization pass). This is
// the classic Lua idiom for avoiding repeated global-table indexing on
// hot built-ins like table.insert or string.format; it is safe for any
// free identifier, not only true globals, since aliasing a read-only
// reference with a local changes nothing observable.
//
// Arrow function bodies are out of scope for this pass (see
// forEachFunctionBody); only named functions and class methods are
// candidates.
func GlobalLocalization(ctx *Context, prog *ast.Program) bool {
	changed := false
	forEachFunctionBody(prog.Statements, func(body *ast.Block, params []ast.Parameter) {
		bound := make(map[interner.ID]bool, len(params))
		for _, p := range params {
			bound[p.Name.Name] = true
		}
		collectBoundNames(body.Statements, bound)

		counts := make(map[interner.ID]int)
		assigned := make(map[interner.ID]bool)
		countFreeIdents(body.Statements, bound, counts, assigned)

		var hoist []interner.ID
		for id, n := range counts {
			if n >= localizationThreshold && !assigned[id] {
				hoist = append(hoist, id)
			}
		}
		if len(hoist) == 0 {
			return
		}
		prev, ok := ctx.LocalizedGlobals[body.Span]
		if ok && sameIDSet(prev, hoist) {
			return
		}
		ctx.LocalizedGlobals[body.Span] = hoist
		changed = true
	})
	return changed
}

// collectBoundNames records every name declared by a var/for-loop
// binding anywhere within stmts, not descending into nested function,
// method, or arrow bodies (those are separate scopes).
func collectBoundNames(stmts []ast.Statement, bound map[interner.ID]bool) {
	for i := range stmts {
		s := &stmts[i]
		switch s.Kind {
		case ast.StmtBlock:
			collectBoundNames(s.Block.Statements, bound)
		case ast.StmtVarDecl:
			if s.VarDecl.Name != nil {
				bound[s.VarDecl.Name.Name] = true
			}
			if s.VarDecl.Pattern != nil {
				collectPatternNames(s.VarDecl.Pattern, bound)
			}
		case ast.StmtIf:
			collectBoundNames(s.If.Then.Statements, bound)
			for _, ei := range s.If.ElseIfs {
				collectBoundNames(ei.Block.Statements, bound)
			}
			if s.If.Else != nil {
				collectBoundNames(s.If.Else.Statements, bound)
			}
		case ast.StmtWhile:
			collectBoundNames(s.While.Body.Statements, bound)
		case ast.StmtForNumeric:
			bound[s.ForNumeric.Var.Name] = true
			collectBoundNames(s.ForNumeric.Body.Statements, bound)
		case ast.StmtForGeneric:
			for _, v := range s.ForGeneric.Vars {
				bound[v.Name] = true
			}
			collectBoundNames(s.ForGeneric.Body.Statements, bound)
		case ast.StmtTry:
			collectBoundNames(s.Try.Body.Statements, bound)
			for _, c := range s.Try.Catches {
				if c.Binding != nil {
					bound[c.Binding.Name] = true
				}
				collectBoundNames(c.Body.Statements, bound)
			}
			if s.Try.Finally != nil {
				collectBoundNames(s.Try.Finally.Statements, bound)
			}
		case ast.StmtExport:
			if s.Export.Decl != nil {
				collectBoundNames([]ast.Statement{*s.Export.Decl}, bound)
			}
		}
	}
}

func collectPatternNames(p *ast.Pattern, bound map[interner.ID]bool) {
	if p == nil {
		return
	}
	switch p.Kind {
	case ast.PatIdentifier:
		if p.Ident != nil {
			bound[p.Ident.Name] = true
		}
	case ast.PatArray:
		for _, el := range p.Array.Elements {
			collectPatternNames(el.Pattern, bound)
		}
	case ast.PatObject:
		for _, prop := range p.Object.Properties {
			if prop.Value != nil {
				collectPatternNames(prop.Value, bound)
			} else {
				bound[prop.Key.Name] = true
			}
		}
	case ast.PatOr:
		for i := range p.Or {
			collectPatternNames(&p.Or[i], bound)
		}
	case ast.PatGuard:
		collectPatternNames(p.Guard.Inner, bound)
	}
}

// countFreeIdents increments counts for every identifier reference not
// in bound, and marks assigned for any such identifier used as a plain
// assignment target. It does not descend into nested function, method,
// or arrow bodies.
func countFreeIdents(stmts []ast.Statement, bound map[interner.ID]bool, counts map[interner.ID]int, assigned map[interner.ID]bool) {
	visit := func(e *ast.Expression) bool {
		if e.Kind == ast.ExprIdentifier && !bound[e.Ident.Name] {
			counts[e.Ident.Name]++
		}
		return false
	}
	for i := range stmts {
		s := &stmts[i]
		switch s.Kind {
		case ast.StmtBlock:
			countFreeIdents(s.Block.Statements, bound, counts, assigned)
		case ast.StmtVarDecl:
			if s.VarDecl.Value != nil {
				rewriteExpr(s.VarDecl.Value, visit)
			}
		case ast.StmtAssign:
			for i := range s.Assign.Targets {
				t := &s.Assign.Targets[i]
				if t.Kind == ast.ExprIdentifier && !bound[t.Ident.Name] {
					assigned[t.Ident.Name] = true
				}
				rewriteExpr(t, visit)
			}
			for i := range s.Assign.Values {
				rewriteExpr(&s.Assign.Values[i], visit)
			}
		case ast.StmtIf:
			rewriteExpr(&s.If.Condition, visit)
			countFreeIdents(s.If.Then.Statements, bound, counts, assigned)
			for _, ei := range s.If.ElseIfs {
				rewriteExpr(&ei.Condition, visit)
				countFreeIdents(ei.Block.Statements, bound, counts, assigned)
			}
			if s.If.Else != nil {
				countFreeIdents(s.If.Else.Statements, bound, counts, assigned)
			}
		case ast.StmtWhile:
			rewriteExpr(&s.While.Condition, visit)
			countFreeIdents(s.While.Body.Statements, bound, counts, assigned)
		case ast.StmtForNumeric:
			rewriteExpr(&s.ForNumeric.Start, visit)
			rewriteExpr(&s.ForNumeric.Stop, visit)
			if s.ForNumeric.Step != nil {
				rewriteExpr(s.ForNumeric.Step, visit)
			}
			countFreeIdents(s.ForNumeric.Body.Statements, bound, counts, assigned)
		case ast.StmtForGeneric:
			for i := range s.ForGeneric.Iter {
				rewriteExpr(&s.ForGeneric.Iter[i], visit)
			}
			countFreeIdents(s.ForGeneric.Body.Statements, bound, counts, assigned)
		case ast.StmtReturn:
			for i := range s.Return.Values {
				rewriteExpr(&s.Return.Values[i], visit)
			}
		case ast.StmtThrow:
			rewriteExpr(s.Throw, visit)
		case ast.StmtTry:
			countFreeIdents(s.Try.Body.Statements, bound, counts, assigned)
			for _, c := range s.Try.Catches {
				countFreeIdents(c.Body.Statements, bound, counts, assigned)
			}
			if s.Try.Finally != nil {
				countFreeIdents(s.Try.Finally.Statements, bound, counts, assigned)
			}
		case ast.StmtExpr:
			rewriteExpr(s.Expr, visit)
		case ast.StmtExport:
			if s.Export.Decl != nil {
				countFreeIdents([]ast.Statement{*s.Export.Decl}, bound, counts, assigned)
			}
		}
	}
}

func sameIDSet(a, b []interner.ID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[interner.ID]bool, len(a))
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if !seen[id] {
			return false
		}
	}
	return true
}
