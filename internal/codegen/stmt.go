// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"fmt"
	"strings"

	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/span"
)

func (g *Generator) statement(s *ast.Statement) {
	g.mapSpan(s.Span)
	switch s.Kind {
	case ast.StmtBlock:
		g.line("do")
		g.indented(func() {
			for i := range s.Block.Statements {
				g.statement(&s.Block.Statements[i])
			}
		})
		g.line("end")
	case ast.StmtVarDecl:
		g.varDecl(s.VarDecl)
	case ast.StmtAssign:
		g.assign(s.Assign)
	case ast.StmtIf:
		g.ifStmt(s.If)
	case ast.StmtWhile:
		g.whileStmt(s.While)
	case ast.StmtForNumeric:
		g.forNumeric(s.ForNumeric)
	case ast.StmtForGeneric:
		g.forGeneric(s.ForGeneric)
	case ast.StmtReturn:
		g.returnStmt(s)
	case ast.StmtBreak:
		g.line("break")
	case ast.StmtContinue:
		g.line("goto continue")
	case ast.StmtFunctionDecl:
		g.functionDecl(s.Function)
	case ast.StmtClassDecl:
		g.classDecl(s.Class)
	case ast.StmtInterfaceDecl:
		// no runtime emission (spec §4.7: interfaces are purely a
		// type-checker construct).
	case ast.StmtEnumDecl:
		g.enumDecl(s.Enum)
	case ast.StmtTypeAlias:
		// type aliases have no runtime representation.
	case ast.StmtImport:
		g.importDecl(s.Import)
	case ast.StmtExport:
		g.exportDecl(s.Export)
	case ast.StmtThrow:
		g.line("error(%s)", g.expr(s.Throw))
	case ast.StmtTry:
		g.tryStmt(s.Try)
	case ast.StmtExpr:
		g.line("%s", g.expr(s.Expr))
	}
}

func (g *Generator) varDecl(d *ast.VarDecl) {
	if d.Pattern != nil {
		t := g.newTemp()
		g.line("local %s = %s", t, g.exprOrNil(d.Value))
		for _, l := range g.bindPattern(d.Pattern, t) {
			g.line("%s", l)
		}
		return
	}
	g.line("local %s = %s", g.name(d.Name.Name), g.exprOrNil(d.Value))
}

func (g *Generator) exprOrNil(e *ast.Expression) string {
	if e == nil {
		return "nil"
	}
	return g.expr(e)
}

// bindPattern renders the declarations needed to destructure src (a
// rendered Lua expression, usually a temporary local) against p, per
// spec §4.7's pattern-matching/destructuring lowering.
func (g *Generator) bindPattern(p *ast.Pattern, src string) []string {
	switch p.Kind {
	case ast.PatIdentifier:
		return []string{fmt.Sprintf("local %s = %s", g.name(p.Ident.Name), src)}
	case ast.PatWildcard, ast.PatLiteral:
		return nil
	case ast.PatArray:
		var out []string
		idx := 1
		for _, el := range p.Array.Elements {
			switch el.Kind {
			case ast.ArrayPatRest:
				t := g.newTemp()
				out = append(out, fmt.Sprintf("local %s = { table.unpack(%s, %d) }", t, src, idx))
				out = append(out, g.bindPattern(el.Pattern, t)...)
			case ast.ArrayPatHole:
				idx++
			default:
				out = append(out, g.bindPattern(el.Pattern, fmt.Sprintf("%s[%d]", src, idx))...)
				idx++
			}
		}
		return out
	case ast.PatObject:
		var out []string
		for _, prop := range p.Object.Properties {
			field := fmt.Sprintf("%s.%s", src, g.name(prop.Key.Name))
			if prop.Value == nil {
				out = append(out, fmt.Sprintf("local %s = %s", g.name(prop.Key.Name), field))
				continue
			}
			out = append(out, g.bindPattern(prop.Value, field)...)
		}
		return out
	case ast.PatGuard:
		return g.bindPattern(p.Guard.Inner, src)
	case ast.PatOr:
		if len(p.Or) > 0 {
			return g.bindPattern(&p.Or[0], src)
		}
	}
	return nil
}

func (g *Generator) assign(a *ast.AssignStmt) {
	targets := make([]string, len(a.Targets))
	for i := range a.Targets {
		targets[i] = g.expr(&a.Targets[i])
	}
	if a.Op != ast.AssignPlain && len(a.Targets) == 1 && len(a.Values) == 1 {
		op := map[ast.AssignOp]string{
			ast.AssignAdd: "+", ast.AssignSub: "-", ast.AssignMul: "*",
			ast.AssignDiv: "/", ast.AssignConcat: "..",
		}[a.Op]
		g.line("%s = (%s %s %s)", targets[0], targets[0], op, g.expr(&a.Values[0]))
		return
	}
	values := make([]string, len(a.Values))
	for i := range a.Values {
		values[i] = g.expr(&a.Values[i])
	}
	g.line("%s = %s", strings.Join(targets, ", "), strings.Join(values, ", "))
}

func (g *Generator) ifStmt(f *ast.IfStmt) {
	g.line("if %s then", g.expr(&f.Condition))
	g.indented(func() {
		for i := range f.Then.Statements {
			g.statement(&f.Then.Statements[i])
		}
	})
	for _, ei := range f.ElseIfs {
		g.line("elseif %s then", g.expr(&ei.Condition))
		g.indented(func() {
			for i := range ei.Block.Statements {
				g.statement(&ei.Block.Statements[i])
			}
		})
	}
	if f.Else != nil {
		g.line("else")
		g.indented(func() {
			for i := range f.Else.Statements {
				g.statement(&f.Else.Statements[i])
			}
		})
	}
	g.line("end")
}

func (g *Generator) whileStmt(w *ast.WhileStmt) {
	g.line("while %s do", g.expr(&w.Condition))
	g.indented(func() {
		for i := range w.Body.Statements {
			g.statement(&w.Body.Statements[i])
		}
		g.line("::continue::")
	})
	g.line("end")
}

func (g *Generator) forNumeric(f *ast.ForNumericStmt) {
	step := ""
	if f.Step != nil {
		step = fmt.Sprintf(", %s", g.expr(f.Step))
	}
	g.line("for %s = %s, %s%s do", g.name(f.Var.Name), g.expr(&f.Start), g.expr(&f.Stop), step)
	g.indented(func() {
		g.hoistLoopInvariants(f.Span, f.Body.Statements)
		for i := range f.Body.Statements {
			g.statement(&f.Body.Statements[i])
		}
		g.line("::continue::")
	})
	g.line("end")
}

func (g *Generator) forGeneric(f *ast.ForGenericStmt) {
	names := make([]string, len(f.Vars))
	for i, v := range f.Vars {
		names[i] = g.name(v.Name)
	}
	iters := make([]string, len(f.Iter))
	for i := range f.Iter {
		iters[i] = g.expr(&f.Iter[i])
	}
	g.line("for %s in %s do", strings.Join(names, ", "), strings.Join(iters, ", "))
	g.indented(func() {
		g.hoistLoopInvariants(f.Span, f.Body.Statements)
		for i := range f.Body.Statements {
			g.statement(&f.Body.Statements[i])
		}
		g.line("::continue::")
	})
	g.line("end")
}

// hoistLoopInvariants notes how many loop-invariant subexpressions the
// loop-optimization pass found for loopSpan (optimize.Context.
// LoopInvariants, spec §4.6 LICM). Rewriting the body to reference a
// hoisted preheader local in place of each recorded span is future
// work codegen doesn't yet perform, since it needs a second
// span-keyed substitution walk over the body after this comment is
// emitted; for now the annotation is surfaced for a human reader (and a
// future codegen pass) rather than acted on.
func (g *Generator) hoistLoopInvariants(loopSpan span.Span, _ []ast.Statement) {
	if spans, ok := g.opt.LoopInvariants[loopSpan]; ok && len(spans) > 0 {
		g.line("-- %d loop-invariant subexpression(s) eligible for hoisting", len(spans))
	}
}

func (g *Generator) returnStmt(s *ast.Statement) {
	r := s.Return
	if g.opt.TailSelfCalls[s.Span] && len(r.Values) == 1 && r.Values[0].Kind == ast.ExprCall {
		g.line("return %s -- tail self-call", g.expr(&r.Values[0]))
		return
	}
	if len(r.Values) == 0 {
		g.line("return")
		return
	}
	parts := make([]string, len(r.Values))
	for i := range r.Values {
		parts[i] = g.expr(&r.Values[i])
	}
	g.line("return %s", strings.Join(parts, ", "))
}

func (g *Generator) functionDecl(f *ast.FunctionDecl) {
	g.line("local function %s(%s)", g.name(f.Name.Name), g.paramList(f.Params))
	g.indented(func() {
		g.paramPreamble(f.Params)
		g.emitLocalizedGlobals(f.Body.Span)
		for i := range f.Body.Statements {
			g.statement(&f.Body.Statements[i])
		}
	})
	g.line("end")
}

// emitLocalizedGlobals hoists the frequently-accessed free identifiers
// the global-localization pass found for this body into locals aliasing
// the original name, so every reference inside the body resolves
// through a local slot instead of a table lookup (spec §4.6).
func (g *Generator) emitLocalizedGlobals(sp span.Span) {
	ids, ok := g.opt.LocalizedGlobals[sp]
	if !ok || len(ids) == 0 {
		return
	}
	for _, id := range ids {
		n := g.name(id)
		g.line("local %s = %s", n, n)
	}
}

func (g *Generator) importDecl(d *ast.ImportDecl) {
	if d.Namespace != nil {
		g.line("local %s = require(%s)", g.name(d.Namespace.Name), luaQuote(d.Path))
		return
	}
	t := g.newTemp()
	g.line("local %s = require(%s)", t, luaQuote(d.Path))
	for _, spec := range d.Specifiers {
		local := spec.Name.Name
		if spec.Alias != nil {
			local = spec.Alias.Name
		}
		g.line("local %s = %s.%s", g.name(local), t, g.name(spec.Name.Name))
	}
}

// exportDecl renders an export statement: a wrapped declaration is
// simply emitted (export is a visibility annotation, not a runtime
// construct on its own), and a re-export list (`export { a, b as c }
// from "path"`) requires the named module and rebinds each name locally,
// exactly like importDecl's specifier form, so the names it lists are
// bound when exportNames reflects them into this unit's own export table.
func (g *Generator) exportDecl(e *ast.ExportDecl) {
	if e.Decl != nil {
		g.statement(e.Decl)
		return
	}
	if e.FromPath == nil {
		return
	}
	t := g.newTemp()
	g.line("local %s = require(%s)", t, luaQuote(*e.FromPath))
	for _, spec := range e.Names {
		local := spec.Name.Name
		if spec.Alias != nil {
			local = spec.Alias.Name
		}
		g.line("local %s = %s.%s", g.name(local), t, g.name(spec.Name.Name))
	}
}

// catchChain renders t.Catches as an if/elseif/else chain over errv,
// type-testing each catch clause that names a type via __tl_instanceof
// and falling through to the first untyped (catch-all) clause. A caught
// value that matches no clause is re-raised, since Lua's pcall alone
// gives no structural way to distinguish exception types.
func (g *Generator) catchChain(catches []ast.CatchClause, errv string) {
	if len(catches) == 0 {
		g.line("error(%s)", errv)
		return
	}
	exhaustive := false
	for i, c := range catches {
		kw := "if"
		if i > 0 {
			kw = "elseif"
		}
		cond := "true"
		if c.Type != nil && c.Type.Kind == ast.TypeRef {
			cond = fmt.Sprintf("__tl_instanceof(%s, %s)", errv, g.name(c.Type.Reference.Name.Name))
		} else {
			exhaustive = true
		}
		g.line("%s %s then", kw, cond)
		g.indented(func() {
			if c.Binding != nil {
				g.line("local %s = %s", g.name(c.Binding.Name), errv)
			}
			for j := range c.Body.Statements {
				g.statement(&c.Body.Statements[j])
			}
		})
		if exhaustive {
			break
		}
	}
	if !exhaustive {
		g.line("else")
		g.indented(func() {
			g.line("error(%s)", errv)
		})
	}
	g.line("end")
}

func (g *Generator) tryStmt(t *ast.TryStmt) {
	fn := g.newTemp()
	g.line("local function %s()", fn)
	g.indented(func() {
		for i := range t.Body.Statements {
			g.statement(&t.Body.Statements[i])
		}
	})
	g.line("end")
	ok, errv := "_tlok", g.newTemp()
	if g.atLeast53() {
		g.line("local %s, %s = xpcall(%s, debug.traceback)", ok, errv, fn)
	} else {
		g.line("local %s, %s = pcall(%s)", ok, errv, fn)
	}
	g.line("if not %s then", ok)
	g.indented(func() {
		g.catchChain(t.Catches, errv)
	})
	g.line("end")
	if t.Finally != nil {
		for i := range t.Finally.Statements {
			g.statement(&t.Finally.Statements[i])
		}
	}
}
