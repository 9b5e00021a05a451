// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/interner"
)

// FunctionInlining replaces a call to a top-level, single-statement
// `return expr` function with a copy of expr, its parameters
// substituted by the call's arguments, when every argument is an
// identifier or literal (spec §4.6 function-inlining pass, gated at
// O2). Restricting substitutable arguments to side-effect-free
// expressions means a parameter referenced more than once in the body
// can still be safely duplicated. Functions with rest/default
// parameters, multiple statements, or more than one return value are
// left alone; so is any call whose argument count doesn't exactly
// match the parameter count.
func FunctionInlining(ctx *Context, prog *ast.Program) bool {
	candidates := collectInlineCandidates(prog.Statements)
	if len(candidates) == 0 {
		return false
	}
	return rewriteStatements(prog.Statements, func(e *ast.Expression) bool {
		if e.Kind != ast.ExprCall || e.Call.Callee.Kind != ast.ExprIdentifier {
			return false
		}
		fn, ok := candidates[e.Call.Callee.Ident.Name]
		if !ok || len(e.Call.Args) != len(fn.Params) {
			return false
		}
		paramMap := make(map[interner.ID]ast.Expression, len(fn.Params))
		for i, p := range fn.Params {
			arg := e.Call.Args[i]
			if arg.Spread || !droppable(&arg.Value) {
				return false
			}
			paramMap[p.Name.Name] = arg.Value
		}
		inlined := deepCopyExpr(&fn.Body.Statements[0].Return.Values[0])
		substituteParams(&inlined, paramMap)
		*e = inlined
		return true
	})
}

// collectInlineCandidates finds top-level (including exported)
// functions shaped `function f(params) { return expr }` with no rest
// or default parameters, keyed by name. A function that calls itself
// directly in its own return expression is excluded, since inlining it
// would just keep re-expanding the same call forever.
func collectInlineCandidates(stmts []ast.Statement) map[interner.ID]*ast.FunctionDecl {
	out := make(map[interner.ID]*ast.FunctionDecl)
	for i := range stmts {
		s := &stmts[i]
		decl := s
		if s.Kind == ast.StmtExport && s.Export.Decl != nil {
			decl = s.Export.Decl
		}
		if decl.Kind != ast.StmtFunctionDecl {
			continue
		}
		fn := decl.Function
		if len(fn.Body.Statements) != 1 || fn.Body.Statements[0].Kind != ast.StmtReturn {
			continue
		}
		ret := fn.Body.Statements[0].Return
		if len(ret.Values) != 1 {
			continue
		}
		simple := true
		for _, p := range fn.Params {
			if p.Rest || p.Default.Span.IsValid() {
				simple = false
				break
			}
		}
		if !simple || callsSelf(&ret.Values[0], fn.Name.Name) {
			continue
		}
		out[fn.Name.Name] = fn
	}
	return out
}

func callsSelf(e *ast.Expression, name interner.ID) bool {
	found := false
	rewriteExpr(e, func(x *ast.Expression) bool {
		if x.Kind == ast.ExprCall && x.Call.Callee.Kind == ast.ExprIdentifier && x.Call.Callee.Ident.Name == name {
			found = true
		}
		return false
	})
	return found
}

// substituteParams replaces every identifier in e that names a key of
// paramMap with a copy of the corresponding argument expression.
func substituteParams(e *ast.Expression, paramMap map[interner.ID]ast.Expression) {
	rewriteExpr(e, func(x *ast.Expression) bool {
		if x.Kind == ast.ExprIdentifier {
			if repl, ok := paramMap[x.Ident.Name]; ok {
				*x = deepCopyExprValue(repl)
				return true
			}
		}
		return false
	})
}

func deepCopyExprValue(e ast.Expression) ast.Expression { return deepCopyExpr(&e) }

// deepCopyExpr clones e and everything it points to, so an inlined
// copy never aliases the original function body (which may be inlined
// again at another call site) or another substituted argument.
func deepCopyExpr(e *ast.Expression) ast.Expression {
	if e == nil {
		return ast.Expression{}
	}
	cp := *e
	switch e.Kind {
	case ast.ExprLiteral:
		lit := *e.Literal
		cp.Literal = &lit
	case ast.ExprIdentifier:
		id := *e.Ident
		cp.Ident = &id
	case ast.ExprMember:
		m := *e.Member
		m.Object = copyExprPtr(e.Member.Object)
		cp.Member = &m
	case ast.ExprSafeNav:
		m := *e.SafeNav
		m.Object = copyExprPtr(e.SafeNav.Object)
		cp.SafeNav = &m
	case ast.ExprIndex:
		ix := *e.Index
		ix.Object = copyExprPtr(e.Index.Object)
		ix.Index = copyExprPtr(e.Index.Index)
		cp.Index = &ix
	case ast.ExprCall:
		c := *e.Call
		c.Callee = deepCopyExpr(&e.Call.Callee)
		c.Args = copyArgs(e.Call.Args)
		cp.Call = &c
	case ast.ExprMethodCall:
		m := *e.Method
		m.Object = deepCopyExpr(&e.Method.Object)
		m.Args = copyArgs(e.Method.Args)
		cp.Method = &m
	case ast.ExprNew:
		n := *e.New
		n.Callee = deepCopyExpr(&e.New.Callee)
		n.Args = copyArgs(e.New.Args)
		cp.New = &n
	case ast.ExprTemplateLiteral:
		t := *e.Template
		t.Exprs = make([]ast.Expression, len(e.Template.Exprs))
		for i := range e.Template.Exprs {
			t.Exprs[i] = deepCopyExpr(&e.Template.Exprs[i])
		}
		cp.Template = &t
	case ast.ExprArray:
		a := *e.Array
		a.Elements = make([]ast.ArrayElement, len(e.Array.Elements))
		for i, el := range e.Array.Elements {
			a.Elements[i] = ast.ArrayElement{Kind: el.Kind, Expr: deepCopyExpr(&el.Expr)}
		}
		cp.Array = &a
	case ast.ExprObject:
		o := *e.Object
		o.Properties = make([]ast.ObjectProperty, len(e.Object.Properties))
		copy(o.Properties, e.Object.Properties)
		for i, p := range e.Object.Properties {
			o.Properties[i].Value = deepCopyExpr(&p.Value)
			o.Properties[i].Computed = copyExprPtr(p.Computed)
		}
		cp.Object = &o
	case ast.ExprSpread:
		cp.Spread = copyExprPtr(e.Spread)
	case ast.ExprPipe:
		p := *e.Pipe
		p.Value = deepCopyExpr(&e.Pipe.Value)
		p.Func = deepCopyExpr(&e.Pipe.Func)
		cp.Pipe = &p
	case ast.ExprNullCoalesce:
		c := *e.Coalesce
		c.Left = deepCopyExpr(&e.Coalesce.Left)
		c.Right = deepCopyExpr(&e.Coalesce.Right)
		cp.Coalesce = &c
	case ast.ExprUnary:
		u := *e.Unary
		u.Operand = deepCopyExpr(&e.Unary.Operand)
		cp.Unary = &u
	case ast.ExprBinary:
		b := *e.Binary
		b.Left = deepCopyExpr(&e.Binary.Left)
		b.Right = deepCopyExpr(&e.Binary.Right)
		cp.Binary = &b
	case ast.ExprBang:
		bg := *e.Bang
		bg.Try = deepCopyExpr(&e.Bang.Try)
		bg.Fallback = deepCopyExpr(&e.Bang.Fallback)
		cp.Bang = &bg
	case ast.ExprParenthesized:
		cp.Inner = copyExprPtr(e.Inner)
	case ast.ExprThrow:
		cp.Throw = copyExprPtr(e.Throw)
	}
	return cp
}

func copyExprPtr(e *ast.Expression) *ast.Expression {
	if e == nil {
		return nil
	}
	c := deepCopyExpr(e)
	return &c
}

func copyArgs(args []ast.Argument) []ast.Argument {
	out := make([]ast.Argument, len(args))
	for i, a := range args {
		out[i] = ast.Argument{Spread: a.Spread, Value: deepCopyExpr(&a.Value)}
	}
	return out
}
