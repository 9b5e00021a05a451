// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"strings"

	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/interner"
)

// GenericSpecialization tags a call to a generic top-level function
// with a monomorphization key when every argument at the call site is
// a literal, so codegen can emit (and call) a copy of the function
// specialized to those concrete kinds instead of the generic body
// (spec §4.6 generic-specialization pass, gated at O3). Call sites
// whose arguments aren't literals are left calling the generic
// definition: ast.CallExpr carries no explicit type-argument list, so
// a literal argument's kind is the only specialization signal
// available without a full type-flow analysis.
func GenericSpecialization(ctx *Context, prog *ast.Program) bool {
	generics := collectGenericFunctions(prog.Statements)
	if len(generics) == 0 {
		return false
	}
	changed := false
	rewriteStatements(prog.Statements, func(e *ast.Expression) bool {
		if e.Kind != ast.ExprCall || e.Call.Callee.Kind != ast.ExprIdentifier {
			return false
		}
		fn, ok := generics[e.Call.Callee.Ident.Name]
		if !ok || len(e.Call.Args) != len(fn.Params) {
			return false
		}
		tags := make([]string, len(e.Call.Args))
		for i, a := range e.Call.Args {
			if a.Spread || a.Value.Kind != ast.ExprLiteral {
				return false
			}
			tags[i] = literalKindTag(a.Value.Literal)
		}
		tag := strings.Join(tags, "_")
		if prev, ok := ctx.Specialized[e.Span]; ok && prev == tag {
			return false
		}
		ctx.Specialized[e.Span] = tag
		changed = true
		return false
	})
	return changed
}

func collectGenericFunctions(stmts []ast.Statement) map[interner.ID]*ast.FunctionDecl {
	out := make(map[interner.ID]*ast.FunctionDecl)
	for i := range stmts {
		s := &stmts[i]
		decl := s
		if s.Kind == ast.StmtExport && s.Export.Decl != nil {
			decl = s.Export.Decl
		}
		if decl.Kind != ast.StmtFunctionDecl || len(decl.Function.TypeParams) == 0 {
			continue
		}
		out[decl.Function.Name.Name] = decl.Function
	}
	return out
}

func literalKindTag(l *ast.Literal) string {
	switch l.Kind {
	case ast.LitNil:
		return "nil"
	case ast.LitBoolean:
		return "bool"
	case ast.LitNumber:
		return "num"
	case ast.LitInteger:
		return "int"
	case ast.LitString:
		return "str"
	}
	return "any"
}
