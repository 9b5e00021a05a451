// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package check

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/symtab"
	"typedlua.dev/tlc/internal/types"
)

// checkStmt type-checks one statement, declaring any bindings it
// introduces into the current scope.
func (c *Checker) checkStmt(env *typeEnv, s *ast.Statement) {
	c.checkStmtNarrowed(env, nil, s)
}

func (c *Checker) checkStmtNarrowed(env *typeEnv, nc *NarrowingContext, s *ast.Statement) {
	switch s.Kind {
	case ast.StmtBlock:
		c.checkBlock(env, nc, s.Block)
	case ast.StmtVarDecl:
		c.checkVarDecl(env, nc, s.VarDecl)
	case ast.StmtAssign:
		c.checkAssign(env, nc, s.Assign)
	case ast.StmtIf:
		c.checkIf(env, nc, s.If)
	case ast.StmtWhile:
		c.checkWhile(env, nc, s.While)
	case ast.StmtForNumeric:
		c.checkForNumeric(env, nc, s.ForNumeric)
	case ast.StmtForGeneric:
		c.checkForGeneric(env, nc, s.ForGeneric)
	case ast.StmtReturn:
		for i := range s.Return.Values {
			c.inferExpr(env, nc, &s.Return.Values[i])
		}
	case ast.StmtFunctionDecl:
		c.checkFunctionDecl(env, s.Function)
	case ast.StmtClassDecl:
		c.checkClassDecl(env, s.Class)
	case ast.StmtInterfaceDecl:
		// Shell already resolved in resolveShells; nothing further to
		// check. Default method bodies are not checked here, and class
		// conformance does not consult them (see
		// checkInterfaceConformance).
	case ast.StmtEnumDecl, ast.StmtTypeAlias:
		// Shells fully resolved in resolveShells.
	case ast.StmtImport, ast.StmtExport:
		c.checkImportExport(env, s)
	case ast.StmtThrow:
		c.inferExpr(env, nc, s.Throw)
	case ast.StmtTry:
		c.checkTry(env, nc, s.Try)
	case ast.StmtExpr:
		c.inferExpr(env, nc, s.Expr)
	}
}

func (c *Checker) checkBlock(env *typeEnv, nc *NarrowingContext, b *ast.Block) {
	c.symbols.OpenScope()
	defer c.symbols.CloseScope()
	for i := range b.Statements {
		c.checkStmtNarrowed(env, nc, &b.Statements[i])
	}
}

func (c *Checker) checkVarDecl(env *typeEnv, nc *NarrowingContext, d *ast.VarDecl) {
	var declared types.Type
	if d.Type != nil {
		declared = c.resolveType(env, *d.Type)
	}
	var valueType types.Type = types.Unknown
	if d.Value != nil {
		valueType = c.inferExpr(env, nc, d.Value)
	}
	if d.Type == nil {
		declared = valueType
	} else if d.Value != nil && !types.AssignableTo(valueType, declared) {
		c.errorf(d.Span, diag.TypeKind, "cannot assign %s to declared type %s", valueType.String(), declared.String())
	}
	if d.Name != nil {
		if _, dup := c.symbols.LookupLocal(d.Name.Name); dup {
			c.errorf(d.Span, diag.Resolution, "%q is already declared in this scope", c.text(d.Name.Name))
		}
		c.symbols.Declare(symtab.Symbol{
			NameID: d.Name.Name, Kind: symtab.KindValue, DeclaredType: declared,
			Span: d.Span, Mutable: d.VarKind == ast.VarLocal,
		})
	} else if d.Pattern != nil {
		c.bindPattern(d.Pattern, declared)
	}
}

func (c *Checker) checkAssign(env *typeEnv, nc *NarrowingContext, a *ast.AssignStmt) {
	for i, target := range a.Targets {
		targetType := c.inferExpr(env, nc, &target)
		if target.Kind == ast.ExprIdentifier {
			ref, ok := c.symbols.Lookup(target.Ident.Name)
			if ok && !c.symbols.At(ref).Mutable {
				c.errorf(target.Span, diag.TypeKind, "cannot assign to %q: declared const", c.text(target.Ident.Name))
			}
		}
		if i < len(a.Values) {
			valueType := c.inferExpr(env, nc, &a.Values[i])
			if a.Op == ast.AssignPlain && !types.AssignableTo(valueType, targetType) {
				c.errorf(a.Span, diag.TypeKind, "cannot assign %s to %s", valueType.String(), targetType.String())
			}
		}
	}
}

func (c *Checker) checkIf(env *typeEnv, nc *NarrowingContext, s *ast.IfStmt) {
	c.inferExpr(env, nc, &s.Condition)
	whenTrue, whenFalse := c.narrowBranches(env, nc, &s.Condition)
	c.checkBlock(env, whenTrue, &s.Then)
	for _, ei := range s.ElseIfs {
		c.inferExpr(env, whenFalse, &ei.Condition)
		innerTrue, innerFalse := c.narrowBranches(env, whenFalse, &ei.Condition)
		c.checkBlock(env, innerTrue, &ei.Block)
		whenFalse = innerFalse
	}
	if s.Else != nil {
		c.checkBlock(env, whenFalse, s.Else)
	}
}

func (c *Checker) checkWhile(env *typeEnv, nc *NarrowingContext, s *ast.WhileStmt) {
	c.inferExpr(env, nc, &s.Condition)
	whenTrue, _ := c.narrowBranches(env, nc, &s.Condition)
	c.checkBlock(env, whenTrue, &s.Body)
}

func (c *Checker) checkForNumeric(env *typeEnv, nc *NarrowingContext, s *ast.ForNumericStmt) {
	c.inferExpr(env, nc, &s.Start)
	c.inferExpr(env, nc, &s.Stop)
	if s.Step != nil {
		c.inferExpr(env, nc, s.Step)
	}
	c.symbols.OpenScope()
	c.declareValue(s.Var.Name, types.Primitive(ast.PrimNumber), s.Var.Span)
	c.checkBlock(env, nc, &s.Body)
	c.symbols.CloseScope()
}

func (c *Checker) checkForGeneric(env *typeEnv, nc *NarrowingContext, s *ast.ForGenericStmt) {
	for i := range s.Iter {
		c.inferExpr(env, nc, &s.Iter[i])
	}
	c.symbols.OpenScope()
	for _, v := range s.Vars {
		c.declareValue(v.Name, types.Unknown, v.Span)
	}
	c.checkBlock(env, nc, &s.Body)
	c.symbols.CloseScope()
}

func (c *Checker) checkFunctionDecl(env *typeEnv, d *ast.FunctionDecl) {
	inner := c.childEnv(env, d.TypeParams)
	c.symbols.OpenScope()
	defer c.symbols.CloseScope()
	for _, p := range d.Params {
		c.declareValue(p.Name.Name, c.resolveType(inner, p.Type), p.Span)
	}
	c.checkFunctionBody(inner, &d.Body)
}

func (c *Checker) checkClassDecl(env *typeEnv, d *ast.ClassDecl) {
	class := c.classes[d.Name.Name]
	prevSelf := c.selfClass
	c.selfClass = class
	defer func() { c.selfClass = prevSelf }()

	inner := c.childEnv(env, d.TypeParams)
	for _, f := range d.Fields {
		if f.Default != nil {
			fieldType := c.resolveType(inner, f.Type)
			valueType := c.inferExpr(inner, nil, f.Default)
			if !types.AssignableTo(valueType, fieldType) {
				c.errorf(f.Span, diag.TypeKind, "field %q default value %s is not assignable to %s", c.text(f.Name.Name), valueType.String(), fieldType.String())
			}
		}
	}
	for _, m := range d.Methods {
		c.checkMethodBody(inner, d, m)
	}
	c.checkInterfaceConformance(d, class)
}

func (c *Checker) checkMethodBody(env *typeEnv, d *ast.ClassDecl, m ast.ClassMethodDecl) {
	methodEnv := c.childEnv(env, m.TypeParams)
	c.symbols.OpenScope()
	defer c.symbols.CloseScope()
	c.declareValue(c.common.Self, types.Type{Kind: types.KindClass, Class: c.classes[d.Name.Name]}, m.Span)
	for _, p := range m.Params {
		c.declareValue(p.Name.Name, c.resolveType(methodEnv, p.Type), p.Span)
	}
	c.checkFunctionBody(methodEnv, &m.Body)
}

// checkInterfaceConformance verifies every method/property an
// implemented interface declares is present on class, reporting a
// missing-member error. An interface method's default body is not
// consulted: a class that does not declare a method the interface gives
// a default for is reported like any other missing method.
func (c *Checker) checkInterfaceConformance(d *ast.ClassDecl, class *types.ClassType) {
	for _, iface := range class.Implements {
		for _, prop := range iface.Properties {
			if _, ok := c.lookupMember(types.Type{Kind: types.KindClass, Class: class}, prop.Name); !ok {
				c.errorf(d.Span, diag.TypeKind, "class %q does not implement property %q of interface %q", class.Name, prop.Name, iface.Name)
			}
		}
		for _, m := range iface.Methods {
			if _, ok := c.lookupMember(types.Type{Kind: types.KindClass, Class: class}, m.Name); !ok {
				c.errorf(d.Span, diag.TypeKind, "class %q does not implement method %q of interface %q", class.Name, m.Name, iface.Name)
			}
		}
	}
}

func (c *Checker) checkImportExport(env *typeEnv, s *ast.Statement) {
	switch s.Kind {
	case ast.StmtImport:
		for _, spec := range s.Import.Specifiers {
			name := spec.Name.Name
			if spec.Alias != nil {
				name = spec.Alias.Name
			}
			c.symbols.Declare(symtab.Symbol{NameID: name, Kind: symtab.KindValue, DeclaredType: types.Unknown, Span: s.Span})
		}
		if s.Import.Namespace != nil {
			c.symbols.Declare(symtab.Symbol{NameID: s.Import.Namespace.Name, Kind: symtab.KindValue, DeclaredType: types.Unknown, Span: s.Span})
		}
	case ast.StmtExport:
		if s.Export.Decl != nil {
			c.checkStmt(env, s.Export.Decl)
		}
	}
}

func (c *Checker) checkTry(env *typeEnv, nc *NarrowingContext, t *ast.TryStmt) {
	c.checkBlock(env, nc, &t.Body)
	for _, catch := range t.Catches {
		c.symbols.OpenScope()
		if catch.Binding != nil {
			bindingType := types.Unknown
			if catch.Type != nil {
				bindingType = c.resolveType(env, *catch.Type)
			}
			c.declareValue(catch.Binding.Name, bindingType, catch.Body.Span)
		}
		for i := range catch.Body.Statements {
			c.checkStmtNarrowed(env, nc, &catch.Body.Statements[i])
		}
		c.symbols.CloseScope()
	}
	if t.Finally != nil {
		c.checkBlock(env, nc, t.Finally)
	}
}
