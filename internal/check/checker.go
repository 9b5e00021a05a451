// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package check implements the type checker (spec §4.3): a two-pass
// scan over a parsed module — forward-declaring every top-level name as
// an empty shell so mutually recursive classes, interfaces, and type
// aliases resolve regardless of declaration order, then resolving each
// shell's members and checking every statement and expression body —
// plus flow-sensitive narrowing, generics instantiation, and access
// control. Diagnostics accumulate in a shared [diag.Handler] rather than
// aborting the walk, mirroring the rest of the pipeline (spec §7).
package check

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/span"
	"typedlua.dev/tlc/internal/symtab"
	"typedlua.dev/tlc/internal/types"
)

// typeAlias is a declared `type Name<T> = ...` binding: its resolved
// right-hand side plus the type parameters a reference may substitute.
type typeAlias struct {
	params   []types.TypeParamDecl
	resolved types.Type
}

// Checker holds the state needed to check one module. A Checker is not
// safe for concurrent use by multiple goroutines; the build coordinator
// (internal/build) gives each worker its own Checker sharing only the
// read-mostly Interner and the synchronized diag.Handler (spec §5).
type Checker struct {
	interner *interner.Interner
	common   interner.Common
	diags    *diag.Handler
	file     diag.File
	symbols  *symtab.SymbolTable

	classes    map[interner.ID]*types.ClassType
	interfaces map[interner.ID]*types.InterfaceType
	aliases    map[interner.ID]*typeAlias
	enums      map[interner.ID]types.Type

	// declSpans records the span of each top-level declaration for
	// nicer "declared here" diagnostics; keyed by the same ID used in
	// classes/interfaces/aliases/enums.
	declSpans map[interner.ID]span.Span

	// selfClass is the enclosing class while checking a method body, so
	// member-access checks can grant private/protected visibility to
	// `self.*` and to subclass methods (spec §4.3 Access control).
	selfClass *types.ClassType
}

// New returns a Checker for a single module's source, reporting
// diagnostics attributed to file against diags.
func New(in *interner.Interner, common interner.Common, diags *diag.Handler, file diag.File) *Checker {
	return &Checker{
		interner:   in,
		common:     common,
		diags:      diags,
		file:       file,
		symbols:    symtab.New(),
		classes:    make(map[interner.ID]*types.ClassType),
		interfaces: make(map[interner.ID]*types.InterfaceType),
		aliases:    make(map[interner.ID]*typeAlias),
		enums:      make(map[interner.ID]types.Type),
		declSpans:  make(map[interner.ID]span.Span),
	}
}

// Symbols returns the module's completed symbol table, for serialization
// into the incremental cache payload (spec §4.5).
func (c *Checker) Symbols() *symtab.SymbolTable { return c.symbols }

func (c *Checker) text(id interner.ID) string {
	return c.interner.MustLookup(id)
}

func (c *Checker) errorf(sp span.Span, kind diag.Kind, format string, args ...any) {
	c.diags.Reportf(diag.Error, kind, c.file, sp, format, args...)
}

func (c *Checker) warnf(sp span.Span, kind diag.Kind, format string, args ...any) {
	c.diags.Reportf(diag.Warning, kind, c.file, sp, format, args...)
}

// rootEnv is the typeEnv every top-level resolveType call starts from:
// no type parameters in scope yet.
func rootEnv() *typeEnv {
	return &typeEnv{typeParams: make(map[interner.ID]*types.TypeParamDecl)}
}

// CheckProgram type-checks an entire parsed module in place, forward
// declaring every top-level class/interface/enum/type alias before
// resolving bodies so mutually recursive declarations see each other
// regardless of source order (spec §4.3: "forward scan with a lazy
// resolution queue").
func (c *Checker) CheckProgram(prog *ast.Program) {
	c.symbols.OpenScope()
	defer c.symbols.CloseScope()

	c.forwardDeclare(prog.Statements)
	c.resolveShells(prog.Statements)
	for i := range prog.Statements {
		c.checkStmt(rootEnv(), &prog.Statements[i])
	}
}

// forwardDeclare registers an empty shell for every class, interface,
// enum, and type alias declared at this level, and a symtab entry for
// every top-level binding, before any member type is resolved.
func (c *Checker) forwardDeclare(stmts []ast.Statement) {
	for i := range stmts {
		c.forwardDeclareOne(&stmts[i])
	}
}

func (c *Checker) forwardDeclareOne(s *ast.Statement) {
	{
		switch s.Kind {
		case ast.StmtClassDecl:
			d := s.Class
			c.classes[d.Name.Name] = &types.ClassType{Name: c.text(d.Name.Name)}
			c.declSpans[d.Name.Name] = d.Span
			c.symbols.Declare(symtab.Symbol{NameID: d.Name.Name, Kind: symtab.KindClass, Span: d.Span})
		case ast.StmtInterfaceDecl:
			d := s.Interface
			c.interfaces[d.Name.Name] = &types.InterfaceType{Name: c.text(d.Name.Name)}
			c.declSpans[d.Name.Name] = d.Span
			c.symbols.Declare(symtab.Symbol{NameID: d.Name.Name, Kind: symtab.KindInterface, Span: d.Span})
		case ast.StmtEnumDecl:
			d := s.Enum
			c.declSpans[d.Name.Name] = d.Span
			c.symbols.Declare(symtab.Symbol{NameID: d.Name.Name, Kind: symtab.KindEnum, Span: d.Span})
		case ast.StmtTypeAlias:
			d := s.TypeAlias
			c.aliases[d.Name.Name] = &typeAlias{}
			c.declSpans[d.Name.Name] = d.Span
			c.symbols.Declare(symtab.Symbol{NameID: d.Name.Name, Kind: symtab.KindTypeAlias, Span: d.Span})
		case ast.StmtFunctionDecl:
			d := s.Function
			c.symbols.Declare(symtab.Symbol{NameID: d.Name.Name, Kind: symtab.KindFunction, Span: d.Span})
		case ast.StmtExport:
			if s.Export.Decl != nil {
				c.forwardDeclareOne(s.Export.Decl)
			}
		}
	}
}

// resolveShells fills in the member types of every shell forwardDeclare
// registered, now that every name is visible for mutual reference.
func (c *Checker) resolveShells(stmts []ast.Statement) {
	for i := range stmts {
		s := &stmts[i]
		target := s
		if s.Kind == ast.StmtExport && s.Export.Decl != nil {
			target = s.Export.Decl
		}
		// Enums and aliases resolve first: a class or interface shell
		// may reference an enum or alias declared later in the file,
		// but spec §4.3 does not require enums/aliases to see each
		// other's order either, so a single pass over them suffices.
		switch target.Kind {
		case ast.StmtEnumDecl:
			c.enums[target.Enum.Name.Name] = c.resolveEnumShell(target.Enum)
		case ast.StmtTypeAlias:
			c.resolveAliasShell(target.TypeAlias)
		}
	}
	for i := range stmts {
		s := &stmts[i]
		target := s
		if s.Kind == ast.StmtExport && s.Export.Decl != nil {
			target = s.Export.Decl
		}
		switch target.Kind {
		case ast.StmtClassDecl:
			c.resolveClassShell(target.Class)
		case ast.StmtInterfaceDecl:
			c.resolveInterfaceShell(target.Interface)
		case ast.StmtFunctionDecl:
			c.resolveFunctionShell(target.Function)
		}
	}
}

// resolveFunctionShell computes a top-level function declaration's
// signature type (independent of its body, which checkStmt checks
// later) and records it on the symbol forwardDeclare already reserved,
// so a sibling function declared earlier in the file can call one
// declared later, and so a function can call itself recursively.
func (c *Checker) resolveFunctionShell(d *ast.FunctionDecl) {
	ref, ok := c.symbols.Lookup(d.Name.Name)
	if !ok {
		return
	}
	env := c.childEnv(rootEnv(), d.TypeParams)
	params := make([]types.Param, len(d.Params))
	for i, p := range d.Params {
		params[i] = types.Param{Name: c.text(p.Name.Name), Type: c.resolveType(env, p.Type), Optional: p.Optional, Rest: p.Rest}
	}
	ret := types.Unknown
	if d.ReturnType != nil {
		ret = c.resolveType(env, *d.ReturnType)
	}
	fnType := types.Type{Kind: types.KindFunction, Function: &types.FunctionType{
		TypeParams: c.resolveTypeParams(env, d.TypeParams), Params: params, Return: ret,
	}}
	c.symbols.SetType(ref, fnType)
}

func (c *Checker) resolveClassShell(d *ast.ClassDecl) {
	class := c.classes[d.Name.Name]
	env := c.childEnv(rootEnv(), d.TypeParams)
	class.TypeParams = c.resolveTypeParams(env, d.TypeParams)
	if d.Extends != nil {
		parentType := c.resolveTypeReference(env, d.Extends)
		if parentType.Kind == types.KindClass {
			class.Extends = parentType.Class
		} else {
			c.errorf(d.Extends.Span, diag.Resolution, "%q does not extend a class", c.text(d.Extends.Name.Name))
		}
	}
	for _, impl := range d.Implements {
		implType := c.resolveTypeReference(env, &impl)
		if implType.Kind == types.KindInterface {
			class.Implements = append(class.Implements, implType.Interface)
		} else {
			c.errorf(impl.Span, diag.Resolution, "%q is not an interface", c.text(impl.Name.Name))
		}
	}
	for _, f := range d.Fields {
		class.Fields = append(class.Fields, types.ClassMember{
			Name:       c.text(f.Name.Name),
			Type:       c.resolveType(env, f.Type),
			Visibility: convertVisibility(f.Visibility),
			Static:     f.Static,
			Readonly:   f.Readonly,
		})
	}
	for _, m := range d.Methods {
		inner := c.childEnv(env, m.TypeParams)
		params := make([]types.Param, len(m.Params))
		for i, p := range m.Params {
			params[i] = types.Param{Name: c.text(p.Name.Name), Type: c.resolveType(inner, p.Type), Optional: p.Optional, Rest: p.Rest}
		}
		ret := types.Void
		if m.ReturnType != nil {
			ret = c.resolveType(inner, *m.ReturnType)
		}
		class.Methods = append(class.Methods, types.ClassMember{
			Name:       c.text(m.Name.Name),
			Type:       types.Type{Kind: types.KindFunction, Function: &types.FunctionType{TypeParams: c.resolveTypeParams(inner, m.TypeParams), Params: params, Return: ret}},
			Visibility: convertVisibility(m.Visibility),
			Static:     m.Static,
			IsMethod:   true,
		})
	}
}

func (c *Checker) resolveInterfaceShell(d *ast.InterfaceDecl) {
	iface := c.interfaces[d.Name.Name]
	env := c.childEnv(rootEnv(), d.TypeParams)
	iface.TypeParams = c.resolveTypeParams(env, d.TypeParams)
	for _, ext := range d.Extends {
		extType := c.resolveTypeReference(env, &ext)
		if extType.Kind == types.KindInterface {
			iface.Extends = append(iface.Extends, extType.Interface)
		} else {
			c.errorf(ext.Span, diag.Resolution, "%q is not an interface", c.text(ext.Name.Name))
		}
	}
	for _, p := range d.Properties {
		iface.Properties = append(iface.Properties, types.ObjectMember{
			Name: c.text(p.Name.Name), Type: c.resolveType(env, p.Type), Optional: p.Optional, Readonly: p.Readonly,
		})
	}
	for _, m := range d.Methods {
		params := make([]types.Param, len(m.Params))
		for i, p := range m.Params {
			params[i] = types.Param{Name: c.text(p.Name.Name), Type: c.resolveType(env, p.Type), Optional: p.Optional, Rest: p.Rest}
		}
		iface.Methods = append(iface.Methods, types.ClassMember{
			Name:     c.text(m.Name.Name),
			Type:     types.Type{Kind: types.KindFunction, Function: &types.FunctionType{Params: params, Return: c.resolveType(env, m.ReturnType)}},
			IsMethod: true,
		})
	}
}

// resolveEnumShell assigns each member a sequential integer value unless
// given an explicit one, then types the whole declaration as the union
// of its members' literal types (spec §4.3 supplemented enum semantics,
// SPEC_FULL.md §4).
func (c *Checker) resolveEnumShell(d *ast.EnumDecl) types.Type {
	members := make([]types.Type, 0, len(d.Members))
	next := int64(0)
	for _, m := range d.Members {
		val := next
		if m.Value != nil {
			if lit, ok := c.constantInt(m.Value); ok {
				val = lit
			}
		}
		members = append(members, types.Type{Kind: types.KindLiteral, Literal: &types.LiteralType{Primitive: ast.PrimInteger, Int: val}})
		next = val + 1
	}
	return types.Union(members...)
}

// constantInt evaluates e as a compile-time integer literal, the only
// form spec §4.3 requires enum initializers to support.
func (c *Checker) constantInt(e *ast.Expression) (int64, bool) {
	if e.Kind == ast.ExprLiteral && e.Literal.Kind == ast.LitInteger {
		return e.Literal.Int, true
	}
	return 0, false
}

func (c *Checker) resolveAliasShell(d *ast.TypeAliasDecl) {
	alias := c.aliases[d.Name.Name]
	env := c.childEnv(rootEnv(), d.TypeParams)
	alias.params = c.resolveTypeParams(env, d.TypeParams)
	alias.resolved = c.resolveType(env, d.Value)
}

// declareValue declares a plain value binding (let/const, function
// parameter, match-pattern binding) in the innermost open scope and
// returns its Ref.
func (c *Checker) declareValue(name interner.ID, typ types.Type, sp span.Span) symtab.Ref {
	return c.symbols.Declare(symtab.Symbol{NameID: name, Kind: symtab.KindValue, DeclaredType: typ, Span: sp, Mutable: true})
}

func convertVisibility(v ast.Visibility) types.Visibility {
	switch v {
	case ast.VisProtected:
		return types.VisProtected
	case ast.VisPrivate:
		return types.VisPrivate
	default:
		return types.VisPublic
	}
}
