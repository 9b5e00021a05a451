// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package check

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/types"
)

// typeEnv is the set of names a syntactic type reference may resolve
// against at a given point in the checker's pass: the type parameters
// currently in scope, plus the checker's own class/interface/alias
// registries.
type typeEnv struct {
	typeParams map[interner.ID]*types.TypeParamDecl
}

func (c *Checker) childEnv(env *typeEnv, decls []ast.TypeParameter) *typeEnv {
	child := &typeEnv{typeParams: make(map[interner.ID]*types.TypeParamDecl, len(decls))}
	for k, v := range env.typeParams {
		child.typeParams[k] = v
	}
	for i := range decls {
		child.typeParams[decls[i].Name.Name] = &types.TypeParamDecl{Name: c.text(decls[i].Name.Name)}
	}
	return child
}

// resolveTypeParams resolves each declaration's constraint/default once
// every name in decls is already registered in env (so a later type
// parameter's constraint may reference an earlier one, and a recursive
// bound resolves since the TypeParamDecl pointers are already live).
func (c *Checker) resolveTypeParams(env *typeEnv, decls []ast.TypeParameter) []types.TypeParamDecl {
	out := make([]types.TypeParamDecl, len(decls))
	for i, d := range decls {
		tp := env.typeParams[d.Name.Name]
		if d.Constraint != nil {
			constraint := c.resolveType(env, *d.Constraint)
			tp.Constraint = &constraint
		}
		if d.Default != nil {
			def := c.resolveType(env, *d.Default)
			tp.Default = &def
		}
		out[i] = *tp
	}
	return out
}

// resolveType converts a syntactic ast.Type into its resolved types.Type,
// looking up nominal references against the checker's declared
// classes/interfaces/aliases and env's in-scope type parameters (spec
// §4.3 Type system).
func (c *Checker) resolveType(env *typeEnv, t ast.Type) types.Type {
	switch t.Kind {
	case ast.TypePrimitive:
		return types.Primitive(t.Primitive)
	case ast.TypeNullable:
		return types.NullableOf(c.resolveType(env, *t.Element))
	case ast.TypeParenthesized:
		return c.resolveType(env, *t.Element)
	case ast.TypeArray:
		elem := c.resolveType(env, *t.Element)
		return types.Type{Kind: types.KindArray, Element: &elem}
	case ast.TypeTuple:
		members := make([]types.Type, len(t.Tuple))
		for i, m := range t.Tuple {
			members[i] = c.resolveType(env, m)
		}
		return types.Type{Kind: types.KindTuple, Tuple: members}
	case ast.TypeUnion:
		members := make([]types.Type, len(t.Union))
		for i, m := range t.Union {
			members[i] = c.resolveType(env, m)
		}
		return types.Union(members...)
	case ast.TypeIntersection:
		members := make([]types.Type, len(t.Intersection))
		for i, m := range t.Intersection {
			members[i] = c.resolveType(env, m)
		}
		return types.Intersection(members...)
	case ast.TypeLiteral:
		return resolveLiteralType(t.Literal)
	case ast.TypeFunction:
		return c.resolveFunctionType(env, t.Function)
	case ast.TypeObject:
		return c.resolveObjectType(env, t.Object)
	case ast.TypeRef:
		return c.resolveTypeReference(env, t.Reference)
	case ast.TypeKeyOf:
		return types.KeyOf(c.resolveType(env, *t.KeyOf))
	case ast.TypeIndexAccess:
		return types.IndexedAccess(c.resolveType(env, *t.IndexBase), c.resolveType(env, *t.IndexKey))
	case ast.TypeConditional:
		return types.EvalConditional(
			c.resolveType(env, *t.Conditional.Check),
			c.resolveType(env, *t.Conditional.Extends),
			c.resolveType(env, *t.Conditional.True),
			c.resolveType(env, *t.Conditional.False),
		)
	case ast.TypeMapped:
		return c.resolveMappedType(env, t.Mapped)
	case ast.TypeTemplateLiteral:
		return c.resolveTemplateLiteralType(env, t.Template)
	case ast.TypeQuery:
		return c.inferExpr(env, nil, &t.Query)
	default:
		return types.Unknown
	}
}

func resolveLiteralType(l *ast.Literal) types.Type {
	lt := &types.LiteralType{}
	switch l.Kind {
	case ast.LitBoolean:
		lt.Primitive, lt.Bool = ast.PrimBoolean, l.Bool
	case ast.LitNumber:
		lt.Primitive, lt.Num = ast.PrimNumber, l.Num
	case ast.LitInteger:
		lt.Primitive, lt.Int = ast.PrimInteger, l.Int
	case ast.LitString:
		lt.Primitive, lt.Str = ast.PrimString, l.Str
	default:
		return types.Nil
	}
	return types.Type{Kind: types.KindLiteral, Literal: lt}
}

func (c *Checker) resolveFunctionType(env *typeEnv, ft *ast.FunctionType) types.Type {
	inner := c.childEnv(env, ft.TypeParams)
	typeParams := c.resolveTypeParams(inner, ft.TypeParams)
	params := make([]types.Param, len(ft.Params))
	for i, p := range ft.Params {
		params[i] = types.Param{
			Name:     c.text(p.Name.Name),
			Type:     c.resolveType(inner, p.Type),
			Optional: p.Optional,
			Rest:     p.Rest,
		}
	}
	ret := c.resolveType(inner, ft.ReturnType)
	return types.Type{Kind: types.KindFunction, Function: &types.FunctionType{
		TypeParams: typeParams, Params: params, Return: ret,
	}}
}

func (c *Checker) resolveObjectType(env *typeEnv, ot *ast.ObjectType) types.Type {
	obj := &types.ObjectType{}
	for _, m := range ot.Members {
		switch m.Kind {
		case ast.MemberProperty:
			obj.Members = append(obj.Members, types.ObjectMember{
				Name:     c.text(m.Property.Name.Name),
				Type:     c.resolveType(env, m.Property.Type),
				Optional: m.Property.Optional,
				Readonly: m.Property.Readonly,
			})
		case ast.MemberMethod:
			obj.Members = append(obj.Members, types.ObjectMember{
				Name:     c.text(m.Method.Name.Name),
				Type:     c.resolveMethodSignature(env, m.Method),
				Optional: m.Method.Optional,
				IsMethod: true,
			})
		case ast.MemberIndex:
			keyPrim := ast.PrimString
			if m.Index.KeyType.Kind == ast.TypePrimitive {
				keyPrim = m.Index.KeyType.Primitive
			}
			obj.Index = &types.IndexSignature{
				KeyPrimitive: keyPrim,
				ValueType:    c.resolveType(env, m.Index.ValueType),
			}
		}
	}
	return types.Type{Kind: types.KindObject, Object: obj}
}

func (c *Checker) resolveMethodSignature(env *typeEnv, m *ast.MethodSignature) types.Type {
	params := make([]types.Param, len(m.Params))
	for i, p := range m.Params {
		params[i] = types.Param{Name: c.text(p.Name.Name), Type: c.resolveType(env, p.Type), Optional: p.Optional, Rest: p.Rest}
	}
	ret := c.resolveType(env, m.ReturnType)
	return types.Type{Kind: types.KindFunction, Function: &types.FunctionType{Params: params, Return: ret}}
}

// resolveTypeReference resolves a nominal reference against, in order,
// the in-scope type parameters, then the checker's declared classes,
// interfaces, and type aliases (spec §4.3: a type alias substitutes its
// declared type parameters with the reference's type arguments).
func (c *Checker) resolveTypeReference(env *typeEnv, ref *ast.TypeReference) types.Type {
	if tp, ok := env.typeParams[ref.Name.Name]; ok {
		return types.Type{Kind: types.KindTypeParam, TypeParam: &types.TypeParamRef{Decl: tp}}
	}
	args := make([]types.Type, len(ref.TypeArgs))
	for i, a := range ref.TypeArgs {
		args[i] = c.resolveType(env, a)
	}
	if class, ok := c.classes[ref.Name.Name]; ok {
		if len(args) == 0 {
			return types.Type{Kind: types.KindClass, Class: class}
		}
		inst := *class
		inst.TypeArgs = args
		return types.Type{Kind: types.KindClass, Class: &inst}
	}
	if iface, ok := c.interfaces[ref.Name.Name]; ok {
		if len(args) == 0 {
			return types.Type{Kind: types.KindInterface, Interface: iface}
		}
		inst := *iface
		inst.TypeArgs = args
		return types.Type{Kind: types.KindInterface, Interface: &inst}
	}
	if alias, ok := c.aliases[ref.Name.Name]; ok {
		if len(args) == 0 || len(alias.params) == 0 {
			return alias.resolved
		}
		return types.SubstituteAll(alias.resolved, alias.params, args)
	}
	if enumType, ok := c.enums[ref.Name.Name]; ok {
		return enumType
	}
	c.errorf(ref.Span, diag.Resolution, "unknown type %q", c.text(ref.Name.Name))
	return types.Unknown
}

func (c *Checker) resolveMappedType(env *typeEnv, m *ast.MappedType) types.Type {
	param := &types.TypeParamDecl{Name: c.text(m.Param.Name.Name)}
	inner := c.childEnv(env, nil)
	inner.typeParams[m.Param.Name.Name] = param
	keys := c.resolveType(inner, *m.InType)
	value := c.resolveType(inner, *m.ValueType)
	return types.EvalMapped(param, keys, value, m.Optional, m.Readonly)
}

func (c *Checker) resolveTemplateLiteralType(env *typeEnv, tpl *ast.TemplateLiteralType) types.Type {
	parts := make([]types.TemplatePart, len(tpl.Parts))
	for i, p := range tpl.Parts {
		if p.Kind == ast.TemplatePartString {
			parts[i] = types.TemplatePart{Str: p.Str}
		} else {
			t := c.resolveType(env, *p.Type)
			parts[i] = types.TemplatePart{Type: &t}
		}
	}
	result, err := types.EvalTemplateLiteral(parts)
	if err != nil {
		c.errorf(tpl.Span, diag.TypeKind, "%s", err)
		return types.Unknown
	}
	return result
}
