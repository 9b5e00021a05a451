// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package types

import "typedlua.dev/tlc/internal/ast"

// EvalMapped evaluates `{ [P in K]: V }` (optionally `readonly` and/or
// with a `?` modifier) given the resolved key union K: for every
// string-literal member of K, V is evaluated with P substituted by
// that literal's key, producing one member of the resulting object
// type.
func EvalMapped(param *TypeParamDecl, inType, valueType Type, optional, readonly bool) Type {
	keys := unionMembers(inType)
	var members []ObjectMember
	for _, k := range keys {
		if k.Kind != KindLiteral || k.Literal.Primitive != ast.PrimString {
			continue
		}
		v := Substitute(valueType, param, k)
		members = append(members, ObjectMember{
			Name: k.Literal.Str, Type: v, Optional: optional, Readonly: readonly,
		})
	}
	return Type{Kind: KindObject, Object: &ObjectType{Members: members}}
}
