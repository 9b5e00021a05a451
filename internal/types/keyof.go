// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package types

import "typedlua.dev/tlc/internal/ast"

// KeyOf returns `keyof T`: the union of string-literal types naming
// T's own members, plus T's index signature key primitive if any.
func KeyOf(t Type) Type {
	members, index := structuralView(t)
	var keys []Type
	for _, m := range members {
		keys = append(keys, Type{Kind: KindLiteral, Literal: &LiteralType{Primitive: ast.PrimString, Str: m.Name}})
	}
	if index != nil {
		keys = append(keys, Primitive(index.KeyPrimitive))
	}
	return Union(keys...)
}

// IndexedAccess returns `T[K]`: the type of the member(s) of T named
// by the (possibly union) key type K. A key not resolvable against any
// member of T yields `never`, matching an out-of-range tuple index or
// an unknown property name.
func IndexedAccess(t, key Type) Type {
	if key.Kind == KindUnion {
		var parts []Type
		for _, m := range key.Members {
			parts = append(parts, IndexedAccess(t, m))
		}
		return Union(parts...)
	}
	if t.Kind == KindTuple && key.Kind == KindLiteral && key.Literal.Primitive == ast.PrimInteger {
		i := int(key.Literal.Int)
		if i < 0 || i >= len(t.Tuple) {
			return Never
		}
		return t.Tuple[i]
	}
	if t.Kind == KindArray {
		if key.Kind == KindPrimitive && (key.Primitive == ast.PrimInteger || key.Primitive == ast.PrimNumber) {
			return *t.Element
		}
	}
	if key.Kind == KindLiteral && key.Literal.Primitive == ast.PrimString {
		members, index := structuralView(t)
		for _, m := range members {
			if m.Name == key.Literal.Str {
				return m.Type
			}
		}
		if index != nil && index.KeyPrimitive == ast.PrimString {
			return index.ValueType
		}
		return Never
	}
	if t.Kind == KindObject && t.Object.Index != nil {
		return t.Object.Index.ValueType
	}
	return Never
}
