// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package types

import "typedlua.dev/tlc/internal/ast"

// Partial returns t with every member optional. Non-object types pass
// through unchanged, matching the teacher-neutral reading that utility
// types operating on shapes are no-ops outside their domain.
func Partial(t Type) Type {
	return mapObjectMembers(t, func(m ObjectMember) ObjectMember {
		m.Optional = true
		return m
	})
}

// Required returns t with every member's optionality cleared.
func Required(t Type) Type {
	return mapObjectMembers(t, func(m ObjectMember) ObjectMember {
		m.Optional = false
		return m
	})
}

// ReadonlyOf returns t with every member marked readonly.
func ReadonlyOf(t Type) Type {
	return mapObjectMembers(t, func(m ObjectMember) ObjectMember {
		m.Readonly = true
		return m
	})
}

func mapObjectMembers(t Type, f func(ObjectMember) ObjectMember) Type {
	members, _ := structuralView(t)
	if members == nil {
		return t
	}
	out := make([]ObjectMember, len(members))
	for i, m := range members {
		out[i] = f(m)
	}
	var index *IndexSignature
	if t.Kind == KindObject {
		index = t.Object.Index
	}
	return Type{Kind: KindObject, Object: &ObjectType{Members: out, Index: index}}
}

// Record builds `Record<K, V>`: an object type with an index signature
// keyed by K's primitive (string or number) and value type V.
func Record(key, value Type) Type {
	prim := ast.PrimString
	if key.Kind == KindPrimitive {
		prim = key.Primitive
	} else if key.Kind == KindLiteral {
		prim = key.Literal.Primitive
	}
	return Type{Kind: KindObject, Object: &ObjectType{
		Index: &IndexSignature{KeyPrimitive: prim, ValueType: value},
	}}
}

// stringLiteralKeys extracts the set of string-literal keys named by a
// union of string literal types (or a single one), for Pick/Omit.
func stringLiteralKeys(keys Type) map[string]bool {
	out := map[string]bool{}
	var collect func(Type)
	collect = func(t Type) {
		switch t.Kind {
		case KindUnion:
			for _, m := range t.Members {
				collect(m)
			}
		case KindLiteral:
			if t.Literal.Primitive == ast.PrimString {
				out[t.Literal.Str] = true
			}
		}
	}
	collect(keys)
	return out
}

// Pick returns `Pick<T, K>`: an object type containing only the
// members of T named by the string-literal union K.
func Pick(t, keys Type) Type {
	want := stringLiteralKeys(keys)
	members, _ := structuralView(t)
	var out []ObjectMember
	for _, m := range members {
		if want[m.Name] {
			out = append(out, m)
		}
	}
	return Type{Kind: KindObject, Object: &ObjectType{Members: out}}
}

// Omit returns `Omit<T, K>`: T with the members named by K removed.
func Omit(t, keys Type) Type {
	drop := stringLiteralKeys(keys)
	members, index := structuralView(t)
	var out []ObjectMember
	for _, m := range members {
		if !drop[m.Name] {
			out = append(out, m)
		}
	}
	return Type{Kind: KindObject, Object: &ObjectType{Members: out, Index: index}}
}

// Exclude returns `Exclude<U, E>`: the union members of U not
// assignable to E.
func Exclude(u, e Type) Type {
	members := unionMembers(u)
	var kept []Type
	for _, m := range members {
		if !AssignableTo(m, e) {
			kept = append(kept, m)
		}
	}
	return Union(kept...)
}

// Extract returns `Extract<U, E>`: the union members of U assignable
// to E.
func Extract(u, e Type) Type {
	members := unionMembers(u)
	var kept []Type
	for _, m := range members {
		if AssignableTo(m, e) {
			kept = append(kept, m)
		}
	}
	return Union(kept...)
}

func unionMembers(t Type) []Type {
	if t.Kind == KindUnion {
		return t.Members
	}
	return []Type{t}
}

// NonNilable returns `NonNilable<T>`: T with nil removed, unwrapping a
// KindNullable and dropping a bare `nil` member from a union.
func NonNilable(t Type) Type {
	if t.Kind == KindNullable {
		return *t.Element
	}
	if t.Kind == KindPrimitive && t.Primitive == ast.PrimNil {
		return Never
	}
	if t.Kind == KindUnion {
		var kept []Type
		for _, m := range t.Members {
			if !(m.Kind == KindPrimitive && m.Primitive == ast.PrimNil) {
				kept = append(kept, m)
			}
		}
		return Union(kept...)
	}
	return t
}

// Nilable returns `Nilable<T>`, equivalent to `T?`.
func Nilable(t Type) Type {
	return NullableOf(t)
}

// ReturnTypeOf returns `ReturnType<T>` for a function type T.
func ReturnTypeOf(t Type) Type {
	if t.Kind != KindFunction {
		return Unknown
	}
	return t.Function.Return
}

// ParametersOf returns `Parameters<T>` for a function type T, as a
// tuple of the parameter types in order.
func ParametersOf(t Type) Type {
	if t.Kind != KindFunction {
		return Type{Kind: KindTuple}
	}
	tuple := make([]Type, len(t.Function.Params))
	for i, p := range t.Function.Params {
		tuple[i] = p.Type
	}
	return Type{Kind: KindTuple, Tuple: tuple}
}
