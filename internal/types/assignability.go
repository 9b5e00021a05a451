// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package types

import "typedlua.dev/tlc/internal/ast"

// AssignableTo reports whether s ≲ t (spec §4.3 Assignability):
// reflexive; `never` is assignable to everything; everything is
// assignable to `unknown`; union-left by forall, union-right by
// exists; intersection dual; structural for object types (methods'
// parameters contravariant, return covariant); nominal for
// classes/interfaces (s is assignable to t iff t appears in s's
// supertype chain or implemented-interface set, with matching type
// arguments); tuples width-invariant and element-wise covariant;
// functions contravariant in parameters, covariant in return; `T?`
// widens `T`; literal types are subtypes of their primitive.
func AssignableTo(s, t Type) bool {
	if Equal(s, t) {
		return true
	}
	if s.Kind == KindNever {
		return true
	}
	if t.Kind == KindUnknown {
		return true
	}
	if s.Kind == KindUnknown || t.Kind == KindNever {
		return false
	}

	// Union-left: every member of s must be assignable to t.
	if s.Kind == KindUnion {
		for _, m := range s.Members {
			if !AssignableTo(m, t) {
				return false
			}
		}
		return true
	}
	// Union-right: s assignable to at least one member of t.
	if t.Kind == KindUnion {
		for _, m := range t.Members {
			if AssignableTo(s, m) {
				return true
			}
		}
		return false
	}
	// Intersection-left: s assignable to t iff s is assignable to some
	// member (an intersection value satisfies any one of its facets).
	if s.Kind == KindIntersection {
		for _, m := range s.Members {
			if AssignableTo(m, t) {
				return true
			}
		}
		return false
	}
	// Intersection-right: s assignable to t iff s is assignable to every
	// member (a value must satisfy all facets to inhabit the
	// intersection).
	if t.Kind == KindIntersection {
		for _, m := range t.Members {
			if !AssignableTo(s, m) {
				return false
			}
		}
		return true
	}

	// Nullable widening: `T?` accepts both T and nil; a bare T is
	// assignable to `T?`, and `T?` is assignable to `U?` when T ≲ U.
	if t.Kind == KindNullable {
		if s.Kind == KindNullable {
			return AssignableTo(*s.Element, *t.Element)
		}
		if s.Kind == KindPrimitive && s.Primitive == ast.PrimNil {
			return true
		}
		return AssignableTo(s, *t.Element)
	}
	if s.Kind == KindNullable {
		// s admits nil, which t (non-nullable here) does not.
		return false
	}

	// Literal types are subtypes of their underlying primitive.
	if s.Kind == KindLiteral && t.Kind == KindPrimitive {
		return s.Literal.Primitive == t.Primitive
	}
	if s.Kind == KindLiteral && t.Kind == KindLiteral {
		return literalEqual(s.Literal, t.Literal)
	}

	switch t.Kind {
	case KindPrimitive:
		return s.Kind == KindPrimitive && s.Primitive == t.Primitive
	case KindArray:
		return s.Kind == KindArray && AssignableTo(*s.Element, *t.Element)
	case KindTuple:
		return s.Kind == KindTuple && tupleAssignable(s.Tuple, t.Tuple)
	case KindObject:
		return objectAssignable(s, t.Object)
	case KindFunction:
		return s.Kind == KindFunction && functionAssignable(s.Function, t.Function)
	case KindClass:
		return classAssignable(s, t.Class)
	case KindInterface:
		return interfaceAssignable(s, t.Interface)
	case KindTypeParam:
		return s.Kind == KindTypeParam && s.TypeParam.Decl == t.TypeParam.Decl
	case KindVoid:
		return s.Kind == KindVoid
	default:
		return false
	}
}

func tupleAssignable(s, t []Type) bool {
	if len(s) != len(t) {
		return false
	}
	for i := range s {
		if !AssignableTo(s[i], t[i]) {
			return false
		}
	}
	return true
}

// objectAssignable checks s against a structural object type t:
// classes, interfaces, and other object types can all satisfy a
// structural target as long as every member of t has a matching,
// assignable member in s, and any index signature of t is satisfied by
// every concrete property of s (spec §4.3 "Index signatures require
// each concrete property of the subject to be assignable to the
// signature's value type").
func objectAssignable(s Type, t *ObjectType) bool {
	members, index := structuralView(s)
	byName := make(map[string]ObjectMember, len(members))
	for _, m := range members {
		byName[m.Name] = m
	}
	for _, want := range t.Members {
		got, ok := byName[want.Name]
		if !ok {
			if want.Optional {
				continue
			}
			return false
		}
		if want.IsMethod || got.IsMethod {
			if !methodAssignable(got.Type, want.Type) {
				return false
			}
			continue
		}
		if !AssignableTo(got.Type, want.Type) {
			return false
		}
		if !want.Readonly && got.Readonly {
			// A readonly source member cannot satisfy a mutable target
			// member, since the target contract implies write access.
			return false
		}
	}
	if t.Index != nil {
		for _, m := range members {
			if !AssignableTo(m.Type, t.Index.ValueType) {
				return false
			}
		}
		if index != nil && !AssignableTo(index.ValueType, t.Index.ValueType) {
			return false
		}
	}
	return true
}

// methodAssignable applies method-position variance: contravariant in
// parameters, covariant in return, matching functionAssignable.
func methodAssignable(got, want Type) bool {
	if got.Kind != KindFunction || want.Kind != KindFunction {
		return AssignableTo(got, want)
	}
	return functionAssignable(got.Function, want.Function)
}

// structuralView extracts the (members, index signature) pair used to
// check an arbitrary Type against a structural object target: object
// types trivially, and classes/interfaces via their declared
// fields/methods/properties so a class can satisfy a structural
// interface-shaped type without explicitly implementing it (duck
// typing, spec §4.3 "structural for object types").
func structuralView(t Type) ([]ObjectMember, *IndexSignature) {
	switch t.Kind {
	case KindObject:
		return t.Object.Members, t.Object.Index
	case KindClass:
		return classMembers(t.Class), nil
	case KindInterface:
		return interfaceMembers(t.Interface), nil
	default:
		return nil, nil
	}
}

func classMembers(c *ClassType) []ObjectMember {
	var out []ObjectMember
	for cur := c; cur != nil; cur = cur.Extends {
		for _, f := range cur.Fields {
			if f.Visibility == VisPublic {
				out = append(out, ObjectMember{Name: f.Name, Type: f.Type, Readonly: f.Readonly})
			}
		}
		for _, m := range cur.Methods {
			if m.Visibility == VisPublic {
				out = append(out, ObjectMember{Name: m.Name, Type: m.Type, IsMethod: true})
			}
		}
	}
	return out
}

func interfaceMembers(i *InterfaceType) []ObjectMember {
	out := append([]ObjectMember(nil), i.Properties...)
	for _, m := range i.Methods {
		out = append(out, ObjectMember{Name: m.Name, Type: m.Type, IsMethod: true})
	}
	for _, parent := range i.Extends {
		out = append(out, interfaceMembers(parent)...)
	}
	return out
}

// functionAssignable implements contravariance in parameters and
// covariance in return: s is assignable to t when every parameter of t
// is assignable to the corresponding parameter of s (callers of t may
// pass anything t accepts; s must accept at least that), and s's
// return is assignable to t's return.
func functionAssignable(s, t *FunctionType) bool {
	if !AssignableTo(s.Return, t.Return) {
		return false
	}
	sp, tp := s.Params, t.Params
	for i := 0; i < len(tp); i++ {
		if i >= len(sp) {
			// t supplies more arguments than s declares: only fine if the
			// corresponding s parameter would have been a trailing rest.
			if len(sp) > 0 && sp[len(sp)-1].Rest {
				if !AssignableTo(tp[i].Type, sp[len(sp)-1].Type) {
					return false
				}
				continue
			}
			return false
		}
		if !AssignableTo(tp[i].Type, sp[i].Type) {
			return false
		}
	}
	return true
}

// classAssignable reports whether s is nominally t or a descendant of
// t: t must appear in s's own supertype chain (spec §4.3: "subtype iff
// target appears in the supertype chain or implemented interfaces,
// with matching type arguments").
func classAssignable(s Type, t *ClassType) bool {
	if s.Kind != KindClass {
		return false
	}
	for cur := s.Class; cur != nil; cur = cur.Extends {
		if cur.Name == t.Name && typeSliceEqual(cur.TypeArgs, t.TypeArgs) {
			return true
		}
	}
	return false
}

func interfaceAssignable(s Type, t *InterfaceType) bool {
	switch s.Kind {
	case KindInterface:
		return interfaceImplements(s.Interface, t)
	case KindClass:
		for _, iface := range s.Class.Implements {
			if interfaceImplements(iface, t) {
				return true
			}
		}
		if s.Class.Extends != nil {
			return interfaceAssignable(Type{Kind: KindClass, Class: s.Class.Extends}, t)
		}
		// A class with no declared `implements` can still structurally
		// satisfy an interface (duck typing).
		return objectAssignable(s, &ObjectType{Members: interfaceMembers(t)})
	default:
		return objectAssignable(s, &ObjectType{Members: interfaceMembers(t)})
	}
}

func interfaceImplements(i, t *InterfaceType) bool {
	if i.Name == t.Name && typeSliceEqual(i.TypeArgs, t.TypeArgs) {
		return true
	}
	for _, parent := range i.Extends {
		if interfaceImplements(parent, t) {
			return true
		}
	}
	return false
}
