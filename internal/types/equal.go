// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package types

import "typedlua.dev/tlc/internal/ast"

// Equal reports whether a and b denote the same type. It is structural
// for structural kinds and identity-based (by declaration pointer) for
// nominal classes/interfaces, so two instantiations of the same generic
// class with equal type arguments compare equal without needing a
// canonicalized cache.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNever, KindUnknown, KindVoid:
		return true
	case KindPrimitive:
		return a.Primitive == b.Primitive
	case KindLiteral:
		return literalEqual(a.Literal, b.Literal)
	case KindNullable:
		return Equal(*a.Element, *b.Element)
	case KindArray:
		return Equal(*a.Element, *b.Element)
	case KindTuple:
		return typeSliceEqual(a.Tuple, b.Tuple)
	case KindUnion, KindIntersection:
		return setEqual(a.Members, b.Members)
	case KindObject:
		return objectEqual(a.Object, b.Object)
	case KindFunction:
		return functionEqual(a.Function, b.Function)
	case KindClass:
		return a.Class == b.Class || (a.Class != nil && b.Class != nil &&
			a.Class.Name == b.Class.Name && typeSliceEqual(a.Class.TypeArgs, b.Class.TypeArgs))
	case KindInterface:
		return a.Interface == b.Interface || (a.Interface != nil && b.Interface != nil &&
			a.Interface.Name == b.Interface.Name && typeSliceEqual(a.Interface.TypeArgs, b.Interface.TypeArgs))
	case KindTypeParam:
		return a.TypeParam.Decl == b.TypeParam.Decl
	default:
		return false
	}
}

func literalEqual(a, b *LiteralType) bool {
	if a.Primitive != b.Primitive {
		return false
	}
	switch a.Primitive {
	case ast.PrimString:
		return a.Str == b.Str
	case ast.PrimBoolean:
		return a.Bool == b.Bool
	case ast.PrimInteger:
		return a.Int == b.Int
	default:
		return a.Num == b.Num
	}
}

func typeSliceEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// setEqual compares two union/intersection operand lists order-
// independently, since normalization may not preserve source order
// across equivalent constructions.
func setEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ta := range a {
		found := false
		for j, tb := range b {
			if !used[j] && Equal(ta, tb) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func objectEqual(a, b *ObjectType) bool {
	if len(a.Members) != len(b.Members) {
		return false
	}
	bByName := make(map[string]ObjectMember, len(b.Members))
	for _, m := range b.Members {
		bByName[m.Name] = m
	}
	for _, m := range a.Members {
		other, ok := bByName[m.Name]
		if !ok || m.Optional != other.Optional || m.Readonly != other.Readonly || !Equal(m.Type, other.Type) {
			return false
		}
	}
	if (a.Index == nil) != (b.Index == nil) {
		return false
	}
	if a.Index != nil && (a.Index.KeyPrimitive != b.Index.KeyPrimitive || !Equal(a.Index.ValueType, b.Index.ValueType)) {
		return false
	}
	return true
}

func functionEqual(a, b *FunctionType) bool {
	if len(a.Params) != len(b.Params) || !Equal(a.Return, b.Return) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Optional != b.Params[i].Optional || a.Params[i].Rest != b.Params[i].Rest ||
			!Equal(a.Params[i].Type, b.Params[i].Type) {
			return false
		}
	}
	return true
}
