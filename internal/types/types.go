// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package types is the semantic type system: the resolved, checked
// counterpart of the syntactic type annotations in internal/ast. Where
// internal/ast's Type nodes name things the way the source spelled them
// (an identifier, a literal union), this package's Type values are fully
// resolved — a class reference points at the ClassType it names, a
// union has been flattened and deduplicated, a utility type has already
// been expanded to its result (spec §4.3).
package types

import (
	"fmt"
	"strings"

	"typedlua.dev/tlc/internal/ast"
)

// Kind tags the variant of a resolved Type.
type Kind int

const (
	KindPrimitive Kind = iota
	KindLiteral
	KindUnion
	KindIntersection
	KindObject
	KindArray
	KindTuple
	KindFunction
	KindClass
	KindInterface
	KindTypeParam
	KindNullable
	KindNever
	KindUnknown
	KindVoid
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindLiteral:
		return "literal"
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindTypeParam:
		return "type parameter"
	case KindNullable:
		return "nullable"
	case KindNever:
		return "never"
	case KindUnknown:
		return "unknown"
	case KindVoid:
		return "void"
	default:
		return "?"
	}
}

// Type is a resolved semantic type. Exactly one Kind-specific field is
// populated for a given Kind, the same closed-sum discipline the parser
// uses for ast nodes.
type Type struct {
	Kind Kind

	Primitive ast.Primitive
	Literal   *LiteralType
	Members   []Type // Union / Intersection operands
	Object    *ObjectType
	Element   *Type // Array element / Nullable inner
	Tuple     []Type
	Function  *FunctionType
	Class     *ClassType
	Interface *InterfaceType
	TypeParam *TypeParamRef
}

// LiteralType is a single-value subtype of its underlying primitive,
// e.g. the type of the literal "ok" or 42.
type LiteralType struct {
	Primitive ast.Primitive
	Str       string
	Num       float64
	Int       int64
	Bool      bool
}

// ObjectMember is one property, method, or index signature of a
// structural ObjectType.
type ObjectMember struct {
	Name     string
	Type     Type
	Optional bool
	Readonly bool
	IsMethod bool
}

// ObjectType is a structural type: a set of named members plus at most
// one index signature.
type ObjectType struct {
	Members []ObjectMember
	Index   *IndexSignature // nil if none
}

// IndexSignature models `[key: K]: V`; K is string or number.
type IndexSignature struct {
	KeyPrimitive ast.Primitive
	ValueType    Type
}

// Param is a resolved function/method parameter.
type Param struct {
	Name     string
	Type     Type
	Optional bool
	Rest     bool
}

// FunctionType carries a parameter list and return type; multi-return
// is modeled as a Tuple return type (spec §4.3).
type FunctionType struct {
	TypeParams []TypeParamDecl
	Params     []Param
	Return     Type
}

// TypeParamDecl is a generic type parameter as declared on a function,
// class, interface, or type alias.
type TypeParamDecl struct {
	Name       string
	Constraint *Type // nil if unconstrained
	Default    *Type
}

// TypeParamRef is a reference to a TypeParamDecl from within the body
// that declares it, before instantiation substitutes a concrete type.
type TypeParamRef struct {
	Decl *TypeParamDecl
}

// ClassType is a nominal class type with a declared (possibly generic)
// parent and implemented interfaces, forming the hierarchy that
// `instanceof` and protected-access checks walk.
type ClassType struct {
	Name       string
	TypeParams []TypeParamDecl
	TypeArgs   []Type // instantiation arguments, empty for the generic declaration itself
	Extends    *ClassType
	Implements []*InterfaceType
	Fields     []ClassMember
	Methods    []ClassMember
}

// ClassMember is one field or method of a ClassType, carrying the
// access-control information internal/check enforces (spec §4.3 Access
// control).
type ClassMember struct {
	Name       string
	Type       Type // field type, or function type for a method
	Visibility Visibility
	Static     bool
	Readonly   bool
	IsMethod   bool
}

// Visibility mirrors ast.Visibility; duplicated here so internal/types
// has no dependency on the parser beyond ast's shared enums.
type Visibility int

const (
	VisPublic Visibility = iota
	VisProtected
	VisPrivate
)

// InterfaceType is a nominal interface type with declared parents.
type InterfaceType struct {
	Name       string
	TypeParams []TypeParamDecl
	TypeArgs   []Type
	Extends    []*InterfaceType
	Properties []ObjectMember
	Methods    []ClassMember
}

// Singletons for the types with no payload.
var (
	Never   = Type{Kind: KindNever}
	Unknown = Type{Kind: KindUnknown}
	Void    = Type{Kind: KindVoid}
	Nil     = Type{Kind: KindPrimitive, Primitive: ast.PrimNil}
)

// Primitive constructs the Type for a non-nil primitive.
func Primitive(p ast.Primitive) Type {
	return Type{Kind: KindPrimitive, Primitive: p}
}

// NullableOf wraps inner as `inner | nil`, collapsing a redundant
// double-wrap and absorbing `unknown`/`never` the way Union would.
func NullableOf(inner Type) Type {
	if inner.Kind == KindNullable {
		return inner
	}
	if inner.Kind == KindUnknown {
		return inner
	}
	if inner.Kind == KindNever {
		return Nil
	}
	return Type{Kind: KindNullable, Element: &inner}
}

// IsNilable reports whether t admits nil: either it is the nil
// primitive directly, or a KindNullable wrapper.
func IsNilable(t Type) bool {
	return t.Kind == KindNullable || (t.Kind == KindPrimitive && t.Primitive == ast.PrimNil)
}

// String renders t for diagnostics. It is not a parser for the type
// grammar and need not round-trip.
func (t Type) String() string {
	switch t.Kind {
	case KindNever:
		return "never"
	case KindUnknown:
		return "unknown"
	case KindVoid:
		return "void"
	case KindPrimitive:
		return primitiveName(t.Primitive)
	case KindLiteral:
		return t.Literal.String()
	case KindNullable:
		return t.Element.String() + "?"
	case KindUnion:
		return joinTypes(t.Members, " | ")
	case KindIntersection:
		return joinTypes(t.Members, " & ")
	case KindArray:
		return t.Element.String() + "[]"
	case KindTuple:
		return "[" + joinTypes(t.Tuple, ", ") + "]"
	case KindObject:
		return t.Object.String()
	case KindFunction:
		return t.Function.String()
	case KindClass:
		return t.Class.Name
	case KindInterface:
		return t.Interface.Name
	case KindTypeParam:
		return t.TypeParam.Decl.Name
	default:
		return "?"
	}
}

func (l *LiteralType) String() string {
	switch l.Primitive {
	case ast.PrimString:
		return fmt.Sprintf("%q", l.Str)
	case ast.PrimBoolean:
		return fmt.Sprintf("%v", l.Bool)
	case ast.PrimInteger:
		return fmt.Sprintf("%d", l.Int)
	default:
		return fmt.Sprintf("%v", l.Num)
	}
}

func (o *ObjectType) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, m := range o.Members {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(m.Name)
		if m.Optional {
			sb.WriteByte('?')
		}
		sb.WriteString(": ")
		sb.WriteString(m.Type.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

func (f *FunctionType) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		if p.Rest {
			sb.WriteString("...")
		}
		sb.WriteString(": ")
		sb.WriteString(p.Type.String())
	}
	sb.WriteString("): ")
	sb.WriteString(f.Return.String())
	return sb.String()
}

func joinTypes(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}

func primitiveName(p ast.Primitive) string {
	switch p {
	case ast.PrimNil:
		return "nil"
	case ast.PrimBoolean:
		return "boolean"
	case ast.PrimNumber:
		return "number"
	case ast.PrimInteger:
		return "integer"
	case ast.PrimString:
		return "string"
	case ast.PrimUnknown:
		return "unknown"
	case ast.PrimNever:
		return "never"
	case ast.PrimVoid:
		return "void"
	case ast.PrimTable:
		return "table"
	case ast.PrimCoroutine:
		return "coroutine"
	default:
		return "?"
	}
}
