// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package ast

import (
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/span"
)

// TypeKind tags the variant of a Type node (spec §3 Type family).
type TypeKind int

const (
	TypePrimitive TypeKind = iota
	TypeRef
	TypeUnion
	TypeIntersection
	TypeObject
	TypeArray
	TypeTuple
	TypeFunction
	TypeLiteral
	TypeQuery // typeof expr
	TypeKeyOf
	TypeIndexAccess
	TypeConditional
	TypeMapped
	TypeTemplateLiteral
	TypeNullable
	TypeParenthesized
)

// Primitive enumerates the built-in primitive types (spec §4.3).
type Primitive int

const (
	PrimNil Primitive = iota
	PrimBoolean
	PrimNumber
	PrimInteger
	PrimString
	PrimUnknown
	PrimNever
	PrimVoid
	PrimTable
	PrimCoroutine
)

// Type is a type annotation node. Exactly one of the Kind-specific
// fields below is meaningful for a given Kind.
type Type struct {
	Kind TypeKind
	Span span.Span

	Primitive Primitive

	Reference *TypeReference
	Union     []Type
	Intersection []Type
	Object    *ObjectType
	Element   *Type // Array element, Nullable inner, Parenthesized inner
	Tuple     []Type
	Function  *FunctionType
	Literal   *Literal
	Query     Expression
	KeyOf     *Type
	IndexBase *Type
	IndexKey  *Type
	Conditional *ConditionalType
	Mapped      *MappedType
	Template    *TemplateLiteralType
}

func (t *Type) NodeSpan() span.Span { return t.Span }

// TypeReference is a nominal/structural name with optional type
// arguments, e.g. "Array<T>".
type TypeReference struct {
	Name      Ident
	TypeArgs  []Type
	Span      span.Span
}

// ObjectType is a structural object type: properties, methods, and at
// most one index signature.
type ObjectType struct {
	Members []ObjectTypeMember
	Span    span.Span
}

// ObjectMemberKind tags an ObjectTypeMember.
type ObjectMemberKind int

const (
	MemberProperty ObjectMemberKind = iota
	MemberMethod
	MemberIndex
)

type ObjectTypeMember struct {
	Kind     ObjectMemberKind
	Property *PropertySignature
	Method   *MethodSignature
	Index    *IndexSignature
}

type PropertySignature struct {
	Name     Ident
	Type     Type
	Optional bool
	Readonly bool
	Span     span.Span
}

type MethodSignature struct {
	Name       Ident
	Params     []Parameter
	ReturnType Type
	Optional   bool
	Span       span.Span
}

// IndexSignature models `[key: K]: V`. KeyType is restricted to
// string/number by the parser; the checker requires every concrete
// property of a conforming object to be assignable to ValueType
// (spec §4.3 Assignability).
type IndexSignature struct {
	KeyName   Ident
	KeyType   Type
	ValueType Type
	Span      span.Span
}

type FunctionType struct {
	TypeParams []TypeParameter
	Params     []Parameter
	ReturnType Type
	Span       span.Span
}

// Parameter is a function/method parameter, used both in declarations
// and in FunctionType.
type Parameter struct {
	Name     Ident
	Type     Type
	Optional bool
	Rest     bool
	Default  Expression // zero Expression (invalid Span) if none
	Span     span.Span
}

// TypeParameter is a generic type parameter with an optional `extends`
// constraint and default.
type TypeParameter struct {
	Name       Ident
	Constraint *Type
	Default    *Type
	Span       span.Span
}

type ConditionalType struct {
	Check   *Type
	Extends *Type
	True    *Type
	False   *Type
	Span    span.Span
}

type MappedType struct {
	Readonly  bool
	Param     TypeParameter
	InType    *Type
	Optional  bool
	ValueType *Type
	Span      span.Span
}

type TemplateLiteralType struct {
	Parts []TemplateLiteralTypePart
	Span  span.Span
}

type TemplateLiteralTypePartKind int

const (
	TemplatePartString TemplateLiteralTypePartKind = iota
	TemplatePartType
)

type TemplateLiteralTypePart struct {
	Kind TemplateLiteralTypePartKind
	Str  string
	Type *Type
}

// Nullable constructs T? as a Type of kind TypeNullable with Element set
// to the inner type. types.NonNilable normalizes T? | nil during checking.
func Nullable(inner Type, sp span.Span) Type {
	return Type{Kind: TypeNullable, Span: sp, Element: &inner}
}

// CommonIdent returns a synthetic Ident for a well-known interned name,
// used when the parser or checker must synthesize a node (e.g. the
// implicit "self" parameter of an instance method).
func CommonIdent(id interner.ID, sp span.Span) Ident {
	return Ident{Name: id, Span: sp}
}
