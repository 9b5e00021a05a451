// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package types

import (
	"testing"

	"typedlua.dev/tlc/internal/ast"
)

func str(s string) Type {
	return Type{Kind: KindLiteral, Literal: &LiteralType{Primitive: ast.PrimString, Str: s}}
}

func TestUnionFlattensAndDedupes(t *testing.T) {
	number := Primitive(ast.PrimNumber)
	boolean := Primitive(ast.PrimBoolean)
	u := Union(Union(number, boolean), number, boolean)
	if u.Kind != KindUnion || len(u.Members) != 2 {
		t.Fatalf("got %s, want a 2-member union", u)
	}
}

func TestUnionAbsorbsNeverAndUnknown(t *testing.T) {
	number := Primitive(ast.PrimNumber)
	if got := Union(number, Never); got.Kind != KindPrimitive {
		t.Errorf("got %s, want number (never absorbed)", got)
	}
	if got := Union(number, Unknown); got.Kind != KindUnknown {
		t.Errorf("got %s, want unknown", got)
	}
	if got := Union(); got.Kind != KindNever {
		t.Errorf("got %s, want never for an empty union", got)
	}
}

func TestIntersectionMergesObjects(t *testing.T) {
	a := Type{Kind: KindObject, Object: &ObjectType{Members: []ObjectMember{{Name: "x", Type: Primitive(ast.PrimNumber)}}}}
	b := Type{Kind: KindObject, Object: &ObjectType{Members: []ObjectMember{{Name: "y", Type: Primitive(ast.PrimString)}}}}
	merged := Intersection(a, b)
	if merged.Kind != KindObject || len(merged.Object.Members) != 2 {
		t.Fatalf("got %s, want a merged 2-member object", merged)
	}
}

func TestNullableWidening(t *testing.T) {
	number := Primitive(ast.PrimNumber)
	nullable := NullableOf(number)
	if !AssignableTo(number, nullable) {
		t.Errorf("number should widen to number?")
	}
	if !AssignableTo(Nil, nullable) {
		t.Errorf("nil should be assignable to number?")
	}
	if AssignableTo(nullable, number) {
		t.Errorf("number? should not narrow to number")
	}
	if NullableOf(nullable).Kind != KindNullable {
		t.Errorf("double-wrapping should collapse to a single nullable")
	}
}

func TestLiteralSubtypesPrimitive(t *testing.T) {
	lit := str("ok")
	if !AssignableTo(lit, Primitive(ast.PrimString)) {
		t.Errorf("literal \"ok\" should be assignable to string")
	}
	if AssignableTo(Primitive(ast.PrimString), lit) {
		t.Errorf("string should not be assignable to literal \"ok\"")
	}
}

func TestUnionAssignability(t *testing.T) {
	number := Primitive(ast.PrimNumber)
	boolean := Primitive(ast.PrimBoolean)
	str := Primitive(ast.PrimString)
	u := Union(number, boolean)
	if !AssignableTo(number, u) {
		t.Errorf("number should be assignable to number|boolean")
	}
	if AssignableTo(str, u) {
		t.Errorf("string should not be assignable to number|boolean")
	}
	if !AssignableTo(u, Union(number, boolean, str)) {
		t.Errorf("number|boolean should be assignable to number|boolean|string")
	}
}

func TestTupleWidthInvariantElementCovariant(t *testing.T) {
	baseClass := &ClassType{Name: "Animal"}
	dogClass := &ClassType{Name: "Dog", Extends: baseClass}
	base := Type{Kind: KindClass, Class: baseClass}
	dog := Type{Kind: KindClass, Class: dogClass}
	dogPair := Type{Kind: KindTuple, Tuple: []Type{dog, dog}}
	basePair := Type{Kind: KindTuple, Tuple: []Type{base, base}}
	if !AssignableTo(dogPair, basePair) {
		t.Errorf("[Dog, Dog] should be assignable to [Animal, Animal]")
	}
	triple := Type{Kind: KindTuple, Tuple: []Type{dog, dog, dog}}
	if AssignableTo(triple, basePair) {
		t.Errorf("a 3-tuple should not be assignable to a 2-tuple")
	}
}

func TestFunctionVariance(t *testing.T) {
	animal := &ClassType{Name: "Animal"}
	dog := &ClassType{Name: "Dog", Extends: animal}
	animalT := Type{Kind: KindClass, Class: animal}
	dogT := Type{Kind: KindClass, Class: dog}

	// (Animal) => Dog should be assignable to (Dog) => Animal:
	// contravariant params (Dog ≲ Animal, the reverse direction from
	// the function's own subtyping), covariant return (Dog ≲ Animal).
	source := &FunctionType{Params: []Param{{Name: "a", Type: animalT}}, Return: dogT}
	target := &FunctionType{Params: []Param{{Name: "a", Type: dogT}}, Return: animalT}
	if !functionAssignable(source, target) {
		t.Errorf("(Animal)=>Dog should be assignable to (Dog)=>Animal")
	}
	if functionAssignable(target, source) {
		t.Errorf("(Dog)=>Animal should not be assignable to (Animal)=>Dog")
	}
}

func TestNominalClassAssignability(t *testing.T) {
	animal := &ClassType{Name: "Animal"}
	dog := &ClassType{Name: "Dog", Extends: animal}
	cat := &ClassType{Name: "Cat", Extends: animal}
	dogT := Type{Kind: KindClass, Class: dog}
	animalT := Type{Kind: KindClass, Class: animal}
	catT := Type{Kind: KindClass, Class: cat}
	if !AssignableTo(dogT, animalT) {
		t.Errorf("Dog should be assignable to Animal")
	}
	if AssignableTo(animalT, dogT) {
		t.Errorf("Animal should not be assignable to Dog")
	}
	if AssignableTo(dogT, catT) {
		t.Errorf("Dog should not be assignable to Cat")
	}
}

func TestStructuralDuckTyping(t *testing.T) {
	point := &ClassType{Name: "Point", Fields: []ClassMember{
		{Name: "x", Type: Primitive(ast.PrimNumber), Visibility: VisPublic},
		{Name: "y", Type: Primitive(ast.PrimNumber), Visibility: VisPublic},
	}}
	pointT := Type{Kind: KindClass, Class: point}
	shape := Type{Kind: KindObject, Object: &ObjectType{Members: []ObjectMember{
		{Name: "x", Type: Primitive(ast.PrimNumber)},
	}}}
	if !AssignableTo(pointT, shape) {
		t.Errorf("Point{x,y} should structurally satisfy {x: number}")
	}
}

func TestIndexSignatureAssignability(t *testing.T) {
	record := Type{Kind: KindObject, Object: &ObjectType{Index: &IndexSignature{
		KeyPrimitive: ast.PrimString, ValueType: Primitive(ast.PrimNumber),
	}}}
	scores := Type{Kind: KindObject, Object: &ObjectType{Members: []ObjectMember{
		{Name: "alice", Type: Primitive(ast.PrimNumber)},
		{Name: "bob", Type: Primitive(ast.PrimNumber)},
	}}}
	if !AssignableTo(scores, record) {
		t.Errorf("{alice: number, bob: number} should satisfy {[k: string]: number}")
	}
	bad := Type{Kind: KindObject, Object: &ObjectType{Members: []ObjectMember{
		{Name: "alice", Type: Primitive(ast.PrimString)},
	}}}
	if AssignableTo(bad, record) {
		t.Errorf("{alice: string} should not satisfy {[k: string]: number}")
	}
}

func TestUtilityTypes(t *testing.T) {
	obj := Type{Kind: KindObject, Object: &ObjectType{Members: []ObjectMember{
		{Name: "id", Type: Primitive(ast.PrimInteger)},
		{Name: "name", Type: Primitive(ast.PrimString)},
	}}}
	partial := Partial(obj)
	for _, m := range partial.Object.Members {
		if !m.Optional {
			t.Errorf("Partial should mark every member optional, got %+v", m)
		}
	}
	picked := Pick(obj, str("id"))
	if len(picked.Object.Members) != 1 || picked.Object.Members[0].Name != "id" {
		t.Fatalf("got %s, want Pick<T,\"id\"> with just id", picked)
	}
	omitted := Omit(obj, str("id"))
	if len(omitted.Object.Members) != 1 || omitted.Object.Members[0].Name != "name" {
		t.Fatalf("got %s, want Omit<T,\"id\"> with just name", omitted)
	}
	record := Record(Primitive(ast.PrimString), Primitive(ast.PrimNumber))
	if record.Object.Index == nil || record.Object.Index.KeyPrimitive != ast.PrimString {
		t.Fatalf("got %s, want Record<string, number>", record)
	}
}

func TestExcludeExtract(t *testing.T) {
	u := Union(Primitive(ast.PrimString), Primitive(ast.PrimNumber), Primitive(ast.PrimBoolean))
	excluded := Exclude(u, Primitive(ast.PrimBoolean))
	if AssignableTo(Primitive(ast.PrimBoolean), excluded) {
		t.Errorf("Exclude<U, boolean> should drop boolean, got %s", excluded)
	}
	extracted := Extract(u, Primitive(ast.PrimBoolean))
	if !Equal(extracted, Primitive(ast.PrimBoolean)) {
		t.Errorf("got %s, want Extract<U, boolean> == boolean", extracted)
	}
}

func TestNonNilableAndNilable(t *testing.T) {
	number := Primitive(ast.PrimNumber)
	nullable := NullableOf(number)
	if !Equal(NonNilable(nullable), number) {
		t.Errorf("got %s, want NonNilable<number?> == number", NonNilable(nullable))
	}
	if Nilable(number).Kind != KindNullable {
		t.Errorf("Nilable<number> should be nullable")
	}
}

func TestReturnTypeAndParametersOf(t *testing.T) {
	fn := Type{Kind: KindFunction, Function: &FunctionType{
		Params: []Param{{Name: "a", Type: Primitive(ast.PrimNumber)}, {Name: "b", Type: Primitive(ast.PrimString)}},
		Return: Primitive(ast.PrimBoolean),
	}}
	if !Equal(ReturnTypeOf(fn), Primitive(ast.PrimBoolean)) {
		t.Errorf("got %s, want boolean", ReturnTypeOf(fn))
	}
	params := ParametersOf(fn)
	if params.Kind != KindTuple || len(params.Tuple) != 2 {
		t.Fatalf("got %s, want a 2-element tuple", params)
	}
}

func TestKeyOfAndIndexedAccess(t *testing.T) {
	obj := Type{Kind: KindObject, Object: &ObjectType{Members: []ObjectMember{
		{Name: "id", Type: Primitive(ast.PrimInteger)},
		{Name: "name", Type: Primitive(ast.PrimString)},
	}}}
	keys := KeyOf(obj)
	if !AssignableTo(str("id"), keys) || !AssignableTo(str("name"), keys) {
		t.Fatalf("got %s, want keyof to include both \"id\" and \"name\"", keys)
	}
	idType := IndexedAccess(obj, str("id"))
	if !Equal(idType, Primitive(ast.PrimInteger)) {
		t.Errorf("got %s, want obj[\"id\"] == integer", idType)
	}
	missing := IndexedAccess(obj, str("missing"))
	if missing.Kind != KindNever {
		t.Errorf("got %s, want never for an unknown key", missing)
	}
}

func TestConditionalTypeDistributesOverUnion(t *testing.T) {
	str_, num := Primitive(ast.PrimString), Primitive(ast.PrimNumber)
	u := Union(str_, num)
	result := EvalConditional(u, str_, Primitive(ast.PrimBoolean), num)
	// Distributes: string branch -> boolean, number branch -> number.
	want := Union(Primitive(ast.PrimBoolean), num)
	if !Equal(result, want) {
		t.Errorf("got %s, want %s", result, want)
	}
}

func TestMappedType(t *testing.T) {
	param := &TypeParamDecl{Name: "P"}
	keys := Union(str("a"), str("b"))
	paramRef := Type{Kind: KindTypeParam, TypeParam: &TypeParamRef{Decl: param}}
	valueType := Type{Kind: KindTuple, Tuple: []Type{paramRef}} // V = [P]
	result := EvalMapped(param, keys, valueType, false, true)
	if len(result.Object.Members) != 2 {
		t.Fatalf("got %s, want 2 members", result)
	}
	for _, m := range result.Object.Members {
		if !m.Readonly {
			t.Errorf("mapped members should be readonly, got %+v", m)
		}
	}
}

func TestTemplateLiteralExpansion(t *testing.T) {
	sizeType := Union(str("small"), str("medium"), str("large"))
	parts := []TemplatePart{
		{Str: "size-"},
		{Type: &sizeType},
	}
	result, err := EvalTemplateLiteral(parts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"size-small", "size-medium", "size-large"} {
		if !AssignableTo(str(want), result) {
			t.Errorf("expected %q among expansions of %s", want, result)
		}
	}
}

func TestTemplateLiteralExpansionCap(t *testing.T) {
	// 11 alternatives per slot, 4 slots => 11^4 > 10,000.
	alts := make([]Type, 11)
	for i := range alts {
		alts[i] = str(string(rune('a' + i)))
	}
	big := Union(alts...)
	parts := []TemplatePart{{Type: &big}, {Type: &big}, {Type: &big}, {Type: &big}}
	_, err := EvalTemplateLiteral(parts)
	if err != ErrTooManyCombinations {
		t.Fatalf("got err %v, want ErrTooManyCombinations", err)
	}
}

func TestGenericSubstitution(t *testing.T) {
	param := TypeParamDecl{Name: "T"}
	paramRef := Type{Kind: KindTypeParam, TypeParam: &TypeParamRef{Decl: &param}}
	boxType := Type{Kind: KindObject, Object: &ObjectType{Members: []ObjectMember{
		{Name: "value", Type: paramRef},
	}}}
	instantiated := Substitute(boxType, &param, Primitive(ast.PrimString))
	if !Equal(instantiated.Object.Members[0].Type, Primitive(ast.PrimString)) {
		t.Fatalf("got %s, want value: string", instantiated)
	}
}

func TestInferFromCall(t *testing.T) {
	param := TypeParamDecl{Name: "T"}
	paramRef := Type{Kind: KindTypeParam, TypeParam: &TypeParamRef{Decl: &param}}
	identity := &FunctionType{
		TypeParams: []TypeParamDecl{param},
		Params:     []Param{{Name: "x", Type: paramRef}},
		Return:     paramRef,
	}
	inferred := InferFromCall(identity, []Type{Primitive(ast.PrimString)})
	if len(inferred) != 1 || !Equal(inferred[0], Primitive(ast.PrimString)) {
		t.Fatalf("got %v, want [string]", inferred)
	}
}

func TestCheckConstraintsRejectsViolation(t *testing.T) {
	constraint := Primitive(ast.PrimNumber)
	params := []TypeParamDecl{{Name: "T", Constraint: &constraint}}
	bad := CheckConstraints(params, []Type{Primitive(ast.PrimString)})
	if bad != 0 {
		t.Errorf("got %d, want violation at index 0", bad)
	}
	good := CheckConstraints(params, []Type{Primitive(ast.PrimNumber)})
	if good != -1 {
		t.Errorf("got %d, want no violation (number satisfies a number constraint)", good)
	}
}
