// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package types

// Substitute replaces every reference to param within t by with,
// recursing through every composite Type kind. It is the mechanism
// behind generic instantiation, mapped-type evaluation, and template
// literal type expansion.
func Substitute(t Type, param *TypeParamDecl, with Type) Type {
	switch t.Kind {
	case KindTypeParam:
		if t.TypeParam.Decl == param {
			return with
		}
		return t
	case KindNullable:
		e := Substitute(*t.Element, param, with)
		return NullableOf(e)
	case KindArray:
		e := Substitute(*t.Element, param, with)
		return Type{Kind: KindArray, Element: &e}
	case KindTuple:
		out := make([]Type, len(t.Tuple))
		for i, m := range t.Tuple {
			out[i] = Substitute(m, param, with)
		}
		return Type{Kind: KindTuple, Tuple: out}
	case KindUnion:
		out := make([]Type, len(t.Members))
		for i, m := range t.Members {
			out[i] = Substitute(m, param, with)
		}
		return Union(out...)
	case KindIntersection:
		out := make([]Type, len(t.Members))
		for i, m := range t.Members {
			out[i] = Substitute(m, param, with)
		}
		return Intersection(out...)
	case KindObject:
		members := make([]ObjectMember, len(t.Object.Members))
		for i, m := range t.Object.Members {
			m.Type = Substitute(m.Type, param, with)
			members[i] = m
		}
		var index *IndexSignature
		if t.Object.Index != nil {
			v := Substitute(t.Object.Index.ValueType, param, with)
			index = &IndexSignature{KeyPrimitive: t.Object.Index.KeyPrimitive, ValueType: v}
		}
		return Type{Kind: KindObject, Object: &ObjectType{Members: members, Index: index}}
	case KindFunction:
		params := make([]Param, len(t.Function.Params))
		for i, p := range t.Function.Params {
			p.Type = Substitute(p.Type, param, with)
			params[i] = p
		}
		ret := Substitute(t.Function.Return, param, with)
		return Type{Kind: KindFunction, Function: &FunctionType{
			TypeParams: t.Function.TypeParams, Params: params, Return: ret,
		}}
	case KindClass:
		if t.Class == nil || len(t.Class.TypeArgs) == 0 {
			return t
		}
		args := make([]Type, len(t.Class.TypeArgs))
		for i, a := range t.Class.TypeArgs {
			args[i] = Substitute(a, param, with)
		}
		c := *t.Class
		c.TypeArgs = args
		return Type{Kind: KindClass, Class: &c}
	case KindInterface:
		if t.Interface == nil || len(t.Interface.TypeArgs) == 0 {
			return t
		}
		args := make([]Type, len(t.Interface.TypeArgs))
		for i, a := range t.Interface.TypeArgs {
			args[i] = Substitute(a, param, with)
		}
		iface := *t.Interface
		iface.TypeArgs = args
		return Type{Kind: KindInterface, Interface: &iface}
	default:
		return t
	}
}

// SubstituteAll applies Substitute for each (param, arg) pair in
// order, the shape generic instantiation and call-site inference both
// need once type arguments are known or inferred.
func SubstituteAll(t Type, params []TypeParamDecl, args []Type) Type {
	for i := range params {
		if i >= len(args) {
			break
		}
		t = Substitute(t, &params[i], args[i])
	}
	return t
}

// InferFromCall unifies each declared parameter type against the
// corresponding argument type, solving for the function's own type
// parameters. Unresolved parameters (no argument constrained them) fall
// back to their declared default, or `unknown` if none. Constraints are
// checked by the caller after inference (spec §4.3 Generics:
// "constraints checked after inference").
func InferFromCall(fn *FunctionType, argTypes []Type) []Type {
	solved := make(map[*TypeParamDecl]Type, len(fn.TypeParams))
	for i, p := range fn.Params {
		if i >= len(argTypes) {
			break
		}
		unify(p.Type, argTypes[i], fn.TypeParams, solved)
	}
	out := make([]Type, len(fn.TypeParams))
	for i := range fn.TypeParams {
		tp := &fn.TypeParams[i]
		if t, ok := solved[tp]; ok {
			out[i] = t
		} else if tp.Default != nil {
			out[i] = *tp.Default
		} else {
			out[i] = Unknown
		}
	}
	return out
}

// unify walks declared and actual types in parallel, recording a
// binding the first time a declared type parameter is matched against
// a concrete actual type. Later occurrences widen the existing binding
// to their union rather than overwriting it, so a parameter used in
// more than one argument position infers the union of its observed
// uses.
func unify(declared, actual Type, params []TypeParamDecl, solved map[*TypeParamDecl]Type) {
	if declared.Kind == KindTypeParam {
		for i := range params {
			// FunctionType.TypeParams holds copies of the declarations
			// that references point at, so match by value.
			if params[i] == *declared.TypeParam.Decl {
				if prev, ok := solved[&params[i]]; ok {
					solved[&params[i]] = Union(prev, actual)
				} else {
					solved[&params[i]] = actual
				}
				return
			}
		}
		return
	}
	switch {
	case declared.Kind == KindArray && actual.Kind == KindArray:
		unify(*declared.Element, *actual.Element, params, solved)
	case declared.Kind == KindNullable && actual.Kind == KindNullable:
		unify(*declared.Element, *actual.Element, params, solved)
	case declared.Kind == KindNullable:
		unify(*declared.Element, actual, params, solved)
	case declared.Kind == KindTuple && actual.Kind == KindTuple:
		for i := 0; i < len(declared.Tuple) && i < len(actual.Tuple); i++ {
			unify(declared.Tuple[i], actual.Tuple[i], params, solved)
		}
	case declared.Kind == KindFunction && actual.Kind == KindFunction:
		for i := 0; i < len(declared.Function.Params) && i < len(actual.Function.Params); i++ {
			unify(declared.Function.Params[i].Type, actual.Function.Params[i].Type, params, solved)
		}
		unify(declared.Function.Return, actual.Function.Return, params, solved)
	case declared.Kind == KindClass && actual.Kind == KindClass && declared.Class != nil && actual.Class != nil:
		for i := 0; i < len(declared.Class.TypeArgs) && i < len(actual.Class.TypeArgs); i++ {
			unify(declared.Class.TypeArgs[i], actual.Class.TypeArgs[i], params, solved)
		}
	}
}

// CheckConstraints reports the index of the first type argument that
// violates its corresponding parameter's `extends` constraint, or -1 if
// all are satisfied.
func CheckConstraints(params []TypeParamDecl, args []Type) int {
	for i, p := range params {
		if p.Constraint == nil || i >= len(args) {
			continue
		}
		if !AssignableTo(args[i], *p.Constraint) {
			return i
		}
	}
	return -1
}
