// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package types

// EvalConditional evaluates `check extends extendsT ? trueT : falseT`.
// When check is a naked union (not wrapped, e.g. via an array or
// tuple) the conditional distributes over its members per TypeScript's
// "naked type parameter" rule, adapted here to distribute over any
// naked union rather than only over a bare type parameter, since this
// compiler's conditional types are always written against a concrete
// union at the use site rather than behind an unresolved parameter
// (spec §4.3 "conditional types ... with distribution over naked
// unions").
func EvalConditional(check, extendsT, trueT, falseT Type) Type {
	if check.Kind == KindUnion {
		var results []Type
		for _, m := range check.Members {
			results = append(results, evalConditionalArm(m, extendsT, trueT, falseT))
		}
		return Union(results...)
	}
	return evalConditionalArm(check, extendsT, trueT, falseT)
}

func evalConditionalArm(check, extendsT, trueT, falseT Type) Type {
	if AssignableTo(check, extendsT) {
		return trueT
	}
	return falseT
}
