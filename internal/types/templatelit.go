// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package types

import (
	"errors"
	"fmt"

	"typedlua.dev/tlc/internal/ast"
)

// MaxTemplateLiteralCombinations bounds the cartesian product a
// template literal type may expand to (spec §4.3: "Template literal
// expansion refuses to enumerate more than 10,000 combinations; this
// limit is part of the contract").
const MaxTemplateLiteralCombinations = 10000

// ErrTooManyCombinations is returned by EvalTemplateLiteral when the
// cartesian product of a type's interpolations would exceed
// MaxTemplateLiteralCombinations.
var ErrTooManyCombinations = errors.New("template literal type expands to more than 10,000 combinations")

// TemplatePart is one segment of a resolved template literal type: a
// literal string, or a type whose finite set of literal alternatives
// participates in the cartesian expansion.
type TemplatePart struct {
	Str  string
	Type *Type // nil for a literal string segment
}

// EvalTemplateLiteral expands a template literal type to the union of
// string-literal types it denotes, failing closed past the combination
// cap rather than silently truncating (spec §4.3).
func EvalTemplateLiteral(parts []TemplatePart) (Type, error) {
	alternatives := [][]string{{""}}
	for _, part := range parts {
		var segAlts []string
		if part.Type == nil {
			segAlts = []string{part.Str}
		} else {
			var err error
			segAlts, err = literalAlternatives(*part.Type)
			if err != nil {
				return Type{}, err
			}
		}
		next, err := cartesianAppend(alternatives, segAlts)
		if err != nil {
			return Type{}, err
		}
		alternatives = next
	}
	members := make([]Type, len(alternatives))
	for i, s := range alternatives {
		members[i] = Type{Kind: KindLiteral, Literal: &LiteralType{Primitive: ast.PrimString, Str: joinStrings(s)}}
	}
	return Union(members...), nil
}

func joinStrings(parts []string) string {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return string(out)
}

func cartesianAppend(prefixes [][]string, segAlts []string) ([][]string, error) {
	if len(prefixes)*len(segAlts) > MaxTemplateLiteralCombinations {
		return nil, ErrTooManyCombinations
	}
	out := make([][]string, 0, len(prefixes)*len(segAlts))
	for _, prefix := range prefixes {
		for _, alt := range segAlts {
			combined := append(append([]string(nil), prefix...), alt)
			out = append(out, combined)
		}
	}
	return out, nil
}

// literalAlternatives enumerates the finite set of literal string forms
// a type can contribute to a template literal expansion: a string/
// number/integer/boolean literal contributes itself, a primitive
// string/number/integer contributes no finite enumeration and is
// therefore an error region of the caller's choosing to reject earlier
// (the checker rejects non-literal interpolands before calling this),
// and a union recurses into each member.
func literalAlternatives(t Type) ([]string, error) {
	switch t.Kind {
	case KindLiteral:
		if t.Literal.Primitive == ast.PrimString {
			// The raw value, not the quoted form String renders.
			return []string{t.Literal.Str}, nil
		}
		return []string{t.Literal.String()}, nil
	case KindUnion:
		var out []string
		for _, m := range t.Members {
			alts, err := literalAlternatives(m)
			if err != nil {
				return nil, err
			}
			out = append(out, alts...)
			if len(out) > MaxTemplateLiteralCombinations {
				return nil, ErrTooManyCombinations
			}
		}
		return out, nil
	case KindPrimitive:
		switch t.Primitive {
		case ast.PrimBoolean:
			return []string{"true", "false"}, nil
		default:
			return nil, fmt.Errorf("type %s has no finite set of literal forms for template expansion", t)
		}
	default:
		return nil, fmt.Errorf("type %s cannot appear in a template literal type", t)
	}
}
