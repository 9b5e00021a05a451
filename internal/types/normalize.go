// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package types

// Union builds a normalized union type: operands are flattened (a
// union of unions collapses to one level), deduplicated, and `never`
// members are absorbed since they never contribute a possible value. A
// union containing `unknown` collapses to `unknown`. A union of exactly
// one distinct member reduces to that member; an empty union is
// `never` (spec §4.3).
func Union(operands ...Type) Type {
	flat := flattenUnion(operands)
	var deduped []Type
	for _, t := range flat {
		if t.Kind == KindUnknown {
			return Unknown
		}
		if t.Kind == KindNever {
			continue
		}
		if !containsType(deduped, t) {
			deduped = append(deduped, t)
		}
	}
	switch len(deduped) {
	case 0:
		return Never
	case 1:
		return deduped[0]
	default:
		return Type{Kind: KindUnion, Members: deduped}
	}
}

func flattenUnion(ts []Type) []Type {
	var out []Type
	for _, t := range ts {
		if t.Kind == KindUnion {
			out = append(out, flattenUnion(t.Members)...)
		} else {
			out = append(out, t)
		}
	}
	return out
}

func containsType(ts []Type, t Type) bool {
	for _, o := range ts {
		if Equal(o, t) {
			return true
		}
	}
	return false
}

// Intersection builds a normalized intersection type: flattened and
// deduplicated like Union, but `never` absorbs the whole intersection
// and `unknown` members drop out since they constrain nothing (spec
// §4.3). Two distinct object types intersect structurally by merging
// members; other kind pairs remain an unreduced intersection node for
// the assignability check to handle (`S ≲ (A & B)` iff `S ≲ A` and
// `S ≲ B`, which needs no merged representation).
func Intersection(operands ...Type) Type {
	flat := flattenIntersection(operands)
	var kept []Type
	for _, t := range flat {
		if t.Kind == KindNever {
			return Never
		}
		if t.Kind == KindUnknown {
			continue
		}
		if !containsType(kept, t) {
			kept = append(kept, t)
		}
	}
	switch len(kept) {
	case 0:
		return Unknown
	case 1:
		return kept[0]
	default:
		return mergeObjectIntersections(kept)
	}
}

func flattenIntersection(ts []Type) []Type {
	var out []Type
	for _, t := range ts {
		if t.Kind == KindIntersection {
			out = append(out, flattenIntersection(t.Members)...)
		} else {
			out = append(out, t)
		}
	}
	return out
}

// mergeObjectIntersections folds every leading run of object types into
// a single merged structural type (later member's property wins on a
// name clash, matching rightmost-wins the way a spread literal would),
// leaving any non-object members alongside it as an intersection.
func mergeObjectIntersections(kept []Type) Type {
	var merged *ObjectType
	var rest []Type
	for _, t := range kept {
		if t.Kind == KindObject {
			if merged == nil {
				merged = &ObjectType{}
			}
			merged = mergeObjects(merged, t.Object)
		} else {
			rest = append(rest, t)
		}
	}
	if merged == nil {
		return Type{Kind: KindIntersection, Members: kept}
	}
	mergedType := Type{Kind: KindObject, Object: merged}
	if len(rest) == 0 {
		return mergedType
	}
	return Type{Kind: KindIntersection, Members: append([]Type{mergedType}, rest...)}
}

func mergeObjects(a, b *ObjectType) *ObjectType {
	byName := make(map[string]int, len(a.Members))
	out := &ObjectType{Members: append([]ObjectMember(nil), a.Members...), Index: a.Index}
	for i, m := range out.Members {
		byName[m.Name] = i
	}
	for _, m := range b.Members {
		if i, ok := byName[m.Name]; ok {
			out.Members[i] = m
		} else {
			out.Members = append(out.Members, m)
		}
	}
	if b.Index != nil {
		out.Index = b.Index
	}
	return out
}
