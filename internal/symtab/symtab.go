// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package symtab implements the type checker's symbol table: a stack of
// lexical scopes over a flat, append-only symbol slice, the same shape
// the teacher's Lua compiler uses for its local-variable register
// allocation (internal/luacode's activeVariables slice plus per-block
// firstLocal index), generalized here from register slots to named,
// typed declarations that outlive a single function body and need to be
// serialized into the incremental cache (spec §4.2 "Symbol table").
package symtab

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/span"
	"typedlua.dev/tlc/internal/types"
)

// Kind classifies a declaration occupying a symbol table slot.
type Kind int

const (
	KindValue Kind = iota
	KindFunction
	KindClass
	KindInterface
	KindEnum
	KindTypeAlias
	KindParameter
	KindTypeParameter
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindTypeAlias:
		return "type alias"
	case KindParameter:
		return "parameter"
	case KindTypeParameter:
		return "type parameter"
	default:
		return "?"
	}
}

// Symbol is one declaration: a name, its kind, its declared (not
// narrowed — see internal/check for narrowing) type, access control, and
// the mutability/storage flags the checker and code generator both need
// (spec §4.2: "{name_id, kind, declared_type, access, span, is_mutable,
// is_static}").
type Symbol struct {
	NameID       interner.ID
	Kind         Kind
	DeclaredType types.Type
	Access       ast.Visibility
	Span         span.Span
	Mutable      bool
	Static       bool
}

// scopeFrame is one lexical scope: a name-to-slot map plus the index of
// the first symbol this scope owns, mirroring the teacher parser's
// blockState.firstLocal against the shared activeVariables slice.
type scopeFrame struct {
	parent    *scopeFrame
	byName    map[interner.ID]int
	firstSlot int
}

// SymbolTable is a stack of lexical scopes backed by one flat,
// append-only slice of symbols, so the whole table — not just its
// current scope — serializes directly as the cache payload's
// symbol_table field (spec §4.5).
type SymbolTable struct {
	symbols []Symbol
	current *scopeFrame
}

// New returns an empty SymbolTable with no open scope. Callers must
// OpenScope before Declare.
func New() *SymbolTable {
	return &SymbolTable{}
}

// OpenScope pushes a new lexical scope nested inside the current one.
func (t *SymbolTable) OpenScope() {
	t.current = &scopeFrame{
		parent:    t.current,
		byName:    make(map[interner.ID]int),
		firstSlot: len(t.symbols),
	}
}

// CloseScope pops the innermost scope. Symbols it declared remain in the
// flat slice (so earlier-issued [Ref] values stay valid) but are no
// longer reachable by [Lookup].
func (t *SymbolTable) CloseScope() {
	if t.current != nil {
		t.current = t.current.parent
	}
}

// Depth returns the number of open scopes.
func (t *SymbolTable) Depth() int {
	depth := 0
	for f := t.current; f != nil; f = f.parent {
		depth++
	}
	return depth
}

// Ref identifies a Symbol within a SymbolTable by its flat slot index.
type Ref int

// Declare adds sym to the innermost open scope and returns its Ref.
// A second declaration of the same name in the same scope shadows the
// first for lookup purposes (the caller is responsible for reporting a
// duplicate-declaration diagnostic beforehand if that is not allowed at
// this syntactic position — e.g. two `let` bindings with the same name
// in one block).
func (t *SymbolTable) Declare(sym Symbol) Ref {
	if t.current == nil {
		t.OpenScope()
	}
	slot := len(t.symbols)
	t.symbols = append(t.symbols, sym)
	t.current.byName[sym.NameID] = slot
	return Ref(slot)
}

// Lookup resolves name starting at the innermost open scope and walking
// outward, the scope-path resolution spec §4.2 requires ("every
// identifier in a typed AST resolves to exactly one symbol per scope
// path"). It reports ok=false if no enclosing scope declares name.
func (t *SymbolTable) Lookup(name interner.ID) (Ref, bool) {
	for f := t.current; f != nil; f = f.parent {
		if slot, ok := f.byName[name]; ok {
			return Ref(slot), true
		}
	}
	return 0, false
}

// LookupLocal resolves name only within the innermost open scope,
// without walking outward — used to detect a duplicate declaration
// within the same block before calling Declare.
func (t *SymbolTable) LookupLocal(name interner.ID) (Ref, bool) {
	if t.current == nil {
		return 0, false
	}
	slot, ok := t.current.byName[name]
	return Ref(slot), ok
}

// At returns the Symbol for ref.
func (t *SymbolTable) At(ref Ref) Symbol {
	return t.symbols[ref]
}

// SetType updates the declared type of the symbol at ref, used once the
// checker has resolved a forward-referenced annotation (spec §4.2
// "forward scan" two-pass resolution).
func (t *SymbolTable) SetType(ref Ref, typ types.Type) {
	t.symbols[ref].DeclaredType = typ
}

// Len returns the total number of symbols ever declared in t, across all
// scopes (open or closed).
func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

// All returns every symbol in declaration order, for serialization.
func (t *SymbolTable) All() []Symbol {
	return t.symbols
}
