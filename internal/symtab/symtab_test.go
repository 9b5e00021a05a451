// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package symtab

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/types"
)

func TestDeclareAndLookup(t *testing.T) {
	in := interner.New()
	x := in.Intern("x")
	tab := New()
	tab.OpenScope()
	ref := tab.Declare(Symbol{NameID: x, Kind: KindValue, DeclaredType: types.Primitive(ast.PrimNumber), Mutable: true})

	got, ok := tab.Lookup(x)
	if !ok {
		t.Fatal("Lookup(x) = false, want true")
	}
	if got != ref {
		t.Errorf("Lookup(x) = %v, want %v", got, ref)
	}
	if sym := tab.At(got); sym.Kind != KindValue || !sym.Mutable {
		t.Errorf("At(ref) = %+v, want kind=value mutable=true", sym)
	}
}

func TestLookupWalksEnclosingScopes(t *testing.T) {
	in := interner.New()
	outer := in.Intern("outer")
	inner := in.Intern("inner")
	tab := New()
	tab.OpenScope()
	tab.Declare(Symbol{NameID: outer, Kind: KindValue})
	tab.OpenScope()
	tab.Declare(Symbol{NameID: inner, Kind: KindValue})

	if _, ok := tab.Lookup(outer); !ok {
		t.Error("inner scope should see outer's declaration")
	}
	if _, ok := tab.Lookup(inner); !ok {
		t.Error("inner scope should see its own declaration")
	}

	tab.CloseScope()
	if _, ok := tab.Lookup(inner); ok {
		t.Error("after closing inner scope, inner should no longer resolve")
	}
	if _, ok := tab.Lookup(outer); !ok {
		t.Error("outer should still resolve after closing inner scope")
	}
}

func TestShadowing(t *testing.T) {
	in := interner.New()
	x := in.Intern("x")
	tab := New()
	tab.OpenScope()
	outerRef := tab.Declare(Symbol{NameID: x, Kind: KindValue, DeclaredType: types.Primitive(ast.PrimNumber)})
	tab.OpenScope()
	innerRef := tab.Declare(Symbol{NameID: x, Kind: KindValue, DeclaredType: types.Primitive(ast.PrimString)})

	got, _ := tab.Lookup(x)
	if got != innerRef {
		t.Errorf("Lookup(x) = %v, want the shadowing inner declaration %v", got, innerRef)
	}
	tab.CloseScope()
	got, _ = tab.Lookup(x)
	if got != outerRef {
		t.Errorf("Lookup(x) after CloseScope = %v, want outer declaration %v", got, outerRef)
	}
}

func TestLookupLocalDoesNotWalkOutward(t *testing.T) {
	in := interner.New()
	x := in.Intern("x")
	tab := New()
	tab.OpenScope()
	tab.Declare(Symbol{NameID: x, Kind: KindValue})
	tab.OpenScope()

	if _, ok := tab.LookupLocal(x); ok {
		t.Error("LookupLocal should not see an outer scope's declaration")
	}
	if _, ok := tab.Lookup(x); !ok {
		t.Error("Lookup should still see the outer scope's declaration")
	}
}

func TestSetTypeUpdatesForwardDeclaration(t *testing.T) {
	in := interner.New()
	f := in.Intern("f")
	tab := New()
	tab.OpenScope()
	ref := tab.Declare(Symbol{NameID: f, Kind: KindFunction, DeclaredType: types.Unknown})
	tab.SetType(ref, types.Type{Kind: types.KindFunction, Function: &types.FunctionType{Return: types.Void}})

	if tab.At(ref).DeclaredType.Kind != types.KindFunction {
		t.Errorf("SetType did not update the declared type")
	}
}

func TestAllPreservesDeclarationOrder(t *testing.T) {
	in := interner.New()
	a, b := in.Intern("a"), in.Intern("b")
	tab := New()
	tab.OpenScope()
	tab.Declare(Symbol{NameID: a, Kind: KindValue})
	tab.Declare(Symbol{NameID: b, Kind: KindValue})

	all := tab.All()
	if len(all) != 2 || all[0].NameID != a || all[1].NameID != b {
		t.Fatalf("All() = %+v, want [a, b] in declaration order", all)
	}
}

func TestSymbolTableEquality(t *testing.T) {
	in := interner.New()
	x := in.Intern("x")
	build := func() *SymbolTable {
		tab := New()
		tab.OpenScope()
		tab.Declare(Symbol{NameID: x, Kind: KindValue, DeclaredType: types.Primitive(ast.PrimNumber)})
		return tab
	}
	a, b := build(), build()
	if diff := cmp.Diff(a.All(), b.All()); diff != "" {
		t.Errorf("two independently built tables with identical declarations differ (-a +b):\n%s", diff)
	}
}
