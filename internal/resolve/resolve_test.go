// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package resolve

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, contents := range files {
		full := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestResolveExactPath(t *testing.T) {
	dir := writeTree(t, map[string]string{"util.tl": "export let x = 1"})
	got, err := Resolve(dir, "./util.tl", nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != Path(filepath.Join(dir, "util.tl")) {
		t.Errorf("Resolve() = %q, want util.tl", got)
	}
}

func TestResolveAppendsSuffix(t *testing.T) {
	dir := writeTree(t, map[string]string{"util.tl": "export let x = 1"})
	got, err := Resolve(dir, "./util", nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != Path(filepath.Join(dir, "util.tl")) {
		t.Errorf("Resolve() = %q, want util.tl", got)
	}
}

func TestResolveDirectoryIndex(t *testing.T) {
	dir := writeTree(t, map[string]string{"mathx/index.tl": "export let pi = 3.14"})
	got, err := Resolve(dir, "./mathx", nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != Path(filepath.Join(dir, "mathx", "index.tl")) {
		t.Errorf("Resolve() = %q, want mathx/index.tl", got)
	}
}

func TestResolveLibraryRoot(t *testing.T) {
	dir := writeTree(t, map[string]string{"libs/json/index.tl": "export let parse = 1"})
	got, err := Resolve(dir, "json", []string{filepath.Join(dir, "libs")}, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != Path(filepath.Join(dir, "libs", "json", "index.tl")) {
		t.Errorf("Resolve() = %q, want libs/json/index.tl", got)
	}
}

func TestResolveRejectsLuaWithoutDeclarations(t *testing.T) {
	dir := writeTree(t, map[string]string{"legacy.lua": "return {}"})
	if _, err := Resolve(dir, "./legacy", nil, false); err == nil {
		t.Error("Resolve() should reject a .lua import when allow_non_typed_lua is off")
	}
	if _, err := Resolve(dir, "./legacy", nil, true); err == nil {
		t.Error("Resolve() should still reject .lua without a companion .d.tl")
	}
}

func TestResolveAcceptsLuaWithDeclarations(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"legacy.lua":   "return {}",
		"legacy.d.tl":  "export declare function f(): void",
	})
	// An extensionless "./legacy" would find legacy.d.tl first (suffix
	// order .tl, .d.tl, .lua), so the import names the .lua file.
	got, err := Resolve(dir, "./legacy.lua", nil, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v, want success", err)
	}
	if got != Path(filepath.Join(dir, "legacy.lua")) {
		t.Errorf("Resolve() = %q, want legacy.lua", got)
	}
}

func TestResolveMissingIsError(t *testing.T) {
	dir := t.TempDir()
	if _, err := Resolve(dir, "./nope", nil, false); err == nil {
		t.Error("Resolve() of a nonexistent module should fail")
	}
}

func TestTopoSortOrdersDependenciesFirst(t *testing.T) {
	g := NewGraph()
	g.AddImport("main.tl", "util.tl", false)
	g.AddImport("util.tl", "base.tl", false)

	order, back, err := g.TopoSort()
	if err != nil {
		t.Fatalf("TopoSort() error = %v", err)
	}
	if len(back) != 0 {
		t.Errorf("TopoSort() backEdges = %v, want none", back)
	}
	pos := map[Path]int{}
	for i, m := range order {
		pos[m] = i
	}
	if pos["base.tl"] > pos["util.tl"] || pos["util.tl"] > pos["main.tl"] {
		t.Errorf("order = %v, want base before util before main", order)
	}
}

func TestTopoSortRejectsValueCycle(t *testing.T) {
	g := NewGraph()
	g.AddImport("a.tl", "b.tl", false)
	g.AddImport("b.tl", "a.tl", false)

	_, _, err := g.TopoSort()
	var cycleErr *CycleError
	if err == nil {
		t.Fatal("TopoSort() should reject a value-import cycle")
	}
	if !asCycleError(err, &cycleErr) {
		t.Fatalf("TopoSort() error = %v, want *CycleError", err)
	}
}

func TestTopoSortAllowsTypeOnlyCycle(t *testing.T) {
	g := NewGraph()
	g.AddImport("a.tl", "b.tl", true)
	g.AddImport("b.tl", "a.tl", true)

	order, back, err := g.TopoSort()
	if err != nil {
		t.Fatalf("TopoSort() error = %v, want a type-only cycle to be allowed", err)
	}
	if len(order) != 2 {
		t.Errorf("order = %v, want both modules present", order)
	}
	if len(back) != 1 {
		t.Errorf("backEdges = %v, want exactly one back-edge for cycle-breaking", back)
	}
}

func TestDirtyClosureBFSOverReverseEdges(t *testing.T) {
	g := NewGraph()
	g.AddImport("main.tl", "util.tl", false)
	g.AddImport("util.tl", "base.tl", false)
	g.AddImport("other.tl", "base.tl", false)

	dirty := g.DirtyClosure([]Path{"base.tl"})
	for _, want := range []Path{"base.tl", "util.tl", "main.tl", "other.tl"} {
		if !dirty.Has(want) {
			t.Errorf("DirtyClosure() missing %q", want)
		}
	}
}

func asCycleError(err error, target **CycleError) bool {
	ce, ok := err.(*CycleError)
	if ok {
		*target = ce
	}
	return ok
}
