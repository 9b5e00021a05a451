// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"typedlua.dev/tlc/internal/config"
	"typedlua.dev/tlc/internal/diag"
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

func newCoordinator(t *testing.T) (*Coordinator, *diag.Handler) {
	t.Helper()
	diags := diag.NewHandler()
	return New(config.Default(), diags, nil), diags
}

func TestDiscoverFollowsImports(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.tl": `import { helper } from "./util"
const x = helper()
`,
		"util.tl": `export function helper(): number { return 1 }`,
	})

	co, diags := newCoordinator(t)
	units, _, err := co.discover(context.Background(), []string{filepath.Join(dir, "main.tl")})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Sorted())
	}
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2: %v", len(units), unitPaths(units))
	}

	mainPath := Path(filepath.Join(dir, "main.tl"))
	utilPath := Path(filepath.Join(dir, "util.tl"))
	if _, ok := units[mainPath]; !ok {
		t.Errorf("missing unit for main.tl")
	}
	if u, ok := units[utilPath]; !ok || u.lua {
		t.Errorf("missing or misclassified unit for util.tl")
	}
	if deps := units[mainPath].deps; len(deps) != 1 || deps[0] != utilPath {
		t.Errorf("main.tl deps = %v, want [%s]", deps, utilPath)
	}
}

// A module imported by two different importers before either is
// dequeued must only be discovered (and parsed) once: this is the
// regression test for the map-nil-vs-absent duplicate-enqueue bug.
func TestDiscoverDoesNotDuplicateSharedDependency(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.tl": `import { shared } from "./shared"
const x = shared()
`,
		"b.tl": `import { shared } from "./shared"
const y = shared()
`,
		"shared.tl": `export function shared(): number { return 1 }`,
	})

	co, diags := newCoordinator(t)
	units, _, err := co.discover(context.Background(), []string{
		filepath.Join(dir, "a.tl"),
		filepath.Join(dir, "b.tl"),
	})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Sorted())
	}
	if len(units) != 3 {
		t.Fatalf("got %d units, want 3 (a, b, shared deduplicated): %v", len(units), unitPaths(units))
	}
}

func TestDiscoverTreatsLuaImportAsCompanion(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.tl": `import { legacy } from "./legacy.lua"
const z = legacy
`,
		"legacy.lua": `return { legacy = 1 }`,
		"legacy.d.tl": `export declare const legacy: number`,
	})

	co, _ := newCoordinator(t)
	co.cfg.AllowNonTypedLua = true
	units, _, err := co.discover(context.Background(), []string{filepath.Join(dir, "main.tl")})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	luaPath := Path(filepath.Join(dir, "legacy.lua"))
	u, ok := units[luaPath]
	if !ok {
		t.Fatalf("missing unit for legacy.lua: %v", unitPaths(units))
	}
	if !u.lua {
		t.Errorf("legacy.lua unit should be marked lua")
	}
	select {
	case <-u.done:
	default:
		t.Errorf("a .lua companion's done channel should already be closed")
	}
}

func unitPaths(units map[Path]*unitState) []Path {
	var out []Path
	for p := range units {
		out = append(out, p)
	}
	return out
}
