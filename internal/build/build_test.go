// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package build

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckReportsNoErrorsForValidProject(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.tl": `import { helper } from "./util"
const x: number = helper()
`,
		"util.tl": `export function helper(): number { return 1 }`,
	})

	co, diags := newCoordinator(t)
	if err := co.Check(context.Background(), []string{filepath.Join(dir, "main.tl")}); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Sorted())
	}
}

func TestBuildProducesOneUnitPerModule(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.tl": `import { helper } from "./util"
export const x: number = helper()
`,
		"util.tl": `export function helper(): number { return 1 }`,
	})

	co, diags := newCoordinator(t)
	res, err := co.Build(context.Background(), []string{filepath.Join(dir, "main.tl")})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Sorted())
	}
	if len(res.Units) != 2 {
		t.Fatalf("got %d units, want 2", len(res.Units))
	}
	for _, u := range res.Units {
		if len(u.Lua) == 0 {
			t.Errorf("unit %s produced no Lua output", u.Path)
		}
	}
}

func TestBuildExportsVisibleFromDependency(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.tl": `export function helper(): number { return 1 }
export const answer: number = helper()
`,
	})

	co, diags := newCoordinator(t)
	res, err := co.Build(context.Background(), []string{filepath.Join(dir, "main.tl")})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Sorted())
	}
	if len(res.Units) != 1 {
		t.Fatalf("got %d units, want 1", len(res.Units))
	}
	exports := res.Units[0].Exports
	if len(exports) != 2 {
		t.Fatalf("got exports %v, want 2 entries", exports)
	}
}

func TestBuildCopiesLuaCompanionWhenConfigured(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.tl": `import { legacy } from "./legacy.lua"
export const z = legacy
`,
		"legacy.lua": `return { legacy = 1 }`,
		"legacy.d.tl": `export declare const legacy: number`,
	})

	co, diags := newCoordinator(t)
	co.cfg.AllowNonTypedLua = true
	co.cfg.CopyLuaToOutput = true
	res, err := co.Build(context.Background(), []string{filepath.Join(dir, "main.tl")})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Sorted())
	}
	if len(res.Companions) != 1 {
		t.Fatalf("got %d companions, want 1", len(res.Companions))
	}
	if !strings.HasSuffix(res.Companions[0].Path, "legacy.lua") {
		t.Errorf("companion path = %q, want suffix legacy.lua", res.Companions[0].Path)
	}
}

func TestBuildProducesSourceMapWhenConfigured(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.tl": `export const x: number = 1`,
	})

	co, diags := newCoordinator(t)
	co.cfg.SourceMap = true
	res, err := co.Build(context.Background(), []string{filepath.Join(dir, "main.tl")})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Sorted())
	}
	if len(res.Units) != 1 {
		t.Fatalf("got %d units, want 1", len(res.Units))
	}
	if len(res.Units[0].SourceMap) == 0 {
		t.Fatalf("expected a non-empty source map when cfg.SourceMap is set")
	}
}

func TestBuildOmitsSourceMapByDefault(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.tl": `export const x: number = 1`,
	})

	co, _ := newCoordinator(t)
	res, err := co.Build(context.Background(), []string{filepath.Join(dir, "main.tl")})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Units) != 1 {
		t.Fatalf("got %d units, want 1", len(res.Units))
	}
	if len(res.Units[0].SourceMap) != 0 {
		t.Errorf("expected no source map by default")
	}
}

func TestBuildCancellationStopsBeforeOutput(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.tl": `export const x: number = 1`,
	})

	co, _ := newCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := co.Build(ctx, []string{filepath.Join(dir, "main.tl")})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Units) != 0 {
		t.Errorf("got %d units after cancellation, want 0", len(res.Units))
	}
}
