// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Target != Target54 || cfg.OptimizationLevel != O1 || cfg.CacheDir != ".typed-lua-cache" {
		t.Errorf("Load() = %+v, want Default()", cfg)
	}
}

func TestLoadTolerantOfCommentsAndTrailingCommas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tlconfig.json")
	const doc = `{
		// targets 5.3 for this project
		"target": "5.3",
		"strict": true,
		"library_roots": ["vendor/types", "vendor/extra",],
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Target != Target53 || !cfg.Strict {
		t.Errorf("Load() = %+v, want target=5.3 strict=true", cfg)
	}
	if len(cfg.LibraryRoots) != 2 {
		t.Errorf("LibraryRoots = %v, want 2 entries", cfg.LibraryRoots)
	}
}

func TestValidateRejectsUnknownTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tlconfig.json")
	if err := os.WriteFile(path, []byte(`{"target": "5.9"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with an unrecognized target should fail")
	}
}

func TestValidateRejectsBundleWithoutEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tlconfig.json")
	if err := os.WriteFile(path, []byte(`{"bundle": true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with bundle=true and no entry should fail")
	}
}

func TestAtLeast(t *testing.T) {
	cfg := Default()
	cfg.OptimizationLevel = O2
	if !cfg.AtLeast(O1) {
		t.Error("O2 should satisfy AtLeast(O1)")
	}
	if cfg.AtLeast(O3) {
		t.Error("O2 should not satisfy AtLeast(O3)")
	}
}
