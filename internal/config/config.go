// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package config loads the compiler's JSON configuration document
// (spec §6 "Configuration"), tolerating the trailing commas and `//`
// comments a hand-edited `tlconfig.json` accumulates, the way the
// teacher's own config loader does for its manifest-adjacent config
// surfaces.
package config

import (
	"fmt"
	"os"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/tailscale/hujson"
)

// Target selects the Lua dialect the code generator emits for.
type Target string

const (
	Target51 Target = "5.1"
	Target52 Target = "5.2"
	Target53 Target = "5.3"
	Target54 Target = "5.4"
)

// OptimizationLevel gates which optimizer passes run (spec §4.6).
type OptimizationLevel string

const (
	O0 OptimizationLevel = "O0"
	O1 OptimizationLevel = "O1"
	O2 OptimizationLevel = "O2"
	O3 OptimizationLevel = "O3"
)

// CompilerConfig is the fully decoded `tlconfig.json` document (spec
// §6 Configuration).
type CompilerConfig struct {
	Target             Target            `json:"target"`
	OptimizationLevel  OptimizationLevel `json:"optimization_level"`
	Strict             bool              `json:"strict"`
	AllowNonTypedLua   bool              `json:"allow_non_typed_lua"`
	CopyLuaToOutput    bool              `json:"copy_lua_to_output"`
	Bundle             bool              `json:"bundle"`
	BundleEntry        string            `json:"entry"`
	TreeShaking        bool              `json:"tree_shaking"`
	ScopeHoisting      bool              `json:"scope_hoisting"`
	SourceMap          bool              `json:"source_map"`
	CacheDir           string            `json:"cache_dir"`
	LibraryRoots       []string          `json:"library_roots"`
}

// Default returns the configuration in effect when `tlconfig.json` is
// absent or omits a field.
func Default() *CompilerConfig {
	return &CompilerConfig{
		Target:            Target54,
		OptimizationLevel: O1,
		CacheDir:          ".typed-lua-cache",
	}
}

// Load reads and decodes the hujson configuration document at path,
// merging recognized fields onto Default. A missing file is not an
// error; it yields Default unchanged.
func Load(path string) (*CompilerConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	jsonData, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := jsonv2.Unmarshal(jsonData, cfg, jsonv2.RejectUnknownMembers(false)); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports an error if c names an unrecognized target or
// optimization level.
func (c *CompilerConfig) Validate() error {
	switch c.Target {
	case Target51, Target52, Target53, Target54:
	default:
		return fmt.Errorf("unrecognized target %q", c.Target)
	}
	switch c.OptimizationLevel {
	case O0, O1, O2, O3:
	default:
		return fmt.Errorf("unrecognized optimization_level %q", c.OptimizationLevel)
	}
	if c.Bundle && c.BundleEntry == "" {
		return fmt.Errorf("bundle requires an entry path")
	}
	return nil
}

// AtLeast reports whether c's optimization level is at least min,
// the ordering the optimizer pass registry gates on (spec §4.6).
func (c *CompilerConfig) AtLeast(min OptimizationLevel) bool {
	rank := map[OptimizationLevel]int{O0: 0, O1: 1, O2: 2, O3: 3}
	return rank[c.OptimizationLevel] >= rank[min]
}
