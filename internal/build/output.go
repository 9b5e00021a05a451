// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteOutputs writes res's compiled Lua to outputRoot, one file per
// unit (or a single bundle file when res.Bundle is set), and when
// cfg.CopyLuaToOutput is set, copies every .lua companion file
// discovered during resolution alongside them, preserving each file's
// path relative to root (spec §4.7: ".lua sources referenced by
// typed-import are copied to the output tree preserving relative
// directory structure"). When cfg.SourceMap is set, each unit's
// `<name>.lua.map` is written alongside it; a bundle has no per-unit
// output file to attach a map to, so source maps are only produced in
// the one-file-per-unit output mode.

func (co *Coordinator) WriteOutputs(outputRoot string, root string, res *Result) error {
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return fmt.Errorf("create output root: %w", err)
	}

	if co.cfg.Bundle {
		dest := filepath.Join(outputRoot, co.cfg.BundleEntry)
		if filepath.Ext(dest) != ".lua" {
			dest += ".lua"
		}
		return writeFile(dest, res.Bundle)
	}

	for _, u := range res.Units {
		rel, err := relativeOutputPath(root, string(u.Path))
		if err != nil {
			return err
		}
		dest := filepath.Join(outputRoot, swapExt(rel, ".lua"))
		if err := writeFile(dest, u.Lua); err != nil {
			return err
		}
		if co.cfg.SourceMap && len(u.SourceMap) > 0 {
			if err := writeFile(dest+".map", u.SourceMap); err != nil {
				return err
			}
		}
	}

	for _, comp := range res.Companions {
		rel, err := relativeOutputPath(root, comp.Path)
		if err != nil {
			return err
		}
		dest := filepath.Join(outputRoot, rel)
		if err := writeFile(dest, comp.Data); err != nil {
			return err
		}
	}
	return nil
}

// relativeOutputPath maps path to a location under root, falling back
// to the file's base name when path doesn't live under root at all
// (e.g. a library-root dependency outside the project tree).
func relativeOutputPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path), nil
	}
	return rel, nil
}

func swapExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}

func writeFile(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create output dir for %s: %w", dest, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
