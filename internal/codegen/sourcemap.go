// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	jsonv2 "github.com/go-json-experiment/json"
)

// SourceMapEntry maps one emitted line of Lua output back to the
// (file, line, column) of the TypedLua statement that produced it (spec
// §4.7: "optional, line-level mapping from emitted Lua line to source
// (file, line, column)"). This is this compiler's own flat encoding
// rather than the VLQ-packed Source Map v3 format: nothing downstream
// needs interoperability with a JavaScript source-map consumer, only
// tlc's own tooling reads a `.lua.map` back.
type SourceMapEntry struct {
	Line         int    `json:"line"`
	File         string `json:"file"`
	SourceLine   int    `json:"source_line"`
	SourceColumn int    `json:"source_column"`
}

// MarshalSourceMap encodes entries with the same JSON codec
// internal/lspwire and internal/cache use for the rest of the
// compiler's own wire and on-disk formats.
func MarshalSourceMap(entries []SourceMapEntry) ([]byte, error) {
	return jsonv2.Marshal(entries)
}
