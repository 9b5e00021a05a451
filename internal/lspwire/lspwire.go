// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package lspwire defines the LSP-shaped wire types for publishing
// diagnostics (spec §6: "standard JSON-RPC... diagnostics published
// per change after debounce"). It is deliberately transport-free: the
// JSON-RPC document lifecycle and message routing are out of scope
// (spec §1 lists the LSP transport among "external collaborators
// consuming core interfaces"), so this package only converts
// internal/diag.Diagnostic values into the structures an editor's
// textDocument/publishDiagnostics notification expects, encoded with
// the same github.com/go-json-experiment/json codec the rest of the
// compiler uses for its own on-disk formats.
package lspwire

import (
	jsonv2 "github.com/go-json-experiment/json"

	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/span"
)

// Position is a zero-based line/character pair, per the LSP spec's
// `Position` type. internal/span.Span is 1-based for human-readable
// CLI output; ToPosition does the 1-based-to-0-based conversion (spec
// §6: "span-to-range conversion treats line/column as 1-based in core
// and 0-based on the wire").
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span between two Positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Severity mirrors LSP's DiagnosticSeverity enum (1 = Error, 2 =
// Warning, 3 = Information, 4 = Hint). internal/diag has no Hint
// level, so that value is unused here.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
)

// Diagnostic is one wire-shaped diagnostic entry, matching LSP's
// `Diagnostic` structure closely enough for a client to render without
// a translation layer of its own.
type Diagnostic struct {
	Range    Range    `json:"range"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code,omitempty"`
	Source   string   `json:"source"`
	Message  string   `json:"message"`
}

// PublishDiagnosticsParams is the payload shape of a
// `textDocument/publishDiagnostics` notification.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     *int         `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// source is the LSP `source` field every diagnostic reports, so a
// client surfacing diagnostics from multiple tools can attribute
// these ones to the compiler.
const source = "tlc"

// ToPosition converts a 1-based core span.Span location to a 0-based
// LSP Position. A span with Line <= 0 (not produced by a real scan)
// maps to the origin.
func ToPosition(sp span.Span) Position {
	line := sp.Line - 1
	if line < 0 {
		line = 0
	}
	col := sp.Column - 1
	if col < 0 {
		col = 0
	}
	return Position{Line: line, Character: col}
}

// ToRange converts sp to a single-line LSP Range starting at sp's
// position and extending across its byte Length on the same line.
// Diagnostics that span multiple lines still render usefully in an
// editor gutter even though this undercounts the true end line, since
// internal/span.Span doesn't track the end line/column separately.
func ToRange(sp span.Span) Range {
	start := ToPosition(sp)
	end := start
	end.Character += sp.Length
	return Range{Start: start, End: end}
}

// FromDiagnostic converts one diag.Diagnostic into its wire shape.
func FromDiagnostic(d diag.Diagnostic) Diagnostic {
	return Diagnostic{
		Range:    ToRange(d.Span),
		Severity: severityOf(d.Level),
		Code:     string(d.Kind),
		Source:   source,
		Message:  d.Message,
	}
}

func severityOf(l diag.Level) Severity {
	switch l {
	case diag.Error:
		return SeverityError
	case diag.Warning:
		return SeverityWarning
	default:
		return SeverityInformation
	}
}

// PublishParams groups h's sorted diagnostics by file URI into one
// PublishDiagnosticsParams per file, the shape a language server
// sends one notification per open document (spec §6: "diagnostics
// published per change after debounce"). uriOf converts a
// diag.File's path into the document URI the editor opened it with;
// callers that track the original URI per file should pass a uriOf
// that looks it up instead of synthesizing one.
func PublishParams(h *diag.Handler, files map[int32]diag.File, uriOf func(diag.File) string) []PublishDiagnosticsParams {
	byFile := make(map[int32][]Diagnostic)
	var order []int32
	for _, d := range h.Sorted() {
		id := int32(d.File.ID)
		if _, ok := byFile[id]; !ok {
			order = append(order, id)
		}
		byFile[id] = append(byFile[id], FromDiagnostic(d))
	}

	out := make([]PublishDiagnosticsParams, 0, len(order))
	for _, id := range order {
		f, ok := files[id]
		if !ok {
			continue
		}
		out = append(out, PublishDiagnosticsParams{
			URI:         uriOf(f),
			Diagnostics: byFile[id],
		})
	}
	return out
}

// Marshal encodes v using the same JSON codec the rest of the
// compiler uses for its wire and on-disk formats.
func Marshal(v any) ([]byte, error) {
	return jsonv2.Marshal(v)
}
