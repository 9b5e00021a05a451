// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package lspwire

import (
	"encoding/json"
	"testing"

	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/span"
)

func TestToPositionConvertsOneBasedToZeroBased(t *testing.T) {
	got := ToPosition(span.Span{Line: 3, Column: 5})
	want := Position{Line: 2, Character: 4}
	if got != want {
		t.Errorf("ToPosition() = %+v, want %+v", got, want)
	}
}

func TestToPositionClampsNonPositiveLineAndColumn(t *testing.T) {
	got := ToPosition(span.Span{Line: 0, Column: 0})
	want := Position{Line: 0, Character: 0}
	if got != want {
		t.Errorf("ToPosition() = %+v, want %+v", got, want)
	}
}

func TestToRangeExtendsByLength(t *testing.T) {
	got := ToRange(span.Span{Line: 1, Column: 1, Length: 4})
	want := Range{Start: Position{Line: 0, Character: 0}, End: Position{Line: 0, Character: 4}}
	if got != want {
		t.Errorf("ToRange() = %+v, want %+v", got, want)
	}
}

func TestFromDiagnosticMapsSeverity(t *testing.T) {
	d := diag.Diagnostic{
		Level:   diag.Error,
		Kind:    diag.Resolution,
		Message: "cannot resolve module",
		Span:    span.Span{Line: 1, Column: 1, Length: 3},
	}
	got := FromDiagnostic(d)
	if got.Severity != SeverityError {
		t.Errorf("Severity = %v, want SeverityError", got.Severity)
	}
	if got.Message != d.Message {
		t.Errorf("Message = %q, want %q", got.Message, d.Message)
	}
	if got.Source != "tlc" {
		t.Errorf("Source = %q, want %q", got.Source, "tlc")
	}
}

func TestFromDiagnosticDefaultsUnknownLevelsToInformation(t *testing.T) {
	got := FromDiagnostic(diag.Diagnostic{Level: diag.Info})
	if got.Severity != SeverityInformation {
		t.Errorf("Severity = %v, want SeverityInformation", got.Severity)
	}
}

func TestPublishParamsGroupsByFileInFirstSeenOrder(t *testing.T) {
	h := diag.NewHandler()
	fileA := diag.File{ID: 2, Path: "/a.tl"}
	fileB := diag.File{ID: 1, Path: "/b.tl"}
	h.Reportf(diag.Error, diag.Resolution, fileA, span.Span{Line: 1, Column: 1}, "first")
	h.Reportf(diag.Warning, diag.Resolution, fileB, span.Span{Line: 2, Column: 1}, "second")
	h.Reportf(diag.Error, diag.Resolution, fileA, span.Span{Line: 3, Column: 1}, "third")

	files := map[int32]diag.File{2: fileA, 1: fileB}
	params := PublishParams(h, files, func(f diag.File) string { return "file://" + f.Path })

	if len(params) != 2 {
		t.Fatalf("got %d params, want 2", len(params))
	}
	if params[0].URI != "file:///a.tl" {
		t.Errorf("params[0].URI = %q, want file:///a.tl (first-seen file)", params[0].URI)
	}
	if len(params[0].Diagnostics) != 2 {
		t.Errorf("got %d diagnostics for /a.tl, want 2", len(params[0].Diagnostics))
	}
	if params[1].URI != "file:///b.tl" {
		t.Errorf("params[1].URI = %q, want file:///b.tl", params[1].URI)
	}
}

func TestMarshalProducesValidJSON(t *testing.T) {
	params := PublishDiagnosticsParams{
		URI: "file:///a.tl",
		Diagnostics: []Diagnostic{
			{Range: Range{}, Severity: SeverityError, Source: "tlc", Message: "boom"},
		},
	}
	raw, err := Marshal(params)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if out["uri"] != "file:///a.tl" {
		t.Errorf("uri = %v, want file:///a.tl", out["uri"])
	}
}
