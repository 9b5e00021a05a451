// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package diag provides the diagnostic sink shared by every phase of the
// compiler pipeline (spec §7). Diagnostics accumulate rather than abort:
// lexing, parsing, and type checking continue past recoverable errors so
// a single run can surface many issues, and a phase only refuses to run
// the next phase for a unit once it ends with errors present.
package diag

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"typedlua.dev/tlc/internal/span"
)

// Level is the severity of a Diagnostic.
type Level int

const (
	Info Level = iota
	Warning
	Error
)

// String renders the level the way it appears in CLI output: "error",
// "warning", "info".
func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Kind categorizes a Diagnostic by compiler phase, per spec §7's
// taxonomy. It does not affect severity.
type Kind string

const (
	Lexical     Kind = "lexical"
	Syntactic   Kind = "syntactic"
	Resolution  Kind = "resolution"
	TypeKind    Kind = "type"
	Access      Kind = "access"
	Emit        Kind = "emit"
	CacheKind   Kind = "cache"
	Cancelled   Kind = "cancellation"
)

// File identifies the source file a Diagnostic refers to, for sorting
// and for printing a path instead of a bare FileID.
type File struct {
	ID   span.FileID
	Path string
}

// Diagnostic is a single reported issue.
type Diagnostic struct {
	Level   Level
	Kind    Kind
	Message string
	Span    span.Span
	File    File
}

// String formats the diagnostic as "level file:line:col kind — message",
// matching spec §7's user-visible output shape.
func (d Diagnostic) String() string {
	path := d.File.Path
	if path == "" {
		path = "<unknown>"
	}
	return fmt.Sprintf("%s %s:%s %s — %s", d.Level, path, d.Span, d.Kind, d.Message)
}

// Handler is the process-wide mutable diagnostic sink. It is the only
// shared mutable resource besides the interner (spec §5 Resource
// policy) and must serialize appends, since multiple workers may report
// diagnostics for different compilation units concurrently.
type Handler struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// NewHandler returns an empty Handler. Tests construct a fresh Handler
// per case so diagnostics from one test never leak into another.
func NewHandler() *Handler {
	return &Handler{}
}

// Report appends d to the handler.
func (h *Handler) Report(d Diagnostic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.diags = append(h.diags, d)
}

// Reportf is a convenience wrapper around Report.
func (h *Handler) Reportf(level Level, kind Kind, file File, sp span.Span, format string, args ...any) {
	h.Report(Diagnostic{Level: level, Kind: kind, Message: fmt.Sprintf(format, args...), Span: sp, File: file})
}

// HasErrors reports whether any reported diagnostic is at Error level.
func (h *Handler) HasErrors() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.diags {
		if d.Level == Error {
			return true
		}
	}
	return false
}

// Counts returns the number of errors and warnings reported so far, for
// the terminal summary line ("N errors, M warnings").
func (h *Handler) Counts() (errors, warnings int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.diags {
		switch d.Level {
		case Error:
			errors++
		case Warning:
			warnings++
		}
	}
	return errors, warnings
}

// Sorted returns a copy of all reported diagnostics ordered by
// (file, line, column, message), the determinism guarantee of spec §5:
// diagnostic order must not depend on worker scheduling.
func (h *Handler) Sorted() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := slices.Clone(h.diags)
	slices.SortFunc(out, func(a, b Diagnostic) int {
		if c := cmp.Compare(a.File.Path, b.File.Path); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Span.Line, b.Span.Line); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Span.Column, b.Span.Column); c != 0 {
			return c
		}
		return cmp.Compare(a.Message, b.Message)
	})
	return out
}

// Reset clears all reported diagnostics. Used between builds that reuse
// a Handler (e.g. the LSP-diagnostics CLI path re-checking on each call).
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.diags = h.diags[:0]
}
