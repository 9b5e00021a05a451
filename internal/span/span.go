// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package span provides source location tracking shared across the
// lexer, parser, type checker, and diagnostic handler.
package span

import "fmt"

// FileID identifies a source file within a single compilation.
// File IDs are assigned by the module resolver and are stable only for
// the lifetime of one build.
type FileID int32

// Span is a source location: a byte range within a file, along with the
// line and column of its start for human-readable diagnostics.
// Spans are copied by value; they do not own the source text.
type Span struct {
	File   FileID
	Offset int
	Length int
	Line   int
	Column int
}

// New returns a Span with the given fields.
func New(file FileID, offset, length, line, column int) Span {
	return Span{File: file, Offset: offset, Length: length, Line: line, Column: column}
}

// End returns the byte offset just past the span.
func (s Span) End() int {
	return s.Offset + s.Length
}

// IsValid reports whether s has a positive line number, as produced by
// the lexer. The zero Span is never valid.
func (s Span) IsValid() bool {
	return s.Line > 0
}

// String formats the span as "line:column", matching the form used in
// diagnostic output.
func (s Span) String() string {
	if !s.IsValid() {
		return "<invalid span>"
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// Join returns the smallest Span covering both a and b.
// a and b must belong to the same file.
func Join(a, b Span) Span {
	if !a.IsValid() {
		return b
	}
	if !b.IsValid() {
		return a
	}
	start, end := a, b
	if b.Offset < a.Offset {
		start, end = b, a
	}
	length := (end.Offset + end.Length) - start.Offset
	if length < 0 {
		length = start.Length
	}
	return Span{File: start.File, Offset: start.Offset, Length: length, Line: start.Line, Column: start.Column}
}
