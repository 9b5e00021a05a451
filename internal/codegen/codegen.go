// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package codegen lowers a typed, optimized AST to Lua source text for a
// selected target dialect (spec §4.7). It is a single-pass emitter: each
// statement and expression is rendered directly to a [bytewriter.Buffer],
// consulting the optimizer's [optimize.Context] annotations (table
// preallocation sizes, hoisted globals, tail-self-calls, devirtualized
// call targets, flattened concat chains, generic specializations, and
// loop-invariant hoists) as it walks the tree codegen never re-derives
// those analyses itself.
package codegen

import (
	"fmt"
	"io"
	"strings"

	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/bytewriter"
	"typedlua.dev/tlc/internal/config"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/optimize"
	"typedlua.dev/tlc/internal/span"
)

// Generator renders one compilation unit's AST to Lua text. A Generator
// is not safe for concurrent use; the build coordinator (internal/build)
// gives each worker its own Generator over its own arena and AST, per
// spec §5's "each worker owns its own arena and interner view".
type Generator struct {
	cfg    *config.CompilerConfig
	in     *interner.Interner
	common interner.Common
	opt    *optimize.Context
	diags  *diag.Handler
	file   diag.File

	out         *bytewriter.Buffer
	indent      int
	tmp         int
	emittedLine int
	sourceMap   []SourceMapEntry

	// classStack records the enclosing class name, for `super` lowering.
	classStack []classFrame
}

type classFrame struct {
	name   interner.ID
	parent interner.ID
	hasParent bool
}

// New returns a Generator targeting cfg.Target, resolving identifiers
// through in, and recording emit-phase diagnostics (e.g. a construct with
// no representation on the selected target, spec §4.7) against file.
func New(cfg *config.CompilerConfig, in *interner.Interner, common interner.Common, opt *optimize.Context, diags *diag.Handler, file diag.File) *Generator {
	return &Generator{
		cfg:    cfg,
		in:     in,
		common: common,
		opt:    opt,
		diags:  diags,
		file:   file,
		out:    bytewriter.New(nil),
	}
}

// Generate lowers prog to Lua source text. The returned bytes are valid
// even when diagnostics were reported against g's handler; callers check
// diags.HasErrors() before writing output, per spec §7 (diagnostics
// accumulate rather than abort generation of the rest of the unit).
func (g *Generator) Generate(prog *ast.Program) []byte {
	g.line("-- Code generated by tlc; DO NOT EDIT.")
	g.line("-- target: %s", g.cfg.Target)
	for i := range prog.Statements {
		g.statement(&prog.Statements[i])
	}
	// A Lua chunk permits at most one return, as its final statement; a
	// unit whose top level already ends in one (unusual for an
	// export-based module, but not forbidden) keeps that return instead
	// of getting a second one appended after it.
	if n := len(prog.Statements); n == 0 || prog.Statements[n-1].Kind != ast.StmtReturn {
		g.exportTable(prog)
	}
	return g.Bytes()
}

// exportTable emits the trailing `return { name = name, ... }` every
// unit needs so that Lua's own `require` (or this module's __require, in
// a bundle) yields something a caller can pull exported bindings out of;
// without it, requiring a unit that declared no `return` of its own
// would hand the caller Lua's default truthy sentinel instead of the
// unit's exports.
func (g *Generator) exportTable(prog *ast.Program) {
	names := g.exportNames(prog)
	if len(names) == 0 {
		g.line("return {}")
		return
	}
	g.line("return {")
	g.indented(func() {
		for _, n := range names {
			g.line("%s = %s,", n, n)
		}
	})
	g.line("}")
}

// exportNames lists the locally-bound Lua identifiers a unit's top-level
// export statements make visible, in declaration order. This mirrors
// internal/build.collectExports' walk of the same statements, but
// returns rendered Lua identifier text (via g.name) rather than interned
// symbol names, since it feeds straight into emitted source here instead
// of a cache payload.
func (g *Generator) exportNames(prog *ast.Program) []string {
	var out []string
	for i := range prog.Statements {
		s := &prog.Statements[i]
		if s.Kind != ast.StmtExport {
			continue
		}
		e := s.Export
		if len(e.Names) > 0 {
			for _, spec := range e.Names {
				id := spec.Name.Name
				if spec.Alias != nil {
					id = spec.Alias.Name
				}
				out = append(out, g.name(id))
			}
			continue
		}
		if e.Decl == nil {
			continue
		}
		if id, ok := g.exportDeclName(e.Decl); ok {
			out = append(out, g.name(id))
		}
	}
	return out
}

func (g *Generator) exportDeclName(s *ast.Statement) (interner.ID, bool) {
	switch s.Kind {
	case ast.StmtVarDecl:
		if s.VarDecl.Name != nil {
			return s.VarDecl.Name.Name, true
		}
	case ast.StmtFunctionDecl:
		return s.Function.Name.Name, true
	case ast.StmtClassDecl:
		return s.Class.Name.Name, true
	case ast.StmtEnumDecl:
		return s.Enum.Name.Name, true
	}
	return 0, false
}

// Bytes returns everything written to g's buffer so far, without
// disturbing the buffer's write position (Generate, and anything that
// emits after it, keep appending from where they left off).
func (g *Generator) Bytes() []byte { return bufferBytes(g.out) }

func (g *Generator) line(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	fmt.Fprint(g.out, strings.Repeat("  ", g.indent))
	fmt.Fprint(g.out, text)
	fmt.Fprint(g.out, "\n")
	// text may itself span several lines (an IIFE or function literal
	// rendered by g.expr), and each of them is an emitted line.
	g.emittedLine += 1 + strings.Count(text, "\n")
}

// SourceMap returns the line-to-source mapping accumulated while
// Generate ran, or nil when cfg.SourceMap is unset.
func (g *Generator) SourceMap() []SourceMapEntry { return g.sourceMap }

// mapSpan records that the next line g.line writes originates from sp,
// unless a mapping for that line was already recorded by an enclosing
// statement (the outermost statement covering a given emitted line wins,
// since it is the one whose source position best describes "where this
// line came from" for a reader of the map).
func (g *Generator) mapSpan(sp span.Span) {
	if !g.cfg.SourceMap || sp.Line == 0 {
		return
	}
	next := g.emittedLine + 1
	if n := len(g.sourceMap); n > 0 && g.sourceMap[n-1].Line == next {
		return
	}
	g.sourceMap = append(g.sourceMap, SourceMapEntry{
		Line:         next,
		File:         g.file.Path,
		SourceLine:   sp.Line,
		SourceColumn: sp.Column,
	})
}

func (g *Generator) indented(fn func()) {
	g.indent++
	fn()
	g.indent--
}

// newTemp returns a fresh, source-unreachable local name, used for
// compiler-introduced temporaries (null-coalesce, safe-nav, preheader
// hoists, pattern-match discriminant bindings). The lexer does not
// reserve this shape: a source identifier spelled "_tl" followed by
// digits is accepted as an ordinary name and can collide with a
// temporary.
func (g *Generator) newTemp() string {
	g.tmp++
	return fmt.Sprintf("_tl%d", g.tmp)
}

// name resolves id to its source text, escaping it if it collides with a
// Lua reserved word so the emitted identifier always parses as a Name.
func (g *Generator) name(id interner.ID) string {
	s := g.in.MustLookup(id)
	if luaKeywords[s] {
		return s + "_tl"
	}
	return s
}

var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "nil": true, "not": true,
	"or": true, "repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

// atLeast53 reports whether g's target natively supports integer
// division, bitwise operators, and goto-based control constructs (spec
// §4.7 "Target-version divergence").
func (g *Generator) atLeast53() bool {
	return g.cfg.Target == config.Target53 || g.cfg.Target == config.Target54
}

func (g *Generator) errorf(sp span.Span, format string, args ...any) {
	g.diags.Reportf(diag.Error, diag.Emit, g.file, sp, format, args...)
}

func newBuffer() *bytewriter.Buffer { return bytewriter.New(nil) }

// bufferBytes returns everything written to buf without disturbing its
// write position, the same Seek-then-read trick Generator.Bytes uses,
// for callers (like Bundle) composing output in a standalone buffer
// rather than through a Generator.
func bufferBytes(buf *bytewriter.Buffer) []byte {
	pos, _ := buf.Seek(0, io.SeekCurrent)
	defer buf.Seek(pos, io.SeekStart)
	buf.Seek(0, io.SeekStart)
	b, _ := io.ReadAll(buf)
	return b
}

// paramPreamble emits the statements every function/method body needs
// before its own statements run: rest parameters get packed into a
// table, and optional parameters with a default get the Lua idiom
// `if param == nil then param = default end`, since Lua has no syntax
// for a parameter default of its own.
func (g *Generator) paramPreamble(params []ast.Parameter) {
	for _, p := range params {
		switch {
		case p.Rest:
			g.line("local %s = { ... }", g.name(p.Name.Name))
		case p.Default.Span.IsValid():
			n := g.name(p.Name.Name)
			g.line("if %s == nil then %s = %s end", n, n, g.expr(&p.Default))
		}
	}
}
