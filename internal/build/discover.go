// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"zombiezen.com/go/log"

	"typedlua.dev/tlc/internal/arena"
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/lexer"
	"typedlua.dev/tlc/internal/parser"
	"typedlua.dev/tlc/internal/resolve"
	"typedlua.dev/tlc/internal/span"
)

// unitState is one module discovered by the build: its resolved path,
// source text, parsed program, and the dependency paths its imports
// named. deps is tracked locally rather than read back from the
// resolve.Graph, since Graph keeps its edge table unexported and
// exposes only TopoSort/DirtyClosure as services (spec §5's scheduling
// and invalidation rules are about ordering, not edge introspection).
type unitState struct {
	path Path
	file span.FileID
	src  string
	prog *ast.Program
	deps []Path

	arena *arena.Arena

	done    chan struct{}
	lua     bool // true once this unit is confirmed a .lua companion, not a .tl unit
	luaSrc  string
	luaPath string
}

// Path is this package's alias for a resolved module path, so callers
// don't need to import internal/resolve directly for a Coordinator's
// public surface.
type Path = resolve.Path

// discover BFS-walks entryPaths and their transitive imports, lexing
// and parsing every .tl unit it finds. It builds a resolve.Graph purely
// to get TopoSort's cycle classification (spec §4.5: a cycle is only
// an error when it includes a value import; a type-only cycle is
// permitted), while each unit's own dependency list is tracked in
// unitState.deps for the scheduler to wait on directly.
func (co *Coordinator) discover(ctx context.Context, entryPaths []string) (map[Path]*unitState, *resolve.Graph, error) {
	units := make(map[Path]*unitState)
	graph := resolve.NewGraph()
	nextFile := span.FileID(1)

	var queue []Path
	for _, entry := range entryPaths {
		abs, err := filepath.Abs(entry)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve entry %q: %w", entry, err)
		}
		p := Path(abs)
		if _, ok := units[p]; ok {
			continue
		}
		units[p] = nil // reserve, filled below
		queue = append(queue, p)
	}

	for len(queue) > 0 {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		p := queue[0]
		queue = queue[1:]
		if units[p] != nil {
			continue
		}

		data, err := os.ReadFile(string(p))
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", p, err)
		}

		fileID := nextFile
		nextFile++
		diagFile := diag.File{ID: fileID, Path: string(p)}

		lex := lexer.New(string(data), fileID, string(p), co.interner, co.diags)
		a := arena.New()
		par := parser.New(lex, fileID, string(p), a, co.interner, co.common, co.diags)
		prog := par.Parse()

		u := &unitState{
			path:  p,
			file:  fileID,
			src:   string(data),
			prog:  prog,
			arena: a,
			done:  make(chan struct{}),
		}
		units[p] = u
		graph.AddModule(p)

		dir := filepath.Dir(string(p))
		for i := range prog.Statements {
			s := &prog.Statements[i]
			target, typeOnly, ok := importTarget(s)
			if !ok {
				continue
			}
			dep, err := resolve.Resolve(dir, target, co.cfg.LibraryRoots, co.cfg.AllowNonTypedLua)
			if err != nil {
				co.diags.Reportf(diag.Error, diag.Resolution, diagFile, s.Span, "%v", err)
				continue
			}
			graph.AddImport(p, dep, typeOnly)
			u.deps = append(u.deps, dep)
			canonicalizeImportPath(s, string(dep))
			if isLuaCompanion(string(dep)) {
				if _, seen := units[dep]; !seen {
					if src, err := os.ReadFile(string(dep)); err == nil {
						units[dep] = &unitState{path: dep, lua: true, luaSrc: string(src), luaPath: string(dep), done: make(chan struct{})}
						close(units[dep].done)
					}
				}
				continue
			}
			if _, seen := units[dep]; !seen {
				units[dep] = nil
				queue = append(queue, dep)
			}
		}
	}

	log.Debugf(ctx, "build: discovered %d units", len(units))
	return units, graph, nil
}

// importTarget extracts the import path from a statement, covering
// both `import` declarations and `export { x } from "path"` re-exports
// (spec §4.4 resolution applies identically to both forms). The
// surface syntax has no type-only import form of its own; whether an
// import is type-only in the graph-cycle sense (spec §4.5) is a
// property of how the imported names are used, which the checker
// determines, not something discoverable from the import statement
// alone. Discovery conservatively marks every edge a value import, so
// a cycle the checker would have permitted as type-only is instead
// reported as an error here; it never misses a real cycle.
func importTarget(s *ast.Statement) (path string, typeOnly bool, ok bool) {
	switch s.Kind {
	case ast.StmtImport:
		if s.Import.Path == "" {
			return "", false, false
		}
		return s.Import.Path, false, true
	case ast.StmtExport:
		if s.Export.FromPath != nil {
			return *s.Export.FromPath, false, true
		}
	}
	return "", false, false
}

func isLuaCompanion(path string) bool {
	return filepath.Ext(path) == ".lua"
}

// canonicalizeImportPath rewrites s's source-literal import path (e.g.
// "./util", possibly relative to a different directory in every file
// that imports it) to the resolved canonical path, in place on the AST,
// before codegen ever sees it. Two files importing the same dependency
// by different relative spellings must emit the same require() literal,
// or a bundle's __modules registry (keyed by canonical path) and a
// require() call naming the dependency by its original, file-relative
// spelling would never agree on a key.
func canonicalizeImportPath(s *ast.Statement, canonical string) {
	switch s.Kind {
	case ast.StmtImport:
		s.Import.Path = canonical
	case ast.StmtExport:
		s.Export.FromPath = &canonical
	}
}
