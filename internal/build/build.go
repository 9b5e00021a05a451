// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package build coordinates a multi-unit compile: discovery and
// resolution, dependency-ordered scheduling across a worker pool,
// incremental cache lookups, and the per-unit check/optimize/codegen
// pipeline, per spec §5's concurrency and resource model.
package build

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"zombiezen.com/go/log"
	"zombiezen.com/go/xcontext"

	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/cache"
	"typedlua.dev/tlc/internal/check"
	"typedlua.dev/tlc/internal/codegen"
	"typedlua.dev/tlc/internal/config"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/optimize"
	"typedlua.dev/tlc/internal/resolve"
	"typedlua.dev/tlc/internal/span"
)

// Coordinator runs a build over a set of entry modules. One Coordinator
// compiles one project with one configuration; its interner and
// diagnostic handler are shared read-only/append-only state across
// every worker, per spec §5's resource policy: "the interner is
// append-only... the diagnostic handler is the only mutable
// process-wide resource, serializing appends" (already true of
// diag.Handler's internal mutex).
type Coordinator struct {
	cfg      *config.CompilerConfig
	interner *interner.Interner
	common   interner.Common
	diags    *diag.Handler
	cache    *cache.Cache

	sem chan struct{}

	cacheWG sync.WaitGroup
}

// New returns a Coordinator for cfg. c may be nil, meaning the build
// runs with caching disabled.
func New(cfg *config.CompilerConfig, diags *diag.Handler, c *cache.Cache) *Coordinator {
	in, common := interner.NewWithCommon()
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{
		cfg:      cfg,
		interner: in,
		common:   common,
		diags:    diags,
		cache:    c,
		sem:      make(chan struct{}, workers),
	}
}

// UnitResult is one compiled module's output.
type UnitResult struct {
	Path    Path
	Lua     []byte
	Exports []string

	// SourceMap is the serialized line-to-source mapping for Lua, set
	// only when cfg.SourceMap is true (spec §4.7).
	SourceMap []byte
}

// CompanionFile is a .lua source accepted via a typed-import (spec
// §4.4's allow_non_typed_lua path) that cfg.CopyLuaToOutput asks to be
// mirrored into the output tree alongside the compiled units.
type CompanionFile struct {
	Path string
	Data []byte
}

// Result is the outcome of a whole-project Build.
type Result struct {
	Units      []UnitResult
	Bundle     []byte // set only when cfg.Bundle
	Companions []CompanionFile
}

// Build compiles every unit reachable from entryPaths, respecting
// dependency order, and returns one UnitResult per .tl unit discovered.
// Build never partially commits a cache entry and never returns an
// output for a unit whose build was cancelled (spec §5 "Cancellation").
func (co *Coordinator) Build(ctx context.Context, entryPaths []string) (*Result, error) {
	units, graph, err := co.discover(ctx, entryPaths)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled during discovery: no unit has output, and
			// cancellation is not reported as a build failure.
			return &Result{}, nil
		}
		return nil, err
	}

	if _, _, err := graph.TopoSort(); err != nil {
		var cycleErr *resolve.CycleError
		if ok := asCycleError(err, &cycleErr); ok {
			co.diags.Reportf(diag.Error, diag.Resolution, diag.File{}, span.Span{}, "%v", cycleErr)
		} else {
			return nil, err
		}
	}

	outputs := make(map[Path]UnitResult, len(units))
	var mu sync.Mutex

	// Every unit's goroutine is launched unconditionally — bounded
	// naturally by project size — rather than gated by errgroup's own
	// SetLimit, since a goroutine blocked in waitDeps would otherwise
	// occupy one of a bounded pool's slots while waiting on a sibling
	// that needs a slot to make progress. grp only supplies WithContext
	// cancellation propagation and Wait(); the bounded co.sem semaphore
	// below gates the actual CPU-bound compile work (spec §5 scheduling).
	grp, grpCtx := errgroup.WithContext(ctx)
	for path, u := range units {
		if u.lua {
			continue
		}
		path, u := path, u
		grp.Go(func() error {
			defer close(u.done)

			if !co.waitDeps(grpCtx, units, u) {
				return grpCtx.Err()
			}

			select {
			case co.sem <- struct{}{}:
				defer func() { <-co.sem }()
			case <-grpCtx.Done():
				log.Debugf(ctx, "build: %s cancelled before a worker slot was available", path)
				return grpCtx.Err()
			}

			out, ok := co.compileUnit(grpCtx, units, u)
			if !ok {
				return nil
			}
			mu.Lock()
			outputs[path] = out
			mu.Unlock()
			return nil
		})
	}
	_ = grp.Wait()
	co.cacheWG.Wait()

	res := &Result{}
	var modules []codegen.Module
	for _, u := range units {
		if u.lua {
			if co.cfg.CopyLuaToOutput {
				res.Companions = append(res.Companions, CompanionFile{Path: u.luaPath, Data: []byte(u.luaSrc)})
			}
			continue
		}
		out, ok := outputs[u.path]
		if !ok {
			continue
		}
		res.Units = append(res.Units, out)
		modules = append(modules, codegen.Module{
			Path:    string(u.path),
			Body:    out.Lua,
			Exports: out.Exports,
		})
	}

	if co.cfg.Bundle && len(modules) > 0 {
		entry := co.cfg.BundleEntry
		if entry == "" && len(entryPaths) > 0 {
			abs, _ := filepath.Abs(entryPaths[0])
			entry = abs
		}
		gen := codegen.New(co.cfg, co.interner, co.common, optimize.NewContext(co.cfg, &ast.Program{}), co.diags, diag.File{})
		res.Bundle = gen.Bundle(modules, entry)
	}

	return res, nil
}

// waitDeps blocks until every dependency of u has finished (or the
// context is cancelled), without holding a compute-pool slot while it
// waits. Decoupling "wait for dependencies" from "hold a worker slot"
// avoids the deadlock a bounded errgroup would risk if a blocked
// waiter held the only slots a dependency needs to run (spec §5
// scheduling: "a unit is not scheduled until all of its transitive
// dependencies... have completed").
func (co *Coordinator) waitDeps(ctx context.Context, units map[Path]*unitState, u *unitState) bool {
	for _, dep := range u.deps {
		d, ok := units[dep]
		if !ok || d == u {
			continue
		}
		select {
		case <-d.done:
		case <-ctx.Done():
			return false
		}
	}
	return ctx.Err() == nil
}

// compileUnit runs the cache lookup, and on a miss, check → optimize →
// codegen, for one unit. Cache stores are detached from ctx: once a
// unit has produced a valid payload, the write runs to completion even
// if a sibling unit's failure cancels the build context, so a store
// never observes a half-finished write as the reason to abandon it
// (spec §5: "no partially-written cache entry is ever committed" — the
// atomic temp-file rename in internal/cache already guarantees that at
// the filesystem level; detaching the write from ctx additionally
// guarantees a write that was going to succeed does, rather than being
// orphaned mid-flight by cancellation of an unrelated goroutine).
func (co *Coordinator) compileUnit(ctx context.Context, units map[Path]*unitState, u *unitState) (UnitResult, bool) {
	if ctx.Err() != nil {
		co.diags.Reportf(diag.Info, diag.Cancelled, diag.File{ID: u.file, Path: string(u.path)}, u.prog.Span, "build cancelled before %s was compiled", u.path)
		return UnitResult{}, false
	}

	file := diag.File{ID: u.file, Path: string(u.path)}
	sourceHash := cache.HashBytes([]byte(u.src))
	depHashes := make([]cache.Hash, 0, len(u.deps))
	for _, dep := range u.deps {
		if d, ok := units[dep]; ok && !d.lua {
			depHashes = append(depHashes, cache.HashBytes([]byte(d.src)))
		}
	}

	var payload *cache.Payload
	if co.cache != nil && !co.cache.Dirty(string(u.path), sourceHash, depHashes) {
		if p, err := co.cache.Load(string(u.path)); err == nil {
			payload = p
			log.Infof(ctx, "build: cache hit for %s", u.path)
		}
	}

	if payload != nil {
		u.prog = &ast.Program{File: u.file, Statements: payload.AST.Statements, Span: payload.AST.Span}
	} else {
		log.Debugf(ctx, "build: checking %s", u.path)
		checker := check.New(co.interner, co.common, co.diags, file)
		checker.CheckProgram(u.prog)
		if co.cache != nil {
			block := &ast.Block{Statements: u.prog.Statements, Span: u.prog.Span}
			store := &cache.Payload{AST: block, Exports: collectExports(u.prog, co.interner), Symbols: checker.Symbols().All()}
			co.cacheWG.Add(1)
			storeCtx := xcontext.Detach(ctx)
			go func(path string, src cache.Hash, deps []cache.Hash, p *cache.Payload) {
				defer co.cacheWG.Done()
				if err := co.cache.Store(path, src, deps, p); err != nil {
					log.Errorf(storeCtx, "build: cache store failed for %s: %v", path, err)
				}
			}(string(u.path), sourceHash, append([]cache.Hash(nil), depHashes...), store)
		}
	}

	if ctx.Err() != nil {
		return UnitResult{}, false
	}

	opt := optimize.Run(co.cfg, u.prog)
	gen := codegen.New(co.cfg, co.interner, co.common, opt.Ctx, co.diags, file)
	lua := gen.Generate(u.prog)

	var smap []byte
	if co.cfg.SourceMap {
		if m, err := codegen.MarshalSourceMap(gen.SourceMap()); err == nil {
			smap = m
		} else {
			log.Errorf(ctx, "build: encode source map for %s: %v", u.path, err)
		}
	}

	exports := collectExports(u.prog, co.interner)
	return UnitResult{Path: u.path, Lua: lua, Exports: exports, SourceMap: smap}, true
}

// collectExports lists the names a program's top-level export
// declarations make visible to importers, for Payload.Exports and for
// Bundle's module registry entries.
func collectExports(prog *ast.Program, in *interner.Interner) []string {
	var out []string
	for i := range prog.Statements {
		s := &prog.Statements[i]
		if s.Kind != ast.StmtExport {
			continue
		}
		e := s.Export
		if len(e.Names) > 0 {
			for _, spec := range e.Names {
				name := spec.Name
				if spec.Alias != nil {
					name = *spec.Alias
				}
				out = append(out, in.MustLookup(name.Name))
			}
			continue
		}
		if e.Decl == nil {
			continue
		}
		if name, ok := declName(e.Decl); ok {
			out = append(out, in.MustLookup(name))
		}
	}
	return out
}

func declName(s *ast.Statement) (interner.ID, bool) {
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

func asCycleError(err error, target **resolve.CycleError) bool {
	ce, ok := err.(*resolve.CycleError)
	if !ok {
		return false
	}
	*target = ce
	return true
}
