// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package resolve implements the module resolver (spec §4.4): import
// path search, dependency graph construction, cycle detection that
// distinguishes value-import cycles (rejected) from type-only import
// cycles (allowed), and the topological sort the build coordinator
// consumes.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"typedlua.dev/tlc/internal/deque"
	"typedlua.dev/tlc/internal/sets"
)

// Path is a canonical, resolved filesystem path to a compilation unit.
// Two imports that resolve to the same Path refer to the same module,
// regardless of how each import spelled it.
type Path string

// candidateSuffixes is the order in which an import path missing an
// extension is tried against the filesystem (spec §4.4 step 2).
var candidateSuffixes = []string{".tl", ".d.tl", ".lua"}

// Resolve resolves importPath as written in the file at fromDir against
// the search order of spec §4.4: (1) the exact relative path, (2) the
// same path with a recognized suffix appended, (3) a directory index
// file, (4) each configured library root in order. A `.lua` resolution
// is only accepted when allowNonTypedLua is set and a companion
// `.d.tl` file sits beside it to supply types.
func Resolve(fromDir, importPath string, libraryRoots []string, allowNonTypedLua bool) (Path, error) {
	bases := candidateBases(fromDir, importPath, libraryRoots)
	for _, base := range bases {
		if p, ok := tryBase(base, allowNonTypedLua); ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("cannot resolve import %q from %s", importPath, fromDir)
}

func candidateBases(fromDir, importPath string, libraryRoots []string) []string {
	var bases []string
	if strings.HasPrefix(importPath, ".") || filepath.IsAbs(importPath) {
		bases = append(bases, filepath.Join(fromDir, importPath))
	} else {
		// Bare specifiers are resolved only against library roots, the
		// way a package import (as opposed to a relative one) is.
		for _, root := range libraryRoots {
			bases = append(bases, filepath.Join(root, importPath))
		}
		return bases
	}
	for _, root := range libraryRoots {
		bases = append(bases, filepath.Join(root, importPath))
	}
	return bases
}

func tryBase(base string, allowNonTypedLua bool) (Path, bool) {
	// (1) exact path, if it already names a file.
	if fileExists(base) {
		if p, ok := acceptFile(base, allowNonTypedLua); ok {
			return p, true
		}
	}
	// (2) with an appended recognized suffix.
	for _, suffix := range candidateSuffixes {
		candidate := base + suffix
		if fileExists(candidate) {
			if p, ok := acceptFile(candidate, allowNonTypedLua); ok {
				return p, true
			}
		}
	}
	// (3) directory index file.
	if dirExists(base) {
		for _, name := range []string{"index.tl", "index.d.tl", "index.lua"} {
			candidate := filepath.Join(base, name)
			if fileExists(candidate) {
				if p, ok := acceptFile(candidate, allowNonTypedLua); ok {
					return p, true
				}
			}
		}
	}
	return "", false
}

// acceptFile applies the `.lua` + companion `.d.tl` rule (spec §4.4:
// "`.lua` imports are permitted only when 'allow non-typed Lua' is
// enabled and a companion `.d.tl` declarations file exists").
func acceptFile(path string, allowNonTypedLua bool) (Path, bool) {
	if !strings.HasSuffix(path, ".lua") || strings.HasSuffix(path, ".d.tl") {
		return Path(path), true
	}
	if !allowNonTypedLua {
		return "", false
	}
	companion := strings.TrimSuffix(path, ".lua") + ".d.tl"
	if !fileExists(companion) {
		return "", false
	}
	return Path(path), true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Edge is one import: Target is the imported module, and TypeOnly
// records whether every binding drawn from it is a type-only import
// (e.g. `import type { T } from "./t"`), the distinction spec §4.4
// uses to decide whether a cycle through this edge is permitted.
type Edge struct {
	Target   Path
	TypeOnly bool
}

// Graph is the resolver's directed import graph: one node per module,
// each with its outgoing import edges in source order.
type Graph struct {
	edges map[Path][]Edge
	order []Path // first-seen order, for deterministic iteration
}

// NewGraph returns an empty import graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[Path][]Edge)}
}

// AddModule registers m with no imports yet, if not already present.
func (g *Graph) AddModule(m Path) {
	if _, ok := g.edges[m]; !ok {
		g.edges[m] = nil
		g.order = append(g.order, m)
	}
}

// AddImport records that from imports target, value-wise unless
// typeOnly is set.
func (g *Graph) AddImport(from Path, target Path, typeOnly bool) {
	g.AddModule(from)
	g.AddModule(target)
	g.edges[from] = append(g.edges[from], Edge{Target: target, TypeOnly: typeOnly})
}

// CycleError reports a forbidden cycle among value imports.
type CycleError struct {
	Cycle []Path
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Cycle))
	for i, p := range e.Cycle {
		names[i] = string(p)
	}
	return fmt.Sprintf("import cycle (value import): %s", strings.Join(names, " -> "))
}

// color marks a module's position in the depth-first traversal used by
// TopoSort to detect back edges.
type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully processed
)

// TopoSort returns g's modules in dependency-first (topological) order:
// every module appears after all modules it value-imports. A cycle
// formed entirely of type-only imports is permitted and reported in
// backEdges rather than causing an error (spec §4.4: "cycles among
// value modules are rejected, cycles among pure type imports are
// allowed"); a cycle containing at least one value import is a
// *CycleError.
func (g *Graph) TopoSort() (order []Path, backEdges []Edge, err error) {
	colors := make(map[Path]color, len(g.order))
	var stack []Path
	var visit func(m Path) error
	visit = func(m Path) error {
		colors[m] = gray
		stack = append(stack, m)
		for _, e := range g.edges[m] {
			switch colors[e.Target] {
			case white:
				if err := visit(e.Target); err != nil {
					return err
				}
			case gray:
				if !e.TypeOnly {
					cycle := cycleFrom(stack, e.Target)
					return &CycleError{Cycle: cycle}
				}
				backEdges = append(backEdges, e)
			case black:
				// Already resolved via another path; no edge to add.
			}
		}
		colors[m] = black
		stack = stack[:len(stack)-1]
		order = append(order, m)
		return nil
	}
	for _, m := range g.order {
		if colors[m] == white {
			if err := visit(m); err != nil {
				return nil, nil, err
			}
		}
	}
	return order, backEdges, nil
}

func cycleFrom(stack []Path, target Path) []Path {
	for i, p := range stack {
		if p == target {
			cycle := append([]Path(nil), stack[i:]...)
			return append(cycle, target)
		}
	}
	return append(append([]Path(nil), stack...), target)
}

// DirtyClosure computes the BFS dirty set over g's reverse edges,
// starting from seed (the modules whose content or config hash
// changed), the invalidation engine's traversal (spec §4.5:
// "invalidation engine computes the dirty closure by BFS over reverse
// edges").
func (g *Graph) DirtyClosure(seed []Path) sets.Set[Path] {
	reverse := make(map[Path][]Path, len(g.order))
	for m, edges := range g.edges {
		for _, e := range edges {
			reverse[e.Target] = append(reverse[e.Target], m)
		}
	}
	dirty := sets.New(seed...)
	queue := deque.Collect(sliceValues(seed))
	for queue.Len() > 0 {
		cur, _ := queue.Front()
		queue.PopFront(1)
		for _, importer := range reverse[cur] {
			if !dirty.Has(importer) {
				dirty.Add(importer)
				queue.PushBack(importer)
			}
		}
	}
	return dirty
}

func sliceValues(ps []Path) func(yield func(Path) bool) {
	return func(yield func(Path) bool) {
		for _, p := range ps {
			if !yield(p) {
				return
			}
		}
	}
}
