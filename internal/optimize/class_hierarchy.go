// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/interner"
)

// ClassInfo is one class's position in the hierarchy, built once per
// program and shared read-only across passes (devirtualization, and any
// future pass that needs ancestor/descendant queries).
type ClassInfo struct {
	Decl    *ast.ClassDecl
	Parent  interner.ID // interner.Invalid if none
	Sealed  bool        // true when no other class extends this one
	Methods map[interner.ID]bool
}

// ClassHierarchy is the whole-program class graph, keyed by interned
// class name (the optimizer never needs the class name's text, only
// identity, so it avoids carrying an *interner.Interner reference).
type ClassHierarchy struct {
	classes map[interner.ID]*ClassInfo
}

// BuildClassHierarchy walks prog's top-level (and exported) class
// declarations once, recording each class's parent and method set.
func BuildClassHierarchy(prog *ast.Program) *ClassHierarchy {
	h := &ClassHierarchy{classes: make(map[interner.ID]*ClassInfo)}
	extended := make(map[interner.ID]bool)
	var visit func(s *ast.Statement)
	visit = func(s *ast.Statement) {
		switch s.Kind {
		case ast.StmtClassDecl:
			h.add(s.Class, extended)
		case ast.StmtExport:
			if s.Export.Decl != nil {
				visit(s.Export.Decl)
			}
		}
	}
	for i := range prog.Statements {
		visit(&prog.Statements[i])
	}
	for _, info := range h.classes {
		info.Sealed = !extended[info.Decl.Name.Name]
	}
	return h
}

func (h *ClassHierarchy) add(d *ast.ClassDecl, extended map[interner.ID]bool) {
	methods := make(map[interner.ID]bool, len(d.Methods))
	for _, m := range d.Methods {
		methods[m.Name.Name] = true
	}
	info := &ClassInfo{Decl: d, Methods: methods}
	if d.Extends != nil {
		info.Parent = d.Extends.Name.Name
		extended[info.Parent] = true
	}
	h.classes[d.Name.Name] = info
}

// Lookup returns the ClassInfo for name, if prog declared a class by
// that interned name.
func (h *ClassHierarchy) Lookup(name interner.ID) (*ClassInfo, bool) {
	info, ok := h.classes[name]
	return info, ok
}

// IsSealed reports whether name has no subclasses in this program, the
// condition devirtualization needs before it can skip the metatable
// chain for an instance known to be of this exact class.
func (h *ClassHierarchy) IsSealed(name interner.ID) bool {
	info, ok := h.classes[name]
	return ok && info.Sealed
}
