// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"fmt"

	"typedlua.dev/tlc/internal/ast"
)

// classDecl emits a class's constructor table, `__index` metatable chain
// for single inheritance, `_init` user constructor, reflection tables,
// and cached field/method collectors, per spec §4.7:
//
//	"emit a constructor table with new, a metatable __index chain for
//	single inheritance, _init as the user constructor,
//	__ownFields/__ownMethods/__ancestors tables for reflection and O(1)
//	instanceof, and cached _buildAllFields/_buildAllMethods helpers."
//
// Decorators are applied bottom-up at the end, wrapping the finished
// class table (spec §4.7 "Decorators").
func (g *Generator) classDecl(d *ast.ClassDecl) {
	className := g.name(d.Name.Name)
	var parentName string
	hasParent := d.Extends != nil
	if hasParent {
		parentName = g.name(d.Extends.Name.Name)
	}

	g.line("local %s = {}", className)
	g.line("%s.__index = %s", className, className)
	if hasParent {
		g.line("setmetatable(%s, { __index = %s })", className, parentName)
	}
	g.line("%s.__ancestors = {}", className)
	if hasParent {
		g.line("for _, a in ipairs(%s.__ancestors or {}) do %s.__ancestors[#%s.__ancestors + 1] = a end", parentName, className, className)
		g.line("%s.__ancestors[#%s.__ancestors + 1] = %q", className, className, g.in.MustLookup(d.Extends.Name.Name))
	}

	g.line("%s.__ownFields = {}", className)
	for _, f := range d.Fields {
		if f.Static {
			continue
		}
		g.line("%s.__ownFields[#%s.__ownFields + 1] = %q", className, className, g.in.MustLookup(f.Name.Name))
	}
	g.line("%s.__ownMethods = {}", className)
	for _, m := range d.Methods {
		if m.IsConstructor || m.Static {
			continue
		}
		g.line("%s.__ownMethods[#%s.__ownMethods + 1] = %q", className, className, g.in.MustLookup(m.Name.Name))
	}

	g.line("function %s._buildAllFields()", className)
	g.indented(func() {
		g.line("local out = {}")
		if hasParent {
			g.line("for _, n in ipairs(%s._buildAllFields()) do out[#out + 1] = n end", parentName)
		}
		g.line("for _, n in ipairs(%s.__ownFields) do out[#out + 1] = n end", className)
		g.line("return out")
	})
	g.line("end")

	g.line("function %s._buildAllMethods()", className)
	g.indented(func() {
		g.line("local out = {}")
		if hasParent {
			g.line("for _, n in ipairs(%s._buildAllMethods()) do out[#out + 1] = n end", parentName)
		}
		g.line("for _, n in ipairs(%s.__ownMethods) do out[#out + 1] = n end", className)
		g.line("return out")
	})
	g.line("end")

	frame := classFrame{name: d.Name.Name, hasParent: hasParent}
	if hasParent {
		frame.parent = d.Extends.Name.Name
	}
	g.classStack = append(g.classStack, frame)

	for _, f := range d.Fields {
		if !f.Static {
			continue
		}
		val := "nil"
		if f.Default != nil {
			val = g.expr(f.Default)
		}
		g.line("%s.%s = %s", className, g.name(f.Name.Name), val)
	}

	for i := range d.Methods {
		m := &d.Methods[i]
		if m.IsConstructor {
			continue
		}
		g.classMethod(className, m)
	}

	g.classConstructor(className, parentName, hasParent, d)

	g.classStack = g.classStack[:len(g.classStack)-1]

	if len(d.Decorators) > 0 {
		expr := className
		for i := len(d.Decorators) - 1; i >= 0; i-- {
			expr = fmt.Sprintf("(%s)(%s)", g.expr(&d.Decorators[i]), expr)
		}
		g.line("%s = %s", className, expr)
	}
}

func (g *Generator) classMethod(className string, m *ast.ClassMethodDecl) {
	if m.Static {
		g.line("function %s.%s(%s)", className, g.name(m.Name.Name), g.paramList(m.Params))
	} else {
		g.line("function %s:%s(%s)", className, g.name(m.Name.Name), g.paramList(m.Params))
	}
	g.indented(func() {
		g.paramPreamble(m.Params)
		g.emitLocalizedGlobals(m.Body.Span)
		for i := range m.Body.Statements {
			g.statement(&m.Body.Statements[i])
		}
	})
	g.line("end")
}

// classConstructor emits className.new(...), which allocates the
// instance table, sets its metatable to className (so method lookup
// chains through __index to ancestor classes), and invokes _init with
// the constructor arguments. The parent's _init is called first when one
// exists and the subclass doesn't declare its own constructor, matching
// spec §4.7's "Super calls to a parent's _init are generated when the
// parent class is known".
func (g *Generator) classConstructor(className, parentName string, hasParent bool, d *ast.ClassDecl) {
	var ctor *ast.ClassMethodDecl
	for i := range d.Methods {
		if d.Methods[i].IsConstructor {
			ctor = &d.Methods[i]
			break
		}
	}
	g.line("function %s.new(...)", className)
	g.indented(func() {
		g.line("local self = setmetatable({}, %s)", className)
		for _, f := range d.Fields {
			if f.Static || f.Default == nil {
				continue
			}
			g.line("self.%s = %s", g.name(f.Name.Name), g.expr(f.Default))
		}
		if ctor != nil {
			g.line("self:_init(...)")
		} else if hasParent {
			g.line("%s._init(self, ...)", parentName)
		}
		g.line("return self")
	})
	g.line("end")
	if ctor != nil {
		g.line("function %s:_init(%s)", className, g.paramList(ctor.Params))
		g.indented(func() {
			g.paramPreamble(ctor.Params)
			for i := range ctor.Body.Statements {
				g.statement(&ctor.Body.Statements[i])
			}
		})
		g.line("end")
	}
}
