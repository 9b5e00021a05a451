// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"fmt"

	"typedlua.dev/tlc/internal/ast"
)

// enumDecl emits a table per enum with name/ordinal/values/valueOf and a
// __byName lookup table, per spec §4.7 ("Enums — emit a table per enum
// with name, ordinal, values, valueOf methods, and a __byName lookup
// table").
func (g *Generator) enumDecl(d *ast.EnumDecl) {
	enumName := g.name(d.Name.Name)
	g.line("local %s = {}", enumName)
	g.line("%s.__byName = {}", enumName)
	g.line("%s.values = {}", enumName)
	ordinal := int64(0)
	for _, m := range d.Members {
		memberName := g.name(m.Name.Name)
		val := fmt.Sprintf("%d", ordinal)
		if m.Value != nil {
			val = g.expr(m.Value)
		}
		quotedName := luaQuote(g.in.MustLookup(m.Name.Name))
		g.line("%s.%s = { name = %s, ordinal = %d, value = %s }", enumName, memberName, quotedName, ordinal, val)
		g.line("%s.values[#%s.values + 1] = %s.%s", enumName, enumName, enumName, memberName)
		g.line("%s.__byName[%s] = %s.%s", enumName, quotedName, enumName, memberName)
		ordinal++
	}
	g.line("function %s.valueOf(name)", enumName)
	g.indented(func() {
		g.line("return %s.__byName[name]", enumName)
	})
	g.line("end")
}
